package remote

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region names
const (
	serviceName         = "rulecheck.v1.RuleService"
	listTargetsMethod   = "/rulecheck.v1.RuleService/ListTargets"
	evaluateSpaceMethod = "/rulecheck.v1.RuleService/EvaluateSpace"
)

// #endregion names

// #region client
// RuleServiceClient is the client side of the rule service. Messages are
// protobuf Structs:
//
//	ListTargets   {tier} -> {provider, entrances: [name], locations: [name]}
//	EvaluateSpace {tier, kind, target, slot, dimensions: [{name, max, step}]}
//	              -> {results: [bool]} in enumeration order
type RuleServiceClient interface {
	ListTargets(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	EvaluateSpace(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type ruleServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRuleServiceClient binds the rule service to a connection.
func NewRuleServiceClient(cc grpc.ClientConnInterface) RuleServiceClient {
	return &ruleServiceClient{cc: cc}
}

func (c *ruleServiceClient) ListTargets(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, listTargetsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ruleServiceClient) EvaluateSpace(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, evaluateSpaceMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion client

// #region server
// RuleServiceServer is the server side of the rule service.
type RuleServiceServer interface {
	ListTargets(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EvaluateSpace(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterRuleServiceServer registers srv on s.
func RegisterRuleServiceServer(s grpc.ServiceRegistrar, srv RuleServiceServer) {
	s.RegisterService(&ruleServiceDesc, srv)
}

func listTargetsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuleServiceServer).ListTargets(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listTargetsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RuleServiceServer).ListTargets(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func evaluateSpaceHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RuleServiceServer).EvaluateSpace(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: evaluateSpaceMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RuleServiceServer).EvaluateSpace(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var ruleServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RuleServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListTargets", Handler: listTargetsHandler},
		{MethodName: "EvaluateSpace", Handler: evaluateSpaceHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rulecheck/v1/rules.proto",
}

// #endregion server
