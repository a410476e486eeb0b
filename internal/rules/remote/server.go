package remote

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/logging"
	"github.com/danielpatrickdp/rulecheck/internal/rules"
	"github.com/danielpatrickdp/rulecheck/internal/statespace"
)

// #region server-struct
// Server exposes a rules.Provider over gRPC. Rule sets are built once per
// tier and reused.
type Server struct {
	provider rules.Provider
	space    *inventory.Space
	logger   *slog.Logger

	mu   sync.Mutex
	sets map[difficulty.Tier]rules.RuleSet
}

// NewServer serves p, whose predicates read states of sp.
func NewServer(p rules.Provider, sp *inventory.Space, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Server{
		provider: p,
		space:    sp,
		logger:   logger,
		sets:     make(map[difficulty.Tier]rules.RuleSet),
	}
}

func (s *Server) ruleSet(ctx context.Context, tier difficulty.Tier) (rules.RuleSet, error) {
	opts, err := difficulty.OptionsFor(tier)
	if err != nil {
		return rules.RuleSet{}, status.Error(codes.InvalidArgument, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rs, ok := s.sets[tier]; ok {
		return rs, nil
	}
	rs, err := s.provider.RuleSet(ctx, opts)
	if err != nil {
		return rules.RuleSet{}, status.Errorf(codes.Internal, "build %s rules for %s: %v", s.provider.Name(), tier, err)
	}
	s.sets[tier] = rs
	return rs, nil
}

// #endregion server-struct

// #region list-targets
// ListTargets returns the provider's target names for a tier.
func (s *Server) ListTargets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tier := difficulty.Tier(int(req.GetFields()["tier"].GetNumberValue()))
	rs, err := s.ruleSet(ctx, tier)
	if err != nil {
		return nil, err
	}
	resp, err := structpb.NewStruct(map[string]any{
		"provider":  s.provider.Name(),
		"entrances": stringsToAny(rs.Targets(rules.Entrance)),
		"locations": stringsToAny(rs.Targets(rules.Location)),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode targets: %v", err)
	}
	return resp, nil
}

// #endregion list-targets

// #region evaluate-space
// EvaluateSpace evaluates one target on every state of the server's space.
// The request must describe the same dimension list.
func (s *Server) EvaluateSpace(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	tier := difficulty.Tier(int(fields["tier"].GetNumberValue()))
	kind, err := rules.ParseKind(fields["kind"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	target := fields["target"].GetStringValue()
	slot := int(fields["slot"].GetNumberValue())

	dims, err := decodeDimensions(fields["dimensions"])
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := sameDimensions(dims, s.space.Dimensions()); err != nil {
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}

	rs, err := s.ruleSet(ctx, tier)
	if err != nil {
		return nil, err
	}
	table := rs.Table(kind)

	results := make([]any, 0, statespace.Size(s.space))
	for _, st := range statespace.Enumerate(s.space, slot) {
		ok, err := rules.Evaluate(table, target, st)
		if err != nil {
			s.logger.Error("rule evaluation failed", "kind", kind.String(), "target", target, "tier", tier.String(), "state", st.String(), "error", err)
			return nil, status.Errorf(codes.FailedPrecondition, "evaluate %s %q at %s with [%s]: %v", kind, target, tier, st, err)
		}
		results = append(results, ok)
	}

	resp, err := structpb.NewStruct(map[string]any{"results": results})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode results: %v", err)
	}
	return resp, nil
}

// #endregion evaluate-space

// #region helpers
func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func encodeDimensions(dims []inventory.Dimension) []any {
	out := make([]any, len(dims))
	for i, d := range dims {
		out[i] = map[string]any{"name": d.Name, "max": d.Max, "step": d.Count(1)}
	}
	return out
}

func decodeDimensions(v *structpb.Value) ([]inventory.Dimension, error) {
	list := v.GetListValue()
	if list == nil {
		return nil, fmt.Errorf("dimensions missing")
	}
	dims := make([]inventory.Dimension, 0, len(list.GetValues()))
	for i, item := range list.GetValues() {
		f := item.GetStructValue().GetFields()
		if f == nil {
			return nil, fmt.Errorf("dimension %d is not an object", i)
		}
		dims = append(dims, inventory.Dimension{
			Name: f["name"].GetStringValue(),
			Max:  int(f["max"].GetNumberValue()),
			Step: int(f["step"].GetNumberValue()),
		})
	}
	return dims, nil
}

func sameDimensions(got, want []inventory.Dimension) error {
	if len(got) != len(want) {
		return fmt.Errorf("client has %d dimensions, server has %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Name != want[i].Name || got[i].Max != want[i].Max || got[i].Count(1) != want[i].Count(1) {
			return fmt.Errorf("dimension %d: client %+v, server %+v", i, got[i], want[i])
		}
	}
	return nil
}

// #endregion helpers
