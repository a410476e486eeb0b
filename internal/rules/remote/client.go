package remote

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules"
	"github.com/danielpatrickdp/rulecheck/internal/statespace"
)

// DefaultCacheSize bounds the number of per-target result vectors kept.
const DefaultCacheSize = 4096

// #region client-struct
// Client is a rules.Provider backed by a remote rule service. A target's
// results for the whole state space are fetched in one call on first use and
// cached.
type Client struct {
	name  string
	conn  *grpc.ClientConn
	svc   RuleServiceClient
	space *inventory.Space

	cache  *lru.Cache[string, []bool]
	flight singleflight.Group
}

// #endregion client-struct

// #region constructor
// NewClient connects to the rule service at addr.
func NewClient(name, addr string, sp *inventory.Space) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	c, err := newClient(name, NewRuleServiceClient(conn), sp)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// NewClientWithService creates a Client over an existing service client.
func NewClientWithService(name string, svc RuleServiceClient, sp *inventory.Space) (*Client, error) {
	return newClient(name, svc, sp)
}

func newClient(name string, svc RuleServiceClient, sp *inventory.Space) (*Client, error) {
	cache, err := lru.New[string, []bool](DefaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("new result cache: %w", err)
	}
	return &Client{name: name, svc: svc, space: sp, cache: cache}, nil
}

// Close shuts down the connection, if the client owns one.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion constructor

// #region provider
// Name returns the provider's label.
func (c *Client) Name() string { return c.name }

// RuleSet lists the remote targets for the tier. Predicates fetch lazily and
// use ctx for their calls.
func (c *Client) RuleSet(ctx context.Context, opts difficulty.Options) (rules.RuleSet, error) {
	if err := opts.Tier.Validate(); err != nil {
		return rules.RuleSet{}, err
	}
	req, err := structpb.NewStruct(map[string]any{"tier": int(opts.Tier)})
	if err != nil {
		return rules.RuleSet{}, fmt.Errorf("encode list request: %w", err)
	}
	resp, err := c.svc.ListTargets(ctx, req)
	if err != nil {
		return rules.RuleSet{}, fmt.Errorf("list targets rpc: %w", err)
	}

	rs := rules.RuleSet{Entrances: rules.Table{}, Locations: rules.Table{}}
	for _, kind := range rules.Kinds {
		field := "entrances"
		if kind == rules.Location {
			field = "locations"
		}
		t := rs.Table(kind)
		for _, v := range resp.GetFields()[field].GetListValue().GetValues() {
			name := v.GetStringValue()
			t[name] = c.predicate(ctx, opts.Tier, kind, name)
		}
	}
	return rs, nil
}

func (c *Client) predicate(ctx context.Context, tier difficulty.Tier, kind rules.Kind, target string) rules.Predicate {
	return func(s inventory.State) (bool, error) {
		results, err := c.results(ctx, tier, kind, target, s.Slot())
		if err != nil {
			return false, err
		}
		ord, err := statespace.Ordinal(c.space, s)
		if err != nil {
			return false, err
		}
		return results[ord], nil
	}
}

// #endregion provider

// #region results
func (c *Client) results(ctx context.Context, tier difficulty.Tier, kind rules.Kind, target string, slot int) ([]bool, error) {
	key := fmt.Sprintf("%d/%s/%d/%s", tier, kind, slot, target)
	if r, ok := c.cache.Get(key); ok {
		return r, nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		if r, ok := c.cache.Get(key); ok {
			return r, nil
		}
		req, err := structpb.NewStruct(map[string]any{
			"tier":       int(tier),
			"kind":       kind.String(),
			"target":     target,
			"slot":       slot,
			"dimensions": encodeDimensions(c.space.Dimensions()),
		})
		if err != nil {
			return nil, fmt.Errorf("encode evaluate request: %w", err)
		}
		resp, err := c.svc.EvaluateSpace(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("evaluate space rpc: %w", err)
		}

		values := resp.GetFields()["results"].GetListValue().GetValues()
		if want := statespace.Size(c.space); len(values) != want {
			return nil, fmt.Errorf("evaluate space: got %d results, want %d", len(values), want)
		}
		out := make([]bool, len(values))
		for i, r := range values {
			out[i] = r.GetBoolValue()
		}
		c.cache.Add(key, out)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]bool), nil
}

// #endregion results
