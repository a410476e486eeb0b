package compare

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/divergence"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/logging"
	"github.com/danielpatrickdp/rulecheck/internal/rules"
	"github.com/danielpatrickdp/rulecheck/internal/statespace"
)

// #region driver
// Driver cross-evaluates two rule providers over the whole state space.
type Driver struct {
	a, b   rules.Provider
	space  *inventory.Space
	config Config
	logger *slog.Logger
}

// NewDriver checks config against sp. A nil logger discards output.
func NewDriver(a, b rules.Provider, sp *inventory.Space, config Config, logger *slog.Logger) (*Driver, error) {
	if a == nil || b == nil {
		return nil, errors.New("new driver: both providers are required")
	}
	if len(config.Tiers) == 0 {
		return nil, errors.New("new driver: no difficulty tiers selected")
	}
	for _, t := range config.Tiers {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("new driver: %w", err)
		}
	}
	if err := config.Mapping.Validate(sp); err != nil {
		return nil, fmt.Errorf("new driver: %w", err)
	}
	if config.Workers < 0 {
		return nil, fmt.Errorf("new driver: workers must not be negative, got %d", config.Workers)
	}
	if config.Workers == 0 {
		config.Workers = DefaultConfig().Workers
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Driver{a: a, b: b, space: sp, config: config, logger: logger}, nil
}

// #endregion driver

// #region run
// Run compares every target of both providers at every configured tier and
// returns the reduced divergences. The first predicate failure stops the run.
func (d *Driver) Run(ctx context.Context) (*divergence.Registry, Stats, error) {
	start := time.Now()
	states := statespace.All(d.space, d.config.Slot)
	reg := divergence.NewRegistry(d.space)
	stats := Stats{States: len(states)}

	var comparisons, mismatches atomic.Int64
	for _, tier := range d.config.Tiers {
		tierStart := time.Now()
		before := mismatches.Load()

		// rule sets may capture gctx; the first failure cancels their calls
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.config.Workers)
		units, err := d.plan(gctx, tier)
		if err != nil {
			return nil, stats, err
		}

		for _, u := range units {
			g.Go(func() error {
				n, m, err := d.compareTarget(gctx, reg, u, states)
				comparisons.Add(int64(n))
				mismatches.Add(int64(m))
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, stats, err
		}

		stats.Targets += len(units)
		d.logger.Info("tier compared",
			"tier", tier.String(),
			"targets", len(units),
			"mismatches", mismatches.Load()-before,
			"elapsed", time.Since(tierStart))
	}

	stats.Comparisons = int(comparisons.Load())
	stats.Mismatches = int(mismatches.Load())
	stats.Duration = time.Since(start)
	return reg, stats, nil
}

// #endregion run

// #region plan
type unit struct {
	tier   difficulty.Tier
	kind   rules.Kind
	target string
	a, b   rules.Table
}

// plan builds both rule sets for tier and lists the targets to compare.
func (d *Driver) plan(ctx context.Context, tier difficulty.Tier) ([]unit, error) {
	opts, err := difficulty.OptionsFor(tier)
	if err != nil {
		return nil, err
	}
	setA, err := d.a.RuleSet(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("build %s rules for %s: %w", d.a.Name(), tier, err)
	}
	setB, err := d.b.RuleSet(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("build %s rules for %s: %w", d.b.Name(), tier, err)
	}

	var units []unit
	for _, kind := range rules.Kinds {
		for _, target := range unionTargets(setA.Table(kind), setB.Table(kind)) {
			if d.config.Exclusions.Excluded(kind, target) {
				d.logger.Debug("target excluded", "kind", kind.String(), "target", target)
				continue
			}
			units = append(units, unit{
				tier:   tier,
				kind:   kind,
				target: target,
				a:      setA.Table(kind),
				b:      setB.Table(kind),
			})
		}
	}
	return units, nil
}

func unionTargets(a, b rules.Table) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for n := range a {
		seen[n] = struct{}{}
	}
	for n := range b {
		seen[n] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// #endregion plan

// #region compare-target
const cancelCheckEvery = 256

// compareTarget evaluates one target on every state and records each
// disagreement once. It returns the number of comparisons and mismatches.
func (d *Driver) compareTarget(ctx context.Context, reg *divergence.Registry, u unit, states []inventory.State) (int, int, error) {
	var n, m int
	for i, s := range states {
		if i%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return n, m, err
			}
		}

		passA, err := rules.Evaluate(u.a, u.target, s)
		if err != nil {
			return n, m, d.evalError(d.a, u, s, err)
		}
		passB, err := rules.Evaluate(u.b, u.target, s)
		if err != nil {
			return n, m, d.evalError(d.b, u, s, err)
		}
		n++
		if passA == passB {
			continue
		}
		m++

		l, err := d.config.Mapping.Loadout(s)
		if err != nil {
			return n, m, fmt.Errorf("derive loadout for %s %q: %w", u.kind, u.target, err)
		}
		key := divergence.Key{Kind: u.kind, Target: u.target, Tier: u.tier, APasses: passA}
		if err := reg.Record(key, l); err != nil {
			return n, m, err
		}
	}
	return n, m, nil
}

func (d *Driver) evalError(p rules.Provider, u unit, s inventory.State, err error) error {
	return &rules.EvalError{
		Provider: p.Name(),
		Kind:     u.kind,
		Target:   u.target,
		Tier:     u.tier,
		State:    s.String(),
		Err:      err,
	}
}

// #endregion compare-target
