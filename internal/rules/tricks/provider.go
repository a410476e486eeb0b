package tricks

import (
	"context"
	"fmt"

	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules"
)

// #region provider
// Provider evaluates targets against a trick table. A target passes when one
// of its tricks is enabled at the difficulty and the inventory holds every
// item that trick needs.
type Provider struct {
	name   string
	tricks *Tricks
	space  *inventory.Space
}

// NewProvider rejects tables whose loadouts name items outside sp or ask for
// negative counts.
func NewProvider(name string, t *Tricks, sp *inventory.Space) (*Provider, error) {
	for _, table := range []map[string][]Trick{t.EntranceTricks, t.LocationTricks} {
		for target, tricks := range table {
			for i, tr := range tricks {
				for item, n := range tr.Loadout {
					if _, ok := sp.Lookup(item); !ok {
						return nil, fmt.Errorf("new tricks provider: %s trick %d needs unknown item %q", target, i, item)
					}
					if n < 0 {
						return nil, fmt.Errorf("new tricks provider: %s trick %d needs %d %s", target, i, n, item)
					}
				}
			}
		}
	}
	return &Provider{name: name, tricks: t, space: sp}, nil
}

// Name returns the provider's label.
func (p *Provider) Name() string { return p.name }

// RuleSet keeps, per target, only the tricks whose tags are all enabled by
// the difficulty's tags.
func (p *Provider) RuleSet(_ context.Context, opts difficulty.Options) (rules.RuleSet, error) {
	if err := opts.Tier.Validate(); err != nil {
		return rules.RuleSet{}, err
	}
	enabled := ExpandTags(opts.Tags, p.tricks.TagHierarchy)
	return rules.RuleSet{
		Entrances: p.table(p.tricks.EntranceTricks, enabled),
		Locations: p.table(p.tricks.LocationTricks, enabled),
	}, nil
}

func (p *Provider) table(src map[string][]Trick, enabled []string) rules.Table {
	t := make(rules.Table, len(src))
	for target, tricks := range src {
		var usable []need
		for _, tr := range tricks {
			if !subset(ExpandTags(tr.Tags, p.tricks.TagHierarchy), enabled) {
				continue
			}
			usable = append(usable, p.compile(tr.Loadout))
		}
		t[target] = predicate(usable)
	}
	return t
}

// #endregion provider

// #region predicate
type need []struct{ dim, count int }

func (p *Provider) compile(r Requirement) need {
	var n need
	for item, count := range r {
		dim, _ := p.space.Lookup(item)
		n = append(n, struct{ dim, count int }{dim, count})
	}
	return n
}

func predicate(usable []need) rules.Predicate {
	return func(s inventory.State) (bool, error) {
	tricks:
		for _, n := range usable {
			for _, req := range n {
				if s.At(req.dim) < req.count {
					continue tricks
				}
			}
			return true, nil
		}
		return false, nil
	}
}

// #endregion predicate
