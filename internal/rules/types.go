package rules

import (
	"context"
	"fmt"
	"sort"

	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
)

// #region kind
// Kind separates the two target name spaces.
type Kind int

const (
	Entrance Kind = iota
	Location
)

// Kinds lists every kind in report order.
var Kinds = []Kind{Entrance, Location}

func (k Kind) String() string {
	switch k {
	case Entrance:
		return "entrance"
	case Location:
		return "location"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "entrance":
		return Entrance, nil
	case "location":
		return Location, nil
	}
	return 0, fmt.Errorf("unknown target kind %q", s)
}

// #endregion kind

// #region table
// Predicate decides whether a target is passable with the given inventory.
type Predicate func(inventory.State) (bool, error)

// Table maps target names to predicates. Absent targets are always passable.
type Table map[string]Predicate

// RuleSet holds a provider's tables for one difficulty.
type RuleSet struct {
	Entrances Table
	Locations Table
}

// Table returns the table for kind.
func (rs RuleSet) Table(kind Kind) Table {
	if kind == Location {
		return rs.Locations
	}
	return rs.Entrances
}

// Targets returns the sorted target names of kind.
func (rs RuleSet) Targets(kind Kind) []string {
	t := rs.Table(kind)
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// #endregion table

// #region provider
// Provider builds rule tables for a difficulty configuration. Building must
// not depend on any earlier call.
type Provider interface {
	Name() string
	RuleSet(ctx context.Context, opts difficulty.Options) (RuleSet, error)
}

// BuildFunc builds a RuleSet for one configuration.
type BuildFunc func(ctx context.Context, opts difficulty.Options) (RuleSet, error)

type staticProvider struct {
	name  string
	build BuildFunc
}

// Static wraps a Go function as a Provider.
func Static(name string, build BuildFunc) Provider {
	return &staticProvider{name: name, build: build}
}

func (p *staticProvider) Name() string { return p.name }

func (p *staticProvider) RuleSet(ctx context.Context, opts difficulty.Options) (RuleSet, error) {
	return p.build(ctx, opts)
}

// #endregion provider

// #region eval-error
// EvalError reports a predicate failure with enough context to reproduce it.
type EvalError struct {
	Provider string
	Kind     Kind
	Target   string
	Tier     difficulty.Tier
	State    string
	Err      error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %s %s %q at %s with [%s]: %v",
		e.Provider, e.Kind, e.Target, e.Tier, e.State, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// #endregion eval-error
