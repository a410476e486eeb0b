package compare

import (
	"runtime"
	"sort"
	"time"

	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules"
)

// #region exclusions
// Exclusions lists target names that are known to differ on purpose and are
// left out of the comparison. Names match exactly.
type Exclusions struct {
	entrances map[string]struct{}
	locations map[string]struct{}
}

// NewExclusions builds an exclusion set.
func NewExclusions(entrances, locations []string) Exclusions {
	e := Exclusions{
		entrances: make(map[string]struct{}, len(entrances)),
		locations: make(map[string]struct{}, len(locations)),
	}
	for _, n := range entrances {
		e.entrances[n] = struct{}{}
	}
	for _, n := range locations {
		e.locations[n] = struct{}{}
	}
	return e
}

// DefaultExclusions skips the Sun Greaves checks, whose split-item logic the
// two rule sets model differently.
func DefaultExclusions() Exclusions {
	return NewExclusions(nil, []string{
		"Listless Library - Sun Greaves 1",
		"Listless Library - Sun Greaves 2",
		"Listless Library - Sun Greaves 3",
	})
}

// Excluded reports whether name of kind is skipped.
func (e Exclusions) Excluded(kind rules.Kind, name string) bool {
	set := e.entrances
	if kind == rules.Location {
		set = e.locations
	}
	_, ok := set[name]
	return ok
}

// Names returns the sorted excluded names of kind.
func (e Exclusions) Names(kind rules.Kind) []string {
	set := e.entrances
	if kind == rules.Location {
		set = e.locations
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// #endregion exclusions

// #region config
// Config controls one comparison run.
type Config struct {
	Tiers      []difficulty.Tier
	Slot       int // owner of every enumerated state
	Mapping    inventory.Mapping
	Exclusions Exclusions
	Workers    int // 0 means GOMAXPROCS
}

// DefaultConfig compares every tier for slot 1 with the default mapping and
// exclusions.
func DefaultConfig() Config {
	return Config{
		Tiers:      difficulty.All(),
		Slot:       inventory.DefaultSlot,
		Mapping:    inventory.DefaultMapping(),
		Exclusions: DefaultExclusions(),
		Workers:    runtime.GOMAXPROCS(0),
	}
}

// #endregion config

// #region stats
// Stats summarizes a finished run.
type Stats struct {
	States      int
	Targets     int // (tier, kind, target) units compared
	Comparisons int
	Mismatches  int
	Duration    time.Duration
}

// #endregion stats
