package history

import (
	"time"

	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules"
)

// #region run
// Run is one finished comparison.
type Run struct {
	ID          string
	ProviderA   string
	ProviderB   string
	States      int
	Targets     int
	Comparisons int
	Mismatches  int
	Keys        int // divergence keys with examples
	Examples    int
	ReportPath  string
	StartedAt   time.Time
	Duration    time.Duration
}

// #endregion run

// #region divergence
// Divergence is one stored example loadout.
type Divergence struct {
	Kind    rules.Kind
	Target  string
	Tier    difficulty.Tier
	APasses bool
	Bits    inventory.BitRep
	Summary string
}

// #endregion divergence
