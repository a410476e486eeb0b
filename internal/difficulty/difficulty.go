package difficulty

import (
	"errors"
	"fmt"
	"strings"
)

// #region tiers
// Tier indexes one logic-strictness configuration.
type Tier int

const (
	Normal Tier = iota
	NormalObscure
	Hard
	HardObscure
	Expert
	Lunatic
)

// Count is the number of tiers.
const Count = 6

// ErrUnknownTier is returned for an index or name outside the fixed set.
var ErrUnknownTier = errors.New("unrecognized difficulty")

var names = [Count]string{
	Normal:        "normal",
	NormalObscure: "normal + obscure",
	Hard:          "hard",
	HardObscure:   "hard + obscure",
	Expert:        "expert",
	Lunatic:       "lunatic",
}

// All returns every tier in index order.
func All() []Tier {
	out := make([]Tier, Count)
	for i := range out {
		out[i] = Tier(i)
	}
	return out
}

// Validate fails with ErrUnknownTier for an out-of-range index.
func (t Tier) Validate() error {
	if t < 0 || t >= Count {
		return fmt.Errorf("%w index %d", ErrUnknownTier, int(t))
	}
	return nil
}

// String returns the display name, or a placeholder for an invalid tier.
func (t Tier) String() string {
	if t.Validate() != nil {
		return fmt.Sprintf("difficulty(%d)", int(t))
	}
	return names[t]
}

// Name is String for valid tiers and an error otherwise.
func (t Tier) Name() (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	return names[t], nil
}

// Parse accepts a display name ("hard + obscure") or its compact form
// ("hard+obscure", "hard_obscure").
func Parse(s string) (Tier, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "", "_", "+", "-", "+").Replace(norm)
	for i, n := range names {
		if strings.ReplaceAll(n, " ", "") == norm {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownTier, s)
}

// #endregion tiers

// #region options
// Options is the immutable configuration a rule provider builds its tables
// for. Both rule set styles are described: the logic-level/obscure pair and
// the trick tag list.
type Options struct {
	Tier       Tier
	LogicLevel int // 1 normal, 2 hard, 3 expert, 4 lunatic
	Obscure    bool
	Tags       []string
}

// OptionsFor derives the options of a tier.
func OptionsFor(t Tier) (Options, error) {
	if err := t.Validate(); err != nil {
		return Options{}, err
	}

	opts := Options{Tier: t, LogicLevel: 1, Obscure: true}
	switch t {
	case Hard, HardObscure:
		opts.LogicLevel = 2
	case Expert:
		opts.LogicLevel = 3
	case Lunatic:
		opts.LogicLevel = 4
	}
	if t == Normal || t == Hard {
		opts.Obscure = false
	}

	switch t {
	case NormalObscure:
		opts.Tags = []string{"obscure"}
	case Hard:
		opts.Tags = []string{"hard"}
	case HardObscure:
		opts.Tags = []string{"hard", "obscure"}
	case Expert:
		opts.Tags = []string{"expert"}
	case Lunatic:
		opts.Tags = []string{"lunatic"}
	}
	return opts, nil
}

// HasTag reports whether tag is one of the tier's trick tags.
func (o Options) HasTag(tag string) bool {
	for _, t := range o.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// #endregion options
