package inventory

import (
	"errors"
	"fmt"
	"strings"
)

// #region errors
var (
	// ErrInvalidDimension is returned when a dimension list cannot form a Space.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrOutOfRange is returned when a count or level lies outside its dimension's range.
	ErrOutOfRange = errors.New("value out of range")
	// ErrInvalidBitRep is returned when a bit representation was not produced by Encode.
	ErrInvalidBitRep = errors.New("invalid bit representation")
)

// #endregion errors

// #region item-names
// Item names of the default dimension list.
const (
	DreamBreaker   = "Dream Breaker"
	Strikebreak    = "Strikebreak"
	SoulCutter     = "Soul Cutter"
	Sunsetter      = "Sunsetter"
	Slide          = "Slide"
	SolarWind      = "Solar Wind"
	AscendantLight = "Ascendant Light"
	ClingGem       = "Cling Gem"
	AirKick        = "Air Kick"
	SmallKey       = "Small Key"
)

// DefaultSlot is the player slot every default state belongs to.
const DefaultSlot = 1

// #endregion item-names

// #region dimension
// Dimension is one named inventory slot. Levels run from 0 to Max; the item
// count at a level is level*Step. Key and Header name the item in trick-table
// JSON and in the trick sheet when those differ from Name.
type Dimension struct {
	Name   string `yaml:"name" json:"name"`
	Max    int    `yaml:"max" json:"max"`
	Step   int    `yaml:"step,omitempty" json:"step,omitempty"` // 0 means 1
	Key    string `yaml:"key,omitempty" json:"key,omitempty"`
	Header string `yaml:"header,omitempty" json:"header,omitempty"`
}

// JSONKey returns Key, or Name in snake case ("Dream Breaker" is "dream_breaker").
func (d Dimension) JSONKey() string {
	if d.Key != "" {
		return d.Key
	}
	return strings.ToLower(strings.Join(strings.Fields(d.Name), "_"))
}

// Column returns Header, or Name.
func (d Dimension) Column() string {
	if d.Header != "" {
		return d.Header
	}
	return d.Name
}

// Count converts a level to an item count.
func (d Dimension) Count(level int) int {
	return level * d.step()
}

func (d Dimension) step() int {
	if d.Step == 0 {
		return 1
	}
	return d.Step
}

// DefaultDimensions returns the standard item list in declaration order.
func DefaultDimensions() []Dimension {
	return []Dimension{
		{Name: DreamBreaker, Max: 1},
		{Name: Strikebreak, Max: 1},
		{Name: SoulCutter, Max: 1},
		{Name: Sunsetter, Max: 1},
		{Name: Slide, Max: 1},
		{Name: SolarWind, Max: 1},
		{Name: AscendantLight, Max: 1},
		{Name: ClingGem, Max: 1, Key: "clings", Header: "Clings"},
		{Name: AirKick, Max: 4, Key: "kicks", Header: "Kicks"},
		{Name: SmallKey, Max: 1, Step: 7, Key: "small_keys", Header: "Small Keys"},
	}
}

// #endregion dimension

// #region space
// Space is the fixed, ordered dimension list shared by every state, loadout
// and bit representation built from it.
type Space struct {
	dims    []Dimension
	index   map[string]int
	keys    map[string]int
	offsets []uint
	width   uint
}

// NewSpace validates dims and lays out their bit fields in declaration order.
func NewSpace(dims ...Dimension) (*Space, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("%w: empty dimension list", ErrInvalidDimension)
	}

	sp := &Space{
		dims:    make([]Dimension, len(dims)),
		index:   make(map[string]int, len(dims)),
		keys:    make(map[string]int, len(dims)),
		offsets: make([]uint, len(dims)),
	}
	copy(sp.dims, dims)

	for i, d := range sp.dims {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("%w: dimension %d has no name", ErrInvalidDimension, i)
		}
		if _, dup := sp.index[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate dimension %q", ErrInvalidDimension, d.Name)
		}
		if d.Max < 1 {
			return nil, fmt.Errorf("%w: %s max %d must be at least 1", ErrInvalidDimension, d.Name, d.Max)
		}
		if d.Step < 0 {
			return nil, fmt.Errorf("%w: %s step %d is negative", ErrInvalidDimension, d.Name, d.Step)
		}
		if _, dup := sp.keys[d.JSONKey()]; dup {
			return nil, fmt.Errorf("%w: duplicate dimension key %q", ErrInvalidDimension, d.JSONKey())
		}
		sp.index[d.Name] = i
		sp.keys[d.JSONKey()] = i
		sp.offsets[i] = sp.width
		sp.width += uint(d.Max)
	}

	if sp.width > 64 {
		return nil, fmt.Errorf("%w: encoding needs %d bits, limit is 64", ErrInvalidDimension, sp.width)
	}
	return sp, nil
}

// DefaultSpace returns a Space over DefaultDimensions.
func DefaultSpace() *Space {
	sp, err := NewSpace(DefaultDimensions()...)
	if err != nil {
		panic(err)
	}
	return sp
}

// Dimensions returns a copy of the dimension list.
func (sp *Space) Dimensions() []Dimension {
	out := make([]Dimension, len(sp.dims))
	copy(out, sp.dims)
	return out
}

// Len returns the number of dimensions.
func (sp *Space) Len() int { return len(sp.dims) }

// Dimension returns the i-th dimension.
func (sp *Space) Dimension(i int) Dimension { return sp.dims[i] }

// Lookup returns the position of the dimension called name, falling back to
// its JSON key.
func (sp *Space) Lookup(name string) (int, bool) {
	if i, ok := sp.index[name]; ok {
		return i, true
	}
	i, ok := sp.keys[name]
	return i, ok
}

// Width returns the number of bits a BitRep of this space uses.
func (sp *Space) Width() uint { return sp.width }

// #endregion space

// #region state
// State is one hypothetical inventory: an item count per dimension for a
// single player slot.
type State struct {
	space  *Space
	slot   int
	counts []int
}

// NewState checks every count against its dimension's range and copies them.
func (sp *Space) NewState(slot int, counts []int) (State, error) {
	if len(counts) != len(sp.dims) {
		return State{}, fmt.Errorf("%w: state has %d counts, space has %d dimensions", ErrOutOfRange, len(counts), len(sp.dims))
	}
	for i, c := range counts {
		d := sp.dims[i]
		if c < 0 || c > d.Count(d.Max) {
			return State{}, fmt.Errorf("%w: %s count %d not in [0, %d]", ErrOutOfRange, d.Name, c, d.Count(d.Max))
		}
	}
	own := make([]int, len(counts))
	copy(own, counts)
	return State{space: sp, slot: slot, counts: own}, nil
}

// Space returns the space the state was built from.
func (s State) Space() *Space { return s.space }

// Slot returns the owning player slot.
func (s State) Slot() int { return s.slot }

// Count returns the count of the named item, or 0 for unknown items.
func (s State) Count(item string) int {
	if s.space == nil {
		return 0
	}
	i, ok := s.space.index[item]
	if !ok {
		return 0
	}
	return s.counts[i]
}

// Has reports whether the state holds at least n of the named item.
func (s State) Has(item string, n int) bool {
	return s.Count(item) >= n
}

// At returns the count of the i-th dimension.
func (s State) At(i int) int { return s.counts[i] }

// Counts returns a copy of the per-dimension counts.
func (s State) Counts() []int {
	out := make([]int, len(s.counts))
	copy(out, s.counts)
	return out
}

// String lists the non-zero item counts.
func (s State) String() string {
	if s.space == nil {
		return noItems
	}
	return formatCounts(s.space, func(i int) int { return s.counts[i] })
}

// #endregion state

// #region loadout
// Loadout is the reportable form of a State: one level per dimension plus the
// slot it was derived for. Loadouts are immutable.
type Loadout struct {
	space  *Space
	slot   int
	levels []int
}

// NewLoadout checks every level against its dimension's range and copies them.
func (sp *Space) NewLoadout(slot int, levels []int) (Loadout, error) {
	if len(levels) != len(sp.dims) {
		return Loadout{}, fmt.Errorf("%w: loadout has %d levels, space has %d dimensions", ErrOutOfRange, len(levels), len(sp.dims))
	}
	for i, lvl := range levels {
		if lvl < 0 || lvl > sp.dims[i].Max {
			return Loadout{}, fmt.Errorf("%w: %s level %d not in [0, %d]", ErrOutOfRange, sp.dims[i].Name, lvl, sp.dims[i].Max)
		}
	}
	own := make([]int, len(levels))
	copy(own, levels)
	return Loadout{space: sp, slot: slot, levels: own}, nil
}

// Slot returns the slot the loadout was derived for.
func (l Loadout) Slot() int { return l.slot }

// Level returns the level of the named item, or 0 for unknown items.
func (l Loadout) Level(item string) int {
	if l.space == nil {
		return 0
	}
	i, ok := l.space.index[item]
	if !ok {
		return 0
	}
	return l.levels[i]
}

// Levels returns a copy of the per-dimension levels.
func (l Loadout) Levels() []int {
	out := make([]int, len(l.levels))
	copy(out, l.levels)
	return out
}

// State rebuilds the inventory the loadout stands for.
func (l Loadout) State() (State, error) {
	counts := make([]int, len(l.levels))
	for i, lvl := range l.levels {
		counts[i] = l.space.dims[i].Count(lvl)
	}
	return l.space.NewState(l.slot, counts)
}

// String lists the non-zero item counts.
func (l Loadout) String() string {
	if l.space == nil {
		return noItems
	}
	return formatCounts(l.space, func(i int) int { return l.space.dims[i].Count(l.levels[i]) })
}

// #endregion loadout

// #region mapping
// Mapping derives a Loadout from a State. Only the counts held by Slot are
// read; Steps overrides the per-level item count of individual dimensions.
type Mapping struct {
	Slot  int            `yaml:"slot"`
	Steps map[string]int `yaml:"steps,omitempty"`
}

// DefaultMapping reads slot 1 and treats seven small keys as one level.
func DefaultMapping() Mapping {
	return Mapping{
		Slot:  DefaultSlot,
		Steps: map[string]int{SmallKey: 7},
	}
}

// Validate checks that every overridden step names a dimension of sp and
// agrees with that dimension's own step.
func (m Mapping) Validate(sp *Space) error {
	for name, step := range m.Steps {
		i, ok := sp.index[name]
		if !ok {
			return fmt.Errorf("%w: mapping step for unknown item %q", ErrInvalidDimension, name)
		}
		if step < 1 {
			return fmt.Errorf("%w: mapping step for %s must be positive, got %d", ErrInvalidDimension, name, step)
		}
		if own := sp.dims[i].step(); step != own {
			return fmt.Errorf("%w: mapping step %d for %s, dimension counts in steps of %d", ErrInvalidDimension, step, name, own)
		}
	}
	return nil
}

// Loadout maps s to levels. A state owned by another slot holds nothing the
// mapping can see and yields the empty loadout.
func (m Mapping) Loadout(s State) (Loadout, error) {
	sp := s.space
	levels := make([]int, len(sp.dims))
	if s.slot == m.Slot {
		for i, d := range sp.dims {
			step := d.step()
			if override, ok := m.Steps[d.Name]; ok && override > 0 {
				step = override
			}
			levels[i] = min(s.counts[i]/step, d.Max)
		}
	}
	return sp.NewLoadout(m.Slot, levels)
}

// #endregion mapping

// #region format
const noItems = "(no items)"

func formatCounts(sp *Space, count func(i int) int) string {
	var parts []string
	for i, d := range sp.dims {
		if c := count(i); c != 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", d.Name, c))
		}
	}
	if len(parts) == 0 {
		return noItems
	}
	return strings.Join(parts, ", ")
}

// #endregion format
