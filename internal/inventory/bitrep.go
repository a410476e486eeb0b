package inventory

import (
	"fmt"
	"math/bits"
)

// #region bitrep
// BitRep packs a Loadout into one integer. Each dimension owns Max bits at a
// fixed offset and level k sets the low k bits of its field, so a loadout
// with at least as much of every item has a bitwise superset encoding.
type BitRep uint64

// Covers reports whether r holds every bit of other, i.e. other's loadout
// needs no item r's loadout lacks.
func (r BitRep) Covers(other BitRep) bool {
	return r&other == other
}

// #endregion bitrep

// #region encode
// Encode packs l. It fails only for a loadout whose levels escape their
// dimension's range, which the enumerator never produces.
func (sp *Space) Encode(l Loadout) (BitRep, error) {
	if len(l.levels) != len(sp.dims) {
		return 0, fmt.Errorf("%w: loadout has %d levels, space has %d dimensions", ErrOutOfRange, len(l.levels), len(sp.dims))
	}
	var rep BitRep
	for i, d := range sp.dims {
		lvl := l.levels[i]
		if lvl < 0 || lvl > d.Max {
			return 0, fmt.Errorf("%w: %s level %d not in [0, %d]", ErrOutOfRange, d.Name, lvl, d.Max)
		}
		rep |= BitRep(uint64(1)<<uint(lvl)-1) << sp.offsets[i]
	}
	return rep, nil
}

// #endregion encode

// #region decode
// Decode is the inverse of Encode. The result belongs to DefaultSlot.
func (sp *Space) Decode(rep BitRep) (Loadout, error) {
	if sp.width < 64 && uint64(rep)>>sp.width != 0 {
		return Loadout{}, fmt.Errorf("%w: %#x sets bits above %d", ErrInvalidBitRep, uint64(rep), sp.width)
	}
	levels := make([]int, len(sp.dims))
	for i, d := range sp.dims {
		mask := uint64(1)<<uint(d.Max) - 1
		field := (uint64(rep) >> sp.offsets[i]) & mask
		lvl := bits.OnesCount64(field)
		if field != uint64(1)<<uint(lvl)-1 {
			return Loadout{}, fmt.Errorf("%w: %s field %b is not a level", ErrInvalidBitRep, d.Name, field)
		}
		levels[i] = lvl
	}
	return Loadout{space: sp, slot: DefaultSlot, levels: levels}, nil
}

// Summarize decodes rep into "Item: count" pairs, skipping empty dimensions.
func (sp *Space) Summarize(rep BitRep) (string, error) {
	l, err := sp.Decode(rep)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return l.String(), nil
}

// #endregion decode
