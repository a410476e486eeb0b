package statespace

import (
	"fmt"
	"iter"

	"github.com/danielpatrickdp/rulecheck/internal/inventory"
)

// #region size
// Size returns the number of states Enumerate yields: the product of
// Max+1 over every dimension.
func Size(sp *inventory.Space) int {
	n := 1
	for i := 0; i < sp.Len(); i++ {
		n *= sp.Dimension(i).Max + 1
	}
	return n
}

// #endregion size

// #region enumerate
// Enumerate yields every combination of dimension levels as a State owned by
// slot, with its position. The first declared dimension varies slowest.
// Each call starts a fresh walk.
func Enumerate(sp *inventory.Space, slot int) iter.Seq2[int, inventory.State] {
	return func(yield func(int, inventory.State) bool) {
		n := sp.Len()
		levels := make([]int, n)
		counts := make([]int, n)
		for ordinal := 0; ; ordinal++ {
			for i := range levels {
				counts[i] = sp.Dimension(i).Count(levels[i])
			}
			s, err := sp.NewState(slot, counts)
			if err != nil {
				// levels never leave [0, Max]
				panic(fmt.Sprintf("statespace: %v", err))
			}
			if !yield(ordinal, s) {
				return
			}

			// odometer: bump the last dimension, carry leftwards
			i := n - 1
			for ; i >= 0; i-- {
				if levels[i] < sp.Dimension(i).Max {
					levels[i]++
					break
				}
				levels[i] = 0
			}
			if i < 0 {
				return
			}
		}
	}
}

// All materializes Enumerate.
func All(sp *inventory.Space, slot int) []inventory.State {
	states := make([]inventory.State, 0, Size(sp))
	for _, s := range Enumerate(sp, slot) {
		states = append(states, s)
	}
	return states
}

// #endregion enumerate

// #region ordinal
// Ordinal returns the position Enumerate yields s at. Counts that are not a
// whole number of steps fail with inventory.ErrOutOfRange.
func Ordinal(sp *inventory.Space, s inventory.State) (int, error) {
	if s.Space() != sp {
		return 0, fmt.Errorf("ordinal: %w: state belongs to another space", inventory.ErrOutOfRange)
	}
	ord := 0
	for i := 0; i < sp.Len(); i++ {
		d := sp.Dimension(i)
		step := d.Count(1)
		c := s.At(i)
		if c%step != 0 {
			return 0, fmt.Errorf("ordinal: %w: %s count %d is not a multiple of %d", inventory.ErrOutOfRange, d.Name, c, step)
		}
		ord = ord*(d.Max+1) + c/step
	}
	return ord, nil
}

// #endregion ordinal
