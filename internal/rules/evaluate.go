package rules

import (
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
)

// #region evaluate
// Evaluate runs the predicate registered for target. A target missing from
// the table carries no constraint and passes. Predicate errors are returned
// as is.
func Evaluate(t Table, target string, s inventory.State) (bool, error) {
	pred, ok := t[target]
	if !ok || pred == nil {
		return true, nil
	}
	return pred(s)
}

// #endregion evaluate

// #region helpers
// Require builds a predicate passing when the state holds at least the given
// count of every listed item.
func Require(counts map[string]int) Predicate {
	return func(s inventory.State) (bool, error) {
		for item, n := range counts {
			if !s.Has(item, n) {
				return false, nil
			}
		}
		return true, nil
	}
}

// Any passes when at least one of preds passes.
func Any(preds ...Predicate) Predicate {
	return func(s inventory.State) (bool, error) {
		for _, p := range preds {
			ok, err := p(s)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// #endregion helpers
