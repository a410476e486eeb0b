package tricks

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/rulecheck/internal/inventory"
)

// #region validate
// Validate lists problems in a trick table:
//   - tags missing from the hierarchy
//   - loadouts naming unknown items or negative counts
//   - rules with no untagged (default) trick
//   - identical tricks within a rule
//   - tricks made unnecessary by another trick of the same rule, i.e. one
//     whose expanded tags and loadout are both no stricter
//
// sp may be nil to skip item checks. Findings are sorted.
func Validate(t *Tricks, sp *inventory.Space) []string {
	var findings []string
	for _, table := range []map[string][]Trick{t.EntranceTricks, t.LocationTricks} {
		for _, name := range sortedNames(table) {
			findings = append(findings, validateRule(name, table[name], t.TagHierarchy, sp)...)
		}
	}
	sort.Strings(findings)
	return findings
}

func validateRule(name string, tricks []Trick, hierarchy map[string][]string, sp *inventory.Space) []string {
	var findings []string

	expanded := make([][]string, len(tricks))
	hasDefault := false
	for i, tr := range tricks {
		for _, tag := range tr.Tags {
			if _, ok := hierarchy[tag]; !ok {
				findings = append(findings, fmt.Sprintf("%s: trick %d tag %s is not in tag hierarchy", name, i, tag))
			}
		}
		if sp != nil {
			for item, n := range tr.Loadout {
				if _, ok := sp.Lookup(item); !ok {
					findings = append(findings, fmt.Sprintf("%s: trick %d needs unknown item %s", name, i, item))
				} else if n < 0 {
					findings = append(findings, fmt.Sprintf("%s: trick %d needs negative count of %s", name, i, item))
				}
			}
		}
		if len(tr.Tags) == 0 {
			hasDefault = true
		}
		expanded[i] = ExpandTags(tr.Tags, hierarchy)
	}

	for i1 := range tricks {
		for i2 := i1 + 1; i2 < len(tricks); i2++ {
			t1TagsLess := subset(expanded[i1], expanded[i2])
			t2TagsLess := subset(expanded[i2], expanded[i1])
			t1LoadoutLess := tricks[i1].Loadout.AtMost(tricks[i2].Loadout)
			t2LoadoutLess := tricks[i2].Loadout.AtMost(tricks[i1].Loadout)

			switch {
			case t1TagsLess && t2TagsLess && t1LoadoutLess && t2LoadoutLess:
				findings = append(findings, fmt.Sprintf("%s: tricks %d, %d are equal", name, i1, i2))
			case t1TagsLess && t1LoadoutLess:
				findings = append(findings, fmt.Sprintf("%s: trick %d is made unnecessary by trick %d", name, i2, i1))
			case t2TagsLess && t2LoadoutLess:
				findings = append(findings, fmt.Sprintf("%s: trick %d is made unnecessary by trick %d", name, i1, i2))
			}
		}
	}

	if !hasDefault {
		findings = append(findings, fmt.Sprintf("%s: no default tricks", name))
	}
	return findings
}

// #endregion validate
