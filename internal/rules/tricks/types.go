package tricks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/danielpatrickdp/rulecheck/internal/inventory"
)

// #region types
// Tricks is the trick-table document: for every entrance and location the
// ways ("tricks") to get through it, plus the tag hierarchy.
type Tricks struct {
	EntranceTricks map[string][]Trick  `json:"entrance_tricks"`
	LocationTricks map[string][]Trick  `json:"location_tricks"`
	TagHierarchy   map[string][]string `json:"tag_hierarchy"`
}

// Trick is one way through a target: the items it needs and the tags that
// must be enabled for it to count.
type Trick struct {
	ID      string      `json:"id"`
	Loadout Requirement `json:"loadout"`
	Tags    []string    `json:"tags,omitempty"`
}

// Requirement maps item names to the minimum count needed.
type Requirement map[string]int

// AtMost reports whether r needs no more of any item than other.
func (r Requirement) AtMost(other Requirement) bool {
	for item, n := range r {
		if n > other[item] {
			return false
		}
	}
	return true
}

// Equal reports whether both requirements need the same counts.
func (r Requirement) Equal(other Requirement) bool {
	return r.AtMost(other) && other.AtMost(r)
}

// #endregion types

// #region load
// Load reads a trick-table JSON file. See Decode for how loadouts are read.
func Load(path string, sp *inventory.Space) (*Tricks, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tricks %s: %w", path, err)
	}
	defer f.Close()

	t, err := Decode(f, sp)
	if err != nil {
		return nil, fmt.Errorf("read tricks %s: %w", path, err)
	}
	return t, nil
}

type document struct {
	EntranceTricks map[string][]rawTrick `json:"entrance_tricks"`
	LocationTricks map[string][]rawTrick `json:"location_tricks"`
	TagHierarchy   map[string][]string   `json:"tag_hierarchy"`
}

type rawTrick struct {
	ID      string                     `json:"id"`
	Loadout map[string]json.RawMessage `json:"loadout"`
	Tags    []string                   `json:"tags,omitempty"`
}

// Decode parses a trick-table document. Loadout keys may be item names or
// the JSON keys of sp's dimensions ("kicks", "small_keys"); values may be
// counts or booleans, where true is one level of the item. Loadouts come back
// keyed by item name. With a nil sp keys are kept as written and true is a
// count of one.
func Decode(r io.Reader, sp *inventory.Space) (*Tricks, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode tricks: %w", err)
	}

	t := &Tricks{TagHierarchy: doc.TagHierarchy}
	var err error
	if t.EntranceTricks, err = resolveTable(doc.EntranceTricks, sp); err != nil {
		return nil, fmt.Errorf("decode tricks: %w", err)
	}
	if t.LocationTricks, err = resolveTable(doc.LocationTricks, sp); err != nil {
		return nil, fmt.Errorf("decode tricks: %w", err)
	}
	if t.TagHierarchy == nil {
		t.TagHierarchy = map[string][]string{}
	}
	return t, nil
}

func resolveTable(raw map[string][]rawTrick, sp *inventory.Space) (map[string][]Trick, error) {
	out := make(map[string][]Trick, len(raw))
	for target, raws := range raw {
		list := make([]Trick, 0, len(raws))
		for i, rt := range raws {
			req, err := resolveRequirement(rt.Loadout, sp)
			if err != nil {
				return nil, fmt.Errorf("%s trick %d: %w", target, i, err)
			}
			list = append(list, Trick{ID: rt.ID, Loadout: req, Tags: rt.Tags})
		}
		out[target] = list
	}
	return out, nil
}

func resolveRequirement(raw map[string]json.RawMessage, sp *inventory.Space) (Requirement, error) {
	req := make(Requirement, len(raw))
	for key, msg := range raw {
		name, unit := key, 1
		if sp != nil {
			if i, ok := sp.Lookup(key); ok {
				d := sp.Dimension(i)
				name, unit = d.Name, d.Count(1)
			}
		}

		var n int
		var flag bool
		if err := json.Unmarshal(msg, &flag); err == nil {
			if !flag {
				continue
			}
			n = unit
		} else if err := json.Unmarshal(msg, &n); err != nil {
			return nil, fmt.Errorf("loadout %s: want a count or a boolean, got %s", key, msg)
		}
		if n == 0 {
			continue
		}
		// the same item under its name and its key keeps the larger need
		if prev, ok := req[name]; ok && prev >= n {
			continue
		}
		req[name] = n
	}
	return req, nil
}

// Encode writes t as JSON, indented with four spaces when indent is set.
func Encode(w io.Writer, t *Tricks, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "    ")
	}
	if err := enc.Encode(t); err != nil {
		return fmt.Errorf("encode tricks: %w", err)
	}
	return nil
}

// #endregion load

// #region tags
// ExpandTags closes tags over the hierarchy: every child of an included tag
// is included too. Order is first-seen.
func ExpandTags(tags []string, hierarchy map[string][]string) []string {
	expanded := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		if !seen[tag] {
			expanded = append(expanded, tag)
			seen[tag] = true
		}
	}
	for i := 0; i < len(expanded); i++ {
		for _, child := range hierarchy[expanded[i]] {
			if seen[child] {
				continue
			}
			expanded = append(expanded, child)
			seen[child] = true
		}
	}
	return expanded
}

// subset reports whether every string of a is in b.
func subset(a, b []string) bool {
	set := make(map[string]bool, len(b))
	for _, s := range b {
		set[s] = true
	}
	for _, s := range a {
		if !set[s] {
			return false
		}
	}
	return true
}

func sortedNames(m map[string][]Trick) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// #endregion tags
