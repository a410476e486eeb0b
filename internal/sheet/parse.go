package sheet

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules/tricks"
)

// #region headers
const (
	headerTrickID         = "Trick ID"
	headerTags            = "Tags"
	headerLocation        = "Location"
	headerRegion          = "Region"
	headerConnectedRegion = "Connected Region"
	headerTag             = "Tag"
	headerChildTags       = "Child Tags"

	listSep = ", "
)

func headerError(header string) error {
	return fmt.Errorf("failed to get header %s", header)
}

// #endregion headers

// #region parse
// Parse builds a trick table from the Tricks and Tags sheets. The Tricks
// sheet has one column per dimension of sp, headed by the dimension's Column
// or its Name: "TRUE" means one level of the item, a number is an item count.
func Parse(trickRows, tagRows []Row, sp *inventory.Space) (*tricks.Tricks, error) {
	t := &tricks.Tricks{
		EntranceTricks: map[string][]tricks.Trick{},
		LocationTricks: map[string][]tricks.Trick{},
	}

	for i, row := range trickRows {
		trick, err := parseTrick(row, sp)
		if err != nil {
			return nil, fmt.Errorf("failed to build trick from row %d: %w", i+2, err)
		}
		name, isLocation, err := targetName(row)
		if err != nil {
			return nil, fmt.Errorf("failed to build trick from row %d: %w", i+2, err)
		}
		if isLocation {
			t.LocationTricks[name] = append(t.LocationTricks[name], trick)
		} else {
			t.EntranceTricks[name] = append(t.EntranceTricks[name], trick)
		}
	}

	hierarchy, err := parseTags(tagRows)
	if err != nil {
		return nil, err
	}
	t.TagHierarchy = hierarchy
	return t, nil
}

func parseTrick(row Row, sp *inventory.Space) (tricks.Trick, error) {
	req := tricks.Requirement{}
	for _, d := range sp.Dimensions() {
		header, cell, ok := itemCell(row, d)
		if !ok {
			return tricks.Trick{}, headerError(d.Column())
		}
		if checked, _ := row.Bool(header); checked {
			req[d.Name] = d.Count(1)
			continue
		}
		if cell == "" || strings.EqualFold(cell, "FALSE") {
			continue
		}
		n, ok := row.Int(header)
		if !ok || n < 0 {
			return tricks.Trick{}, fmt.Errorf("invalid %s cell %q", header, cell)
		}
		if n > 0 {
			req[d.Name] = n
		}
	}

	id, ok := row.Text(headerTrickID)
	if !ok {
		return tricks.Trick{}, headerError(headerTrickID)
	}
	tags, ok := row.StringSlice(headerTags, listSep)
	if !ok {
		return tricks.Trick{}, headerError(headerTags)
	}
	return tricks.Trick{ID: id, Loadout: req, Tags: tags}, nil
}

// itemCell finds d's column, by Header first and then by Name.
func itemCell(row Row, d inventory.Dimension) (string, string, bool) {
	for _, header := range []string{d.Column(), d.Name} {
		if cell, ok := row.Text(header); ok {
			return header, cell, true
		}
	}
	return "", "", false
}

// targetName returns the Location cell, or "<Region> -> <Connected Region>"
// for entrance rows.
func targetName(row Row) (string, bool, error) {
	loc, ok := row.Text(headerLocation)
	if !ok {
		return "", false, headerError(headerLocation)
	}
	if loc != "" {
		return loc, true, nil
	}
	region, ok := row.Text(headerRegion)
	if !ok {
		return "", false, headerError(headerRegion)
	}
	connected, ok := row.Text(headerConnectedRegion)
	if !ok {
		return "", false, headerError(headerConnectedRegion)
	}
	return fmt.Sprintf("%s -> %s", region, connected), false, nil
}

func parseTags(rows []Row) (map[string][]string, error) {
	hierarchy := make(map[string][]string)
	for _, row := range rows {
		tag, ok := row.Text(headerTag)
		if !ok {
			return nil, headerError(headerTag)
		}
		if tag == "" {
			continue
		}
		children, ok := row.StringSlice(headerChildTags, listSep)
		if !ok {
			return nil, headerError(headerChildTags)
		}
		hierarchy[tag] = children
	}
	return hierarchy, nil
}

// #endregion parse
