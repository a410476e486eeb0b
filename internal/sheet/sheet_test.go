package sheet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules/tricks"
)

var itemHeaders = []string{
	"Dream Breaker", "Strikebreak", "Soul Cutter", "Sunsetter", "Slide",
	"Solar Wind", "Ascendant Light", "Cling Gem", "Air Kick", "Small Key",
}

func trickRecord(id, location, region, connected, tags string, items map[string]string) []string {
	rec := []string{id, location, region, connected, tags}
	for _, h := range itemHeaders {
		rec = append(rec, items[h])
	}
	return rec
}

func trickSheet(rows ...[]string) []Row {
	header := append([]string{"Trick ID", "Location", "Region", "Connected Region", "Tags"}, itemHeaders...)
	return RowsFromRecords(append([][]string{header}, rows...))
}

func tagSheet() []Row {
	return RowsFromRecords([][]string{
		{"Tag", "Child Tags"},
		{"hard", ""},
		{"obscure", ""},
		{"expert", "hard, obscure"},
		{"", ""},
	})
}

func TestParse(t *testing.T) {
	rows := trickSheet(
		trickRecord("1", "Tower - Top", "", "", "", map[string]string{"Solar Wind": "TRUE"}),
		trickRecord("2", "Tower - Top", "", "", "hard, obscure", map[string]string{"Air Kick": "3", "Slide": "FALSE"}),
		trickRecord("3", "", "Castle", "Keep", "", map[string]string{"Small Key": "TRUE", "Cling Gem": "true"}),
	)

	got, err := Parse(rows, tagSheet(), inventory.DefaultSpace())
	require.NoError(t, err)

	assert.Equal(t, []tricks.Trick{
		{ID: "1", Loadout: tricks.Requirement{"Solar Wind": 1}, Tags: []string{}},
		{ID: "2", Loadout: tricks.Requirement{"Air Kick": 3}, Tags: []string{"hard", "obscure"}},
	}, got.LocationTricks["Tower - Top"])
	assert.Equal(t, []tricks.Trick{
		{ID: "3", Loadout: tricks.Requirement{"Small Key": 7, "Cling Gem": 1}, Tags: []string{}},
	}, got.EntranceTricks["Castle -> Keep"])
	assert.Equal(t, map[string][]string{
		"hard":    {},
		"obscure": {},
		"expert":  {"hard", "obscure"},
	}, got.TagHierarchy)

	assert.Empty(t, tricks.Validate(got, inventory.DefaultSpace()))
}

func TestParseSheetColumns(t *testing.T) {
	rows := RowsFromRecords([][]string{
		{"Trick ID", "Location", "Region", "Connected Region", "Tags",
			"Dream Breaker", "Strikebreak", "Soul Cutter", "Sunsetter", "Slide",
			"Solar Wind", "Ascendant Light", "Clings", "Kicks", "Small Keys"},
		{"7", "", "Castle", "Keep", "hard", "TRUE", "FALSE", "FALSE", "FALSE", "FALSE",
			"FALSE", "FALSE", "1", "2", "TRUE"},
	})

	got, err := Parse(rows, tagSheet(), inventory.DefaultSpace())
	require.NoError(t, err)
	assert.Equal(t, []tricks.Trick{{
		ID: "7",
		Loadout: tricks.Requirement{
			inventory.DreamBreaker: 1,
			inventory.ClingGem:     1,
			inventory.AirKick:      2,
			inventory.SmallKey:     7,
		},
		Tags: []string{"hard"},
	}}, got.EntranceTricks["Castle -> Keep"])
}

func TestParseErrors(t *testing.T) {
	bad := trickSheet(
		trickRecord("1", "Chest", "", "", "", nil),
		trickRecord("2", "Chest", "", "", "", map[string]string{"Air Kick": "lots"}),
	)
	_, err := Parse(bad, tagSheet(), inventory.DefaultSpace())
	require.ErrorContains(t, err, "row 3")
	require.ErrorContains(t, err, "Air Kick")

	noTags := RowsFromRecords([][]string{
		append([]string{"Trick ID", "Location", "Region", "Connected Region"}, itemHeaders...),
		append([]string{"1", "Chest", "", ""}, make([]string, len(itemHeaders))...),
	})
	_, err = Parse(noTags, tagSheet(), inventory.DefaultSpace())
	require.ErrorContains(t, err, "failed to get header Tags")

	missingItem := RowsFromRecords([][]string{
		{"Trick ID", "Location", "Region", "Connected Region", "Tags"},
		{"1", "Chest", "", "", ""},
	})
	_, err = Parse(missingItem, tagSheet(), inventory.DefaultSpace())
	require.ErrorContains(t, err, "failed to get header Dream Breaker")

	badTags := RowsFromRecords([][]string{{"Name"}, {"hard"}})
	_, err = Parse(trickSheet(), badTags, inventory.DefaultSpace())
	require.ErrorContains(t, err, "failed to get header Tag")
}

func TestRowAccessors(t *testing.T) {
	rows := RowsFromRecords([][]string{
		{"A", " B ", "C", "D"},
		{" x ", "TRUE", "12", "p, q"},
		{"y"},
	})
	require.Len(t, rows, 2)

	v, ok := rows[0].Text("A")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	b, ok := rows[0].Bool("B")
	assert.True(t, ok)
	assert.True(t, b)

	n, ok := rows[0].Int("C")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	parts, ok := rows[0].StringSlice("D", ", ")
	assert.True(t, ok)
	assert.Equal(t, []string{"p", "q"}, parts)

	// short record
	_, ok = rows[1].Text("C")
	assert.False(t, ok)
	_, ok = rows[0].Text("E")
	assert.False(t, ok)
	_, ok = rows[0].Int("A")
	assert.False(t, ok)

	assert.Nil(t, RowsFromRecords(nil))
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.csv")
	csv := strings.Join([]string{
		"Tag,Child Tags",
		"expert,\"hard, obscure\"",
		"hard",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	rows, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	children, ok := rows[0].StringSlice("Child Tags", ", ")
	require.True(t, ok)
	assert.Equal(t, []string{"hard", "obscure"}, children)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
