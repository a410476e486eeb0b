package tricks

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/rulecheck/internal/difficulty"
	"github.com/danielpatrickdp/rulecheck/internal/inventory"
	"github.com/danielpatrickdp/rulecheck/internal/rules"
)

const sampleJSON = `{
    "entrance_tricks": {
        "Castle -> Keep": [
            {"id": "cling", "loadout": {"Cling Gem": 1}},
            {"id": "kicks", "loadout": {"Air Kick": 3}, "tags": ["hard"]}
        ]
    },
    "location_tricks": {
        "Tower - Top": [
            {"id": "wind", "loadout": {"Solar Wind": 1}},
            {"id": "slide", "loadout": {"Slide": 1, "Air Kick": 1}, "tags": ["obscure"]},
            {"id": "bare", "loadout": {}, "tags": ["lunatic"]}
        ]
    },
    "tag_hierarchy": {
        "obscure": [],
        "hard": [],
        "expert": ["hard", "obscure"],
        "lunatic": ["expert"]
    }
}`

func sample(t *testing.T) *Tricks {
	t.Helper()
	tr, err := Decode(strings.NewReader(sampleJSON), inventory.DefaultSpace())
	require.NoError(t, err)
	return tr
}

func state(t *testing.T, counts map[string]int) inventory.State {
	t.Helper()
	sp := inventory.DefaultSpace()
	c := make([]int, sp.Len())
	for name, n := range counts {
		i, ok := sp.Lookup(name)
		require.True(t, ok, name)
		c[i] = n
	}
	s, err := sp.NewState(inventory.DefaultSlot, c)
	require.NoError(t, err)
	return s
}

func ruleSet(t *testing.T, p *Provider, tier difficulty.Tier) rules.RuleSet {
	t.Helper()
	opts, err := difficulty.OptionsFor(tier)
	require.NoError(t, err)
	rs, err := p.RuleSet(context.Background(), opts)
	require.NoError(t, err)
	return rs
}

func TestExpandTags(t *testing.T) {
	h := sample(t).TagHierarchy
	assert.Equal(t, []string{"lunatic", "expert", "hard", "obscure"}, ExpandTags([]string{"lunatic"}, h))
	assert.Equal(t, []string{"hard"}, ExpandTags([]string{"hard", "hard"}, h))
	assert.Empty(t, ExpandTags(nil, h))
}

func TestProviderTiers(t *testing.T) {
	p, err := NewProvider("sheet", sample(t), inventory.DefaultSpace())
	require.NoError(t, err)
	assert.Equal(t, "sheet", p.Name())

	kicks := state(t, map[string]int{inventory.AirKick: 3})
	slide := state(t, map[string]int{inventory.Slide: 1, inventory.AirKick: 1})
	empty := state(t, nil)

	tests := []struct {
		tier     difficulty.Tier
		kind     rules.Kind
		target   string
		s        inventory.State
		expected bool
	}{
		{difficulty.Normal, rules.Entrance, "Castle -> Keep", kicks, false},
		{difficulty.Hard, rules.Entrance, "Castle -> Keep", kicks, true},
		{difficulty.Expert, rules.Entrance, "Castle -> Keep", kicks, true},
		{difficulty.NormalObscure, rules.Entrance, "Castle -> Keep", kicks, false},
		{difficulty.Normal, rules.Location, "Tower - Top", slide, false},
		{difficulty.NormalObscure, rules.Location, "Tower - Top", slide, true},
		{difficulty.Hard, rules.Location, "Tower - Top", slide, false},
		{difficulty.Expert, rules.Location, "Tower - Top", empty, false},
		{difficulty.Lunatic, rules.Location, "Tower - Top", empty, true},
		{difficulty.Normal, rules.Location, "Tower - Top", state(t, map[string]int{inventory.SolarWind: 1}), true},
	}
	for _, tt := range tests {
		rs := ruleSet(t, p, tt.tier)
		got, err := rules.Evaluate(rs.Table(tt.kind), tt.target, tt.s)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, "%s %s at %s with %s", tt.kind, tt.target, tt.tier, tt.s)
	}
}

func TestProviderNoUsableTrickFails(t *testing.T) {
	tr := &Tricks{
		LocationTricks: map[string][]Trick{"Secret": {{ID: "x", Loadout: Requirement{}, Tags: []string{"expert"}}}},
		TagHierarchy:   map[string][]string{"expert": {}},
	}
	p, err := NewProvider("sheet", tr, inventory.DefaultSpace())
	require.NoError(t, err)

	rs := ruleSet(t, p, difficulty.Normal)
	require.Contains(t, rs.Locations, "Secret")
	ok, err := rules.Evaluate(rs.Locations, "Secret", state(t, nil))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewProviderRejectsUnknownItems(t *testing.T) {
	tr := &Tricks{LocationTricks: map[string][]Trick{"Chest": {{Loadout: Requirement{"Hookshot": 1}}}}}
	_, err := NewProvider("sheet", tr, inventory.DefaultSpace())
	require.ErrorContains(t, err, "Hookshot")

	tr = &Tricks{LocationTricks: map[string][]Trick{"Chest": {{Loadout: Requirement{inventory.Slide: -1}}}}}
	_, err = NewProvider("sheet", tr, inventory.DefaultSpace())
	require.Error(t, err)
}

func TestProviderRejectsBadTier(t *testing.T) {
	p, err := NewProvider("sheet", sample(t), inventory.DefaultSpace())
	require.NoError(t, err)
	_, err = p.RuleSet(context.Background(), difficulty.Options{Tier: 12})
	require.ErrorIs(t, err, difficulty.ErrUnknownTier)
}

func TestEncodeRoundTrip(t *testing.T) {
	tr := sample(t)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, tr, true))
	assert.Contains(t, buf.String(), "\n    \"entrance_tricks\"")
	assert.Contains(t, buf.String(), "Castle -> Keep")

	back, err := Decode(&buf, inventory.DefaultSpace())
	require.NoError(t, err)
	assert.Equal(t, tr, back)

	buf.Reset()
	require.NoError(t, Encode(&buf, tr, false))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestDecodeFillsEmptyMaps(t *testing.T) {
	tr, err := Decode(strings.NewReader(`{}`), nil)
	require.NoError(t, err)
	assert.NotNil(t, tr.EntranceTricks)
	assert.NotNil(t, tr.LocationTricks)
	assert.NotNil(t, tr.TagHierarchy)

	_, err = Decode(strings.NewReader(`{"entrance_tricks": [`), nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tr := &Tricks{
		EntranceTricks: map[string][]Trick{
			"A -> B": {
				{Loadout: Requirement{inventory.Slide: 1}},
				{Loadout: Requirement{inventory.Slide: 1}},
			},
		},
		LocationTricks: map[string][]Trick{
			"Chest": {
				{Loadout: Requirement{inventory.Slide: 1}},
				{Loadout: Requirement{inventory.Slide: 1, inventory.AirKick: 2}, Tags: []string{"hard"}},
			},
			"Ledge": {
				{Loadout: Requirement{inventory.AirKick: 2}, Tags: []string{"hard"}},
				{Loadout: Requirement{"Hookshot": 1}, Tags: []string{"mystery"}},
			},
		},
		TagHierarchy: map[string][]string{"hard": {}},
	}

	assert.Equal(t, []string{
		"A -> B: tricks 0, 1 are equal",
		"Chest: trick 1 is made unnecessary by trick 0",
		"Ledge: no default tricks",
		"Ledge: trick 1 needs unknown item Hookshot",
		"Ledge: trick 1 tag mystery is not in tag hierarchy",
	}, Validate(tr, inventory.DefaultSpace()))

	assert.Empty(t, Validate(sample(t), inventory.DefaultSpace()))
}

const originalJSON = `{
    "entrance_tricks": {
        "Castle -> Keep": [
            {"id": "1", "loadout": {"slide": true, "kicks": 2, "small_keys": true}},
            {"id": "2", "loadout": {"dream_breaker": true, "sunsetter": false, "clings": 1}, "tags": ["hard"]}
        ]
    },
    "location_tricks": {},
    "tag_hierarchy": {"hard": []}
}`

func TestDecodeSnakeCaseLoadouts(t *testing.T) {
	sp := inventory.DefaultSpace()
	tr, err := Decode(strings.NewReader(originalJSON), sp)
	require.NoError(t, err)

	assert.Equal(t, []Trick{
		{ID: "1", Loadout: Requirement{inventory.Slide: 1, inventory.AirKick: 2, inventory.SmallKey: 7}},
		{ID: "2", Loadout: Requirement{inventory.DreamBreaker: 1, inventory.ClingGem: 1}, Tags: []string{"hard"}},
	}, tr.EntranceTricks["Castle -> Keep"])
	assert.Empty(t, Validate(tr, sp))

	p, err := NewProvider("apworld", tr, sp)
	require.NoError(t, err)
	rs := ruleSet(t, p, difficulty.Normal)

	ok, err := rules.Evaluate(rs.Entrances, "Castle -> Keep", state(t, map[string]int{
		inventory.Slide: 1, inventory.AirKick: 2, inventory.SmallKey: 7,
	}))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rules.Evaluate(rs.Entrances, "Castle -> Keep", state(t, map[string]int{
		inventory.Slide: 1, inventory.AirKick: 2,
	}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeLoadoutValues(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"location_tricks": {"Chest": [{"loadout": {"kicks": "two"}}]}}`), inventory.DefaultSpace())
	require.ErrorContains(t, err, "Chest trick 0")

	tr, err := Decode(strings.NewReader(`{"location_tricks": {"Chest": [{"loadout": {"slide": true, "Slide": 1, "kicks": 0}}]}}`), inventory.DefaultSpace())
	require.NoError(t, err)
	assert.Equal(t, Requirement{inventory.Slide: 1}, tr.LocationTricks["Chest"][0].Loadout)

	// without a space keys stay as written
	tr, err = Decode(strings.NewReader(`{"location_tricks": {"Chest": [{"loadout": {"hookshot": true}}]}}`), nil)
	require.NoError(t, err)
	assert.Equal(t, Requirement{"hookshot": 1}, tr.LocationTricks["Chest"][0].Loadout)
}
