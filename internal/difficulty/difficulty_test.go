package difficulty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	want := []string{"normal", "normal + obscure", "hard", "hard + obscure", "expert", "lunatic"}
	for i, tier := range All() {
		name, err := tier.Name()
		require.NoError(t, err)
		assert.Equal(t, want[i], name)
		assert.Equal(t, want[i], tier.String())
	}

	_, err := Tier(6).Name()
	require.ErrorIs(t, err, ErrUnknownTier)
	_, err = Tier(-1).Name()
	require.ErrorIs(t, err, ErrUnknownTier)
	assert.Equal(t, "difficulty(7)", Tier(7).String())
}

func TestParse(t *testing.T) {
	tests := map[string]Tier{
		"normal":           Normal,
		"Normal + Obscure": NormalObscure,
		"hard+obscure":     HardObscure,
		"hard_obscure":     HardObscure,
		" expert ":         Expert,
		"LUNATIC":          Lunatic,
	}
	for in, want := range tests {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := Parse("nightmare")
	require.ErrorIs(t, err, ErrUnknownTier)
}

func TestOptionsFor(t *testing.T) {
	tests := []struct {
		tier    Tier
		level   int
		obscure bool
		tags    []string
	}{
		{Normal, 1, false, nil},
		{NormalObscure, 1, true, []string{"obscure"}},
		{Hard, 2, false, []string{"hard"}},
		{HardObscure, 2, true, []string{"hard", "obscure"}},
		{Expert, 3, true, []string{"expert"}},
		{Lunatic, 4, true, []string{"lunatic"}},
	}
	for _, tt := range tests {
		t.Run(tt.tier.String(), func(t *testing.T) {
			opts, err := OptionsFor(tt.tier)
			require.NoError(t, err)
			assert.Equal(t, tt.tier, opts.Tier)
			assert.Equal(t, tt.level, opts.LogicLevel)
			assert.Equal(t, tt.obscure, opts.Obscure)
			assert.Equal(t, tt.tags, opts.Tags)
			for _, tag := range tt.tags {
				assert.True(t, opts.HasTag(tag))
			}
		})
	}

	_, err := OptionsFor(Count)
	require.ErrorIs(t, err, ErrUnknownTier)
}
