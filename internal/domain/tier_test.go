package domain_test

import (
	"testing"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierLabel(t *testing.T) {
	assert.Equal(t, "Monat", domain.TierMonth.Label())
	assert.Equal(t, "Woche", domain.TierWeek.Label())
	assert.Equal(t, "Tag", domain.TierDay.Label())
	assert.Empty(t, domain.Tier("season").Label())
	assert.False(t, domain.Tier("season").Valid())
}

func TestParseTier(t *testing.T) {
	cases := map[string]domain.Tier{
		"month": domain.TierMonth,
		"Monat": domain.TierMonth,
		"WEEK":  domain.TierWeek,
		"woche": domain.TierWeek,
		"day":   domain.TierDay,
		" Tag ": domain.TierDay,
	}
	for raw, want := range cases {
		got, err := domain.ParseTier(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := domain.ParseTier("Jahr")
	assert.ErrorIs(t, err, domain.ErrUnknownTier)
}

func TestTierParent(t *testing.T) {
	p, ok := domain.TierDay.Parent()
	assert.True(t, ok)
	assert.Equal(t, domain.TierWeek, p)

	_, ok = domain.TierMonth.Parent()
	assert.False(t, ok)
}

func TestSectionHelpers(t *testing.T) {
	assert.Equal(t, domain.KindWarmUp, domain.KindOf(0))
	assert.Equal(t, domain.KindExercise, domain.KindOf(4))
	assert.Equal(t, domain.KindCoolDown, domain.KindOf(8))

	assert.False(t, domain.CarriesSketch(0))
	assert.True(t, domain.CarriesSketch(1))
	assert.True(t, domain.CarriesSketch(7))
	assert.False(t, domain.CarriesSketch(8))

	assert.False(t, domain.ValidSectionIndex(-1))
	assert.True(t, domain.ValidSectionIndex(8))
	assert.False(t, domain.ValidSectionIndex(9))

	assert.Equal(t, []string{"4 Hütchen", "2 Tore"}, domain.SplitItems(" 4 Hütchen; ;2 Tore;"))
}
