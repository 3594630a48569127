package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForBoundaries(t *testing.T) {
	tests := []struct {
		rating int
		want   Tier
	}{
		{0, Tier{Band: 1, Level: 1}},
		{149, Tier{Band: 1, Level: 1}},
		{150, Tier{Band: 1, Level: 2}},
		{600, Tier{Band: 1, Level: 5}},
		{769, Tier{Band: 1, Level: 5}},
		{770, Tier{Band: 2, Level: 1}},
		{929, Tier{Band: 2, Level: 1}},
		{930, Tier{Band: 2, Level: 2}},
		{1539, Tier{Band: 2, Level: 5}},
		{1540, Tier{Band: 3, Level: 1}},
		{2309, Tier{Band: 3, Level: 5}},
		{2310, Tier{Band: 4, Level: 1}},
		{3079, Tier{Band: 4, Level: 5}},
		{3080, Tier{Band: 5, Level: 1}},
		{3850, Tier{Band: 6, Level: 1}},
		{4620, Tier{Band: 7, Level: 1}},
		{4819, Tier{Band: 7, Level: 1}},
		{4820, Tier{Band: 7, Level: 2}},
		{5620, Tier{Band: 7, Level: 5}},
		{5621, Tier{Band: 8, Variant: "a"}},
		{6299, Tier{Band: 8, Variant: "a"}},
		{6300, Tier{Band: 8, Variant: "b"}},
		{8499, Tier{Band: 8, Variant: "b"}},
		{8500, Tier{Band: 8, Variant: "c"}},
		{12499, Tier{Band: 8, Variant: "c"}},
		{12500, Tier{Band: 8, Variant: "d"}},
		{99999, Tier{Band: 8, Variant: "d"}},
	}

	for _, tt := range tests {
		got := TierFor(tt.rating)
		assert.Equal(t, tt.want, got, "rating %d", tt.rating)
		assert.Equal(t, got, TierFor(tt.rating), "rating %d must be deterministic", tt.rating)
	}
}

func TestTierLabels(t *testing.T) {
	assert.Equal(t, "Herald 5", TierFor(769).String())
	assert.Equal(t, "Guardian 1", TierFor(770).String())
	assert.Equal(t, "Immortal (8c)", TierFor(9000).String())
	assert.Equal(t, "medal_4_2.png", TierFor(2460).Medal())
	assert.Equal(t, "medal_8d.png", TierFor(13000).Medal())
	assert.Equal(t, Tier{Band: 1, Level: 1}, TierFor(-5))
}

func TestRatingForRankTierRoundTrip(t *testing.T) {
	for band := 1; band <= 7; band++ {
		for stars := 1; stars <= 5; stars++ {
			rating, ok := RatingForRankTier(band*10 + stars)
			assert.True(t, ok)
			assert.Equal(t, Tier{Band: band, Level: stars}, TierFor(rating), "rank_tier %d", band*10+stars)
		}
	}

	rating, ok := RatingForRankTier(80)
	assert.True(t, ok)
	assert.Equal(t, 5621, rating)

	for _, bad := range []int{0, 7, 90, 16, -11} {
		_, ok := RatingForRankTier(bad)
		assert.False(t, ok, "rank_tier %d", bad)
	}
}

func TestParseSide(t *testing.T) {
	s, err := ParseSide(" a ")
	assert.NoError(t, err)
	assert.Equal(t, SideA, s)

	s, err = ParseSide("")
	assert.NoError(t, err)
	assert.Equal(t, SideUnassigned, s)

	_, err = ParseSide("radiant")
	assert.ErrorIs(t, err, ErrInvalidSide)

	assert.Equal(t, SideB, SideA.Opposite())
	assert.Equal(t, SideUnassigned, SideUnassigned.Opposite())
}
