package domain

import "fmt"

type Tier struct {
	Band    int    // 1..8
	Level   int    // 1..5, 0 inside band 8
	Variant string // "a".."d" inside band 8
}

type tierBand struct {
	start int
	end   int
	step  int
}

// bands 1..7 subdivide into up to five levels of width step.
var tierBands = [...]tierBand{
	{start: 0, end: 770, step: 150},
	{start: 770, end: 1540, step: 160},
	{start: 1540, end: 2310, step: 160},
	{start: 2310, end: 3080, step: 150},
	{start: 3080, end: 3850, step: 150},
	{start: 3850, end: 4620, step: 150},
	{start: 4620, end: 5621, step: 200},
}

var immortalVariants = [...]struct {
	start   int
	variant string
}{
	{start: 12500, variant: "d"},
	{start: 8500, variant: "c"},
	{start: 6300, variant: "b"},
	{start: 5621, variant: "a"},
}

var medalNames = [...]string{"Herald", "Guardian", "Crusader", "Archon", "Legend", "Ancient", "Divine", "Immortal"}

const maxTierLevel = 5

// TierFor maps a rating to its display tier. Negative ratings are treated as zero.
func TierFor(rating int) Tier {
	if rating < 0 {
		rating = 0
	}
	for i, b := range tierBands {
		if rating < b.end {
			return Tier{Band: i + 1, Level: min(maxTierLevel, 1+(rating-b.start)/b.step)}
		}
	}
	for _, v := range immortalVariants {
		if rating >= v.start {
			return Tier{Band: 8, Variant: v.variant}
		}
	}
	// unreachable: ratings >= 5621 always match a variant
	return Tier{Band: 8, Variant: "a"}
}

func (t Tier) Name() string {
	if t.Band < 1 || t.Band > len(medalNames) {
		return "Unknown"
	}
	return medalNames[t.Band-1]
}

func (t Tier) String() string {
	if t.Band == 8 {
		return fmt.Sprintf("%s (8%s)", t.Name(), t.Variant)
	}
	return fmt.Sprintf("%s %d", t.Name(), t.Level)
}

// Medal is the image asset key the presentation layer renders next to a player.
func (t Tier) Medal() string {
	if t.Band == 8 {
		return "medal_8" + t.Variant + ".png"
	}
	return fmt.Sprintf("medal_%d_%d.png", t.Band, t.Level)
}

// RatingForRankTier converts a Dota rank_tier (band*10 + stars) into the lowest
// rating that TierFor places in the same band and level. ok is false for
// uncalibrated or malformed values.
func RatingForRankTier(rankTier int) (rating int, ok bool) {
	band, stars := rankTier/10, rankTier%10
	if band < 1 || band > 8 || stars > maxTierLevel {
		return 0, false
	}
	if band == 8 {
		return tierBands[len(tierBands)-1].end, true
	}
	if stars < 1 {
		stars = 1
	}
	b := tierBands[band-1]
	return b.start + (stars-1)*b.step, true
}
