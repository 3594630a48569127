package balancer

import (
	"fmt"
	"math/rand/v2"
	"scrim-manager/internal/domain"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(samples int, strategy Strategy) *Balancer {
	return New(Options{Samples: samples, Keep: 10, Strategy: strategy, Rand: rand.New(rand.NewPCG(1, 2))})
}

func players(ratings ...int) []domain.Player {
	out := make([]domain.Player, len(ratings))
	for i, r := range ratings {
		out[i] = domain.Player{Name: fmt.Sprintf("p%02d", i), Rating: r}
	}
	return out
}

func TestBalanceEmptyRoster(t *testing.T) {
	_, err := seeded(10, StrategySample).Balance(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyRoster)
}

func TestBalanceConservationAndSize(t *testing.T) {
	for n := 1; n <= 11; n++ {
		for _, strategy := range []Strategy{StrategySample, StrategyExhaustive} {
			t.Run(fmt.Sprintf("%s/n=%d", strategy, n), func(t *testing.T) {
				ratings := make([]int, n)
				for i := range ratings {
					ratings[i] = 100 * (i + 1)
				}
				roster := players(ratings...)

				candidates, err := seeded(50, strategy).Balance(roster)
				require.NoError(t, err)
				require.NotEmpty(t, candidates)
				assert.LessOrEqual(t, len(candidates), 10)

				want := make([]string, n)
				for i, p := range roster {
					want[i] = p.Name
				}

				for _, c := range candidates {
					assert.Len(t, c.SideA, (n+1)/2)
					union := append(slices.Clone(c.SideA), c.SideB...)
					slices.Sort(union)
					assert.Equal(t, want, union, "partition must cover the roster exactly once")

					diff := c.SumA - c.SumB
					if diff < 0 {
						diff = -diff
					}
					assert.Equal(t, diff, c.Imbalance)
				}

				assert.True(t, slices.IsSortedFunc(candidates, func(a, b domain.Candidate) int {
					return a.Imbalance - b.Imbalance
				}))
			})
		}
	}
}

func TestBalanceReturnsDistinctCandidates(t *testing.T) {
	candidates, err := seeded(200, StrategySample).Balance(players(1000, 900, 100))
	require.NoError(t, err)

	// three players admit exactly three splits with two on side A
	require.Len(t, candidates, 3)
	assert.Equal(t, 0, candidates[0].Imbalance, "1000 vs 900+100")
	keys := map[string]bool{}
	for _, c := range candidates {
		keys[partitionKey(c)] = true
	}
	assert.Len(t, keys, 3)
}

func TestBalanceKeepsTen(t *testing.T) {
	candidates, err := seeded(200, StrategySample).Balance(players(10, 20, 30, 40, 50, 60, 70, 80, 90, 100))
	require.NoError(t, err)
	assert.Len(t, candidates, 10)
}

func TestExhaustiveFindsOptimum(t *testing.T) {
	roster := players(3000, 2900, 2100, 1900, 1500, 1400, 800, 700, 400, 350)

	exhaustive, err := seeded(0, StrategyExhaustive).Balance(roster)
	require.NoError(t, err)

	best := -1
	n := len(roster)
	for mask := 0; mask < 1<<n; mask++ {
		a, b, size := 0, 0, 0
		for i, p := range roster {
			if mask&(1<<i) != 0 {
				a += p.Rating
				size++
			} else {
				b += p.Rating
			}
		}
		if size != (n+1)/2 {
			continue
		}
		d := a - b
		if d < 0 {
			d = -d
		}
		if best < 0 || d < best {
			best = d
		}
	}
	assert.Equal(t, best, exhaustive[0].Imbalance)
}

func TestDefaults(t *testing.T) {
	b := New(Options{})
	assert.Equal(t, StrategySample, b.Strategy())
	assert.Equal(t, 200, b.samples)
	assert.Equal(t, 10, b.keep)
}
