// Package balancer searches for two-way splits of a roster that keep the
// summed ratings of both sides close. Side A always receives ceil(n/2)
// players.
package balancer

import (
	"math/bits"
	"math/rand/v2"
	"scrim-manager/internal/constants"
	"scrim-manager/internal/domain"
	"slices"
	"strings"

	"github.com/samber/lo"
)

type Strategy string

const (
	// StrategySample draws random permutations and keeps the best ones.
	StrategySample Strategy = "sample"
	// StrategyExhaustive enumerates every split; rosters above maxExhaustive fall back to sampling.
	StrategyExhaustive Strategy = "exhaustive"
)

const maxExhaustive = 20

type Options struct {
	Samples  int
	Keep     int
	Strategy Strategy
	Rand     *rand.Rand
}

type Balancer struct {
	samples  int
	keep     int
	strategy Strategy
	rng      *rand.Rand
}

func New(opts Options) *Balancer {
	b := &Balancer{
		samples:  opts.Samples,
		keep:     opts.Keep,
		strategy: opts.Strategy,
		rng:      opts.Rand,
	}
	if b.samples <= 0 {
		b.samples = constants.BalanceSamples
	}
	if b.keep <= 0 {
		b.keep = constants.BalanceKeep
	}
	if b.strategy == "" {
		b.strategy = StrategySample
	}
	if b.rng == nil {
		b.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return b
}

func (b *Balancer) Strategy() Strategy {
	return b.strategy
}

// Balance returns up to Keep distinct partitions ordered by ascending imbalance.
// The Balancer is not safe for concurrent use because it owns its random source.
func (b *Balancer) Balance(players []domain.Player) ([]domain.Candidate, error) {
	n := len(players)
	if n == 0 {
		return nil, domain.ErrEmptyRoster
	}

	var candidates []domain.Candidate
	if b.strategy == StrategyExhaustive && n <= maxExhaustive {
		candidates = enumerate(players)
	} else {
		candidates = b.sample(players)
	}

	candidates = lo.UniqBy(candidates, partitionKey)
	slices.SortStableFunc(candidates, func(x, y domain.Candidate) int {
		return x.Imbalance - y.Imbalance
	})
	if len(candidates) > b.keep {
		candidates = candidates[:b.keep]
	}
	return candidates, nil
}

func (b *Balancer) sample(players []domain.Player) []domain.Candidate {
	sizeA := sideASize(len(players))
	order := slices.Clone(players)
	out := make([]domain.Candidate, 0, b.samples)
	for i := 0; i < b.samples; i++ {
		b.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		out = append(out, newCandidate(order[:sizeA], order[sizeA:]))
	}
	return out
}

// enumerate walks every subset of size ceil(n/2) in lexicographic bitmask order.
func enumerate(players []domain.Player) []domain.Candidate {
	n := len(players)
	sizeA := sideASize(n)
	var out []domain.Candidate
	sideA := make([]domain.Player, 0, sizeA)
	sideB := make([]domain.Player, 0, n-sizeA)
	for mask := uint32(0); mask < 1<<n; mask++ {
		if bits.OnesCount32(mask) != sizeA {
			continue
		}
		sideA, sideB = sideA[:0], sideB[:0]
		for i, p := range players {
			if mask&(1<<i) != 0 {
				sideA = append(sideA, p)
			} else {
				sideB = append(sideB, p)
			}
		}
		out = append(out, newCandidate(sideA, sideB))
	}
	return out
}

func newCandidate(sideA, sideB []domain.Player) domain.Candidate {
	c := domain.Candidate{
		SideA: names(sideA),
		SideB: names(sideB),
		SumA:  lo.SumBy(sideA, func(p domain.Player) int { return p.Rating }),
		SumB:  lo.SumBy(sideB, func(p domain.Player) int { return p.Rating }),
	}
	c.Imbalance = c.SumA - c.SumB
	if c.Imbalance < 0 {
		c.Imbalance = -c.Imbalance
	}
	return c
}

func names(players []domain.Player) []string {
	out := lo.Map(players, func(p domain.Player, _ int) string { return p.Name })
	slices.Sort(out)
	return out
}

func partitionKey(c domain.Candidate) string {
	return strings.Join(c.SideA, "\x00")
}

func sideASize(n int) int {
	return (n + 1) / 2
}
