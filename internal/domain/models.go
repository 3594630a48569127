package domain

import (
	"fmt"
	"strings"
	"time"
)

type Side string

const (
	SideUnassigned Side = ""
	SideA          Side = "A"
	SideB          Side = "B"
)

func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "A":
		return SideA, nil
	case "B":
		return SideB, nil
	case "":
		return SideUnassigned, nil
	}
	return SideUnassigned, fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

// Opposite returns the other team; Unassigned stays Unassigned.
func (s Side) Opposite() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	}
	return SideUnassigned
}

// Playable reports whether a wager or a winner may name this side.
func (s Side) Playable() bool {
	return s == SideA || s == SideB
}

type Player struct {
	Name      string
	Rating    int
	Hero      string
	Side      Side
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Player) Tier() Tier {
	return TierFor(p.Rating)
}

type Wager struct {
	ID       string // nanoid
	MatchID  string
	Bettor   string
	Amount   int64
	Side     Side
	Position int // insertion order within the match
	PlacedAt time.Time
}

// Candidate is one proposed partition produced by the balancer.
type Candidate struct {
	SideA     []string
	SideB     []string
	SumA      int
	SumB      int
	Imbalance int
}

type Payout struct {
	Bettor string
	Side   Side
	Stake  int64
	Credit int64
}

type Settlement struct {
	ID         string // nanoid
	MatchID    string
	Winner     Side
	PoolWinner int64
	PoolLoser  int64
	Forfeited  int64
	Payouts    []Payout
	SettledAt  time.Time
}
