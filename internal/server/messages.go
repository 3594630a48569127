package server

import (
	"scrim-manager/internal/domain"
	"scrim-manager/internal/ledger"
	"scrim-manager/internal/repository"
	"scrim-manager/internal/service"
	"time"

	"github.com/samber/lo"
)

type Empty struct{}

type Player struct {
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Hero      string    `json:"hero,omitempty"`
	Side      string    `json:"side"`
	Tier      string    `json:"tier"`
	Medal     string    `json:"medal"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Totals struct {
	A         int `json:"a"`
	B         int `json:"b"`
	Imbalance int `json:"imbalance"`
}

type ListPlayersResponse struct {
	Players []Player `json:"players"`
	Totals  Totals   `json:"totals"`
}

type AddPlayerRequest struct {
	Name   string `json:"name" validate:"required,max=64"`
	Rating int    `json:"rating"`
}

type UpdatePlayerRequest struct {
	Name   string `json:"name" validate:"required,max=64"`
	Rating int    `json:"rating"`
	Hero   string `json:"hero" validate:"max=64"`
}

type PlayerResponse struct {
	Player Player `json:"player"`
}

type RemovePlayerRequest struct {
	Name string `json:"name" validate:"required"`
}

type AssignSideRequest struct {
	Name string `json:"name" validate:"required"`
	// empty unassigns the player
	Side string `json:"side"`
}

type SwapSideRequest struct {
	Name string `json:"name" validate:"required"`
}

type SwapSideResponse struct {
	Side string `json:"side"`
}

type ImportPlayersRequest struct {
	AccountIDs []int64 `json:"account_ids" validate:"required,min=1,dive,gt=0"`
}

type ImportedPlayer struct {
	AccountID int64  `json:"account_id"`
	Created   bool   `json:"created"`
	Player    Player `json:"player"`
}

type ImportPlayersResponse struct {
	Players []ImportedPlayer `json:"players"`
}

type Candidate struct {
	SideA     []string `json:"side_a"`
	SideB     []string `json:"side_b"`
	SumA      int      `json:"sum_a"`
	SumB      int      `json:"sum_b"`
	Imbalance int      `json:"imbalance"`
}

type CandidatesResponse struct {
	Candidates []Candidate `json:"candidates"`
	Applied    int         `json:"applied"`
}

type ApplyCandidateRequest struct {
	Index int `json:"index"`
}

type ApplyCandidateResponse struct {
	Candidate Candidate `json:"candidate"`
}

type Pools struct {
	A         int64    `json:"a"`
	B         int64    `json:"b"`
	OpenSides []string `json:"open_sides"`
}

type Wager struct {
	ID       string    `json:"id"`
	MatchID  string    `json:"match_id"`
	Bettor   string    `json:"bettor"`
	Amount   int64     `json:"amount"`
	Side     string    `json:"side"`
	PlacedAt time.Time `json:"placed_at"`
}

type PlaceBetRequest struct {
	MatchID string `json:"match_id" validate:"required,max=64"`
	Bettor  string `json:"bettor" validate:"required,max=64"`
	Amount  int64  `json:"amount"`
	Side    string `json:"side" validate:"required"`
}

type PlaceBetResponse struct {
	Wager   Wager `json:"wager"`
	Balance int64 `json:"balance"`
	Pools   Pools `json:"pools"`
}

type MatchRequest struct {
	MatchID string `json:"match_id" validate:"required"`
}

type ListBetsResponse struct {
	Wagers []Wager `json:"wagers"`
	Pools  Pools   `json:"pools"`
}

type GetPoolsResponse struct {
	Pools Pools `json:"pools"`
}

type OpenMatch struct {
	MatchID    string `json:"match_id"`
	WagerCount int    `json:"wager_count"`
	PoolA      int64  `json:"pool_a"`
	PoolB      int64  `json:"pool_b"`
}

type ListOpenMatchesResponse struct {
	Matches []OpenMatch `json:"matches"`
}

type CancelUserBetsRequest struct {
	MatchID string `json:"match_id" validate:"required"`
	Bettor  string `json:"bettor" validate:"required"`
}

type CancelUserBetsResponse struct {
	Refunded int64 `json:"refunded"`
}

type GetBalanceRequest struct {
	Bettor string `json:"bettor" validate:"required"`
}

type AdjustBalanceRequest struct {
	Bettor string `json:"bettor" validate:"required,max=64"`
	Delta  int64  `json:"delta" validate:"ne=0"`
}

type BalanceResponse struct {
	Bettor  string `json:"bettor"`
	Balance int64  `json:"balance"`
}

type ListBalancesResponse struct {
	Balances []BalanceResponse `json:"balances"`
}

type SettleMatchRequest struct {
	MatchID string `json:"match_id" validate:"required"`
	Winner  string `json:"winner" validate:"required"`
}

type Payout struct {
	Bettor string `json:"bettor"`
	Side   string `json:"side"`
	Stake  int64  `json:"stake"`
	Credit int64  `json:"credit"`
}

type Settlement struct {
	ID         string    `json:"id,omitempty"`
	MatchID    string    `json:"match_id"`
	Winner     string    `json:"winner"`
	PoolWinner int64     `json:"pool_winner"`
	PoolLoser  int64     `json:"pool_loser"`
	Forfeited  int64     `json:"forfeited"`
	Payouts    []Payout  `json:"payouts"`
	SettledAt  time.Time `json:"settled_at"`
}

type SettleMatchResponse struct {
	Settlement Settlement `json:"settlement"`
}

type ListSettlementsRequest struct {
	Limit int `json:"limit" validate:"gte=0,lte=500"`
}

type ListSettlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func toPlayer(p domain.Player) Player {
	tier := p.Tier()
	return Player{
		Name:      p.Name,
		Rating:    p.Rating,
		Hero:      p.Hero,
		Side:      string(p.Side),
		Tier:      tier.String(),
		Medal:     tier.Medal(),
		UpdatedAt: p.UpdatedAt,
	}
}

func toCandidate(c domain.Candidate) Candidate {
	return Candidate{SideA: c.SideA, SideB: c.SideB, SumA: c.SumA, SumB: c.SumB, Imbalance: c.Imbalance}
}

func toCandidates(s service.BalanceSession) CandidatesResponse {
	return CandidatesResponse{
		Candidates: lo.Map(s.Candidates, func(c domain.Candidate, _ int) Candidate { return toCandidate(c) }),
		Applied:    s.Applied,
	}
}

func toPools(p ledger.Pools) Pools {
	return Pools{
		A:         p.A,
		B:         p.B,
		OpenSides: lo.Map(p.OpenSides, func(s domain.Side, _ int) string { return string(s) }),
	}
}

func toWager(w domain.Wager) Wager {
	return Wager{ID: w.ID, MatchID: w.MatchID, Bettor: w.Bettor, Amount: w.Amount, Side: string(w.Side), PlacedAt: w.PlacedAt}
}

func toOpenMatch(m repository.OpenMatch) OpenMatch {
	return OpenMatch{MatchID: m.MatchID, WagerCount: m.WagerCount, PoolA: m.PoolA, PoolB: m.PoolB}
}

func toSettlement(s domain.Settlement) Settlement {
	return Settlement{
		ID:         s.ID,
		MatchID:    s.MatchID,
		Winner:     string(s.Winner),
		PoolWinner: s.PoolWinner,
		PoolLoser:  s.PoolLoser,
		Forfeited:  s.Forfeited,
		Payouts: lo.Map(s.Payouts, func(p domain.Payout, _ int) Payout {
			return Payout{Bettor: p.Bettor, Side: string(p.Side), Stake: p.Stake, Credit: p.Credit}
		}),
		SettledAt: s.SettledAt,
	}
}
