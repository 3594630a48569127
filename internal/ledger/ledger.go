// Package ledger tracks wagers per match and the balances they are paid from.
//
// Funds are reserved when a bet is placed: the stake is debited immediately
// and only comes back through settlement or cancellation. The ledger talks
// to persistence through Store and is expected to run inside a single
// transaction per operation.
package ledger

import (
	"context"
	"fmt"
	"scrim-manager/internal/domain"
	"slices"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/samber/lo"
)

type Steering string

const (
	// SteeringAdvisory accepts any side; Pools.OpenSides is a hint for the UI.
	SteeringAdvisory Steering = "advisory"
	// SteeringEnforced rejects bets on a side whose pool already exceeds the other.
	SteeringEnforced Steering = "enforced"
)

type Store interface {
	LoadWagers(ctx context.Context, matchID string) ([]domain.Wager, error)
	SaveWager(ctx context.Context, w domain.Wager) error
	DeleteWagers(ctx context.Context, matchID string) error
	DeleteBettorWagers(ctx context.Context, matchID, bettor string) error
	GetBalance(ctx context.Context, bettor string) (int64, error)
	SetBalance(ctx context.Context, bettor string, amount int64) error
}

// MaxBalance bounds every balance so stakes, pool sums and multiplied
// payouts stay inside int64.
const MaxBalance int64 = 1 << 53

// NormalizeTarget trims a match id and bettor name the way they are stored.
func NormalizeTarget(matchID, bettor string) (string, string, error) {
	matchID, bettor = strings.TrimSpace(matchID), strings.TrimSpace(bettor)
	if matchID == "" {
		return "", "", domain.ErrInvalidMatch
	}
	if bettor == "" {
		return "", "", domain.ErrInvalidBettor
	}
	return matchID, bettor, nil
}

type Pools struct {
	A         int64
	B         int64
	OpenSides []domain.Side
}

// PoolsOf sums stakes per side. A side is open when its pool is not heavier
// than the opposing one.
func PoolsOf(wagers []domain.Wager) Pools {
	var p Pools
	for _, w := range wagers {
		switch w.Side {
		case domain.SideA:
			p.A += w.Amount
		case domain.SideB:
			p.B += w.Amount
		}
	}
	if p.A <= p.B {
		p.OpenSides = append(p.OpenSides, domain.SideA)
	}
	if p.B <= p.A {
		p.OpenSides = append(p.OpenSides, domain.SideB)
	}
	return p
}

func (p Pools) Allows(side domain.Side) bool {
	return slices.Contains(p.OpenSides, side)
}

type Ledger struct {
	store    Store
	steering Steering
	now      func() time.Time
}

func New(store Store, steering Steering) *Ledger {
	if steering == "" {
		steering = SteeringAdvisory
	}
	return &Ledger{store: store, steering: steering, now: time.Now}
}

func (l *Ledger) PlaceBet(ctx context.Context, matchID, bettor string, amount int64, side domain.Side) (domain.Wager, error) {
	matchID, bettor, err := NormalizeTarget(matchID, bettor)
	if err != nil {
		return domain.Wager{}, err
	}
	if amount <= 0 {
		return domain.Wager{}, fmt.Errorf("%w: %d", domain.ErrInvalidAmount, amount)
	}
	if !side.Playable() {
		return domain.Wager{}, fmt.Errorf("%w: %q", domain.ErrInvalidSide, side)
	}

	balance, err := l.store.GetBalance(ctx, bettor)
	if err != nil {
		return domain.Wager{}, fmt.Errorf("failed to get balance: %w", err)
	}
	if balance < amount {
		return domain.Wager{}, fmt.Errorf("%w: balance %d, stake %d", domain.ErrInsufficientFunds, balance, amount)
	}

	wagers, err := l.store.LoadWagers(ctx, matchID)
	if err != nil {
		return domain.Wager{}, fmt.Errorf("failed to load wagers: %w", err)
	}
	if l.steering == SteeringEnforced && !PoolsOf(wagers).Allows(side) {
		return domain.Wager{}, fmt.Errorf("%w: side %s", domain.ErrSideClosed, side)
	}

	id, err := gonanoid.New()
	if err != nil {
		return domain.Wager{}, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	w := domain.Wager{
		ID:       id,
		MatchID:  matchID,
		Bettor:   bettor,
		Amount:   amount,
		Side:     side,
		Position: nextPosition(wagers),
		PlacedAt: l.now(),
	}

	if err := l.store.SetBalance(ctx, bettor, balance-amount); err != nil {
		return domain.Wager{}, fmt.Errorf("failed to debit stake: %w", err)
	}
	if err := l.store.SaveWager(ctx, w); err != nil {
		return domain.Wager{}, fmt.Errorf("failed to save wager: %w", err)
	}
	return w, nil
}

// ListBets returns the match's wagers in placement order.
func (l *Ledger) ListBets(ctx context.Context, matchID string) ([]domain.Wager, error) {
	matchID = strings.TrimSpace(matchID)
	wagers, err := l.store.LoadWagers(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wagers: %w", err)
	}
	SortByPlacement(wagers)
	return wagers, nil
}

// CancelUserBets refunds every stake the bettor has on the match at 1:1 and
// returns the refunded total.
func (l *Ledger) CancelUserBets(ctx context.Context, matchID, bettor string) (int64, error) {
	matchID, bettor, err := NormalizeTarget(matchID, bettor)
	if err != nil {
		return 0, err
	}
	wagers, err := l.store.LoadWagers(ctx, matchID)
	if err != nil {
		return 0, fmt.Errorf("failed to load wagers: %w", err)
	}
	own := lo.Filter(wagers, func(w domain.Wager, _ int) bool { return w.Bettor == bettor })
	if len(own) == 0 {
		return 0, nil
	}
	refund := lo.SumBy(own, func(w domain.Wager) int64 { return w.Amount })

	balance, err := l.store.GetBalance(ctx, bettor)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	if err := l.store.SetBalance(ctx, bettor, balance+refund); err != nil {
		return 0, fmt.Errorf("failed to refund stake: %w", err)
	}
	if err := l.store.DeleteBettorWagers(ctx, matchID, bettor); err != nil {
		return 0, fmt.Errorf("failed to delete wagers: %w", err)
	}
	return refund, nil
}

// AdjustBalance credits (delta > 0) or debits (delta < 0) a bettor directly.
func (l *Ledger) AdjustBalance(ctx context.Context, bettor string, delta int64) (int64, error) {
	bettor = strings.TrimSpace(bettor)
	if bettor == "" {
		return 0, domain.ErrInvalidBettor
	}
	balance, err := l.store.GetBalance(ctx, bettor)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	if delta > MaxBalance-balance {
		return balance, fmt.Errorf("%w: balance %d cannot exceed %d", domain.ErrInvalidAmount, balance, MaxBalance)
	}
	next := balance + delta
	if next < 0 {
		return balance, fmt.Errorf("%w: balance %d, debit %d", domain.ErrInsufficientFunds, balance, -delta)
	}
	if err := l.store.SetBalance(ctx, bettor, next); err != nil {
		return 0, fmt.Errorf("failed to set balance: %w", err)
	}
	return next, nil
}

func (l *Ledger) Balance(ctx context.Context, bettor string) (int64, error) {
	bettor = strings.TrimSpace(bettor)
	if bettor == "" {
		return 0, domain.ErrInvalidBettor
	}
	return l.store.GetBalance(ctx, bettor)
}

func (l *Ledger) Pools(ctx context.Context, matchID string) (Pools, error) {
	matchID = strings.TrimSpace(matchID)
	wagers, err := l.store.LoadWagers(ctx, matchID)
	if err != nil {
		return Pools{}, fmt.Errorf("failed to load wagers: %w", err)
	}
	return PoolsOf(wagers), nil
}

func SortByPlacement(wagers []domain.Wager) {
	slices.SortStableFunc(wagers, func(a, b domain.Wager) int { return a.Position - b.Position })
}

func nextPosition(wagers []domain.Wager) int {
	last := 0
	for _, w := range wagers {
		last = max(last, w.Position)
	}
	return last + 1
}
