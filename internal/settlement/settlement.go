// Package settlement pays out a match once its winning side is declared.
//
// Winners are processed in placement order. Each winning stake is matched
// against what is left of the losing pool: the matched part pays the
// multiplier, the unmatched part is returned at 1:1. Results are floored to
// whole currency units.
package settlement

import (
	"context"
	"fmt"
	"scrim-manager/internal/domain"
	"scrim-manager/internal/ledger"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/shopspring/decimal"
)

type EmptyWinners string

const (
	// Forfeit discards the losing pool when nobody backed the winner.
	Forfeit EmptyWinners = "forfeit"
	// RefundLosers returns every losing stake when nobody backed the winner.
	RefundLosers EmptyWinners = "refund"
)

type Engine struct {
	multiplier   decimal.Decimal
	emptyWinners EmptyWinners
	now          func() time.Time
}

func NewEngine(multiplier decimal.Decimal, emptyWinners EmptyWinners) *Engine {
	if emptyWinners == "" {
		emptyWinners = Forfeit
	}
	return &Engine{multiplier: multiplier, emptyWinners: emptyWinners, now: time.Now}
}

// maxMultiplier keeps ledger.MaxBalance times the multiplier inside int64.
var maxMultiplier = decimal.NewFromInt(100)

// ParseMultiplier reads a payout multiplier such as "1.8". Multipliers below
// one would pay winners less than their stake and are rejected.
func ParseMultiplier(s string) (decimal.Decimal, error) {
	m, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid payout multiplier %q: %w", s, err)
	}
	if m.LessThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("payout multiplier %s must be at least 1", m)
	}
	if m.GreaterThan(maxMultiplier) {
		return decimal.Zero, fmt.Errorf("payout multiplier %s must be at most %s", m, maxMultiplier)
	}
	return m, nil
}

func (e *Engine) Multiplier() decimal.Decimal {
	return e.multiplier
}

// Compute works out every credit for the match without touching balances.
func (e *Engine) Compute(matchID string, wagers []domain.Wager, winner domain.Side) (domain.Settlement, error) {
	if !winner.Playable() {
		return domain.Settlement{}, fmt.Errorf("%w: %q", domain.ErrInvalidSide, winner)
	}

	ordered := make([]domain.Wager, len(wagers))
	copy(ordered, wagers)
	ledger.SortByPlacement(ordered)

	result := domain.Settlement{MatchID: matchID, Winner: winner}
	for _, w := range ordered {
		if w.Side == winner {
			result.PoolWinner += w.Amount
		} else {
			result.PoolLoser += w.Amount
		}
	}

	if result.PoolWinner == 0 {
		if e.emptyWinners == RefundLosers {
			for _, w := range ordered {
				result.Payouts = append(result.Payouts, domain.Payout{Bettor: w.Bettor, Side: w.Side, Stake: w.Amount, Credit: w.Amount})
			}
			return result, nil
		}
		result.Forfeited = result.PoolLoser
		return result, nil
	}

	remaining := result.PoolLoser
	for _, w := range ordered {
		if w.Side != winner {
			continue
		}
		var credit int64
		switch {
		case remaining <= 0:
			credit = w.Amount
		case remaining >= w.Amount:
			credit = e.pay(w.Amount)
			remaining -= w.Amount
		default:
			matched := remaining
			credit = e.pay(matched) + (w.Amount - matched)
			remaining = 0
		}
		result.Payouts = append(result.Payouts, domain.Payout{Bettor: w.Bettor, Side: w.Side, Stake: w.Amount, Credit: credit})
	}
	result.Forfeited = remaining
	return result, nil
}

// Settle computes the payouts, credits them and clears the match. Callers
// must run it inside one transaction and hold the match lock.
func (e *Engine) Settle(ctx context.Context, store ledger.Store, matchID string, winner domain.Side) (domain.Settlement, error) {
	wagers, err := store.LoadWagers(ctx, matchID)
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("failed to load wagers: %w", err)
	}

	result, err := e.Compute(matchID, wagers, winner)
	if err != nil {
		return domain.Settlement{}, err
	}
	result.SettledAt = e.now()
	if len(wagers) == 0 {
		return result, nil
	}

	result.ID, err = gonanoid.New()
	if err != nil {
		return domain.Settlement{}, fmt.Errorf("failed to generate nanoid: %w", err)
	}

	for _, c := range CreditsByBettor(result.Payouts) {
		balance, err := store.GetBalance(ctx, c.Bettor)
		if err != nil {
			return domain.Settlement{}, fmt.Errorf("failed to get balance for %s: %w", c.Bettor, err)
		}
		if err := store.SetBalance(ctx, c.Bettor, balance+c.Credit); err != nil {
			return domain.Settlement{}, fmt.Errorf("failed to credit %s: %w", c.Bettor, err)
		}
	}

	if err := store.DeleteWagers(ctx, matchID); err != nil {
		return domain.Settlement{}, fmt.Errorf("failed to clear wagers: %w", err)
	}
	return result, nil
}

type Credit struct {
	Bettor string
	Credit int64
}

// CreditsByBettor folds per-wager payouts into one credit per bettor, in
// order of first appearance.
func CreditsByBettor(payouts []domain.Payout) []Credit {
	var out []Credit
	index := make(map[string]int)
	for _, p := range payouts {
		i, ok := index[p.Bettor]
		if !ok {
			i = len(out)
			index[p.Bettor] = i
			out = append(out, Credit{Bettor: p.Bettor})
		}
		out[i].Credit += p.Credit
	}
	return out
}

func (e *Engine) pay(stake int64) int64 {
	return decimal.NewFromInt(stake).Mul(e.multiplier).Floor().IntPart()
}
