package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"scrim-manager/internal/api"
	"scrim-manager/internal/balancer"
	"scrim-manager/internal/config"
	"scrim-manager/internal/database"
	"scrim-manager/internal/db"
	"scrim-manager/internal/domain"
	"scrim-manager/internal/metrics"
	"scrim-manager/internal/repository"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db          *sql.DB
	roster      *RosterService
	balance     *BalanceService
	ledger      *LedgerService
	settlements *SettlementService
}

func newTestEnv(t *testing.T, opendotaURL string) *testEnv {
	t.Helper()

	cfg := &config.Config{
		DBDriver:               "sqlite3",
		DBPath:                 filepath.Join(t.TempDir(), "scrims.db"),
		BalanceSamples:         200,
		BalanceKeep:            10,
		BalanceStrategy:        string(balancer.StrategyExhaustive),
		BetSteering:            "advisory",
		SettlementEmptyWinners: "forfeit",
		PayoutMultiplier:       "1.8",
	}
	logger := zerolog.Nop()

	sqlDB, err := database.New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	queries := db.New(sqlDB)
	m := metrics.New()
	locks := NewLocker()

	playerRepo := repository.NewPlayerRepository(sqlDB, queries, logger)
	ledgerRepo := repository.NewLedgerRepository(sqlDB, queries, logger)
	settlementRepo := repository.NewSettlementRepository(sqlDB, queries, logger)

	rosterService := NewRosterService(sqlDB, playerRepo, api.NewOpenDotaClientWithBaseURL(opendotaURL, ""), m, logger)
	engine, err := NewSettlementEngine(cfg)
	require.NoError(t, err)

	return &testEnv{
		db:          sqlDB,
		roster:      rosterService,
		balance:     NewBalanceService(rosterService, NewBalancer(cfg), logger),
		ledger:      NewLedgerService(sqlDB, ledgerRepo, cfg, locks, m, logger),
		settlements: NewSettlementService(sqlDB, ledgerRepo, settlementRepo, engine, locks, m, logger),
	}
}

func sideOf(t *testing.T, players []domain.Player, name string) domain.Side {
	t.Helper()
	for _, p := range players {
		if p.Name == name {
			return p.Side
		}
	}
	t.Fatalf("player %q not found", name)
	return domain.SideUnassigned
}

func TestRosterPersistsMutations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")

	_, err := env.roster.Add(ctx, "Yair", 3200)
	require.NoError(t, err)
	_, err = env.roster.Add(ctx, "Yair", 100)
	assert.ErrorIs(t, err, domain.ErrDuplicateName)
	_, err = env.roster.Add(ctx, "Dana", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidRating)

	_, err = env.roster.Add(ctx, "Dana", 1500)
	require.NoError(t, err)

	p, err := env.roster.Update(ctx, "Dana", 1600, "Pudge")
	require.NoError(t, err)
	assert.Equal(t, "Pudge", p.Hero)

	require.NoError(t, env.roster.Assign(ctx, "Yair", domain.SideA))
	side, err := env.roster.Swap(ctx, "Yair")
	require.NoError(t, err)
	assert.Equal(t, domain.SideB, side)

	_, err = env.roster.Swap(ctx, "Dana")
	assert.ErrorIs(t, err, domain.ErrNotAssigned)

	players, err := env.roster.List(ctx)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Dana", players[0].Name)
	assert.Equal(t, 1600, players[0].Rating)
	assert.Equal(t, domain.SideB, sideOf(t, players, "Yair"))

	totals, err := env.roster.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, Totals{A: 0, B: 3200, Imbalance: 3200}, totals)

	require.NoError(t, env.roster.Remove(ctx, "Yair"))
	assert.ErrorIs(t, env.roster.Remove(ctx, "Yair"), domain.ErrNotFound)

	players, err = env.roster.List(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 1)
}

func TestFailedMutationRollsBack(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")

	_, err := env.roster.Add(ctx, "Yair", 3200)
	require.NoError(t, err)
	require.Error(t, env.roster.Assign(ctx, "Ghost", domain.SideA))

	players, err := env.roster.List(ctx)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, domain.SideUnassigned, players[0].Side)
}

func TestBalanceAndApplyCandidate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")

	_, err := env.balance.Balance(ctx)
	assert.ErrorIs(t, err, domain.ErrEmptyRoster)
	_, err = env.balance.ApplyCandidate(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrNoBalanceSession)

	for name, rating := range map[string]int{"A": 1000, "B": 900, "C": 100} {
		_, err := env.roster.Add(ctx, name, rating)
		require.NoError(t, err)
	}

	session, err := env.balance.Balance(ctx)
	require.NoError(t, err)
	require.Len(t, session.Candidates, 3)
	assert.Equal(t, 0, session.Candidates[0].Imbalance)

	totals, err := env.roster.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, totals.Imbalance)

	c, err := env.balance.ApplyCandidate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, c.SideA)
	assert.Equal(t, []string{"B"}, c.SideB)

	players, err := env.roster.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SideA, sideOf(t, players, "A"))
	assert.Equal(t, domain.SideB, sideOf(t, players, "B"))
	assert.Equal(t, domain.SideA, sideOf(t, players, "C"))

	totals, err = env.roster.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.Imbalance, totals.Imbalance)

	stored, err := env.balance.Session()
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Applied)

	_, err = env.balance.ApplyCandidate(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrCandidateRange)
	_, err = env.balance.ApplyCandidate(ctx, -1)
	assert.ErrorIs(t, err, domain.ErrCandidateRange)

	_, err = env.roster.Add(ctx, "D", 50)
	require.NoError(t, err)
	_, err = env.balance.ApplyCandidate(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrNoBalanceSession)
}

func TestRatingChangeInvalidatesSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")

	for name, rating := range map[string]int{"A": 1000, "B": 900, "C": 100} {
		_, err := env.roster.Add(ctx, name, rating)
		require.NoError(t, err)
	}
	_, err := env.balance.Balance(ctx)
	require.NoError(t, err)

	_, err = env.roster.Update(ctx, " C ", 5000, "")
	require.NoError(t, err)

	_, err = env.balance.ApplyCandidate(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrNoBalanceSession)

	_, err = env.balance.Balance(ctx)
	require.NoError(t, err)
	c, err := env.balance.ApplyCandidate(ctx, 0)
	require.NoError(t, err)
	totals, err := env.roster.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.Imbalance, totals.Imbalance)
	assert.Equal(t, 3100, totals.Imbalance)
}

func TestConcurrentBalanceKeepsSessionInSync(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")

	for name, rating := range map[string]int{"A": 1000, "B": 900, "C": 100, "D": 400} {
		_, err := env.roster.Add(ctx, name, rating)
		require.NoError(t, err)
	}
	_, err := env.balance.Balance(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = env.balance.Balance(ctx)
		}()
		go func(index int) {
			defer wg.Done()
			_, _ = env.balance.ApplyCandidate(ctx, index)
		}(1 + i%2)
	}
	wg.Wait()

	session, err := env.balance.Session()
	require.NoError(t, err)
	applied := session.Candidates[session.Applied]

	players, err := env.roster.List(ctx)
	require.NoError(t, err)
	for _, name := range applied.SideA {
		assert.Equal(t, domain.SideA, sideOf(t, players, name), name)
	}
	for _, name := range applied.SideB {
		assert.Equal(t, domain.SideB, sideOf(t, players, name), name)
	}
}

func TestImportPlayers(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/players/1":
			_, _ = w.Write([]byte(`{"profile":{"account_id":1,"personaname":"Yair"},"rank_tier":54}`))
		case "/players/2":
			_, _ = w.Write([]byte(`{"profile":{"account_id":2,"personaname":"Dana"},"rank_tier":11}`))
		case "/players/3":
			_, _ = w.Write([]byte(`{"profile":{"account_id":3,"personaname":"Ghost"},"rank_tier":null}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	env := newTestEnv(t, srv.URL)
	_, err := env.roster.Add(ctx, "Dana", 4000)
	require.NoError(t, err)
	require.NoError(t, env.roster.Assign(ctx, "Dana", domain.SideB))

	results, err := env.roster.Import(ctx, []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Created)
	assert.Equal(t, "Yair", results[0].Player.Name)
	assert.Equal(t, "Legend 4", results[0].Player.Tier().String())
	assert.False(t, results[1].Created)
	assert.Equal(t, "Herald 1", results[1].Player.Tier().String())

	players, err := env.roster.List(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 2)
	assert.Equal(t, domain.SideB, sideOf(t, players, "Dana"))

	_, err = env.roster.Import(ctx, []int64{3})
	assert.ErrorIs(t, err, domain.ErrInvalidRating)
	_, err = env.roster.Import(ctx, []int64{9})
	assert.Error(t, err)

	players, err = env.roster.List(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 2)
}

func TestPlaceBetAndCancel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")

	_, err := env.ledger.AdjustBalance(ctx, "x", 100)
	require.NoError(t, err)

	_, err = env.ledger.PlaceBet(ctx, "m1", "x", 40, domain.SideA)
	require.NoError(t, err)
	_, err = env.ledger.PlaceBet(ctx, "m1", "x", 70, domain.SideA)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	_, err = env.ledger.PlaceBet(ctx, "m1", "x", 10, domain.SideB)
	require.NoError(t, err)

	bal, err := env.ledger.Balance(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(50), bal)

	bets, err := env.ledger.ListBets(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, bets, 2)
	assert.Equal(t, int64(40), bets[0].Amount)
	assert.Equal(t, int64(10), bets[1].Amount)

	pools, err := env.ledger.Pools(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), pools.A)
	assert.Equal(t, int64(10), pools.B)
	assert.Equal(t, []domain.Side{domain.SideB}, pools.OpenSides)

	open, err := env.ledger.ListOpenMatches(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, repository.OpenMatch{MatchID: "m1", WagerCount: 2, PoolA: 40, PoolB: 10}, open[0])

	refund, err := env.ledger.CancelUserBets(ctx, "m1", "x")
	require.NoError(t, err)
	assert.Equal(t, int64(50), refund)

	bal, err = env.ledger.Balance(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)

	bets, err = env.ledger.ListBets(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, bets)

	_, err = env.ledger.AdjustBalance(ctx, "x", -101)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
}

func TestBetTargetsAreTrimmed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")

	_, err := env.ledger.AdjustBalance(ctx, " x ", 100)
	require.NoError(t, err)

	_, err = env.ledger.PlaceBet(ctx, "m", " x", 50, domain.SideA)
	require.NoError(t, err)

	bal, err := env.ledger.Balance(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(50), bal)

	bets, err := env.ledger.ListBets(ctx, " m ")
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, "x", bets[0].Bettor)

	refund, err := env.ledger.CancelUserBets(ctx, " m", " x")
	require.NoError(t, err)
	assert.Equal(t, int64(50), refund)

	bal, err = env.ledger.Balance(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)

	bets, err = env.ledger.ListBets(ctx, "m")
	require.NoError(t, err)
	assert.Empty(t, bets)

	_, err = env.ledger.PlaceBet(ctx, "m", "  ", 10, domain.SideA)
	assert.ErrorIs(t, err, domain.ErrInvalidBettor)
	_, err = env.ledger.CancelUserBets(ctx, " ", "x")
	assert.ErrorIs(t, err, domain.ErrInvalidMatch)
	_, err = env.settlements.Settle(ctx, " ", domain.SideA)
	assert.ErrorIs(t, err, domain.ErrInvalidMatch)

	_, err = env.ledger.PlaceBet(ctx, "m", "x", 30, domain.SideB)
	require.NoError(t, err)
	result, err := env.settlements.Settle(ctx, " m ", domain.SideB)
	require.NoError(t, err)
	assert.Equal(t, "m", result.MatchID)
}

func TestConcurrentBetsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")

	_, err := env.ledger.AdjustBalance(ctx, "x", 100)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.ledger.PlaceBet(ctx, fmt.Sprintf("m%d", i%3), "x", 30, domain.SideA); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, accepted)
	bal, err := env.ledger.Balance(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(10), bal)
}

func TestSettleMatch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, "")

	for bettor, amount := range map[string]int64{"a1": 100, "a2": 100, "b1": 150} {
		_, err := env.ledger.AdjustBalance(ctx, bettor, amount)
		require.NoError(t, err)
	}
	_, err := env.ledger.PlaceBet(ctx, "m1", "a1", 100, domain.SideA)
	require.NoError(t, err)
	_, err = env.ledger.PlaceBet(ctx, "m1", "a2", 100, domain.SideA)
	require.NoError(t, err)
	_, err = env.ledger.PlaceBet(ctx, "m1", "b1", 150, domain.SideB)
	require.NoError(t, err)

	_, err = env.settlements.Settle(ctx, "m1", domain.SideUnassigned)
	assert.ErrorIs(t, err, domain.ErrInvalidSide)

	result, err := env.settlements.Settle(ctx, "m1", domain.SideA)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, int64(200), result.PoolWinner)
	assert.Equal(t, int64(150), result.PoolLoser)
	assert.Equal(t, int64(0), result.Forfeited)

	for bettor, want := range map[string]int64{"a1": 180, "a2": 140, "b1": 0} {
		bal, err := env.ledger.Balance(ctx, bettor)
		require.NoError(t, err)
		assert.Equal(t, want, bal, bettor)
	}

	bets, err := env.ledger.ListBets(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, bets)

	again, err := env.settlements.Settle(ctx, "m1", domain.SideA)
	require.NoError(t, err)
	assert.Empty(t, again.ID)
	bal, err := env.ledger.Balance(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, int64(180), bal)

	history, err := env.settlements.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.ID, history[0].ID)
	require.Len(t, history[0].Payouts, 2)
	assert.Equal(t, "a1", history[0].Payouts[0].Bettor)
	assert.Equal(t, int64(180), history[0].Payouts[0].Credit)
}

func TestLockerSerializesKey(t *testing.T) {
	l := NewLocker()
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.LockAll(matchKey("m"), bettorKey("x"), bettorKey("x"))
			counter++
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
	assert.Empty(t, l.locks)
}
