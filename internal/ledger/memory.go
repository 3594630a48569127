package ledger

import (
	"context"
	"scrim-manager/internal/domain"
	"sync"

	"github.com/samber/lo"
)

// MemoryStore keeps wagers and balances in process. It backs the ledger in
// tests and in single-process tooling that has no database.
type MemoryStore struct {
	mu       sync.Mutex
	wagers   map[string][]domain.Wager
	balances map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		wagers:   make(map[string][]domain.Wager),
		balances: make(map[string]int64),
	}
}

func (s *MemoryStore) LoadWagers(_ context.Context, matchID string) ([]domain.Wager, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Wager, len(s.wagers[matchID]))
	copy(out, s.wagers[matchID])
	return out, nil
}

func (s *MemoryStore) SaveWager(_ context.Context, w domain.Wager) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wagers[w.MatchID] = append(s.wagers[w.MatchID], w)
	return nil
}

func (s *MemoryStore) DeleteWagers(_ context.Context, matchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.wagers, matchID)
	return nil
}

func (s *MemoryStore) DeleteBettorWagers(_ context.Context, matchID, bettor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wagers[matchID] = lo.Reject(s.wagers[matchID], func(w domain.Wager, _ int) bool { return w.Bettor == bettor })
	return nil
}

func (s *MemoryStore) GetBalance(_ context.Context, bettor string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[bettor], nil
}

func (s *MemoryStore) SetBalance(_ context.Context, bettor string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[bettor] = amount
	return nil
}
