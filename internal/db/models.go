package db

import (
	"time"
)

type Player struct {
	Name      string
	Rating    int64
	Hero      string
	Side      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Balance struct {
	Bettor    string
	Amount    int64
	UpdatedAt time.Time
}

type Wager struct {
	ID       string
	MatchID  string
	Bettor   string
	Amount   int64
	Side     string
	Seq      int64
	PlacedAt time.Time
}

type Settlement struct {
	ID         string
	MatchID    string
	Winner     string
	PoolWinner int64
	PoolLoser  int64
	Forfeited  int64
	SettledAt  time.Time
}

type SettlementPayout struct {
	SettlementID string
	Seq          int64
	Bettor       string
	Side         string
	Stake        int64
	Credit       int64
}

type OpenMatch struct {
	MatchID    string
	WagerCount int64
	PoolA      int64
	PoolB      int64
}
