package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)

// sqlite allows a single writer; more open connections only produce SQLITE_BUSY.
const SQLiteMaxOpenConns = 1

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	BalanceSamples = 200
	BalanceKeep    = 10
)

const (
	PayoutMultiplier = "1.8"
)

const (
	SessionTTL       = 12 * time.Hour
	LoginRatePerMin  = 10
	LoginBurst       = 5
	SessionTokenSize = 32
)

const (
	ImportConcurrency = 4
	ImportMaxAccounts = 20
)
