package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "hunter2")
	t.Setenv("BALANCE_SAMPLES", "not-a-number")

	cfg, err := Load(zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "scrims.db", cfg.DataSource())
	assert.Equal(t, 200, cfg.BalanceSamples)
	assert.Equal(t, 10, cfg.BalanceKeep)
	assert.Equal(t, "advisory", cfg.BetSteering)
	assert.Equal(t, "forfeit", cfg.SettlementEmptyWinners)
	assert.Equal(t, "1.8", cfg.PayoutMultiplier)
}

func TestLoadRejectsMissingAdminSecret(t *testing.T) {
	t.Setenv("ADMIN_PASSWORD", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")

	_, err := Load(zerolog.Nop())
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{
		DBDriver:               "pgx",
		AdminPassword:          "x",
		BalanceStrategy:        "sample",
		BetSteering:            "advisory",
		SettlementEmptyWinners: "forfeit",
	}
	assert.Error(t, base.Validate(), "pgx needs DATABASE_URL")

	base.DatabaseURL = "postgres://localhost/scrims"
	require.NoError(t, base.Validate())
	assert.Equal(t, "postgres://localhost/scrims", base.DataSource())

	bad := base
	bad.BetSteering = "sometimes"
	assert.Error(t, bad.Validate())

	bad = base
	bad.SettlementEmptyWinners = "burn"
	assert.Error(t, bad.Validate())

	bad = base
	bad.BalanceStrategy = "greedy"
	assert.Error(t, bad.Validate())
}
