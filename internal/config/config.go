package config

import (
	"fmt"
	"os"
	"scrim-manager/internal/constants"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBDriver    string
	DBPath      string
	DatabaseURL string
	ServerPort  string
	LogLevel    string

	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string
	SessionTTL        time.Duration

	BalanceSamples  int
	BalanceKeep     int
	BalanceStrategy string

	// BetSteering is "advisory" or "enforced".
	BetSteering string
	// SettlementEmptyWinners is "forfeit" or "refund".
	SettlementEmptyWinners string
	PayoutMultiplier       string

	OpenDotaAPIKey string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBDriver:               getEnv("DB_DRIVER", "sqlite3"),
		DBPath:                 getEnv("DB_PATH", "scrims.db"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		AdminUsername:          getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:          getEnv("ADMIN_PASSWORD", ""),
		AdminPasswordHash:      getEnv("ADMIN_PASSWORD_HASH", ""),
		SessionTTL:             getEnvDuration("SESSION_TTL", constants.SessionTTL),
		BalanceSamples:         getEnvInt("BALANCE_SAMPLES", constants.BalanceSamples),
		BalanceKeep:            getEnvInt("BALANCE_KEEP", constants.BalanceKeep),
		BalanceStrategy:        getEnv("BALANCE_STRATEGY", "sample"),
		BetSteering:            getEnv("BET_STEERING", "advisory"),
		SettlementEmptyWinners: getEnv("SETTLEMENT_EMPTY_WINNERS", "forfeit"),
		PayoutMultiplier:       getEnv("PAYOUT_MULTIPLIER", constants.PayoutMultiplier),
		OpenDotaAPIKey:         getEnv("OPENDOTA_API_KEY", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info().
		Str("db_driver", cfg.DBDriver).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Int("balance_samples", cfg.BalanceSamples).
		Str("balance_strategy", cfg.BalanceStrategy).
		Str("bet_steering", cfg.BetSteering).
		Str("settlement_empty_winners", cfg.SettlementEmptyWinners).
		Dur("session_ttl", cfg.SessionTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3":
	case "pgx":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER=pgx")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required")
	}
	if c.BalanceStrategy != "sample" && c.BalanceStrategy != "exhaustive" {
		return fmt.Errorf("unsupported BALANCE_STRATEGY %q", c.BalanceStrategy)
	}
	if c.BetSteering != "advisory" && c.BetSteering != "enforced" {
		return fmt.Errorf("unsupported BET_STEERING %q", c.BetSteering)
	}
	if c.SettlementEmptyWinners != "forfeit" && c.SettlementEmptyWinners != "refund" {
		return fmt.Errorf("unsupported SETTLEMENT_EMPTY_WINNERS %q", c.SettlementEmptyWinners)
	}
	return nil
}

// DataSource is the DSN handed to sql.Open for the configured driver.
func (c *Config) DataSource() string {
	if c.DBDriver == "pgx" {
		return c.DatabaseURL
	}
	return c.DBPath
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

var Module = fx.Provide(Load)
