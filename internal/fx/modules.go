package fx

import (
	"database/sql"
	"scrim-manager/internal/api"
	"scrim-manager/internal/auth"
	"scrim-manager/internal/config"
	"scrim-manager/internal/database"
	"scrim-manager/internal/db"
	"scrim-manager/internal/logger"
	"scrim-manager/internal/metrics"
	"scrim-manager/internal/repository"
	"scrim-manager/internal/server"
	"scrim-manager/internal/service"

	"go.uber.org/fx"
)

func ProvideQueries(sqlDB *sql.DB) *db.Queries {
	return db.New(sqlDB)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	fx.Provide(ProvideQueries),
	fx.Provide(metrics.New),
	// repos
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewLedgerRepository),
	fx.Provide(repository.NewSettlementRepository),
	// api client
	fx.Provide(api.NewOpenDotaClient),
	// svc
	fx.Provide(auth.NewService),
	fx.Provide(service.NewLocker),
	fx.Provide(service.NewBalancer),
	fx.Provide(service.NewSettlementEngine),
	fx.Provide(service.NewRosterService),
	fx.Provide(service.NewBalanceService),
	fx.Provide(service.NewLedgerService),
	fx.Provide(service.NewSettlementService),
	// server
	fx.Provide(server.NewScrimServer),
)
