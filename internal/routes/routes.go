package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/kwanza-ledger/kwanza_ledger/internal/account"
	"github.com/kwanza-ledger/kwanza_ledger/internal/config"
	"github.com/kwanza-ledger/kwanza_ledger/internal/ledger"
	"github.com/kwanza-ledger/kwanza_ledger/internal/middleware"
	"github.com/kwanza-ledger/kwanza_ledger/internal/notification"
	"github.com/kwanza-ledger/kwanza_ledger/internal/transactions"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Metrics())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Services and handlers
	var engine ledger.Engine
	if d.DB != nil {
		engine = ledger.NewPostgresEngine(d.DB)
	} else {
		engine = ledger.NewInMemory()
	}

	var accountRepo account.Repository
	if d.DB != nil {
		accountRepo = account.NewPostgresRepository(d.DB)
	} else {
		accountRepo = account.NewMemoryRepository()
	}
	accountSvc := account.NewService(accountRepo, engine)
	notifier := notification.NewLoggerNotifier(d.Logger)
	transactionSvc := transactions.NewService(engine, notifier)

	accountHandler := account.NewHandler(accountSvc)
	transactionHandler := transactions.NewHandler(transactionSvc)

	api := app.Group("/api/v1")
	RegisterAccountRoutes(api, accountHandler)
	RegisterTransactionRoutes(api, transactionHandler)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
