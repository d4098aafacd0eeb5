package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/accounting/accounts"
	"github.com/meridian-erp/meridian-erp/internal/accounting/journals"
	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/dashboard"
	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/categories"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/products"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/suppliers"
	"github.com/meridian-erp/meridian-erp/internal/masterdata/warehouses"
	"github.com/meridian-erp/meridian-erp/internal/platform/cache"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/procurement"
	"github.com/meridian-erp/meridian-erp/internal/sales"
	"github.com/meridian-erp/meridian-erp/internal/sales/customers"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/users"
	"github.com/meridian-erp/meridian-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	activityLogger := shared.NewActivityLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	codes := cfg.PostingCodes()

	accountsRepo := accounts.NewRepository(dbpool)
	accountsService := accounts.NewService(accountsRepo, activityLogger)
	accountsHandler := accounts.NewHandler(logger, accountsService)

	if err := accountsService.VerifyPostingAccounts(ctx, codes.All()...); err != nil {
		logger.Error("posting accounts missing, run the seed script first", slog.Any("error", err))
		os.Exit(1)
	}

	ledgerEngine := journals.NewEngine()
	journalsRepo := journals.NewRepository(dbpool)
	journalsService := journals.NewService(journalsRepo, ledgerEngine, activityLogger)
	journalsHandler := journals.NewHandler(logger, journalsService)

	stockEngine := inventory.NewEngine()
	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, stockEngine, activityLogger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	salesRepo := sales.NewRepository(dbpool)
	salesService := sales.NewService(salesRepo, ledgerEngine, stockEngine, codes, activityLogger)
	salesHandler := sales.NewHandler(logger, salesService)

	procurementRepo := procurement.NewRepository(dbpool)
	procurementService := procurement.NewService(procurementRepo, ledgerEngine, stockEngine, codes, activityLogger)
	procurementHandler := procurement.NewHandler(logger, procurementService)

	productsRepo := products.NewRepository(dbpool)
	productsService := products.NewService(productsRepo, activityLogger)
	productsHandler := products.NewHandler(logger, productsService)

	categoriesRepo := categories.NewRepository(dbpool)
	categoriesHandler := categories.NewHandler(logger, categories.NewService(categoriesRepo))

	warehousesRepo := warehouses.NewRepository(dbpool)
	warehousesHandler := warehouses.NewHandler(logger, warehouses.NewService(warehousesRepo))

	suppliersRepo := suppliers.NewRepository(dbpool)
	suppliersHandler := suppliers.NewHandler(logger, suppliers.NewService(suppliersRepo))

	customersRepo := customers.NewRepository(dbpool)
	customersHandler := customers.NewHandler(logger, customers.NewService(customersRepo))

	usersRepo := users.NewRepository(dbpool)
	usersHandler := users.NewHandler(logger, users.NewService(usersRepo))

	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardTTL)
	dashboardRepo := dashboard.NewRepository(dbpool)
	dashboardService := dashboard.NewService(dashboardRepo, dashboardCache)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService)
	if err := dashboardCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("dashboard invalidation listener", slog.Any("error", err))
	}

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		AccountsHandler:    accountsHandler,
		JournalsHandler:    journalsHandler,
		InventoryHandler:   inventoryHandler,
		SalesHandler:       salesHandler,
		ProcurementHandler: procurementHandler,
		ProductsHandler:    productsHandler,
		CategoriesHandler:  categoriesHandler,
		WarehousesHandler:  warehousesHandler,
		SuppliersHandler:   suppliersHandler,
		CustomersHandler:   customersHandler,
		UsersHandler:       usersHandler,
		DashboardHandler:   dashboardHandler,
		JobHandler:         jobHandler,
		IdempotencyStore:   idempotencyStore,
		Invalidator:        dashboardService,
		WarmupEnqueue: func(ctx context.Context) error {
			_, err := jobsClient.EnqueueDashboardWarmup(ctx)
			return err
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
