package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	coreport "github.com/vendtrack/vending-core/internal/domain/port/core"
	collectionUseCase "github.com/vendtrack/vending-core/internal/domain/usecase/collection"
	commissionUseCase "github.com/vendtrack/vending-core/internal/domain/usecase/commission"
	"github.com/vendtrack/vending-core/internal/domain/usecase/gateway"
	ledgerUseCase "github.com/vendtrack/vending-core/internal/domain/usecase/ledger"
	summaryUseCase "github.com/vendtrack/vending-core/internal/domain/usecase/summary"

	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/handler"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/api/routes"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/database"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/logger"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/outbox"
	"github.com/vendtrack/vending-core/internal/infrastructure/adapter/repository"
	timeProvider "github.com/vendtrack/vending-core/internal/infrastructure/adapter/time"
	"github.com/vendtrack/vending-core/internal/infrastructure/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(cfg.IsProduction())
	appLogger.SetLevel(coreport.ParseLogLevel(cfg.Logger.Level))
	tp := timeProvider.NewRealTimeProvider()

	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        cfg.Logger.Level,
		RetryAttempts:   cfg.Database.RetryAttempts,
		RetryDelay:      cfg.Database.RetryDelay,
	}

	dbManager := database.NewManager(dbConfig, appLogger)
	db, err := dbManager.Connect()
	if err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	uow := database.NewUnitOfWork(db, appLogger)
	notifier := outbox.NewLogNotifier(appLogger)

	location, err := time.LoadLocation(cfg.Transaction.Timezone)
	if err != nil {
		appLogger.Warn("Unknown timezone, falling back to UTC", map[string]any{
			"timezone": cfg.Transaction.Timezone,
		})
		location = time.UTC
	}

	ledgerService := ledgerUseCase.NewService(uow, tp, appLogger, notifier, cfg.Transaction.QueueSize)
	collectionService := collectionUseCase.NewService(uow, tp, appLogger, notifier)
	summaryService := summaryUseCase.NewService(uow, tp, appLogger, location)
	commissionService := commissionUseCase.NewService(uow, tp, appLogger, commissionUseCase.Rates{
		CommissionRate: decimal.NewFromFloat(cfg.Commission.Rate),
		VATRate:        decimal.NewFromFloat(cfg.Commission.VATRate),
	})
	gatewayService := gateway.NewService(ledgerService, gateway.Credentials{
		Payme: gateway.PaymeCredentials{
			MerchantID: cfg.Payments.Payme.MerchantID,
			SecretKey:  cfg.Payments.Payme.SecretKey,
		},
		Click: gateway.ClickCredentials{
			ServiceID: cfg.Payments.Click.ServiceID,
			SecretKey: cfg.Payments.Click.SecretKey,
		},
		Uzum: gateway.UzumCredentials{
			SecretKey: cfg.Payments.Uzum.SecretKey,
		},
	}, appLogger)

	// Outbox dispatcher runs against the base connection, outside any
	// request transaction
	outboxRepo := repository.NewOutboxRepository(db, appLogger)
	dispatcher := outbox.NewDispatcher(
		outboxRepo,
		outbox.NewLogAuditSink(appLogger),
		appLogger,
		cfg.Outbox.PollInterval,
		cfg.Outbox.BatchSize,
	)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()
	dispatcher.Start(rootCtx)

	// Periodically fail transactions stuck in processing past the TTL
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		ticker := time.NewTicker(cfg.Transaction.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				expired, err := ledgerService.ExpireStaleProcessing(rootCtx, cfg.Transaction.ProcessingTTL)
				if err != nil {
					appLogger.Error("Stale transaction sweep failed", map[string]any{
						"error": err.Error(),
					})
					continue
				}
				if expired > 0 {
					appLogger.Info("Expired stale processing transactions", map[string]any{
						"count": expired,
					})
				}
			}
		}
	}()

	transactionHandler := handler.NewTransactionHandler(ledgerService, appLogger)
	collectionHandler := handler.NewCollectionHandler(collectionService, appLogger)
	summaryHandler := handler.NewSummaryHandler(summaryService, appLogger)
	commissionHandler := handler.NewCommissionHandler(commissionService, appLogger)
	webhookHandler := handler.NewWebhookHandler(gatewayService, appLogger)

	router := gin.New()
	routes.SetupMiddlewares(router, appLogger, cfg.Server.AllowOrigins)
	routes.SetupRoutes(router,
		transactionHandler, collectionHandler, summaryHandler, commissionHandler, webhookHandler,
		cfg.Auth.JWTSecret, appLogger)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Starting server", map[string]any{
			"addr": server.Addr,
			"env":  cfg.Environment,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Failed to start server", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{"error": err.Error()})
	}

	// Stop background work after the HTTP surface is closed
	cancelRoot()
	<-sweepDone
	ledgerService.Shutdown()
	dispatcher.Shutdown()

	if err := appLogger.Flush(); err != nil {
		log.Printf("Failed to flush logger: %v", err)
	}
	appLogger.Info("Server exited gracefully", nil)
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missing []string

	if cfg.Server.Port == 0 {
		missing = append(missing, "server.port")
	}
	if cfg.Server.ShutdownTimeout == 0 {
		missing = append(missing, "server.shutdownTimeout")
	}
	if cfg.Database.Host == "" {
		missing = append(missing, "database.host (or VND_DB_HOST)")
	}
	if cfg.Database.Username == "" {
		missing = append(missing, "database.username (or VND_DB_USERNAME)")
	}
	if cfg.Database.Database == "" {
		missing = append(missing, "database.database (or VND_DB_NAME)")
	}
	if cfg.Auth.JWTSecret == "" {
		missing = append(missing, "auth.jwtSecret (or VND_AUTH_JWT_SECRET)")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
