package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/ff-token-ledger/internal/adapter"
	"github.com/feral-file/ff-token-ledger/internal/config"
	"github.com/feral-file/ff-token-ledger/internal/health"
	"github.com/feral-file/ff-token-ledger/internal/ledger"
	"github.com/feral-file/ff-token-ledger/internal/logger"
	"github.com/feral-file/ff-token-ledger/internal/providers/jetstream"
	"github.com/feral-file/ff-token-ledger/internal/relay"
	"github.com/feral-file/ff-token-ledger/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadLedgerRelayConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Service:         "ledger-relay",
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting Ledger Relay")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	if err := store.Migrate(ctx, db); err != nil {
		logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
	}

	dataStore := store.NewPGStore(db)
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()
	jcsAdapter := adapter.NewJCS()

	// Open every configured ledger so new tenants are bootstrapped before the relay starts
	for _, lc := range cfg.Ledgers {
		owner, err := lc.OwnerAddress()
		if err != nil {
			logger.FatalCtx(ctx, "Invalid ledger owner", zap.Error(err), zap.String("ledger_id", lc.ID))
		}

		l, err := ledger.Open(ctx, ledger.Config{
			LedgerID: lc.ID,
			Name:     lc.Name,
			Symbol:   lc.Symbol,
			BaseURI:  lc.BaseURI,
			Owner:    owner,
		}, dataStore, clock, jsonAdapter, jcsAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to open ledger", zap.Error(err), zap.String("ledger_id", lc.ID))
		}

		logger.InfoCtx(ctx, "Ledger ready", zap.String("ledger_id", l.ID()), zap.String("owner", l.Owner().Hex()))
	}

	// Connect to NATS JetStream
	publisher, err := jetstream.NewPublisher(ctx, jetstream.Config{
		URL:             cfg.NATS.URL,
		StreamName:      cfg.NATS.StreamName,
		MaxReconnects:   cfg.NATS.MaxReconnects,
		ReconnectWait:   cfg.NATS.ReconnectWait,
		ConnectionName:  cfg.NATS.ConnectionName,
		DuplicateWindow: cfg.NATS.DuplicateWindow,
	}, adapter.NewNatsJetStream(), jsonAdapter)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err), zap.String("url", cfg.NATS.URL))
	}
	defer publisher.Close()

	outboxRelay := relay.NewRelay(relay.Config{
		BatchSize:       cfg.Relay.BatchSize,
		PollInterval:    cfg.Relay.PollInterval,
		MaxConcurrency:  cfg.Relay.MaxConcurrency,
		InitialInterval: cfg.Relay.InitialInterval,
		MaxInterval:     cfg.Relay.MaxInterval,
		MaxElapsedTime:  cfg.Relay.MaxElapsedTime,
	}, dataStore, publisher, clock)

	logger.InfoCtx(ctx, "Initialized outbox relay",
		zap.Int("batch_size", cfg.Relay.BatchSize),
		zap.Int("max_concurrency", cfg.Relay.MaxConcurrency),
		zap.Duration("poll_interval", cfg.Relay.PollInterval),
	)

	errChan := make(chan error, 2)
	go func() {
		if err := outboxRelay.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	var healthServer *health.Server
	if cfg.Health.Enabled {
		sqlDB, err := db.DB()
		if err != nil {
			logger.FatalCtx(ctx, "Failed to get underlying sql.DB", zap.Error(err))
		}

		healthServer = health.New(health.Config{
			Debug:        cfg.Debug,
			Host:         cfg.Health.Host,
			Port:         cfg.Health.Port,
			ReadTimeout:  cfg.Health.ReadTimeout,
			WriteTimeout: cfg.Health.WriteTimeout,
			CheckTimeout: cfg.Health.CheckTimeout,
		}, "ledger-relay", map[string]health.Check{
			"database": sqlDB.PingContext,
			"publisher": func(context.Context) error {
				select {
				case <-publisher.CloseChan():
					return errors.New("publisher closed")
				default:
					return nil
				}
			},
		})
		go func() {
			if err := healthServer.Start(); err != nil {
				errChan <- err
			}
		}()
	}

	// Wait for interrupt signal or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.ErrorCtx(ctx, err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := outboxRelay.Stop(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err)
	}
	if healthServer != nil {
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.ErrorCtx(shutdownCtx, err)
		}
	}

	logger.InfoCtx(shutdownCtx, "Ledger Relay stopped")
}
