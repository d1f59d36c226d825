// Package main runs the blog membership service: the program on an in-memory
// ledger, the HTTP API, the notification stream and the read-model stores.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"solana-blog-pass/internal/api"
	"solana-blog-pass/internal/config"
	"solana-blog-pass/internal/events"
	"solana-blog-pass/internal/ledger"
	"solana-blog-pass/internal/program"
	"solana-blog-pass/internal/solana"
	"solana-blog-pass/internal/storage"
	chstore "solana-blog-pass/internal/storage/clickhouse"
	"solana-blog-pass/internal/storage/memory"
	"solana-blog-pass/internal/storage/migrations"
	pgstore "solana-blog-pass/internal/storage/postgres"
)

// allStores holds the read model and every notification sink.
type allStores struct {
	states storage.StateStore
	events storage.EventStore  // primary log, served by the API
	sinks  []*events.StoreSink // every log, primary first
}

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	envFile := flag.String("env-file", ".env", "Optional .env file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load config")
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *useMemory {
		cfg.Storage.UseMemory = true
	}

	logger := cfg.NewLogger()
	log := logger.WithField("component", "server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, cfg.Storage, logger)
	if err != nil {
		log.WithError(err).Fatal("Failed to create stores")
	}
	defer cleanup()

	programID := cfg.ParsedProgramID()
	ledgerOpts, err := ledgerOptions(ctx, cfg.Solana, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to calibrate rent")
	}
	chain := ledger.New(programID, ledgerOpts...)

	hub := events.NewHub(logger, events.WithAllowedOrigins(cfg.HTTP.AllowedOrigins...))
	for _, o := range cfg.HTTP.AllowedOrigins {
		if o == "*" {
			log.Warn("Event stream accepts any origin; use only for local development")
		}
	}
	fanout := events.Fanout{hub}
	for _, sink := range stores.sinks {
		fanout = append(fanout, sink)
	}

	prog := program.New(programID, chain,
		program.WithPublisher(fanout),
		program.WithStateStore(stores.states),
		program.WithLogger(logger),
	)

	srv := api.NewServer(api.Options{
		Program:           prog,
		Chain:             chain,
		Events:            stores.events,
		Hub:               hub,
		Logger:            logger,
		FaucetEnabled:     cfg.Faucet.Enabled,
		FaucetMaxLamports: cfg.Faucet.MaxLamports,
		MintPerSecond:     cfg.RateLimit.MintPerSecond,
		MintBurst:         cfg.RateLimit.MintBurst,
		SignatureWindow:   cfg.HTTP.SignatureWindow,
	})
	httpServer := srv.NewHTTPServer(cfg.HTTP.Addr, cfg.HTTP.ReadTimeout)

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":       cfg.HTTP.Addr,
			"program_id": programID.String(),
			"memory":     cfg.Storage.UseMemory,
		}).Info("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("Received signal, initiating graceful shutdown")
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Error("HTTP server error")
		}
	}

	// Second signal forces exit.
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Warn("Received second signal, forcing immediate shutdown")
		os.Exit(1)
	}()

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}

	log.Info("Shutdown complete")
}

// ledgerOptions calibrates rent from a cluster when configured.
func ledgerOptions(ctx context.Context, cfg config.SolanaConfig, log logrus.FieldLogger) ([]ledger.Option, error) {
	if !cfg.CalibrateRent {
		return nil, nil
	}
	rpc := solana.NewHTTPClient(cfg.RPCEndpoint, solana.WithTimeout(10*time.Second))

	calCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rent, err := ledger.RentFromCluster(calCtx, rpc)
	if err != nil {
		return nil, err
	}
	slot, err := rpc.GetSlot(calCtx)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"endpoint":          cfg.RPCEndpoint,
		"cluster_slot":      slot,
		"lamports_per_byte": rent.LamportsPerByte,
		"overhead":          rent.Overhead,
	}).Info("Calibrated rent from cluster")
	return []ledger.Option{ledger.WithRent(rent)}, nil
}

// createStores creates the read model and the notification logs.
func createStores(ctx context.Context, cfg config.StorageConfig, logger *logrus.Logger) (*allStores, func(), error) {
	if cfg.UseMemory {
		evs := memory.NewEventStore()
		stores := &allStores{
			states: memory.NewStateStore(),
			events: evs,
			sinks:  []*events.StoreSink{events.NewStoreSink("memory", evs)},
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate postgres: %w", err)
	}
	logger.WithField("applied", applied).Info("postgres schema up to date")

	pgEvents := pgstore.NewEventStore(pool)
	stores := &allStores{
		states: pgstore.NewStateStore(pool),
		events: pgEvents,
		sinks:  []*events.StoreSink{events.NewStoreSink("postgres", pgEvents)},
	}
	cleanup := func() { pool.Close() }

	// ClickHouse (optional analytics copy)
	if cfg.ClickHouseDSN != "" {
		chConn, chApplied, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
		}
		logger.WithField("applied", chApplied).Info("clickhouse schema up to date")
		stores.sinks = append(stores.sinks, events.NewStoreSink("clickhouse", chstore.NewEventStore(chConn)))
		cleanup = func() {
			if err := chConn.Close(); err != nil {
				logger.WithError(err).Warn("close clickhouse")
			}
			pool.Close()
		}
	}

	return stores, cleanup, nil
}
