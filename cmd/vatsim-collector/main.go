// Command vatsim-collector polls the VATSIM live feeds, records pilots near a
// set of airports and serves the results over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/unklstewy/vatsim-scope/internal/db"
	"github.com/unklstewy/vatsim-scope/internal/logging"
	"github.com/unklstewy/vatsim-scope/internal/metrics"
	"github.com/unklstewy/vatsim-scope/pkg/config"
	"github.com/unklstewy/vatsim-scope/pkg/vatsim"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	noDB := flag.Bool("no-db", false, "Run without storing observations")
	flag.Parse()

	if err := run(*configPath, *noDB); err != nil {
		fmt.Fprintf(os.Stderr, "vatsim-collector: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, noDB bool) error {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer := logging.New(cfg.Logging)
	defer closer.Close()
	logging.LogStartup(logger, "vatsim-collector")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	selector, err := vatsim.NewSelector(cfg.VATSIM.MirrorStrategy)
	if err != nil {
		return err
	}
	client, err := vatsim.NewClient(vatsim.Config{
		StatusURL:  cfg.VATSIM.StatusURL,
		HTTPClient: &http.Client{Timeout: cfg.VATSIM.Timeout()},
		Selector:   selector,
		Logger:     logger,
		UserAgent:  cfg.VATSIM.UserAgent,
	})
	if err != nil {
		return err
	}

	m, err := metrics.New(nil)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	targets, unknown := resolveTargets(cfg.Collector.Airports)
	for _, code := range unknown {
		logger.Warn("unknown airport, skipping", slog.String("airport", code))
	}
	if len(targets) == 0 {
		return errors.New("no known airports configured")
	}

	retry := vatsim.DefaultRetryConfig()
	retry.Logger = logger

	collector := &Collector{
		client:    client,
		metrics:   m,
		logger:    logger,
		targets:   targets,
		radiusNM:  cfg.Collector.RadiusNM,
		retry:     retry,
		interval:  cfg.Collector.Interval(),
		retention: cfg.Collector.Retention(),
	}

	var (
		store  observationStore
		health func(context.Context) error
	)
	if !noDB {
		database, err := db.ReconnectWithRetry(ctx, cfg.Database, 5, 2*time.Second, logger)
		if err != nil {
			return err
		}
		if err := database.InitSchema(ctx); err != nil {
			database.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}

		st := newStorage(database, cfg.Database, logger)
		defer st.Close()
		store = st
		collector.store = st
		collector.maintainer = st
		health = st.Health

		logger.Info("database ready",
			slog.String("driver", cfg.Database.Driver),
			slog.String("host", cfg.Database.Host))
	}

	server := NewServer(collector, store, health, m.Handler(), cfg.Collector.AllowedOrigins, logger)
	httpServer := &http.Server{
		Addr:         cfg.Collector.ListenAddr,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("collector panic", slog.Any("panic", r))
				stop()
			}
		}()
		collector.Run(ctx)
	}()

	logger.Info("collector started",
		slog.Duration("interval", collector.interval),
		slog.Int("airports", len(targets)),
		slog.Int("radius_nm", collector.radiusNM))

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		stop()
		<-done
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", slog.Any("error", err))
	}
	<-done

	logger.Info("collector stopped")
	return nil
}
