package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kjannette/pi-tracker/internal/api"
	"github.com/kjannette/pi-tracker/internal/chart"
	"github.com/kjannette/pi-tracker/internal/config"
	"github.com/kjannette/pi-tracker/internal/dashboard"
	"github.com/kjannette/pi-tracker/internal/db"
	"github.com/kjannette/pi-tracker/internal/external"
	"github.com/kjannette/pi-tracker/internal/feed"
	"github.com/kjannette/pi-tracker/internal/httputil"
	"github.com/kjannette/pi-tracker/internal/logging"
	"github.com/kjannette/pi-tracker/internal/notifications"
	"github.com/kjannette/pi-tracker/internal/repository"
	"github.com/kjannette/pi-tracker/internal/setup"
	"github.com/kjannette/pi-tracker/internal/tracker"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const banner = `
╔══════════════════════════════════════╗
║      Pi Earnings Tracker v0.1        ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	configPath := flag.String("config", "", "YAML config file applied over the environment")
	runSetup := flag.Bool("setup", false, "run the interactive setup wizard first")
	flag.Parse()

	fmt.Print(banner)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if *runSetup {
		if _, err := setup.RunTUI(cfg, *configPath); err != nil {
			fmt.Fprintf(os.Stderr, "setup: %v\n", err)
			os.Exit(1)
		}
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("exiting", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	history, closeHistory, err := openHistory(cfg, logger)
	if err != nil {
		return err
	}
	defer closeHistory()

	retry := httputil.RetryConfig{
		MaxAttempts: cfg.FetchMaxAttempts,
		BaseDelay:   time.Second,
		MaxDelay:    5 * time.Second,
		Logger:      logger.Named("http"),
	}
	prices := external.NewCoinGeckoClient(external.Options{
		BaseURL: cfg.CoinGeckoBaseURL,
		Timeout: cfg.FetchTimeout(),
		Retry:   retry,
		PiID:    cfg.PiCoinID,
	})
	wallet := external.NewWalletClient(external.Options{
		BaseURL: cfg.PiWalletBaseURL,
		Timeout: cfg.FetchTimeout(),
		Retry:   retry,
	})

	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName, logger.Named("notify"))
	if !notify.Enabled() {
		logger.Info("no webhook configured, alerts go to the log only")
	}
	fetcher := feed.NewFetcher(prices, wallet, notify, logger.Named("feed"))

	svc := tracker.NewService(fetcher, history, notify, tracker.Options{
		PiCoinID:         cfg.PiCoinID,
		LocalCurrency:    cfg.LocalCurrency,
		LocalSymbol:      cfg.LocalSymbol,
		HourlyRate:       cfg.HourlyRate,
		CustomCurrency:   cfg.CustomCurrency,
		CustomSymbol:     cfg.CustomSymbol,
		EarningsInterval: cfg.EarningsInterval,
		RatesInterval:    cfg.RatesInterval,
		LockedInterval:   cfg.LockedInterval,
		Chart: chart.Options{
			Width:     cfg.ChartWidth,
			Height:    cfg.ChartHeight,
			SMAPeriod: cfg.SMAPeriod,
		},
	}, logger)

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := svc.Start(ctx); err != nil {
		return errors.Wrap(err, "start tracker")
	}
	notify.Send(fmt.Sprintf("Pi Earnings Tracker started (%s, %s Pi/h)", cfg.LocalCurrency, cfg.HourlyRate))

	srv := api.NewServer(svc, cfg.APIPort, cfg.APIKey, cfg.CORSAllowOrigin, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "api server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully")
		svc.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("api shutdown error", zap.Error(err))
		}
		logger.Info("api server closed")
		return nil
	})
	if cfg.DashboardEnabled {
		dash := dashboard.New(svc, os.Stdout, cfg.EarningsInterval, logger)
		g.Go(func() error { return dash.Run(gctx) })
	}

	logger.Info("all services started")
	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

// openHistory builds the configured history store and a func that releases it.
func openHistory(cfg *config.Config, logger *zap.Logger) (repository.HistoryStore, func(), error) {
	switch cfg.HistoryBackend {
	case config.BackendWAL:
		store, err := repository.NewWALStore(cfg.HistoryWALDir, logger.Named("wal"))
		if err != nil {
			return nil, nil, errors.Wrap(err, "open history wal")
		}
		return store, func() { closeStore(store, logger) }, nil

	case config.BackendPostgres:
		logger.Info("connecting to database",
			zap.String("host", cfg.DBHost), zap.Int("port", cfg.DBPort), zap.String("db", cfg.DBName))
		pool, err := db.Connect(cfg.DSN())
		if err != nil {
			return nil, nil, errors.Wrap(err, "db connect")
		}
		if err := db.TestConnection(pool, logger.Named("db")); err != nil {
			pool.Close()
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		store := repository.NewPostgresStore(pool)
		latest, err := store.Latest(ctx)
		if err != nil {
			pool.Close()
			return nil, nil, errors.Wrap(err, "read latest price sample")
		}
		if latest != nil {
			logger.Info("resuming price history",
				zap.Time("last_sample", latest.Time), zap.Float64("last_price", latest.Price))
		}
		return store, func() { closePool(pool, logger) }, nil

	default:
		store := repository.NewJSONFileStore(cfg.HistoryFile, logger.Named("history"))
		return store, func() { closeStore(store, logger) }, nil
	}
}

func closeStore(store repository.HistoryStore, logger *zap.Logger) {
	if err := store.Close(); err != nil {
		logger.Error("history close error", zap.Error(err))
	}
}

func closePool(pool *pgxpool.Pool, logger *zap.Logger) {
	pool.Close()
	logger.Info("database connection pool closed")
}
