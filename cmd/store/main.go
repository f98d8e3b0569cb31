package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nikolayk812/store-checkout/internal/config"
	"github.com/nikolayk812/store-checkout/internal/migrate"
	"github.com/nikolayk812/store-checkout/internal/obs"
	"github.com/nikolayk812/store-checkout/internal/repository"
	"github.com/nikolayk812/store-checkout/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("currency", cfg.Currency.String()).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics, err := obs.NewStoreMetrics(cfg.MetricsNamespace, registry)
	if err != nil {
		logger.Fatal().Err(err).Msg("register metrics")
	}

	opts := []store.Option{store.WithLogger(logger), store.WithMetrics(metrics)}

	if cfg.JournalURL != "" {
		pool, err := pgxpool.New(ctx, cfg.JournalURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect receipt journal")
		}
		defer pool.Close()

		if err := migrate.Apply(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("apply journal migrations")
		}
		opts = append(opts, store.WithJournal(repository.NewReceipt(pool)))
	}

	s, err := store.FromConfig(cfg, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("build store")
	}
	logger.Info().
		Int("near_expiry_days", cfg.NearExpiryDays).
		Str("near_expiry_discount", cfg.NearExpiryDiscount.String()).
		Bool("journal", cfg.JournalURL != "").
		Str("today", s.Today().String()).
		Msg("store ready")

	if cfg.MetricsAddr == "" {
		<-ctx.Done()
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown metrics server")
		}
	}()

	logger.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server")
	}
}
