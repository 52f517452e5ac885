// Package devaservice boots the companion HTTP service and blocks until
// shutdown.
package devaservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/deva-ai/deva/internal/api"
	"github.com/deva-ai/deva/internal/assembler"
	"github.com/deva-ai/deva/internal/chat"
	"github.com/deva-ai/deva/internal/config"
	"github.com/deva-ai/deva/internal/health"
	"github.com/deva-ai/deva/internal/metrics"
	"github.com/deva-ai/deva/internal/persona"
	"github.com/deva-ai/deva/internal/platform/factory"
	"github.com/deva-ai/deva/internal/platform/logger"
	"github.com/deva-ai/deva/internal/store"
	"github.com/deva-ai/deva/internal/suggest"
	"github.com/deva-ai/deva/internal/tools"
)

// Run starts the service and blocks until shutdown or error.
func Run() error {
	log := logger.New("deva")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("model_provider", cfg.ModelProvider).
		Str("model_id", cfg.ModelID).
		Msg("Deva starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Storage unavailable")
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.EnsureSchema(ctx); err != nil {
		log.Error().Err(err).Msg("Schema creation failed")
		return err
	}

	mdl, err := factory.NewModel(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Model adapter unavailable")
		return err
	}

	profile := persona.Profile{Name: cfg.ProfileName, DOB: cfg.ProfileDOB, Gender: cfg.ProfileGender}
	suggester := suggest.New(mdl, log, time.Duration(cfg.ModelTimeoutSeconds)*time.Second)
	registry := tools.NewRegistry(
		tools.NewSaveMemory(st.Memories(), suggester),
		tools.NewSetReminder(st.Reminders()),
	)
	mets := metrics.New()
	orch := chat.New(chat.Options{
		Store:         st,
		Model:         mdl,
		Assembler:     assembler.New(st, profile, cfg.MemoryRecallLimit, cfg.HistoryLimit),
		Registry:      registry,
		Suggester:     suggester,
		Metrics:       mets,
		Logger:        log,
		ModelTimeout:  time.Duration(cfg.ModelTimeoutSeconds) * time.Second,
		MaxToolRounds: cfg.MaxToolRounds,
	})

	storeChecker := health.NewChecker("store", st, log, 5*time.Second)
	go storeChecker.Start(ctx, 30*time.Second)

	router := api.NewRouter(api.RouterDeps{
		Store:        st,
		Orchestrator: orch,
		Metrics:      mets,
		Logger:       log,
		Healthy:      storeChecker.IsHealthy,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute, // model calls can be slow
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}

// openStore builds the store and pings it with backoff so the service
// survives a database that is still coming up.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	st, err := factory.NewStore(cfg)
	if err != nil {
		return nil, err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(func() error { return st.Ping(ctx) }, policy); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("storage ping: %w", err)
	}
	return st, nil
}
