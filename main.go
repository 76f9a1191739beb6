package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/carbon-assistant/server/internal/agent/model"
	"github.com/carbon-assistant/server/internal/agent/pipeline"
	"github.com/carbon-assistant/server/internal/agent/repo"
	"github.com/carbon-assistant/server/internal/core"
	"github.com/carbon-assistant/server/internal/handler"
	"github.com/carbon-assistant/server/internal/metrics"
	"github.com/carbon-assistant/server/internal/report"
	logx "github.com/carbon-assistant/server/pkg/logger"
	pkgredis "github.com/carbon-assistant/server/pkg/redis"
)

// AppConfig defines all configurable parameters of the server, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Addr        string `envconfig:"SERVER_ADDR" default:":8000"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis      pkgredis.Config
	MemoryBank model.MemoryBankConfig

	// Agents
	LLM       model.LLMConfig
	Predictor model.PredictorConfig
	Session   model.SessionConfig
	Report    model.ReportConfig
}

func loadConfig() (AppConfig, error) {
	var cfg AppConfig
	err := envconfig.Process("", &cfg)
	return cfg, err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("Could not load .env file, using process environment")
	}

	cfg, err := loadConfig()
	if err != nil {
		logx.Fatal().Err(err).Msg("Failed to process environment config")
	}
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	if err := run(ctx, cfg); err != nil {
		logx.Fatal().Err(err).Msg("server error")
	}
}

func run(ctx context.Context, cfg AppConfig) error {
	m := metrics.NewMetrics()

	sessions, closeSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions.Close()

	bank, closeBank, err := newMemoryBank(cfg)
	if err != nil {
		return err
	}
	defer closeBank.Close()

	agents, err := pipeline.BuildAgents(ctx, pipeline.AgentsConfig{
		LLM:       cfg.LLM,
		Predictor: cfg.Predictor,
		Metrics:   m,
	})
	if err != nil {
		return err
	}

	assistant, err := pipeline.New(pipeline.Config{
		Sessions:       sessions,
		Bank:           bank,
		Predictor:      agents.Predictor,
		Optimizer:      agents.Optimizer,
		Renderer:       report.NewTextRenderer(),
		Metrics:        m,
		DefaultCompany: cfg.Report.DefaultCompany,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.NewRouter(assistant, m),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	logx.Info().Str("addr", cfg.Addr).Msg("Carbon assistant listening")
	return runServer(ctx, srv)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newSessionStore(ctx context.Context, cfg AppConfig) (model.SessionStore, io.Closer, error) {
	if !cfg.Redis.Enabled() {
		logx.Info().Dur("ttl", cfg.Session.TTL).Msg("Using in-memory session store")
		return repo.NewMemorySessionStore(cfg.Session.TTL), nopCloser{}, nil
	}
	rdb, err := cfg.Redis.New(ctx)
	if err != nil {
		return nil, nil, err
	}
	logx.Info().Dur("ttl", cfg.Session.TTL).Msg("Connected to Redis session store")
	return repo.NewRedisSessionStore(rdb, cfg.Session.TTL), rdb, nil
}

func newMemoryBank(cfg AppConfig) (model.MemoryBank, io.Closer, error) {
	if cfg.MemoryBank.Path == "" {
		logx.Info().Msg("Using in-memory memory bank")
		return repo.NewMemoryBank(), nopCloser{}, nil
	}
	bank, err := repo.NewSQLiteMemoryBank(cfg.MemoryBank.Path)
	if err != nil {
		return nil, nil, err
	}
	logx.Info().Str("path", cfg.MemoryBank.Path).Msg("Opened SQLite memory bank")
	return bank, bank, nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logx.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
