package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/okian/deathboard/internal/adapters/display"
	"github.com/okian/deathboard/internal/adapters/http/api"
	"github.com/okian/deathboard/internal/adapters/statsdir"
	"github.com/okian/deathboard/internal/adapters/usercache"
	app "github.com/okian/deathboard/internal/app"
	"github.com/okian/deathboard/internal/config"
	"github.com/okian/deathboard/internal/domain/ranking"
	"github.com/okian/deathboard/internal/domain/slots"
	"github.com/okian/deathboard/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 2 * time.Minute
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// cmdServe runs the scheduler and the HTTP API until SIGINT/SIGTERM.
func cmdServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to YAML config file (overrides DEATHBOARD_CONFIG)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if err := logger.Init(); err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to initialize logging: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, *configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return 1
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "failed to start service: %v\n", err)
		return 1
	}
	defer svc.Stop()

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	code := 0
	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error(ctx, "HTTP server failed", logger.Error(err))
		code = 1
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return code
}

// loadConfig loads .env, then the layered configuration. A flag path wins
// over DEATHBOARD_CONFIG.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	if path != "" {
		if err := os.Setenv(config.EnvPrefix+"CONFIG", path); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newService wires adapters selected by cfg into a Service.
func newService(cfg *config.Config, log logger.Logger) *app.Service {
	backend, flusher := newBackend(cfg)

	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithTopN(cfg.TopN),
		app.WithFallbackName(cfg.FallbackName),
		app.WithUnits(cfg.Units),
		app.WithTitle(cfg.Title),
		app.WithTagPrefix(cfg.TagPrefix),
		app.WithInterval(cfg.Interval),
		app.WithManualWaitTimeout(cfg.ManualWaitTimeout),
		app.WithReadConcurrency(cfg.ReadConcurrency),
	}
	if cfg.FlushBeforeRead && flusher != nil {
		opts = append(opts, app.WithFlusher(flusher))
	}

	return app.New(
		statsdir.New(cfg.StatsPath(), statsdir.WithConcurrency(cfg.ReadConcurrency)),
		usercache.New(cfg.UsercacheFile()),
		backend,
		opts...,
	)
}

// rconBackend closes its client together with the backend.
type rconBackend struct {
	*display.RCON
	client *display.Client
}

func (b rconBackend) Close() error { return b.client.Close() }

// newBackend returns the slot backend for cfg and, when the backend can ask
// the server to save, its flusher.
func newBackend(cfg *config.Config) (slots.Backend, ranking.Flusher) {
	if cfg.Backend == config.BackendMemory {
		return display.NewMemory(), nil
	}
	client := display.NewClient(cfg.RCONAddr, cfg.RCONPassword, display.WithTimeout(cfg.RCONTimeout))
	b := rconBackend{RCON: display.NewRCON(client), client: client}
	return b, b
}
