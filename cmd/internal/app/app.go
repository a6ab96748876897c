// Package app wires the gatehouse server runtime: config, logging, user loading,
// the session registry and its janitor, and HTTP routes.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gatehouse/cmd/identity"
	authapi "gatehouse/cmd/internal/auth/api"
	"gatehouse/cmd/internal/auth/session"
	"gatehouse/cmd/security/password"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App is the gatehouse server runtime.
type App struct {
	cfg Config
	log Logger

	dbPool *pgxpool.Pool

	metrics  *prometheus.Registry
	sessions *session.Registry
	auth     *authapi.Handler
}

// New constructs a fully wired App: users are loaded once here and the
// credential store is read-only for the lifetime of the process.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	pwCfg, err := password.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("password config: %w", err)
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	authCfg := authapi.LoadConfigFromEnv()

	if err := ValidateSecurityConfig(cfg, pwCfg, authCfg); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, log: log}

	if cfg.DatabaseURL != "" {
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("db: %w", err)
		}
		a.dbPool = pool
		log.Info("db.enabled", "schema", cfg.DBSchema)
	} else {
		log.Info("db.disabled")
	}

	users, err := a.loadUsers(ctx, pwCfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.metrics = prometheus.NewRegistry()
	a.metrics.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := session.NewMetrics(a.metrics)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.sessions, err = session.NewRegistry(sessCfg, users,
		session.WithLogger(log),
		session.WithMetrics(m),
		session.WithPasswordConfig(pwCfg),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.auth, err = authapi.NewHandler(log, a.sessions, authCfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) loadUsers(ctx context.Context, pwCfg password.Config) (*identity.Store, error) {
	var sources []identity.Source
	if a.cfg.UsersFile != "" {
		sources = append(sources, identity.FileSource{Path: a.cfg.UsersFile, Password: &pwCfg})
	}
	if a.dbPool != nil {
		src, err := identity.NewPostgresSource(a.dbPool, identity.WithSchema(a.cfg.DBSchema))
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	if len(sources) == 0 {
		a.log.Warn("users.none", "hint", "set GATEHOUSE_USERS_FILE or GATEHOUSE_DATABASE_URL")
	}

	records, err := identity.LoadAll(ctx, sources...)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	a.log.Info("users.loaded", "count", len(records), "sources", len(sources))
	return identity.NewStore(records...), nil
}

// Sessions exposes the session registry (tests, admin tooling).
func (a *App) Sessions() *session.Registry { return a.sessions }

// Handler returns the full HTTP handler chain.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	a.registerHTTP(mux)
	return WithRequestLogging(WithSecurityHeaders(mux), a.log)
}

// Run starts the janitor and the HTTP server and blocks until context
// cancellation or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		a.sessions.RunJanitor(janitorCtx, 0)
	}()
	defer func() {
		stopJanitor()
		<-janitorDone
	}()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"db_enabled", a.dbPool != nil,
		"users", a.sessions.Users().Len(),
		"session_ttl", a.sessions.Config().TTL.String(),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

// Close releases the DB pool. Safe to call more than once.
func (a *App) Close() {
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
	}
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
