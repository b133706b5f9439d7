// Package main is the entry point for the directory portal server. It loads
// configuration from the environment, opens the audit store, wires the app,
// and serves the portal over HTTP (or HTTPS when certificates are configured).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"dirportal/internal/app"
	"dirportal/internal/config"
	internaldb "dirportal/internal/db"
	"dirportal/internal/graph/graphtest"
	"dirportal/internal/middleware"
	"dirportal/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file (if present)
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	store, err := internaldb.Open(cfg.AuditDBPath, 0)
	if err != nil {
		return fmt.Errorf("open audit store: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate audit store: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// Dev fake directory: serve an in-process identity provider and directory
	// stub so the portal runs without a tenant. The listener must be bound
	// before app.New runs OIDC discovery against it.
	if cfg.DevFakeDirectory {
		stub, err := graphtest.New()
		if err != nil {
			return fmt.Errorf("dev fake directory: %w", err)
		}
		stub.SetBaseURL("http://" + cfg.DevFakeDirectoryAddr)

		ln, err := net.Listen("tcp", cfg.DevFakeDirectoryAddr)
		if err != nil {
			return fmt.Errorf("dev fake directory listen: %w", err)
		}
		stubSrv := &http.Server{Handler: stub.Handler()}
		g.Go(func() error {
			logger.Info("dev fake directory listening", "addr", cfg.DevFakeDirectoryAddr)
			if err := stubSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("dev fake directory: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return stubSrv.Shutdown(shutdownCtx)
		})

		cfg.GraphBaseURL = stub.GraphURL()
		cfg.Auth.IssuerURL = stub.IssuerURL()
		cfg.Auth.TenantID = stub.TenantID()
		if cfg.Auth.ClientID == "" {
			cfg.Auth.ClientID = "dev-portal"
		}
		if cfg.Auth.ClientSecret == "" {
			cfg.Auth.ClientSecret = "dev-portal-secret"
		}
		logger.Warn("dev fake directory enabled — every sign-in resolves to the seeded user", "user", stub.SignInUser().UserPrincipalName)
	}

	portal, err := app.New(ctx, app.Deps{
		Cfg:    cfg,
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("wire app: %w", err)
	}

	if err := portal.Janitor.Start(); err != nil {
		return fmt.Errorf("start janitor: %w", err)
	}
	defer portal.Janitor.Stop()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger.With("component", "http")))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "ok")
	})

	ui.MountRoutes(r, portal.Handler, middleware.RequireSession(portal.Sessions))

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		if cfg.TLSCertFile != "" {
			logger.Info("portal listening", "addr", cfg.ListenAddr, "url", "https://"+curlHostForListenAddr(cfg.ListenAddr))
			if err := srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server: %w", err)
			}
			return nil
		}
		logger.Info("portal listening", "addr", cfg.ListenAddr, "url", "http://"+curlHostForListenAddr(cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// curlHostForListenAddr turns a listen address into a host a local browser or
// curl can reach. Wildcard and empty hosts become localhost; a blank address
// assumes the default port.
func curlHostForListenAddr(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "localhost:8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "localhost"
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return host + ":" + port
}
