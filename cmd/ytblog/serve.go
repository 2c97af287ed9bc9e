package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kiranshivaraju/ytblog/internal/api"
	"github.com/kiranshivaraju/ytblog/internal/api/handler"
	mw "github.com/kiranshivaraju/ytblog/internal/api/middleware"
	"github.com/kiranshivaraju/ytblog/internal/api/response"
	"github.com/kiranshivaraju/ytblog/internal/blogapi"
	"github.com/kiranshivaraju/ytblog/internal/cache"
	"github.com/kiranshivaraju/ytblog/internal/config"
	"github.com/kiranshivaraju/ytblog/internal/lifecycle"
	"github.com/kiranshivaraju/ytblog/internal/submit"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

type ServeOptions struct {
	GlobalOptions
}

func NewCmdServe() *cobra.Command {
	o := &ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local session API a browser UI renders from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			return run(cmd.Context(), o.cfg)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("config loaded", "api_url", cfg.API.BaseURL, "env", cfg.Server.Env)

	// 1. Optional Redis for rate limiting
	var (
		ca        cache.Cache
		rateLimit *mw.RateLimit
	)
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("create redis cache: %w", err)
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		slog.Info("redis connected", "requests_per_min", cfg.RateLimit.RequestsPerMin)

		ca = redisCache
		rateLimit = mw.NewRateLimit(redisCache, cfg.RateLimit.RequestsPerMin)
	} else {
		slog.Info("REDIS_URL not set, rate limiting disabled")
	}

	// 2. Backend client, poller and controller for the single session
	client := blogapi.NewHTTPClient(cfg.API.BaseURL, cfg.API.Timeout)
	poller := lifecycle.NewPoller(client,
		lifecycle.WithInterval(cfg.Poll.Interval),
		lifecycle.WithJitter(cfg.Poll.Jitter),
	)
	defer poller.Close()
	ctrl := submit.NewController(client, poller)

	// 3. Build router with dependencies
	router := api.NewRouter(api.Dependencies{
		RateLimit: rateLimit,

		HealthHandler:    healthHandler(client, ca),
		GenerateHandler:  handler.NewGenerateHandler(ctrl),
		SessionHandler:   handler.NewSessionHandler(poller),
		ResetHandler:     handler.NewResetHandler(poller),
		SendEmailHandler: handler.NewSendEmailHandler(ctrl),
		DocumentHandler:  handler.NewDocumentHandler(poller),
	})

	// 4. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks backend and cache connectivity. A nil cache is reported
// as disabled, not degraded.
func healthHandler(backend blogapi.Client, c cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"backend": "ok",
			"cache":   "disabled",
		}

		bh, err := backend.Health(r.Context())
		if err != nil {
			slog.Warn("backend health check failed", "error", err)
			checks["backend"] = "degraded"
		}
		if c != nil {
			checks["cache"] = "ok"
			if err := c.Ping(r.Context()); err != nil {
				checks["cache"] = "degraded"
			}
		}

		degraded := checks["backend"] == "degraded" || checks["cache"] == "degraded"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
			"backend":  bh,
		})
	}
}
