package main

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"recordkit/internal/auth"
	"recordkit/internal/config"
	"recordkit/internal/http/docs"
	"recordkit/internal/http/handler"
	"recordkit/internal/http/middleware"
	"recordkit/internal/observability/logger"
	"recordkit/internal/ratelimit"
	"recordkit/internal/repo"
	"recordkit/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterDeps contém as dependências necessárias para construir o router.
type RouterDeps struct {
	Cfg             *config.Config
	Log             *logger.Logger
	Resolver        *auth.KeyResolver
	S2SStore        *auth.S2STokenStore
	IdempotencyRepo *repo.IdempotencyRepo
	RateLimiter     *ratelimit.RedisRateLimiter
	Metrics         *telemetry.Metrics
	Pool            *pgxpool.Pool // Necessário para readiness check e debug handler

	// RecordHandler serves every registered model through the generic
	// /objects/{model} surface (SPEC_FULL.md's Record Object + Pipeline
	// runtime) — one handler for the whole registry, in place of the
	// teacher's one-handler-per-domain-type layout.
	RecordHandler *handler.RecordHandler
	DebugHandler  *handler.DebugHandler
}

// buildRouter constrói o chi.Router com todos os middlewares e rotas.
func buildRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(deps.Log))
	r.Use(middleware.RecoveryMiddleware(deps.Log))
	r.Use(telemetry.OTelMiddleware(deps.Cfg.OTELServiceName))
	if deps.Metrics != nil {
		r.Use(telemetry.MetricsMiddleware(deps.Metrics))
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/openapi.yaml", docs.OpenAPIHandler().ServeHTTP)
	r.Get("/docs", docs.ScalarDocsHandler("/openapi.yaml").ServeHTTP)
	r.Get("/metrics", metricsHandler(deps.Cfg))

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Pool == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ready","note":"pool is nil"}`))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := deps.Pool.Ping(ctx); err != nil {
			deps.Log.Error(ctx, "readiness check failed: database unavailable", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"error","message":"database unavailable"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	// Debug routes (dev-only)
	if deps.Cfg.AppEnv == "dev" || deps.Cfg.AppEnv == "development" {
		r.Route("/debug", func(r chi.Router) {
			if deps.DebugHandler != nil {
				r.With(auth.AuthMiddleware(deps.Resolver, deps.S2SStore)).Get("/auth", deps.DebugHandler.GetAuthDebug)
				r.With(auth.AuthMiddleware(deps.Resolver, deps.S2SStore)).Get("/auth/workspaces/{workspaceId}", deps.DebugHandler.GetAuthDebugWithWorkspace)
				r.Get("/db/ping", deps.DebugHandler.PingDB)
			}
		})
	}

	// Generic object surface. Authentication is optional — an anonymous
	// caller resolves to a null Initiator (SPEC_FULL.md [AUTH-IDENTITY]) and
	// is still subject to rate limiting and idempotency replay, scoped to
	// "anonymous" rather than a workspace.
	if deps.RecordHandler != nil {
		r.Route("/objects/{model}", func(r chi.Router) {
			r.Use(auth.OptionalAuthMiddleware(deps.Resolver, deps.S2SStore))
			r.Use(middleware.RateLimitMiddleware(deps.RateLimiter, deps.Cfg.RateLimitPerInitiatorPerMin))

			r.Get("/", deps.RecordHandler.List)
			r.With(middleware.IdempotencyMiddleware(deps.IdempotencyRepo)).Post("/", deps.RecordHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", deps.RecordHandler.Get)
				r.With(middleware.IdempotencyMiddleware(deps.IdempotencyRepo)).Patch("/", deps.RecordHandler.Update)
				r.Delete("/", deps.RecordHandler.Delete)
			})
		})
	}

	return r
}

// metricsHandler exposes the process's Prometheus registry, gated by
// Cfg.MetricsToken when one is configured. An empty token leaves the
// endpoint open, matching a local/dev deployment with no scrape auth.
func metricsHandler(cfg *config.Config) http.HandlerFunc {
	promHandler := promhttp.Handler()
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.MetricsToken == "" {
			promHandler.ServeHTTP(w, r)
			return
		}
		if !metricsTokenMatches(r, cfg.MetricsToken) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		promHandler.ServeHTTP(w, r)
	}
}

func metricsTokenMatches(r *http.Request, token string) bool {
	tokenBytes := []byte(token)
	if got := r.Header.Get("X-Metrics-Token"); got != "" {
		return subtle.ConstantTimeCompare([]byte(got), tokenBytes) == 1
	}
	if bearer := r.Header.Get("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
		got := strings.TrimPrefix(bearer, "Bearer ")
		return subtle.ConstantTimeCompare([]byte(got), tokenBytes) == 1
	}
	return false
}
