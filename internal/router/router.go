// internal/router/router.go
package router

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the handlers mounted by SetupRoutes. Webhook and SetWebhook may
// be nil when the bot runs in long polling mode. Both webhook routes only
// answer when the last path segment equals WebhookSecret.
type Deps struct {
	DB            Pinger
	Webhook       http.Handler
	SetWebhook    func() (string, error)
	WebhookSecret string
}

func SetupRoutes(deps Deps, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Bot is running!"))
	})

	r.Get("/healthz", healthHandler(deps.DB))
	r.Handle("/metrics", promhttp.Handler())

	if deps.Webhook != nil {
		r.With(requireSecret(deps.WebhookSecret, logger)).
			Post("/telegram-webhook/{secret}", deps.Webhook.ServeHTTP)
	}

	if deps.SetWebhook != nil {
		r.With(requireSecret(deps.WebhookSecret, logger)).
			Get("/set_webhook/{secret}", func(w http.ResponseWriter, r *http.Request) {
				link, err := deps.SetWebhook()
				if err != nil {
					logger.Error("set webhook failed", zap.Error(err))
					http.Error(w, "failed to set webhook", http.StatusBadGateway)
					return
				}
				w.WriteHeader(http.StatusOK)
				_, _ = fmt.Fprintf(w, "Webhook set to %s", link)
			})
	}

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbStatus := "up"
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				dbStatus = "down"
			}
		}

		status := http.StatusOK
		if dbStatus != "up" {
			status = http.StatusServiceUnavailable
		}
		render.Status(r, status)
		render.JSON(w, r, map[string]string{
			"status":   http.StatusText(status),
			"database": dbStatus,
		})
	}
}

// requireSecret rejects requests whose {secret} path segment does not match.
// An empty secret rejects everything.
func requireSecret(secret string, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := chi.URLParam(r, "secret")
			if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				logger.Warn("webhook secret mismatch",
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// LoggerMiddleware logs HTTP requests
func LoggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", loggedPath(r)),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// loggedPath prefers the matched route pattern so path secrets stay out of
// the access log.
func loggedPath(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}
