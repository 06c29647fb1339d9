// Package writingdetector предоставляет маршруты для основного приложения.
package writingdetector

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/otcpublishing/writing-detector/internal/docfetch"
	"github.com/otcpublishing/writing-detector/internal/entitlement"
	"github.com/otcpublishing/writing-detector/internal/http/handlers/analyze/googledoc"
	"github.com/otcpublishing/writing-detector/internal/http/handlers/auth/login"
	"github.com/otcpublishing/writing-detector/internal/http/handlers/auth/me"
	"github.com/otcpublishing/writing-detector/internal/http/handlers/auth/signup"
	"github.com/otcpublishing/writing-detector/internal/http/handlers/billing/billingwebhook"
	"github.com/otcpublishing/writing-detector/internal/http/handlers/health"
	"github.com/otcpublishing/writing-detector/internal/http/middlewarectx"
	authservice "github.com/otcpublishing/writing-detector/internal/services/auth"
	billingservice "github.com/otcpublishing/writing-detector/internal/services/billing"
	usageservice "github.com/otcpublishing/writing-detector/internal/services/usage"
)

// Services — сервисы, необходимые для регистрации маршрутов.
type Services struct {
	Auth          *authservice.Service
	Entitlements  *entitlement.Evaluator
	Fetcher       *docfetch.Client
	Usage         *usageservice.Service
	Billing       *billingservice.Service
	WebhookSecret string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, services *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/signup", signup.New(logger, services.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, services.Auth).ServeHTTP)
		r.Get("/health", health.New(logger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(services.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Get("/auth/me", me.New(logger, services.Usage).ServeHTTP)
			r.Post("/analyze/google-doc", googledoc.New(logger,
				services.Entitlements, services.Fetcher, services.Usage).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации)
		r.Post("/billing/webhook", billingwebhook.New(logger,
			services.Billing, services.WebhookSecret).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
