// Package writingdetector собирает все зависимости сервиса и управляет
// жизненным циклом HTTP-сервера.
package writingdetector

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/otcpublishing/writing-detector/internal/cache"
	"github.com/otcpublishing/writing-detector/internal/config"
	"github.com/otcpublishing/writing-detector/internal/docfetch"
	"github.com/otcpublishing/writing-detector/internal/entitlement"
	"github.com/otcpublishing/writing-detector/internal/lib/jwt"
	libsmtp "github.com/otcpublishing/writing-detector/internal/lib/smtp"
	"github.com/otcpublishing/writing-detector/internal/migrations"
	authservice "github.com/otcpublishing/writing-detector/internal/services/auth"
	billingservice "github.com/otcpublishing/writing-detector/internal/services/billing"
	"github.com/otcpublishing/writing-detector/internal/services/notifier"
	usageservice "github.com/otcpublishing/writing-detector/internal/services/usage"
	"github.com/otcpublishing/writing-detector/internal/storage/repository"
)

// App — собранное приложение с запущенными зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New создает приложение: подключает базу, применяет миграции, поднимает
// кэш и собирает все сервисы с их маршрутами.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	transport := libsmtp.NewTransport(cfg.SMTPConnection, logger)
	notifierService := notifier.New(transport, cfg.FromName, logger)

	authService := authservice.New(db, cacheRedis, jwtMaker, notifierService, authservice.Policy{
		TrialDays:         cfg.TrialDays,
		MinPasswordLength: cfg.MinPasswordLength,
		UserCacheTTL:      cfg.UserCacheTTL,
	}, logger)

	entitlements := entitlement.New(db, cacheRedis, logger)
	fetcher := docfetch.NewClient(cfg.ExportBaseURL, cfg.FetchTimeout)
	usageService := usageservice.New(db, logger)
	billingService := billingservice.New(db, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:          authService,
		Entitlements:  entitlements,
		Fetcher:       fetcher,
		Usage:         usageService,
		Billing:       billingService,
		WebhookSecret: cfg.BillingWebhookSecret,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены контекста или ошибки.
// При отмене контекста сервер останавливается gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		return err
	}
}
