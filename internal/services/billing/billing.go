// Package billing применяет события платёжного провайдера к статусу подписки
// пользователя. Сервис только наблюдает за событиями: инициирование платежей
// и управление тарифами остаются на стороне провайдера.
package billing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otcpublishing/writing-detector/internal/entitlement"
	"github.com/otcpublishing/writing-detector/internal/models"
)

// Типы событий, влияющие на статус подписки.
const (
	EventSubscriptionActivated = "subscription.activated"
	EventSubscriptionUpgraded  = "subscription.upgraded"
	EventSubscriptionCanceled  = "subscription.canceled"
	EventSubscriptionExpired   = "subscription.expired"
	EventPaymentFailed         = "payment.failed"
)

// Event — нормализованное событие платёжного провайдера.
type Event struct {
	Type    string // Тип события
	UserUID string // Идентификатор пользователя
	Email   string // Email пользователя, для инвалидации кэша
	Plan    string // Тариф: "active", "pro" или "business"
}

// Repository описывает контракт обновления статуса пользователя.
type Repository interface {
	SetUserStatus(ctx context.Context, userUID string, status models.SubscriptionStatus) error
}

// CacheInvalidator удаляет запись пользователя из кэша.
type CacheInvalidator interface {
	Invalidate(key string) error
}

// Service применяет события провайдера к записям пользователей.
type Service struct {
	users Repository
	cache CacheInvalidator
	log   *slog.Logger
}

// New создает новый экземпляр Service. cache может быть nil.
func New(users Repository, cache CacheInvalidator, log *slog.Logger) *Service {
	return &Service{users: users, cache: cache, log: log}
}

// ErrUnknownEvent возвращается для событий, не влияющих на статус подписки.
var ErrUnknownEvent = fmt.Errorf("unknown billing event")

// ProcessEvent переводит пользователя в статус, соответствующий событию,
// и инвалидирует кэшированную запись пользователя.
func (s *Service) ProcessEvent(ctx context.Context, event Event) error {
	const op = "billing.ProcessEvent"

	status, err := statusForEvent(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.users.SetUserStatus(ctx, event.UserUID, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil && event.Email != "" {
		if err := s.cache.Invalidate(entitlement.UserCacheKey(event.Email)); err != nil {
			s.log.Error("failed to invalidate user cache",
				slog.String("op", op), slog.String("email", event.Email))
		}
	}

	s.log.Info("subscription status updated",
		slog.String("op", op),
		slog.String("user_uid", event.UserUID),
		slog.String("event", event.Type),
		slog.String("status", string(status)))
	return nil
}

func statusForEvent(event Event) (models.SubscriptionStatus, error) {
	switch event.Type {
	case EventSubscriptionActivated, EventSubscriptionUpgraded:
		return planStatus(event.Plan), nil
	case EventPaymentFailed:
		return models.StatusPastDue, nil
	case EventSubscriptionCanceled:
		return models.StatusCanceled, nil
	case EventSubscriptionExpired:
		return models.StatusExpired, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownEvent, event.Type)
}

func planStatus(plan string) models.SubscriptionStatus {
	switch plan {
	case "pro":
		return models.StatusPro
	case "business":
		return models.StatusBusiness
	default:
		return models.StatusActive
	}
}
