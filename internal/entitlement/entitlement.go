// Package entitlement вычисляет право пользователя на выполнение платных действий
// исходя из статуса подписки и окна пробного периода.
//
// Единственный переход состояния, которым владеет этот пакет — trial -> expired.
// Он выполняется лениво: при первой проверке доступа после истечения пробного
// периода решение "отказано" возвращается сразу, а новый статус записывается
// в хранилище, чтобы последующие проверки читали его напрямую. Запись
// идемпотентна, два конкурентных вычисления безопасны: оба вернут отказ,
// а записываемое значение — константа.
package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/otcpublishing/writing-detector/internal/lib/sl"
	"github.com/otcpublishing/writing-detector/internal/models"
)

// DenyReason уточняет причину отказа в доступе.
type DenyReason string

// Причины отказа. Пустое значение означает, что доступ разрешён.
const (
	ReasonNone                DenyReason = ""
	ReasonTrialExpired        DenyReason = "trial_expired"
	ReasonSubscriptionExpired DenyReason = "subscription_expired"
)

// Message возвращает текст для пользователя, различающий истёкший пробный
// период и истёкшую подписку.
func (r DenyReason) Message() string {
	switch r {
	case ReasonTrialExpired:
		return "Your 3-day trial has expired. Please upgrade to continue using the service."
	case ReasonSubscriptionExpired:
		return "Your subscription has expired. Please renew to continue using the service."
	}
	return ""
}

// Decision — результат вычисления права доступа.
// NewStatus отличен от пустого только когда вычисление требует
// записи нового статуса в хранилище.
type Decision struct {
	Allowed   bool
	Reason    DenyReason
	NewStatus models.SubscriptionStatus
}

// Decide — чистая функция решения. Не обращается к хранилищу и не имеет
// побочных эффектов; запись нового статуса выполняет Evaluator.
func Decide(u *models.User, now time.Time) Decision {
	switch u.SubscriptionStatus {
	case models.StatusActive, models.StatusPro, models.StatusBusiness:
		// Границы оплаченного периода проверяет billing-webhook,
		// здесь статус принимается как есть.
		return Decision{Allowed: true}
	case models.StatusExpired, models.StatusPastDue, models.StatusCanceled:
		return Decision{Reason: ReasonSubscriptionExpired}
	case models.StatusTrial:
		if !now.After(u.TrialExpires) {
			return Decision{Allowed: true}
		}
		return Decision{
			Reason:    ReasonTrialExpired,
			NewStatus: models.StatusExpired,
		}
	}
	return Decision{Reason: ReasonSubscriptionExpired}
}

// StatusStore описывает контракт записи статуса подписки.
type StatusStore interface {
	// UpdateUserStatus переводит пользователя из статуса from в статус to.
	// Запись условная, повторное применение безвредно.
	UpdateUserStatus(ctx context.Context, userUID string, from, to models.SubscriptionStatus) error
}

// CacheInvalidator сбрасывает закэшированное представление пользователя.
type CacheInvalidator interface {
	Invalidate(key string) error
}

// Evaluator применяет Decide и выполняет отложенную запись перехода
// trial -> expired.
type Evaluator struct {
	store StatusStore
	cache CacheInvalidator
	log   *slog.Logger
	now   func() time.Time
}

// New создаёт Evaluator. cache может быть nil, если кэширование не используется.
func New(store StatusStore, cache CacheInvalidator, log *slog.Logger) *Evaluator {
	return &Evaluator{
		store: store,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

// Check вычисляет право доступа и, если решение требует перехода статуса,
// записывает его в хранилище и сбрасывает кэш. Ошибка записи не меняет
// решения: отказ корректен независимо от исхода записи, поэтому она
// логируется и возвращается вызывающему только для наблюдаемости.
func (e *Evaluator) Check(ctx context.Context, u *models.User) (Decision, error) {
	const op = "entitlement.Check"

	d := Decide(u, e.now())
	if d.NewStatus == "" || d.NewStatus == u.SubscriptionStatus {
		return d, nil
	}

	if err := e.store.UpdateUserStatus(ctx, u.UUID, u.SubscriptionStatus, d.NewStatus); err != nil {
		e.log.Error("failed to persist status transition",
			slog.String("op", op),
			slog.String("user_uid", u.UUID),
			slog.String("new_status", string(d.NewStatus)),
			sl.Err(err))
		return d, fmt.Errorf("%s: %w", op, err)
	}
	u.SubscriptionStatus = d.NewStatus

	if e.cache != nil {
		if err := e.cache.Invalidate(UserCacheKey(u.Email)); err != nil {
			e.log.Error("failed to invalidate user cache",
				slog.String("op", op), sl.Err(err))
		}
	}

	e.log.Info("trial expired, status persisted",
		slog.String("op", op),
		slog.String("user_uid", u.UUID))
	return d, nil
}

// UserCacheKey возвращает ключ кэша для пользователя с данным email.
func UserCacheKey(email string) string {
	return "user:" + email
}
