// Package models содержит доменную модель пользователя сервиса,
// включающую данные учётной записи, хэш пароля, окно пробного периода
// и статус подписки. Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import "time"

// SubscriptionStatus перечисляет допустимые состояния подписки пользователя.
//
// Переход trial -> expired выполняется самим сервисом при первой проверке
// доступа после истечения пробного периода. Остальные переходы приходят
// извне через billing-webhook и здесь только наблюдаются.
type SubscriptionStatus string

// Допустимые значения статуса подписки.
const (
	StatusTrial    SubscriptionStatus = "trial"
	StatusActive   SubscriptionStatus = "active"
	StatusPro      SubscriptionStatus = "pro"
	StatusBusiness SubscriptionStatus = "business"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusExpired  SubscriptionStatus = "expired"
)

// Valid сообщает, является ли значение одним из определённых статусов.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusPro, StatusBusiness,
		StatusPastDue, StatusCanceled, StatusExpired:
		return true
	}
	return false
}

// User представляет зарегистрированного пользователя сервиса.
type User struct {
	UUID               string             // Уникальный идентификатор пользователя
	Email              string             // Электронная почта (уникальная, в нижнем регистре)
	PasswordHash       string             // Хэш пароля пользователя
	TrialStart         time.Time          // Дата начала пробного периода
	TrialExpires       time.Time          // Дата истечения пробного периода
	SubscriptionStatus SubscriptionStatus // Текущий статус подписки
	CreatedAt          time.Time          // Дата создания учётной записи
}

// PublicUser — представление пользователя для ответов API, без хэша пароля.
type PublicUser struct {
	UUID               string    `json:"id"`
	Email              string    `json:"email"`
	TrialStart         time.Time `json:"trial_start"`
	TrialExpires       time.Time `json:"trial_expires"`
	SubscriptionStatus string    `json:"subscription_status"`
	CreatedAt          time.Time `json:"created_at"`
}

// Public возвращает представление пользователя без чувствительных полей.
func (u *User) Public() PublicUser {
	return PublicUser{
		UUID:               u.UUID,
		Email:              u.Email,
		TrialStart:         u.TrialStart,
		TrialExpires:       u.TrialExpires,
		SubscriptionStatus: string(u.SubscriptionStatus),
		CreatedAt:          u.CreatedAt,
	}
}
