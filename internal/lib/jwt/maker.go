// Package jwt реализует выпуск и проверку JWT токенов сессии.
//
// Токен самодостаточен: содержит email пользователя в качестве subject,
// время выпуска и время истечения. Серверная таблица сессий не ведётся,
// отозвать отдельный токен до истечения срока нельзя.
package jwt

import (
	"errors"
	"time"
)

// Ошибки проверки токена. Вызывающая сторона трактует каждую из них
// одинаково — как неаутентифицированный запрос.
var (
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid — подпись неверна или токен структурно повреждён.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrMissingSubject — в токене отсутствует subject.
	ErrMissingSubject = errors.New("token has no subject")
)

// Maker описывает интерфейс для выпуска и проверки токенов сессии.
type Maker interface {
	// GenerateToken выпускает токен с email пользователя в качестве subject.
	GenerateToken(email string) (string, error)
	// ParseToken проверяет токен и возвращает email из subject.
	ParseToken(tokenStr string) (string, error)
}

// MakerImpl реализует интерфейс Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
