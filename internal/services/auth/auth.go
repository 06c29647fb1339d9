// Package auth содержит логику бизнес-уровня для регистрации, входа
// и определения текущего пользователя по токену сессии.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/otcpublishing/writing-detector/internal/entitlement"
	"github.com/otcpublishing/writing-detector/internal/lib/jwt"
	"github.com/otcpublishing/writing-detector/internal/lib/password"
	"github.com/otcpublishing/writing-detector/internal/lib/sl"
	"github.com/otcpublishing/writing-detector/internal/models"
	"github.com/otcpublishing/writing-detector/internal/storage/repository"
)

// Ошибки уровня бизнес-логики, транслируемые обработчиками в HTTP-статусы.
var (
	// ErrEmailTaken — email уже зарегистрирован.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidEmail — email не является корректным адресом.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword — пароль короче установленного минимума.
	ErrWeakPassword = errors.New("password too short")
	// ErrInvalidCredentials — неизвестный email или неверный пароль.
	// Намеренно не различает эти случаи, чтобы не раскрывать
	// существование учётной записи.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized — токен невалиден, истёк или пользователь не существует.
	ErrUnauthorized = errors.New("unauthorized")
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// InsertUser сохраняет нового пользователя.
	InsertUser(ctx context.Context, user models.User) error
	// FindUserByEmail возвращает пользователя по email или ошибку, если не найден.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserCache описывает кэш записей пользователей.
type UserCache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
}

// WelcomeNotifier отправляет приветственное письмо новому пользователю.
type WelcomeNotifier interface {
	SendWelcomeEmail(user models.User) error
}

// Policy — неизменяемые настройки сервиса, задаваемые при конструировании.
type Policy struct {
	TrialDays         int           // Длительность пробного периода в днях
	MinPasswordLength int           // Минимальная длина пароля
	UserCacheTTL      time.Duration // Срок жизни записи пользователя в кэше
}

// Service отвечает за регистрацию, вход и валидацию токена сессии.
type Service struct {
	users    UserRepository
	cache    UserCache
	jwtMaker jwt.Maker
	notifier WelcomeNotifier
	policy   Policy
	log      *slog.Logger
}

// New создает новый экземпляр Service. cache и notifier могут быть nil.
func New(users UserRepository, cache UserCache, jwtMaker jwt.Maker,
	notifier WelcomeNotifier, policy Policy, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		cache:    cache,
		jwtMaker: jwtMaker,
		notifier: notifier,
		policy:   policy,
		log:      log,
	}
}

// NormalizeEmail приводит email к каноничному виду для поиска и хранения.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создает нового пользователя в статусе trial с фиксированным окном
// пробного периода и возвращает токен сессии вместе с созданной записью.
//
// Приветственное письмо отправляется в отдельной горутине: его неудача
// логируется и никогда не откатывает регистрацию.
func (s *Service) Register(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "auth.Register"

	email = NormalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}
	if len(rawPassword) < s.policy.MinPasswordLength {
		return "", nil, fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := models.User{
		UUID:               uuid.New().String(),
		Email:              email,
		PasswordHash:       hashed,
		TrialStart:         now,
		TrialExpires:       now.AddDate(0, 0, s.policy.TrialDays),
		SubscriptionStatus: models.StatusTrial,
		CreatedAt:          now,
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return "", nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.notifier != nil {
		go func(u models.User) {
			if err := s.notifier.SendWelcomeEmail(u); err != nil {
				s.log.Error("failed to send welcome email",
					slog.String("op", op), sl.Err(err))
			}
		}(user)
	}

	token, err := s.jwtMaker.GenerateToken(email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, &user, nil
}

// Login проверяет учётные данные и выпускает токен сессии.
// Состояние пользователя не изменяется.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (string, *models.User, error) {
	const op = "auth.Login"

	email = NormalizeEmail(email)
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.jwtMaker.GenerateToken(user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	return token, user, nil
}

// CurrentUser определяет пользователя по токену сессии: парсит токен,
// затем загружает запись по subject, используя кэш, если он настроен.
func (s *Service) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	const op = "auth.CurrentUser"

	email, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	if s.cache != nil {
		var cached models.User
		found, err := s.cache.Get(entitlement.UserCacheKey(email), &cached)
		if err != nil {
			s.log.Error("user cache read failed", slog.String("op", op), sl.Err(err))
		} else if found {
			return &cached, nil
		}
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(entitlement.UserCacheKey(email), user, s.policy.UserCacheTTL); err != nil {
			s.log.Error("user cache write failed", slog.String("op", op), sl.Err(err))
		}
	}
	return user, nil
}
