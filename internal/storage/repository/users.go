package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/otcpublishing/writing-detector/internal/models"
)

// InsertUser сохраняет нового пользователя. Возвращает ErrUserExists,
// если email уже занят (нарушение уникального индекса).
func (s *Storage) InsertUser(ctx context.Context, user models.User) error {
	const op = "storage.InsertUser"

	query := `INSERT INTO users (uid, email, password_hash, trial_start, trial_expires,
			      subscription_status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7);`
	_, err := s.DB.ExecContext(ctx, query,
		user.UUID, user.Email, user.PasswordHash, user.TrialStart, user.TrialExpires,
		user.SubscriptionStatus, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindUserByEmail возвращает пользователя по его email или ErrUserNotFound.
func (s *Storage) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.FindUserByEmail"

	query := `SELECT uid, email, password_hash, trial_start, trial_expires,
			      subscription_status, created_at
			  FROM users
			  WHERE email = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, email)

	if err := row.Scan(&u.UUID, &u.Email, &u.PasswordHash, &u.TrialStart,
		&u.TrialExpires, &u.SubscriptionStatus, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUserStatus переводит пользователя из статуса from в статус to.
// Условие по исходному статусу делает запись идемпотентной: конкурентный
// запрос, успевший выполнить тот же переход, просто не затронет ни одной
// строки, что не считается ошибкой.
func (s *Storage) UpdateUserStatus(ctx context.Context, userUID string, from, to models.SubscriptionStatus) error {
	const op = "storage.UpdateUserStatus"

	query := `UPDATE users
			  SET subscription_status = $1
		      WHERE uid = $2 AND subscription_status = $3`
	_, err := s.DB.ExecContext(ctx, query, to, userUID, from)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetUserStatus безусловно устанавливает статус подписки пользователя.
// Используется billing-webhook'ом, для которого источником истины
// является платёжный провайдер.
func (s *Storage) SetUserStatus(ctx context.Context, userUID string, to models.SubscriptionStatus) error {
	const op = "storage.SetUserStatus"

	query := `UPDATE users
			  SET subscription_status = $1
		      WHERE uid = $2`
	res, err := s.DB.ExecContext(ctx, query, to, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}
