package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/ItamarRom/MyMarket/models"
)

const userColumns = `id, username, email, password_hash, last_seen, created_at, updated_at`

// UserRepository определяет методы для работы с данными пользователей в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastSeen(ctx context.Context, id int64, seenAt time.Time) error
}

// postgresUserRepository реализует UserRepository для PostgreSQL.
type postgresUserRepository struct {
	db *sqlx.DB
}

// NewPostgresUserRepository создает новый экземпляр репозитория пользователей для PostgreSQL.
func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

// CreateUser создает нового пользователя одним INSERT-ом.
// Нарушение уникальности превращается в ErrUsernameTaken или ErrEmailTaken
// в зависимости от сработавшего ограничения.
func (r *postgresUserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	query := `INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`
	var userID int64

	err := r.db.QueryRowxContext(ctx, query, user.Username, user.Email, user.PasswordHash).Scan(&userID)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			log.Warn().Str("component", "UserRepo").Str("constraint", constraint).
				Str("username", user.Username).Msg("Нарушение уникальности при создании пользователя")
			if constraint == constraintEmail {
				return 0, ErrEmailTaken
			}
			return 0, ErrUsernameTaken
		}
		log.Error().Err(err).Str("component", "UserRepo").Str("username", user.Username).
			Msg("Непредвиденная ошибка при создании пользователя")
		return 0, fmt.Errorf("ошибка выполнения запроса на создание пользователя: %w", err)
	}

	log.Debug().Str("component", "UserRepo").Int64("user_id", userID).Msg("Пользователь создан")
	return userID, nil
}

// GetUserByID находит пользователя по ID.
func (r *postgresUserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

// GetUserByUsername находит пользователя по точному совпадению имени.
func (r *postgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username=$1`, username)
}

// GetUserByEmail находит пользователя по email без учета регистра.
func (r *postgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email)=$1`, models.NormalizeEmail(email))
}

func (r *postgresUserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User

	err := r.db.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		log.Error().Err(err).Str("component", "UserRepo").Msg("Ошибка при поиске пользователя")
		return nil, fmt.Errorf("ошибка выполнения запроса на получение пользователя: %w", err)
	}
	return &user, nil
}

// UpdateLastSeen обновляет время последней активности пользователя.
func (r *postgresUserRepository) UpdateLastSeen(ctx context.Context, id int64, seenAt time.Time) error {
	query := `UPDATE users SET last_seen=$1 WHERE id=$2`

	res, err := r.db.ExecContext(ctx, query, seenAt, id)
	if err != nil {
		return fmt.Errorf("ошибка обновления last_seen: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества обновленных строк: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}
