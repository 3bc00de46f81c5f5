package models

import (
	"crypto/md5" //nolint:gosec // md5 требуется форматом gravatar, не используется для безопасности
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const gravatarURLFormat = "https://www.gravatar.com/avatar/%s?d=robohash&s=%d"

// User представляет пользователя маркетплейса.
// Тэги `db` используются для маппинга с полями БД с помощью sqlx.
// Тэги `json` используются для (де)сериализации JSON.
type User struct {
	ID           int64      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`     // Всегда в нижнем регистре
	PasswordHash string     `db:"password_hash" json:"-"` // Не отправляем хеш пароля в JSON
	LastSeen     *time.Time `db:"last_seen" json:"last_seen,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Avatar возвращает URL аватара gravatar заданного размера.
func (u *User) Avatar(size int) string {
	sum := md5.Sum([]byte(strings.ToLower(u.Email))) //nolint:gosec // см. импорт
	return fmt.Sprintf(gravatarURLFormat, hex.EncodeToString(sum[:]), size)
}

// NormalizeEmail приводит email к виду, в котором он хранится и ищется.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterRequest представляет тело запроса на регистрацию.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=4,alphanum"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password2" validate:"required,eqfield=Password"`
}

// LoginRequest представляет тело запроса на вход.
type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

// LoginResponse представляет тело ответа при успешном входе.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProfileResponse - профиль пользователя вместе с его товарами.
type ProfileResponse struct {
	User   *User   `json:"user"`
	Avatar string  `json:"avatar"`
	Items  []*Item `json:"items"`
}

// ErrorResponse - тело ответа API с ошибкой.
// Details заполняется для ошибок валидации: поле -> список сообщений.
type ErrorResponse struct {
	Error   string              `json:"error"`
	Details map[string][]string `json:"details,omitempty"`
}
