package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ItamarRom/MyMarket/models"
	"github.com/ItamarRom/MyMarket/server/internal/repository"
)

// UniquenessChecker проверяет, заняты ли имя пользователя и email.
// Проверка только читает данные; окончательно уникальность гарантируют индексы БД.
type UniquenessChecker struct {
	users repository.UserRepository
}

// NewUniquenessChecker создает проверку уникальности поверх репозитория пользователей.
func NewUniquenessChecker(users repository.UserRepository) *UniquenessChecker {
	return &UniquenessChecker{users: users}
}

// IsUsernameTaken сообщает, есть ли пользователь с точно таким именем.
func (c *UniquenessChecker) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	return c.taken(c.users.GetUserByUsername(ctx, username))
}

// IsEmailTaken сообщает, есть ли пользователь с таким email без учета регистра.
func (c *UniquenessChecker) IsEmailTaken(ctx context.Context, email string) (bool, error) {
	return c.taken(c.users.GetUserByEmail(ctx, models.NormalizeEmail(email)))
}

func (c *UniquenessChecker) taken(_ *models.User, err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrUserNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
