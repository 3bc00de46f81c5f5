package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

// Имена ограничений уникальности из миграций.
const (
	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_lower_key"
	constraintItemName = "items_name_key"
)

// Кастомные ошибки репозитория.
var (
	ErrUserNotFound  = errors.New("пользователь не найден")
	ErrUsernameTaken = errors.New("имя пользователя уже занято")
	ErrEmailTaken    = errors.New("email уже занят")
	ErrItemNotFound  = errors.New("товар не найден")
	ErrItemNameTaken = errors.New("название товара уже занято")
)

// uniqueViolation возвращает имя нарушенного ограничения уникальности,
// если err - это unique_violation от PostgreSQL.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return pgErr.Constraint, true
	}
	return "", false
}

// foreignKeyViolation сообщает, что err - нарушение внешнего ключа.
func foreignKeyViolation(err error) bool {
	var pgErr *pq.Error
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
