package services

import (
	"errors"
	"sort"
	"strings"
)

// Кастомные ошибки сервисов.
var (
	ErrValidation         = errors.New("ошибка валидации")
	ErrInvalidCredentials = errors.New("неверный email или пароль")
	ErrUsernameTaken      = errors.New("имя пользователя уже занято")
	ErrEmailTaken         = errors.New("email уже занят")
	ErrItemNameTaken      = errors.New("название товара уже занято")
	ErrUserNotFound       = errors.New("пользователь не найден")
	ErrItemNotFound       = errors.New("товар не найден")
	ErrNotItemOwner       = errors.New("товар принадлежит другому пользователю")
	ErrImagesDisabled     = errors.New("хранилище картинок не настроено")
	ErrInvalidImage       = errors.New("недопустимый файл картинки")
	ErrStoreUnavailable   = errors.New("хранилище данных недоступно")
)

// ValidationError собирает все ошибки формы по полям.
// Через Unwrap совпадает с ErrValidation и с причинами вроде ErrUsernameTaken.
type ValidationError struct {
	Fields map[string][]string
	causes []error
}

// Add добавляет сообщение к полю. cause может быть nil.
func (e *ValidationError) Add(field, message string, cause error) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
	if cause != nil {
		e.causes = append(e.causes, cause)
	}
}

// Empty сообщает, что ошибок нет.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Field возвращает сообщения для поля.
func (e *ValidationError) Field(name string) []string {
	return e.Fields[name]
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Fields[f], "; "))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() []error {
	return append([]error{ErrValidation}, e.causes...)
}

// IsConflict сообщает, что ошибка вызвана занятым уникальным значением.
func IsConflict(err error) bool {
	return errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken) || errors.Is(err, ErrItemNameTaken)
}
