// Package policy содержит правила сложности пароля.
package policy

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength - минимальная длина пароля в символах (рунах).
const MinPasswordLength = 8

// Violation - нарушенное правило сложности пароля.
type Violation string

const (
	TooShort Violation = "too_short" // Меньше MinPasswordLength символов
	NoDigit  Violation = "no_digit"  // Нет ни одной цифры
	NoUpper  Violation = "no_upper"  // Нет заглавной буквы
	NoLower  Violation = "no_lower"  // Нет строчной буквы
	NoSymbol Violation = "no_symbol" // Нет спецсимвола
)

// Message возвращает текст нарушения для пользователя.
func (v Violation) Message() string {
	switch v {
	case TooShort:
		return "Password must be at least 8 characters long"
	case NoDigit:
		return "Password must contain at least 1 digit"
	case NoUpper:
		return "Password must contain at least 1 uppercase letter"
	case NoLower:
		return "Password must contain at least 1 lowercase letter"
	case NoSymbol:
		return "Password must contain at least 1 special symbol"
	default:
		return string(v)
	}
}

// ErrWeakPassword - пароль не прошел проверку сложности.
var ErrWeakPassword = errors.New("password does not satisfy the policy")

// PolicyError перечисляет все нарушенные правила.
type PolicyError struct {
	Violations []Violation
}

func (e *PolicyError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, string(v))
	}
	return ErrWeakPassword.Error() + ": " + strings.Join(parts, ", ")
}

func (e *PolicyError) Unwrap() error {
	return ErrWeakPassword
}

// Messages возвращает тексты всех нарушений в порядке проверки.
func (e *PolicyError) Messages() []string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message())
	}
	return msgs
}

// Validate проверяет пароль по всем пяти правилам и возвращает все нарушения.
// Пустой результат означает, что пароль подходит.
func Validate(password string) []Violation {
	var hasDigit, hasUpper, hasLower, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case isSymbol(r):
			hasSymbol = true
		}
	}

	var violations []Violation
	if utf8.RuneCountInString(password) < MinPasswordLength {
		violations = append(violations, TooShort)
	}
	if !hasDigit {
		violations = append(violations, NoDigit)
	}
	if !hasUpper {
		violations = append(violations, NoUpper)
	}
	if !hasLower {
		violations = append(violations, NoLower)
	}
	if !hasSymbol {
		violations = append(violations, NoSymbol)
	}
	return violations
}

// Check - обертка над Validate, возвращающая *PolicyError при нарушениях.
func Check(password string) error {
	if violations := Validate(password); len(violations) > 0 {
		return &PolicyError{Violations: violations}
	}
	return nil
}

// isSymbol: не буква, не цифра, не '_' и не пробельный символ.
func isSymbol(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_' && !unicode.IsSpace(r)
}
