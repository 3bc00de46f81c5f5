package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Сообщения об ошибках форм, показываемые пользователю.
const (
	MsgRequired          = "This field is required."
	MsgUsernameTaken     = "Username is already taken"
	MsgUsernameTooShort  = "Username must be at least 4 characters long"
	MsgUsernameCharset   = "Username may only contain letters and numbers"
	MsgEmailInvalid      = "Invalid email address."
	MsgEmailTaken        = "Email is already taken"
	MsgPasswordMismatch  = "Field must be equal to password."
	MsgItemNameTooShort  = "Item name must be at least 3 characters long"
	MsgItemNameTooLong   = "Item name must be at most 64 characters long"
	MsgItemNameTaken     = "An item with this name already exists"
	MsgPriceNotNumber    = "Please enter a whole number."
	MsgPricePositive     = "Price must be greater than zero"
	MsgCommentTooLong    = "Comment must be at most 500 characters long"
	MsgInvalidCredential = "Invalid email or password"
)

// fieldMessages: поле -> тег валидатора -> сообщение.
var fieldMessages = map[string]map[string]string{
	"username":  {"min": MsgUsernameTooShort, "alphanum": MsgUsernameCharset},
	"email":     {"email": MsgEmailInvalid},
	"password2": {"eqfield": MsgPasswordMismatch},
	"name":      {"min": MsgItemNameTooShort, "max": MsgItemNameTooLong},
	"price":     {"required": MsgPriceNotNumber, "gt": MsgPricePositive},
	"body":      {"max": MsgCommentTooLong},
}

// newValidator создает валидатор, который называет поля по json-тегам.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInto прогоняет теги validate и складывает ошибки в verr.
func validateInto(v *validator.Validate, s any, verr *ValidationError) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("ошибка валидатора: %w", err)
	}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), fieldMessage(fe), nil)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	if msgs, ok := fieldMessages[fe.Field()]; ok {
		if msg, ok := msgs[fe.Tag()]; ok {
			return msg
		}
	}
	if fe.Tag() == "required" {
		return MsgRequired
	}
	return fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
}
