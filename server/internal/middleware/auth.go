package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

// Тип для ключа контекста.
type contextKey string

// Ключи для хранения данных сессии в контексте.
const (
	UserIDKey contextKey = "userID"
	TokenKey  contextKey = "sessionToken"
)

// SessionCookieName - имя cookie с токеном сессии.
const SessionCookieName = "session"

// IdentityResolver проверяет токен сессии и возвращает ID пользователя.
type IdentityResolver interface {
	Identity(token string) (int64, bool)
}

// Toucher обновляет время последней активности пользователя.
type Toucher interface {
	Touch(ctx context.Context, userID int64) error
}

// Sessions определяет текущего пользователя по заголовку Authorization или cookie сессии.
// Запрос без валидной сессии проходит дальше анонимным.
func Sessions(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			userID, ok := resolver.Identity(token)
			if !ok {
				log.Debug().Str("component", "AuthMiddleware").Msg("Токен сессии невалиден или сессия завершена")
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, TokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenFromRequest достает токен из "Authorization: Bearer ..." или из cookie сессии.
func TokenFromRequest(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) == 2 && strings.EqualFold(headerParts[0], "bearer") {
			return headerParts[1]
		}
		log.Debug().Str("component", "AuthMiddleware").Msg("Неверный формат заголовка Authorization")
		return ""
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireAuthenticated отправляет анонимного пользователя на страницу входа с параметром next.
func RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireToken отвечает 401 анонимному клиенту API.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUserIDFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RedirectIfAuthenticated уводит вошедшего пользователя со страниц входа и регистрации.
func RedirectIfAuthenticated(target string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetUserIDFromContext(r.Context()); ok {
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RejectIfAuthenticated отвечает 409 клиенту API, который уже вошел.
func RejectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, ok := GetUserIDFromContext(r.Context()); ok {
			log.Info().Str("component", "AuthMiddleware").Int64("user_id", userID).Str("path", r.URL.Path).
				Msg("Запрос от уже вошедшего пользователя отклонен")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"Already authenticated"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TouchLastSeen отмечает активность вошедшего пользователя на каждом запросе.
// Ошибка записи только логируется.
func TouchLastSeen(toucher Toucher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := GetUserIDFromContext(r.Context()); ok {
				if err := toucher.Touch(r.Context(), userID); err != nil {
					log.Warn().Err(err).Str("component", "AuthMiddleware").Int64("user_id", userID).
						Msg("Не удалось обновить время последней активности")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserIDFromContext извлекает UserID из контекста запроса.
// Возвращает ID пользователя и true, если ID найден, иначе 0 и false.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok
}

// GetTokenFromContext возвращает токен текущей сессии.
func GetTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok && token != ""
}
