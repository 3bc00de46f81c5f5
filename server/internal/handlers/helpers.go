package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ItamarRom/MyMarket/models"
	"github.com/ItamarRom/MyMarket/server/internal/middleware"
	"github.com/ItamarRom/MyMarket/server/internal/services"
	"github.com/ItamarRom/MyMarket/server/internal/web"
)

const flashCookieName = "flash"

// CookieConfig - параметры cookie сессии.
type CookieConfig struct {
	Secure bool
}

// respondWithJSON отправляет ответ в формате JSON.
func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Str("component", "Handlers").Msg("Ошибка кодирования JSON ответа")
	}
}

// respondWithError отправляет ошибку в формате JSON.
func respondWithError(w http.ResponseWriter, status int, message string, details map[string][]string) {
	respondWithJSON(w, status, models.ErrorResponse{Error: message, Details: details})
}

// respondWithServiceError переводит ошибку сервиса в JSON-ответ.
func respondWithServiceError(w http.ResponseWriter, component string, err error) {
	status := mapErrorToStatusCode(err)
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithError(w, status, "validation failed", verr.Fields)
	case errors.Is(err, services.ErrInvalidCredentials):
		respondWithError(w, status, services.MsgInvalidCredential, nil)
	case status == http.StatusInternalServerError:
		log.Error().Err(err).Str("component", component).Msg("Внутренняя ошибка сервера")
		respondWithError(w, status, "internal server error", nil)
	default:
		respondWithError(w, status, strings.ToLower(http.StatusText(status)), nil)
	}
}

// mapErrorToStatusCode сопоставляет ошибку сервиса и HTTP статус.
func mapErrorToStatusCode(err error) int {
	switch {
	case services.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrNotItemOwner):
		return http.StatusForbidden
	case errors.Is(err, services.ErrUserNotFound), errors.Is(err, services.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrImagesDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON читает тело запроса. При ошибке отвечает 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, component string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Debug().Err(err).Str("component", component).Msg("Ошибка декодирования запроса")
		respondWithError(w, http.StatusBadRequest, "invalid request body", nil)
		return false
	}
	return true
}

// itemIDParam достает ID товара из пути.
func itemIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// setSessionCookie сохраняет токен в cookie. Без remember cookie живет до закрытия браузера.
func setSessionCookie(w http.ResponseWriter, cfg CookieConfig, token string, expiresAt time.Time, remember bool) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.Expires = expiresAt
		cookie.MaxAge = int(time.Until(expiresAt).Seconds())
	}
	http.SetCookie(w, cookie)
}

func clearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// setFlash сохраняет сообщение до следующей страницы.
func setFlash(w http.ResponseWriter, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(message)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlashes возвращает сохраненное сообщение и стирает его.
func popFlashes(w http.ResponseWriter, r *http.Request) []string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Path: "/", MaxAge: -1})
	message, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil || len(message) == 0 {
		return nil
	}
	return []string{string(message)}
}

// newPage готовит общие данные страницы: текущего пользователя и флеш-сообщения.
func newPage(w http.ResponseWriter, r *http.Request, accounts services.AccountService, title string) web.Page {
	page := web.Page{Title: title, Flashes: popFlashes(w, r)}
	if userID, ok := middleware.GetUserIDFromContext(r.Context()); ok {
		user, err := accounts.CurrentUser(r.Context(), userID)
		if err != nil {
			log.Warn().Err(err).Str("component", "Handlers").Int64("user_id", userID).
				Msg("Не удалось загрузить текущего пользователя")
		} else {
			page.CurrentUser = user
		}
	}
	return page
}

// renderError отрисовывает страницу ошибки по статусу.
func renderError(
	w http.ResponseWriter,
	r *http.Request,
	views *web.Renderer,
	accounts services.AccountService,
	status int,
	message string,
) {
	page := newPage(w, r, accounts, http.StatusText(status))
	page.Data = message
	views.Render(w, status, web.PageError, page)
}
