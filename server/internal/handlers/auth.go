package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	"github.com/ItamarRom/MyMarket/models"
	"github.com/ItamarRom/MyMarket/server/internal/middleware"
	"github.com/ItamarRom/MyMarket/server/internal/services"
	"github.com/ItamarRom/MyMarket/server/internal/web"
)

// Флеш-сообщения страниц входа и регистрации.
const (
	FlashRegistered = "You are now a registered user!"
)

// AuthHandler обрабатывает регистрацию, вход и выход: HTML-формы и JSON API.
type AuthHandler struct {
	accounts services.AccountService
	views    *web.Renderer
	cookies  CookieConfig
}

// NewAuthHandler создает новый экземпляр AuthHandler.
func NewAuthHandler(accounts services.AccountService, views *web.Renderer, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{accounts: accounts, views: views, cookies: cookies}
}

// RegisterPage показывает форму регистрации.
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, http.StatusOK, web.PageRegister, newPage(w, r, h.accounts, "Register"))
}

// Register обрабатывает отправку формы регистрации.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.views, h.accounts, http.StatusBadRequest, "Malformed form data.")
		return
	}
	req := models.RegisterRequest{
		Username:        r.PostForm.Get("username"),
		Email:           r.PostForm.Get("email"),
		Password:        r.PostForm.Get("password"),
		PasswordConfirm: r.PostForm.Get("password2"),
	}

	user, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			page := newPage(w, r, h.accounts, "Register")
			page.Form = map[string]string{"username": req.Username, "email": req.Email}
			page.Errors = verr.Fields
			h.views.Render(w, http.StatusOK, web.PageRegister, page)
			return
		}
		log.Error().Err(err).Str("component", "AuthHandler").Msg("Ошибка регистрации")
		renderError(w, r, h.views, h.accounts, http.StatusInternalServerError, "Something went wrong, please try again.")
		return
	}

	log.Info().Str("component", "AuthHandler").Int64("user_id", user.ID).Msg("Зарегистрирован пользователь")
	setFlash(w, FlashRegistered)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// LoginPage показывает форму входа.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	page := newPage(w, r, h.accounts, "Sign In")
	page.Next = r.URL.Query().Get("next")
	h.views.Render(w, http.StatusOK, web.PageLogin, page)
}

// Login обрабатывает отправку формы входа. После входа ведет на next, если это локальный путь.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.views, h.accounts, http.StatusBadRequest, "Malformed form data.")
		return
	}
	next := r.Form.Get("next")
	req := models.LoginRequest{
		Email:      r.PostForm.Get("email"),
		Password:   r.PostForm.Get("password"),
		RememberMe: r.PostForm.Get("remember_me") != "",
	}

	result, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			page := newPage(w, r, h.accounts, "Sign In")
			page.Form = map[string]string{"email": req.Email}
			page.Errors = verr.Fields
			page.Next = next
			h.views.Render(w, http.StatusOK, web.PageLogin, page)
		case errors.Is(err, services.ErrInvalidCredentials):
			setFlash(w, services.MsgInvalidCredential)
			target := "/login"
			if next != "" {
				target += "?next=" + url.QueryEscape(next)
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
		default:
			log.Error().Err(err).Str("component", "AuthHandler").Msg("Ошибка входа")
			renderError(w, r, h.views, h.accounts, http.StatusInternalServerError, "Something went wrong, please try again.")
		}
		return
	}

	setSessionCookie(w, h.cookies, result.Token, result.ExpiresAt, result.Remember)
	http.Redirect(w, r, services.SafeRedirect(next, services.DefaultRedirect), http.StatusSeeOther)
}

// Logout завершает сессию и стирает cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.GetTokenFromContext(r.Context()); ok {
		if err := h.accounts.Logout(r.Context(), token); err != nil {
			log.Warn().Err(err).Str("component", "AuthHandler").Msg("Ошибка завершения сессии")
		}
	}
	clearSessionCookie(w, h.cookies)
	http.Redirect(w, r, services.DefaultRedirect, http.StatusSeeOther)
}

// APIRegister обрабатывает POST /api/register.
func (h *AuthHandler) APIRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, "AuthHandler", &req) {
		return
	}
	user, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, "AuthHandler", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

// APILogin обрабатывает POST /api/login и возвращает токен сессии.
func (h *AuthHandler) APILogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, "AuthHandler", &req) {
		return
	}
	result, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		respondWithServiceError(w, "AuthHandler", err)
		return
	}
	respondWithJSON(w, http.StatusOK, models.LoginResponse{Token: result.Token, ExpiresAt: result.ExpiresAt})
}

// APILogout обрабатывает POST /api/logout.
func (h *AuthHandler) APILogout(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.GetTokenFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	if err := h.accounts.Logout(r.Context(), token); err != nil {
		respondWithServiceError(w, "AuthHandler", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// APIMe возвращает текущего пользователя.
func (h *AuthHandler) APIMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	user, err := h.accounts.CurrentUser(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, "AuthHandler", err)
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}
