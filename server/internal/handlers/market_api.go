package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ItamarRom/MyMarket/models"
	"github.com/ItamarRom/MyMarket/server/internal/middleware"
)

// APIListItems обрабатывает GET /api/items?q=.
func (h *MarketHandler) APIListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.listings.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondWithServiceError(w, "MarketHandler", err)
		return
	}
	if items == nil {
		items = []*models.Item{}
	}
	respondWithJSON(w, http.StatusOK, items)
}

// APICreateItem обрабатывает POST /api/items.
func (h *MarketHandler) APICreateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	var req models.CreateItemRequest
	if !decodeJSON(w, r, "MarketHandler", &req) {
		return
	}
	item, err := h.listings.Create(r.Context(), userID, req)
	if err != nil {
		respondWithServiceError(w, "MarketHandler", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, item)
}

// APIGetItem обрабатывает GET /api/items/{id}.
func (h *MarketHandler) APIGetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid item id", nil)
		return
	}
	item, err := h.listings.Get(r.Context(), itemID)
	if err != nil {
		respondWithServiceError(w, "MarketHandler", err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

// APIDeleteItem обрабатывает DELETE /api/items/{id}.
func (h *MarketHandler) APIDeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	itemID, ok := itemIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid item id", nil)
		return
	}
	if err := h.listings.Delete(r.Context(), userID, itemID); err != nil {
		respondWithServiceError(w, "MarketHandler", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// APIComments обрабатывает GET /api/items/{id}/comments.
func (h *MarketHandler) APIComments(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid item id", nil)
		return
	}
	comments, err := h.listings.Comments(r.Context(), itemID)
	if err != nil {
		respondWithServiceError(w, "MarketHandler", err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	respondWithJSON(w, http.StatusOK, comments)
}

// APIAddComment обрабатывает POST /api/items/{id}/comments.
func (h *MarketHandler) APIAddComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "authentication required", nil)
		return
	}
	itemID, ok := itemIDParam(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid item id", nil)
		return
	}
	var req models.CreateCommentRequest
	if !decodeJSON(w, r, "MarketHandler", &req) {
		return
	}
	comment, err := h.listings.AddComment(r.Context(), userID, itemID, req)
	if err != nil {
		respondWithServiceError(w, "MarketHandler", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, comment)
}

// APIUser обрабатывает GET /api/users/{username}.
func (h *MarketHandler) APIUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.listings.Profile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respondWithServiceError(w, "MarketHandler", err)
		return
	}
	respondWithJSON(w, http.StatusOK, profile)
}

// APIUserItems обрабатывает GET /api/users/{username}/items.
func (h *MarketHandler) APIUserItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.listings.ListByOwner(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		respondWithServiceError(w, "MarketHandler", err)
		return
	}
	if items == nil {
		items = []*models.Item{}
	}
	respondWithJSON(w, http.StatusOK, items)
}
