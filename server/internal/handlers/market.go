package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ItamarRom/MyMarket/models"
	"github.com/ItamarRom/MyMarket/server/internal/middleware"
	"github.com/ItamarRom/MyMarket/server/internal/services"
	"github.com/ItamarRom/MyMarket/server/internal/web"
)

// Флеш-сообщения маркетплейса.
const (
	FlashItemCreated   = "You have entered an item to the Marketplace!"
	FlashItemDeleted   = "Item deleted."
	FlashNotItemOwner  = "You can only delete your own items."
	FlashImageUploaded = "Picture uploaded."
	FlashInvalidImage  = "Please upload an image file up to 5 MB."
	FlashImagesOff     = "Picture uploads are disabled on this server."
)

// latestItemsCount - сколько новых товаров показывать на главной.
const latestItemsCount = 5

// MarketHandler обрабатывает страницы и API товаров, комментариев и профилей.
type MarketHandler struct {
	accounts services.AccountService
	listings services.ListingService
	views    *web.Renderer
}

// NewMarketHandler создает новый экземпляр MarketHandler.
func NewMarketHandler(
	accounts services.AccountService,
	listings services.ListingService,
	views *web.Renderer,
) *MarketHandler {
	return &MarketHandler{accounts: accounts, listings: listings, views: views}
}

func (h *MarketHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToStatusCode(err)
	message := "Something went wrong, please try again."
	switch status {
	case http.StatusNotFound:
		message = "The page you are looking for does not exist."
	case http.StatusInternalServerError:
		log.Error().Err(err).Str("component", "MarketHandler").Str("path", r.URL.Path).Msg("Внутренняя ошибка сервера")
	}
	renderError(w, r, h.views, h.accounts, status, message)
}

// Index показывает главную страницу с последними товарами.
func (h *MarketHandler) Index(w http.ResponseWriter, r *http.Request) {
	items, err := h.listings.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := newPage(w, r, h.accounts, "Home")
	page.Data = latestItems(items, latestItemsCount)
	h.views.Render(w, http.StatusOK, web.PageIndex, page)
}

// latestItems возвращает до n последних товаров, новые первыми.
func latestItems(items []*models.Item, n int) []*models.Item {
	if len(items) < n {
		n = len(items)
	}
	latest := make([]*models.Item, 0, n)
	for i := len(items) - 1; i >= len(items)-n; i-- {
		latest = append(latest, items[i])
	}
	return latest
}

// Market показывает все товары или результаты поиска по параметру q.
func (h *MarketHandler) Market(w http.ResponseWriter, r *http.Request) {
	h.renderMarket(w, r, http.StatusOK, nil, nil)
}

func (h *MarketHandler) renderMarket(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	form map[string]string,
	fieldErrors map[string][]string,
) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	items, err := h.listings.Search(r.Context(), query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := newPage(w, r, h.accounts, "Marketplace")
	page.Form = form
	page.Errors = fieldErrors
	page.Data = web.MarketData{Query: query, Items: items}
	h.views.Render(w, status, web.PageMarket, page)
}

// CreateItem обрабатывает форму нового товара.
func (h *MarketHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.views, h.accounts, http.StatusBadRequest, "Malformed form data.")
		return
	}
	name := r.PostForm.Get("name")
	rawPrice := strings.TrimSpace(r.PostForm.Get("price"))
	// Нечисловая цена валидируется как отсутствующая
	price, _ := strconv.ParseInt(rawPrice, 10, 64)

	_, err := h.listings.Create(r.Context(), userID, models.CreateItemRequest{Name: name, Price: price})
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			h.renderMarket(w, r, http.StatusOK, map[string]string{"name": name, "price": rawPrice}, verr.Fields)
			return
		}
		h.fail(w, r, err)
		return
	}
	setFlash(w, FlashItemCreated)
	http.Redirect(w, r, "/market", http.StatusSeeOther)
}

// Item показывает страницу товара с комментариями.
func (h *MarketHandler) Item(w http.ResponseWriter, r *http.Request) {
	h.renderItem(w, r, http.StatusOK, nil, nil)
}

func (h *MarketHandler) renderItem(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	form map[string]string,
	fieldErrors map[string][]string,
) {
	itemID, ok := itemIDParam(r)
	if !ok {
		h.fail(w, r, services.ErrItemNotFound)
		return
	}
	item, err := h.listings.Get(r.Context(), itemID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	comments, err := h.listings.Comments(r.Context(), itemID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	page := newPage(w, r, h.accounts, item.Name)
	page.Form = form
	page.Errors = fieldErrors
	page.Data = web.ItemData{Item: item, Comments: comments, CanEdit: item.UserID == userID}
	h.views.Render(w, status, web.PageItem, page)
}

// AddComment обрабатывает форму комментария к товару.
func (h *MarketHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	itemID, ok := itemIDParam(r)
	if !ok {
		h.fail(w, r, services.ErrItemNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		renderError(w, r, h.views, h.accounts, http.StatusBadRequest, "Malformed form data.")
		return
	}
	body := r.PostForm.Get("body")

	_, err := h.listings.AddComment(r.Context(), userID, itemID, models.CreateCommentRequest{Body: body})
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			h.renderItem(w, r, http.StatusOK, map[string]string{"body": body}, verr.Fields)
			return
		}
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/item/%d", itemID), http.StatusSeeOther)
}

// DeleteItem удаляет товар и возвращает на маркетплейс.
func (h *MarketHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	itemID, ok := itemIDParam(r)
	if !ok {
		h.fail(w, r, services.ErrItemNotFound)
		return
	}

	err := h.listings.Delete(r.Context(), userID, itemID)
	switch {
	case err == nil:
		setFlash(w, FlashItemDeleted)
	case errors.Is(err, services.ErrNotItemOwner):
		setFlash(w, FlashNotItemOwner)
	default:
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/market", http.StatusSeeOther)
}

// UploadImage принимает картинку товара из multipart-формы (поле image).
func (h *MarketHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())
	itemID, ok := itemIDParam(r)
	if !ok {
		h.fail(w, r, services.ErrItemNotFound)
		return
	}
	itemURL := fmt.Sprintf("/item/%d", itemID)

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxImageSize+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		log.Debug().Err(err).Str("component", "MarketHandler").Msg("Картинка не получена")
		setFlash(w, FlashInvalidImage)
		http.Redirect(w, r, itemURL, http.StatusSeeOther)
		return
	}
	defer file.Close()

	err = h.listings.UploadImage(r.Context(), userID, itemID, file, header.Size, header.Header.Get("Content-Type"))
	switch {
	case err == nil:
		setFlash(w, FlashImageUploaded)
	case errors.Is(err, services.ErrInvalidImage):
		setFlash(w, FlashInvalidImage)
	case errors.Is(err, services.ErrImagesDisabled):
		setFlash(w, FlashImagesOff)
	case errors.Is(err, services.ErrNotItemOwner):
		setFlash(w, FlashNotItemOwner)
	default:
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, itemURL, http.StatusSeeOther)
}

// Image отдает картинку товара.
func (h *MarketHandler) Image(w http.ResponseWriter, r *http.Request) {
	itemID, ok := itemIDParam(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	rc, info, err := h.listings.OpenImage(r.Context(), itemID)
	if err != nil {
		if errors.Is(err, services.ErrItemNotFound) || errors.Is(err, services.ErrImagesDisabled) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Str("component", "MarketHandler").Int64("item_id", itemID).Msg("Ошибка получения картинки")
		http.Error(w, "Внутренняя ошибка сервера", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	contentType, ok := services.AllowedImageType(info.ContentType)
	if !ok {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err = io.Copy(w, rc); err != nil {
		log.Warn().Err(err).Str("component", "MarketHandler").Int64("item_id", itemID).Msg("Картинка отдана не полностью")
	}
}

// Profile показывает профиль пользователя.
func (h *MarketHandler) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.listings.Profile(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := newPage(w, r, h.accounts, "User "+profile.User.Username)
	page.Data = profile
	h.views.Render(w, http.StatusOK, web.PageUser, page)
}
