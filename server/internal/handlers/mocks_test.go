package handlers_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ItamarRom/MyMarket/models"
	"github.com/ItamarRom/MyMarket/server/internal/middleware"
	"github.com/ItamarRom/MyMarket/server/internal/services"
	"github.com/ItamarRom/MyMarket/server/internal/storage"
	"github.com/ItamarRom/MyMarket/server/internal/web"
)

// --- Mock AccountService --- //

type MockAccountService struct {
	mock.Mock
}

var _ services.AccountService = (*MockAccountService)(nil)

func (m *MockAccountService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, req models.LoginRequest) (*services.LoginResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*services.LoginResult)
	return result, args.Error(1)
}

func (m *MockAccountService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAccountService) Touch(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockAccountService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

// --- Mock ListingService --- //

type MockListingService struct {
	mock.Mock
}

var _ services.ListingService = (*MockListingService)(nil)

func (m *MockListingService) List(ctx context.Context) ([]*models.Item, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]*models.Item)
	return items, args.Error(1)
}

func (m *MockListingService) Search(ctx context.Context, query string) ([]*models.Item, error) {
	args := m.Called(ctx, query)
	items, _ := args.Get(0).([]*models.Item)
	return items, args.Error(1)
}

func (m *MockListingService) Get(ctx context.Context, itemID int64) (*models.Item, error) {
	args := m.Called(ctx, itemID)
	item, _ := args.Get(0).(*models.Item)
	return item, args.Error(1)
}

func (m *MockListingService) Create(
	ctx context.Context,
	ownerID int64,
	req models.CreateItemRequest,
) (*models.Item, error) {
	args := m.Called(ctx, ownerID, req)
	item, _ := args.Get(0).(*models.Item)
	return item, args.Error(1)
}

func (m *MockListingService) Delete(ctx context.Context, actorID, itemID int64) error {
	return m.Called(ctx, actorID, itemID).Error(0)
}

func (m *MockListingService) ListByOwner(ctx context.Context, username string) ([]*models.Item, error) {
	args := m.Called(ctx, username)
	items, _ := args.Get(0).([]*models.Item)
	return items, args.Error(1)
}

func (m *MockListingService) Profile(ctx context.Context, username string) (*models.ProfileResponse, error) {
	args := m.Called(ctx, username)
	profile, _ := args.Get(0).(*models.ProfileResponse)
	return profile, args.Error(1)
}

func (m *MockListingService) Comments(ctx context.Context, itemID int64) ([]*models.Comment, error) {
	args := m.Called(ctx, itemID)
	comments, _ := args.Get(0).([]*models.Comment)
	return comments, args.Error(1)
}

func (m *MockListingService) AddComment(
	ctx context.Context,
	userID, itemID int64,
	req models.CreateCommentRequest,
) (*models.Comment, error) {
	args := m.Called(ctx, userID, itemID, req)
	comment, _ := args.Get(0).(*models.Comment)
	return comment, args.Error(1)
}

func (m *MockListingService) UploadImage(
	ctx context.Context,
	actorID, itemID int64,
	data io.Reader,
	size int64,
	contentType string,
) error {
	return m.Called(ctx, actorID, itemID, data, size, contentType).Error(0)
}

func (m *MockListingService) OpenImage(ctx context.Context, itemID int64) (io.ReadCloser, *storage.ObjectInfo, error) {
	args := m.Called(ctx, itemID)
	rc, _ := args.Get(0).(io.ReadCloser)
	info, _ := args.Get(1).(*storage.ObjectInfo)
	return rc, info, args.Error(2)
}

// --- Вспомогательные функции --- //

func newRenderer(t *testing.T) *web.Renderer {
	t.Helper()
	views, err := web.NewRenderer()
	require.NoError(t, err)
	return views
}

// asUser кладет в контекст запроса ID пользователя и токен, как это делает middleware.Sessions.
func asUser(userID int64, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
			ctx = context.WithValue(ctx, middleware.TokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// anyCtx совпадает с любым контекстом запроса.
var anyCtx = mock.Anything

func newRouter(mw ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(mw...)
	return r
}
