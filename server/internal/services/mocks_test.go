package services_test

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/ItamarRom/MyMarket/models"
	"github.com/ItamarRom/MyMarket/server/internal/repository"
	"github.com/ItamarRom/MyMarket/server/internal/storage"
)

// MockUserRepository - мок repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	return userArg(args, 0), args.Error(1)
}

func (m *MockUserRepository) UpdateLastSeen(ctx context.Context, id int64, seenAt time.Time) error {
	return m.Called(ctx, id, seenAt).Error(0)
}

// MockItemRepository - мок repository.ItemRepository.
type MockItemRepository struct {
	mock.Mock
}

var _ repository.ItemRepository = (*MockItemRepository)(nil)

func (m *MockItemRepository) CreateItem(ctx context.Context, item *models.Item) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemRepository) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*models.Item)
	return item, args.Error(1)
}

func (m *MockItemRepository) ListItems(ctx context.Context) ([]*models.Item, error) {
	args := m.Called(ctx)
	return itemsArg(args, 0), args.Error(1)
}

func (m *MockItemRepository) SearchItems(ctx context.Context, query string) ([]*models.Item, error) {
	args := m.Called(ctx, query)
	return itemsArg(args, 0), args.Error(1)
}

func (m *MockItemRepository) ListItemsByOwner(ctx context.Context, userID int64) ([]*models.Item, error) {
	args := m.Called(ctx, userID)
	return itemsArg(args, 0), args.Error(1)
}

func (m *MockItemRepository) DeleteItem(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockItemRepository) SetImageKey(ctx context.Context, id int64, key string) error {
	return m.Called(ctx, id, key).Error(0)
}

// MockCommentRepository - мок repository.CommentRepository.
type MockCommentRepository struct {
	mock.Mock
}

var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func (m *MockCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) (int64, error) {
	args := m.Called(ctx, comment)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommentRepository) ListCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error) {
	args := m.Called(ctx, itemID)
	comments, _ := args.Get(0).([]*models.Comment)
	return comments, args.Error(1)
}

func userArg(args mock.Arguments, i int) *models.User {
	user, _ := args.Get(i).(*models.User)
	return user
}

func itemsArg(args mock.Arguments, i int) []*models.Item {
	items, _ := args.Get(i).([]*models.Item)
	return items
}

// MockImageStorage - мок storage.ImageStorage.
type MockImageStorage struct {
	mock.Mock
}

var _ storage.ImageStorage = (*MockImageStorage)(nil)

func (m *MockImageStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, r, size, contentType).Error(0)
}

func (m *MockImageStorage) Download(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	rc, _ := args.Get(0).(io.ReadCloser)
	info, _ := args.Get(1).(*storage.ObjectInfo)
	return rc, info, args.Error(2)
}

func (m *MockImageStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}
