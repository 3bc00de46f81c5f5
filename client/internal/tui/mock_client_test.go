//nolint:testpackage // Тесты в том же пакете для доступа к приватным компонентам
package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/mock"

	"github.com/ItamarRom/MyMarket/models"
)

// MockAPIClient мокирует api.Client.
type MockAPIClient struct {
	mock.Mock
	token string
}

func (m *MockAPIClient) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockAPIClient) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.LoginResponse)
	if resp != nil {
		m.token = resp.Token
	}
	return resp, args.Error(1)
}

func (m *MockAPIClient) Logout(ctx context.Context) error {
	m.token = ""
	return m.Called(ctx).Error(0)
}

func (m *MockAPIClient) Me(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockAPIClient) ListItems(ctx context.Context, query string) ([]*models.Item, error) {
	args := m.Called(ctx, query)
	items, _ := args.Get(0).([]*models.Item)
	return items, args.Error(1)
}

func (m *MockAPIClient) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*models.Item)
	return item, args.Error(1)
}

func (m *MockAPIClient) CreateItem(ctx context.Context, req models.CreateItemRequest) (*models.Item, error) {
	args := m.Called(ctx, req)
	item, _ := args.Get(0).(*models.Item)
	return item, args.Error(1)
}

func (m *MockAPIClient) DeleteItem(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAPIClient) ListComments(ctx context.Context, itemID int64) ([]*models.Comment, error) {
	args := m.Called(ctx, itemID)
	comments, _ := args.Get(0).([]*models.Comment)
	return comments, args.Error(1)
}

func (m *MockAPIClient) AddComment(ctx context.Context, itemID int64, body string) (*models.Comment, error) {
	args := m.Called(ctx, itemID, body)
	comment, _ := args.Get(0).(*models.Comment)
	return comment, args.Error(1)
}

func (m *MockAPIClient) SetAuthToken(token string) {
	m.token = token
}

func (m *MockAPIClient) AuthToken() string {
	return m.token
}

var anyCtx = mock.Anything

// newTestModel создает модель с мок-клиентом и хранилищем токена во временном каталоге.
func newTestModel(t *testing.T, client *MockAPIClient) *model {
	t.Helper()
	m := initModel(client, NewTokenStore(t.TempDir()), "http://test.server", false)
	return &m
}

// keyRunes создает сообщение о нажатии обычной клавиши.
func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// typeText вводит текст в активное поле через Update.
func typeText(m *model, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}
