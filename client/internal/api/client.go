package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ItamarRom/MyMarket/models"
)

const defaultTimeout = 15 * time.Second

// Ошибки API.
var (
	ErrAuthorization = errors.New("ошибка авторизации")
	ErrForbidden     = errors.New("действие запрещено")
	ErrNotFound      = errors.New("не найдено")
	ErrNoToken       = errors.New("токен аутентификации отсутствует")
)

// Error - ошибка, которую вернул сервер, с сообщениями по полям.
type Error struct {
	StatusCode int
	Message    string
	Details    map[string][]string
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s (статус %d)", e.Message, e.StatusCode)
	}
	fields := make([]string, 0, len(e.Details))
	for f := range e.Details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.Details[f], "; "))
	}
	return strings.Join(parts, "\n")
}

// Client определяет интерфейс для взаимодействия с API сервера MyMarket.
type Client interface {
	// Register регистрирует нового пользователя.
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	// Login аутентифицирует пользователя, запоминает и возвращает токен.
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	// Logout завершает сессию на сервере.
	Logout(ctx context.Context) error
	// Me возвращает текущего пользователя.
	Me(ctx context.Context) (*models.User, error)
	// ListItems возвращает товары, при непустом query - результаты поиска.
	ListItems(ctx context.Context, query string) ([]*models.Item, error)
	// GetItem возвращает товар по ID.
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	// CreateItem выставляет товар.
	CreateItem(ctx context.Context, req models.CreateItemRequest) (*models.Item, error)
	// DeleteItem удаляет товар.
	DeleteItem(ctx context.Context, id int64) error
	// ListComments возвращает комментарии к товару.
	ListComments(ctx context.Context, itemID int64) ([]*models.Comment, error)
	// AddComment добавляет комментарий к товару.
	AddComment(ctx context.Context, itemID int64, body string) (*models.Comment, error)
	// SetAuthToken устанавливает токен для аутентифицированных запросов.
	SetAuthToken(token string)
	// AuthToken возвращает текущий токен.
	AuthToken() string
}

// httpClient реализует интерфейс Client для взаимодействия с сервером по HTTP.
type httpClient struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// NewHTTPClient создает новый экземпляр API клиента.
func NewHTTPClient(baseURL string) Client {
	return &httpClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// do выполняет запрос и декодирует JSON-ответ в out, если out не nil.
func (c *httpClient) do(ctx context.Context, method, path string, query url.Values, in, out any, auth bool) error {
	endpoint, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("ошибка формирования URL %s: %w", path, err)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, marshalErr := json.Marshal(in)
		if marshalErr != nil {
			return fmt.Errorf("ошибка кодирования запроса: %w", marshalErr)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if c.authToken == "" {
			return ErrNoToken
		}
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка выполнения запроса %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка декодирования ответа: %w", err)
	}
	return nil
}

// decodeError превращает ответ с ошибкой в error.
func decodeError(resp *http.Response) error {
	var payload models.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	apiErr := &Error{StatusCode: resp.StatusCode, Message: payload.Error, Details: payload.Details}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrAuthorization, apiErr)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", ErrForbidden, apiErr)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, apiErr)
	default:
		return apiErr
	}
}

// Register отправляет запрос на регистрацию на сервер.
func (c *httpClient) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodPost, "/api/register", nil, req, &user, false); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login отправляет запрос на вход на сервер и сохраняет токен.
func (c *httpClient) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, req, &resp, false); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("сервер вернул пустой токен")
	}
	c.authToken = resp.Token
	return &resp, nil
}

// Logout завершает сессию и забывает токен.
func (c *httpClient) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/logout", nil, nil, nil, true)
	c.authToken = ""
	if errors.Is(err, ErrAuthorization) {
		return nil
	}
	return err
}

// Me возвращает текущего пользователя.
func (c *httpClient) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, nil, &user, true); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListItems возвращает товары.
func (c *httpClient) ListItems(ctx context.Context, query string) ([]*models.Item, error) {
	var params url.Values
	if q := strings.TrimSpace(query); q != "" {
		params = url.Values{"q": {q}}
	}
	var items []*models.Item
	if err := c.do(ctx, http.MethodGet, "/api/items", params, nil, &items, true); err != nil {
		return nil, err
	}
	return items, nil
}

// GetItem возвращает товар по ID.
func (c *httpClient) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	if err := c.do(ctx, http.MethodGet, "/api/items/"+strconv.FormatInt(id, 10), nil, nil, &item, true); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem выставляет товар.
func (c *httpClient) CreateItem(ctx context.Context, req models.CreateItemRequest) (*models.Item, error) {
	var item models.Item
	if err := c.do(ctx, http.MethodPost, "/api/items", nil, req, &item, true); err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem удаляет товар.
func (c *httpClient) DeleteItem(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/items/"+strconv.FormatInt(id, 10), nil, nil, nil, true)
}

// ListComments возвращает комментарии к товару.
func (c *httpClient) ListComments(ctx context.Context, itemID int64) ([]*models.Comment, error) {
	var comments []*models.Comment
	path := "/api/items/" + strconv.FormatInt(itemID, 10) + "/comments"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &comments, true); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment добавляет комментарий к товару.
func (c *httpClient) AddComment(ctx context.Context, itemID int64, body string) (*models.Comment, error) {
	var comment models.Comment
	path := "/api/items/" + strconv.FormatInt(itemID, 10) + "/comments"
	req := models.CreateCommentRequest{Body: body}
	if err := c.do(ctx, http.MethodPost, path, nil, req, &comment, true); err != nil {
		return nil, err
	}
	return &comment, nil
}

// SetAuthToken устанавливает токен аутентификации для клиента.
func (c *httpClient) SetAuthToken(token string) {
	c.authToken = token
}

// AuthToken возвращает текущий токен.
func (c *httpClient) AuthToken() string {
	return c.authToken
}
