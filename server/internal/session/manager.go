// Package session управляет аутентифицированными сессиями пользователей.
//
// Сессия хранится в памяти процесса, клиенту выдается подписанный JWT,
// в котором лежат только идентификатор сессии и ID пользователя.
// Завершенная сессия перестает действовать сразу, даже если подпись токена еще валидна.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ItamarRom/MyMarket/server/internal/models"
)

const (
	DefaultTTL         = 24 * time.Hour      // Время жизни обычной сессии
	DefaultRememberTTL = 30 * 24 * time.Hour // Время жизни сессии "запомнить меня"
	tokenIssuer        = "mymarket-server"
)

// Ошибки менеджера сессий.
var (
	ErrEmptySecret  = errors.New("секретный ключ сессий не задан")
	ErrInvalidToken = errors.New("невалидный токен сессии")
	ErrClosed       = errors.New("менеджер сессий остановлен")
)

// Config - параметры менеджера сессий.
type Config struct {
	Secret      []byte           // Ключ подписи HS256
	TTL         time.Duration    // 0 - DefaultTTL
	RememberTTL time.Duration    // 0 - DefaultRememberTTL
	Now         func() time.Time // nil - time.Now, подменяется в тестах
}

// Структура для пользовательских данных в JWT (claims). ID сессии лежит в jti.
type sessionClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// Manager выдает, проверяет и завершает сессии.
type Manager struct {
	secret      []byte
	ttl         time.Duration
	rememberTTL time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*models.Session
	closed   bool
}

// NewManager создает менеджер сессий.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}
	m := &Manager{
		secret:      cfg.Secret,
		ttl:         cfg.TTL,
		rememberTTL: cfg.RememberTTL,
		now:         cfg.Now,
		sessions:    make(map[string]*models.Session),
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	if m.rememberTTL <= 0 {
		m.rememberTTL = DefaultRememberTTL
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// Start открывает новую сессию пользователя и возвращает ее вместе с подписанным токеном.
func (m *Manager) Start(userID int64, remember bool) (*models.Session, string, error) {
	now := m.now()
	ttl := m.ttl
	if remember {
		ttl = m.rememberTTL
	}
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Remember:  remember,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	token, err := m.sign(sess)
	if err != nil {
		return nil, "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, "", ErrClosed
	}
	m.sweepLocked(now)
	m.sessions[sess.ID] = sess

	log.Debug().Str("component", "SessionManager").Int64("user_id", userID).Bool("remember", remember).
		Time("expires_at", sess.ExpiresAt).Msg("Сессия открыта")
	return sess, token, nil
}

// End завершает сессию, на которую указывает токен.
// Повторное завершение той же сессии не является ошибкой.
func (m *Manager) End(token string) error {
	claims, err := m.parse(token, true)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[claims.ID]; ok && sess.UserID == claims.UserID {
		delete(m.sessions, claims.ID)
		log.Debug().Str("component", "SessionManager").Int64("user_id", claims.UserID).Msg("Сессия завершена")
	}
	return nil
}

// Identity возвращает ID пользователя живой сессии или false для анонима.
func (m *Manager) Identity(token string) (int64, bool) {
	sess, err := m.Lookup(token)
	if err != nil {
		return 0, false
	}
	return sess.UserID, true
}

// Lookup возвращает сессию по токену.
func (m *Manager) Lookup(token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := m.parse(token, false)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[claims.ID]
	if !ok || sess.UserID != claims.UserID || sess.Expired(m.now()) {
		return nil, ErrInvalidToken
	}
	cp := *sess
	return &cp, nil
}

// Close останавливает менеджер и забывает все сессии.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.sessions = make(map[string]*models.Session)
}

// Active возвращает количество живых сессий.
func (m *Manager) Active() int {
	now := m.now()
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		if !s.Expired(now) {
			n++
		}
	}
	return n
}

// sweepLocked удаляет истекшие сессии. Вызывается под m.mu.
func (m *Manager) sweepLocked(now time.Time) {
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
		}
	}
}

func (m *Manager) sign(sess *models.Session) (string, error) {
	claims := sessionClaims{
		UserID: sess.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
			NotBefore: jwt.NewNumericDate(sess.CreatedAt),
			Issuer:    tokenIssuer,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена сессии: %w", err)
	}
	return signed, nil
}

// parse проверяет подпись токена. allowExpired нужен для выхода по истекшему токену.
func (m *Manager) parse(token string, allowExpired bool) (*sessionClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(m.now),
	}
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil && !(allowExpired && errors.Is(err, jwt.ErrTokenExpired)) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
