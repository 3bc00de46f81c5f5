package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ItamarRom/MyMarket/server/internal/session"
)

const testSecret = "test-secret"

// fakeClock - управляемые часы для тестов.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T) (*session.Manager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	m, err := session.NewManager(session.Config{
		Secret:      []byte(testSecret),
		TTL:         time.Hour,
		RememberTTL: 48 * time.Hour,
		Now:         clock.Now,
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, clock
}

func TestNewManager_EmptySecret(t *testing.T) {
	m, err := session.NewManager(session.Config{})
	assert.ErrorIs(t, err, session.ErrEmptySecret)
	assert.Nil(t, m)
}

func TestStartEndIdentity(t *testing.T) {
	m, _ := newTestManager(t)

	// Аноним
	_, ok := m.Identity("")
	assert.False(t, ok)

	sess, token, err := m.Start(42, false)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, int64(42), sess.UserID)
	assert.False(t, sess.Remember)

	userID, ok := m.Identity(token)
	require.True(t, ok)
	assert.Equal(t, int64(42), userID)

	require.NoError(t, m.End(token))

	_, ok = m.Identity(token)
	assert.False(t, ok, "После выхода сессия должна быть анонимной")

	// Повторный выход не ошибка
	assert.NoError(t, m.End(token))
}

func TestRememberExtendsLifetime(t *testing.T) {
	m, clock := newTestManager(t)

	_, shortToken, err := m.Start(1, false)
	require.NoError(t, err)
	longSess, longToken, err := m.Start(2, true)
	require.NoError(t, err)
	assert.True(t, longSess.Remember)

	clock.Advance(2 * time.Hour)

	_, ok := m.Identity(shortToken)
	assert.False(t, ok, "Обычная сессия должна истечь")
	userID, ok := m.Identity(longToken)
	assert.True(t, ok, "Сессия 'запомнить меня' должна жить дольше")
	assert.Equal(t, int64(2), userID)

	clock.Advance(47 * time.Hour)
	_, ok = m.Identity(longToken)
	assert.False(t, ok)
}

func TestExpiredSessionsAreSwept(t *testing.T) {
	m, clock := newTestManager(t)

	_, _, err := m.Start(1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Active())

	clock.Advance(time.Hour)
	assert.Equal(t, 0, m.Active())

	_, _, err = m.Start(2, false)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Active())
}

func TestIdentity_RejectsForeignTokens(t *testing.T) {
	m, clock := newTestManager(t)
	_, _, err := m.Start(7, false)
	require.NoError(t, err)

	forge := func(secret string, method jwt.SigningMethod, id string) string {
		claims := jwt.RegisteredClaims{
			ID:        id,
			Issuer:    "mymarket-server",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		}
		tok, signErr := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
		require.NoError(t, signErr)
		return tok
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "Мусор вместо токена", token: "not-a-jwt"},
		{name: "Чужой секрет", token: forge("other-secret", jwt.SigningMethodHS256, "sid")},
		{name: "Другой алгоритм", token: forge(testSecret, jwt.SigningMethodHS512, "sid")},
		{name: "Неизвестная сессия", token: forge(testSecret, jwt.SigningMethodHS256, "unknown")},
		{name: "Без идентификатора сессии", token: forge(testSecret, jwt.SigningMethodHS256, "")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := m.Identity(tt.token)
			assert.False(t, ok)
		})
	}
}

func TestTokenCarriesNoCredentials(t *testing.T) {
	m, _ := newTestManager(t)
	_, token, err := m.Start(5, false)
	require.NoError(t, err)

	claims := jwt.MapClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)

	for key := range claims {
		assert.Contains(t, []string{"uid", "jti", "exp", "iat", "nbf", "iss"}, key)
	}
}

func TestEnd_ExpiredTokenStillLogsOut(t *testing.T) {
	m, clock := newTestManager(t)
	_, token, err := m.Start(3, false)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	assert.NoError(t, m.End(token))
	assert.ErrorIs(t, m.End("garbage"), session.ErrInvalidToken)
}

func TestClose(t *testing.T) {
	m, _ := newTestManager(t)
	_, token, err := m.Start(1, false)
	require.NoError(t, err)

	m.Close()

	_, ok := m.Identity(token)
	assert.False(t, ok)
	_, _, err = m.Start(1, false)
	assert.ErrorIs(t, err, session.ErrClosed)
}

func TestConcurrentAccess(t *testing.T) {
	m, _ := newTestManager(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			_, token, err := m.Start(userID, userID%2 == 0)
			if !assert.NoError(t, err) {
				return
			}
			id, ok := m.Identity(token)
			assert.True(t, ok)
			assert.Equal(t, userID, id)
			assert.NoError(t, m.End(token))
		}(int64(i))
	}
	wg.Wait()
	assert.Equal(t, 0, m.Active())
}
