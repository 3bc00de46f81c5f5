package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const (
	tokenDirName  = ".mymarket"
	tokenFileName = "token"
	tokenLockName = "token.lock"
)

// TokenStore хранит токен сессии в файле, доступ к которому защищен flock,
// чтобы несколько запущенных клиентов не перетирали файл друг другу.
type TokenStore struct {
	path string
	lock *flock.Flock
}

// DefaultTokenDir возвращает каталог ~/.mymarket.
func DefaultTokenDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("не удалось определить домашний каталог: %w", err)
	}
	return filepath.Join(home, tokenDirName), nil
}

// NewTokenStore создает хранилище токена в каталоге dir.
func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{
		path: filepath.Join(dir, tokenFileName),
		lock: flock.New(filepath.Join(dir, tokenLockName)),
	}
}

// Path возвращает путь к файлу токена.
func (s *TokenStore) Path() string {
	return s.path
}

// Load читает сохраненный токен. Отсутствие файла не ошибка: возвращается пустая строка.
func (s *TokenStore) Load() (string, error) {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err := s.lock.RLock(); err != nil {
		return "", fmt.Errorf("ошибка блокировки %s: %w", s.lock.Path(), err)
	}
	defer s.unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ошибка чтения токена: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save сохраняет токен с правами 0600.
func (s *TokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("ошибка создания каталога токена: %w", err)
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("ошибка блокировки %s: %w", s.lock.Path(), err)
	}
	defer s.unlock()

	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("ошибка записи токена: %w", err)
	}
	return nil
}

// Clear удаляет сохраненный токен.
func (s *TokenStore) Clear() error {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("ошибка блокировки %s: %w", s.lock.Path(), err)
	}
	defer s.unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("ошибка удаления токена: %w", err)
	}
	return nil
}

func (s *TokenStore) unlock() {
	_ = s.lock.Unlock()
}
