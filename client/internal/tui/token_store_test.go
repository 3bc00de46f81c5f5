//nolint:testpackage // Тесты в том же пакете для доступа к приватным компонентам
package tui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore(t *testing.T) {
	t.Run("Пустое хранилище", func(t *testing.T) {
		store := NewTokenStore(filepath.Join(t.TempDir(), "missing"))

		token, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, token)
		assert.NoError(t, store.Clear())
	})

	t.Run("Сохранение и чтение", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), ".mymarket")
		store := NewTokenStore(dir)

		require.NoError(t, store.Save("jwt-token"))
		token, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, "jwt-token", token)

		info, err := os.Stat(store.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("Удаление", func(t *testing.T) {
		store := NewTokenStore(t.TempDir())
		require.NoError(t, store.Save("jwt-token"))
		require.NoError(t, store.Clear())

		token, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("Блокировка освобождается после записи", func(t *testing.T) {
		dir := t.TempDir()
		store := NewTokenStore(dir)
		require.NoError(t, store.Save("jwt-token"))

		other := flock.New(filepath.Join(dir, tokenLockName))
		locked, err := other.TryLock()
		require.NoError(t, err)
		assert.True(t, locked)
		require.NoError(t, other.Unlock())
	})
}

func TestDefaultTokenDir(t *testing.T) {
	t.Setenv("HOME", "/tmp/mymarket-home")

	dir, err := DefaultTokenDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/mymarket-home", ".mymarket"), dir)
}
