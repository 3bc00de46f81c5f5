package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantURL string
		debug   bool
		version bool
	}{
		{name: "Значения по умолчанию", wantURL: "http://localhost:8080"},
		{
			name:    "URL из переменной окружения",
			env:     map[string]string{serverURLEnvVar: "https://market.example.com"},
			wantURL: "https://market.example.com",
		},
		{
			name:    "Флаг важнее переменной окружения",
			args:    []string{"-server-url", "http://127.0.0.1:9000"},
			env:     map[string]string{serverURLEnvVar: "https://market.example.com"},
			wantURL: "http://127.0.0.1:9000",
		},
		{
			name:    "Отладка и версия",
			args:    []string{"-debug", "-version"},
			wantURL: "http://localhost:8080",
			debug:   true,
			version: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, env(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, opts.serverURL)
			assert.Equal(t, tt.debug, opts.debug)
			assert.Equal(t, tt.version, opts.showVersion)
		})
	}
}

func TestParseFlags_Errors(t *testing.T) {
	t.Run("Пустой URL", func(t *testing.T) {
		_, err := parseFlags([]string{"-server-url", ""}, env(nil))
		require.Error(t, err)
	})

	t.Run("Неизвестный флаг", func(t *testing.T) {
		_, err := parseFlags([]string{"-db", "market.db"}, env(nil))
		require.Error(t, err)
	})

	t.Run("Справка", func(t *testing.T) {
		_, err := parseFlags([]string{"-h"}, env(nil))
		require.ErrorIs(t, err, flag.ErrHelp)
	})
}

func TestSetupLogging(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	logFile, err := setupLogging(dir, true)
	require.NoError(t, err)
	require.NoError(t, logFile.Close())

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Логгер инициализирован")
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	printVersion(&buf)
	assert.Contains(t, buf.String(), "MyMarket Client")
	assert.Contains(t, buf.String(), "Version: dev")
}
