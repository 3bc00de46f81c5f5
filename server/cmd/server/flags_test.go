package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv убирает переменные конфигурации на время теста.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		envConfigFile, envServerAddress, envDatabaseDSN, envDatabaseURL, envSecretKey, envBcryptCost,
		envSessionTTL, envRememberTTL, envSecureCookies, envTLSCertFile, envTLSKeyFile, envStrictOwnership,
		envMinioEndpoint, envMinioAccessKey, envMinioSecretKey, envMinioBucket, envMinioUseSSL, envMinioRegion,
		envLogLevel, envLogJSON, envRunMigrations, envDevMode,
	} {
		if value, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, value) })
			os.Unsetenv(key)
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("Значения по умолчанию", func(t *testing.T) {
		clearEnv(t)

		cfg, err := loadConfig([]string{"-d", "postgres://db", "-secret", "s3cr3t"}, "")
		require.NoError(t, err)
		assert.Equal(t, defaultServerAddress, cfg.ServerAddress)
		assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
		assert.Equal(t, 30*24*time.Hour, cfg.RememberTTL)
		assert.True(t, cfg.StrictItemOwnership)
		assert.True(t, cfg.Migrate)
		assert.False(t, cfg.Minio.Enabled())
		assert.False(t, cfg.SecureCookies)
	})

	t.Run("Все параметры из переменных окружения", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(envServerAddress, ":9090")
		t.Setenv(envDatabaseDSN, "postgres://env")
		t.Setenv(envSecretKey, "env-secret")
		t.Setenv(envBcryptCost, "11")
		t.Setenv(envSessionTTL, "2h")
		t.Setenv(envStrictOwnership, "false")
		t.Setenv(envMinioEndpoint, "localhost:9000")
		t.Setenv(envRunMigrations, "false")

		cfg, err := loadConfig(nil, "")
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.ServerAddress)
		assert.Equal(t, "postgres://env", cfg.DatabaseDSN)
		assert.Equal(t, "env-secret", cfg.SecretKey)
		assert.Equal(t, 11, cfg.BcryptCost)
		assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
		assert.False(t, cfg.StrictItemOwnership)
		assert.True(t, cfg.Minio.Enabled())
		assert.False(t, cfg.Migrate)
	})

	t.Run("DATABASE_URL как запасной вариант", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(envDatabaseURL, "postgres://heroku")
		t.Setenv(envSecretKey, "x")

		cfg, err := loadConfig(nil, "")
		require.NoError(t, err)
		assert.Equal(t, "postgres://heroku", cfg.DatabaseDSN)
	})

	t.Run("Флаги переопределяют переменные окружения", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(envServerAddress, ":9090")
		t.Setenv(envDatabaseDSN, "postgres://env")
		t.Setenv(envSecretKey, "env-secret")

		cfg, err := loadConfig([]string{"-a=:7070", "-d=postgres://flag", "-strict-ownership=false"}, "")
		require.NoError(t, err)
		assert.Equal(t, ":7070", cfg.ServerAddress)
		assert.Equal(t, "postgres://flag", cfg.DatabaseDSN)
		assert.Equal(t, "env-secret", cfg.SecretKey)
		assert.False(t, cfg.StrictItemOwnership)
	})

	t.Run("YAML-файл с переопределением из окружения", func(t *testing.T) {
		clearEnv(t)
		path := writeFile(t, "config.yaml", `
server_address: ":6060"
database_dsn: "postgres://yaml"
secret_key: "yaml-secret"
remember_ttl: 48h
minio:
  endpoint: "minio:9000"
  bucket: "pictures"
`)
		t.Setenv(envSecretKey, "env-secret")

		cfg, err := loadConfig([]string{"-config", path}, "")
		require.NoError(t, err)
		assert.Equal(t, ":6060", cfg.ServerAddress)
		assert.Equal(t, "postgres://yaml", cfg.DatabaseDSN)
		assert.Equal(t, "env-secret", cfg.SecretKey)
		assert.Equal(t, 48*time.Hour, cfg.RememberTTL)
		assert.Equal(t, "minio:9000", cfg.Minio.Endpoint)
		assert.Equal(t, "pictures", cfg.Minio.BucketName)
	})

	t.Run("Файл .env", func(t *testing.T) {
		clearEnv(t)
		envFile := writeFile(t, ".env", "DATABASE_DSN=postgres://dotenv\nSECRET_KEY=dotenv-secret\n")
		t.Cleanup(func() {
			os.Unsetenv(envDatabaseDSN)
			os.Unsetenv(envSecretKey)
		})

		cfg, err := loadConfig(nil, envFile)
		require.NoError(t, err)
		assert.Equal(t, "postgres://dotenv", cfg.DatabaseDSN)
		assert.Equal(t, "dotenv-secret", cfg.SecretKey)
	})

	t.Run("TLS включает Secure cookie", func(t *testing.T) {
		clearEnv(t)

		cfg, err := loadConfig([]string{"-d=x", "-secret=y", "-tls-cert=cert.pem", "-tls-key=key.pem"}, "")
		require.NoError(t, err)
		assert.True(t, cfg.TLSEnabled())
		assert.True(t, cfg.SecureCookies)
	})
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "Отсутствует строка подключения к БД",
			args:    []string{"-secret=x"},
			wantErr: "не указана строка подключения к БД",
		},
		{
			name:    "Отсутствует ключ подписи",
			args:    []string{"-d=x"},
			wantErr: "не указан ключ подписи",
		},
		{
			name:    "Ключ по умолчанию без режима разработки",
			args:    []string{"-d=x", "-secret=" + insecureDevSecret},
			wantErr: "только с -dev",
		},
		{
			name:    "Только сертификат без ключа",
			args:    []string{"-d=x", "-secret=y", "-tls-cert=cert.pem"},
			wantErr: "и сертификат",
		},
		{
			name:    "Некорректная длительность в окружении",
			env:     map[string]string{envSessionTTL: "forever"},
			args:    []string{"-d=x", "-secret=y"},
			wantErr: envSessionTTL,
		},
		{
			name:    "Некорректный уровень логирования",
			args:    []string{"-d=x", "-secret=y", "-log-level=loud"},
			wantErr: "неизвестный уровень логирования",
		},
		{
			name:    "Неизвестный флаг",
			args:    []string{"-d=x", "-secret=y", "-port=1"},
			wantErr: "ошибка разбора флагов",
		},
		{
			name:    "Файл конфигурации не найден",
			args:    []string{"-config=/nonexistent/config.yaml"},
			wantErr: "ошибка открытия файла конфигурации",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := loadConfig(tt.args, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig_DevSecret(t *testing.T) {
	clearEnv(t)

	cfg, err := loadConfig([]string{"-d=x", "-dev"}, "")
	require.NoError(t, err)
	assert.Equal(t, insecureDevSecret, cfg.SecretKey)
}

func TestFlagValue(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-config", "a.yaml"}, "a.yaml"},
		{[]string{"--config=b.yaml", "-d=x"}, "b.yaml"},
		{[]string{"-d", "config"}, ""},
		{[]string{"-config"}, ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, flagValue(tt.args, "config"), tt.args)
	}
}
