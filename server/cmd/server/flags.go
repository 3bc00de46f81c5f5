package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/ItamarRom/MyMarket/server/internal/session"
	"github.com/ItamarRom/MyMarket/server/internal/storage"
)

const (
	defaultServerAddress = ":8080"
	defaultEnvFile       = ".env"
	defaultMinioBucket   = "mymarket-images"
	defaultLogLevel      = "info"

	// insecureDevSecret допустим только в режиме разработки.
	insecureDevSecret = "you-will-never-guess"

	// Переменные окружения.
	envConfigFile      = "CONFIG_FILE"
	envServerAddress   = "SERVER_ADDRESS"
	envDatabaseDSN     = "DATABASE_DSN"
	envDatabaseURL     = "DATABASE_URL"
	envSecretKey       = "SECRET_KEY" //nolint:gosec // Имя переменной окружения, а не секрет
	envBcryptCost      = "BCRYPT_COST"
	envSessionTTL      = "SESSION_TTL"
	envRememberTTL     = "REMEMBER_TTL"
	envSecureCookies   = "SECURE_COOKIES"
	envTLSCertFile     = "TLS_CERT_FILE"
	envTLSKeyFile      = "TLS_KEY_FILE"
	envStrictOwnership = "STRICT_ITEM_OWNERSHIP"
	envMinioEndpoint   = "MINIO_ENDPOINT"
	envMinioAccessKey  = "MINIO_ACCESS_KEY"
	envMinioSecretKey  = "MINIO_SECRET_KEY" //nolint:gosec // Имя переменной окружения, а не секрет
	envMinioBucket     = "MINIO_BUCKET"
	envMinioUseSSL     = "MINIO_USE_SSL"
	envMinioRegion     = "MINIO_REGION"
	envLogLevel        = "LOG_LEVEL"
	envLogJSON         = "LOG_JSON"
	envRunMigrations   = "RUN_MIGRATIONS"
	envDevMode         = "DEV_MODE"
)

// config хранит конфигурацию сервера.
// Приоритет: значения по умолчанию < YAML-файл < .env < переменные окружения < флаги.
type config struct {
	ServerAddress       string              `yaml:"server_address"`
	DatabaseDSN         string              `yaml:"database_dsn"`
	SecretKey           string              `yaml:"secret_key"`
	BcryptCost          int                 `yaml:"bcrypt_cost"`
	SessionTTL          time.Duration       `yaml:"session_ttl"`
	RememberTTL         time.Duration       `yaml:"remember_ttl"`
	SecureCookies       bool                `yaml:"secure_cookies"`
	TLSCertFile         string              `yaml:"tls_cert_file"`
	TLSKeyFile          string              `yaml:"tls_key_file"`
	StrictItemOwnership bool                `yaml:"strict_item_ownership"`
	Minio               storage.MinioConfig `yaml:"minio"`
	LogLevel            string              `yaml:"log_level"`
	LogJSON             bool                `yaml:"log_json"`
	Migrate             bool                `yaml:"migrate"`
	Dev                 bool                `yaml:"dev"`
}

func defaultConfig() *config {
	return &config{
		ServerAddress:       defaultServerAddress,
		SessionTTL:          session.DefaultTTL,
		RememberTTL:         session.DefaultRememberTTL,
		StrictItemOwnership: true,
		Minio:               storage.MinioConfig{BucketName: defaultMinioBucket},
		LogLevel:            defaultLogLevel,
		Migrate:             true,
	}
}

// TLSEnabled сообщает, что сервер слушает HTTPS.
func (c *config) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// loadConfig собирает конфигурацию из всех источников и проверяет ее.
func loadConfig(args []string, envFile string) (*config, error) {
	cfg := defaultConfig()

	// .env не перетирает уже заданные переменные окружения
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err = godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("ошибка чтения %s: %w", envFile, err)
			}
		}
	}

	configFile := flagValue(args, "config")
	if configFile == "" {
		configFile = os.Getenv(envConfigFile)
	}
	if configFile != "" {
		if err := applyYAML(cfg, configFile); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyYAML(cfg *config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("ошибка открытия файла конфигурации: %w", err)
	}
	defer file.Close()

	if err = yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("некорректный файл конфигурации %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *config) error {
	envString(envServerAddress, &cfg.ServerAddress)
	envString(envDatabaseURL, &cfg.DatabaseDSN)
	envString(envDatabaseDSN, &cfg.DatabaseDSN)
	envString(envSecretKey, &cfg.SecretKey)
	envString(envTLSCertFile, &cfg.TLSCertFile)
	envString(envTLSKeyFile, &cfg.TLSKeyFile)
	envString(envMinioEndpoint, &cfg.Minio.Endpoint)
	envString(envMinioAccessKey, &cfg.Minio.AccessKeyID)
	envString(envMinioSecretKey, &cfg.Minio.SecretAccessKey)
	envString(envMinioBucket, &cfg.Minio.BucketName)
	envString(envMinioRegion, &cfg.Minio.Region)
	envString(envLogLevel, &cfg.LogLevel)

	return errors.Join(
		envInt(envBcryptCost, &cfg.BcryptCost),
		envDuration(envSessionTTL, &cfg.SessionTTL),
		envDuration(envRememberTTL, &cfg.RememberTTL),
		envBool(envSecureCookies, &cfg.SecureCookies),
		envBool(envStrictOwnership, &cfg.StrictItemOwnership),
		envBool(envMinioUseSSL, &cfg.Minio.UseSSL),
		envBool(envLogJSON, &cfg.LogJSON),
		envBool(envRunMigrations, &cfg.Migrate),
		envBool(envDevMode, &cfg.Dev),
	)
}

func applyFlags(cfg *config, args []string) error {
	fs := flag.NewFlagSet("mymarket-server", flag.ContinueOnError)
	fs.String("config", "", fmt.Sprintf("Путь к YAML-файлу конфигурации (env: %s)", envConfigFile))
	fs.StringVar(&cfg.ServerAddress, "a", cfg.ServerAddress,
		fmt.Sprintf("Адрес HTTP-сервера (env: %s)", envServerAddress))
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN,
		fmt.Sprintf("Строка подключения к PostgreSQL (env: %s или %s)", envDatabaseDSN, envDatabaseURL))
	fs.StringVar(&cfg.SecretKey, "secret", cfg.SecretKey,
		fmt.Sprintf("Ключ подписи токенов сессий (env: %s)", envSecretKey))
	fs.IntVar(&cfg.BcryptCost, "bcrypt-cost", cfg.BcryptCost,
		fmt.Sprintf("Стоимость bcrypt, 0 - по умолчанию (env: %s)", envBcryptCost))
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL,
		fmt.Sprintf("Время жизни сессии (env: %s)", envSessionTTL))
	fs.DurationVar(&cfg.RememberTTL, "remember-ttl", cfg.RememberTTL,
		fmt.Sprintf("Время жизни сессии с \"Remember Me\" (env: %s)", envRememberTTL))
	fs.BoolVar(&cfg.SecureCookies, "secure-cookies", cfg.SecureCookies,
		fmt.Sprintf("Ставить флаг Secure на cookie (env: %s)", envSecureCookies))
	fs.StringVar(&cfg.TLSCertFile, "tls-cert", cfg.TLSCertFile,
		fmt.Sprintf("Путь к файлу TLS-сертификата (env: %s)", envTLSCertFile))
	fs.StringVar(&cfg.TLSKeyFile, "tls-key", cfg.TLSKeyFile,
		fmt.Sprintf("Путь к файлу TLS-ключа (env: %s)", envTLSKeyFile))
	fs.BoolVar(&cfg.StrictItemOwnership, "strict-ownership", cfg.StrictItemOwnership,
		fmt.Sprintf("Удалять товар может только владелец (env: %s)", envStrictOwnership))
	fs.StringVar(&cfg.Minio.Endpoint, "minio-endpoint", cfg.Minio.Endpoint,
		fmt.Sprintf("Адрес MinIO, пусто - картинки выключены (env: %s)", envMinioEndpoint))
	fs.StringVar(&cfg.Minio.AccessKeyID, "minio-access-key", cfg.Minio.AccessKeyID,
		fmt.Sprintf("Логин MinIO (env: %s)", envMinioAccessKey))
	fs.StringVar(&cfg.Minio.SecretAccessKey, "minio-secret-key", cfg.Minio.SecretAccessKey,
		fmt.Sprintf("Пароль MinIO (env: %s)", envMinioSecretKey))
	fs.StringVar(&cfg.Minio.BucketName, "minio-bucket", cfg.Minio.BucketName,
		fmt.Sprintf("Бакет для картинок (env: %s)", envMinioBucket))
	fs.BoolVar(&cfg.Minio.UseSSL, "minio-ssl", cfg.Minio.UseSSL,
		fmt.Sprintf("Подключаться к MinIO по HTTPS (env: %s)", envMinioUseSSL))
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel,
		fmt.Sprintf("Уровень логирования (env: %s)", envLogLevel))
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON,
		fmt.Sprintf("Писать логи в JSON (env: %s)", envLogJSON))
	fs.BoolVar(&cfg.Migrate, "migrate", cfg.Migrate,
		fmt.Sprintf("Применять миграции при запуске (env: %s)", envRunMigrations))
	fs.BoolVar(&cfg.Dev, "dev", cfg.Dev,
		fmt.Sprintf("Режим разработки (env: %s)", envDevMode))

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("ошибка разбора флагов: %w", err)
	}
	return nil
}

// validate проверяет обязательные параметры.
func (c *config) validate() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("не указана строка подключения к БД (-d или %s)", envDatabaseDSN)
	}
	if c.SecretKey == "" && c.Dev {
		c.SecretKey = insecureDevSecret
	}
	if c.SecretKey == "" {
		return fmt.Errorf("не указан ключ подписи сессий (-secret или %s)", envSecretKey)
	}
	if c.SecretKey == insecureDevSecret && !c.Dev {
		return errors.New("ключ подписи по умолчанию допустим только с -dev")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("для HTTPS нужны и сертификат (-tls-cert), и ключ (-tls-key)")
	}
	if c.SessionTTL <= 0 || c.RememberTTL <= 0 {
		return errors.New("время жизни сессии должно быть положительным")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("неизвестный уровень логирования %q: %w", c.LogLevel, err)
	}
	if c.TLSEnabled() {
		c.SecureCookies = true
	}
	return nil
}

// flagValue находит значение флага до полного разбора (нужно для -config).
func flagValue(args []string, name string) string {
	for i, arg := range args {
		trimmed := strings.TrimLeft(arg, "-")
		if trimmed == arg || len(arg)-len(trimmed) > 2 {
			continue
		}
		if value, ok := strings.CutPrefix(trimmed, name+"="); ok {
			return value
		}
		if trimmed == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func envString(key string, dst *string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*dst = value
	}
}

func envBool(key string, dst *bool) error {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s: ожидается true/false: %w", key, err)
	}
	*dst = parsed
	return nil
}

func envInt(key string, dst *int) error {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: ожидается целое число: %w", key, err)
	}
	*dst = parsed
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: ожидается длительность (например, 24h): %w", key, err)
	}
	*dst = parsed
	return nil
}
