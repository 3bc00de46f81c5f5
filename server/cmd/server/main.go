package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Драйвер PostgreSQL
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ItamarRom/MyMarket/server/internal/handlers"
	appmiddleware "github.com/ItamarRom/MyMarket/server/internal/middleware"
	"github.com/ItamarRom/MyMarket/server/internal/repository"
	"github.com/ItamarRom/MyMarket/server/internal/services"
	"github.com/ItamarRom/MyMarket/server/internal/session"
	"github.com/ItamarRom/MyMarket/server/internal/storage"
	"github.com/ItamarRom/MyMarket/server/internal/web"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 15 * time.Second
)

// newPostgresDB подменяется в тестах.
var newPostgresDB = repository.NewPostgresDB

// Структура для хранения инициализированных зависимостей.
type dependencies struct {
	db            *sqlx.DB
	sessions      *session.Manager
	accounts      services.AccountService
	authHandler   *handlers.AuthHandler
	marketHandler *handlers.MarketHandler
}

// close освобождает ресурсы в обратном порядке.
func (d *dependencies) close() {
	if d.sessions != nil {
		d.sessions.Close()
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			log.Error().Err(err).Msg("Ошибка закрытия соединения с БД")
		}
	}
}

// main - точка входа. Вызывает run и обрабатывает ошибку.
func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Error().Err(err).Msg("Ошибка выполнения сервера")
		os.Exit(1)
	}
}

// run содержит основную логику запуска сервера и возвращает ошибку.
func run(args []string) error {
	cfg, err := loadConfig(args, defaultEnvFile)
	if err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}
	setupLogger(os.Stderr, cfg.LogLevel, cfg.LogJSON)
	log.Info().Str("addr", cfg.ServerAddress).Bool("tls", cfg.TLSEnabled()).Msg("Запуск сервера MyMarket...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setupDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ошибка инициализации зависимостей: %w", err)
	}
	defer deps.close()

	server := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      setupRouter(deps.authHandler, deps.marketHandler, deps.sessions, deps.accounts),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		if cfg.TLSEnabled() {
			log.Info().Str("cert", cfg.TLSCertFile).Msg("Запуск HTTPS-сервера")
			serveErr <- server.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		log.Info().Msg("Запуск HTTP-сервера")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("ошибка запуска сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("Получен сигнал остановки, завершаем работу...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки сервера: %w", err)
	}
	log.Info().Msg("Сервер остановлен")
	return nil
}

// setupLogger настраивает глобальный zerolog: консольный вывод или JSON.
func setupLogger(w io.Writer, level string, jsonOutput bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if !jsonOutput {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// setupDependencies инициализирует и возвращает все необходимые зависимости сервера.
func setupDependencies(ctx context.Context, cfg *config) (*dependencies, error) {
	deps := &dependencies{}
	var err error

	// 1. Подключение к БД и миграции
	deps.db, err = newPostgresDB(cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации БД: %w", err)
	}
	if cfg.Migrate {
		if err = repository.RunMigrations(ctx, deps.db.DB); err != nil {
			deps.close()
			return nil, fmt.Errorf("ошибка применения миграций: %w", err)
		}
	}

	// 2. Хранилище картинок (необязательно)
	var images storage.ImageStorage
	if cfg.Minio.Enabled() {
		minioStorage, minioErr := storage.NewMinioStorage(ctx, cfg.Minio)
		if minioErr != nil {
			deps.close()
			return nil, fmt.Errorf("ошибка инициализации клиента MinIO: %w", minioErr)
		}
		images = minioStorage
	} else {
		log.Warn().Msg("MinIO не настроен, загрузка картинок товаров выключена")
	}

	// 3. Сессии
	deps.sessions, err = session.NewManager(session.Config{
		Secret:      []byte(cfg.SecretKey),
		TTL:         cfg.SessionTTL,
		RememberTTL: cfg.RememberTTL,
	})
	if err != nil {
		deps.close()
		return nil, fmt.Errorf("ошибка инициализации сессий: %w", err)
	}

	// 4. Репозитории
	userRepo := repository.NewPostgresUserRepository(deps.db)
	itemRepo := repository.NewPostgresItemRepository(deps.db)
	commentRepo := repository.NewPostgresCommentRepository(deps.db)

	// 5. Сервисы
	deps.accounts, err = services.NewAccountService(userRepo, deps.sessions, services.AccountConfig{
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		deps.close()
		return nil, fmt.Errorf("ошибка инициализации сервиса учетных записей: %w", err)
	}
	listings := services.NewListingService(itemRepo, commentRepo, userRepo, images, services.ListingConfig{
		StrictOwnership: cfg.StrictItemOwnership,
	})

	// 6. Обработчики
	views, err := web.NewRenderer()
	if err != nil {
		deps.close()
		return nil, err
	}
	deps.authHandler = handlers.NewAuthHandler(deps.accounts, views, handlers.CookieConfig{Secure: cfg.SecureCookies})
	deps.marketHandler = handlers.NewMarketHandler(deps.accounts, listings, views)

	return deps, nil
}

// setupRouter настраивает и возвращает роутер chi.
func setupRouter(
	authHandler *handlers.AuthHandler,
	marketHandler *handlers.MarketHandler,
	sessions appmiddleware.IdentityResolver,
	toucher appmiddleware.Toucher,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmiddleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(appmiddleware.Sessions(sessions))
	r.Use(appmiddleware.TouchLastSeen(toucher))

	// --- Маршруты --- //
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong\n"))
	})

	// Страницы только для анонимных пользователей
	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.RedirectIfAuthenticated(services.DefaultRedirect))
		r.Get("/register", authHandler.RegisterPage)
		r.Post("/register", authHandler.Register)
		r.Get("/login", authHandler.LoginPage)
		r.Post("/login", authHandler.Login)
	})
	r.Get("/logout", authHandler.Logout)

	// Страницы для вошедших пользователей
	r.Group(func(r chi.Router) {
		r.Use(appmiddleware.RequireAuthenticated)
		r.Get("/", marketHandler.Index)
		r.Get("/index", marketHandler.Index)
		r.Get("/market", marketHandler.Market)
		r.Post("/market", marketHandler.CreateItem)
		r.Get("/search", marketHandler.Market)
		r.Get("/user/{username}", marketHandler.Profile)
		r.Route("/item", func(r chi.Router) {
			r.Get("/{id}", marketHandler.Item)
			r.Post("/{id}/comments", marketHandler.AddComment)
			r.Get("/{id}/image", marketHandler.Image)
			r.Post("/{id}/image", marketHandler.UploadImage)
			r.Post("/delete/{id}", marketHandler.DeleteItem)
		})
	})

	// Определяем базовый маршрут /api
	r.Route("/api", func(r chi.Router) {
		// Маршруты только для анонимных клиентов (регистрация, вход)
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RejectIfAuthenticated)
			r.Post("/register", authHandler.APIRegister)
			r.Post("/login", authHandler.APILogin)
		})

		// Приватные маршруты (требуют аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.RequireToken)
			r.Post("/logout", authHandler.APILogout)
			r.Get("/me", authHandler.APIMe)
			r.Get("/users/{username}", marketHandler.APIUser)
			r.Get("/users/{username}/items", marketHandler.APIUserItems)
			r.Route("/items", func(r chi.Router) {
				r.Get("/", marketHandler.APIListItems)
				r.Post("/", marketHandler.APICreateItem)
				r.Get("/{id}", marketHandler.APIGetItem)
				r.Delete("/{id}", marketHandler.APIDeleteItem)
				r.Get("/{id}/comments", marketHandler.APIComments)
				r.Post("/{id}/comments", marketHandler.APIAddComment)
			})
		})
	})
	return r
}
