package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/ItamarRom/MyMarket/models"
	sessmodels "github.com/ItamarRom/MyMarket/server/internal/models"
	"github.com/ItamarRom/MyMarket/server/internal/policy"
	"github.com/ItamarRom/MyMarket/server/internal/repository"
)

// AccountService определяет интерфейс для сервиса учетных записей.
type AccountService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, token string) error
	Touch(ctx context.Context, userID int64) error
	CurrentUser(ctx context.Context, userID int64) (*models.User, error)
}

// SessionManager - то, что сервису нужно от менеджера сессий.
type SessionManager interface {
	Start(userID int64, remember bool) (*sessmodels.Session, string, error)
	End(token string) error
}

// LoginResult - результат успешного входа.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
	Remember  bool
}

// AccountConfig - параметры сервиса учетных записей.
type AccountConfig struct {
	BcryptCost int              // 0 - bcrypt.DefaultCost
	Now        func() time.Time // nil - time.Now
}

// Убедимся, что accountService удовлетворяет интерфейсу AccountService.
var _ AccountService = (*accountService)(nil)

type accountService struct {
	userRepo   repository.UserRepository
	uniqueness *UniquenessChecker
	sessions   SessionManager
	validate   *validator.Validate
	bcryptCost int
	now        func() time.Time
	// Хеш для сравнения при неизвестном email: время ответа не зависит от наличия аккаунта.
	dummyHash []byte
}

// NewAccountService создает новый экземпляр сервиса учетных записей.
func NewAccountService(
	userRepo repository.UserRepository,
	sessions SessionManager,
	cfg AccountConfig,
) (AccountService, error) {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("недопустимая стоимость bcrypt: %d", cost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("mymarket-dummy-password"), cost)
	if err != nil {
		return nil, fmt.Errorf("ошибка подготовки bcrypt: %w", err)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &accountService{
		userRepo:   userRepo,
		uniqueness: NewUniquenessChecker(userRepo),
		sessions:   sessions,
		validate:   newValidator(),
		bcryptCost: cost,
		now:        now,
		dummyHash:  dummy,
	}, nil
}

// Register регистрирует нового пользователя.
// Все проверки выполняются независимо; при любой ошибке ничего не сохраняется
// и возвращается *ValidationError со всеми нарушениями.
func (s *accountService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Email = models.NormalizeEmail(req.Email)
	verr := &ValidationError{}

	if err := validateInto(s.validate, req, verr); err != nil {
		return nil, err
	}
	if perr := policyError(req.Password); req.Password != "" && perr != nil {
		for _, msg := range perr.Messages() {
			verr.Add("password", msg, policy.ErrWeakPassword)
		}
	}

	if req.Username != "" {
		taken, err := s.uniqueness.IsUsernameTaken(ctx, req.Username)
		if err != nil {
			log.Error().Err(err).Str("component", "AccountService").Msg("Ошибка проверки имени пользователя")
			return nil, err
		}
		if taken {
			verr.Add("username", MsgUsernameTaken, ErrUsernameTaken)
		}
	}
	if req.Email != "" {
		taken, err := s.uniqueness.IsEmailTaken(ctx, req.Email)
		if err != nil {
			log.Error().Err(err).Str("component", "AccountService").Msg("Ошибка проверки email")
			return nil, err
		}
		if taken {
			verr.Add("email", MsgEmailTaken, ErrEmailTaken)
		}
	}

	if !verr.Empty() {
		log.Info().Str("component", "AccountService").Str("username", req.Username).
			Interface("fields", verr.Fields).Msg("Регистрация отклонена валидацией")
		return nil, verr
	}

	// Хешируем пароль
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		log.Error().Err(err).Str("component", "AccountService").Msg("Ошибка хеширования пароля")
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}

	// Индексы БД - окончательная проверка: между чтением и вставкой мог успеть другой запрос
	user.ID, err = s.userRepo.CreateUser(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameTaken):
			verr.Add("username", MsgUsernameTaken, ErrUsernameTaken)
			return nil, verr
		case errors.Is(err, repository.ErrEmailTaken):
			verr.Add("email", MsgEmailTaken, ErrEmailTaken)
			return nil, verr
		}
		log.Error().Err(err).Str("component", "AccountService").Msg("Ошибка репозитория при регистрации")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	log.Info().Str("component", "AccountService").Str("username", user.Username).Int64("user_id", user.ID).
		Msg("Пользователь успешно зарегистрирован")
	return user, nil
}

// Login проверяет email и пароль и открывает сессию.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *accountService) Login(ctx context.Context, req models.LoginRequest) (*LoginResult, error) {
	email := models.NormalizeEmail(req.Email)
	req.Email = email

	verr := &ValidationError{}
	if err := validateInto(s.validate, req, verr); err != nil {
		return nil, err
	}
	if !verr.Empty() {
		log.Info().Str("component", "AccountService").Interface("fields", verr.Fields).Msg("Вход отклонен валидацией")
		return nil, verr
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			log.Info().Str("component", "AccountService").Msg("Попытка входа с неизвестным email")
			return nil, ErrInvalidCredentials
		}
		log.Error().Err(err).Str("component", "AccountService").Msg("Ошибка репозитория при входе")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		log.Info().Str("component", "AccountService").Int64("user_id", user.ID).Msg("Неверный пароль")
		return nil, ErrInvalidCredentials
	}

	sess, token, err := s.sessions.Start(user.ID, req.RememberMe)
	if err != nil {
		log.Error().Err(err).Str("component", "AccountService").Msg("Ошибка открытия сессии")
		return nil, fmt.Errorf("ошибка открытия сессии: %w", err)
	}

	log.Info().Str("component", "AccountService").Int64("user_id", user.ID).Bool("remember", req.RememberMe).
		Msg("Пользователь успешно аутентифицирован")
	return &LoginResult{User: user, Token: token, ExpiresAt: sess.ExpiresAt, Remember: sess.Remember}, nil
}

// Logout завершает сессию.
func (s *accountService) Logout(_ context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.End(token)
}

// Touch обновляет время последней активности пользователя.
func (s *accountService) Touch(ctx context.Context, userID int64) error {
	if err := s.userRepo.UpdateLastSeen(ctx, userID, s.now().UTC()); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// CurrentUser возвращает пользователя текущей сессии.
func (s *accountService) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return user, nil
}

func policyError(password string) *policy.PolicyError {
	var perr *policy.PolicyError
	if errors.As(policy.Check(password), &perr) {
		return perr
	}
	return nil
}
