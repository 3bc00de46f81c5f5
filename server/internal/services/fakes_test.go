package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/ItamarRom/MyMarket/models"
	"github.com/ItamarRom/MyMarket/server/internal/repository"
)

// memUserRepo - репозиторий пользователей в памяти с уникальными индексами как в БД.
type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
	// staleReads имитирует окно гонки: чтения не видят уже вставленных пользователей.
	staleReads bool
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*models.User)}
}

func (r *memUserRepo) CreateUser(_ context.Context, user *models.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return 0, repository.ErrUsernameTaken
		}
		if models.NormalizeEmail(u.Email) == models.NormalizeEmail(user.Email) {
			return 0, repository.ErrEmailTaken
		}
	}
	r.nextID++
	cp := *user
	cp.ID = r.nextID
	r.users[cp.ID] = &cp
	return cp.ID, nil
}

func (r *memUserRepo) find(match func(u *models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.staleReads {
		return nil, repository.ErrUserNotFound
	}
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *memUserRepo) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *memUserRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == models.NormalizeEmail(email) })
}

func (r *memUserRepo) UpdateLastSeen(_ context.Context, id int64, seenAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.LastSeen = &seenAt
	return nil
}

func (r *memUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
