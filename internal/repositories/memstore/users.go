package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/repositories"
	"github.com/google/uuid"
)

type Users struct {
	s *Store
}

func (r *Users) emailTaken(email string, except uuid.UUID) bool {
	for _, u := range r.s.users {
		if u.ID != except && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}

func (r *Users) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(u.Email, uuid.Nil) {
		return repositories.ErrDuplicate
	}
	u.ID = uuid.New()
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r *Users) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *Users) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.ResetPasswordTokenHash != nil && *u.ResetPasswordTokenHash == tokenHash &&
			u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now) {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *Users) UpdateProfile(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	cur, ok := r.s.users[u.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if r.emailTaken(u.Email, u.ID) {
		return repositories.ErrDuplicate
	}
	cur.Name, cur.Email, cur.Company = u.Name, u.Email, u.Company
	cur.UpdatedAt = r.s.now()
	u.UpdatedAt = cur.UpdatedAt
	r.s.users[u.ID] = cur
	return nil
}

func (r *Users) SetPassword(_ context.Context, id uuid.UUID, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = hash
	u.ResetPasswordTokenHash = nil
	u.ResetPasswordExpire = nil
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func (r *Users) SetResetToken(_ context.Context, id uuid.UUID, tokenHash string, expire time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.ResetPasswordTokenHash = &tokenHash
	u.ResetPasswordExpire = &expire
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func (r *Users) List(_ context.Context, limit, offset int) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		all = append(all, u)
	}
	byCreatedDesc(all, func(u models.User) time.Time { return u.CreatedAt }, func(u models.User) uuid.UUID { return u.ID })

	start := min(offset, len(all))
	end := min(start+limit, len(all))
	return all[start:end], nil
}

func (r *Users) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}
