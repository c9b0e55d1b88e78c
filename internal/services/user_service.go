package services

import (
	"context"
	"errors"
	"strings"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/query"
	"github.com/campaign-manager/backend/internal/repositories"
	"go.uber.org/zap"
)

type UserService struct {
	users UserStore
	conns ConnectionStore
	log   *zap.Logger
}

func NewUserService(users UserStore, conns ConnectionStore, log *zap.Logger) *UserService {
	return &UserService{users: users, conns: conns, log: log}
}

// Profile is a user with the summary of their platform connections.
type Profile struct {
	*models.User
	PlatformConnections []models.ConnectionSummary `json:"platformConnections"`
}

func (s *UserService) Profile(ctx context.Context, principal *models.User) (*Profile, error) {
	u, err := s.users.GetByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, "User not found")
		}
		return nil, err
	}
	conns, err := s.conns.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	p := &Profile{User: u, PlatformConnections: make([]models.ConnectionSummary, 0, len(conns))}
	for i := range conns {
		p.PlatformConnections = append(p.PlatformConnections, conns[i].Summary())
	}
	return p, nil
}

type ProfileUpdate struct {
	Name    *string
	Email   *string
	Company *string
}

// UpdateProfile applies the non-empty fields of in.
func (s *UserService) UpdateProfile(ctx context.Context, principal *models.User, in ProfileUpdate) (*models.User, error) {
	u, err := s.users.GetByID(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil && *in.Email != "" {
		email := normalizeEmail(*in.Email)
		if !models.IsValidEmail(email) {
			return nil, invalid("email", "Please add a valid email")
		}
		u.Email = email
	}
	if in.Company != nil && *in.Company != "" {
		u.Company = in.Company
	}

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, newError(ErrConflict, "Email already in use")
		}
		return nil, err
	}
	return u, nil
}

type UserPage struct {
	Items      []models.User
	Total      int64
	Pagination query.Pagination
}

// List pages through every user. Callers gate it to admins.
func (s *UserService) List(ctx context.Context, page, limit int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > query.MaxLimit {
		limit = 25
	}
	users, err := s.users.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &UserPage{Items: users, Total: total, Pagination: query.Paginate(page, limit, total)}, nil
}
