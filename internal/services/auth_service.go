package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/campaign-manager/backend/internal/auth"
	"github.com/campaign-manager/backend/internal/config"
	"github.com/campaign-manager/backend/internal/events"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/campaign-manager/backend/internal/repositories"
	"go.uber.org/zap"
)

type AuthService struct {
	cfg    *config.Config
	users  UserStore
	hasher *auth.PasswordHasher
	act    activity
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(
	cfg *config.Config,
	users UserStore,
	publisher events.Publisher,
	audit AuditStore,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		cfg:    cfg,
		users:  users,
		hasher: auth.NewPasswordHasher(cfg.BcryptCost),
		act:    activity{publisher: publisher, audit: audit, log: log},
		log:    log,
		now:    time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Company  *string
}

// Session is a user together with a freshly issued bearer token.
type Session struct {
	User  *models.User
	Token string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) issue(u *models.User) (*Session, error) {
	token, err := auth.GenerateJWT(s.cfg.JWTSecret, u.ID, s.cfg.JWTExpiration)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if !models.IsValidEmail(email) {
		return nil, invalid("email", "Please add a valid email")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return nil, invalid("password", "must be at least %d characters", auth.MinPasswordLength)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		Company:      in.Company,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("email", "User already exists")
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", u.ID.String()))
	return s.issue(u)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrUnauthenticated, "Invalid credentials")
		}
		return nil, err
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, newError(ErrUnauthenticated, "Invalid credentials")
	}
	return s.issue(u)
}

// Authenticate resolves a bearer token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, newError(ErrUnauthenticated, "Not authorized to access this route")
	}
	claims, err := auth.ParseJWT(s.cfg.JWTSecret, token)
	if err != nil {
		return nil, newError(ErrUnauthenticated, "Not authorized to access this route")
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrUnauthenticated, "Not authorized to access this route")
		}
		return nil, err
	}
	return u, nil
}

// ForgotPassword stores a reset token for email and announces it for delivery.
// Unknown addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return err
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	expire := s.now().Add(s.cfg.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, u.ID, hash, expire); err != nil {
		return err
	}

	s.act.record(ctx, u, u.ID, events.EventPasswordResetRequested, "user", u.ID, map[string]any{
		"email":       u.Email,
		"reset_token": token,
		"expires_at":  expire.UTC().Format(time.RFC3339),
	})
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (*Session, error) {
	if len(password) < auth.MinPasswordLength {
		return nil, invalid("password", "must be at least %d characters", auth.MinPasswordLength)
	}
	u, err := s.users.GetByResetToken(ctx, auth.HashResetToken(token), s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, invalid("token", "Invalid token")
		}
		return nil, err
	}
	if err := s.setPassword(ctx, u, password); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) UpdatePassword(ctx context.Context, principal *models.User, current, next string) (*Session, error) {
	u, err := s.users.GetByID(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Compare(u.PasswordHash, current); err != nil {
		return nil, newError(ErrUnauthenticated, "Password is incorrect")
	}
	if len(next) < auth.MinPasswordLength {
		return nil, invalid("newPassword", "must be at least %d characters", auth.MinPasswordLength)
	}
	if err := s.setPassword(ctx, u, next); err != nil {
		return nil, err
	}
	return s.issue(u)
}

func (s *AuthService) setPassword(ctx context.Context, u *models.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, u.ID, hash); err != nil {
		return err
	}
	u.PasswordHash = hash
	u.ResetPasswordTokenHash = nil
	u.ResetPasswordExpire = nil
	return nil
}
