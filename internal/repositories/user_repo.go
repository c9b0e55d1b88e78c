package repositories

import (
	"context"
	"time"

	"github.com/campaign-manager/backend/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, role, company,
	reset_password_token_hash, reset_password_expire, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Company,
		&u.ResetPasswordTokenHash, &u.ResetPasswordExpire, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, role, company)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, u.Name, u.Email, u.PasswordHash, u.Role, u.Company,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return mapErr(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

// GetByResetToken finds the user holding an unexpired reset token hash.
func (r *UserRepo) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE reset_password_token_hash = $1 AND reset_password_expire > $2
	`, tokenHash, now))
}

// UpdateProfile writes name, email and company.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *models.User) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET name = $1, email = $2, company = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`, u.Name, u.Email, u.Company, u.ID).Scan(&u.UpdatedAt)
	return mapErr(err)
}

// SetPassword stores a new hash and clears any pending reset token.
func (r *UserRepo) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	return requireAffected(r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, reset_password_token_hash = NULL,
		       reset_password_expire = NULL, updated_at = now()
		WHERE id = $2
	`, hash, id))
}

func (r *UserRepo) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expire time.Time) error {
	return requireAffected(r.pool.Exec(ctx, `
		UPDATE users SET reset_password_token_hash = $1, reset_password_expire = $2, updated_at = now()
		WHERE id = $3
	`, tokenHash, expire, id))
}

func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY created_at DESC, id ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}
