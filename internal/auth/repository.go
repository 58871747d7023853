package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowboard/backend/internal/models"
)

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, company_id, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.CompanyID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by lower-cased email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email)))
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string, role models.Role, companyID *uuid.UUID) (*models.User, error) {
	const q = `INSERT INTO users (name, email, password_hash, role, company_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, name, strings.ToLower(email), passwordHash, string(role), companyID))
}

// ListByCompany returns the company's users sorted by name.
func (r *Repository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.UserPublic, error) {
	const q = `SELECT id, name, email, role, company_id, created_at FROM users WHERE company_id = $1 ORDER BY name`
	return r.listPublic(ctx, q, companyID)
}

// ListAll returns every user on the platform, newest-first (break-glass admin).
func (r *Repository) ListAll(ctx context.Context) ([]models.UserPublic, error) {
	const q = `SELECT id, name, email, role, company_id, created_at FROM users ORDER BY created_at DESC`
	return r.listPublic(ctx, q)
}

func (r *Repository) listPublic(ctx context.Context, q string, args ...any) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CompanyID, &u.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// CountByCompany returns the number of users in a company.
func (r *Repository) CountByCompany(ctx context.Context, companyID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE company_id = $1`, companyID).Scan(&n)
	return n, err
}

// CountAdminsByCompany returns the number of admins in a company. The
// last-admin demotion guard reads this.
func (r *Repository) CountAdminsByCompany(ctx context.Context, companyID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE company_id = $1 AND role = 'admin'`, companyID).Scan(&n)
	return n, err
}

// SetRole updates a user's role.
func (r *Repository) SetRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2`, string(role), id)
	return err
}

// AttachCompany assigns a legacy user to a company, optionally changing role
// in the same write (first user of a fresh company becomes admin).
func (r *Repository) AttachCompany(ctx context.Context, id, companyID uuid.UUID, role models.Role) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET company_id = $1, role = $2, updated_at = NOW() WHERE id = $3`,
		companyID, string(role), id)
	return err
}
