package companies

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowboard/backend/internal/models"
)

// Repository handles company (tenant) persistence. Companies are created
// lazily and never deleted.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a companies repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a company. Domain may be empty for legacy rows.
func (r *Repository) Create(ctx context.Context, company *models.Company) error {
	const q = `INSERT INTO companies (id, name, domain)
		VALUES (gen_random_uuid(), $1, NULLIF($2, ''))
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, company.Name, strings.ToLower(company.Domain)).
		Scan(&company.ID, &company.CreatedAt, &company.UpdatedAt)
}

// GetByID returns a company by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	const q = `SELECT id, name, COALESCE(domain, ''), created_at, updated_at FROM companies WHERE id = $1`
	var company models.Company
	err := r.pool.QueryRow(ctx, q, id).Scan(&company.ID, &company.Name, &company.Domain, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// GetByDomain returns the company registered for a lower-cased domain.
func (r *Repository) GetByDomain(ctx context.Context, domain string) (*models.Company, error) {
	const q = `SELECT id, name, COALESCE(domain, ''), created_at, updated_at FROM companies WHERE domain = $1`
	var company models.Company
	err := r.pool.QueryRow(ctx, q, strings.ToLower(domain)).
		Scan(&company.ID, &company.Name, &company.Domain, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &company, nil
}

// SetDomain backfills the domain on a company that predates domain support.
func (r *Repository) SetDomain(ctx context.Context, id uuid.UUID, domain string) error {
	const q = `UPDATE companies SET domain = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.pool.Exec(ctx, q, strings.ToLower(domain), id)
	return err
}

// List returns all companies sorted by name (public, for registration UI).
func (r *Repository) List(ctx context.Context) ([]models.Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, COALESCE(domain, ''), created_at, updated_at FROM companies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Company
	for rows.Next() {
		var company models.Company
		if err := rows.Scan(&company.ID, &company.Name, &company.Domain, &company.CreatedAt, &company.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, company)
	}
	return list, rows.Err()
}
