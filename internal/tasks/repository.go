package tasks

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowboard/backend/internal/models"
)

// Repository handles task persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a tasks repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, title, description, status, priority, assignee, user_id, board_id, company_id, created_at, updated_at`

func scanTask(row interface{ Scan(dest ...any) error }) (*models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Assignee,
		&t.UserID, &t.BoardID, &t.CompanyID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new task.
func (r *Repository) Create(ctx context.Context, t *models.Task) error {
	const q = `INSERT INTO tasks (id, title, description, status, priority, assignee, user_id, board_id, company_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, t.Title, t.Description, t.Status, string(t.Priority), t.Assignee,
		t.UserID, t.BoardID, t.CompanyID).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a task by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

// ListByBoard returns a board's tasks within the company, newest-first.
func (r *Repository) ListByBoard(ctx context.Context, boardID, companyID uuid.UUID) ([]models.Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE board_id = $1 AND company_id = $2 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, boardID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

// Update rewrites the task's mutable fields.
func (r *Repository) Update(ctx context.Context, t *models.Task) error {
	const q = `UPDATE tasks SET title = $1, description = $2, status = $3, priority = $4, assignee = $5, updated_at = NOW()
		WHERE id = $6 RETURNING updated_at`
	return r.pool.QueryRow(ctx, q, t.Title, t.Description, t.Status, string(t.Priority), t.Assignee, t.ID).
		Scan(&t.UpdatedAt)
}

// Delete removes a task. Its activity records stay behind.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}
