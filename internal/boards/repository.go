package boards

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowboard/backend/internal/models"
)

// Repository handles board persistence. The section array lives in a jsonb
// column, so every section edit rewrites the whole array in one UPDATE
// (last-writer-wins for concurrent edits).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a boards repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const boardColumns = `id, name, description, user_id, company_id, assignees, sections, created_at, updated_at`

func scanBoard(row interface{ Scan(dest ...any) error }) (*models.Board, error) {
	var b models.Board
	var sections []byte
	err := row.Scan(&b.ID, &b.Name, &b.Description, &b.UserID, &b.CompanyID, &b.Assignees, &sections, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sections, &b.Sections); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a new board.
func (r *Repository) Create(ctx context.Context, b *models.Board) error {
	sections, err := json.Marshal(b.Sections)
	if err != nil {
		return err
	}
	const q = `INSERT INTO boards (id, name, description, user_id, company_id, assignees, sections)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6::jsonb)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, b.Name, b.Description, b.UserID, b.CompanyID, b.Assignees, sections).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// GetByID returns a board by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	return scanBoard(r.pool.QueryRow(ctx, `SELECT `+boardColumns+` FROM boards WHERE id = $1`, id))
}

// ListVisible returns the boards a user can see in their company: boards they
// own, boards listing their name as assignee, and boards holding at least one
// task assigned to their name. One query, deduplicated, newest-first.
func (r *Repository) ListVisible(ctx context.Context, companyID, userID uuid.UUID, userName string) ([]models.Board, error) {
	const q = `SELECT ` + boardColumns + ` FROM boards b
		WHERE b.company_id = $1
		  AND (b.user_id = $2
		       OR $3 = ANY (b.assignees)
		       OR EXISTS (SELECT 1 FROM tasks t WHERE t.board_id = b.id AND t.assignee = $3 AND t.company_id = $1))
		ORDER BY b.created_at DESC`
	rows, err := r.pool.Query(ctx, q, companyID, userID, userName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Board
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *b)
	}
	return list, rows.Err()
}

// Update rewrites board metadata (name, description, assignees).
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, description string, assignees []string) error {
	const q = `UPDATE boards SET name = $1, description = $2, assignees = $3, updated_at = NOW() WHERE id = $4`
	_, err := r.pool.Exec(ctx, q, name, description, assignees, id)
	return err
}

// UpdateSections rewrites the board's full section array.
func (r *Repository) UpdateSections(ctx context.Context, id uuid.UUID, sections []models.Section) error {
	body, err := json.Marshal(sections)
	if err != nil {
		return err
	}
	const q = `UPDATE boards SET sections = $1::jsonb, updated_at = NOW() WHERE id = $2`
	_, err = r.pool.Exec(ctx, q, body, id)
	return err
}

// DeleteWithTasks removes the board and every task on it in one transaction.
// Activity records are left behind (append-only log).
func (r *Repository) DeleteWithTasks(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE board_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// HasAssignedTask reports whether the board holds a task assigned to the
// display name within the company. Feeds the board read policy.
func (r *Repository) HasAssignedTask(ctx context.Context, boardID, companyID uuid.UUID, userName string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM tasks WHERE board_id = $1 AND company_id = $2 AND assignee = $3)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, boardID, companyID, userName).Scan(&exists)
	return exists, err
}

// CountTasksWithStatus returns how many of the board's tasks sit in the given
// section. Gates section deletion.
func (r *Repository) CountTasksWithStatus(ctx context.Context, boardID uuid.UUID, sectionID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE board_id = $1 AND status = $2`, boardID, sectionID).Scan(&n)
	return n, err
}
