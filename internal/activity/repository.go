package activity

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flowboard/backend/internal/models"
)

// DefaultLimit caps how much history a single activity read returns.
const DefaultLimit = 100

// Repository handles the append-only task activity log. Records are inserted
// and read, never updated or deleted.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an activity repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const insertActivity = `INSERT INTO task_activities (task_id, user_id, user_name, action, field, old_value, new_value)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Append writes one activity record.
func (r *Repository) Append(ctx context.Context, rec models.TaskActivity) error {
	_, err := r.pool.Exec(ctx, insertActivity,
		rec.TaskID, rec.UserID, rec.UserName, rec.Action, rec.Field, rec.OldValue, rec.NewValue)
	return err
}

// AppendAll writes a batch of activity records from one logical operation.
func (r *Repository) AppendAll(ctx context.Context, recs []models.TaskActivity) error {
	if len(recs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range recs {
		batch.Queue(insertActivity,
			rec.TaskID, rec.UserID, rec.UserName, rec.Action, rec.Field, rec.OldValue, rec.NewValue)
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

// ListByTask returns a task's activity, newest-first, capped at limit
// (DefaultLimit when limit <= 0).
func (r *Repository) ListByTask(ctx context.Context, taskID uuid.UUID, limit int) ([]models.TaskActivity, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	const q = `SELECT id, task_id, user_id, user_name, action, field, old_value, new_value, created_at
		FROM task_activities WHERE task_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, taskID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.TaskActivity
	for rows.Next() {
		var rec models.TaskActivity
		if err := rows.Scan(&rec.ID, &rec.TaskID, &rec.UserID, &rec.UserName, &rec.Action, &rec.Field, &rec.OldValue, &rec.NewValue, &rec.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}
