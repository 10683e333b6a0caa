package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Pipeflow/internal/domain"
)

// LockRepo — блокировки задач.
type LockRepo struct {
	pool *pgxpool.Pool
}

// NewLockRepo создаёт новый LockRepo.
func NewLockRepo(pool *pgxpool.Pool) *LockRepo {
	return &LockRepo{pool: pool}
}

// FindByTasks возвращает первую блокировку среди задач taskIDs.
// Если ни одна задача не заблокирована, возвращает ErrNotFound.
func (r *LockRepo) FindByTasks(ctx context.Context, taskIDs []uuid.UUID) (*domain.Lock, error) {
	if len(taskIDs) == 0 {
		return nil, ErrNotFound
	}

	query := `
		SELECT tl.orgtask_id, u.email, tl.locked_at, tl.flow_run_id, tl.locking_dataflow_id
		FROM task_locks tl
		JOIN users u ON u.id = tl.locked_by
		WHERE tl.orgtask_id = ANY($1)
		ORDER BY tl.locked_at
		LIMIT 1
	`
	var lock domain.Lock
	err := r.pool.QueryRow(ctx, query, taskIDs).Scan(
		&lock.OrgTaskID,
		&lock.LockedBy,
		&lock.LockedAt,
		&lock.FlowRunID,
		&lock.LockingDataflowID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find task lock: %w", err)
	}
	return &lock, nil
}
