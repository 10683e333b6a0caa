package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/Pipeflow/internal/domain"
)

// OrgTaskRepo — задачи организаций и их привязка к dataflow.
type OrgTaskRepo struct {
	pool *pgxpool.Pool
}

// NewOrgTaskRepo создаёт новый OrgTaskRepo.
func NewOrgTaskRepo(pool *pgxpool.Pool) *OrgTaskRepo {
	return &OrgTaskRepo{pool: pool}
}

// ListByDataflow возвращает задачи dataflow в порядке seq.
func (r *OrgTaskRepo) ListByDataflow(ctx context.Context, dataflowID uuid.UUID) ([]domain.OrgTask, error) {
	query := `
		SELECT ot.id, ot.org_id, ot.connection_id, ot.parameters, dot.seq,
		       t.slug, t.type, t.command, t.is_system
		FROM dataflow_orgtasks dot
		JOIN org_tasks ot ON ot.id = dot.orgtask_id
		JOIN tasks t ON t.slug = ot.task_slug
		WHERE dot.dataflow_id = $1
		ORDER BY dot.seq
	`
	rows, err := r.pool.Query(ctx, query, dataflowID)
	if err != nil {
		return nil, fmt.Errorf("list dataflow tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.OrgTask
	for rows.Next() {
		var (
			task         domain.OrgTask
			connectionID *string
			command      *string
			paramsJSON   []byte
		)
		if err := rows.Scan(
			&task.ID,
			&task.OrgID,
			&connectionID,
			&paramsJSON,
			&task.Seq,
			&task.Task.Slug,
			&task.Task.Type,
			&command,
			&task.Task.IsSystem,
		); err != nil {
			return nil, fmt.Errorf("scan dataflow task: %w", err)
		}

		task.ConnectionID = derefString(connectionID)
		task.Task.Command = derefString(command)

		if len(paramsJSON) > 0 {
			if err := json.Unmarshal(paramsJSON, &task.Params); err != nil {
				return nil, fmt.Errorf("unmarshal parameters of task %s: %w", task.ID, err)
			}
		}

		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// TaskIDsByDataflow возвращает id задач dataflow.
func (r *OrgTaskRepo) TaskIDsByDataflow(ctx context.Context, dataflowID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT orgtask_id
		FROM dataflow_orgtasks
		WHERE dataflow_id = $1
		ORDER BY seq
	`
	rows, err := r.pool.Query(ctx, query, dataflowID)
	if err != nil {
		return nil, fmt.Errorf("list dataflow task ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan task id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
