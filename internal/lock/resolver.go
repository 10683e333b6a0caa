package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Pipeflow/internal/domain"
	"github.com/shaiso/Pipeflow/internal/prefect"
	"github.com/shaiso/Pipeflow/internal/repo"
	"github.com/shaiso/Pipeflow/internal/telemetry"
)

// TaskLister возвращает задачи dataflow.
type TaskLister interface {
	TaskIDsByDataflow(ctx context.Context, dataflowID uuid.UUID) ([]uuid.UUID, error)
}

// LockFinder ищет блокировку среди задач.
// Возвращает repo.ErrNotFound, если ни одна задача не заблокирована.
type LockFinder interface {
	FindByTasks(ctx context.Context, taskIDs []uuid.UUID) (*domain.Lock, error)
}

// RunStatusGetter запрашивает живой статус run в движке.
// Для неизвестного движку run возвращает nil без ошибки.
type RunStatusGetter interface {
	GetFlowRun(ctx context.Context, id uuid.UUID) (*prefect.FlowRun, error)
}

// Resolver определяет, занят ли dataflow и чем.
//
// Ошибки движка не выходят наружу: статус остаётся queued и помечается Stale.
// Ошибки хранилища возвращаются вызывающему.
type Resolver struct {
	tasks  TaskLister
	locks  LockFinder
	runs   RunStatusGetter
	logger *slog.Logger
}

// Config — конфигурация Resolver.
type Config struct {
	Tasks  TaskLister
	Locks  LockFinder
	Runs   RunStatusGetter
	Logger *slog.Logger
}

// NewResolver создаёт новый Resolver.
func NewResolver(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		tasks:  cfg.Tasks,
		locks:  cfg.Locks,
		runs:   cfg.Runs,
		logger: logger,
	}
}

// Resolve возвращает состояние блокировки dataflow.
// nil без ошибки — блокировки нет, это обычный случай.
func (r *Resolver) Resolve(ctx context.Context, dataflowID uuid.UUID) (*domain.LockView, error) {
	taskIDs, err := r.tasks.TaskIDsByDataflow(ctx, dataflowID)
	if err != nil {
		return nil, fmt.Errorf("list dataflow tasks: %w", err)
	}
	if len(taskIDs) == 0 {
		return nil, nil
	}

	lock, err := r.locks.FindByTasks(ctx, taskIDs)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find task lock: %w", err)
	}

	view := &domain.LockView{
		LockedBy:  lock.LockedBy,
		LockedAt:  lock.LockedAt,
		FlowRunID: lock.FlowRunID,
		Status:    domain.LockStatusQueued,
	}

	if lock.FlowRunID != nil {
		status, err := r.runStatus(ctx, *lock.FlowRunID)
		if err != nil {
			r.logger.Warn("engine status unavailable, reporting last known lock status",
				"dataflow_id", dataflowID,
				"flow_run_id", *lock.FlowRunID,
				"status", view.Status,
				"error", err,
			)
			telemetry.LockStatusDegraded.Inc()
			view.Stale = true
		} else {
			view.Status = status
		}
	}

	// Блокировку держит другой dataflow с общей задачей — не раскрываем статус чужого run.
	if !lock.HeldBy(dataflowID) {
		view.Status = domain.LockStatusLocked
	}

	telemetry.LockStatusResolved.WithLabelValues(string(view.Status)).Inc()
	return view, nil
}

// runStatus переводит состояние run в статус блокировки.
func (r *Resolver) runStatus(ctx context.Context, runID uuid.UUID) (domain.LockStatus, error) {
	run, err := r.runs.GetFlowRun(ctx, runID)
	if err != nil {
		return "", err
	}
	if run == nil {
		return domain.LockStatusComplete, nil
	}
	return domain.LockStatusFromState(run.StateType), nil
}
