package rungraph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/shaiso/Pipeflow/internal/domain"
	"github.com/shaiso/Pipeflow/internal/prefect"
	"github.com/shaiso/Pipeflow/internal/telemetry"
)

const defaultPageLimit = 200

// GraphQuerier возвращает узлы графа flow run.
type GraphQuerier interface {
	RunGraph(ctx context.Context, runID uuid.UUID) ([]domain.RunGraphNode, error)
}

// LogQuerier возвращает логи набора runs по возрастанию timestamp.
type LogQuerier interface {
	FilterLogs(ctx context.Context, runIDs []uuid.UUID, offset, limit int) ([]prefect.LogRecord, error)
}

// Engine — то, что Collector использует от движка.
type Engine interface {
	GraphQuerier
	LogQuerier
}

// Collector собирает логи run вместе со всеми дочерними runs.
//
// Ошибки движка возвращаются вызывающему (ErrQuery): неполная страница
// логов видна пользователю и не должна молча выдаваться за полную.
type Collector struct {
	engine    Engine
	pageLimit int
	logger    *slog.Logger
}

// Config — конфигурация Collector.
type Config struct {
	Engine Engine

	// PageLimit — размер страницы логов (default: 200).
	PageLimit int

	Logger *slog.Logger
}

// New создаёт новый Collector.
func New(cfg Config) *Collector {
	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Collector{
		engine:    cfg.Engine,
		pageLimit: pageLimit,
		logger:    logger,
	}
}

// Collect возвращает страницу логов run и всех его потомков.
//
// Логи упорядочены по timestamp независимо от того, какой run их записал.
// offset возвращается без изменений.
func (c *Collector) Collect(ctx context.Context, runID uuid.UUID, offset int) (*domain.LogPage, error) {
	runIDs, err := c.RunIDs(ctx, runID)
	if err != nil {
		return nil, err
	}

	page := &domain.LogPage{Offset: offset, Logs: []domain.LogEntry{}}
	if len(runIDs) == 0 {
		return page, nil
	}

	records, err := c.engine.FilterLogs(ctx, runIDs, offset, c.pageLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: logs for %d runs: %w", ErrQuery, len(runIDs), err)
	}

	page.Logs = make([]domain.LogEntry, len(records))
	for i, rec := range records {
		page.Logs[i] = rec.Entry()
	}

	// Движок уже сортирует, стабильная сортировка лишь закрепляет инвариант.
	sort.SliceStable(page.Logs, func(i, j int) bool {
		return page.Logs[i].Timestamp.Before(page.Logs[j].Timestamp)
	})

	c.logger.Debug("collected run logs",
		"flow_run_id", runID,
		"runs", len(runIDs),
		"offset", offset,
		"logs", len(page.Logs),
	)
	return page, nil
}

// RunIDs возвращает run и всех его потомков в порядке обхода в глубину (pre-order).
//
// uuid.Nil — пустой граф. Повторная встреча run означает цикл в графе движка:
// обход прерывается с ErrRunGraphCycle.
func (c *Collector) RunIDs(ctx context.Context, runID uuid.UUID) ([]uuid.UUID, error) {
	w := walker{
		engine:  c.engine,
		visited: make(map[uuid.UUID]struct{}),
	}

	if err := w.walk(ctx, runID); err != nil {
		return nil, err
	}

	telemetry.RunGraphSize.Observe(float64(len(w.ids)))
	return w.ids, nil
}

// walker — состояние одного обхода. Не переиспользуется.
type walker struct {
	engine  GraphQuerier
	visited map[uuid.UUID]struct{}
	ids     []uuid.UUID
}

func (w *walker) walk(ctx context.Context, runID uuid.UUID) error {
	if runID == uuid.Nil {
		return nil
	}

	if _, seen := w.visited[runID]; seen {
		return fmt.Errorf("%w: flow run %s reached twice", ErrRunGraphCycle, runID)
	}
	w.visited[runID] = struct{}{}
	w.ids = append(w.ids, runID)

	nodes, err := w.engine.RunGraph(ctx, runID)
	if err != nil {
		return fmt.Errorf("%w: graph of flow run %s: %w", ErrQuery, runID, err)
	}

	for _, node := range nodes {
		if node.ChildRunID == nil {
			continue
		}
		if err := w.walk(ctx, *node.ChildRunID); err != nil {
			return err
		}
	}
	return nil
}
