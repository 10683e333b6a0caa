package prefect

import (
	"context"

	"github.com/google/uuid"
	"github.com/shaiso/Pipeflow/internal/domain"
)

// Сортировки движка.
const (
	sortTimestampAsc         = "TIMESTAMP_ASC"
	sortExpectedStartTimeAsc = "EXPECTED_START_TIME_ASC"
	sortStartTimeDesc        = "START_TIME_DESC"
)

// GetFlowRun возвращает flow run по ID.
// Если движок не знает такой run (404), возвращает nil без ошибки.
func (c *Client) GetFlowRun(ctx context.Context, id uuid.UUID) (*FlowRun, error) {
	var run FlowRun
	err := c.get(ctx, "flow_runs.get", "flow_runs/"+id.String(), &run)
	if IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type taskRunFilter struct {
	FlowRuns idFilter `json:"flow_runs"`
	Sort     string   `json:"sort"`
	Offset   int      `json:"offset"`
	Limit    int      `json:"limit"`
}

// RunGraph возвращает все узлы графа flow run в порядке ожидаемого старта.
//
// Движок ограничивает ответ filter-эндпоинта, поэтому task runs читаются
// страницами, пока не придёт неполная.
func (c *Client) RunGraph(ctx context.Context, runID uuid.UUID) ([]domain.RunGraphNode, error) {
	body := taskRunFilter{
		FlowRuns: idFilter{ID: anyOf[uuid.UUID]{Any: []uuid.UUID{runID}}},
		Sort:     sortExpectedStartTimeAsc,
		Limit:    c.pageSize,
	}

	var nodes []domain.RunGraphNode
	for {
		var page []TaskRun
		if err := c.post(ctx, "task_runs.filter", "task_runs/filter", body, &page); err != nil {
			return nil, err
		}

		for _, tr := range page {
			nodes = append(nodes, tr.Node())
		}
		if len(page) < body.Limit {
			break
		}
		body.Offset += len(page)
	}

	if nodes == nil {
		nodes = []domain.RunGraphNode{}
	}
	return nodes, nil
}

type logFilter struct {
	Logs struct {
		Operator  string           `json:"operator"`
		FlowRunID anyOf[uuid.UUID] `json:"flow_run_id"`
	} `json:"logs"`
	Sort   string `json:"sort"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit,omitempty"`
}

// FilterLogs возвращает логи всех указанных runs одним запросом,
// по возрастанию timestamp. limit <= 0 оставляет размер страницы движку.
func (c *Client) FilterLogs(ctx context.Context, runIDs []uuid.UUID, offset, limit int) ([]LogRecord, error) {
	var body logFilter
	body.Logs.Operator = "and_"
	body.Logs.FlowRunID = anyOf[uuid.UUID]{Any: runIDs}
	body.Sort = sortTimestampAsc
	body.Offset = offset
	if limit > 0 {
		body.Limit = limit
	}

	var records []LogRecord
	if err := c.post(ctx, "logs.filter", "logs/filter", body, &records); err != nil {
		return nil, err
	}
	return records, nil
}

type flowRunFilter struct {
	Sort        string   `json:"sort"`
	Deployments idFilter `json:"deployments"`
	FlowRuns    struct {
		Operator string `json:"operator"`
		State    struct {
			Type anyOf[domain.StateType] `json:"type"`
		} `json:"state"`
	} `json:"flow_runs"`
	Limit int `json:"limit,omitempty"`
}

// ListFlowRunsByDeployment возвращает завершённые (COMPLETED/FAILED) runs deployment'а,
// начиная с последнего. limit <= 0 — без ограничения.
func (c *Client) ListFlowRunsByDeployment(ctx context.Context, deploymentID uuid.UUID, limit int) ([]domain.FlowRunSummary, error) {
	var body flowRunFilter
	body.Sort = sortStartTimeDesc
	body.Deployments = idFilter{ID: anyOf[uuid.UUID]{Any: []uuid.UUID{deploymentID}}}
	body.FlowRuns.Operator = "and_"
	body.FlowRuns.State.Type = anyOf[domain.StateType]{Any: []domain.StateType{domain.StateCompleted, domain.StateFailed}}
	if limit > 0 {
		body.Limit = limit
	}

	var runs []FlowRun
	if err := c.post(ctx, "flow_runs.filter", "flow_runs/filter", body, &runs); err != nil {
		return nil, err
	}

	result := make([]domain.FlowRunSummary, len(runs))
	for i, run := range runs {
		result[i] = domain.FlowRunSummary{
			ID:        run.ID,
			Name:      run.Name,
			Tags:      run.Tags,
			StartTime: run.StartTime,
			Status:    run.StateType,
		}
	}
	return result, nil
}
