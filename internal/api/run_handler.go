package api

import (
	"net/http"

	"github.com/shaiso/Pipeflow/internal/domain"
)

// GetRunLogs возвращает логи run вместе с логами дочерних runs.
// GET /api/v1/flow_runs/{id}/logs?offset=N
func (h *Handler) GetRunLogs(w http.ResponseWriter, r *http.Request) {
	runID, err := pathUUID(r, "id")
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	page, err := h.logs.Collect(r.Context(), runID, offset)
	if HandleError(w, h.logger, err, "flow run not found") {
		return
	}

	Success(w, page)
}

// ListDeploymentRuns возвращает завершённые runs deployment, новые первыми.
// GET /api/v1/deployments/{id}/flow_runs?limit=N
func (h *Handler) ListDeploymentRuns(w http.ResponseWriter, r *http.Request) {
	deploymentID, err := pathUUID(r, "id")
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	// 0 — без ограничения
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	runs, err := h.engine.ListFlowRunsByDeployment(r.Context(), deploymentID, limit)
	if HandleError(w, h.logger, err, "deployment not found") {
		return
	}
	if runs == nil {
		runs = []domain.FlowRunSummary{}
	}

	List(w, runs, len(runs))
}
