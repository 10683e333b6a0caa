package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Pipelines
	mux.Handle("POST /api/v1/orgs/{slug}/dataflows/{id}/pipeline", chain(http.HandlerFunc(h.AssemblePipeline)))
	mux.Handle("POST /api/v1/orgs/{slug}/dataflows/{id}/deployment", chain(http.HandlerFunc(h.DeployDataflow)))
	mux.Handle("GET /api/v1/dataflows/{id}/lock", chain(http.HandlerFunc(h.GetLock)))

	// Runs
	mux.Handle("GET /api/v1/flow_runs/{id}/logs", chain(http.HandlerFunc(h.GetRunLogs)))
	mux.Handle("GET /api/v1/deployments/{id}/flow_runs", chain(http.HandlerFunc(h.ListDeploymentRuns)))

	// Blocks
	mux.Handle("POST /api/v1/orgs/{slug}/blocks/airbyte-server", chain(http.HandlerFunc(h.CreateAirbyteServer)))
	mux.Handle("POST /api/v1/orgs/{slug}/blocks/airbyte-connection", chain(http.HandlerFunc(h.CreateAirbyteConnection)))
	mux.Handle("POST /api/v1/orgs/{slug}/blocks/shell", chain(http.HandlerFunc(h.CreateShellBlock)))
	mux.Handle("GET /api/v1/orgs/{slug}/blocks/{block_id}", chain(http.HandlerFunc(h.GetBlock)))
	mux.Handle("DELETE /api/v1/orgs/{slug}/blocks/{block_id}", chain(http.HandlerFunc(h.DeleteBlock)))

	// Deployments
	mux.Handle("GET /api/v1/orgs/{slug}/deployments", chain(http.HandlerFunc(h.ListOrgDeployments)))
}
