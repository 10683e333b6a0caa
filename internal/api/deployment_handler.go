package api

import (
	"net/http"
)

// ListOrgDeployments возвращает deployments организации из движка.
// GET /api/v1/orgs/{slug}/deployments
func (h *Handler) ListOrgDeployments(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.GetBySlug(r.Context(), r.PathValue("slug"))
	if HandleError(w, h.logger, err, "org not found") {
		return
	}

	deployments, err := h.engine.ListDeploymentsByTag(r.Context(), org.Slug)
	if HandleError(w, h.logger, err, "") {
		return
	}

	result := make([]DeploymentResponse, len(deployments))
	for i, d := range deployments {
		result[i] = DeploymentFromEngine(d)
	}

	List(w, result, len(result))
}
