package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/Pipeflow/internal/blocks"
)

// CreateAirbyteServer создаёт блок Airbyte server.
// POST /api/v1/orgs/{slug}/blocks/airbyte-server
func (h *Handler) CreateAirbyteServer(w http.ResponseWriter, r *http.Request) {
	var spec blocks.AirbyteServerSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	org, err := h.orgs.GetBySlug(r.Context(), r.PathValue("slug"))
	if HandleError(w, h.logger, err, "org not found") {
		return
	}

	block, err := h.manager.CreateAirbyteServer(r.Context(), org, spec)
	if HandleError(w, h.logger, err, "") {
		return
	}

	Created(w, block)
}

// CreateAirbyteConnection создаёт блок Airbyte connection.
// POST /api/v1/orgs/{slug}/blocks/airbyte-connection
func (h *Handler) CreateAirbyteConnection(w http.ResponseWriter, r *http.Request) {
	var spec blocks.AirbyteConnectionSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	org, err := h.orgs.GetBySlug(r.Context(), r.PathValue("slug"))
	if HandleError(w, h.logger, err, "org not found") {
		return
	}

	block, err := h.manager.CreateAirbyteConnection(r.Context(), org, spec)
	if HandleError(w, h.logger, err, "") {
		return
	}

	Created(w, block)
}

// CreateShellBlock создаёт блок shell-операции.
// POST /api/v1/orgs/{slug}/blocks/shell
func (h *Handler) CreateShellBlock(w http.ResponseWriter, r *http.Request) {
	var spec blocks.ShellSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	org, err := h.orgs.GetBySlug(r.Context(), r.PathValue("slug"))
	if HandleError(w, h.logger, err, "org not found") {
		return
	}

	block, err := h.manager.CreateShell(r.Context(), org, spec)
	if HandleError(w, h.logger, err, "") {
		return
	}

	Created(w, block)
}

// GetBlock возвращает документ блока организации.
// GET /api/v1/orgs/{slug}/blocks/{block_id}
func (h *Handler) GetBlock(w http.ResponseWriter, r *http.Request) {
	blockID, err := pathUUID(r, "block_id")
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	org, err := h.orgs.GetBySlug(r.Context(), r.PathValue("slug"))
	if HandleError(w, h.logger, err, "org not found") {
		return
	}

	doc, err := h.manager.Get(r.Context(), org, blockID)
	if HandleError(w, h.logger, err, "block not found") {
		return
	}

	Success(w, BlockDocumentFromEngine(doc))
}

// DeleteBlock удаляет блок организации.
// DELETE /api/v1/orgs/{slug}/blocks/{block_id}
func (h *Handler) DeleteBlock(w http.ResponseWriter, r *http.Request) {
	blockID, err := pathUUID(r, "block_id")
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	org, err := h.orgs.GetBySlug(r.Context(), r.PathValue("slug"))
	if HandleError(w, h.logger, err, "org not found") {
		return
	}

	err = h.manager.Delete(r.Context(), org, blockID)
	if HandleError(w, h.logger, err, "block not found") {
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
