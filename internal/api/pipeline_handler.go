package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/Pipeflow/internal/domain"
	"github.com/shaiso/Pipeflow/internal/mq"
	"github.com/shaiso/Pipeflow/internal/pipeline"
	"github.com/shaiso/Pipeflow/internal/repo"
	"github.com/shaiso/Pipeflow/internal/telemetry"
)

// AssemblePipeline собирает pipeline dataflow.
// POST /api/v1/orgs/{slug}/dataflows/{id}/pipeline?start_seq=N
func (h *Handler) AssemblePipeline(w http.ResponseWriter, r *http.Request) {
	dataflowID, err := pathUUID(r, "id")
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	startSeq, err := queryInt(r, "start_seq", 0)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	org, df, p, err := h.assemble(r.Context(), r.PathValue("slug"), dataflowID, startSeq)
	if HandleError(w, h.logger, err, "org or dataflow not found") {
		return
	}

	h.publishAssembled(r.Context(), org, df, p)

	Success(w, PipelineFromDomain(p))
}

// DeployDataflow собирает pipeline и создаёт для него deployment.
// POST /api/v1/orgs/{slug}/dataflows/{id}/deployment
func (h *Handler) DeployDataflow(w http.ResponseWriter, r *http.Request) {
	dataflowID, err := pathUUID(r, "id")
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	var req DeployRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	org, df, p, err := h.assemble(r.Context(), r.PathValue("slug"), dataflowID, 0)
	if HandleError(w, h.logger, err, "org or dataflow not found") {
		return
	}

	result, err := h.deployer.Deploy(r.Context(), org, df, p, req.Cron)
	if HandleError(w, h.logger, err, "dataflow not found") {
		return
	}

	Created(w, result)
}

// GetLock возвращает блокировку dataflow или null.
// GET /api/v1/dataflows/{id}/lock
func (h *Handler) GetLock(w http.ResponseWriter, r *http.Request) {
	dataflowID, err := pathUUID(r, "id")
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	view, err := h.locks.Resolve(r.Context(), dataflowID)
	if HandleError(w, h.logger, err, "dataflow not found") {
		return
	}

	Success(w, view)
}

// assemble загружает dataflow организации и собирает его pipeline.
func (h *Handler) assemble(ctx context.Context, slug string, dataflowID uuid.UUID, startSeq int) (*domain.Org, *domain.Dataflow, *domain.Pipeline, error) {
	org, err := h.orgs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, nil, err
	}

	df, err := h.orgs.GetDataflow(ctx, org.ID, dataflowID)
	if err != nil {
		return nil, nil, nil, err
	}

	tasks, err := h.tasks.ListByDataflow(ctx, df.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	ectx, err := h.executionContext(ctx, org.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	logger := telemetry.WithDataflowID(telemetry.WithOrg(h.logger, org.Slug), df.ID.String())
	ctx = telemetry.WithLogger(ctx, logger)

	p, err := h.assembler.Assemble(ctx, org.ID, tasks, ectx, startSeq)
	if err != nil {
		return nil, nil, nil, err
	}
	return org, df, p, nil
}

// executionContext собирает блоки и dbt-проект организации.
// Отсутствующие части остаются nil: их обязательность проверяет сборка.
func (h *Handler) executionContext(ctx context.Context, orgID uuid.UUID) (pipeline.ExecutionContext, error) {
	var ectx pipeline.ExecutionContext

	server, err := h.blocks.FindByType(ctx, orgID, domain.BlockTypeAirbyteServer)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return ectx, fmt.Errorf("find airbyte server block: %w", err)
	}
	ectx.ServerBlock = server

	profile, err := h.blocks.FindByType(ctx, orgID, domain.BlockTypeDBTCLIProfile)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return ectx, fmt.Errorf("find dbt cli profile block: %w", err)
	}
	ectx.CLIProfileBlock = profile

	transform, err := h.orgs.GetTransformContext(ctx, orgID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return ectx, fmt.Errorf("get transform context: %w", err)
	}
	ectx.Transform = transform

	return ectx, nil
}

// publishAssembled публикует pipeline.assembled. Ошибка публикации не влияет на ответ.
func (h *Handler) publishAssembled(ctx context.Context, org *domain.Org, df *domain.Dataflow, p *domain.Pipeline) {
	if h.events == nil {
		return
	}

	resp := PipelineFromDomain(p)
	payload := mq.PipelineAssembledPayload{
		OrgSlug:    org.Slug,
		DataflowID: df.ID,
		Tasks:      resp.Tasks,
		Skipped:    resp.Skipped,
	}
	if err := h.events.PublishPipelineAssembled(ctx, payload); err != nil {
		h.logger.Warn("failed to publish pipeline.assembled", "dataflow_id", df.ID, "error", err)
	}
}
