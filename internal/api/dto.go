package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Pipeflow/internal/domain"
	"github.com/shaiso/Pipeflow/internal/prefect"
)

// --- Pipeline DTOs ---

// PipelineResponse — собранный pipeline.
type PipelineResponse struct {
	StartSeq int                     `json:"start_seq"`
	NextSeq  int                     `json:"next_seq"`
	Tasks    []domain.TaskDescriptor `json:"tasks"`
	Skipped  []domain.SkippedTask    `json:"skipped"`
}

// PipelineFromDomain преобразует domain.Pipeline в PipelineResponse.
func PipelineFromDomain(p *domain.Pipeline) PipelineResponse {
	resp := PipelineResponse{
		StartSeq: p.StartSeq,
		NextSeq:  p.NextSeq(),
		Tasks:    p.Tasks,
		Skipped:  p.Skipped,
	}
	if resp.Tasks == nil {
		resp.Tasks = []domain.TaskDescriptor{}
	}
	if resp.Skipped == nil {
		resp.Skipped = []domain.SkippedTask{}
	}
	return resp
}

// --- Deployment DTOs ---

// DeployRequest — запрос на создание deployment.
type DeployRequest struct {
	// Cron — расписание. Пустое — только ручной запуск.
	Cron string `json:"cron"`
}

// DeploymentResponse — deployment организации в движке.
type DeploymentResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Tags []string  `json:"tags"`
	Cron string    `json:"cron"`
}

// DeploymentFromEngine преобразует prefect.Deployment в DeploymentResponse.
func DeploymentFromEngine(d prefect.Deployment) DeploymentResponse {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return DeploymentResponse{
		ID:   d.ID,
		Name: d.Name,
		Tags: tags,
		Cron: d.Cron(),
	}
}

// --- Block DTOs ---

// BlockDocumentResponse — документ блока в движке.
type BlockDocumentResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	BlockType string         `json:"block_type,omitempty"`
	Data      map[string]any `json:"data"`
}

// BlockDocumentFromEngine преобразует prefect.BlockDocument в BlockDocumentResponse.
func BlockDocumentFromEngine(d *prefect.BlockDocument) BlockDocumentResponse {
	resp := BlockDocumentResponse{
		ID:   d.ID,
		Name: d.Name,
		Data: d.Data,
	}
	if d.BlockType != nil {
		resp.BlockType = d.BlockType.Name
	}
	if resp.Data == nil {
		resp.Data = map[string]any{}
	}
	return resp
}

// --- Helpers ---

// queryInt читает неотрицательный целый query-параметр.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", name)
	}
	return n, nil
}

// pathUUID читает uuid из параметра пути.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}
