package prefect

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// EnsureFlow создаёт flow с указанным именем или возвращает существующий.
// Движок отвечает на POST flows/ идемпотентно по имени.
func (c *Client) EnsureFlow(ctx context.Context, name string) (*Flow, error) {
	var flow Flow
	body := map[string]string{"name": name}
	if err := c.post(ctx, "flows.create", "flows/", body, &flow); err != nil {
		return nil, err
	}
	return &flow, nil
}

// CreateDeployment создаёт deployment и возвращает его.
func (c *Client) CreateDeployment(ctx context.Context, payload DeploymentCreate) (*Deployment, error) {
	if payload.FlowID == uuid.Nil {
		return nil, fmt.Errorf("%w: flow_id is required", ErrRequest)
	}

	var deployment Deployment
	if err := c.post(ctx, "deployments.create", "deployments/", payload, &deployment); err != nil {
		return nil, err
	}
	return &deployment, nil
}

// DeleteDeployment удаляет deployment.
func (c *Client) DeleteDeployment(ctx context.Context, id uuid.UUID) error {
	return c.delete(ctx, "deployments.delete", "deployments/"+id.String())
}

type deploymentFilter struct {
	Deployments struct {
		Tags allOf[string] `json:"tags"`
	} `json:"deployments"`
}

// ListDeploymentsByTag возвращает deployments с тегом организации.
func (c *Client) ListDeploymentsByTag(ctx context.Context, tag string) ([]Deployment, error) {
	var body deploymentFilter
	body.Deployments.Tags = allOf[string]{All: []string{tag}}

	var deployments []Deployment
	if err := c.post(ctx, "deployments.filter", "deployments/filter", body, &deployments); err != nil {
		return nil, err
	}
	return deployments, nil
}
