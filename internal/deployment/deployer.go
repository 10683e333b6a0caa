package deployment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Pipeflow/internal/domain"
	"github.com/shaiso/Pipeflow/internal/mq"
	"github.com/shaiso/Pipeflow/internal/prefect"
)

// Engine — операции движка, нужные для деплоя.
type Engine interface {
	EnsureFlow(ctx context.Context, name string) (*prefect.Flow, error)
	CreateDeployment(ctx context.Context, payload prefect.DeploymentCreate) (*prefect.Deployment, error)
	DeleteDeployment(ctx context.Context, id uuid.UUID) error
}

// DataflowStore сохраняет ссылку на deployment в dataflow.
type DataflowStore interface {
	SetDeployment(ctx context.Context, dataflowID uuid.UUID, name, deploymentID, cron string) error
}

// EventPublisher публикует deployment.created.
type EventPublisher interface {
	PublishDeploymentCreated(ctx context.Context, payload mq.DeploymentCreatedPayload) error
}

// Result — созданный deployment.
type Result struct {
	DeploymentID   uuid.UUID  `json:"deployment_id"`
	DeploymentName string     `json:"deployment_name"`
	FlowID         uuid.UUID  `json:"flow_id"`
	Cron           string     `json:"cron,omitempty"`
	NextRun        *time.Time `json:"next_run,omitempty"`
}

// Deployer создаёт deployment для dataflow.
type Deployer struct {
	builder Builder
	engine  Engine
	store   DataflowStore
	events  EventPublisher
	logger  *slog.Logger
	now     func() time.Time
}

// Config — конфигурация Deployer.
type Config struct {
	Engine Engine
	Store  DataflowStore

	// Events — опционально; без брокера события не публикуются.
	Events EventPublisher

	Logger *slog.Logger
}

// NewDeployer создаёт новый Deployer.
func NewDeployer(cfg Config) *Deployer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Deployer{
		engine: cfg.Engine,
		store:  cfg.Store,
		events: cfg.Events,
		logger: logger,
		now:    time.Now,
	}
}

// Deploy создаёт flow и deployment в движке и сохраняет deployment в dataflow.
//
// Если dataflow не удалось обновить, созданный deployment удаляется, чтобы
// в движке не осталось расписания, о котором платформа не знает.
func (d *Deployer) Deploy(ctx context.Context, org *domain.Org, df *domain.Dataflow, pipeline *domain.Pipeline, cron string) (*Result, error) {
	payload, err := d.builder.Build(org, df, pipeline, cron)
	if err != nil {
		return nil, err
	}

	flow, err := d.engine.EnsureFlow(ctx, d.builder.FlowName(org))
	if err != nil {
		return nil, fmt.Errorf("ensure flow: %w", err)
	}
	payload.FlowID = flow.ID

	created, err := d.engine.CreateDeployment(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("create deployment: %w", err)
	}

	name := created.Name
	if name == "" {
		name = payload.Name
	}
	logger := d.logger.With("dataflow_id", df.ID, "deployment_id", created.ID)

	if err := d.store.SetDeployment(ctx, df.ID, name, created.ID.String(), cron); err != nil {
		if delErr := d.engine.DeleteDeployment(ctx, created.ID); delErr != nil {
			logger.Error("failed to roll back deployment", "error", delErr)
			err = errors.Join(err, delErr)
		}
		return nil, fmt.Errorf("save deployment: %w", err)
	}

	result := &Result{
		DeploymentID:   created.ID,
		DeploymentName: name,
		FlowID:         flow.ID,
		Cron:           cron,
	}
	if cron != "" {
		next, err := NextRun(cron, d.now())
		if err != nil {
			return nil, err
		}
		result.NextRun = &next
	}

	logger.Info("deployment created",
		"deployment_name", name,
		"tasks", len(pipeline.Tasks),
		"cron", cron,
	)

	if d.events != nil {
		event := mq.DeploymentCreatedPayload{
			OrgSlug:        org.Slug,
			DataflowID:     df.ID,
			DeploymentID:   created.ID,
			DeploymentName: name,
			Cron:           cron,
		}
		if err := d.events.PublishDeploymentCreated(ctx, event); err != nil {
			logger.Warn("failed to publish deployment.created", "error", err)
		}
	}

	return result, nil
}
