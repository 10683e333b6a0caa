package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Pipeflow/internal/blocks"
	"github.com/shaiso/Pipeflow/internal/deployment"
	"github.com/shaiso/Pipeflow/internal/domain"
	"github.com/shaiso/Pipeflow/internal/mq"
	"github.com/shaiso/Pipeflow/internal/pipeline"
	"github.com/shaiso/Pipeflow/internal/prefect"
)

// OrgStore — организации, dataflow и dbt-проекты.
type OrgStore interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Org, error)
	GetDataflow(ctx context.Context, orgID, dataflowID uuid.UUID) (*domain.Dataflow, error)
	GetTransformContext(ctx context.Context, orgID uuid.UUID) (*domain.TransformContext, error)
}

// TaskStore — задачи dataflow.
type TaskStore interface {
	ListByDataflow(ctx context.Context, dataflowID uuid.UUID) ([]domain.OrgTask, error)
}

// BlockStore — блоки организаций.
type BlockStore interface {
	FindByType(ctx context.Context, orgID uuid.UUID, blockType domain.BlockType) (*domain.Block, error)
}

// BlockManager — создание, просмотр и удаление блоков движка.
type BlockManager interface {
	CreateAirbyteServer(ctx context.Context, org *domain.Org, spec blocks.AirbyteServerSpec) (*domain.Block, error)
	CreateAirbyteConnection(ctx context.Context, org *domain.Org, spec blocks.AirbyteConnectionSpec) (*domain.Block, error)
	CreateShell(ctx context.Context, org *domain.Org, spec blocks.ShellSpec) (*domain.Block, error)
	Get(ctx context.Context, org *domain.Org, blockID uuid.UUID) (*prefect.BlockDocument, error)
	Delete(ctx context.Context, org *domain.Org, blockID uuid.UUID) error
}

// Assembler собирает pipeline.
type Assembler interface {
	Assemble(ctx context.Context, orgID uuid.UUID, tasks []domain.OrgTask, ectx pipeline.ExecutionContext, startSeq int) (*domain.Pipeline, error)
}

// LockResolver определяет блокировку dataflow.
type LockResolver interface {
	Resolve(ctx context.Context, dataflowID uuid.UUID) (*domain.LockView, error)
}

// LogCollector собирает логи графа run.
type LogCollector interface {
	Collect(ctx context.Context, runID uuid.UUID, offset int) (*domain.LogPage, error)
}

// Deployer создаёт deployment для dataflow.
type Deployer interface {
	Deploy(ctx context.Context, org *domain.Org, df *domain.Dataflow, p *domain.Pipeline, cron string) (*deployment.Result, error)
}

// DeploymentEngine — запросы к движку про deployments.
type DeploymentEngine interface {
	ListFlowRunsByDeployment(ctx context.Context, deploymentID uuid.UUID, limit int) ([]domain.FlowRunSummary, error)
	ListDeploymentsByTag(ctx context.Context, tag string) ([]prefect.Deployment, error)
}

// EventPublisher публикует pipeline.assembled.
type EventPublisher interface {
	PublishPipelineAssembled(ctx context.Context, payload mq.PipelineAssembledPayload) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	orgs      OrgStore
	tasks     TaskStore
	blocks    BlockStore
	manager   BlockManager
	assembler Assembler
	locks     LockResolver
	logs      LogCollector
	deployer  Deployer
	engine    DeploymentEngine
	events    EventPublisher
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Orgs      OrgStore
	Tasks     TaskStore
	Blocks    BlockStore
	Manager   BlockManager
	Assembler Assembler
	Locks     LockResolver
	Logs      LogCollector
	Deployer  Deployer
	Engine    DeploymentEngine

	// Events — опционально: без брокера события не публикуются.
	Events EventPublisher

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		orgs:      cfg.Orgs,
		tasks:     cfg.Tasks,
		blocks:    cfg.Blocks,
		manager:   cfg.Manager,
		assembler: cfg.Assembler,
		locks:     cfg.Locks,
		logs:      cfg.Logs,
		deployer:  cfg.Deployer,
		engine:    cfg.Engine,
		events:    cfg.Events,
		logger:    logger,
	}
}
