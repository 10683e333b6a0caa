package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/Pipeflow/internal/domain"
	"github.com/shaiso/Pipeflow/internal/repo"
	"github.com/shaiso/Pipeflow/internal/telemetry"
)

const defaultSecretFilter = "git-pull"

// BlockFinder ищет блоки организации.
//
// Возвращает repo.ErrNotFound, если подходящего блока нет.
type BlockFinder interface {
	FindFirst(ctx context.Context, orgID uuid.UUID, blockType domain.BlockType, nameContains string) (*domain.Block, error)
}

// TaskBuilder строит дескриптор одной задачи.
//
// ErrSkipTask означает, что дескриптора для задачи нет и сборка продолжается.
type TaskBuilder interface {
	Build(task *domain.OrgTask, ectx ExecutionContext, secret *domain.Block, seq int) (domain.TaskDescriptor, error)
}

// Assembler собирает pipeline из упорядоченного списка задач.
type Assembler struct {
	builder      TaskBuilder
	blocks       BlockFinder
	secretFilter string
	logger       *slog.Logger
}

// AssemblerConfig — конфигурация Assembler.
type AssemblerConfig struct {
	// Builder — построитель дескрипторов (default: NewBuilder(0)).
	Builder TaskBuilder

	// Blocks — поиск secret-блока для git pull.
	Blocks BlockFinder

	// SecretFilter — подстрока имени secret-блока (default: "git-pull").
	SecretFilter string

	Logger *slog.Logger
}

// NewAssembler создаёт новый Assembler.
func NewAssembler(cfg AssemblerConfig) *Assembler {
	var builder TaskBuilder = NewBuilder(0)
	if cfg.Builder != nil {
		builder = cfg.Builder
	}

	secretFilter := cfg.SecretFilter
	if secretFilter == "" {
		secretFilter = defaultSecretFilter
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Assembler{
		builder:      builder,
		blocks:       cfg.Blocks,
		secretFilter: secretFilter,
		logger:       logger,
	}
}

// Assemble строит pipeline из задач org в заданном порядке.
//
// Порядок задач не меняется: вызывающий отвечает за то, что он отражает
// порядок выполнения. Номера идут подряд с startSeq. Пропущенные задачи
// номер не расходуют и попадают в Pipeline.Skipped.
// ErrConfig от Builder возвращается без понижения.
func (a *Assembler) Assemble(ctx context.Context, orgID uuid.UUID, tasks []domain.OrgTask, ectx ExecutionContext, startSeq int) (*domain.Pipeline, error) {
	p := &domain.Pipeline{
		StartSeq: startSeq,
		Tasks:    make([]domain.TaskDescriptor, 0, len(tasks)),
	}

	logger := telemetry.FromContextOr(ctx, a.logger)
	secrets := secretCache{logger: logger}
	seq := startSeq

	for i := range tasks {
		task := &tasks[i]

		var secret *domain.Block
		if task.Kind() == domain.TaskKindGitPull {
			var err error
			secret, err = secrets.get(ctx, a, orgID, task)
			if err != nil {
				return nil, err
			}
		}

		desc, err := a.builder.Build(task, ectx, secret, seq)
		if errors.Is(err, ErrSkipTask) {
			logger.Info("task skipped in pipeline",
				"orgtask_id", task.ID,
				"slug", task.Task.Slug,
				"reason", err.Error(),
			)
			telemetry.PipelineTasksSkipped.Inc()
			p.Skipped = append(p.Skipped, domain.SkippedTask{
				OrgTaskID: task.ID,
				Slug:      task.Task.Slug,
				Reason:    err.Error(),
			})
			continue
		}
		if err != nil {
			return nil, err
		}

		p.Tasks = append(p.Tasks, desc)
		seq++
	}

	telemetry.PipelinesAssembled.Inc()
	logger.Debug("pipeline assembled",
		"org_id", orgID,
		"start_seq", startSeq,
		"tasks", len(p.Tasks),
		"skipped", len(p.Skipped),
	)
	return p, nil
}

// secretCache запоминает результат поиска secret-блока в рамках одной сборки.
type secretCache struct {
	logger *slog.Logger
	looked bool
	block  *domain.Block
}

func (c *secretCache) get(ctx context.Context, a *Assembler, orgID uuid.UUID, task *domain.OrgTask) (*domain.Block, error) {
	if !c.looked {
		block, err := a.findSecret(ctx, orgID)
		if err != nil {
			return nil, err
		}
		c.looked = true
		c.block = block
	}

	if c.block == nil {
		c.logger.Warn("secret block not found in org blocks, git pull will run without credentials",
			"org_id", orgID,
			"slug", task.Task.Slug,
			"filter", a.secretFilter,
		)
		telemetry.SecretBlockMissing.Inc()
	}
	return c.block, nil
}

// findSecret ищет secret-блок для git pull. Отсутствие блока — не ошибка.
func (a *Assembler) findSecret(ctx context.Context, orgID uuid.UUID) (*domain.Block, error) {
	if a.blocks == nil {
		return nil, nil
	}

	block, err := a.blocks.FindFirst(ctx, orgID, domain.BlockTypeSecret, a.secretFilter)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find secret block: %w", err)
	}
	return block, nil
}
