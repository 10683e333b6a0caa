package pipeline

import (
	"fmt"

	"github.com/shaiso/Pipeflow/internal/domain"
)

const defaultSyncTimeout = 15

// ExecutionContext — общий контекст выполнения задач одного pipeline.
//
// Любое поле может отсутствовать: обязательность зависит от вида задачи.
type ExecutionContext struct {
	// ServerBlock — блок Airbyte server (для sync).
	ServerBlock *domain.Block

	// CLIProfileBlock — блок dbt CLI profile (для transform).
	CLIProfileBlock *domain.Block

	// Transform — dbt-проект организации (для git-pull и transform).
	Transform *domain.TransformContext
}

// Builder строит дескриптор движка для одной задачи.
//
// Результат — чистая функция входов; входы не изменяются.
type Builder struct {
	syncTimeout int
}

// NewBuilder создаёт Builder. syncTimeout <= 0 заменяется значением по умолчанию.
func NewBuilder(syncTimeout int) *Builder {
	if syncTimeout <= 0 {
		syncTimeout = defaultSyncTimeout
	}
	return &Builder{syncTimeout: syncTimeout}
}

// Build строит дескриптор с номером seq.
//
// secret — secret-блок для git pull, nil допустим.
// Возвращает ErrConfig (обёрнутую), если не хватает обязательных полей.
func (b *Builder) Build(task *domain.OrgTask, ectx ExecutionContext, secret *domain.Block, seq int) (domain.TaskDescriptor, error) {
	switch task.Kind() {
	case domain.TaskKindSync:
		return b.buildSync(task, ectx, seq)
	case domain.TaskKindGitPull:
		return b.buildGitPull(task, ectx, secret, seq)
	default:
		return b.buildTransform(task, ectx, seq)
	}
}

// buildSync — синхронизация Airbyte connection.
func (b *Builder) buildSync(task *domain.OrgTask, ectx ExecutionContext, seq int) (domain.TaskDescriptor, error) {
	if ectx.ServerBlock == nil {
		return domain.TaskDescriptor{}, fmt.Errorf("%w: task %q: airbyte server block is required", ErrConfig, task.Task.Slug)
	}
	if task.ConnectionID == "" {
		return domain.TaskDescriptor{}, fmt.Errorf("%w: task %q: connection id is required", ErrConfig, task.Task.Slug)
	}

	return domain.TaskDescriptor{
		Seq:       seq,
		Slug:      task.Task.Slug,
		Type:      domain.DescriptorAirbyteConnection,
		OrgTaskID: task.ID,
		Sync: &domain.SyncConfig{
			ServerBlock:  ectx.ServerBlock.BlockName,
			ConnectionID: task.ConnectionID,
			Timeout:      b.syncTimeout,
		},
	}, nil
}

// buildGitPull — git pull в директории dbt-проекта.
// Отсутствие secret-блока не ошибка: слот в env остаётся пустым.
func (b *Builder) buildGitPull(task *domain.OrgTask, ectx ExecutionContext, secret *domain.Block, seq int) (domain.TaskDescriptor, error) {
	if ectx.Transform == nil {
		return domain.TaskDescriptor{}, fmt.Errorf("%w: task %q: dbt workspace is required", ErrConfig, task.Task.Slug)
	}

	env := map[string]string{domain.GitPullSecretEnvKey: ""}
	if secret != nil {
		env[domain.GitPullSecretEnvKey] = secret.BlockName
	}

	return domain.TaskDescriptor{
		Seq:       seq,
		Slug:      task.Task.Slug,
		Type:      domain.DescriptorShellOperation,
		OrgTaskID: task.ID,
		Shell: &domain.ShellConfig{
			Commands:   []string{"git " + task.TaskParameters()},
			WorkingDir: ectx.Transform.ProjectDir,
			Env:        env,
		},
	}, nil
}

// buildTransform — dbt-команда. Ветка по умолчанию для всех неизвестных slug.
func (b *Builder) buildTransform(task *domain.OrgTask, ectx ExecutionContext, seq int) (domain.TaskDescriptor, error) {
	if ectx.Transform == nil {
		return domain.TaskDescriptor{}, fmt.Errorf("%w: task %q: dbt workspace is required", ErrConfig, task.Task.Slug)
	}
	if ectx.CLIProfileBlock == nil {
		return domain.TaskDescriptor{}, fmt.Errorf("%w: task %q: dbt cli profile block is required", ErrConfig, task.Task.Slug)
	}

	tc := ectx.Transform
	command := fmt.Sprintf("%s %s --target %s", tc.DbtBinary, task.TaskParameters(), tc.Target)

	return domain.TaskDescriptor{
		Seq:       seq,
		Slug:      task.Task.Slug,
		Type:      domain.DescriptorDbtCoreOperation,
		OrgTaskID: task.ID,
		Dbt: &domain.DbtConfig{
			Commands:        []string{command},
			Env:             map[string]string{},
			WorkingDir:      tc.ProjectDir,
			ProfilesDir:     tc.ProfilesDir(),
			ProjectDir:      tc.ProjectDir,
			CLIProfileBlock: ectx.CLIProfileBlock.BlockName,
			CLIArgs:         []string{},
		},
	}, nil
}
