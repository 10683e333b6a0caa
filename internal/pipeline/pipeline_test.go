package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Pipeflow/internal/domain"
	"github.com/shaiso/Pipeflow/internal/repo"
)

// --- Fixtures ---

type fakeBlocks struct {
	block *domain.Block
	err   error
	calls int

	gotType   domain.BlockType
	gotFilter string
}

func (f *fakeBlocks) FindFirst(_ context.Context, _ uuid.UUID, blockType domain.BlockType, nameContains string) (*domain.Block, error) {
	f.calls++
	f.gotType = blockType
	f.gotFilter = nameContains
	if f.err != nil {
		return nil, f.err
	}
	if f.block == nil {
		return nil, repo.ErrNotFound
	}
	return f.block, nil
}

func orgTask(slug, command string) domain.OrgTask {
	return domain.OrgTask{
		ID:   uuid.New(),
		Task: domain.Task{Slug: slug, Command: command},
	}
}

func syncTask(connectionID string) domain.OrgTask {
	t := orgTask(domain.TaskSlugAirbyteSync, "")
	t.ConnectionID = connectionID
	return t
}

func fullContext() ExecutionContext {
	return ExecutionContext{
		ServerBlock:     &domain.Block{BlockName: "acme-airbyte-server"},
		CLIProfileBlock: &domain.Block{BlockName: "acme-profile"},
		Transform: &domain.TransformContext{
			DbtBinary:  "/venv/bin/dbt",
			ProjectDir: "/clients/acme/dbtrepo",
			Target:     "prod",
			GitRepoURL: "https://github.com/acme/dbt.git",
		},
	}
}

// --- Builder Tests ---

func TestBuilder_Sync(t *testing.T) {
	b := NewBuilder(15)
	task := syncTask("conn-1")

	desc, err := b.Build(&task, fullContext(), nil, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, desc.Seq)
	assert.Equal(t, domain.DescriptorAirbyteConnection, desc.Type)
	assert.Equal(t, task.ID, desc.OrgTaskID)
	require.NotNil(t, desc.Sync)
	assert.Equal(t, "acme-airbyte-server", desc.Sync.ServerBlock)
	assert.Equal(t, "conn-1", desc.Sync.ConnectionID)
	assert.Equal(t, 15, desc.Sync.Timeout)
	assert.Nil(t, desc.Shell)
	assert.Nil(t, desc.Dbt)
}

func TestBuilder_Sync_MissingServerBlock(t *testing.T) {
	b := NewBuilder(15)
	task := syncTask("conn-1")

	_, err := b.Build(&task, ExecutionContext{}, nil, 0)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestBuilder_Sync_MissingConnection(t *testing.T) {
	b := NewBuilder(15)
	task := syncTask("")

	_, err := b.Build(&task, fullContext(), nil, 0)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestBuilder_GitPull_WithSecret(t *testing.T) {
	b := NewBuilder(15)
	task := orgTask(domain.TaskSlugGitPull, "pull")

	desc, err := b.Build(&task, fullContext(), &domain.Block{BlockName: "acme-git-pull-url"}, 0)
	require.NoError(t, err)

	assert.Equal(t, domain.DescriptorShellOperation, desc.Type)
	require.NotNil(t, desc.Shell)
	assert.Equal(t, []string{"git pull"}, desc.Shell.Commands)
	assert.Equal(t, "/clients/acme/dbtrepo", desc.Shell.WorkingDir)
	assert.Equal(t, map[string]string{domain.GitPullSecretEnvKey: "acme-git-pull-url"}, desc.Shell.Env)
}

func TestBuilder_GitPull_WithoutSecret(t *testing.T) {
	b := NewBuilder(15)
	task := orgTask(domain.TaskSlugGitPull, "pull")

	desc, err := b.Build(&task, fullContext(), nil, 0)
	require.NoError(t, err)

	// The slot exists and is explicitly empty
	value, ok := desc.Shell.Env[domain.GitPullSecretEnvKey]
	assert.True(t, ok)
	assert.Equal(t, "", value)
}

func TestBuilder_GitPull_NoWorkspace(t *testing.T) {
	b := NewBuilder(15)
	task := orgTask(domain.TaskSlugGitPull, "pull")

	_, err := b.Build(&task, ExecutionContext{}, nil, 0)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestBuilder_GitPull_WorkspaceWithoutGitURL(t *testing.T) {
	b := NewBuilder(15)
	task := orgTask(domain.TaskSlugGitPull, "pull")
	ectx := fullContext()
	ectx.Transform.GitRepoURL = ""

	desc, err := b.Build(&task, ectx, nil, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, desc.Seq)
	assert.Equal(t, domain.DescriptorShellOperation, desc.Type)
	require.NotNil(t, desc.Shell)
	assert.Equal(t, []string{"git pull"}, desc.Shell.Commands)
}

func TestBuilder_Transform(t *testing.T) {
	b := NewBuilder(15)
	task := orgTask("dbt-run", "run")
	task.Params = domain.TaskParams{
		Flags:   []string{"full-refresh"},
		Options: map[string]any{"select": "orders"},
	}

	desc, err := b.Build(&task, fullContext(), nil, 7)
	require.NoError(t, err)

	assert.Equal(t, 7, desc.Seq)
	assert.Equal(t, domain.DescriptorDbtCoreOperation, desc.Type)
	require.NotNil(t, desc.Dbt)
	assert.Equal(t, []string{"/venv/bin/dbt run --full-refresh --select orders --target prod"}, desc.Dbt.Commands)
	assert.Equal(t, "/clients/acme/dbtrepo", desc.Dbt.WorkingDir)
	assert.Equal(t, "/clients/acme/dbtrepo", desc.Dbt.ProjectDir)
	assert.Equal(t, "/clients/acme/dbtrepo/profiles/", desc.Dbt.ProfilesDir)
	assert.Equal(t, "acme-profile", desc.Dbt.CLIProfileBlock)
	assert.NotNil(t, desc.Dbt.Env)
	assert.Empty(t, desc.Dbt.Env)
	assert.NotNil(t, desc.Dbt.CLIArgs)
	assert.Empty(t, desc.Dbt.CLIArgs)
}

func TestBuilder_UnknownSlugFallsBackToTransform(t *testing.T) {
	b := NewBuilder(15)
	task := orgTask("custom-docs-generate", "docs generate")

	desc, err := b.Build(&task, fullContext(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.DescriptorDbtCoreOperation, desc.Type)
}

func TestBuilder_Transform_NoContext(t *testing.T) {
	b := NewBuilder(15)
	task := orgTask("dbt-run", "run")

	_, err := b.Build(&task, ExecutionContext{}, nil, 0)
	assert.True(t, errors.Is(err, ErrConfig))

	ectx := fullContext()
	ectx.CLIProfileBlock = nil
	_, err = b.Build(&task, ectx, nil, 0)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestBuilder_DoesNotMutateInput(t *testing.T) {
	b := NewBuilder(15)
	task := orgTask("dbt-run", "run")
	task.Params.Flags = []string{"full-refresh"}
	task.Params.Options = map[string]any{"select": "orders", "vars": []any{"a", "b"}}
	ectx := fullContext()

	// Глубокая копия: map и slice копируются по ссылке
	before := task
	before.Params.Flags = append([]string(nil), task.Params.Flags...)
	before.Params.Options = map[string]any{}
	for k, v := range task.Params.Options {
		if items, ok := v.([]any); ok {
			v = append([]any(nil), items...)
		}
		before.Params.Options[k] = v
	}
	transformBefore := *ectx.Transform

	_, err := b.Build(&task, ectx, nil, 0)
	require.NoError(t, err)

	assert.Equal(t, before, task)
	assert.Equal(t, transformBefore, *ectx.Transform)
}

func TestBuilder_DefaultSyncTimeout(t *testing.T) {
	b := NewBuilder(0)
	task := syncTask("conn-1")

	desc, err := b.Build(&task, fullContext(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultSyncTimeout, desc.Sync.Timeout)
}

// --- Assembler Tests ---

func TestAssemble_SequenceFollowsInputOrder(t *testing.T) {
	blocks := &fakeBlocks{block: &domain.Block{BlockName: "acme-git-pull-url"}}
	a := NewAssembler(AssemblerConfig{Builder: NewBuilder(15), Blocks: blocks})

	tasks := []domain.OrgTask{
		syncTask("conn-b"),
		syncTask("conn-a"),
		orgTask(domain.TaskSlugGitPull, "pull"),
		orgTask("dbt-run", "run"),
		orgTask("dbt-test", "test"),
	}

	p, err := a.Assemble(context.Background(), uuid.New(), tasks, fullContext(), 5)
	require.NoError(t, err)
	require.Len(t, p.Tasks, len(tasks))

	for i, desc := range p.Tasks {
		assert.Equal(t, 5+i, desc.Seq)
		assert.Equal(t, tasks[i].ID, desc.OrgTaskID)
	}
	assert.Equal(t, "conn-b", p.Tasks[0].Sync.ConnectionID)
	assert.Equal(t, "conn-a", p.Tasks[1].Sync.ConnectionID)
	assert.Empty(t, p.Skipped)
	assert.Equal(t, 10, p.NextSeq())

	assert.Equal(t, domain.BlockTypeSecret, blocks.gotType)
	assert.Equal(t, "git-pull", blocks.gotFilter)
}

func TestAssemble_MissingSecretIsSoft(t *testing.T) {
	blocks := &fakeBlocks{}
	a := NewAssembler(AssemblerConfig{Blocks: blocks})

	tasks := []domain.OrgTask{orgTask(domain.TaskSlugGitPull, "pull")}

	p, err := a.Assemble(context.Background(), uuid.New(), tasks, fullContext(), 0)
	require.NoError(t, err)
	require.Len(t, p.Tasks, 1)
	assert.Equal(t, "", p.Tasks[0].Shell.Env[domain.GitPullSecretEnvKey])
}

func TestAssemble_SecretLookupFailurePropagates(t *testing.T) {
	dbErr := errors.New("connection refused")
	a := NewAssembler(AssemblerConfig{Blocks: &fakeBlocks{err: dbErr}})

	tasks := []domain.OrgTask{orgTask(domain.TaskSlugGitPull, "pull")}

	_, err := a.Assemble(context.Background(), uuid.New(), tasks, fullContext(), 0)
	assert.True(t, errors.Is(err, dbErr))
}

func TestAssemble_SecretLookedUpOnce(t *testing.T) {
	blocks := &fakeBlocks{}
	a := NewAssembler(AssemblerConfig{Blocks: blocks})

	tasks := []domain.OrgTask{
		orgTask(domain.TaskSlugGitPull, "pull"),
		orgTask(domain.TaskSlugGitPull, "pull"),
		orgTask("dbt-run", "run"),
	}

	_, err := a.Assemble(context.Background(), uuid.New(), tasks, fullContext(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, blocks.calls)
}

func TestAssemble_NoSecretLookupWithoutGitPull(t *testing.T) {
	blocks := &fakeBlocks{}
	a := NewAssembler(AssemblerConfig{Blocks: blocks})

	tasks := []domain.OrgTask{syncTask("conn-1"), orgTask("dbt-run", "run")}

	_, err := a.Assemble(context.Background(), uuid.New(), tasks, fullContext(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, blocks.calls)
}

func TestAssemble_GitPullWithoutGitURLKeepsLength(t *testing.T) {
	a := NewAssembler(AssemblerConfig{Blocks: &fakeBlocks{}})

	ectx := fullContext()
	ectx.Transform.GitRepoURL = ""

	tasks := []domain.OrgTask{
		orgTask(domain.TaskSlugGitPull, "pull"),
		orgTask("dbt-run", "run"),
	}

	p, err := a.Assemble(context.Background(), uuid.New(), tasks, ectx, 0)
	require.NoError(t, err)

	require.Len(t, p.Tasks, len(tasks))
	assert.Equal(t, domain.DescriptorShellOperation, p.Tasks[0].Type)
	assert.Equal(t, domain.DescriptorDbtCoreOperation, p.Tasks[1].Type)
	assert.Empty(t, p.Skipped)
}

// skippingBuilder пропускает задачи с указанными slug, остальные отдаёт Builder.
type skippingBuilder struct {
	inner *Builder
	skip  map[string]bool
}

func (b skippingBuilder) Build(task *domain.OrgTask, ectx ExecutionContext, secret *domain.Block, seq int) (domain.TaskDescriptor, error) {
	if b.skip[task.Task.Slug] {
		return domain.TaskDescriptor{}, fmt.Errorf("%w: task %q: disabled", ErrSkipTask, task.Task.Slug)
	}
	return b.inner.Build(task, ectx, secret, seq)
}

func TestAssemble_SkippedTaskDoesNotConsumeSeq(t *testing.T) {
	a := NewAssembler(AssemblerConfig{
		Builder: skippingBuilder{inner: NewBuilder(15), skip: map[string]bool{"dbt-docs": true}},
		Blocks:  &fakeBlocks{},
	})

	tasks := []domain.OrgTask{
		syncTask("conn-1"),
		orgTask("dbt-docs", "docs generate"),
		orgTask("dbt-run", "run"),
	}

	p, err := a.Assemble(context.Background(), uuid.New(), tasks, fullContext(), 1)
	require.NoError(t, err)

	require.Len(t, p.Tasks, 2)
	assert.Equal(t, 1, p.Tasks[0].Seq)
	assert.Equal(t, 2, p.Tasks[1].Seq)
	assert.Equal(t, tasks[2].ID, p.Tasks[1].OrgTaskID)

	require.Len(t, p.Skipped, 1)
	assert.Equal(t, tasks[1].ID, p.Skipped[0].OrgTaskID)
	assert.Equal(t, "dbt-docs", p.Skipped[0].Slug)
	assert.Contains(t, p.Skipped[0].Reason, "disabled")
}

func TestAssemble_ConfigErrorPropagates(t *testing.T) {
	a := NewAssembler(AssemblerConfig{})

	tasks := []domain.OrgTask{syncTask("conn-1"), orgTask("dbt-run", "run")}
	ectx := fullContext()
	ectx.Transform = nil

	p, err := a.Assemble(context.Background(), uuid.New(), tasks, ectx, 0)
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, ErrConfig))
}

func TestAssemble_EmptyTaskList(t *testing.T) {
	a := NewAssembler(AssemblerConfig{})

	p, err := a.Assemble(context.Background(), uuid.New(), nil, ExecutionContext{}, 4)
	require.NoError(t, err)
	assert.Empty(t, p.Tasks)
	assert.Equal(t, 4, p.NextSeq())

	// Empty but non-nil so it serializes as []
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tasks":[]`)
}

func TestAssemble_DescriptorJSON(t *testing.T) {
	a := NewAssembler(AssemblerConfig{Blocks: &fakeBlocks{}})
	tasks := []domain.OrgTask{syncTask("conn-1"), orgTask(domain.TaskSlugGitPull, "pull")}

	p, err := a.Assemble(context.Background(), uuid.New(), tasks, fullContext(), 0)
	require.NoError(t, err)

	data, err := json.Marshal(p.Tasks)
	require.NoError(t, err)

	var payload []map[string]any
	require.NoError(t, json.Unmarshal(data, &payload))
	require.Len(t, payload, 2)

	assert.Equal(t, "Airbyte Connection", payload[0]["type"])
	assert.Equal(t, float64(0), payload[0]["seq"])
	assert.Equal(t, "conn-1", payload[0]["connection_id"])
	assert.Equal(t, tasks[0].ID.String(), payload[0]["orgtask_uuid"])

	assert.Equal(t, "Shell Operation", payload[1]["type"])
	assert.Equal(t, float64(1), payload[1]["seq"])
	assert.Equal(t, map[string]any{domain.GitPullSecretEnvKey: ""}, payload[1]["env"])
}
