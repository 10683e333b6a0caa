package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Pipeflow/internal/blocks"
	"github.com/shaiso/Pipeflow/internal/deployment"
	"github.com/shaiso/Pipeflow/internal/domain"
	"github.com/shaiso/Pipeflow/internal/mq"
	"github.com/shaiso/Pipeflow/internal/pipeline"
	"github.com/shaiso/Pipeflow/internal/prefect"
	"github.com/shaiso/Pipeflow/internal/repo"
	"github.com/shaiso/Pipeflow/internal/rungraph"
)

// --- Fakes ---

type fakeOrgs struct {
	org       *domain.Org
	dataflow  *domain.Dataflow
	transform *domain.TransformContext
}

func (f *fakeOrgs) GetBySlug(_ context.Context, slug string) (*domain.Org, error) {
	if f.org == nil || f.org.Slug != slug {
		return nil, repo.ErrNotFound
	}
	return f.org, nil
}

func (f *fakeOrgs) GetDataflow(_ context.Context, orgID, dataflowID uuid.UUID) (*domain.Dataflow, error) {
	if f.dataflow == nil || f.dataflow.ID != dataflowID || f.dataflow.OrgID != orgID {
		return nil, repo.ErrNotFound
	}
	return f.dataflow, nil
}

func (f *fakeOrgs) GetTransformContext(context.Context, uuid.UUID) (*domain.TransformContext, error) {
	if f.transform == nil {
		return nil, repo.ErrNotFound
	}
	return f.transform, nil
}

type fakeTasks struct {
	tasks []domain.OrgTask
	err   error
}

func (f *fakeTasks) ListByDataflow(context.Context, uuid.UUID) ([]domain.OrgTask, error) {
	return f.tasks, f.err
}

type fakeBlocks struct {
	blocks map[domain.BlockType]*domain.Block
}

func (f *fakeBlocks) FindByType(_ context.Context, _ uuid.UUID, blockType domain.BlockType) (*domain.Block, error) {
	if b, ok := f.blocks[blockType]; ok {
		return b, nil
	}
	return nil, repo.ErrNotFound
}

func (f *fakeBlocks) FindFirst(ctx context.Context, orgID uuid.UUID, blockType domain.BlockType, _ string) (*domain.Block, error) {
	return f.FindByType(ctx, orgID, blockType)
}

type fakeLocks struct {
	view *domain.LockView
	err  error
}

func (f *fakeLocks) Resolve(context.Context, uuid.UUID) (*domain.LockView, error) {
	return f.view, f.err
}

type fakeLogs struct {
	page      *domain.LogPage
	err       error
	gotOffset int
}

func (f *fakeLogs) Collect(_ context.Context, _ uuid.UUID, offset int) (*domain.LogPage, error) {
	f.gotOffset = offset
	return f.page, f.err
}

type fakeDeployer struct {
	gotCron     string
	gotPipeline *domain.Pipeline
	err         error
}

func (f *fakeDeployer) Deploy(_ context.Context, _ *domain.Org, df *domain.Dataflow, p *domain.Pipeline, cron string) (*deployment.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := deployment.ValidateCron(cron); err != nil {
		return nil, err
	}
	f.gotCron = cron
	f.gotPipeline = p
	return &deployment.Result{DeploymentID: uuid.New(), DeploymentName: "acme-" + df.Name, Cron: cron}, nil
}

type fakeEngine struct {
	runs        []domain.FlowRunSummary
	deployments []prefect.Deployment
	err         error
	gotLimit    int
	gotTag      string
}

func (f *fakeEngine) ListFlowRunsByDeployment(_ context.Context, _ uuid.UUID, limit int) ([]domain.FlowRunSummary, error) {
	f.gotLimit = limit
	return f.runs, f.err
}

func (f *fakeEngine) ListDeploymentsByTag(_ context.Context, tag string) ([]prefect.Deployment, error) {
	f.gotTag = tag
	return f.deployments, f.err
}

type fakeEvents struct {
	published []mq.PipelineAssembledPayload
}

func (f *fakeEvents) PublishPipelineAssembled(_ context.Context, payload mq.PipelineAssembledPayload) error {
	f.published = append(f.published, payload)
	return nil
}

type fakeManager struct {
	err       error
	server    *blocks.AirbyteServerSpec
	conn      *blocks.AirbyteConnectionSpec
	shell     *blocks.ShellSpec
	doc       *prefect.BlockDocument
	deletedID uuid.UUID
}

func (f *fakeManager) block(org *domain.Org, blockType domain.BlockType, name string) (*domain.Block, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Block{ID: uuid.New(), OrgID: org.ID, BlockType: blockType, BlockID: uuid.NewString(), BlockName: name}, nil
}

func (f *fakeManager) CreateAirbyteServer(_ context.Context, org *domain.Org, spec blocks.AirbyteServerSpec) (*domain.Block, error) {
	f.server = &spec
	return f.block(org, domain.BlockTypeAirbyteServer, spec.BlockName)
}

func (f *fakeManager) CreateAirbyteConnection(_ context.Context, org *domain.Org, spec blocks.AirbyteConnectionSpec) (*domain.Block, error) {
	f.conn = &spec
	return f.block(org, domain.BlockTypeAirbyteConnection, spec.BlockName)
}

func (f *fakeManager) CreateShell(_ context.Context, org *domain.Org, spec blocks.ShellSpec) (*domain.Block, error) {
	f.shell = &spec
	return f.block(org, domain.BlockTypeShellOperation, spec.BlockName)
}

func (f *fakeManager) Get(_ context.Context, _ *domain.Org, blockID uuid.UUID) (*prefect.BlockDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.doc == nil || f.doc.ID != blockID {
		return nil, repo.ErrNotFound
	}
	return f.doc, nil
}

func (f *fakeManager) Delete(_ context.Context, _ *domain.Org, blockID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.deletedID = blockID
	return nil
}

// --- Test server ---

type testEnv struct {
	server   *httptest.Server
	orgs     *fakeOrgs
	tasks    *fakeTasks
	blocks   *fakeBlocks
	manager  *fakeManager
	locks    *fakeLocks
	logs     *fakeLogs
	deployer *fakeDeployer
	engine   *fakeEngine
	events   *fakeEvents
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	org := &domain.Org{ID: uuid.New(), Name: "Acme", Slug: "acme"}
	env := &testEnv{
		orgs: &fakeOrgs{
			org:      org,
			dataflow: &domain.Dataflow{ID: uuid.New(), OrgID: org.ID, Name: "daily"},
			transform: &domain.TransformContext{
				DbtBinary:  "/venv/bin/dbt",
				ProjectDir: "/data/acme/dbtrepo",
				Target:     "prod",
			},
		},
		tasks: &fakeTasks{},
		blocks: &fakeBlocks{blocks: map[domain.BlockType]*domain.Block{
			domain.BlockTypeAirbyteServer: {BlockName: "acme-airbyte-server"},
			domain.BlockTypeDBTCLIProfile: {BlockName: "acme-prod-profile"},
		}},
		manager:  &fakeManager{},
		locks:    &fakeLocks{},
		logs:     &fakeLogs{},
		deployer: &fakeDeployer{},
		engine:   &fakeEngine{},
		events:   &fakeEvents{},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(Config{
		Orgs:    env.orgs,
		Tasks:   env.tasks,
		Blocks:  env.blocks,
		Manager: env.manager,
		Assembler: pipeline.NewAssembler(pipeline.AssemblerConfig{
			Builder: pipeline.NewBuilder(15),
			Blocks:  env.blocks,
			Logger:  logger,
		}),
		Locks:    env.locks,
		Logs:     env.logs,
		Deployer: env.deployer,
		Engine:   env.engine,
		Events:   env.events,
		Logger:   logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) pipelineURL(suffix string) string {
	return fmt.Sprintf("%s/api/v1/orgs/acme/dataflows/%s/%s", e.server.URL, e.orgs.dataflow.ID, suffix)
}

func orgTask(slug, command string) domain.OrgTask {
	return domain.OrgTask{
		ID:   uuid.New(),
		Task: domain.Task{Slug: slug, Command: command},
	}
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func errorCode(t *testing.T, resp *http.Response) ErrorCode {
	t.Helper()
	var body ErrorResponse
	decode(t, resp, &body)
	return body.Error.Code
}

// --- Pipeline ---

func TestAssemblePipeline(t *testing.T) {
	env := newTestEnv(t)
	sync := orgTask(domain.TaskSlugAirbyteSync, "")
	sync.ConnectionID = "conn-1"
	env.tasks.tasks = []domain.OrgTask{
		sync,
		orgTask(domain.TaskSlugGitPull, "pull"),
		orgTask("dbt-run", "run"),
	}

	resp, err := http.Post(env.pipelineURL("pipeline?start_seq=3"), "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			StartSeq int              `json:"start_seq"`
			NextSeq  int              `json:"next_seq"`
			Tasks    []map[string]any `json:"tasks"`
			Skipped  []map[string]any `json:"skipped"`
		} `json:"data"`
	}
	decode(t, resp, &body)

	assert.Equal(t, 3, body.Data.StartSeq)
	assert.Equal(t, 6, body.Data.NextSeq)
	require.Len(t, body.Data.Tasks, 3)
	assert.Equal(t, float64(3), body.Data.Tasks[0]["seq"])
	assert.Equal(t, "Airbyte Connection", body.Data.Tasks[0]["type"])
	assert.Equal(t, float64(4), body.Data.Tasks[1]["seq"])
	assert.Equal(t, "Shell Operation", body.Data.Tasks[1]["type"])
	assert.Equal(t, float64(5), body.Data.Tasks[2]["seq"])
	assert.Equal(t, "dbt Core Operation", body.Data.Tasks[2]["type"])
	assert.NotNil(t, body.Data.Skipped)
	assert.Empty(t, body.Data.Skipped)

	require.Len(t, env.events.published, 1)
	assert.Equal(t, "acme", env.events.published[0].OrgSlug)
	assert.Len(t, env.events.published[0].Tasks, 3)
}

func TestAssemblePipeline_DefaultStartSeq(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.tasks = []domain.OrgTask{orgTask("dbt-test", "test")}

	resp, err := http.Post(env.pipelineURL("pipeline"), "application/json", nil)
	require.NoError(t, err)

	var body struct {
		Data PipelineResponse `json:"data"`
	}
	decode(t, resp, &body)
	assert.Equal(t, 0, body.Data.StartSeq)
	assert.Equal(t, 1, body.Data.NextSeq)
}

func TestAssemblePipeline_ConfigErrorIs422(t *testing.T) {
	env := newTestEnv(t)
	delete(env.blocks.blocks, domain.BlockTypeAirbyteServer)
	task := orgTask(domain.TaskSlugAirbyteSync, "")
	task.ConnectionID = "conn-1"
	env.tasks.tasks = []domain.OrgTask{task}

	resp, err := http.Post(env.pipelineURL("pipeline"), "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, ErrCodeInvalidConfig, errorCode(t, resp))
	assert.Empty(t, env.events.published)
}

func TestAssemblePipeline_NotFound(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/api/v1/orgs/unknown/dataflows/"+uuid.NewString()+"/pipeline", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(env.server.URL+"/api/v1/orgs/acme/dataflows/"+uuid.NewString()+"/pipeline", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAssemblePipeline_BadInput(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/api/v1/orgs/acme/dataflows/not-a-uuid/pipeline", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(env.pipelineURL("pipeline?start_seq=-1"), "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAssemblePipeline_StoreErrorIs500(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.err = errors.New("db down")

	resp, err := http.Post(env.pipelineURL("pipeline"), "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, ErrCodeInternalError, errorCode(t, resp))
}

// --- Deployment ---

func TestDeployDataflow(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.tasks = []domain.OrgTask{orgTask("dbt-run", "run")}

	resp, err := http.Post(env.pipelineURL("deployment"), "application/json", strings.NewReader(`{"cron":"0 2 * * *"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Data deployment.Result `json:"data"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "acme-daily", body.Data.DeploymentName)
	assert.Equal(t, "0 2 * * *", env.deployer.gotCron)
	require.NotNil(t, env.deployer.gotPipeline)
	assert.Len(t, env.deployer.gotPipeline.Tasks, 1)
}

func TestDeployDataflow_EmptyBodyIsManual(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.tasks = []domain.OrgTask{orgTask("dbt-run", "run")}

	resp, err := http.Post(env.pipelineURL("deployment"), "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "", env.deployer.gotCron)
}

func TestDeployDataflow_InvalidCronIs400(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.tasks = []domain.OrgTask{orgTask("dbt-run", "run")}

	resp, err := http.Post(env.pipelineURL("deployment"), "application/json", bytes.NewBufferString(`{"cron":"daily"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeployDataflow_EngineErrorIs502(t *testing.T) {
	env := newTestEnv(t)
	env.tasks.tasks = []domain.OrgTask{orgTask("dbt-run", "run")}
	env.deployer.err = fmt.Errorf("create deployment: %w", prefect.ErrStatus)

	resp, err := http.Post(env.pipelineURL("deployment"), "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, ErrCodeEngineError, errorCode(t, resp))
}

// --- Lock ---

func TestGetLock(t *testing.T) {
	env := newTestEnv(t)
	runID := uuid.New()
	env.locks.view = &domain.LockView{
		LockedBy:  "analyst@acme.org",
		LockedAt:  time.Date(2024, 4, 5, 5, 20, 0, 0, time.UTC),
		FlowRunID: &runID,
		Status:    domain.LockStatusRunning,
	}

	resp, err := http.Get(env.server.URL + "/api/v1/dataflows/" + uuid.NewString() + "/lock")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data map[string]any `json:"data"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "running", body.Data["status"])
	assert.Equal(t, "analyst@acme.org", body.Data["lockedBy"])
	assert.Equal(t, runID.String(), body.Data["flowRunId"])
	assert.NotContains(t, body.Data, "stale")
}

func TestGetLock_NoLockIsNull(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/v1/dataflows/" + uuid.NewString() + "/lock")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":null}`, string(raw))
}

// --- Runs ---

func TestGetRunLogs(t *testing.T) {
	env := newTestEnv(t)
	env.logs.page = &domain.LogPage{Offset: 200, Logs: []domain.LogEntry{
		{Level: 20, Timestamp: time.Date(2024, 4, 5, 5, 20, 0, 0, time.UTC), Message: "hello"},
	}}

	resp, err := http.Get(env.server.URL + "/api/v1/flow_runs/" + uuid.NewString() + "/logs?offset=200")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 200, env.logs.gotOffset)

	var body struct {
		Data domain.LogPage `json:"data"`
	}
	decode(t, resp, &body)
	assert.Equal(t, 200, body.Data.Offset)
	require.Len(t, body.Data.Logs, 1)
	assert.Equal(t, "hello", body.Data.Logs[0].Message)
}

func TestGetRunLogs_EngineErrorIs502(t *testing.T) {
	env := newTestEnv(t)
	env.logs.err = fmt.Errorf("%w: logs: boom", rungraph.ErrQuery)

	resp, err := http.Get(env.server.URL + "/api/v1/flow_runs/" + uuid.NewString() + "/logs")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestListDeploymentRuns(t *testing.T) {
	env := newTestEnv(t)
	env.engine.runs = []domain.FlowRunSummary{{ID: uuid.New(), Status: domain.StateCompleted, Tags: []string{"acme"}}}

	resp, err := http.Get(env.server.URL + "/api/v1/deployments/" + uuid.NewString() + "/flow_runs?limit=5")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, env.engine.gotLimit)

	var body struct {
		Data  []map[string]any `json:"data"`
		Total int              `json:"total"`
	}
	decode(t, resp, &body)
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, "COMPLETED", body.Data[0]["status"])
}

func TestListDeploymentRuns_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/v1/deployments/" + uuid.NewString() + "/flow_runs")
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"total":0}`, string(raw))
	assert.Equal(t, 0, env.engine.gotLimit)
}

// --- Deployments ---

func TestListOrgDeployments(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()
	env.engine.deployments = []prefect.Deployment{
		{ID: id, Name: "acme-daily", Tags: []string{"acme"}, Schedule: &prefect.CronSchedule{Cron: "0 2 * * *"}},
		{ID: uuid.New(), Name: "acme-manual"},
	}

	resp, err := http.Get(env.server.URL + "/api/v1/orgs/acme/deployments")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "acme", env.engine.gotTag)

	var body struct {
		Data []DeploymentResponse `json:"data"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Data, 2)
	assert.Equal(t, id, body.Data[0].ID)
	assert.Equal(t, "0 2 * * *", body.Data[0].Cron)
	assert.Equal(t, "", body.Data[1].Cron)
	assert.Equal(t, []string{}, body.Data[1].Tags)
}

func TestListOrgDeployments_UnknownOrg(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/v1/orgs/nobody/deployments")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// --- Blocks ---

func (e *testEnv) blocksURL(suffix string) string {
	return e.server.URL + "/api/v1/orgs/acme/blocks/" + suffix
}

func TestCreateAirbyteServerBlock(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.blocksURL("airbyte-server"), "application/json",
		strings.NewReader(`{"block_name":"acme-airbyte-server","host":"airbyte.local","port":8000}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Data domain.Block `json:"data"`
	}
	decode(t, resp, &body)
	assert.Equal(t, domain.BlockTypeAirbyteServer, body.Data.BlockType)
	assert.Equal(t, env.orgs.org.ID, body.Data.OrgID)

	require.NotNil(t, env.manager.server)
	assert.Equal(t, "airbyte.local", env.manager.server.Host)
	assert.Equal(t, 8000, env.manager.server.Port)
}

func TestCreateAirbyteConnectionBlock(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.blocksURL("airbyte-connection"), "application/json",
		strings.NewReader(`{"block_name":"acme-orders","server_block_name":"acme-airbyte-server","connection_id":"c-1"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "acme-airbyte-server", env.manager.conn.ServerBlockName)
}

func TestCreateShellBlock(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.blocksURL("shell"), "application/json",
		strings.NewReader(`{"block_name":"acme-cleanup","commands":["true"],"env":{"A":"1"}}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{"true"}, env.manager.shell.Commands)
	assert.Equal(t, map[string]string{"A": "1"}, env.manager.shell.Env)
}

func TestCreateBlock_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"invalid", fmt.Errorf("%w: block_name required", blocks.ErrInvalidBlock), http.StatusBadRequest, ErrCodeBadRequest},
		{"exists", fmt.Errorf("%w: x", blocks.ErrBlockExists), http.StatusConflict, ErrCodeConflict},
		{"server missing", fmt.Errorf("%w: x", blocks.ErrServerBlockNotFound), http.StatusUnprocessableEntity, ErrCodeInvalidConfig},
		{"no schema", fmt.Errorf("%w: shell-operation", prefect.ErrNoBlockSchema), http.StatusBadGateway, ErrCodeEngineError},
		{"engine status", &prefect.StatusError{Code: http.StatusInternalServerError}, http.StatusBadGateway, ErrCodeEngineError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.manager.err = tt.err

			resp, err := http.Post(env.blocksURL("shell"), "application/json",
				strings.NewReader(`{"block_name":"acme-cleanup","commands":["true"]}`))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(t, resp))
		})
	}
}

func TestCreateBlock_BadBody(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.blocksURL("airbyte-server"), "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Nil(t, env.manager.server)
}

func TestCreateBlock_UnknownOrg(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Post(env.server.URL+"/api/v1/orgs/nobody/blocks/shell", "application/json",
		strings.NewReader(`{"block_name":"x","commands":["true"]}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Nil(t, env.manager.shell)
}

func TestGetBlock(t *testing.T) {
	env := newTestEnv(t)
	env.manager.doc = &prefect.BlockDocument{
		ID:        uuid.New(),
		Name:      "acme-airbyte-server",
		Data:      map[string]any{"server_host": "airbyte.local"},
		BlockType: &prefect.BlockTypeRef{Name: "Airbyte Server"},
	}

	resp, err := http.Get(env.blocksURL(env.manager.doc.ID.String()))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data BlockDocumentResponse `json:"data"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "acme-airbyte-server", body.Data.Name)
	assert.Equal(t, "Airbyte Server", body.Data.BlockType)
	assert.Equal(t, "airbyte.local", body.Data.Data["server_host"])
}

func TestGetBlock_NotFound(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.blocksURL(uuid.NewString()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, ErrCodeNotFound, errorCode(t, resp))
}

func TestGetBlock_BadID(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.blocksURL("not-a-uuid"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteBlock(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.New()

	req, err := http.NewRequest(http.MethodDelete, env.blocksURL(id.String()), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, id, env.manager.deletedID)
}

func TestDeleteBlock_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.manager.err = fmt.Errorf("block: %w", repo.ErrNotFound)

	req, err := http.NewRequest(http.MethodDelete, env.blocksURL(uuid.NewString()), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// --- Middleware ---

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogging_CapturesStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		NotFound(w, "nope")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, float64(http.StatusNotFound), entry["status"])
}
