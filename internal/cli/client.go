package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// PipelineResponse — собранный pipeline из API.
type PipelineResponse struct {
	StartSeq int              `json:"start_seq"`
	NextSeq  int              `json:"next_seq"`
	Tasks    []map[string]any `json:"tasks"`
	Skipped  []SkippedTask    `json:"skipped"`
}

// SkippedTask — задача, пропущенная при сборке.
type SkippedTask struct {
	OrgTaskID string `json:"orgtask_uuid"`
	Slug      string `json:"slug"`
	Reason    string `json:"reason"`
}

// DeployResponse — созданный deployment.
type DeployResponse struct {
	DeploymentID   string `json:"deployment_id"`
	DeploymentName string `json:"deployment_name"`
	FlowID         string `json:"flow_id"`
	Cron           string `json:"cron,omitempty"`
	NextRun        string `json:"next_run,omitempty"`
}

// LockResponse — блокировка dataflow.
type LockResponse struct {
	LockedBy  string `json:"lockedBy"`
	LockedAt  string `json:"lockedAt"`
	FlowRunID string `json:"flowRunId"`
	Status    string `json:"status"`
	Stale     bool   `json:"stale,omitempty"`
}

// LogEntry — запись лога run.
type LogEntry struct {
	Level     int    `json:"level"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// LogPage — страница логов графа run.
type LogPage struct {
	Offset int        `json:"offset"`
	Logs   []LogEntry `json:"logs"`
}

// FlowRunResponse — завершённый run deployment.
type FlowRunResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Tags      []string `json:"tags"`
	StartTime string   `json:"startTime"`
	Status    string   `json:"status"`
}

// DeploymentResponse — deployment организации.
type DeploymentResponse struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
	Cron string   `json:"cron"`
}

// BlockResponse — блок, зарегистрированный за организацией.
type BlockResponse struct {
	ID        string `json:"id"`
	BlockType string `json:"block_type"`
	BlockID   string `json:"block_id"`
	BlockName string `json:"block_name"`
}

// BlockDocumentResponse — документ блока в движке.
type BlockDocumentResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	BlockType string         `json:"block_type"`
	Data      map[string]any `json:"data"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Pipeflow API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Pipelines ---

// AssemblePipeline собирает pipeline dataflow.
func (c *Client) AssemblePipeline(org, dataflowID string, startSeq int) (*PipelineResponse, error) {
	path := fmt.Sprintf("/api/v1/orgs/%s/dataflows/%s/pipeline", url.PathEscape(org), url.PathEscape(dataflowID))
	if startSeq > 0 {
		path += "?start_seq=" + strconv.Itoa(startSeq)
	}

	var p PipelineResponse
	err := c.post(path, nil, &p)
	return &p, err
}

// Deploy создаёт deployment для dataflow.
func (c *Client) Deploy(org, dataflowID, cron string) (*DeployResponse, error) {
	path := fmt.Sprintf("/api/v1/orgs/%s/dataflows/%s/deployment", url.PathEscape(org), url.PathEscape(dataflowID))
	body := map[string]string{"cron": cron}

	var d DeployResponse
	err := c.post(path, body, &d)
	return &d, err
}

// GetLock возвращает блокировку dataflow или nil.
func (c *Client) GetLock(dataflowID string) (*LockResponse, error) {
	var lock *LockResponse
	err := c.get("/api/v1/dataflows/"+url.PathEscape(dataflowID)+"/lock", &lock)
	return lock, err
}

// --- Runs ---

// RunLogs возвращает страницу логов run с дочерними runs.
func (c *Client) RunLogs(runID string, offset int) (*LogPage, error) {
	path := "/api/v1/flow_runs/" + url.PathEscape(runID) + "/logs"
	if offset > 0 {
		path += "?offset=" + strconv.Itoa(offset)
	}

	var page LogPage
	err := c.get(path, &page)
	return &page, err
}

// RunHistory возвращает завершённые runs deployment.
func (c *Client) RunHistory(deploymentID string, limit int) ([]FlowRunResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var runs []FlowRunResponse
	err := c.list("/api/v1/deployments/"+url.PathEscape(deploymentID)+"/flow_runs", params, &runs)
	return runs, err
}

// --- Deployments ---

// ListDeployments возвращает deployments организации.
func (c *Client) ListDeployments(org string) ([]DeploymentResponse, error) {
	var deployments []DeploymentResponse
	err := c.list("/api/v1/orgs/"+url.PathEscape(org)+"/deployments", nil, &deployments)
	return deployments, err
}

// --- Blocks ---

// CreateBlock создаёт блок организации. kind — airbyte-server, airbyte-connection или shell.
func (c *Client) CreateBlock(org, kind string, body any) (*BlockResponse, error) {
	var b BlockResponse
	err := c.post("/api/v1/orgs/"+url.PathEscape(org)+"/blocks/"+kind, body, &b)
	return &b, err
}

// GetBlock возвращает документ блока организации.
func (c *Client) GetBlock(org, blockID string) (*BlockDocumentResponse, error) {
	var doc BlockDocumentResponse
	err := c.get("/api/v1/orgs/"+url.PathEscape(org)+"/blocks/"+url.PathEscape(blockID), &doc)
	return &doc, err
}

// DeleteBlock удаляет блок организации.
func (c *Client) DeleteBlock(org, blockID string) error {
	resp, err := c.do(http.MethodDelete, "/api/v1/orgs/"+url.PathEscape(org)+"/blocks/"+url.PathEscape(blockID), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.checkError(resp)
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
