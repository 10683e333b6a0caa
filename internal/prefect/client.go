package prefect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/Pipeflow/internal/telemetry"
)

const (
	defaultTimeout = 30 * time.Second

	// defaultPageSize — максимальный limit filter-эндпоинтов движка.
	defaultPageSize = 200
)

// Client — HTTP-клиент REST API движка.
//
// Каждый запрос ограничен таймаутом Config.Timeout поверх контекста вызывающего.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	pageSize   int
	logger     *slog.Logger
}

// Config — конфигурация Client.
type Config struct {
	// BaseURL — корень API, например http://prefect:4200/api.
	BaseURL string

	// Timeout — потолок одного запроса (default: 30s).
	Timeout time.Duration

	// PageSize — размер страницы при постраничном чтении filter-эндпоинтов (default: 200).
	PageSize int

	// HTTPClient — транспорт (default: http.Client без собственного таймаута).
	HTTPClient *http.Client

	Logger *slog.Logger
}

// New создаёт новый Client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		pageSize:   pageSize,
		logger:     logger,
	}
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, endpoint, path string, result any) error {
	return c.do(ctx, endpoint, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, endpoint, path string, body, result any) error {
	return c.do(ctx, endpoint, http.MethodPost, path, body, result)
}

func (c *Client) delete(ctx context.Context, endpoint, path string) error {
	return c.do(ctx, endpoint, http.MethodDelete, path, nil, nil)
}

// do выполняет запрос и декодирует JSON-ответ в result (если result != nil).
//
// endpoint — короткое имя для метрик, чтобы id не попадали в labels.
func (c *Client) do(ctx context.Context, endpoint, method, path string, body, result any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		telemetry.EngineRequests.WithLabelValues(endpoint, outcome).Inc()
		telemetry.EngineRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: marshal body: %v", ErrRequest, err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+strings.TrimLeft(path, "/"), bodyReader)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrRequest, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRequest, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(msg)}
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrDecode, method, path, err)
	}

	c.logger.Debug("engine request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)
	return nil
}
