package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultClientTimeout is the default timeout for remote requests.
const DefaultClientTimeout = 10 * time.Second

// TasksPath is the endpoint a remote server exposes the collection on.
const TasksPath = "/api/tasks"

// HTTPDataSource talks to a tasksync remote server.
type HTTPDataSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDataSource creates a client for the server at baseURL.
func NewHTTPDataSource(baseURL string, timeout time.Duration) *HTTPDataSource {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &HTTPDataSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// LoadTasks fetches the full remote collection.
func (h *HTTPDataSource) LoadTasks(ctx context.Context) ([]NetworkTask, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+TasksPath, nil)
	if err != nil {
		return nil, err
	}

	body, err := h.do(req)
	if err != nil {
		return nil, err
	}

	tasks := []NetworkTask{}
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse remote tasks: %w", err)
	}
	return tasks, nil
}

// SaveTasks replaces the full remote collection.
func (h *HTTPDataSource) SaveTasks(ctx context.Context, tasks []NetworkTask) error {
	if tasks == nil {
		tasks = []NetworkTask{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, h.baseURL+TasksPath, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	_, err = h.do(req)
	return err
}

func (h *HTTPDataSource) do(req *http.Request) ([]byte, error) {
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("remote error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
