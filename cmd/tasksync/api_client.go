package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fentz26/tasksync/internal/remote"
)

// healthTimeout bounds a single health probe.
const healthTimeout = 2 * time.Second

// healthClient is the shared HTTP client for probing a remote server.
var healthClient = &http.Client{
	Timeout: healthTimeout,
}

// CheckHealth probes the remote server at baseURL. The parsed response is
// returned alongside the error on non-200 status so callers can show it.
func CheckHealth(baseURL string) (*remote.HealthResponse, error) {
	url := strings.TrimRight(baseURL, "/") + "/health"
	resp, err := healthClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var health remote.HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &health, fmt.Errorf("health check failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return &health, nil
}

// waitHealthy polls baseURL until it answers or timeout passes.
func waitHealthy(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		_, err := CheckHealth(baseURL)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("remote not reachable at %s: %w", baseURL, err)
		}
		time.Sleep(250 * time.Millisecond)
	}
}
