package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/tasksync/internal/network"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var sampleTasks = []network.NetworkTask{
	{ID: "PISA", Title: "Build tower in Pisa", ShortDescription: "Ground looks good", Status: network.TaskStatusActive},
	{ID: "TACOMA", Title: "Finish bridge in Tacoma", ShortDescription: "Found awesome girders", Status: network.TaskStatusComplete},
}

func TestHealthEndpoint_OK(t *testing.T) {
	s := NewServer(network.NewSimulated(0, sampleTasks), "")

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var health HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !health.OK {
		t.Error("Expected health.OK to be true")
	}
	if health.Tasks != 2 {
		t.Errorf("Expected 2 tasks, got %d", health.Tasks)
	}
	if health.Time == "" {
		t.Error("Expected time to be set")
	}
}

func TestHealthEndpoint_BackendDown(t *testing.T) {
	backend := network.NewSimulated(0, nil)
	backend.SetOffline(true)
	s := NewServer(backend, "")

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}

func TestLoadEmpty(t *testing.T) {
	s := NewServer(network.NewSimulated(0, nil), "")

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, network.TasksPath, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("Expected empty JSON array, got %s", body)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	s := NewServer(network.NewSimulated(0, nil), "")

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{"},
		{"missing id", `[{"title":"x","status":"ACTIVE"}]`},
		{"bad status", `[{"id":"1","status":"DONE"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, network.TasksPath, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
		})
	}
}

func TestHTTPDataSourceRoundTrip(t *testing.T) {
	backend := network.NewFileDataSource(filepath.Join(t.TempDir(), "remote.yaml"))
	srv := httptest.NewServer(NewServer(backend, "").Handler())
	defer srv.Close()

	client := network.NewHTTPDataSource(srv.URL, time.Second)
	ctx := context.Background()

	if err := client.SaveTasks(ctx, sampleTasks); err != nil {
		t.Fatalf("SaveTasks failed: %v", err)
	}

	got, err := client.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("LoadTasks failed: %v", err)
	}
	if !reflect.DeepEqual(got, sampleTasks) {
		t.Errorf("Expected %+v, got %+v", sampleTasks, got)
	}

	// The server persisted to its own backend.
	stored, err := backend.LoadTasks(ctx)
	if err != nil {
		t.Fatalf("backend LoadTasks failed: %v", err)
	}
	if len(stored) != 2 {
		t.Errorf("Expected 2 stored tasks, got %d", len(stored))
	}

	// Full replace, not merge.
	if err := client.SaveTasks(ctx, sampleTasks[:1]); err != nil {
		t.Fatalf("SaveTasks failed: %v", err)
	}
	got, _ = client.LoadTasks(ctx)
	if len(got) != 1 || got[0].ID != "PISA" {
		t.Errorf("Expected only PISA after replace, got %+v", got)
	}
}

func TestShutdownBeforeStart(t *testing.T) {
	s := NewServer(network.NewSimulated(0, nil), "")
	if err := s.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown before Start should be a no-op, got %v", err)
	}
}
