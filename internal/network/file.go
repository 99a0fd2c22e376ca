package network

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// FileDataSource keeps the remote collection in a YAML document, for
// example on a shared or synced directory.
type FileDataSource struct {
	mu   sync.Mutex
	path string
}

// remoteDocument is the on-disk layout of a FileDataSource.
type remoteDocument struct {
	SavedAt time.Time     `yaml:"saved_at"`
	Tasks   []NetworkTask `yaml:"tasks"`
}

// NewFileDataSource creates a file-backed remote at path.
func NewFileDataSource(path string) *FileDataSource {
	return &FileDataSource{path: path}
}

// Path returns the location of the remote document.
func (f *FileDataSource) Path() string {
	return f.path
}

// LoadTasks reads the remote document. A missing file is an empty collection.
func (f *FileDataSource) LoadTasks(ctx context.Context) ([]NetworkTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []NetworkTask{}, nil
		}
		return nil, fmt.Errorf("failed to read remote tasks: %w", err)
	}

	var doc remoteDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse remote tasks: %w", err)
	}
	if doc.Tasks == nil {
		doc.Tasks = []NetworkTask{}
	}
	return doc.Tasks, nil
}

// SaveTasks replaces the remote document atomically.
func (f *FileDataSource) SaveTasks(ctx context.Context, tasks []NetworkTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create remote directory: %w", err)
	}

	data, err := yaml.Marshal(remoteDocument{SavedAt: time.Now().UTC(), Tasks: clone(tasks)})
	if err != nil {
		return fmt.Errorf("failed to marshal remote tasks: %w", err)
	}

	// Write atomically via temp file
	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write remote tasks: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename remote tasks: %w", err)
	}
	return nil
}
