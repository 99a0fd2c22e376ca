// Package store provides SQLite-backed local persistence for tasksync.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/tasksync/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// LocalTask is the persisted representation of a task, one row of the task table.
type LocalTask struct {
	ID          string
	Title       string
	Description string
	IsCompleted bool
}

// Store provides access to the local task database.
type Store struct {
	db   *sql.DB
	feed *feed
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time; a single connection
	// also serializes every write issued by concurrent callers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, feed: newFeed()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close ends every observer and closes the database connection.
func (s *Store) Close() error {
	s.feed.close()
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS task (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		is_completed INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sync_log (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		task_count INTEGER NOT NULL DEFAULT 0,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_task_completed ON task(is_completed);
	CREATE INDEX IF NOT EXISTS idx_sync_log_timestamp ON sync_log(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Task Operations ---

const upsertTaskSQL = `INSERT INTO task (id, title, description, is_completed) VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET title = excluded.title, description = excluded.description, is_completed = excluded.is_completed`

// ObserveAll streams the full task collection: once on subscribe and
// again after every change. Cancel ctx to unsubscribe.
func (s *Store) ObserveAll(ctx context.Context) <-chan []LocalTask {
	return observe(ctx, s.feed, s.GetAll)
}

// ObserveByID streams a single task, or nil while it does not exist.
func (s *Store) ObserveByID(ctx context.Context, id string) <-chan *LocalTask {
	return observe(ctx, s.feed, func(ctx context.Context) (*LocalTask, error) {
		return s.GetByID(ctx, id)
	})
}

// GetAll returns a point-in-time snapshot of every task.
func (s *Store) GetAll(ctx context.Context) ([]LocalTask, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, is_completed FROM task ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []LocalTask{}
	for rows.Next() {
		var task LocalTask
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.IsCompleted); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetByID retrieves a task by ID. It returns nil, nil when the task does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*LocalTask, error) {
	task := &LocalTask{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, is_completed FROM task WHERE id = ?`,
		id,
	).Scan(&task.ID, &task.Title, &task.Description, &task.IsCompleted)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query task: %w", err)
	}
	return task, nil
}

// Upsert inserts a task or replaces the row with the same ID.
func (s *Store) Upsert(ctx context.Context, task LocalTask) error {
	_, err := s.db.ExecContext(ctx, upsertTaskSQL,
		task.ID, task.Title, task.Description, task.IsCompleted,
	)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	s.feed.publish()
	return nil
}

// UpsertAll inserts or replaces every task in a single transaction.
// On any error none of the tasks are persisted.
func (s *Store) UpsertAll(ctx context.Context, tasks []LocalTask) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertTaskSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, task := range tasks {
		if _, err := stmt.ExecContext(ctx, task.ID, task.Title, task.Description, task.IsCompleted); err != nil {
			return fmt.Errorf("upsert task %s: %w", task.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.feed.publish()
	return nil
}

// UpdateCompleted sets the completion flag of a single task.
// An unknown ID is not an error.
func (s *Store) UpdateCompleted(ctx context.Context, id string, completed bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE task SET is_completed = ? WHERE id = ?`,
		completed, id,
	)
	if err != nil {
		return fmt.Errorf("update task completed: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		log.Printf("store: update completed matched no task with id %s", id)
		return nil
	}
	s.feed.publish()
	return nil
}

// DeleteByID removes a task and returns the number of rows deleted.
func (s *Store) DeleteByID(ctx context.Context, id string) (int64, error) {
	return s.delete(ctx, "delete task", `DELETE FROM task WHERE id = ?`, id)
}

// DeleteAll removes every task.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	return s.delete(ctx, "delete all tasks", `DELETE FROM task`)
}

// DeleteCompleted removes every completed task.
func (s *Store) DeleteCompleted(ctx context.Context) (int64, error) {
	return s.delete(ctx, "delete completed tasks", `DELETE FROM task WHERE is_completed = 1`)
}

func (s *Store) delete(ctx context.Context, op, query string, args ...interface{}) (int64, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	if n > 0 {
		s.feed.publish()
	}
	return n, nil
}

// --- Sync Log Operations ---

// WriteSyncEntry records a replication or refresh attempt.
func (s *Store) WriteSyncEntry(ctx context.Context, action, inputsHash string, outcome models.SyncOutcome, taskCount int, details string) (*models.SyncEntry, error) {
	entry := &models.SyncEntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		TaskCount:  taskCount,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_log (id, action, inputs_hash, outcome, task_count, details, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.InputsHash, entry.Outcome, entry.TaskCount, entry.Details, entry.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert sync entry: %w", err)
	}
	return entry, nil
}

// ListSyncEntries returns the newest sync entries first.
func (s *Store) ListSyncEntries(ctx context.Context, limit int) ([]models.SyncEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, inputs_hash, outcome, task_count, details, timestamp FROM sync_log ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sync log: %w", err)
	}
	defer rows.Close()

	var entries []models.SyncEntry
	for rows.Next() {
		var entry models.SyncEntry
		var details sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.InputsHash, &entry.Outcome, &entry.TaskCount, &details, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan sync entry: %w", err)
		}
		if details.Valid {
			entry.Details = details.String
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
