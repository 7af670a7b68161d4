package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sandeepkv93/taskfloat/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteStore keeps the list in a single table ordered by position. Save
// replaces every row inside one transaction.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if err := MigrateUp(db); err != nil {
		return nil, &StoreError{Op: "migrate", Err: err}
	}
	return &SQLiteStore{db: db}, nil
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &StoreError{Op: "open", Path: path, Err: err}
	}
	store, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	store.path = path
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, completed, created_at, duration_minutes, time_remaining_seconds,
		       is_timer_running, pinned, priority, tags
		FROM tasks ORDER BY position ASC`)
	if err != nil {
		return []model.Task{}, &StoreError{Op: "load", Path: s.path, Err: err}
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return []model.Task{}, &StoreError{Op: "load", Path: s.path, Err: scanErr}
		}
		out = append(out, task)
	}
	if err := rows.Err(); err != nil {
		return []model.Task{}, &StoreError{Op: "load", Path: s.path, Err: err}
	}
	return out, nil
}

func (s *SQLiteStore) Save(ctx context.Context, tasks []model.Task) error {
	if err := s.replaceAll(ctx, tasks); err != nil {
		return &StoreError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

func (s *SQLiteStore) replaceAll(ctx context.Context, tasks []model.Task) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tasks (id, position, title, completed, created_at, duration_minutes,
		                   time_remaining_seconds, is_timer_running, pinned, priority, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range tasks {
		tags, marshalErr := json.Marshal(nonNilTags(t.Tags))
		if marshalErr != nil {
			return marshalErr
		}
		if _, err = stmt.ExecContext(ctx,
			t.ID, i, t.Title, boolInt(t.Completed), t.CreatedAt.UTC().Format(sqliteTimeLayout),
			nullInt(t.Duration), nullInt(t.TimeRemaining), boolInt(t.IsTimerRunning),
			boolInt(t.Pinned), string(t.Priority), string(tags),
		); err != nil {
			return fmt.Errorf("insert task %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var completed, running, pinned int
	var created, priority, tags string
	var duration, remaining sql.NullInt64
	if err := s.Scan(&out.ID, &out.Title, &completed, &created, &duration, &remaining, &running, &pinned, &priority, &tags); err != nil {
		return model.Task{}, err
	}
	createdAt, err := time.Parse(sqliteTimeLayout, created)
	if err != nil {
		return model.Task{}, err
	}
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &out.Tags); err != nil {
			return model.Task{}, err
		}
	}
	if len(out.Tags) == 0 {
		out.Tags = nil
	}
	out.CreatedAt = createdAt
	out.Completed = completed == 1
	out.IsTimerRunning = running == 1
	out.Pinned = pinned == 1
	out.Priority = model.Priority(priority)
	out.Duration = intFromNull(duration)
	out.TimeRemaining = intFromNull(remaining)
	return out, nil
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	return model.IntPtr(int(v.Int64))
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
