package storage

import (
	"context"
	"fmt"

	"github.com/sandeepkv93/taskfloat/internal/model"
)

// Store persists the whole ordered task list. Save always writes the full
// list; there is no incremental diffing.
type Store interface {
	// Load returns the persisted list in order. Missing data yields an
	// empty list and a nil error; unreadable data yields an empty list and
	// a *StoreError so callers can log it and carry on.
	Load(ctx context.Context) ([]model.Task, error)
	Save(ctx context.Context, tasks []model.Task) error
	Close() error
}

type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open returns the store for the named backend rooted at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", BackendJSON:
		return NewJSONFileStore(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, &StoreError{Op: "open", Path: path, Err: fmt.Errorf("unknown backend %q", backend)}
	}
}
