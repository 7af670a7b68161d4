package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/sandeepkv93/taskfloat/internal/model"
)

type JSONFileStore struct {
	path string
}

func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

func (s *JSONFileStore) Path() string { return s.path }

func (s *JSONFileStore) Load(ctx context.Context) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return []model.Task{}, &StoreError{Op: "load", Path: s.path, Err: err}
	}
	return readTaskFile(s.path)
}

func (s *JSONFileStore) Save(ctx context.Context, tasks []model.Task) error {
	if err := ctx.Err(); err != nil {
		return &StoreError{Op: "save", Path: s.path, Err: err}
	}
	if err := writeTaskFile(s.path, tasks); err != nil {
		return &StoreError{Op: "save", Path: s.path, Err: err}
	}
	return nil
}

func (s *JSONFileStore) Close() error { return nil }

// Export writes tasks to path in the same layout the JSON store uses.
func Export(path string, tasks []model.Task) error {
	if err := writeTaskFile(path, tasks); err != nil {
		return &StoreError{Op: "export", Path: path, Err: err}
	}
	return nil
}

// ReadExport decodes a file produced by Export. Unlike Load, a missing or
// malformed file is an error.
func ReadExport(path string) ([]model.Task, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &StoreError{Op: "import", Path: path, Err: err}
	}
	var out []model.Task
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &StoreError{Op: "import", Path: path, Err: err}
	}
	return out, nil
}

func readTaskFile(path string) ([]model.Task, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Task{}, nil
		}
		return []model.Task{}, &StoreError{Op: "load", Path: path, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return []model.Task{}, nil
	}
	var out []model.Task
	if err := json.Unmarshal(raw, &out); err != nil {
		return []model.Task{}, &StoreError{Op: "load", Path: path, Err: err}
	}
	if out == nil {
		out = []model.Task{}
	}
	return out, nil
}

func writeTaskFile(path string, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	payload, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
