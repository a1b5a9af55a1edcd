package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// File persists the whole store as one JSON object, rewritten via a temp
// file and rename so readers never observe a half-written file. Good for
// the small per-device records this app keeps (carts, accounts, profile).
type File struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// OpenFile loads the store at path, creating parent directories as
// needed. A missing file is an empty store.
func OpenFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("kv: create store dir: %w", err)
	}

	data := make(map[string]string)
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("kv: read store %s: %w", path, err)
	default:
		if err := json.Unmarshal(b, &data); err != nil {
			return nil, fmt.Errorf("kv: decode store %s: %w", path, err)
		}
	}
	return &File{path: path, data: data}, nil
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *File) Update(ctx context.Context, fn func(tx Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx := &stagedTx{base: f.data, writes: map[string]*string{}}
	if err := fn(tx); err != nil {
		return err
	}

	next := make(map[string]string, len(f.data)+len(tx.writes))
	for k, v := range f.data {
		next[k] = v
	}
	tx.applyTo(next)

	if err := f.flush(next); err != nil {
		return err
	}
	f.data = next
	return nil
}

func (f *File) flush(data map[string]string) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("kv: encode store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".kv-*")
	if err != nil {
		return fmt.Errorf("kv: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("kv: write store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("kv: sync store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kv: close store: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("kv: replace store: %w", err)
	}
	return nil
}
