package kv

import (
	"context"
	"sync"
)

// Memory is a map-backed Store. Not durable; used in tests and dev mode.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Update(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &stagedTx{base: m.data, writes: map[string]*string{}}
	if err := fn(tx); err != nil {
		return err
	}
	tx.applyTo(m.data)
	return nil
}

// stagedTx buffers writes so an aborted Update leaves the base map alone.
// A nil staged value marks a delete.
type stagedTx struct {
	base   map[string]string
	writes map[string]*string
}

func (t *stagedTx) Get(key string) (string, bool) {
	if w, ok := t.writes[key]; ok {
		if w == nil {
			return "", false
		}
		return *w, true
	}
	v, ok := t.base[key]
	return v, ok
}

func (t *stagedTx) Set(key, value string) {
	v := value
	t.writes[key] = &v
}

func (t *stagedTx) Delete(key string) {
	t.writes[key] = nil
}

func (t *stagedTx) applyTo(dst map[string]string) {
	for k, w := range t.writes {
		if w == nil {
			delete(dst, k)
			continue
		}
		dst[k] = *w
	}
}
