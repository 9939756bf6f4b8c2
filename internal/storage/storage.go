package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// ErrNotFound is returned by a Backend when a document has never been saved.
var ErrNotFound = errors.New("document not found")

// Backend persists whole JSON documents by name.
type Backend interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, data []byte) error
	Close()
}

// Document is a JSON object keyed by server id, mirrored in memory.
//
// Writes are serialized by mu and follow read-modify-persist-reload. Reads go
// through the last loaded snapshot without locking and may be briefly stale.
type Document[V any] struct {
	name     string
	backend  Backend
	logger   *zap.Logger
	mu       sync.Mutex
	snapshot atomic.Pointer[map[string]V]
}

func OpenDocument[V any](ctx context.Context, backend Backend, name string, logger *zap.Logger) (*Document[V], error) {
	d := &Document[V]{name: name, backend: backend, logger: logger}
	if err := d.reload(ctx, true); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Document[V]) Name() string {
	return d.name
}

// Get returns the value stored for key. The returned value shares memory with
// the snapshot and must not be modified.
func (d *Document[V]) Get(key string) (V, bool) {
	value, ok := (*d.snapshot.Load())[key]
	return value, ok
}

func (d *Document[V]) Len() int {
	return len(*d.snapshot.Load())
}

// Update applies fn to the current value for key. fn must not modify current
// in place; it returns the replacement and whether anything changed. Nothing
// is written when changed is false or fn fails.
func (d *Document[V]) Update(ctx context.Context, key string, fn func(current V, exists bool) (next V, changed bool, err error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data := maps.Clone(*d.snapshot.Load())
	current, exists := data[key]
	next, changed, err := fn(current, exists)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	data[key] = next

	encoded, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.name, err)
	}
	if err := d.backend.Save(ctx, d.name, encoded); err != nil {
		return fmt.Errorf("save %s: %w", d.name, err)
	}
	return d.reload(ctx, false)
}

// reload replaces the snapshot with the persisted document. A missing document
// is created empty when create is set; a malformed one reads as empty.
func (d *Document[V]) reload(ctx context.Context, create bool) error {
	data := make(map[string]V)
	raw, err := d.backend.Load(ctx, d.name)
	switch {
	case errors.Is(err, ErrNotFound):
		if create {
			d.logger.Info("creating document", zap.String("document", d.name))
			if err := d.backend.Save(ctx, d.name, []byte("{}")); err != nil {
				return fmt.Errorf("create %s: %w", d.name, err)
			}
		}
	case err != nil:
		return fmt.Errorf("load %s: %w", d.name, err)
	default:
		if err := json.Unmarshal(raw, &data); err != nil {
			d.logger.Warn("malformed document treated as empty", zap.String("document", d.name), zap.Error(err))
			data = make(map[string]V)
		}
		if data == nil {
			data = make(map[string]V)
		}
	}
	d.snapshot.Store(&data)
	return nil
}
