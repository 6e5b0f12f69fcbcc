package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type record interface {
	recordID() int64
	setRecordID(id int64)
	stampCreated(t time.Time)
	stampUpdated(t time.Time)
}

// collection is one JSON file of records guarded by its own mutex,
// mirroring the one-lock-per-collection layout of the storage this
// replaces. Every mutation rewrites the file.
type collection[T record] struct {
	mu     sync.Mutex
	path   string
	items  []T
	nextID int64
}

func openCollection[T record](dir, name string) (*collection[T], error) {
	c := &collection[T]{path: filepath.Join(dir, name+".json"), nextID: 1}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, c.saveLocked()
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &c.items); err != nil {
		return nil, err
	}
	for _, item := range c.items {
		if item.recordID() >= c.nextID {
			c.nextID = item.recordID() + 1
		}
	}
	return c, nil
}

func (c *collection[T]) saveLocked() error {
	data, err := json.MarshalIndent(c.items, "", "  ")
	if err != nil {
		return err
	}
	if c.items == nil {
		data = []byte("[]")
	}
	return os.WriteFile(c.path, data, 0o644)
}

// Add assigns the next id, stamps created_at, and persists.
func (c *collection[T]) Add(item T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item.setRecordID(c.nextID)
	c.nextID++
	item.stampCreated(time.Now().UTC())
	c.items = append(c.items, item)
	return item, c.saveLocked()
}

// All returns a snapshot of the collection's records.
func (c *collection[T]) All() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *collection[T]) ByID(id int64) (T, bool) {
	return c.FindOne(func(item T) bool { return item.recordID() == id })
}

// Find returns every record matching the predicate.
func (c *collection[T]) Find(pred func(T) bool) []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []T
	for _, item := range c.items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

func (c *collection[T]) FindOne(pred func(T) bool) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Update applies mutate to the record, stamps updated_at, and persists.
// A rewrite failure is returned so callers never report a change that
// will not survive a restart.
func (c *collection[T]) Update(id int64, mutate func(T)) (T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.items {
		if item.recordID() == id {
			mutate(item)
			item.stampUpdated(time.Now().UTC())
			return item, true, c.saveLocked()
		}
	}
	var zero T
	return zero, false, nil
}

func (c *collection[T]) Delete(id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, item := range c.items {
		if item.recordID() == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true, c.saveLocked()
		}
	}
	return false, nil
}
