// Package memory is an ordered in-memory database.DB for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database"
)

// DB keeps entries in a string-keyed red-black tree.
type DB struct {
	mu     sync.RWMutex
	tree   *treemap.Map
	closed bool
}

func NewDB() *DB {
	return &DB{tree: treemap.NewWithStringComparator()}
}

func (m *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, database.ErrDBClosed
	}
	v, ok := m.tree.Get(string(key))
	if !ok {
		return nil, database.ErrKeyNotFound
	}
	return append([]byte(nil), v.([]byte)...), nil
}

func (m *DB) Write(ctx context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return database.ErrDBClosed
	}
	m.tree.Put(string(key), append([]byte(nil), value...))
	return nil
}

func (m *DB) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return database.ErrDBClosed
	}
	m.tree.Remove(string(key))
	return nil
}

func (m *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return database.ErrDBClosed
	}
	for _, op := range ops {
		if op.Type != database.BatchPut && op.Type != database.BatchDelete {
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			m.tree.Put(string(op.Key), append([]byte(nil), op.Value...))
		case database.BatchDelete:
			m.tree.Remove(string(op.Key))
		}
	}
	return nil
}

// Iterator returns a snapshot of the range at the time of the call.
func (m *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, database.ErrDBClosed
	}

	it := &Iterator{pos: -1}
	tit := m.tree.Iterator()
	for tit.Next() {
		k := tit.Key().(string)
		if start != nil && k < string(start) {
			continue
		}
		if end != nil && k >= string(end) {
			break
		}
		it.keys = append(it.keys, []byte(k))
		it.values = append(it.values, append([]byte(nil), tit.Value().([]byte)...))
	}
	return it, nil
}

// Close marks the database closed; subsequent calls fail with ErrDBClosed.
func (m *DB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type Iterator struct {
	keys, values [][]byte
	pos          int
}

func (it *Iterator) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *Iterator) Key() []byte {
	if it.pos >= 0 && it.pos < len(it.keys) {
		return it.keys[it.pos]
	}
	return nil
}

func (it *Iterator) Value() []byte {
	if it.pos >= 0 && it.pos < len(it.values) {
		return it.values[it.pos]
	}
	return nil
}

func (it *Iterator) Error() error { return nil }
func (it *Iterator) Close() error { return nil }

// Manager hands out one in-memory DB per name.
type Manager struct {
	mu  sync.Mutex
	dbs map[string]*DB
}

func NewManager() *Manager {
	return &Manager{dbs: make(map[string]*DB)}
}

func (m *Manager) OpenDB(name string) (database.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if db, ok := m.dbs[name]; ok {
		return db, nil
	}
	db := NewDB()
	m.dbs[name] = db
	return db, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, db := range m.dbs {
		_ = db.Close()
		delete(m.dbs, name)
	}
	return nil
}
