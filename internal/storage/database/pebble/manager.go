package pebble

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

// Manager opens pebble databases as <path>/<name>.db.
type Manager struct {
	dbs  map[string]*pebble.DB
	path string
	fs   vfs.FS
	mu   sync.Mutex
}

func NewManager(path string) *Manager {
	return &Manager{
		dbs:  make(map[string]*pebble.DB),
		path: path,
	}
}

// NewMemManager keeps every database in memory. Used by tests and dry runs.
func NewMemManager() *Manager {
	return &Manager{
		dbs: make(map[string]*pebble.DB),
		fs:  vfs.NewMem(),
	}
}

func (m *Manager) OpenDB(name string) (database.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, exists := m.dbs[name]; exists {
		return NewDB(db), nil // Already opened
	}

	dbPath := filepath.Join(m.path, name+".db")
	opts := &pebble.Options{}
	if m.fs != nil {
		opts.FS = m.fs
	}

	db, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", name, err)
	}

	m.dbs[name] = db

	return NewDB(db), nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error
	for name, db := range m.dbs {
		if err := db.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close database %s: %w", name, err)
		}
		delete(m.dbs, name)
	}
	return lastErr
}
