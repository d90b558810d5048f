package leveldb

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// Manager opens goleveldb databases as <path>/<name>.db.
type Manager struct {
	dbs    map[string]*leveldb.DB
	path   string
	memory bool
	mu     sync.Mutex
}

func NewManager(path string) *Manager {
	return &Manager{
		dbs:  make(map[string]*leveldb.DB),
		path: path,
	}
}

// NewMemManager keeps every database in memory.
func NewMemManager() *Manager {
	return &Manager{
		dbs:    make(map[string]*leveldb.DB),
		memory: true,
	}
}

func (m *Manager) OpenDB(name string) (database.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, exists := m.dbs[name]; exists {
		return NewDB(db), nil
	}

	var (
		db  *leveldb.DB
		err error
	)
	if m.memory {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(filepath.Join(m.path, name+".db"), nil)
	}
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
