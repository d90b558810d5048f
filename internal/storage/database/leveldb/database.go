package leveldb

import (
	"context"
	"errors"
	"fmt"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/storage/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// DB adapts a goleveldb instance to database.DB.
type DB struct {
	db *leveldb.DB
}

func NewDB(db *leveldb.DB) *DB {
	return &DB{db: db}
}

func (l *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if l.db == nil {
		return nil, database.ErrDBClosed
	}
	val, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, database.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}
	return val, nil
}

func (l *DB) Write(ctx context.Context, key, value []byte) error {
	if l.db == nil {
		return database.ErrDBClosed
	}
	return l.db.Put(key, value, nil)
}

func (l *DB) Delete(ctx context.Context, key []byte) error {
	if l.db == nil {
		return database.ErrDBClosed
	}
	return l.db.Delete(key, nil)
}

func (l *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if l.db == nil {
		return database.ErrDBClosed
	}

	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			batch.Put(op.Key, op.Value)
		case database.BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}

	if err := l.db.Write(batch, nil); err != nil {
		return fmt.Errorf("%w: %v", database.ErrBatchOperationFailed, err)
	}
	return nil
}

func (l *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	if l.db == nil {
		return nil, database.ErrDBClosed
	}
	it := l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)
	return &Iterator{it: it}, nil
}

// Iterator copies entries out of a goleveldb iterator, whose buffers are
// reused between steps.
type Iterator struct {
	it         iterator.Iterator
	key, value []byte
}

func (it *Iterator) Next() bool {
	if !it.it.Next() {
		return false
	}
	it.key = append([]byte(nil), it.it.Key()...)
	it.value = append([]byte(nil), it.it.Value()...)
	return true
}

func (it *Iterator) Key() []byte   { return it.key }
func (it *Iterator) Value() []byte { return it.value }
func (it *Iterator) Error() error  { return it.it.Error() }

func (it *Iterator) Close() error {
	it.it.Release()
	return nil
}
