// Package journal records scheduler events in a relational database and
// answers history queries over them.
package journal

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"

	"github.com/UniqueNetwork/unique-chain-sub001/internal/core/scheduler"
	"github.com/UniqueNetwork/unique-chain-sub001/internal/log"
)

// Entry is one recorded event.
type Entry struct {
	ID         int64
	Tick       uint32
	Kind       string
	When       uint32
	Index      uint32
	Name       string
	Priority   uint8
	Result     string
	RecordedAt time.Time
}

// FromEvent converts a scheduler event to a journal entry.
func FromEvent(ev scheduler.Event) Entry {
	e := Entry{
		Tick:     ev.Tick,
		Kind:     ev.Kind.String(),
		When:     ev.Task.When,
		Index:    ev.Task.Index,
		Priority: ev.Priority,
	}
	if ev.ID != nil {
		e.Name = ev.ID.String()
	}
	if ev.Result != nil {
		e.Result = ev.Result.Error()
	}
	return e
}

// Filter narrows a history query. Zero fields match everything.
type Filter struct {
	Kind     string
	Name     string
	FromTick uint32
	ToTick   uint32
	Limit    int
}

// Journal is an append-only event log.
type Journal struct {
	mu     sync.RWMutex
	db     *sql.DB
	driver string
	config Config
	logger log.Logger
}

// Open connects to the configured database and creates the schema.
func Open(ctx context.Context, config Config, logger log.Logger) (*Journal, error) {
	if err := config.Validate(); err != nil {
		return nil, newError("open", "invalid configuration", err)
	}
	dsn, err := config.BuildConnectionString()
	if err != nil {
		return nil, newError("open", "failed to build connection string", err)
	}

	db, err := sql.Open(config.Driver, dsn)
	if err != nil {
		return nil, newError("open", "failed to open database connection", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	j := &Journal{db: db, driver: config.Driver, config: config, logger: logger.Component("journal")}

	pctx, cancel := context.WithTimeout(ctx, config.DefaultTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, newError("open", "failed to ping database", err)
	}
	if err := j.initSchema(pctx); err != nil {
		db.Close()
		return nil, newError("open", "failed to initialize schema", err)
	}

	j.logger.Info("journal opened", log.String("driver", config.Driver))
	return j, nil
}

func (j *Journal) initSchema(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if j.driver == DriverPostgres {
		id = "BIGSERIAL PRIMARY KEY"
	}
	queries := []string{
		`CREATE TABLE IF NOT EXISTS scheduler_events (
			id ` + id + `,
			tick BIGINT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			task_when BIGINT NOT NULL,
			task_index BIGINT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			priority SMALLINT NOT NULL DEFAULT 0,
			result TEXT NOT NULL DEFAULT '',
			recorded_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scheduler_events_tick ON scheduler_events(tick)`,
		`CREATE INDEX IF NOT EXISTS idx_scheduler_events_name ON scheduler_events(name)`,
		`CREATE INDEX IF NOT EXISTS idx_scheduler_events_kind ON scheduler_events(kind)`,
	}
	if j.driver == DriverPostgres {
		// Tables created with a bounded name column.
		queries = append(queries, `ALTER TABLE scheduler_events ALTER COLUMN name TYPE TEXT`)
	}
	for _, q := range queries {
		if _, err := j.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders to the driver's syntax.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Append records entries in one transaction. Entries with a zero
// RecordedAt are stamped with the current time.
func (j *Journal) Append(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.DefaultTimeout)
	defer cancel()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return newError("append", "failed to begin transaction", err)
	}
	stmt, err := tx.PrepareContext(ctx, rebind(j.driver,
		`INSERT INTO scheduler_events(tick, kind, task_when, task_index, name, priority, result, recorded_at)
		 VALUES(?,?,?,?,?,?,?,?)`))
	if err != nil {
		_ = tx.Rollback()
		return newError("append", "failed to prepare insert", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, e := range entries {
		at := e.RecordedAt
		if at.IsZero() {
			at = now
		}
		if _, err := stmt.ExecContext(ctx, e.Tick, e.Kind, e.When, e.Index, e.Name, e.Priority, e.Result, at.UnixNano()); err != nil {
			_ = tx.Rollback()
			return newError("append", "failed to insert event", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return newError("append", "failed to commit", err)
	}
	return nil
}

// History returns matching entries in recording order.
func (j *Journal) History(ctx context.Context, f Filter) ([]Entry, error) {
	if f.Limit < 0 {
		return nil, ErrInvalidLimit
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return nil, ErrClosed
	}

	var (
		where []string
		args  []any
	)
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Name != "" {
		where = append(where, "name = ?")
		args = append(args, f.Name)
	}
	if f.FromTick != 0 {
		where = append(where, "tick >= ?")
		args = append(args, f.FromTick)
	}
	if f.ToTick != 0 {
		where = append(where, "tick <= ?")
		args = append(args, f.ToTick)
	}

	q := `SELECT id, tick, kind, task_when, task_index, name, priority, result, recorded_at FROM scheduler_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.DefaultTimeout)
	defer cancel()

	rows, err := j.db.QueryContext(ctx, rebind(j.driver, q), args...)
	if err != nil {
		return nil, newError("history", "query failed", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			at int64
		)
		if err := rows.Scan(&e.ID, &e.Tick, &e.Kind, &e.When, &e.Index, &e.Name, &e.Priority, &e.Result, &at); err != nil {
			return nil, newError("history", "failed to scan row", err)
		}
		e.RecordedAt = time.Unix(0, at)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, newError("history", "failed to read rows", err)
	}
	return out, nil
}

// Counts returns the number of recorded events per kind.
func (j *Journal) Counts(ctx context.Context) (map[string]int64, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.db == nil {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.DefaultTimeout)
	defer cancel()

	rows, err := j.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM scheduler_events GROUP BY kind`)
	if err != nil {
		return nil, newError("counts", "query failed", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			kind string
			n    int64
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, newError("counts", "failed to scan row", err)
		}
		out[kind] = n
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	if err != nil {
		return newError("close", "failed to close database connection", err)
	}
	return nil
}
