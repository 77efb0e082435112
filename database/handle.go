/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// DB owns one open session to a sqlite database file. It carries the codec
// registry, the accessor map populated by Schema.Materialize, and at most
// one caller-managed transaction. Sharing a handle across goroutines is
// the caller's responsibility; the wrapper adds no coordination beyond
// what the engine's own locking provides.
type DB struct {
	config *Config
	logger Logger
	codecs *CodecRegistry

	mu        sync.Mutex
	bunDB     *bun.DB
	sqlDB     *sql.DB
	tx        *bun.Tx
	accessors map[string]*TableAccessor
}

// NewDB creates a closed handle for the configured database file.
func NewDB(cfg *Config) *DB {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &DB{
		config:    cfg,
		logger:    GetLogger(),
		codecs:    DefaultCodecs(),
		accessors: map[string]*TableAccessor{},
	}
}

// Codecs returns the codec registry owned by this handle.
func (d *DB) Codecs() *CodecRegistry { return d.codecs }

// SetLogger replaces the handle's logger.
func (d *DB) SetLogger(logger Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// Open opens or creates the database file and starts the session. Opening
// an already-open handle returns ErrAlreadyOpen.
func (d *DB) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bunDB != nil {
		return fmt.Errorf("%w: %s", ErrAlreadyOpen, d.config.Path)
	}

	dsn := d.config.DSN()
	sqlDB, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	bunDB := bun.NewDB(sqlDB, sqlitedialect.New())
	bunDB.AddQueryHook(&queryLogHook{logger: d.logger})
	if d.config.EnableQueryLog {
		bunDB.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if d.config.SlowQueryTime > 0 {
		bunDB.AddQueryHook(&slowQueryHook{
			slowTime: d.config.SlowQueryTime,
			logger:   d.logger,
		})
	}

	if err := bunDB.PingContext(ctx); err != nil {
		_ = bunDB.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}

	if d.config.LogLevel != "" {
		d.logger.SetLevel(parseLevel(d.config.LogLevel))
	}

	d.sqlDB = sqlDB
	d.bunDB = bunDB
	d.logger.Debug("Database opened", "dsn", dsn)
	return nil
}

// Close releases the session. Closing a closed handle returns ErrNotOpen.
// A transaction still in progress is rolled back first.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bunDB == nil {
		return fmt.Errorf("%w: %s", ErrNotOpen, d.config.Path)
	}
	if d.tx != nil {
		_ = d.tx.Rollback()
		d.tx = nil
	}
	err := d.bunDB.Close()
	d.bunDB = nil
	d.sqlDB = nil
	if err != nil {
		d.logger.Error("Failed to close database", "error", err)
		return err
	}
	d.logger.Debug("Database closed")
	return nil
}

// IsOpen reports whether the handle currently owns a session.
func (d *DB) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bunDB != nil
}

// Begin starts a caller-managed transaction. Nesting is not supported;
// beginning while a transaction is active returns ErrTxInProgress.
func (d *DB) Begin(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bunDB == nil {
		return ErrNotOpen
	}
	if d.tx != nil {
		return ErrTxInProgress
	}
	tx, err := d.bunDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	d.logger.Debug("BEGIN")
	d.tx = &tx
	return nil
}

// Commit commits the active transaction. A no-op when none is active.
func (d *DB) Commit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tx == nil {
		return nil
	}
	err := d.tx.Commit()
	d.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	d.logger.Debug("COMMIT")
	return nil
}

// Rollback discards the active transaction. A no-op when none is active.
func (d *DB) Rollback() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tx == nil {
		return nil
	}
	err := d.tx.Rollback()
	d.tx = nil
	if err != nil {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	d.logger.Debug("ROLLBACK")
	return nil
}

// InTx reports whether a caller-managed transaction is active.
func (d *DB) InTx() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tx != nil
}

// conn returns the execution target for the next statement: the active
// transaction when one is open, the session otherwise.
func (d *DB) conn() (bun.IConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bunDB == nil {
		return nil, ErrNotOpen
	}
	if d.tx != nil {
		return d.tx, nil
	}
	return d.bunDB, nil
}

// Exec composes nothing itself; it encodes the argument list through the
// codec registry, emits the statement at debug verbosity, and runs it
// against the session or the active transaction.
func (d *DB) Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	conn, err := d.conn()
	if err != nil {
		return nil, err
	}
	encoded, err := d.codecs.EncodeValues(args)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("SQL: "+query, "args", encoded)
	return conn.ExecContext(ctx, query, encoded...)
}

// Query runs a statement that returns rows, with codec-encoded arguments.
func (d *DB) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	conn, err := d.conn()
	if err != nil {
		return nil, err
	}
	encoded, err := d.codecs.EncodeValues(args)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("SQL: "+query, "args", encoded)
	return conn.QueryContext(ctx, query, encoded...)
}

// BunDB exposes the underlying Bun handle for model-based access, such as
// the generic repository package. Nil while closed.
func (d *DB) BunDB() *bun.DB {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bunDB
}

// bindAccessor attaches a table accessor for the declaration, replacing
// any previous binding for the same table name.
func (d *DB) bindAccessor(t *Table) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.accessors[t.Name] = newTableAccessor(d, t)
}

// Accessor returns the accessor bound for the named table.
func (d *DB) Accessor(name string) (*TableAccessor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accessors[name]
	return a, ok
}

// MustAccessor returns the accessor bound for the named table, panicking
// if the table was never materialized on this handle.
func (d *DB) MustAccessor(name string) *TableAccessor {
	a, ok := d.Accessor(name)
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrNoSuchTable, name))
	}
	return a
}

// Ping verifies the session is alive.
func (d *DB) Ping(ctx context.Context) error {
	d.mu.Lock()
	db := d.bunDB
	d.mu.Unlock()
	if db == nil {
		return ErrNotOpen
	}
	return db.PingContext(ctx)
}

// Stats returns the database/sql connection statistics for the session.
func (d *DB) Stats() sql.DBStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sqlDB == nil {
		return sql.DBStats{}
	}
	return d.sqlDB.Stats()
}

// ExecScript executes a SQL seed file statement by statement inside one
// transaction. Lines starting with -- are ignored; statements are split
// on terminating semicolons.
func (d *DB) ExecScript(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read SQL file: %w", err)
	}
	statements := splitStatements(string(data))
	if len(statements) == 0 {
		return nil
	}

	if err := d.Begin(ctx); err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := d.Exec(ctx, stmt); err != nil {
			_ = d.Rollback()
			return fmt.Errorf("failed to execute statement from %s: %w", path, err)
		}
	}
	if err := d.Commit(); err != nil {
		return err
	}
	d.logger.Info("Executed SQL script", "file", path, "statements", len(statements))
	return nil
}

func splitStatements(script string) []string {
	var kept []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	var out []string
	for _, stmt := range strings.Split(strings.Join(kept, "\n"), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
