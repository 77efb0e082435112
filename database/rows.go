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
	"database/sql"
	"fmt"
	"time"

	"github.com/tomoncle/litedb/types"
)

// Row is a result row addressable by column name, with values already
// decoded through the codec registry.
type Row map[string]interface{}

// Has reports whether the row contains the named column.
func (r Row) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// String returns the named column as a string, or "" when absent or NULL.
func (r Row) String(name string) string {
	switch v := r[name].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

// Int returns the named column as an int64, or 0 when absent or NULL.
func (r Row) Int(name string) int64 {
	switch v := r[name].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Float returns the named column as a float64, or 0 when absent or NULL.
func (r Row) Float(name string) float64 {
	switch v := r[name].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// Bool returns the named column as a bool. Raw integer storage values are
// accepted for undeclared columns.
func (r Row) Bool(name string) bool {
	switch v := r[name].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	default:
		return false
	}
}

// Time returns the named column as a time.Time, zero when absent.
func (r Row) Time(name string) time.Time {
	if t, ok := r[name].(time.Time); ok {
		return t
	}
	return time.Time{}
}

// JSON returns the named column as a JsonObject, nil when absent.
func (r Row) JSON(name string) types.JsonObject {
	if o, ok := r[name].(types.JsonObject); ok {
		return o
	}
	return nil
}

// Cursor walks a result set, decoding one row at a time. Always Close a
// cursor that was not drained by All.
type Cursor struct {
	rows    *sql.Rows
	table   *Table
	codecs  *CodecRegistry
	columns []string
	current Row
	err     error
}

func newCursor(rows *sql.Rows, table *Table, codecs *CodecRegistry) (*Cursor, error) {
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}
	return &Cursor{rows: rows, table: table, codecs: codecs, columns: columns}, nil
}

// Next advances to the next row, returning false at the end of the result
// set or on error.
func (c *Cursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		c.current = nil
		return false
	}

	raw := make([]interface{}, len(c.columns))
	ptrs := make([]interface{}, len(c.columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		c.err = fmt.Errorf("failed to scan row: %w", err)
		c.current = nil
		return false
	}

	row := make(Row, len(c.columns))
	for i, name := range c.columns {
		v := raw[i]
		if col, ok := c.table.Column(name); ok {
			decoded, err := c.codecs.DecodeColumn(col.Type, v)
			if err != nil {
				c.err = fmt.Errorf("column %q: %w", name, err)
				c.current = nil
				return false
			}
			v = decoded
		} else if b, isBytes := v.([]byte); isBytes {
			// Undeclared text columns come back as []byte from some drivers.
			v = string(b)
		}
		row[name] = v
	}
	c.current = row
	return true
}

// Row returns the row produced by the last successful Next.
func (c *Cursor) Row() Row { return c.current }

// Err returns the first error encountered while iterating.
func (c *Cursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

// Close releases the underlying result set.
func (c *Cursor) Close() error { return c.rows.Close() }

// All drains the cursor into a slice and closes it.
func (c *Cursor) All() ([]Row, error) {
	defer func() { _ = c.rows.Close() }()
	var out []Row
	for c.Next() {
		out = append(out, c.Row())
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
