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
	"fmt"
	"strings"

	"github.com/tomoncle/litedb/types"
)

// TypeTag identifies the declared type of a column. The tag selects the
// codec applied when values of the column cross the engine boundary.
type TypeTag int

const (
	TypeText TypeTag = iota
	TypeInteger
	TypeReal
	TypeDatetime
	TypeBool
	TypeJSON
	TypeBlob
)

var _ types.BaseEnum = TypeText

var typeTagNames = map[TypeTag]string{
	TypeText:     "text",
	TypeInteger:  "integer",
	TypeReal:     "real",
	TypeDatetime: "datetime",
	TypeBool:     "bool",
	TypeJSON:     "json",
	TypeBlob:     "blob",
}

func (t TypeTag) IsValid() bool {
	_, ok := typeTagNames[t]
	return ok
}

func (t TypeTag) Number() int { return int(t) }

// String returns the SQL declared type emitted into CREATE TABLE. The
// engine keeps the declared text verbatim, which is what the codec layer
// reads back when decoding result columns.
func (t TypeTag) String() string {
	if s, ok := typeTagNames[t]; ok {
		return s
	}
	return types.IllegalName
}

func (t TypeTag) Name() string { return t.String() }

func (t TypeTag) Desc() string {
	switch t {
	case TypeDatetime:
		return "timestamp stored as text"
	case TypeBool:
		return "boolean stored as integer 0/1"
	case TypeJSON:
		return "json stored as text"
	default:
		if t.IsValid() {
			return "stored natively"
		}
		return types.IllegalDesc
	}
}

// ParseTypeTag resolves a declared type name, as used in YAML schema files.
func ParseTypeTag(s string) (TypeTag, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for tag, n := range typeTagNames {
		if n == name {
			return tag, nil
		}
	}
	return TypeTag(types.IllegalValue), fmt.Errorf("unknown column type %q", s)
}

// Column is a single declared column. Immutable once declared.
type Column struct {
	Name       string
	Type       TypeTag
	PrimaryKey bool
}

// SQL returns the column fragment used inside CREATE TABLE.
func (c Column) SQL() string {
	s := fmt.Sprintf("%s %s", quoteIdent(c.Name), c.Type)
	if c.PrimaryKey {
		s += " primary key"
	}
	return s
}

// RowIDColumn declares an integer primary key column. In sqlite an integer
// primary key is an alias of the engine rowid.
func RowIDColumn(name string) Column {
	if name == "" {
		name = "rowid"
	}
	return Column{Name: name, Type: TypeInteger, PrimaryKey: true}
}

// Table is a declared table: a name plus an ordered column list.
// Immutable once declared; owned by a Schema.
type Table struct {
	Name    string
	Columns []Column
}

// Column returns the declaration for the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// CreateSQL returns the idempotent DDL statement for the table.
func (t *Table) CreateSQL() string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.SQL()
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		quoteIdent(t.Name), strings.Join(cols, ", "))
}

// Schema holds the ordered list of declared tables. Declarations never
// touch the database; Materialize issues the DDL and binds accessors.
type Schema struct {
	tables []*Table
	byName map[string]*Table
}

func NewSchema() *Schema {
	return &Schema{byName: map[string]*Table{}}
}

// Declare records a table declaration. Table names must be unique within
// the schema and column names unique within the table.
func (s *Schema) Declare(name string, cols ...Column) error {
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if len(cols) == 0 {
		return fmt.Errorf("table %q must declare at least one column", name)
	}
	if _, exists := s.byName[name]; exists {
		return fmt.Errorf("table %q already declared", name)
	}
	seen := map[string]struct{}{}
	for _, c := range cols {
		if c.Name == "" {
			return fmt.Errorf("table %q has a column with an empty name", name)
		}
		if !c.Type.IsValid() {
			return fmt.Errorf("table %q column %q has an invalid type", name, c.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("table %q declares column %q twice", name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	t := &Table{Name: name, Columns: append([]Column(nil), cols...)}
	s.tables = append(s.tables, t)
	s.byName[name] = t
	return nil
}

// MustDeclare is Declare, panicking on invalid declarations. Intended for
// package-level schema variables.
func (s *Schema) MustDeclare(name string, cols ...Column) *Schema {
	if err := s.Declare(name, cols...); err != nil {
		panic(err)
	}
	return s
}

// Tables returns the declarations in declaration order.
func (s *Schema) Tables() []*Table {
	out := make([]*Table, len(s.tables))
	copy(out, s.tables)
	return out
}

// Table returns the declaration for the named table.
func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Materialize issues CREATE TABLE IF NOT EXISTS for every declared table
// through the handle, each inside its own transaction, then binds a table
// accessor on the handle for each declaration. Safe to re-run: existing
// tables are left untouched and accessors are re-bound.
func (s *Schema) Materialize(ctx context.Context, db *DB) error {
	for _, t := range s.tables {
		if err := db.Begin(ctx); err != nil {
			return err
		}
		if _, err := db.Exec(ctx, t.CreateSQL()); err != nil {
			_ = db.Rollback()
			return fmt.Errorf("failed to create table %q: %w", t.Name, err)
		}
		if err := db.Commit(); err != nil {
			return fmt.Errorf("failed to commit table %q: %w", t.Name, err)
		}
		db.bindAccessor(t)
	}
	return nil
}

// quoteIdent double-quotes an identifier, escaping embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
