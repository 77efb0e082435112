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
	"errors"
	"fmt"
	"strings"

	"github.com/tomoncle/litedb/types"
)

// Star selects all columns.
var Star []string = nil

// Value is one (column, value) pair in declaration order.
type Value struct {
	Column string
	V      interface{}
}

// Values is an ordered column/value list, the explicit replacement for
// keyword-argument style inserts and updates.
type Values []Value

// Set appends a pair, allowing Values{}.Set("a", 1).Set("b", 2) chains.
func (v Values) Set(column string, value interface{}) Values {
	return append(v, Value{Column: column, V: value})
}

// Cond is a single WHERE condition carrying its own bound arguments.
// Constructed via Eq, Ne, Gt, and friends for (column, operator, value)
// triples, or RawCond for arbitrary SQL fragments with ? placeholders.
type Cond struct {
	frag string
	args []interface{}
}

func colCond(column, op string, value interface{}) Cond {
	return Cond{frag: quoteIdent(column) + op + "?", args: []interface{}{value}}
}

func Eq(column string, value interface{}) Cond { return colCond(column, "=", value) }

func Ne(column string, value interface{}) Cond { return colCond(column, "<>", value) }

func Gt(column string, value interface{}) Cond { return colCond(column, ">", value) }

func Ge(column string, value interface{}) Cond { return colCond(column, ">=", value) }

func Lt(column string, value interface{}) Cond { return colCond(column, "<", value) }

func Le(column string, value interface{}) Cond { return colCond(column, "<=", value) }

func Like(column string, pattern string) Cond {
	return colCond(column, " LIKE ", pattern)
}

// RawCond wraps a raw SQL boolean fragment. The fragment is passed to the
// engine verbatim; syntax errors surface at execution time.
func RawCond(frag string, args ...interface{}) Cond {
	return Cond{frag: frag, args: args}
}

func joinConds(conds []Cond) (string, []interface{}) {
	frags := make([]string, len(conds))
	var args []interface{}
	for i, c := range conds {
		frags[i] = c.frag
		args = append(args, c.args...)
	}
	return strings.Join(frags, " AND "), args
}

// TableAccessor is bound to one declared table on one handle and exposes
// the CRUD surface. Instances are created by Schema.Materialize; rebinding
// happens by re-running materialization.
type TableAccessor struct {
	db    *DB
	table *Table
}

func newTableAccessor(db *DB, table *Table) *TableAccessor {
	return &TableAccessor{db: db, table: table}
}

// Name returns the bound table name.
func (a *TableAccessor) Name() string { return a.table.Name }

// Table returns the bound declaration.
func (a *TableAccessor) Table() *Table { return a.table }

type selectQuery struct {
	where     string
	whereArgs []interface{}
	order     string
	limit     int
	offset    int
}

// SelectOption refines a Select/SelectOne composition.
type SelectOption func(*selectQuery)

// Where appends a raw SQL boolean fragment with positional ? placeholders.
// The fragment is not validated against the declaration; engine errors
// propagate unchanged at execution time.
func Where(frag string, args ...interface{}) SelectOption {
	return func(q *selectQuery) {
		q.where = frag
		q.whereArgs = args
	}
}

// OrderBy appends a raw ORDER BY expression.
func OrderBy(expr string) SelectOption {
	return func(q *selectQuery) { q.order = expr }
}

// Limit caps the number of returned rows.
func Limit(n int) SelectOption {
	return func(q *selectQuery) { q.limit = n }
}

// Offset skips the first n rows.
func Offset(n int) SelectOption {
	return func(q *selectQuery) { q.offset = n }
}

func (a *TableAccessor) buildSelect(cols []string, opts ...SelectOption) (string, []interface{}) {
	var q selectQuery
	for _, opt := range opts {
		opt(&q)
	}

	colList := "*"
	if len(cols) > 0 && !(len(cols) == 1 && cols[0] == "*") {
		quoted := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = quoteIdent(c)
		}
		colList = strings.Join(quoted, ",")
	}

	sb := strings.Builder{}
	sb.WriteString("SELECT ")
	sb.WriteString(colList)
	sb.WriteString(" FROM ")
	sb.WriteString(quoteIdent(a.table.Name))
	if q.where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(q.where)
	}
	if q.order != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(q.order)
	}
	if q.limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", q.limit))
	}
	if q.offset > 0 {
		sb.WriteString(fmt.Sprintf(" OFFSET %d", q.offset))
	}
	return sb.String(), q.whereArgs
}

// Select composes and runs SELECT <cols> FROM <table> with the options
// applied, returning a cursor of decoded rows. Pass Star (or nil) for all
// columns.
func (a *TableAccessor) Select(ctx context.Context, cols []string, opts ...SelectOption) (*Cursor, error) {
	query, args := a.buildSelect(cols, opts...)
	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return newCursor(rows, a.table, a.db.codecs)
}

// SelectOne runs the identical composition and returns the first matching
// row, or ErrNoRows when nothing matches.
func (a *TableAccessor) SelectOne(ctx context.Context, cols []string, opts ...SelectOption) (Row, error) {
	cursor, err := a.Select(ctx, cols, opts...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close() }()

	if !cursor.Next() {
		if err := cursor.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoRows
	}
	return cursor.Row(), nil
}

// InsertBuilder accumulates (column, value) pairs in call order.
type InsertBuilder struct {
	accessor *TableAccessor
	values   Values
}

// Insert starts an insert composition:
//
//	res, err := a.Insert().Set("name", "Bob").Set("awesome", true).Exec(ctx)
func (a *TableAccessor) Insert() *InsertBuilder {
	return &InsertBuilder{accessor: a}
}

// Set binds a value to a column; order of Set calls is the column order of
// the generated statement.
func (b *InsertBuilder) Set(column string, value interface{}) *InsertBuilder {
	b.values = b.values.Set(column, value)
	return b
}

// Exec composes and runs the INSERT. The result exposes LastInsertId.
func (b *InsertBuilder) Exec(ctx context.Context) (sql.Result, error) {
	return b.accessor.InsertValues(ctx, b.values)
}

// InsertValues composes INSERT INTO <table> (<names>) VALUES (<?...>) from
// the ordered pair list and runs it.
func (a *TableAccessor) InsertValues(ctx context.Context, vals Values) (sql.Result, error) {
	if len(vals) == 0 {
		return nil, fmt.Errorf("insert into %q: no values", a.table.Name)
	}
	names := make([]string, len(vals))
	marks := make([]string, len(vals))
	args := make([]interface{}, len(vals))
	for i, v := range vals {
		names[i] = quoteIdent(v.Column)
		marks[i] = "?"
		args[i] = v.V
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(a.table.Name), strings.Join(names, ","), strings.Join(marks, ","))
	return a.db.Exec(ctx, query, args...)
}

// Update composes UPDATE <table> SET ... WHERE ... binding the set values
// first and the condition values after, and returns the number of
// affected rows. At least one condition is required; use
// RawCond("1=1") to deliberately touch every row.
func (a *TableAccessor) Update(ctx context.Context, set Values, conds ...Cond) (int64, error) {
	if len(set) == 0 {
		return 0, fmt.Errorf("update %q: no values", a.table.Name)
	}
	if len(conds) == 0 {
		return 0, fmt.Errorf("update %q: %w", a.table.Name, ErrNoConditions)
	}

	assigns := make([]string, len(set))
	args := make([]interface{}, 0, len(set)+len(conds))
	for i, v := range set {
		assigns[i] = quoteIdent(v.Column) + "=?"
		args = append(args, v.V)
	}
	where, whereArgs := joinConds(conds)
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		quoteIdent(a.table.Name), strings.Join(assigns, ","), where)
	res, err := a.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete composes DELETE FROM <table> WHERE ... and returns the number of
// deleted rows. At least one condition is required.
func (a *TableAccessor) Delete(ctx context.Context, conds ...Cond) (int64, error) {
	if len(conds) == 0 {
		return 0, fmt.Errorf("delete from %q: %w", a.table.Name, ErrNoConditions)
	}
	where, args := joinConds(conds)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", quoteIdent(a.table.Name), where)
	res, err := a.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Count returns the number of rows matching the conditions, all rows when
// none are given.
func (a *TableAccessor) Count(ctx context.Context, conds ...Cond) (int, error) {
	query := "SELECT count(*) FROM " + quoteIdent(a.table.Name)
	var args []interface{}
	if len(conds) > 0 {
		where, whereArgs := joinConds(conds)
		query += " WHERE " + where
		args = whereArgs
	}
	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rows.Close() }()

	var n int
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, errors.New("count returned no rows")
	}
	if err := rows.Scan(&n); err != nil {
		return 0, err
	}
	return n, rows.Err()
}

// Page returns one page of rows plus the total count for the request's
// filter.
func (a *TableAccessor) Page(ctx context.Context, req *types.PageRequest) (*types.Pagination[Row], error) {
	pagination := types.NewDefaultPagination[Row](req.GetPage(), req.GetPageSize())

	var conds []Cond
	if f := req.GetFilter(); f != nil {
		conds = append(conds, RawCond(f.Schema, f.Args...))
	}
	total, err := a.Count(ctx, conds...)
	if err != nil || total == 0 {
		return pagination, err
	}

	opts := []SelectOption{Limit(req.GetPageSize()), Offset(req.GetOffset())}
	if f := req.GetFilter(); f != nil {
		opts = append(opts, Where(f.Schema, f.Args...))
	}
	if orders := req.GetOrders(); len(orders) > 0 {
		opts = append(opts, OrderBy(strings.Join(orders, ", ")))
	}

	cursor, err := a.Select(ctx, Star, opts...)
	if err != nil {
		return nil, err
	}
	items, err := cursor.All()
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}
