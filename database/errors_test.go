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
	"testing"
)

func TestIsSqlErrorClassification(t *testing.T) {
	cases := []struct {
		err  error
		want SQLError
	}{
		{sql.ErrNoRows, NoRowsErr},
		{errors.New("SQL logic error: no such table: missing (1)"), NoTableErr},
		{errors.New("SQL logic error: no such column: ghost (1)"), NoColumnErr},
		{errors.New("table employee has no column named ghost"), NoColumnErr},
		{errors.New("SQL logic error: table employee already exists (1)"), ExistTableErr},
		{errors.New("constraint failed: UNIQUE constraint failed: employee.name (2067)"), DuplicateKeyErr},
		{errors.New("constraint failed: NOT NULL constraint failed: employee.name (1299)"), NotNullViolationErr},
		{errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), ForeignKeyViolationErr},
		{errors.New("constraint failed: CHECK constraint failed: age (275)"), CheckConstraintViolationErr},
		{errors.New("datatype mismatch (20)"), InvalidTypeCastErr},
		{errors.New("database is locked (5) (SQLITE_BUSY)"), BusyErr},
		{errors.New("attempt to write a readonly database (8)"), ReadOnlyErr},
		{errors.New(`SQL logic error: near "FORM": syntax error (1)`), SyntaxErr},
	}
	for _, c := range cases {
		is, got := IsSqlError(c.err)
		if !is || got != c.want {
			t.Errorf("IsSqlError(%v) = (%v, %v), want (true, %v)", c.err, is, got, c.want)
		}
	}
}

func TestIsSqlErrorWrapped(t *testing.T) {
	err := fmt.Errorf("query failed: %w", errors.New("no such table: employee"))
	if is, got := IsSqlError(err); !is || got != NoTableErr {
		t.Fatalf("wrapped classification = (%v, %v)", is, got)
	}
}

func TestIsSqlErrorUnknown(t *testing.T) {
	if is, got := IsSqlError(nil); is || got != UnknownErr {
		t.Fatalf("nil = (%v, %v)", is, got)
	}
	if is, got := IsSqlError(errors.New("connection reset by peer")); is || got != UnknownErr {
		t.Fatalf("unrelated error = (%v, %v)", is, got)
	}
}

func TestMissingTableErrorFromEngine(t *testing.T) {
	db := openTestDB(t, NewSchema())
	_, err := db.Exec(context.Background(), `INSERT INTO absent (x) VALUES (?)`, 1)
	if err == nil {
		t.Fatal("insert into missing table succeeded")
	}
	if is, got := IsSqlError(err); !is || got != NoTableErr {
		t.Fatalf("engine error classified as (%v, %v)", is, got)
	}
}
