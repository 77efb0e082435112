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

package litedb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomoncle/litedb/database"

	"github.com/uptrace/bun"
)

func TestOpenWithSchema(t *testing.T) {
	ctx := context.Background()
	schema := NewSchema()
	schema.MustDeclare("employee",
		database.RowIDColumn("eid"),
		Column{Name: "name", Type: database.TypeText},
		Column{Name: "dob", Type: database.TypeDatetime},
		Column{Name: "awesome", Type: database.TypeBool},
	)

	db, err := OpenWithSchema(ctx, filepath.Join(t.TempDir(), "facade.db"), schema)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()

	employee, ok := db.Accessor("employee")
	if !ok {
		t.Fatal("employee accessor not bound")
	}

	dob := time.Date(1994, 7, 21, 8, 30, 0, 250000, time.UTC)
	vals := Values{}.Set("name", "Ethyl").Set("dob", dob).Set("awesome", true)
	res, err := employee.InsertValues(ctx, vals)
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id, err := res.LastInsertId(); err != nil || id <= 0 {
		t.Fatalf("last insert id = %d, %v", id, err)
	}

	row, err := employee.SelectOne(ctx, database.Star, database.Where("name = ?", "Ethyl"))
	if err != nil {
		t.Fatalf("select one: %v", err)
	}
	if !row.Bool("awesome") {
		t.Fatal("awesome flag lost")
	}
	got := row.Time("dob")
	if !got.Equal(dob) {
		t.Fatalf("dob round trip: got %v, want %v", got, dob)
	}
}

func TestOpenPlainFile(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "plain.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(ctx, `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT)`); err != nil {
		t.Fatalf("ddl: %v", err)
	}
	if _, err := db.Exec(ctx, `INSERT INTO kv (k, v) VALUES (?, ?)`, "greeting", "hello"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	rows, err := db.Query(ctx, `SELECT v FROM kv WHERE k = ?`, "greeting")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		t.Fatal("no row returned")
	}
	var v string
	if err := rows.Scan(&v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if v != "hello" {
		t.Fatalf("v = %q", v)
	}
}

type account struct {
	bun.BaseModel `bun:"table:account"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name"`
}

func TestServiceOverGlobalHandle(t *testing.T) {
	ctx := context.Background()
	cfg := database.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "svc.db")
	if _, err := database.InitDB(cfg); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer func() { _ = database.CloseDB() }()

	ddl := `CREATE TABLE account (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`
	if _, err := database.GetDB().Exec(ctx, ddl); err != nil {
		t.Fatalf("ddl: %v", err)
	}

	svc := NewService[account]()
	if err := svc.Save(ctx, &account{Name: "alice"}, &account{Name: "bob"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	all, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d accounts, want 2", len(all))
	}

	first := all[0]
	first.Name = "alice-2"
	if err := svc.Update(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "alice-2" {
		t.Fatalf("name = %q", got.Name)
	}

	count, err := svc.SelectBuilder().Model((*account)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d", count)
	}

	repo := NewRepository[account](database.GetDB())
	n, err := repo.Count(ctx, nil)
	if err != nil {
		t.Fatalf("repo count: %v", err)
	}
	if n != 2 {
		t.Fatalf("repo count = %d, want 2", n)
	}

	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	remaining, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Name != "bob" {
		t.Fatalf("remaining: %+v", remaining)
	}
}
