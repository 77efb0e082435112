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
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLifecycleStateMachine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "lifecycle.db")
	db := NewDB(cfg)
	ctx := context.Background()

	if db.IsOpen() {
		t.Fatal("new handle reports open")
	}
	if _, err := db.Exec(ctx, "SELECT 1"); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("exec while closed: err = %v, want ErrNotOpen", err)
	}
	if err := db.Begin(ctx); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("begin while closed: err = %v, want ErrNotOpen", err)
	}
	if err := db.Close(); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("close while closed: err = %v, want ErrNotOpen", err)
	}

	if err := db.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	if !db.IsOpen() {
		t.Fatal("opened handle reports closed")
	}
	if err := db.Open(ctx); !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("double open: err = %v, want ErrAlreadyOpen", err)
	}
	if err := db.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if db.IsOpen() {
		t.Fatal("closed handle reports open")
	}

	// The handle can be reopened.
	if err := db.Open(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close after reopen: %v", err)
	}
}

func TestTransactionGuards(t *testing.T) {
	db := openTestDB(t, nil)
	ctx := context.Background()

	// Commit and rollback are no-ops outside a transaction.
	if err := db.Commit(); err != nil {
		t.Fatalf("idle commit: %v", err)
	}
	if err := db.Rollback(); err != nil {
		t.Fatalf("idle rollback: %v", err)
	}

	if err := db.Begin(ctx); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if !db.InTx() {
		t.Fatal("InTx = false inside transaction")
	}
	if err := db.Begin(ctx); !errors.Is(err, ErrTxInProgress) {
		t.Fatalf("nested begin: err = %v, want ErrTxInProgress", err)
	}
	if err := db.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if db.InTx() {
		t.Fatal("InTx = true after commit")
	}
}

func TestAccessorLookup(t *testing.T) {
	db := openTestDB(t, employeeSchema(t))

	if _, ok := db.Accessor("employee"); !ok {
		t.Fatal("employee accessor missing")
	}
	if _, ok := db.Accessor("nothere"); ok {
		t.Fatal("undeclared accessor present")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("MustAccessor on undeclared table did not panic")
		}
	}()
	db.MustAccessor("nothere")
}

func TestExecScript(t *testing.T) {
	db := openTestDB(t, employeeSchema(t))
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "seed.sql")
	script := `-- seed employees
INSERT INTO "employee" ("name", "awesome") VALUES ('Bob', 1);
INSERT INTO "employee" ("name", "awesome") VALUES ('Ethyl', 1);
`
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	if err := db.ExecScript(ctx, path); err != nil {
		t.Fatalf("exec script: %v", err)
	}

	n, err := db.MustAccessor("employee").Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("seeded rows = %d, want 2", n)
	}
}

func TestExecScriptRollsBackOnError(t *testing.T) {
	db := openTestDB(t, employeeSchema(t))
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "bad.sql")
	script := `INSERT INTO "employee" ("name") VALUES ('Bob');
INSERT INTO "missing" ("name") VALUES ('x');
`
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	if err := db.ExecScript(ctx, path); err == nil {
		t.Fatal("script against missing table did not error")
	}

	n, err := db.MustAccessor("employee").Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("partial script left %d rows, want 0", n)
	}
}

func TestGlobalInit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "global.db")

	db, err := InitDBWithSchema(cfg, employeeSchema(t))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if GetDB() != db {
		t.Fatal("GetDB does not return the initialized handle")
	}
	if err := CloseDB(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if GetDB() != nil {
		t.Fatal("GetDB not nil after CloseDB")
	}
	if err := CloseDB(); err != nil {
		t.Fatalf("double CloseDB: %v", err)
	}
}
