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

// Package litedb is the top-level entry point: open a database file,
// materialize a declared schema on it, and work with tables through
// accessors or typed services.
package litedb

import (
	"context"

	"github.com/tomoncle/litedb/database"
	"github.com/tomoncle/litedb/repository"
)

// Commonly used types re-exported from the database package.
type (
	DB     = database.DB
	Config = database.Config
	Schema = database.Schema
	Column = database.Column
	Row    = database.Row
	Values = database.Values
)

// NewSchema creates an empty schema declaration.
func NewSchema() *Schema { return database.NewSchema() }

// NewRepository returns a typed repository over Bun models bound to the
// given handle.
func NewRepository[T any](db *DB) repository.Repository[T] {
	return repository.NewRepository[T](db)
}

// Open opens or creates a database file and returns the handle. The
// caller owns Close.
func Open(ctx context.Context, path string) (*DB, error) {
	cfg := database.DefaultConfig()
	cfg.Path = path
	db := database.NewDB(cfg)
	if err := db.Open(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenWithSchema opens the database and materializes the schema, binding
// one accessor per declared table on the returned handle.
func OpenWithSchema(ctx context.Context, path string, schema *Schema) (*DB, error) {
	db, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if schema != nil {
		if err := schema.Materialize(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
