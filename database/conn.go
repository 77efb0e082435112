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
	"sync"
)

var (
	globalMu sync.RWMutex
	globalDB *DB
)

// InitDB opens a global handle using the provided configuration. Intended
// for applications with one database; libraries should use NewDB.
func InitDB(cfg *Config) (*DB, error) {
	return InitDBWithSchema(cfg, nil)
}

// InitDBWithSchema opens the global handle and materializes the schema on
// it when one is provided.
func InitDBWithSchema(cfg *Config, schema *Schema) (*DB, error) {
	db := NewDB(cfg)
	ctx := context.Background()
	if err := db.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if schema != nil {
		if err := schema.Materialize(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to materialize schema: %w", err)
		}
	}
	globalMu.Lock()
	globalDB = db
	globalMu.Unlock()
	return db, nil
}

// GetDB returns the global handle, nil when InitDB was never called.
func GetDB() *DB {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalDB
}

// CloseDB closes the global handle.
func CloseDB() error {
	globalMu.Lock()
	db := globalDB
	globalDB = nil
	globalMu.Unlock()
	if db == nil {
		return nil
	}
	return db.Close()
}
