// Package repository provides a generic repository abstraction built on Bun
// models for callers who prefer typed structs over declared-schema rows,
// with CRUD, querying, pagination, transaction, and upsert support.
package repository
