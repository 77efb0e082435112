// Package database is a schema-driven convenience layer over an embedded
// sqlite database: declare tables and columns once, then insert, select,
// update, and delete through short accessor methods instead of hand-written
// SQL, while raw WHERE fragments stay available. Statements execute through
// a Bun handle so query hooks observe every statement.
package database
