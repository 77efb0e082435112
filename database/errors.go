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
	"errors"
	"strings"
)

// Misuse errors surfaced by the handle and accessors before any SQL is sent
// to the engine.
var (
	ErrNotOpen      = errors.New("database is not open")
	ErrAlreadyOpen  = errors.New("database is already open")
	ErrTxInProgress = errors.New("already in a transaction")
	ErrNoSuchTable  = errors.New("no accessor bound for table")
	ErrNoConditions = errors.New("refusing to run without conditions")
)

// ErrNoRows is returned by SelectOne when no row matches.
var ErrNoRows = sql.ErrNoRows

type SQLError int

const (
	UnknownErr SQLError = iota
	NoRowsErr
	NoColumnErr
	NoTableErr
	ExistTableErr
	DuplicateKeyErr
	NotNullViolationErr
	ForeignKeyViolationErr
	CheckConstraintViolationErr
	InvalidTypeCastErr
	BusyErr
	ReadOnlyErr
	SyntaxErr
)

// IsSqlError classifies engine errors surfaced by the sqlite drivers
// (modernc via sqliteshim, or mattn when built with CGo). Both report
// errors as text, so classification sniffs the message.
func IsSqlError(err error) (is bool, sqlErr SQLError) {
	if err == nil {
		return false, UnknownErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return true, NoRowsErr
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "no such column") ||
		strings.Contains(s, "has no column named") {
		return true, NoColumnErr
	}
	if strings.Contains(s, "no such table") {
		return true, NoTableErr
	}
	if strings.Contains(s, "already exists") &&
		strings.Contains(s, "table") {
		return true, ExistTableErr
	}
	if strings.Contains(s, "unique constraint failed") ||
		strings.Contains(s, "constraint failed: unique") {
		return true, DuplicateKeyErr
	}
	if strings.Contains(s, "not null constraint failed") {
		return true, NotNullViolationErr
	}
	if strings.Contains(s, "foreign key constraint failed") {
		return true, ForeignKeyViolationErr
	}
	if strings.Contains(s, "check constraint failed") {
		return true, CheckConstraintViolationErr
	}
	if strings.Contains(s, "datatype mismatch") {
		return true, InvalidTypeCastErr
	}
	if strings.Contains(s, "database is locked") ||
		strings.Contains(s, "database table is locked") ||
		strings.Contains(s, "sqlite_busy") {
		return true, BusyErr
	}
	if strings.Contains(s, "readonly database") ||
		strings.Contains(s, "attempt to write a readonly") {
		return true, ReadOnlyErr
	}
	if strings.Contains(s, "syntax error") ||
		strings.Contains(s, "incomplete input") {
		return true, SyntaxErr
	}
	return false, UnknownErr
}
