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
	"os"
	"path/filepath"
	"testing"
)

func TestTableCreateSQL(t *testing.T) {
	table := &Table{Name: "employee", Columns: []Column{
		{Name: "name", Type: TypeText},
		{Name: "DOB", Type: TypeDatetime},
		{Name: "awesome", Type: TypeBool},
	}}
	want := `CREATE TABLE IF NOT EXISTS "employee" ("name" text, "DOB" datetime, "awesome" bool)`
	if got := table.CreateSQL(); got != want {
		t.Fatalf("CreateSQL = %q, want %q", got, want)
	}
}

func TestRowIDColumnSQL(t *testing.T) {
	col := RowIDColumn("id")
	if got := col.SQL(); got != `"id" integer primary key` {
		t.Fatalf("rowid column SQL = %q", got)
	}
	if col := RowIDColumn(""); col.Name != "rowid" {
		t.Fatalf("default rowid name = %q", col.Name)
	}
}

func TestDeclareValidation(t *testing.T) {
	schema := NewSchema()
	cols := []Column{{Name: "a", Type: TypeText}}

	if err := schema.Declare("t", cols...); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := schema.Declare("t", cols...); err == nil {
		t.Fatal("duplicate table did not error")
	}
	if err := schema.Declare("u", Column{Name: "a", Type: TypeText}, Column{Name: "a", Type: TypeInteger}); err == nil {
		t.Fatal("duplicate column did not error")
	}
	if err := schema.Declare("v"); err == nil {
		t.Fatal("empty column list did not error")
	}
	if err := schema.Declare("", cols...); err == nil {
		t.Fatal("empty table name did not error")
	}
	if err := schema.Declare("w", Column{Name: "a", Type: TypeTag(99)}); err == nil {
		t.Fatal("invalid type tag did not error")
	}
}

func TestParseTypeTag(t *testing.T) {
	for name, want := range map[string]TypeTag{
		"text":     TypeText,
		"INTEGER":  TypeInteger,
		" bool ":   TypeBool,
		"datetime": TypeDatetime,
		"json":     TypeJSON,
	} {
		got, err := ParseTypeTag(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if got != want {
			t.Fatalf("parse %q = %v, want %v", name, got, want)
		}
	}
	if _, err := ParseTypeTag("varchar"); err == nil {
		t.Fatal("unknown type did not error")
	}
}

func TestTypeTagEnum(t *testing.T) {
	if !TypeBool.IsValid() || TypeTag(99).IsValid() {
		t.Fatal("IsValid misclassifies tags")
	}
	if TypeDatetime.String() != "datetime" {
		t.Fatalf("String = %q", TypeDatetime.String())
	}
	if TypeTag(99).String() != "unknown" {
		t.Fatalf("invalid String = %q", TypeTag(99).String())
	}
}

func TestSchemaFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	content := `tables:
  - name: employee
    columns:
      - name: name
        type: text
      - name: DOB
        type: datetime
      - name: awesome
        type: bool
  - name: address
    columns:
      - name: id
        type: integer
        primary_key: true
      - name: city
        type: text
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write schema file: %v", err)
	}

	cfg, err := LoadSchemaConfig(path)
	if err != nil {
		t.Fatalf("load schema config: %v", err)
	}
	schema, err := cfg.ToSchema()
	if err != nil {
		t.Fatalf("to schema: %v", err)
	}

	tables := schema.Tables()
	if len(tables) != 2 || tables[0].Name != "employee" || tables[1].Name != "address" {
		t.Fatalf("tables = %v", tables)
	}
	col, ok := tables[1].Column("id")
	if !ok || !col.PrimaryKey || col.Type != TypeInteger {
		t.Fatalf("address.id = %+v", col)
	}
}

func TestQuoteIdent(t *testing.T) {
	if got := quoteIdent(`odd"name`); got != `"odd""name"` {
		t.Fatalf("quoteIdent = %q", got)
	}
}
