/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
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

package sqlens

import (
	"reflect"
	"testing"
)

func mustParseInsert(t *testing.T, input string) *InsertStmt {
	t.Helper()
	stmt, err := ParseStatement(input)
	if err != nil {
		t.Fatalf("ParseStatement(%q) failed: %v", input, err)
	}
	ins, ok := stmt.(*InsertStmt)
	if !ok {
		t.Fatalf("expected *InsertStmt, got %T", stmt)
	}
	return ins
}

func TestParseInsertValues(t *testing.T) {
	ins := mustParseInsert(t, "INSERT INTO users (id, name, active) VALUES (1, 'alice', TRUE), (2, NULL, FALSE)")

	if ins.Table.Table != "users" {
		t.Errorf("table = %#v", ins.Table)
	}
	if !reflect.DeepEqual(ins.Columns, []string{"id", "name", "active"}) {
		t.Errorf("columns = %v", ins.Columns)
	}
	if len(ins.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(ins.Rows))
	}

	row := ins.Rows[0]
	if row[0].Kind != ValueNumber || row[0].Raw != "1" {
		t.Errorf("row[0][0] = %#v", row[0])
	}
	if row[1].Kind != ValueString || row[1].Raw != "alice" {
		t.Errorf("row[0][1] = %#v", row[1])
	}
	if row[2].Kind != ValueBool || !row[2].Bool {
		t.Errorf("row[0][2] = %#v", row[2])
	}
	if ins.Rows[1][1].Kind != ValueNull {
		t.Errorf("row[1][1] = %#v", ins.Rows[1][1])
	}
}

func TestParseInsertValueKinds(t *testing.T) {
	ins := mustParseInsert(t, "INSERT INTO t (a, b, c, d) VALUES ($1, :name, DEFAULT, now())")
	row := ins.Rows[0]
	if row[0].Kind != ValueParam || row[0].Raw != "$1" {
		t.Errorf("param = %#v", row[0])
	}
	if row[1].Kind != ValueParam || row[1].Raw != ":name" {
		t.Errorf("named param = %#v", row[1])
	}
	if row[2].Kind != ValueDefault {
		t.Errorf("default = %#v", row[2])
	}
	if row[3].Kind != ValueExpr {
		t.Errorf("expr = %#v", row[3])
	}
}

func TestParseInsertSelectSource(t *testing.T) {
	ins := mustParseInsert(t, "INSERT INTO archive (id, name) SELECT id, name FROM users WHERE active = FALSE")
	if ins.Select == nil {
		t.Fatal("expected SELECT source")
	}
	if ins.Rows != nil {
		t.Error("Rows must be nil with a SELECT source")
	}
	if len(ins.Select.Items) != 2 {
		t.Errorf("select items = %#v", ins.Select.Items)
	}
}

func TestParseInsertSchemaQualified(t *testing.T) {
	ins := mustParseInsert(t, "INSERT INTO audit.events (id) VALUES (1)")
	if ins.Table.Schema != "audit" || ins.Table.Table != "events" {
		t.Errorf("table = %#v", ins.Table)
	}
}

func TestParseInsertOnConflictDoNothing(t *testing.T) {
	ins := mustParseInsert(t, "INSERT INTO users (id) VALUES (1) ON CONFLICT (id) DO NOTHING")
	oc := ins.OnConflict
	if oc == nil {
		t.Fatal("expected ON CONFLICT")
	}
	if !reflect.DeepEqual(oc.Columns, []string{"id"}) {
		t.Errorf("columns = %v", oc.Columns)
	}
	if oc.DoUpdate {
		t.Error("expected DO NOTHING")
	}
}

func TestParseInsertOnConflictDoUpdate(t *testing.T) {
	ins := mustParseInsert(t, `INSERT INTO users (id, name) VALUES (1, 'a')
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name WHERE users.active = TRUE
		RETURNING id`)

	oc := ins.OnConflict
	if oc == nil || !oc.DoUpdate {
		t.Fatalf("on conflict = %#v", oc)
	}
	if len(oc.Assignments) != 1 {
		t.Fatalf("assignments = %#v", oc.Assignments)
	}
	a := oc.Assignments[0]
	if a.Column != "name" || a.Value.Kind != ValueExcluded || a.Value.Raw != "name" {
		t.Errorf("assignment = %#v", a)
	}
	if oc.Where == nil {
		t.Error("expected conflict WHERE guard")
	}
	if ins.Returning == nil || len(ins.Returning.Items) != 1 {
		t.Errorf("returning = %#v", ins.Returning)
	}
}

func TestParseInsertOnConflictConstraint(t *testing.T) {
	ins := mustParseInsert(t, "INSERT INTO users (id) VALUES (1) ON CONFLICT ON CONSTRAINT users_pkey DO NOTHING")
	if ins.OnConflict == nil || ins.OnConflict.Constraint != "users_pkey" {
		t.Errorf("on conflict = %#v", ins.OnConflict)
	}
}

func TestParseInsertSelectWithOnConflict(t *testing.T) {
	// The trailing ON CONFLICT must not be swallowed by the SELECT's
	// join clause.
	ins := mustParseInsert(t, `INSERT INTO totals (user_id, n)
		SELECT u.id, COUNT(*) AS n FROM users u JOIN posts p ON p.user_id = u.id GROUP BY u.id
		ON CONFLICT (user_id) DO NOTHING`)
	if ins.Select == nil {
		t.Fatal("expected SELECT source")
	}
	if len(ins.Select.Joins) != 1 {
		t.Fatalf("joins = %#v", ins.Select.Joins)
	}
	if ins.OnConflict == nil {
		t.Fatal("expected ON CONFLICT after SELECT source")
	}
}

func TestParseInsertRejectsOldNewReturning(t *testing.T) {
	_, err := ParseStatement("INSERT INTO users (id) VALUES (1) RETURNING OLD.id")
	if err == nil {
		t.Fatal("expected error: OLD/NEW is UPDATE-only")
	}
}

func TestParseInsertMissingSource(t *testing.T) {
	_, err := ParseStatement("INSERT INTO users (id)")
	if err == nil {
		t.Fatal("expected error for INSERT without VALUES or SELECT")
	}
}
