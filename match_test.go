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
	"strings"
	"testing"
)

// testSchema builds the model most matcher and validator tests share:
// a default "public" schema plus a second "analytics" schema.
func testSchema(t *testing.T) *Schema {
	t.Helper()
	s := NewSchema()
	for _, name := range []string{"public", "analytics"} {
		if err := s.AddSchema(name); err != nil {
			t.Fatal(err)
		}
	}
	tables := []struct {
		schema string
		name   string
		cols   RowShape
	}{
		{"public", "users", RowShape{"id": TypeNumber, "name": TypeString, "age": TypeNumber, "active": TypeBoolean, "data": TypeJSON}},
		{"public", "posts", RowShape{"id": TypeNumber, "user_id": TypeNumber, "title": TypeString}},
		{"public", "legacy_users", RowShape{"id": TypeNumber, "name": TypeNumber}},
		{"analytics", "events", RowShape{"id": TypeNumber, "user_id": TypeNumber, "payload": TypeJSON}},
	}
	for _, tb := range tables {
		if err := s.AddTable(tb.schema, tb.name, tb.cols); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func mustMatch(t *testing.T, input string, schema *Schema) *MatchResult {
	t.Helper()
	stmt, err := ParseStatement(input)
	if err != nil {
		t.Fatalf("ParseStatement(%q) failed: %v", input, err)
	}
	res, err := Match(stmt, schema)
	if err != nil {
		t.Fatalf("Match(%q) failed: %v", input, err)
	}
	return res
}

func mustMatchOk(t *testing.T, input string, schema *Schema) *MatchResult {
	t.Helper()
	res := mustMatch(t, input, schema)
	if !res.Ok() {
		t.Fatalf("Match(%q) embedded errors: %v", input, res.Errors)
	}
	return res
}

func TestMatchSelectColumns(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "SELECT id, name AS login FROM users", s)

	want := RowShape{"id": TypeNumber, "login": TypeString}
	if !reflect.DeepEqual(res.Shape, want) {
		t.Errorf("shape = %#v, want %#v", res.Shape, want)
	}
	if !res.HasRows {
		t.Error("SELECT always has rows")
	}
}

func TestMatchSelectStar(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "SELECT * FROM users", s)
	if len(res.Shape) != 5 {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchSelectJoinTieBreak(t *testing.T) {
	s := testSchema(t)
	// Both tables define "id"; the FROM source wins for unqualified
	// references and for the bare *.
	res := mustMatchOk(t, "SELECT id FROM legacy_users JOIN users ON users.id = legacy_users.id", s)
	if res.Shape["id"] != TypeNumber {
		t.Errorf("id = %q", res.Shape["id"])
	}

	res = mustMatchOk(t, "SELECT name FROM legacy_users JOIN users ON users.id = legacy_users.id", s)
	if res.Shape["name"] != TypeNumber {
		t.Errorf("name must come from legacy_users (first in scope), got %q", res.Shape["name"])
	}
}

func TestMatchSelectStarJoinTieBreak(t *testing.T) {
	s := testSchema(t)
	// Bare * over two sources that both define "id" and "name": the
	// earlier source in scope supplies the duplicate columns.
	res := mustMatchOk(t, "SELECT * FROM users JOIN legacy_users ON legacy_users.id = users.id", s)

	want := RowShape{
		"id":     TypeNumber,
		"name":   TypeString,
		"age":    TypeNumber,
		"active": TypeBoolean,
		"data":   TypeJSON,
	}
	if !reflect.DeepEqual(res.Shape, want) {
		t.Errorf("shape = %#v, want %#v", res.Shape, want)
	}

	// Reversed order flips the winner for "name".
	res = mustMatchOk(t, "SELECT * FROM legacy_users JOIN users ON users.id = legacy_users.id", s)
	if res.Shape["name"] != TypeNumber {
		t.Errorf("name must come from legacy_users (first in scope), got %q", res.Shape["name"])
	}
}

func TestMatchSelectQualifiedAndWildcard(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "SELECT u.name, p.* FROM users u JOIN posts p ON p.user_id = u.id", s)

	want := RowShape{"name": TypeString, "id": TypeNumber, "user_id": TypeNumber, "title": TypeString}
	if !reflect.DeepEqual(res.Shape, want) {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchSelectSchemaQualified(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "SELECT analytics.events.payload FROM analytics.events", s)
	if res.Shape["payload"] != TypeJSON {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchSelectEmbeddedErrors(t *testing.T) {
	s := testSchema(t)
	res := mustMatch(t, "SELECT id, nonexistent, name FROM users", s)

	if res.Ok() {
		t.Fatal("expected embedded error")
	}
	if len(res.Errors) != 1 {
		t.Fatalf("errors = %v", res.Errors)
	}
	if res.Errors[0].Code != ErrCodeColumnNotFound {
		t.Errorf("code = %d", res.Errors[0].Code)
	}
	// The good columns still resolved.
	if res.Shape["id"] != TypeNumber || res.Shape["name"] != TypeString {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchMissingTableIsFatal(t *testing.T) {
	s := testSchema(t)
	stmt, err := ParseStatement("SELECT id FROM ghosts")
	if err != nil {
		t.Fatal(err)
	}
	_, err = Match(stmt, s)
	if err == nil {
		t.Fatal("expected fatal match error")
	}
	if !strings.Contains(err.Error(), `table "ghosts" not found in schema "public"`) {
		t.Errorf("error = %v", err)
	}
}

func TestMatchMissingSchemaIsDistinct(t *testing.T) {
	s := testSchema(t)
	stmt, err := ParseStatement("SELECT id FROM warehouse.users")
	if err != nil {
		t.Fatal(err)
	}
	_, err = Match(stmt, s)
	if err == nil {
		t.Fatal("expected fatal match error")
	}
	merr, ok := err.(*MatchError)
	if !ok {
		t.Fatalf("expected *MatchError, got %T", err)
	}
	if merr.Code != ErrCodeSchemaNotFound {
		t.Errorf("code = %d, want %d", merr.Code, ErrCodeSchemaNotFound)
	}
}

func TestMatchAggregates(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "SELECT COUNT(*), SUM(age) AS total_age, MIN(name) FROM users", s)

	want := RowShape{"count": TypeNumber, "total_age": TypeNumber, "min": TypeString}
	if !reflect.DeepEqual(res.Shape, want) {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchSumOfNonNumeric(t *testing.T) {
	s := testSchema(t)
	res := mustMatch(t, "SELECT SUM(name) FROM users", s)
	if res.Ok() {
		t.Fatal("expected embedded error for SUM over string")
	}
	if res.Errors[0].Code != ErrCodeNotNumeric {
		t.Errorf("code = %d", res.Errors[0].Code)
	}
}

func TestMatchScalarSubquery(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "SELECT name, (SELECT COUNT(*) FROM posts) AS post_count FROM users", s)
	if res.Shape["post_count"] != TypeNumber {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchComplexItems(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "SELECT data->>'email', data->'prefs' AS prefs, age::text AS age_text FROM users", s)

	if res.Shape["email"] != TypeString {
		t.Errorf("->> must extract text, shape = %#v", res.Shape)
	}
	if res.Shape["prefs"] != TypeJSON {
		t.Errorf("-> must keep json, shape = %#v", res.Shape)
	}
	if res.Shape["age_text"] != TypeString {
		t.Errorf("cast must win, shape = %#v", res.Shape)
	}
}

func TestMatchUnionShape(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "SELECT id, name FROM users UNION SELECT id FROM posts", s)

	// The right side never produces "name": left-only columns pass
	// through unchanged.
	want := RowShape{"id": TypeNumber, "name": TypeString}
	if !reflect.DeepEqual(res.Shape, want) {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchUnionRightSideErrorPropagates(t *testing.T) {
	s := testSchema(t)
	res := mustMatch(t, "SELECT id, name FROM users UNION SELECT id, name FROM posts", s)
	if res.Ok() {
		t.Fatal("expected embedded error for posts.name")
	}
	if res.Errors[0].Code != ErrCodeColumnNotFound {
		t.Errorf("code = %d", res.Errors[0].Code)
	}
	// The columns that did resolve are still reported.
	if res.Shape["id"] != TypeNumber {
		t.Errorf("id = %q", res.Shape["id"])
	}
}

func TestMatchUnionTypeWidening(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "SELECT id, name FROM users UNION SELECT id, name FROM legacy_users", s)

	if res.Shape["id"] != TypeNumber {
		t.Errorf("id = %q", res.Shape["id"])
	}
	if res.Shape["name"] != ValueType("number | string") {
		t.Errorf("name = %q, want sorted union", res.Shape["name"])
	}
}

func TestMatchIntersectShape(t *testing.T) {
	s := testSchema(t)

	// Same type on both sides: intersection keeps it.
	res := mustMatchOk(t, "SELECT name FROM users INTERSECT SELECT title AS name FROM posts", s)
	if res.Shape["name"] != TypeString {
		t.Errorf("name = %q", res.Shape["name"])
	}

	// Disjoint types: intersection is empty, fall back to the union.
	res = mustMatchOk(t, "SELECT name FROM users INTERSECT SELECT name FROM legacy_users", s)
	if res.Shape["name"] != ValueType("number | string") {
		t.Errorf("name = %q", res.Shape["name"])
	}
}

func TestMatchExceptKeepsLeft(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "SELECT name FROM users EXCEPT SELECT name FROM legacy_users", s)
	if res.Shape["name"] != TypeString {
		t.Errorf("name = %q", res.Shape["name"])
	}
}

func TestMatchCTE(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, `WITH adults AS (SELECT id, name FROM users WHERE age > 18)
		SELECT name FROM adults`, s)
	if res.Shape["name"] != TypeString {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchCTEChaining(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, `WITH a AS (SELECT id FROM users),
		b AS (SELECT id FROM a)
		SELECT id FROM b`, s)
	if res.Shape["id"] != TypeNumber {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchCTEShadowsTable(t *testing.T) {
	s := testSchema(t)
	// A CTE named like a real table wins for unqualified references.
	res := mustMatchOk(t, `WITH users AS (SELECT title FROM posts)
		SELECT title FROM users`, s)
	want := RowShape{"title": TypeString}
	if !reflect.DeepEqual(res.Shape, want) {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchDerivedTable(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "SELECT sub.name FROM (SELECT name FROM users) AS sub", s)
	if res.Shape["name"] != TypeString {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchInsertNoReturning(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "INSERT INTO users (id, name) VALUES (1, 'a')", s)
	if res.HasRows {
		t.Error("INSERT without RETURNING has no rows")
	}
	if len(res.Shape) != 0 {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchInsertReturning(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "INSERT INTO users (id) VALUES (1) RETURNING id, name", s)
	want := RowShape{"id": TypeNumber, "name": TypeString}
	if !res.HasRows || !reflect.DeepEqual(res.Shape, want) {
		t.Errorf("result = %#v", res)
	}
}

func TestMatchDeleteReturning(t *testing.T) {
	s := testSchema(t)

	res := mustMatchOk(t, "DELETE FROM users WHERE id = 1", s)
	if res.HasRows {
		t.Error("DELETE without RETURNING has no rows")
	}

	res = mustMatchOk(t, "DELETE FROM users WHERE id = 1 RETURNING *", s)
	if !res.HasRows || len(res.Shape) != 5 {
		t.Errorf("result = %#v", res)
	}

	res = mustMatchOk(t, "DELETE FROM users WHERE id = 1 RETURNING id, name", s)
	want := RowShape{"id": TypeNumber, "name": TypeString}
	if !reflect.DeepEqual(res.Shape, want) {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchUpdateReturningImages(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "UPDATE users SET name = 'x' RETURNING OLD.name, NEW.name, id", s)

	want := RowShape{"old_name": TypeString, "new_name": TypeString, "id": TypeNumber}
	if !reflect.DeepEqual(res.Shape, want) {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchUpdateReturningImageStar(t *testing.T) {
	s := testSchema(t)
	res := mustMatchOk(t, "UPDATE posts SET title = 'x' RETURNING OLD.*", s)

	want := RowShape{"old_id": TypeNumber, "old_user_id": TypeNumber, "old_title": TypeString}
	if !reflect.DeepEqual(res.Shape, want) {
		t.Errorf("shape = %#v", res.Shape)
	}
}

func TestMatchReturningBadColumn(t *testing.T) {
	s := testSchema(t)
	res := mustMatch(t, "DELETE FROM users RETURNING id, ghost", s)
	if res.Ok() {
		t.Fatal("expected embedded error")
	}
	if res.Shape["id"] != TypeNumber {
		t.Errorf("good column lost: %#v", res.Shape)
	}
}

func TestMatchNilSchema(t *testing.T) {
	stmt, err := ParseStatement("SELECT id FROM users")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Match(stmt, nil); err == nil {
		t.Fatal("expected error for nil schema")
	}
}
