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
	"strings"
	"testing"
)

func mustValidate(t *testing.T, input string, schema *Schema, opts *Options) error {
	t.Helper()
	stmt, err := ParseStatement(input)
	if err != nil {
		t.Fatalf("ParseStatement(%q) failed: %v", input, err)
	}
	return Validate(stmt, schema, opts)
}

func TestValidateSelectOk(t *testing.T) {
	s := testSchema(t)
	queries := []string{
		"SELECT id, name FROM users",
		"SELECT u.name, p.title FROM users u JOIN posts p ON p.user_id = u.id",
		"SELECT name FROM users WHERE age > 18 AND active = TRUE",
		"SELECT COUNT(*) AS n FROM users GROUP BY age HAVING age > 1 ORDER BY n DESC",
		"WITH a AS (SELECT id FROM users) SELECT id FROM a",
		"SELECT analytics.events.payload FROM analytics.events",
	}
	for _, q := range queries {
		if err := mustValidate(t, q, s, nil); err != nil {
			t.Errorf("Validate(%q) = %v", q, err)
		}
	}
}

func TestValidateConditionScanSkipsNonColumns(t *testing.T) {
	s := testSchema(t)
	// Literal fragments, function names and subquery internals must not
	// be mistaken for columns of the outer scope.
	queries := []string{
		"SELECT id FROM users WHERE name = 'John Smith'",
		"SELECT id FROM users WHERE id IN (SELECT user_id FROM posts)",
		"SELECT id FROM users WHERE LOWER(name) = 'x'",
		"SELECT id FROM users WHERE name = 'a = b' AND active = TRUE",
	}
	for _, q := range queries {
		if err := mustValidate(t, q, s, nil); err != nil {
			t.Errorf("Validate(%q) = %v", q, err)
		}
	}

	// Real columns next to a skipped construct are still checked.
	err := mustValidate(t, "SELECT id FROM users WHERE ghost IN (SELECT user_id FROM posts)", s, nil)
	if err == nil {
		t.Fatal("expected error for unknown column beside subquery")
	}
}

func TestValidateSelectBadColumn(t *testing.T) {
	s := testSchema(t)
	err := mustValidate(t, "SELECT id, nonexistent FROM users", s, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `"nonexistent"`) || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v", err)
	}
	verr, ok := err.(*ValidateError)
	if !ok {
		t.Fatalf("expected *ValidateError, got %T", err)
	}
	if verr.Code != ErrCodeColumnNotFound {
		t.Errorf("code = %d", verr.Code)
	}
}

func TestValidateStopsAtFirstError(t *testing.T) {
	s := testSchema(t)
	err := mustValidate(t, "SELECT first_bad, second_bad FROM users", s, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "first_bad") {
		t.Errorf("expected the first failure, got %v", err)
	}
	if strings.Contains(err.Error(), "second_bad") {
		t.Errorf("validation must stop at the first failure, got %v", err)
	}
}

func TestValidateWhereToggle(t *testing.T) {
	s := testSchema(t)
	q := "SELECT id FROM users WHERE ghost = 1"

	if err := mustValidate(t, q, s, nil); err == nil {
		t.Fatal("expected error with default options")
	}

	opts := DefaultOptions()
	opts.CheckWhere = false
	if err := mustValidate(t, q, s, opts); err != nil {
		t.Errorf("CheckWhere=false must skip the WHERE site: %v", err)
	}
}

func TestValidateJoinOnToggle(t *testing.T) {
	s := testSchema(t)
	q := "SELECT u.id FROM users u JOIN posts p ON p.ghost = u.id"

	if err := mustValidate(t, q, s, nil); err == nil {
		t.Fatal("expected error with default options")
	}

	opts := DefaultOptions()
	opts.CheckJoinOn = false
	if err := mustValidate(t, q, s, opts); err != nil {
		t.Errorf("CheckJoinOn=false must skip the ON site: %v", err)
	}
}

func TestValidateOrderByToggleAndAliases(t *testing.T) {
	s := testSchema(t)

	// Output aliases are orderable.
	if err := mustValidate(t, "SELECT COUNT(*) AS total FROM users ORDER BY total", s, nil); err != nil {
		t.Errorf("output alias in ORDER BY: %v", err)
	}

	q := "SELECT id FROM users ORDER BY ghost"
	if err := mustValidate(t, q, s, nil); err == nil {
		t.Fatal("expected error for unknown ORDER BY column")
	}
	opts := DefaultOptions()
	opts.CheckOrderBy = false
	if err := mustValidate(t, q, s, opts); err != nil {
		t.Errorf("CheckOrderBy=false must skip: %v", err)
	}
}

func TestValidateGroupByHavingToggles(t *testing.T) {
	s := testSchema(t)

	q := "SELECT COUNT(*) FROM users GROUP BY ghost"
	if err := mustValidate(t, q, s, nil); err == nil {
		t.Fatal("expected GROUP BY error")
	}
	opts := DefaultOptions()
	opts.CheckGroupBy = false
	if err := mustValidate(t, q, s, opts); err != nil {
		t.Errorf("CheckGroupBy=false must skip: %v", err)
	}

	q = "SELECT COUNT(*) FROM users GROUP BY age HAVING ghost > 1"
	if err := mustValidate(t, q, s, nil); err == nil {
		t.Fatal("expected HAVING error")
	}
	opts = DefaultOptions()
	opts.CheckHaving = false
	if err := mustValidate(t, q, s, opts); err != nil {
		t.Errorf("CheckHaving=false must skip: %v", err)
	}
}

func TestValidateDerivedTableWhereIsChecked(t *testing.T) {
	s := testSchema(t)
	err := mustValidate(t, "SELECT sub.id FROM (SELECT id FROM users WHERE ghost = 1) AS sub", s, nil)
	if err == nil {
		t.Fatal("expected error inside derived table WHERE")
	}
}

func TestValidateScalarSubqueryWhereIsChecked(t *testing.T) {
	s := testSchema(t)
	err := mustValidate(t, "SELECT (SELECT id FROM posts WHERE ghost = 1) AS n FROM users", s, nil)
	if err == nil {
		t.Fatal("expected error inside scalar subquery WHERE")
	}
}

func TestValidateInsert(t *testing.T) {
	s := testSchema(t)

	if err := mustValidate(t, "INSERT INTO users (id, name) VALUES (1, 'a')", s, nil); err != nil {
		t.Errorf("valid INSERT rejected: %v", err)
	}

	err := mustValidate(t, "INSERT INTO users (id, ghost) VALUES (1, 2)", s, nil)
	if err == nil {
		t.Fatal("expected error for unknown target column")
	}

	err = mustValidate(t, "INSERT INTO ghosts (id) VALUES (1)", s, nil)
	if err == nil {
		t.Fatal("expected error for unknown table")
	}
	if !strings.Contains(err.Error(), `table "ghosts" not found`) {
		t.Errorf("error = %v", err)
	}
}

func TestValidateInsertArity(t *testing.T) {
	s := testSchema(t)

	err := mustValidate(t, "INSERT INTO users (id, name) VALUES (1)", s, nil)
	if err == nil {
		t.Fatal("expected arity error")
	}
	verr := err.(*ValidateError)
	if verr.Code != ErrCodeArityMismatch {
		t.Errorf("code = %d", verr.Code)
	}

	err = mustValidate(t, "INSERT INTO users (id, name) VALUES (1, 'a'), (2, 'b', 3)", s, nil)
	if err == nil {
		t.Fatal("expected arity error on the second row")
	}
	if !strings.Contains(err.Error(), "row 2") {
		t.Errorf("error = %v", err)
	}

	// Commas and parens inside a literal do not count toward arity.
	if err := mustValidate(t, "INSERT INTO users (id, name) VALUES (1, 'Smith, John')", s, nil); err != nil {
		t.Errorf("comma in literal miscounted: %v", err)
	}
	if err := mustValidate(t, "INSERT INTO users (id, name) VALUES (1, 'a)b')", s, nil); err != nil {
		t.Errorf("paren in literal rejected: %v", err)
	}
}

func TestValidateInsertSelectArity(t *testing.T) {
	s := testSchema(t)

	if err := mustValidate(t, "INSERT INTO posts (id, user_id) SELECT id, id FROM users", s, nil); err != nil {
		t.Errorf("valid INSERT ... SELECT rejected: %v", err)
	}

	err := mustValidate(t, "INSERT INTO posts (id, user_id, title) SELECT id FROM users", s, nil)
	if err == nil {
		t.Fatal("expected arity error for SELECT source")
	}

	// Wildcard sources are uncountable and pass the arity check.
	if err := mustValidate(t, "INSERT INTO posts (id) SELECT * FROM posts", s, nil); err != nil {
		t.Errorf("uncountable source must skip arity: %v", err)
	}
}

func TestValidateOnConflict(t *testing.T) {
	s := testSchema(t)

	ok := "INSERT INTO users (id) VALUES (1) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name WHERE users.age > EXCLUDED.age"
	if err := mustValidate(t, ok, s, nil); err != nil {
		t.Errorf("valid ON CONFLICT rejected: %v", err)
	}

	err := mustValidate(t, "INSERT INTO users (id) VALUES (1) ON CONFLICT (ghost) DO NOTHING", s, nil)
	if err == nil {
		t.Fatal("expected conflict target error")
	}
	if err.(*ValidateError).Code != ErrCodeConflictTarget {
		t.Errorf("code = %d", err.(*ValidateError).Code)
	}

	err = mustValidate(t, "INSERT INTO users (id) VALUES (1) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.ghost", s, nil)
	if err == nil {
		t.Fatal("expected EXCLUDED column error")
	}

	opts := DefaultOptions()
	opts.CheckConflict = false
	bad := "INSERT INTO users (id) VALUES (1) ON CONFLICT (ghost) DO NOTHING"
	if err := mustValidate(t, bad, s, opts); err != nil {
		t.Errorf("CheckConflict=false must skip: %v", err)
	}
}

func TestValidateUpdate(t *testing.T) {
	s := testSchema(t)

	if err := mustValidate(t, "UPDATE users SET name = 'x' WHERE id = 1 RETURNING OLD.name, NEW.name", s, nil); err != nil {
		t.Errorf("valid UPDATE rejected: %v", err)
	}

	err := mustValidate(t, "UPDATE users SET ghost = 'x'", s, nil)
	if err == nil {
		t.Fatal("expected SET target error")
	}

	opts := DefaultOptions()
	opts.CheckSet = false
	if err := mustValidate(t, "UPDATE users SET ghost = 'x'", s, opts); err != nil {
		t.Errorf("CheckSet=false must skip: %v", err)
	}
}

func TestValidateUpdateExcludedOutsideConflict(t *testing.T) {
	s := testSchema(t)
	err := mustValidate(t, "UPDATE users SET name = EXCLUDED.name", s, nil)
	if err == nil {
		t.Fatal("expected error: EXCLUDED outside ON CONFLICT")
	}
	if !strings.Contains(err.Error(), "EXCLUDED") {
		t.Errorf("error = %v", err)
	}
}

func TestValidateUpdateFromScope(t *testing.T) {
	s := testSchema(t)
	// WHERE sees the target table and the FROM source.
	q := "UPDATE posts SET title = 'x' FROM users u WHERE posts.user_id = u.id AND u.active = TRUE"
	if err := mustValidate(t, q, s, nil); err != nil {
		t.Errorf("valid UPDATE ... FROM rejected: %v", err)
	}

	err := mustValidate(t, "UPDATE posts SET title = 'x' FROM users u WHERE u.ghost = 1", s, nil)
	if err == nil {
		t.Fatal("expected error for unknown column on FROM source")
	}
}

func TestValidateDelete(t *testing.T) {
	s := testSchema(t)

	if err := mustValidate(t, "DELETE FROM users WHERE id = 1 RETURNING id", s, nil); err != nil {
		t.Errorf("valid DELETE rejected: %v", err)
	}

	q := "DELETE FROM posts USING users u WHERE posts.user_id = u.id AND u.active = TRUE"
	if err := mustValidate(t, q, s, nil); err != nil {
		t.Errorf("valid DELETE ... USING rejected: %v", err)
	}

	err := mustValidate(t, "DELETE FROM users WHERE ghost = 1", s, nil)
	if err == nil {
		t.Fatal("expected WHERE error")
	}

	err = mustValidate(t, "DELETE FROM users RETURNING ghost", s, nil)
	if err == nil {
		t.Fatal("expected RETURNING error")
	}
	opts := DefaultOptions()
	opts.CheckReturning = false
	if err := mustValidate(t, "DELETE FROM users RETURNING ghost", s, opts); err != nil {
		t.Errorf("CheckReturning=false must skip: %v", err)
	}
}

func TestValidateCompoundRightSide(t *testing.T) {
	s := testSchema(t)
	err := mustValidate(t, "SELECT id FROM users UNION SELECT ghost FROM posts", s, nil)
	if err == nil {
		t.Fatal("expected error on the right side of UNION")
	}
}

func TestValidateNilSchema(t *testing.T) {
	stmt, err := ParseStatement("SELECT id FROM users")
	if err != nil {
		t.Fatal(err)
	}
	if err := Validate(stmt, nil, nil); err == nil {
		t.Fatal("expected error for nil schema")
	}
}
