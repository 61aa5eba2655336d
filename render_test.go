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
	"fmt"
	"reflect"
	"testing"
)

// Rendering a parsed statement and parsing the render must reproduce
// the same tree.
func TestRenderReparse(t *testing.T) {
	queries := []string{
		"SELECT id, name FROM users",
		"SELECT DISTINCT u.name AS login FROM users AS u",
		"SELECT * FROM users WHERE age > 18 AND active = TRUE",
		"SELECT u.name, p.title FROM users u JOIN posts p ON p.user_id = u.id LEFT JOIN comments c ON c.post_id = p.id",
		"SELECT status, COUNT(*) AS n FROM orders GROUP BY status HAVING n > 1 ORDER BY n DESC LIMIT 10 OFFSET 5",
		"SELECT id FROM a UNION ALL SELECT id FROM b",
		"SELECT id FROM a INTERSECT SELECT id FROM b EXCEPT SELECT id FROM c",
		"WITH adults AS (SELECT id FROM users WHERE age > 18) SELECT id FROM adults",
		"SELECT sub.id FROM (SELECT id FROM users) AS sub",
		"SELECT data->>'name', (SELECT COUNT(*) FROM posts) AS n FROM users",
		"INSERT INTO users (id, name) VALUES (1, 'alice'), (2, NULL)",
		"INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING",
		"INSERT INTO users (id, name) VALUES (1, 'a') ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name WHERE users.active = TRUE RETURNING id",
		"INSERT INTO archive (id) SELECT id FROM users",
		"UPDATE users SET name = 'bob', age = 42 WHERE id = 1",
		"UPDATE users AS u SET active = FALSE FROM posts p WHERE p.user_id = u.id RETURNING OLD.name, NEW.name, id",
		"UPDATE users SET name = DEFAULT RETURNING OLD.*",
		"DELETE FROM posts USING users u WHERE posts.user_id = u.id RETURNING *",
		"DELETE FROM users WHERE id = $1",
	}

	for _, q := range queries {
		first, err := ParseStatement(q)
		if err != nil {
			t.Fatalf("parse %q: %v", q, err)
		}
		rendered := fmt.Sprint(first)
		second, err := ParseStatement(rendered)
		if err != nil {
			t.Fatalf("reparse of %q (rendered %q): %v", q, rendered, err)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("render is not stable for %q:\nrendered: %q\nfirst:  %#v\nsecond: %#v", q, rendered, first, second)
		}
	}
}

func TestRenderBareJoinAsInner(t *testing.T) {
	sel := mustParseSelect(t, "SELECT u.id FROM users u JOIN posts p ON p.user_id = u.id")
	rendered := sel.String()
	reparsed := mustParseSelect(t, rendered)
	if reparsed.Joins[0].Type != InnerJoin {
		t.Errorf("join type = %v", reparsed.Joins[0].Type)
	}
}

func TestRenderImplicitAliasExplicit(t *testing.T) {
	sel := mustParseSelect(t, "SELECT id FROM users")
	got := sel.String()
	want := "SELECT id FROM users AS users"
	if got != want {
		t.Errorf("render = %q, want %q", got, want)
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Value{Kind: ValueString, Raw: "alice"}, "'alice'"},
		{Value{Kind: ValueNumber, Raw: "42"}, "42"},
		{Value{Kind: ValueNull, Raw: "NULL"}, "NULL"},
		{Value{Kind: ValueExcluded, Raw: "name"}, "EXCLUDED.name"},
		{Value{Kind: ValueParam, Raw: "$1"}, "$1"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String(%#v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}
