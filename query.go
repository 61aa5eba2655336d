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

/*
Convenience entry points and the dynamic-text contract.

Statement text assembled at runtime from unknown fragments cannot be
analyzed, and no runtime inspection of a string can recover whether it
was known in advance - so the API makes the caller state it: Literal
wraps text that is known and analyzable, Dynamic marks text that is
not. Describing dynamic text yields a "no opinion" Description with
the Dynamic flag set; checking it always succeeds, because nothing can
be checked.
*/
package sqlens

// Text is a statement wrapper that records whether the SQL was known
// prior to analysis.
type Text struct {
	sql     string
	dynamic bool
}

// Literal wraps statement text that is known ahead of time and can be
// analyzed.
func Literal(sql string) Text { return Text{sql: sql} }

// Dynamic marks statement text assembled at runtime; the analyzer has
// no opinion about it.
func Dynamic() Text { return Text{dynamic: true} }

// IsDynamic reports whether the text is unanalyzable.
func (t Text) IsDynamic() bool { return t.dynamic }

// SQL returns the wrapped statement text; empty for dynamic text.
func (t Text) SQL() string { return t.sql }

// Description is the combined parse+match outcome for one statement.
// Dynamic descriptions carry no tree and no result.
type Description struct {
	Dynamic   bool
	Kind      StatementKind
	Statement Statement
	Result    *MatchResult
}

// Describe composes ParseStatement and Match: parse the text, resolve
// it against the schema, and report the result shape. Dynamic text
// short-circuits to a Dynamic description with no error.
func Describe(t Text, schema *Schema) (*Description, error) {
	if t.dynamic {
		return &Description{Dynamic: true}, nil
	}
	stmt, err := ParseStatement(t.sql)
	if err != nil {
		return nil, err
	}
	res, err := Match(stmt, schema)
	if err != nil {
		return nil, err
	}
	return &Description{Kind: stmt.Kind(), Statement: stmt, Result: res}, nil
}

// Check composes ParseStatement and Validate. Dynamic text always
// passes: there is nothing to check.
func Check(t Text, schema *Schema, opts *Options) error {
	if t.dynamic {
		return nil
	}
	stmt, err := ParseStatement(t.sql)
	if err != nil {
		return err
	}
	return Validate(stmt, schema, opts)
}
