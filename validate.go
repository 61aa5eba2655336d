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
Validator: the strict resolution path.

Validate performs the same context building as Match but stops at the
first semantic failure and reports it as a single descriptive error.
There is no partial success: either the whole statement checks out
(nil) or the first problem found is returned.

Options is a set of independent toggles that trade completeness for
analysis cost. Turning a toggle off means "skip that check, assume
valid" - never "check differently". Structural checks (the target
table must exist, sources must resolve) cannot be toggled off.
*/
package sqlens

// Options selects which column-reference sites the validator checks.
// The zero value checks nothing but the structural minimum; use
// DefaultOptions for everything.
type Options struct {
	CheckWhere     bool // WHERE condition columns
	CheckJoinOn    bool // JOIN ON condition columns
	CheckGroupBy   bool // GROUP BY columns
	CheckHaving    bool // HAVING condition columns
	CheckOrderBy   bool // ORDER BY columns
	CheckReturning bool // RETURNING columns
	CheckConflict  bool // ON CONFLICT target and update columns
	CheckSet       bool // SET assignment target columns
}

// DefaultOptions enables every check.
func DefaultOptions() *Options {
	return &Options{
		CheckWhere:     true,
		CheckJoinOn:    true,
		CheckGroupBy:   true,
		CheckHaving:    true,
		CheckOrderBy:   true,
		CheckReturning: true,
		CheckConflict:  true,
		CheckSet:       true,
	}
}

// Validate checks a parsed statement against the schema and returns
// nil when every reference resolves, or the first failure as a
// *ValidateError. A nil opts means DefaultOptions.
func Validate(stmt Statement, schema *Schema, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	var verr *ValidateError
	if schema == nil {
		return validateErrorf(ErrCodeResolution, "no schema to validate against")
	}
	switch s := stmt.(type) {
	case *SelectStmt:
		verr = validateSelect(s, schema, nil, opts)
	case *InsertStmt:
		verr = validateInsert(s, schema, opts)
	case *UpdateStmt:
		verr = validateUpdate(s, schema, opts)
	case *DeleteStmt:
		verr = validateDelete(s, schema, opts)
	default:
		return validateErrorf(ErrCodeResolution, "unsupported statement type %T", stmt)
	}
	if verr != nil {
		return verr
	}
	return nil
}

// checkFilter strictly resolves every column reference a condition
// mentions.
func checkFilter(sc *scope, f *FilterClause) *ValidateError {
	if f == nil {
		return nil
	}
	for _, ref := range f.Columns {
		if _, _, err := sc.resolveRef(ref); err != nil {
			return asValidateError(err)
		}
	}
	return nil
}

// checkReturningColumns verifies every RETURNING item (including the
// OLD./NEW. qualified forms, which draw from the same table shape)
// against the target table. The bare * and qualified stars are always
// valid once the table resolved.
func checkReturningColumns(table RowShape, tableName string, ret *ReturningClause) *ValidateError {
	if ret == nil || ret.Star {
		return nil
	}
	for _, item := range ret.Items {
		if item.Star {
			continue
		}
		if _, ok := table[item.Column]; !ok {
			return validateErrorf(ErrCodeColumnNotFound,
				"column %q not found in table %q", item.Column, tableName)
		}
	}
	return nil
}

// strictResolveTable adapts resolveTable to the validator's error
// channel.
func strictResolveTable(schema *Schema, ref TableRef) (RowShape, *ValidateError) {
	shape, err := resolveTable(schema, ref)
	if err != nil {
		return nil, asValidateError(err)
	}
	return shape, nil
}

// addSourceStrict resolves a source into the scope and, for derived
// tables, fully validates the subquery first (Match alone would not
// check its WHERE/ORDER BY sites).
func addSourceStrict(sc *scope, src TableSource, opts *Options) *ValidateError {
	if dt, ok := src.(DerivedTable); ok {
		if err := validateSelect(dt.Subquery, sc.schema, sc.ctes, opts); err != nil {
			return err
		}
	}
	if err := sc.addSource(src); err != nil {
		return asValidateError(err)
	}
	return nil
}
