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

// validateUpdate strictly checks an UPDATE: CTEs and sources resolve,
// SET targets are columns of the target table, WHERE sees the target
// plus all FROM/JOIN sources, and RETURNING items (including OLD./NEW.
// images) reference real columns.
func validateUpdate(stmt *UpdateStmt, schema *Schema, opts *Options) *ValidateError {
	shapes := make(map[string]RowShape, len(stmt.CTEs))
	for _, cte := range stmt.CTEs {
		if err := validateSelect(cte.Subquery, schema, shapes, opts); err != nil {
			return err
		}
		res, merr := matchSelect(cte.Subquery, schema, shapes)
		if merr != nil {
			return asValidateError(merr)
		}
		if !res.Ok() {
			return asValidateError(res.Errors[0])
		}
		shapes[cte.Name] = res.Shape
	}

	table, verr := strictResolveTable(schema, stmt.Table)
	if verr != nil {
		return verr
	}

	sc := newScope(schema, shapes)
	sc.entries = append(sc.entries, scopeEntry{alias: stmt.Table.Alias, shape: table})
	if stmt.From != nil {
		if err := addSourceStrict(sc, stmt.From, opts); err != nil {
			return err
		}
		for _, j := range stmt.FromJoins {
			if err := addSourceStrict(sc, j.Source, opts); err != nil {
				return err
			}
			if opts.CheckJoinOn {
				if err := checkFilter(sc, j.On); err != nil {
					return err
				}
			}
		}
	}

	if opts.CheckSet {
		for _, a := range stmt.Assignments {
			if _, ok := table[a.Column]; !ok {
				return validateErrorf(ErrCodeColumnNotFound,
					"column %q not found in table %q", a.Column, stmt.Table.Table)
			}
			if a.Value.Kind == ValueExcluded {
				return validateErrorf(ErrCodeResolution,
					"EXCLUDED is only valid inside INSERT ... ON CONFLICT DO UPDATE")
			}
		}
	}

	if opts.CheckWhere {
		if err := checkFilter(sc, stmt.Where); err != nil {
			return err
		}
	}

	if opts.CheckReturning {
		if err := checkReturningColumns(table, stmt.Table.Table, stmt.Returning); err != nil {
			return err
		}
	}
	return nil
}
