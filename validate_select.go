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

// validateSelect strictly checks one SELECT: sources must resolve,
// every select item must resolve, and each toggled site's column
// references must exist. outer carries enclosing CTE shapes.
func validateSelect(stmt *SelectStmt, schema *Schema, outer map[string]RowShape, opts *Options) *ValidateError {
	// CTEs: validate each body fully, then resolve its shape so later
	// CTEs and the main query can use it.
	shapes := make(map[string]RowShape, len(outer)+len(stmt.CTEs))
	for name, shape := range outer {
		shapes[name] = shape
	}
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

	sc := newScope(schema, shapes)
	if err := addSourceStrict(sc, stmt.From, opts); err != nil {
		return err
	}
	for _, j := range stmt.Joins {
		if err := addSourceStrict(sc, j.Source, opts); err != nil {
			return err
		}
		if opts.CheckJoinOn {
			if err := checkFilter(sc, j.On); err != nil {
				return err
			}
		}
	}

	// Select items reuse the matcher's resolution; any embedded error
	// is fatal here. Scalar subqueries additionally get their own full
	// validation pass, since matching does not look at their WHERE.
	probe := &MatchResult{Shape: RowShape{}}
	for _, item := range stmt.Items {
		if sq, ok := item.(SubqueryExpr); ok {
			if err := validateSelect(sq.Subquery, schema, shapes, opts); err != nil {
				return err
			}
		}
		resolveSelectItem(sc, item, probe)
		if len(probe.Errors) > 0 {
			return asValidateError(probe.Errors[0])
		}
	}

	if opts.CheckWhere {
		if err := checkFilter(sc, stmt.Where); err != nil {
			return err
		}
	}
	if opts.CheckGroupBy {
		for _, ref := range stmt.GroupBy {
			if _, _, err := sc.resolveRef(ref); err != nil {
				return asValidateError(err)
			}
		}
	}
	if opts.CheckHaving {
		if err := checkFilter(sc, stmt.Having); err != nil {
			return err
		}
	}
	if opts.CheckOrderBy {
		if err := checkOrderBy(sc, stmt, probe.Shape); err != nil {
			return err
		}
	}

	if stmt.Compound != nil {
		return validateSelect(stmt.Compound.Right, schema, outer, opts)
	}
	return nil
}

// checkOrderBy resolves ORDER BY columns against the context, also
// accepting names of the statement's own output columns (an alias like
// "total" is orderable even though no table defines it).
func checkOrderBy(sc *scope, stmt *SelectStmt, output RowShape) *ValidateError {
	for _, item := range stmt.OrderBy {
		if ub, ok := item.Column.(UnboundColumn); ok {
			if _, isOutput := output[ub.Column]; isOutput {
				continue
			}
		}
		if _, _, err := sc.resolveRef(item.Column); err != nil {
			return asValidateError(err)
		}
	}
	return nil
}
