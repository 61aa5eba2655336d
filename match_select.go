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

// SELECT matching: the richest resolution path - CTEs, derived tables,
// joins, wildcards, aggregates, scalar subqueries and set-operation
// shape combination.
package sqlens

import "strings"

// matchSelect resolves a SELECT against the schema. outer carries the
// CTE shapes visible from an enclosing statement; nil at the top
// level.
func matchSelect(stmt *SelectStmt, schema *Schema, outer map[string]RowShape) (*MatchResult, *MatchError) {
	ctes, err := resolveCTEs(stmt.CTEs, schema, outer)
	if err != nil {
		return nil, err
	}
	sc := newScope(schema, ctes)
	if err := sc.addSource(stmt.From); err != nil {
		return nil, err
	}
	for _, j := range stmt.Joins {
		if err := sc.addSource(j.Source); err != nil {
			return nil, err
		}
	}

	res := &MatchResult{HasRows: true, Shape: RowShape{}}
	for _, item := range stmt.Items {
		resolveSelectItem(sc, item, res)
	}

	if stmt.Compound != nil {
		right, err := matchSelect(stmt.Compound.Right, schema, outer)
		if err != nil {
			return nil, err
		}
		res.Errors = append(res.Errors, right.Errors...)
		res.Shape = combineShapes(res.Shape, right.Shape, stmt.Compound.Op)
	}
	return res, nil
}

// resolveSelectItem resolves one column-list item into the result,
// embedding a MatchError when the item names something the context
// does not define.
func resolveSelectItem(sc *scope, item ColumnRef, res *MatchResult) {
	switch it := item.(type) {
	case AllColumns:
		// Every context entry in order; on duplicate column names
		// the earliest source wins, same tie-break as unqualified
		// resolution.
		for _, e := range sc.entries {
			for col, t := range e.shape {
				if _, exists := res.Shape[col]; !exists {
					res.Shape[col] = t
				}
			}
		}
	case TableWildcard:
		var shape RowShape
		if it.Schema != "" {
			var err *MatchError
			shape, err = resolveTable(sc.schema, TableRef{Schema: it.Schema, Table: it.Table})
			if err != nil {
				res.Errors = append(res.Errors, err)
				return
			}
		} else {
			var ok bool
			shape, ok = sc.lookupAlias(it.Table)
			if !ok {
				res.Errors = append(res.Errors, matchErrorf(ErrCodeAliasNotFound,
					"table or alias %q not in scope", it.Table))
				return
			}
		}
		for col, t := range shape {
			if _, exists := res.Shape[col]; !exists {
				res.Shape[col] = t
			}
		}
	case UnboundColumn, TableColumn:
		name, t, err := sc.resolveRef(it)
		if err != nil {
			res.Errors = append(res.Errors, err)
			return
		}
		res.Shape[name] = t
	case AggregateExpr:
		resolveAggregate(sc, it, res)
	case SubqueryExpr:
		resolveSubqueryItem(sc, it, res)
	case ComplexExpr:
		resolveComplexItem(sc, it, res)
	default:
		res.Errors = append(res.Errors, matchErrorf(ErrCodeResolution,
			"unsupported select item %T", item))
	}
}

// resolveAggregate types an aggregate call: COUNT is always a number,
// SUM/AVG are numbers and require a numeric argument, MIN/MAX keep the
// argument's own type.
func resolveAggregate(sc *scope, agg AggregateExpr, res *MatchResult) {
	key := nameOr(agg.Alias, strings.ToLower(agg.Func))

	if agg.Star {
		res.Shape[key] = TypeNumber
		return
	}
	_, argType, err := sc.resolveRef(agg.Arg)
	if err != nil {
		res.Errors = append(res.Errors, err)
		return
	}
	switch agg.Func {
	case "COUNT":
		res.Shape[key] = TypeNumber
	case "SUM", "AVG":
		if !argType.IsNumeric() {
			res.Errors = append(res.Errors, matchErrorf(ErrCodeNotNumeric,
				"%s requires a numeric argument, got %q", agg.Func, argType))
			return
		}
		res.Shape[key] = TypeNumber
	case "MIN", "MAX":
		res.Shape[key] = argType
	default:
		res.Errors = append(res.Errors, matchErrorf(ErrCodeResolution,
			"unknown aggregate %q", agg.Func))
	}
}

// resolveSubqueryItem types a scalar subquery item: the inner SELECT
// must produce exactly one column, whose type (or the cast target)
// becomes the item's type. Without an alias the item keeps the inner
// column's name.
func resolveSubqueryItem(sc *scope, it SubqueryExpr, res *MatchResult) {
	sub, err := matchSelect(it.Subquery, sc.schema, sc.ctes)
	if err != nil {
		res.Errors = append(res.Errors, err)
		return
	}
	if !sub.Ok() {
		res.Errors = append(res.Errors, sub.Errors...)
		return
	}
	if len(sub.Shape) != 1 {
		res.Errors = append(res.Errors, matchErrorf(ErrCodeEmptySubquery,
			"scalar subquery must select exactly one column, got %d", len(sub.Shape)))
		return
	}
	for col, t := range sub.Shape {
		if it.Cast != "" {
			t = ValueType(it.Cast)
		}
		res.Shape[nameOr(it.Alias, col)] = t
	}
}

// resolveComplexItem types a complex expression: the cast target wins
// when present, otherwise the text-extracting JSON operators yield
// string, the structure-preserving ones yield json, and a bare
// expression keeps its first column's type.
func resolveComplexItem(sc *scope, it ComplexExpr, res *MatchResult) {
	var firstRefType ValueType
	haveRef := false
	for _, ref := range it.Refs {
		_, t, err := sc.resolveRef(ref)
		if err != nil {
			res.Errors = append(res.Errors, err)
			return
		}
		if !haveRef {
			firstRefType = t
			haveRef = true
		}
	}

	var t ValueType
	switch {
	case it.Cast != "":
		t = ValueType(it.Cast)
	case strings.Contains(it.Raw, "->>") || strings.Contains(it.Raw, "#>>"):
		t = TypeString
	case strings.Contains(it.Raw, "->") || strings.Contains(it.Raw, "#>"):
		t = TypeJSON
	case haveRef:
		t = firstRefType
	default:
		t = TypeString
	}
	res.Shape[it.Alias] = t
}
