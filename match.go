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
Schema matcher: resolves a syntax tree against a schema and computes
the statement's result-row shape.

The matcher builds a resolution context bottom-up: the FROM source
first, then each JOIN/USING source left to right. CTEs are resolved
before the context they feed, each with its own nested context. The
context lives only for the duration of one Match call.

The matcher is the lenient resolution path: a failure that prevents any
shape from existing (the FROM table is missing) aborts the whole match,
but a failure local to one output column (one bad name among several
requested) is embedded in the result's Errors list while the remaining
columns still resolve. Callers that need all-or-nothing semantics use
Validate instead.
*/
package sqlens

import (
	"sort"
	"strings"
)

// MatchResult is the outcome of matching one statement.
//
// HasRows is false for DML without RETURNING ("no result"). Shape maps
// each resolved output column to its value type. Errors carries
// per-column resolution failures; callers must scan it, because a
// partially bad statement still yields the columns that did resolve.
type MatchResult struct {
	HasRows bool
	Shape   RowShape
	Errors  []*MatchError
}

// Ok reports whether the match succeeded with no embedded errors.
func (r *MatchResult) Ok() bool { return len(r.Errors) == 0 }

// Match resolves a parsed statement against the schema and returns
// the result-row shape. The returned error, always a *MatchError, is
// reserved for failures that leave no shape to report (for example a
// missing FROM table); per-column failures are embedded in the result.
func Match(stmt Statement, schema *Schema) (*MatchResult, error) {
	res, err := matchStatement(stmt, schema)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func matchStatement(stmt Statement, schema *Schema) (*MatchResult, *MatchError) {
	if schema == nil {
		return nil, matchErrorf(ErrCodeResolution, "no schema to match against")
	}
	switch s := stmt.(type) {
	case *SelectStmt:
		return matchSelect(s, schema, nil)
	case *InsertStmt:
		return matchInsert(s, schema)
	case *UpdateStmt:
		return matchUpdate(s, schema)
	case *DeleteStmt:
		return matchDelete(s, schema)
	default:
		return nil, matchErrorf(ErrCodeResolution, "unsupported statement type %T", stmt)
	}
}

// scopeEntry is one resolved source: the alias it is known by and its
// row shape.
type scopeEntry struct {
	alias string
	shape RowShape
}

// scope is the transient resolution context of one match/validate
// pass. Entries are ordered: the FROM source comes first, JOIN and
// USING sources follow left to right, and unqualified columns resolve
// to the first entry that defines them. That ordering is the defined
// tie-break when several sources share a column name.
type scope struct {
	schema  *Schema
	entries []scopeEntry
	ctes    map[string]RowShape
}

// newScope starts a context seeded with the CTE shapes visible to the
// statement. The outer map is copied, never mutated: nested subqueries
// merge with, but do not leak into, their parent context.
func newScope(schema *Schema, ctes map[string]RowShape) *scope {
	sc := &scope{schema: schema, ctes: make(map[string]RowShape, len(ctes))}
	for name, shape := range ctes {
		sc.ctes[name] = shape
	}
	return sc
}

// resolveCTEs resolves a WITH list in order. Later CTEs see earlier
// ones; all of them see the outer statement's CTEs.
func resolveCTEs(ctes []CTE, schema *Schema, outer map[string]RowShape) (map[string]RowShape, *MatchError) {
	shapes := make(map[string]RowShape, len(ctes)+len(outer))
	for name, shape := range outer {
		shapes[name] = shape
	}
	for _, cte := range ctes {
		res, err := matchSelect(cte.Subquery, schema, shapes)
		if err != nil {
			return nil, err
		}
		if !res.Ok() {
			return nil, res.Errors[0]
		}
		shapes[cte.Name] = res.Shape
	}
	return shapes, nil
}

// addSource resolves one FROM/JOIN/USING source and appends it to the
// context. A plain table name checks the CTEs first, then the schema;
// a derived table is matched recursively with its own nested context.
func (sc *scope) addSource(src TableSource) *MatchError {
	switch t := src.(type) {
	case TableRef:
		if t.Schema == "" {
			if shape, ok := sc.ctes[t.Table]; ok {
				sc.entries = append(sc.entries, scopeEntry{alias: t.Alias, shape: shape})
				return nil
			}
		}
		shape, err := resolveTable(sc.schema, t)
		if err != nil {
			return err
		}
		sc.entries = append(sc.entries, scopeEntry{alias: t.Alias, shape: shape})
		return nil
	case DerivedTable:
		res, err := matchSelect(t.Subquery, sc.schema, sc.ctes)
		if err != nil {
			return err
		}
		if !res.Ok() {
			return res.Errors[0]
		}
		sc.entries = append(sc.entries, scopeEntry{alias: t.Alias, shape: res.Shape})
		return nil
	default:
		return matchErrorf(ErrCodeResolution, "unsupported table source %T", src)
	}
}

// resolveTable looks a table reference up in the schema, reporting a
// missing schema and a missing table distinctly.
func resolveTable(schema *Schema, ref TableRef) (RowShape, *MatchError) {
	if !schema.HasSchema(ref.Schema) {
		return nil, matchErrorf(ErrCodeSchemaNotFound, "schema %q not found", ref.Schema)
	}
	shape, ok := schema.Table(ref.Schema, ref.Table)
	if !ok {
		return nil, matchErrorf(ErrCodeTableNotFound,
			"table %q not found in schema %q", ref.Table, schema.resolveSchemaName(ref.Schema))
	}
	return shape, nil
}

// lookupAlias finds a context entry by its alias.
func (sc *scope) lookupAlias(alias string) (RowShape, bool) {
	for _, e := range sc.entries {
		if e.alias == alias {
			return e.shape, true
		}
	}
	return nil, false
}

// resolveUnqualified resolves a bare column name: the first context
// entry (FROM before JOINs, left to right) that defines it wins.
func (sc *scope) resolveUnqualified(column string) (ValueType, *MatchError) {
	for _, e := range sc.entries {
		if t, ok := e.shape[column]; ok {
			return t, nil
		}
	}
	return "", matchErrorf(ErrCodeColumnNotFound, "column %q not found in any table in scope", column)
}

// resolveRef resolves an unqualified or qualified column reference to
// its output name and value type. A schema.table.column reference
// bypasses the context and reads the schema directly.
func (sc *scope) resolveRef(ref ColumnRef) (string, ValueType, *MatchError) {
	switch r := ref.(type) {
	case UnboundColumn:
		t, err := sc.resolveUnqualified(r.Column)
		if err != nil {
			return "", "", err
		}
		return nameOr(r.Alias, r.Column), t, nil
	case TableColumn:
		var shape RowShape
		if r.Schema != "" {
			var err *MatchError
			shape, err = resolveTable(sc.schema, TableRef{Schema: r.Schema, Table: r.Table})
			if err != nil {
				return "", "", err
			}
		} else {
			var ok bool
			shape, ok = sc.lookupAlias(r.Table)
			if !ok {
				return "", "", matchErrorf(ErrCodeAliasNotFound, "table or alias %q not in scope", r.Table)
			}
		}
		t, ok := shape[r.Column]
		if !ok {
			return "", "", matchErrorf(ErrCodeColumnNotFound, "column %q not found in table %q", r.Column, r.Table)
		}
		return nameOr(r.Alias, r.Column), t, nil
	default:
		return "", "", matchErrorf(ErrCodeResolution, "unsupported column reference %T", ref)
	}
}

func nameOr(alias, fallback string) string {
	if alias != "" {
		return alias
	}
	return fallback
}

// matchReturning computes the result of a RETURNING clause against the
// target table's shape. A nil clause is the "no result" outcome; the
// OLD./NEW. qualifiers key their entries as old_<col>/new_<col> drawn
// from the same underlying shape.
func matchReturning(table RowShape, tableName string, ret *ReturningClause) *MatchResult {
	if ret == nil {
		return &MatchResult{HasRows: false}
	}
	res := &MatchResult{HasRows: true, Shape: RowShape{}}
	if ret.Star {
		res.Shape = table.clone()
		return res
	}
	for _, item := range ret.Items {
		prefix := ""
		switch item.Image {
		case ImageOld:
			prefix = "old_"
		case ImageNew:
			prefix = "new_"
		}
		if item.Star {
			for col, t := range table {
				res.Shape[prefix+col] = t
			}
			continue
		}
		t, ok := table[item.Column]
		if !ok {
			res.Errors = append(res.Errors, matchErrorf(ErrCodeColumnNotFound,
				"column %q not found in table %q", item.Column, tableName))
			continue
		}
		res.Shape[prefix+item.Column] = t
	}
	return res
}

// combineShapes merges the two sides of a set operation, per column:
// UNION takes the union of both sides' value types, INTERSECT their
// intersection (falling back to the union when it is empty), EXCEPT
// keeps the left side unchanged. Columns only the left side has pass
// through; right-only columns are dropped.
func combineShapes(left, right RowShape, op SetOp) RowShape {
	out := make(RowShape, len(left))
	for col, lt := range left {
		rt, ok := right[col]
		if !ok {
			out[col] = lt
			continue
		}
		switch op {
		case OpUnion, OpUnionAll:
			out[col] = unionTypes(lt, rt)
		case OpIntersect, OpIntersectAll:
			out[col] = intersectTypes(lt, rt)
		default: // EXCEPT family
			out[col] = lt
		}
	}
	return out
}

// splitTypeSet breaks a possibly-union value type ("number | string")
// into its members.
func splitTypeSet(t ValueType) []ValueType {
	parts := strings.Split(string(t), " | ")
	out := make([]ValueType, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, ValueType(p))
		}
	}
	return out
}

func joinTypeSet(set map[ValueType]bool) ValueType {
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, string(m))
	}
	sort.Strings(members)
	return ValueType(strings.Join(members, " | "))
}

func unionTypes(a, b ValueType) ValueType {
	set := make(map[ValueType]bool)
	for _, m := range splitTypeSet(a) {
		set[m] = true
	}
	for _, m := range splitTypeSet(b) {
		set[m] = true
	}
	return joinTypeSet(set)
}

func intersectTypes(a, b ValueType) ValueType {
	inB := make(map[ValueType]bool)
	for _, m := range splitTypeSet(b) {
		inB[m] = true
	}
	set := make(map[ValueType]bool)
	for _, m := range splitTypeSet(a) {
		if inB[m] {
			set[m] = true
		}
	}
	if len(set) == 0 {
		return unionTypes(a, b)
	}
	return joinTypeSet(set)
}
