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

// Canonical rendering: every statement node prints back to normalized
// SQL with its clauses in grammar order. Re-parsing a rendered
// statement produces a structurally identical tree.

import (
	"strconv"
	"strings"
)

// String renders the SELECT back to canonical SQL.
func (s *SelectStmt) String() string {
	var b strings.Builder
	writeCTEs(&b, s.CTEs)
	b.WriteString("SELECT ")
	if s.Distinct {
		b.WriteString("DISTINCT ")
	}
	for i, item := range s.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(selectItemString(item))
	}
	b.WriteString(" FROM ")
	b.WriteString(sourceString(s.From))
	for _, j := range s.Joins {
		b.WriteByte(' ')
		b.WriteString(j.String())
	}
	if s.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where.Raw)
	}
	if len(s.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		for i, ref := range s.GroupBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(refPathString(ref))
		}
	}
	if s.Having != nil {
		b.WriteString(" HAVING ")
		b.WriteString(s.Having.Raw)
	}
	if len(s.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range s.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(refPathString(o.Column))
			if o.Desc {
				b.WriteString(" DESC")
			}
		}
	}
	if s.Limit != nil {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.FormatInt(*s.Limit, 10))
	}
	if s.Offset != nil {
		b.WriteString(" OFFSET ")
		b.WriteString(strconv.FormatInt(*s.Offset, 10))
	}
	if s.Compound != nil {
		b.WriteByte(' ')
		b.WriteString(string(s.Compound.Op))
		b.WriteByte(' ')
		b.WriteString(s.Compound.Right.String())
	}
	return b.String()
}

// String renders the INSERT back to canonical SQL.
func (s *InsertStmt) String() string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(tableNameString(s.Table))
	if len(s.Columns) > 0 {
		b.WriteString(" ( ")
		b.WriteString(strings.Join(s.Columns, ", "))
		b.WriteString(" )")
	}
	if s.Select != nil {
		b.WriteByte(' ')
		b.WriteString(s.Select.String())
	} else {
		b.WriteString(" VALUES ")
		for i, row := range s.Rows {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("( ")
			for k, v := range row {
				if k > 0 {
					b.WriteString(", ")
				}
				b.WriteString(v.String())
			}
			b.WriteString(" )")
		}
	}
	if s.OnConflict != nil {
		b.WriteByte(' ')
		b.WriteString(s.OnConflict.String())
	}
	writeReturning(&b, s.Returning)
	return b.String()
}

// String renders the UPDATE back to canonical SQL.
func (s *UpdateStmt) String() string {
	var b strings.Builder
	writeCTEs(&b, s.CTEs)
	b.WriteString("UPDATE ")
	b.WriteString(tableRefString(s.Table))
	b.WriteString(" SET ")
	writeAssignments(&b, s.Assignments)
	if s.From != nil {
		b.WriteString(" FROM ")
		b.WriteString(sourceString(s.From))
		for _, j := range s.FromJoins {
			b.WriteByte(' ')
			b.WriteString(j.String())
		}
	}
	if s.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where.Raw)
	}
	writeReturning(&b, s.Returning)
	return b.String()
}

// String renders the DELETE back to canonical SQL.
func (s *DeleteStmt) String() string {
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(tableRefString(s.Table))
	if len(s.Using) > 0 {
		b.WriteString(" USING ")
		for i, src := range s.Using {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(sourceString(src))
		}
	}
	if s.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(s.Where.Raw)
	}
	writeReturning(&b, s.Returning)
	return b.String()
}

// String renders one join step.
func (j JoinClause) String() string {
	var b strings.Builder
	b.WriteString(string(j.Type))
	b.WriteString(" JOIN ")
	b.WriteString(sourceString(j.Source))
	if j.On != nil {
		b.WriteString(" ON ")
		b.WriteString(j.On.Raw)
	}
	return b.String()
}

// String renders the ON CONFLICT clause.
func (c *OnConflictClause) String() string {
	var b strings.Builder
	b.WriteString("ON CONFLICT")
	if len(c.Columns) > 0 {
		b.WriteString(" ( ")
		b.WriteString(strings.Join(c.Columns, ", "))
		b.WriteString(" )")
	} else if c.Constraint != "" {
		b.WriteString(" ON CONSTRAINT ")
		b.WriteString(c.Constraint)
	}
	if !c.DoUpdate {
		b.WriteString(" DO NOTHING")
		return b.String()
	}
	b.WriteString(" DO UPDATE SET ")
	writeAssignments(&b, c.Assignments)
	if c.Where != nil {
		b.WriteString(" WHERE ")
		b.WriteString(c.Where.Raw)
	}
	return b.String()
}

// String renders a value literal in its source form.
func (v Value) String() string {
	switch v.Kind {
	case ValueString:
		return "'" + v.Raw + "'"
	case ValueExcluded:
		return "EXCLUDED." + v.Raw
	default:
		return v.Raw
	}
}

func writeAssignments(b *strings.Builder, assignments []Assignment) {
	for i, a := range assignments {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.Column)
		b.WriteString(" = ")
		b.WriteString(a.Value.String())
	}
}

func writeCTEs(b *strings.Builder, ctes []CTE) {
	if len(ctes) == 0 {
		return
	}
	b.WriteString("WITH ")
	for i, cte := range ctes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(cte.Name)
		b.WriteString(" AS ( ")
		b.WriteString(cte.Subquery.String())
		b.WriteString(" )")
	}
	b.WriteByte(' ')
}

func writeReturning(b *strings.Builder, ret *ReturningClause) {
	if ret == nil {
		return
	}
	b.WriteString(" RETURNING ")
	if ret.Star {
		b.WriteByte('*')
		return
	}
	for i, item := range ret.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		switch item.Image {
		case ImageOld:
			b.WriteString("OLD.")
		case ImageNew:
			b.WriteString("NEW.")
		}
		if item.Star {
			b.WriteByte('*')
		} else {
			b.WriteString(item.Column)
		}
	}
}

// tableNameString renders [schema.]table without the alias.
func tableNameString(t TableRef) string {
	if t.Schema != "" {
		return t.Schema + "." + t.Table
	}
	return t.Table
}

// tableRefString renders [schema.]table AS alias.
func tableRefString(t TableRef) string {
	return tableNameString(t) + " AS " + t.Alias
}

func sourceString(src TableSource) string {
	switch s := src.(type) {
	case TableRef:
		return tableRefString(s)
	case DerivedTable:
		return "( " + s.Subquery.String() + " ) AS " + s.Alias
	default:
		return ""
	}
}

// refPathString renders a plain or qualified column reference without
// its alias (GROUP BY / ORDER BY positions).
func refPathString(ref ColumnRef) string {
	switch r := ref.(type) {
	case UnboundColumn:
		return r.Column
	case TableColumn:
		path := r.Table + "." + r.Column
		if r.Schema != "" {
			path = r.Schema + "." + path
		}
		return path
	default:
		return ""
	}
}

// selectItemString renders one column-list item, alias included.
func selectItemString(item ColumnRef) string {
	withAlias := func(expr, alias string) string {
		if alias == "" {
			return expr
		}
		return expr + " AS " + alias
	}
	switch it := item.(type) {
	case AllColumns:
		return "*"
	case TableWildcard:
		if it.Schema != "" {
			return it.Schema + "." + it.Table + ".*"
		}
		return it.Table + ".*"
	case UnboundColumn:
		return withAlias(it.Column, it.Alias)
	case TableColumn:
		return withAlias(refPathString(it), it.Alias)
	case AggregateExpr:
		arg := "*"
		if !it.Star {
			arg = refPathString(it.Arg)
		}
		return withAlias(it.Func+" ( "+arg+" )", it.Alias)
	case SubqueryExpr:
		expr := "( " + it.Subquery.String() + " )"
		if it.Cast != "" {
			expr += " ::" + it.Cast
		}
		return withAlias(expr, it.Alias)
	case ComplexExpr:
		return withAlias(it.Raw, it.Alias)
	default:
		return ""
	}
}
