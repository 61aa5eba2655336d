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
SELECT grammar - the richest of the four:

	[WITH name AS ( select ) [, ...]]
	SELECT [DISTINCT] item [, item ...]
	FROM source
	[joins...]
	[WHERE condition]
	[GROUP BY column [, ...]]
	[HAVING condition]
	[ORDER BY column [ASC|DESC] [, ...]]
	[LIMIT n] [OFFSET n]            (either order)
	[UNION [ALL] | INTERSECT [ALL] | EXCEPT [ALL] select]

Items cover the bare *, plain and qualified columns, table wildcards,
aggregate calls, scalar subqueries and "complex" expressions (JSON path
operators and ::type casts), each with an optional AS alias. Set
operation chains are right-associated: the right side of a compound is
itself a full SELECT that may carry further compounds.
*/
package sqlens

import (
	"strconv"
	"strings"
)

var setOpKeywords = map[string]bool{"UNION": true, "INTERSECT": true, "EXCEPT": true}

// parseSelect parses a full SELECT from the front of normalized text
// and returns the node and the unconsumed remainder. Callers that
// require the whole input to be one SELECT check that the remainder is
// empty.
func parseSelect(text string) (*SelectStmt, string, *ParseError) {
	stmt := &SelectStmt{}
	rest := text

	if StartsWith(rest, "WITH") {
		ctes, after, err := parseCTEs(rest)
		if err != nil {
			return nil, "", err
		}
		stmt.CTEs = ctes
		rest = after
	}

	rest, err := expectToken(rest, "SELECT")
	if err != nil {
		return nil, "", err
	}

	if StartsWith(rest, "DISTINCT") {
		_, rest = NextToken(rest)
		stmt.Distinct = true
	}

	colSeg, rest := ExtractUntil(rest, fromTerminators)
	if strings.TrimSpace(colSeg) == "" {
		return nil, "", parseErrorf(ErrCodeMalformedList, "empty column list in SELECT")
	}
	if rest == "" {
		return nil, "", parseErrorf(ErrCodeMissingKeyword, "expected FROM but found end of input")
	}
	for _, seg := range SplitTopLevel(colSeg, ",") {
		item, err := parseSelectItem(seg)
		if err != nil {
			return nil, "", err
		}
		stmt.Items = append(stmt.Items, item)
	}

	_, rest = NextToken(rest) // consume FROM
	from, rest, err := parseTableSource(rest)
	if err != nil {
		return nil, "", err
	}
	stmt.From = from

	joins, rest, err := parseJoins(rest)
	if err != nil {
		return nil, "", err
	}
	stmt.Joins = joins

	if StartsWith(rest, "WHERE") {
		_, rest = NextToken(rest)
		seg, after := ExtractUntil(rest, whereTerminators)
		if strings.TrimSpace(seg) == "" {
			return nil, "", parseErrorf(ErrCodeMissingKeyword, "expected condition after WHERE")
		}
		stmt.Where = newFilter(seg)
		rest = after
	}

	if StartsWith(rest, "GROUP") {
		_, rest = NextToken(rest)
		rest, err = expectToken(rest, "BY")
		if err != nil {
			return nil, "", err
		}
		seg, after := ExtractUntil(rest, groupByTerminators)
		cols, err := parseColumnList(seg, "GROUP BY")
		if err != nil {
			return nil, "", err
		}
		stmt.GroupBy = cols
		rest = after
	}

	if StartsWith(rest, "HAVING") {
		_, rest = NextToken(rest)
		seg, after := ExtractUntil(rest, havingTerminators)
		if strings.TrimSpace(seg) == "" {
			return nil, "", parseErrorf(ErrCodeMissingKeyword, "expected condition after HAVING")
		}
		stmt.Having = newFilter(seg)
		rest = after
	}

	if StartsWith(rest, "ORDER") {
		_, rest = NextToken(rest)
		rest, err = expectToken(rest, "BY")
		if err != nil {
			return nil, "", err
		}
		seg, after := ExtractUntil(rest, orderByTerminators)
		items, err := parseOrderBy(seg)
		if err != nil {
			return nil, "", err
		}
		stmt.OrderBy = items
		rest = after
	}

	// LIMIT and OFFSET accept either order; each appears at most once.
	for {
		if StartsWith(rest, "LIMIT") && stmt.Limit == nil {
			n, after, err := parseCount(rest, "LIMIT")
			if err != nil {
				return nil, "", err
			}
			stmt.Limit = &n
			rest = after
			continue
		}
		if StartsWith(rest, "OFFSET") && stmt.Offset == nil {
			n, after, err := parseCount(rest, "OFFSET")
			if err != nil {
				return nil, "", err
			}
			stmt.Offset = &n
			rest = after
			continue
		}
		break
	}

	if head, _ := NextToken(rest); setOpKeywords[head] {
		compound, after, err := parseCompound(rest)
		if err != nil {
			return nil, "", err
		}
		stmt.Compound = compound
		rest = after
	}

	return stmt, rest, nil
}

// parseCompound parses UNION/INTERSECT/EXCEPT [ALL] followed by the
// right-hand SELECT. The recursive call keeps chains right-associated.
func parseCompound(text string) (*CompoundClause, string, *ParseError) {
	opTok, rest := NextToken(text)
	op := SetOp(opTok)
	if StartsWith(rest, "ALL") {
		_, rest = NextToken(rest)
		op = SetOp(opTok + " ALL")
	}
	right, rest, err := parseSelect(rest)
	if err != nil {
		return nil, "", err
	}
	return &CompoundClause{Op: op, Right: right}, rest, nil
}

// parseCount parses "KEYWORD n" with a non-negative numeric n.
func parseCount(text, keyword string) (int64, string, *ParseError) {
	_, rest := NextToken(text)
	tok, rest := NextToken(rest)
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil || n < 0 {
		return 0, "", parseErrorf(ErrCodeUnexpectedToken, "%s expects a non-negative number, found %s", keyword, tokOrEOF(tok))
	}
	return n, rest, nil
}

// parseColumnList parses a comma-separated list of plain or qualified
// column references (GROUP BY bodies).
func parseColumnList(seg, clause string) ([]ColumnRef, *ParseError) {
	if strings.TrimSpace(seg) == "" {
		return nil, parseErrorf(ErrCodeMalformedList, "expected column list after %s", clause)
	}
	var out []ColumnRef
	for _, item := range SplitTopLevel(seg, ",") {
		item = strings.TrimSpace(item)
		if strings.ContainsRune(item, ' ') {
			return nil, parseErrorf(ErrCodeMalformedList, "malformed %s item %q", clause, item)
		}
		ref, err := parseColumnPath(item, "")
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

// parseOrderBy parses ORDER BY items: column [ASC|DESC], default ASC.
func parseOrderBy(seg string) ([]OrderByItem, *ParseError) {
	if strings.TrimSpace(seg) == "" {
		return nil, parseErrorf(ErrCodeMalformedList, "expected column list after ORDER BY")
	}
	var out []OrderByItem
	for _, item := range SplitTopLevel(seg, ",") {
		toks := tokens(item)
		o := OrderByItem{}
		if n := len(toks); n > 1 {
			switch toks[n-1] {
			case "ASC":
				toks = toks[:n-1]
			case "DESC":
				o.Desc = true
				toks = toks[:n-1]
			}
		}
		if len(toks) != 1 {
			return nil, parseErrorf(ErrCodeMalformedList, "malformed ORDER BY item %q", strings.TrimSpace(item))
		}
		ref, err := parseColumnPath(toks[0], "")
		if err != nil {
			return nil, err
		}
		o.Column = ref
		out = append(out, o)
	}
	return out, nil
}

// parseSelectItem classifies one column-list segment. The optional
// trailing "AS alias" is split off first; the alias keeps its original
// casing (the normalizer never touches the word after AS).
func parseSelectItem(seg string) (ColumnRef, *ParseError) {
	toks := tokens(seg)
	if len(toks) == 0 {
		return nil, parseErrorf(ErrCodeMalformedList, "empty select item")
	}

	alias := ""
	if n := len(toks); n >= 3 && toks[n-2] == "AS" {
		alias = unquote(toks[n-1])
		toks = toks[:n-2]
	}
	expr := strings.Join(toks, " ")

	if expr == "*" {
		return AllColumns{}, nil
	}

	if aggregateFuncs[toks[0]] && len(toks) > 1 && toks[1] == "(" {
		return parseAggregateItem(toks, alias)
	}

	if toks[0] == "(" {
		return parseParenItem(expr, alias)
	}

	if len(toks) == 1 && !hasComplexMarker(expr) {
		if strings.HasSuffix(toks[0], ".*") {
			return parseWildcardItem(toks[0])
		}
		return parseColumnPath(toks[0], alias)
	}

	return parseComplexItem(expr, alias)
}

// parseAggregateItem parses FUNC ( arg ) with arg being * or a column
// reference. Without an alias the item is keyed by the lowercased
// function name.
func parseAggregateItem(toks []string, alias string) (ColumnRef, *ParseError) {
	if len(toks) != 4 || toks[3] != ")" {
		return nil, parseErrorf(ErrCodeMalformedList, "malformed aggregate call %q", strings.Join(toks, " "))
	}
	agg := AggregateExpr{Func: toks[0], Alias: alias}
	if toks[2] == "*" {
		if agg.Func != "COUNT" {
			return nil, parseErrorf(ErrCodeMalformedList, "%s(*) is not a valid aggregate; only COUNT accepts *", agg.Func)
		}
		agg.Star = true
		return agg, nil
	}
	arg, err := parseColumnPath(toks[2], "")
	if err != nil {
		return nil, err
	}
	agg.Arg = arg
	return agg, nil
}

// parseParenItem handles a parenthesized select item: a scalar
// subquery "(SELECT ...)" with an optional ::type cast, or a wrapped
// expression that falls through to the complex-expression path.
func parseParenItem(expr, alias string) (ColumnRef, *ParseError) {
	inner, rest, err := extractGroup(expr)
	if err != nil {
		return nil, err
	}
	if !StartsWith(inner, "SELECT") && !StartsWith(inner, "WITH") {
		return parseComplexItem(expr, alias)
	}
	sub, subRest, err := parseSelect(inner)
	if err != nil {
		return nil, err
	}
	if subRest != "" {
		return nil, parseErrorf(ErrCodeTrailingInput, "unexpected input after scalar subquery: %q", subRest)
	}
	item := SubqueryExpr{Subquery: sub, Alias: alias}
	if rest != "" {
		castTok, after := NextToken(rest)
		if !strings.HasPrefix(castTok, "::") || after != "" {
			return nil, parseErrorf(ErrCodeUnexpectedToken, "unexpected input after scalar subquery: %q", rest)
		}
		item.Cast = normalizeCastType(castTok[2:])
	}
	return item, nil
}

// hasComplexMarker reports whether a select item needs the complex-
// expression treatment: JSON path operators or a ::type cast.
func hasComplexMarker(expr string) bool {
	return strings.Contains(expr, "->") || strings.Contains(expr, "#>") || strings.Contains(expr, "::")
}

// parseComplexItem models an expression the grammar does not fully
// structure. Column references are extracted for resolution, the cast
// target (if any) decides the value type, and the default alias is the
// rightmost identifier of the expression.
func parseComplexItem(expr, alias string) (ColumnRef, *ParseError) {
	item := ComplexExpr{Raw: expr, Alias: alias}

	base := expr
	if i := strings.LastIndex(expr, "::"); i >= 0 {
		castTok, _ := NextToken(expr[i+2:])
		if castTok == "" {
			return nil, parseErrorf(ErrCodeUnexpectedToken, "malformed cast in %q", expr)
		}
		item.Cast = normalizeCastType(castTok)
		base = expr[:i]
	}

	item.Refs = scanColumnRefs(base)
	if item.Alias == "" {
		item.Alias = deriveAlias(base)
	}
	if item.Alias == "" {
		return nil, parseErrorf(ErrCodeMalformedList, "cannot derive a column name for %q; add an AS alias", expr)
	}
	return item, nil
}

// deriveAlias finds the rightmost identifier-ish piece of an
// expression: the last JSON path key or, failing that, the last column
// component mentioned.
func deriveAlias(expr string) string {
	for _, op := range []string{"->>", "->", "#>>", "#>"} {
		expr = strings.ReplaceAll(expr, op, " ")
	}
	expr = strings.ReplaceAll(expr, "::", " ")
	fields := tokens(expr)
	for i := len(fields) - 1; i >= 0; i-- {
		f := fields[i]
		if len(f) >= 2 && f[0] == '\'' && f[len(f)-1] == '\'' {
			return f[1 : len(f)-1]
		}
		if isIdentToken(f) {
			parts := strings.Split(f, ".")
			return unquote(parts[len(parts)-1])
		}
	}
	return ""
}

// parseWildcardItem parses table.* and schema.table.*.
func parseWildcardItem(tok string) (ColumnRef, *ParseError) {
	parts := strings.Split(tok, ".")
	for i, p := range parts {
		parts[i] = unquote(p)
	}
	switch len(parts) {
	case 2:
		if parts[0] == "" {
			break
		}
		return TableWildcard{Table: parts[0]}, nil
	case 3:
		if parts[0] == "" || parts[1] == "" {
			break
		}
		return TableWildcard{Schema: parts[0], Table: parts[1]}, nil
	}
	return nil, parseErrorf(ErrCodeMalformedList, "malformed wildcard %q", tok)
}

// normalizeCastType maps a SQL type name from a ::type cast onto the
// value-type vocabulary the schema model uses.
func normalizeCastType(tok string) string {
	switch strings.ToLower(tok) {
	case "int", "int2", "int4", "int8", "integer", "bigint", "smallint",
		"decimal", "numeric", "real", "float", "float4", "float8",
		"double", "serial", "bigserial", "number":
		return string(TypeNumber)
	case "text", "varchar", "char", "character", "string":
		return string(TypeString)
	case "bool", "boolean":
		return string(TypeBoolean)
	case "json", "jsonb":
		return string(TypeJSON)
	default:
		return strings.ToLower(tok)
	}
}
