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

// Shared clause grammar: the sub-parsers every statement grammar
// reuses - table references, derived tables, CTE lists, JOIN chains,
// filter bodies, RETURNING lists, SET assignments and value literals.
// All of them are pure functions from remaining normalized text to
// (node, rest) or a *ParseError; failure short-circuits with no
// recovery and no backtracking. Branch choice always needs exactly one
// token of lookahead.
package sqlens

import (
	"strconv"
	"strings"
)

// Clause terminator sets. A clause body runs until the first top-level
// occurrence of one of its terminators; parenthesized subqueries keep
// their own keywords out of reach because ExtractUntil tracks depth.
var (
	fromTerminators = map[string]bool{"FROM": true}

	joinStarters = map[string]bool{
		"JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true,
		"FULL": true, "CROSS": true,
	}

	joinOnTerminators = map[string]bool{
		"JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true,
		"FULL": true, "CROSS": true,
		"WHERE": true, "GROUP": true, "HAVING": true, "ORDER": true,
		"LIMIT": true, "OFFSET": true,
		"UNION": true, "INTERSECT": true, "EXCEPT": true,
		"RETURNING": true, "ON": true,
	}

	// "ON" terminates WHERE-family bodies so an INSERT ... SELECT's
	// trailing ON CONFLICT is not swallowed; inside a SELECT no join
	// ON can follow these clauses.
	whereTerminators = map[string]bool{
		"GROUP": true, "HAVING": true, "ORDER": true,
		"LIMIT": true, "OFFSET": true,
		"UNION": true, "INTERSECT": true, "EXCEPT": true,
		"RETURNING": true, "ON": true,
	}

	groupByTerminators = map[string]bool{
		"HAVING": true, "ORDER": true, "LIMIT": true, "OFFSET": true,
		"UNION": true, "INTERSECT": true, "EXCEPT": true,
		"RETURNING": true, "ON": true,
	}

	havingTerminators = map[string]bool{
		"ORDER": true, "LIMIT": true, "OFFSET": true,
		"UNION": true, "INTERSECT": true, "EXCEPT": true,
		"RETURNING": true, "ON": true,
	}

	orderByTerminators = map[string]bool{
		"LIMIT": true, "OFFSET": true,
		"UNION": true, "INTERSECT": true, "EXCEPT": true,
		"RETURNING": true, "ON": true,
	}

	updateSetTerminators = map[string]bool{
		"FROM": true, "WHERE": true, "RETURNING": true,
	}

	sourceListTerminators = map[string]bool{
		"WHERE": true, "RETURNING": true,
	}

	conflictSetTerminators = map[string]bool{
		"WHERE": true, "RETURNING": true,
	}
)

// tokOrEOF renders a token for an expected-vs-found message.
func tokOrEOF(tok string) string {
	if tok == "" {
		return "end of input"
	}
	return tok
}

// expectToken consumes one token and fails unless it equals want.
func expectToken(text, want string) (string, *ParseError) {
	tok, rest := NextToken(text)
	if tok != want {
		return "", parseErrorf(ErrCodeMissingKeyword, "expected %s but found %s", want, tokOrEOF(tok))
	}
	return rest, nil
}

// parseTableRef parses [schema.]table [[AS] alias]. When no alias is
// given and the next token is a clause keyword (or nothing), the alias
// defaults to the table name. Quoted identifiers lose their quotes and
// keep their casing.
func parseTableRef(text string) (TableRef, string, *ParseError) {
	tok, rest := NextToken(text)
	if !isIdentToken(tok) {
		return TableRef{}, "", parseErrorf(ErrCodeUnexpectedToken, "expected table name but found %s", tokOrEOF(tok))
	}
	parts := strings.Split(tok, ".")
	ref := TableRef{}
	switch len(parts) {
	case 1:
		ref.Table = unquote(parts[0])
	case 2:
		ref.Schema = unquote(parts[0])
		ref.Table = unquote(parts[1])
	default:
		return TableRef{}, "", parseErrorf(ErrCodeUnexpectedToken, "malformed table name %q", tok)
	}
	if ref.Table == "" {
		return TableRef{}, "", parseErrorf(ErrCodeUnexpectedToken, "malformed table name %q", tok)
	}

	next, after := NextToken(rest)
	switch {
	case next == "AS":
		alias, after2 := NextToken(after)
		if alias == "" {
			return TableRef{}, "", parseErrorf(ErrCodeMissingKeyword, "expected alias after AS but found end of input")
		}
		ref.Alias = unquote(alias)
		rest = after2
	case isIdentToken(next):
		ref.Alias = unquote(next)
		rest = after
	default:
		ref.Alias = ref.Table
	}
	return ref, rest, nil
}

// parseTableSource parses either a named table reference or a
// parenthesized derived table. Derived tables require an alias.
func parseTableSource(text string) (TableSource, string, *ParseError) {
	if !StartsWith(text, "(") {
		return parseTableRef(text)
	}
	inner, rest, err := extractGroup(text)
	if err != nil {
		return nil, "", err
	}
	sub, subRest, err := parseSelect(inner)
	if err != nil {
		return nil, "", err
	}
	if subRest != "" {
		return nil, "", parseErrorf(ErrCodeTrailingInput, "unexpected input after derived table subquery: %q", subRest)
	}

	next, after := NextToken(rest)
	if next == "AS" {
		next, after = NextToken(after)
	}
	if !isIdentToken(next) {
		return nil, "", parseErrorf(ErrCodeMissingKeyword, "derived table requires an alias, found %s", tokOrEOF(next))
	}
	return DerivedTable{Subquery: sub, Alias: unquote(next)}, after, nil
}

// parseJoinClause parses one [INNER|LEFT|RIGHT|FULL|CROSS] [OUTER]
// JOIN source [ON condition] step. The caller checks joinStarters
// before calling.
func parseJoinClause(text string) (JoinClause, string, *ParseError) {
	jc := JoinClause{Type: InnerJoin}
	tok, rest := NextToken(text)
	switch tok {
	case "JOIN":
		// bare JOIN is INNER
	case "INNER", "LEFT", "RIGHT", "FULL", "CROSS":
		jc.Type = JoinType(tok)
		tok, rest = NextToken(rest)
		if tok == "OUTER" {
			tok, rest = NextToken(rest)
		}
		if tok != "JOIN" {
			return JoinClause{}, "", parseErrorf(ErrCodeMissingKeyword, "expected JOIN but found %s", tokOrEOF(tok))
		}
	default:
		return JoinClause{}, "", parseErrorf(ErrCodeUnexpectedToken, "expected join clause but found %s", tokOrEOF(tok))
	}

	src, rest, err := parseTableSource(rest)
	if err != nil {
		return JoinClause{}, "", err
	}
	jc.Source = src

	if StartsWith(rest, "ON") {
		_, rest = NextToken(rest)
		seg, after := ExtractUntil(rest, joinOnTerminators)
		if seg == "" {
			return JoinClause{}, "", parseErrorf(ErrCodeMissingKeyword, "expected condition after ON")
		}
		jc.On = newFilter(seg)
		rest = after
	}
	return jc, rest, nil
}

// parseJoins consumes consecutive join clauses.
func parseJoins(text string) ([]JoinClause, string, *ParseError) {
	var joins []JoinClause
	rest := text
	for {
		head, _ := NextToken(rest)
		if !joinStarters[head] {
			return joins, rest, nil
		}
		jc, after, err := parseJoinClause(rest)
		if err != nil {
			return nil, "", err
		}
		joins = append(joins, jc)
		rest = after
	}
}

// parseCTEs parses the WITH prefix: name AS ( subquery ) [, ...].
// Each CTE body is a fully parsed nested SELECT.
func parseCTEs(text string) ([]CTE, string, *ParseError) {
	rest, err := expectToken(text, "WITH")
	if err != nil {
		return nil, "", err
	}
	var ctes []CTE
	for {
		name, after := NextToken(rest)
		if !isIdentToken(name) {
			return nil, "", parseErrorf(ErrCodeUnexpectedToken, "expected CTE name but found %s", tokOrEOF(name))
		}
		after, err = expectToken(after, "AS")
		if err != nil {
			return nil, "", err
		}
		inner, after, err2 := extractGroup(after)
		if err2 != nil {
			return nil, "", err2
		}
		sub, subRest, err3 := parseSelect(inner)
		if err3 != nil {
			return nil, "", err3
		}
		if subRest != "" {
			return nil, "", parseErrorf(ErrCodeTrailingInput, "unexpected input after CTE %q subquery: %q", unquote(name), subRest)
		}
		ctes = append(ctes, CTE{Name: unquote(name), Subquery: sub})

		if StartsWith(after, ",") {
			_, rest = NextToken(after)
			continue
		}
		return ctes, after, nil
	}
}

// newFilter wraps a raw condition body with the column references
// scanned out of it. The condition's boolean structure is not modeled.
func newFilter(raw string) *FilterClause {
	return &FilterClause{Raw: raw, Columns: scanColumnRefs(raw)}
}

// scanColumnRefs walks a condition body and collects the column
// references it mentions. Literals, keywords, operators and parameter
// placeholders are skipped; tokens glued to comparison operators
// ("id=1") are split first. JSON path operators are cut before the
// comparison split, otherwise their ">" characters would mangle the
// base column; cast suffixes are stripped per piece. Function call
// heads ("LOWER (") are not columns, and the body of a parenthesized
// subquery resolves in the subquery's own scope, so both are skipped.
func scanColumnRefs(raw string) []ColumnRef {
	for _, op := range []string{"->>", "->", "#>>", "#>"} {
		raw = strings.ReplaceAll(raw, op, " ")
	}
	toks := dropSubqueries(tokens(raw))
	var refs []ColumnRef
	for i, tok := range toks {
		if i+1 < len(toks) && toks[i+1] == "(" {
			continue
		}
		for _, piece := range splitOperators(tok) {
			if ref, ok := classifyRefPiece(piece); ok {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

// dropSubqueries removes "( SELECT ... )" groups from a condition's
// token stream; their columns belong to the subquery, not the
// enclosing statement's scope.
func dropSubqueries(toks []string) []string {
	var out []string
	for i := 0; i < len(toks); i++ {
		if toks[i] == "(" && i+1 < len(toks) && toks[i+1] == "SELECT" {
			depth := 1
			j := i + 1
			for ; j < len(toks) && depth > 0; j++ {
				switch toks[j] {
				case "(":
					depth++
				case ")":
					depth--
				}
			}
			i = j - 1
			continue
		}
		out = append(out, toks[i])
	}
	return out
}

// splitOperators breaks a token on comparison operator characters.
func splitOperators(tok string) []string {
	return strings.FieldsFunc(tok, func(r rune) bool {
		switch r {
		case '=', '<', '>', '!':
			return true
		}
		return false
	})
}

// classifyRefPiece decides whether one operator-free piece of a
// condition is a column reference, and builds it if so.
func classifyRefPiece(piece string) (ColumnRef, bool) {
	piece = strings.TrimSpace(piece)
	if piece == "" || strings.ContainsRune(piece, '\'') {
		return nil, false
	}
	if i := strings.Index(piece, "::"); i >= 0 {
		piece = piece[:i]
	}
	if !isIdentToken(piece) {
		return nil, false
	}
	parts := strings.Split(piece, ".")
	for i, p := range parts {
		parts[i] = unquote(p)
		if parts[i] == "" {
			return nil, false
		}
	}
	switch len(parts) {
	case 1:
		return UnboundColumn{Column: parts[0]}, true
	case 2:
		return TableColumn{Table: parts[0], Column: parts[1]}, true
	case 3:
		return TableColumn{Schema: parts[0], Table: parts[1], Column: parts[2]}, true
	}
	return nil, false
}

// parseColumnPath parses a plain or dotted column reference token.
func parseColumnPath(tok, alias string) (ColumnRef, *ParseError) {
	if !isIdentToken(tok) {
		return nil, parseErrorf(ErrCodeUnexpectedToken, "expected column reference but found %s", tokOrEOF(tok))
	}
	parts := strings.Split(tok, ".")
	for i, p := range parts {
		parts[i] = unquote(p)
		if parts[i] == "" {
			return nil, parseErrorf(ErrCodeUnexpectedToken, "malformed column reference %q", tok)
		}
	}
	switch len(parts) {
	case 1:
		return UnboundColumn{Column: parts[0], Alias: alias}, nil
	case 2:
		return TableColumn{Table: parts[0], Column: parts[1], Alias: alias}, nil
	case 3:
		return TableColumn{Schema: parts[0], Table: parts[1], Column: parts[2], Alias: alias}, nil
	}
	return nil, parseErrorf(ErrCodeUnexpectedToken, "malformed column reference %q", tok)
}

// parseReturning parses the RETURNING suffix. images permits the
// OLD./NEW. qualifiers, which only the UPDATE grammar accepts. The
// clause always ends the statement, so the whole remaining text is the
// item list.
func parseReturning(text string, images bool) (*ReturningClause, string, *ParseError) {
	rest, err := expectToken(text, "RETURNING")
	if err != nil {
		return nil, "", err
	}
	if rest == "" {
		return nil, "", parseErrorf(ErrCodeMalformedList, "expected column list after RETURNING")
	}
	if rest == "*" {
		return &ReturningClause{Star: true}, "", nil
	}

	clause := &ReturningClause{}
	for _, seg := range SplitTopLevel(rest, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" || strings.ContainsRune(seg, ' ') {
			return nil, "", parseErrorf(ErrCodeMalformedList, "malformed RETURNING item %q", seg)
		}
		item := ReturningItem{}
		upper := strings.ToUpper(seg)
		switch {
		case strings.HasPrefix(upper, "OLD."), strings.HasPrefix(upper, "NEW."):
			if !images {
				return nil, "", parseErrorf(ErrCodeUnexpectedToken,
					"OLD/NEW qualifiers are only valid in UPDATE RETURNING, found %q", seg)
			}
			if strings.HasPrefix(upper, "OLD.") {
				item.Image = ImageOld
			} else {
				item.Image = ImageNew
			}
			target := seg[4:]
			if target == "*" {
				item.Star = true
			} else if isIdentToken(target) && !strings.Contains(target, ".") {
				item.Column = unquote(target)
			} else {
				return nil, "", parseErrorf(ErrCodeMalformedList, "malformed RETURNING item %q", seg)
			}
		case isIdentToken(seg) && !strings.Contains(seg, "."):
			item.Column = unquote(seg)
		default:
			return nil, "", parseErrorf(ErrCodeMalformedList,
				"RETURNING items must be column names, optionally OLD/NEW qualified, found %q", seg)
		}
		clause.Items = append(clause.Items, item)
	}
	return clause, "", nil
}

// parseAssignments parses a SET body: col = value [, col = value]*.
func parseAssignments(body string) ([]Assignment, *ParseError) {
	if strings.TrimSpace(body) == "" {
		return nil, parseErrorf(ErrCodeMalformedList, "expected assignments after SET")
	}
	var out []Assignment
	for _, seg := range SplitTopLevel(body, ",") {
		seg = strings.TrimSpace(seg)
		i := strings.IndexByte(seg, '=')
		if i < 0 {
			return nil, parseErrorf(ErrCodeMalformedList, "expected col = value assignment, found %q", seg)
		}
		col := strings.TrimSpace(seg[:i])
		val := strings.TrimSpace(seg[i+1:])
		if !isIdentToken(col) || strings.Contains(col, ".") {
			return nil, parseErrorf(ErrCodeMalformedList, "expected column name on assignment left side, found %q", col)
		}
		if val == "" {
			return nil, parseErrorf(ErrCodeMalformedList, "missing value in assignment %q", seg)
		}
		out = append(out, Assignment{Column: unquote(col), Value: classifyValue(val)})
	}
	return out, nil
}

// classifyValue recognizes the literal forms the grammar knows: NULL,
// TRUE/FALSE, quoted strings, bare numerics, $n/:name placeholders,
// DEFAULT and EXCLUDED.column. Anything else keeps its raw text.
func classifyValue(seg string) Value {
	seg = strings.TrimSpace(seg)
	switch seg {
	case "NULL":
		return Value{Kind: ValueNull, Raw: seg}
	case "TRUE":
		return Value{Kind: ValueBool, Raw: seg, Bool: true}
	case "FALSE":
		return Value{Kind: ValueBool, Raw: seg, Bool: false}
	case "DEFAULT":
		return Value{Kind: ValueDefault, Raw: seg}
	}
	if len(seg) >= 2 && seg[0] == '\'' && seg[len(seg)-1] == '\'' {
		return Value{Kind: ValueString, Raw: seg[1 : len(seg)-1]}
	}
	if _, err := strconv.ParseFloat(seg, 64); err == nil {
		return Value{Kind: ValueNumber, Raw: seg}
	}
	if isParamPlaceholder(seg) {
		return Value{Kind: ValueParam, Raw: seg}
	}
	if upper := strings.ToUpper(seg); strings.HasPrefix(upper, "EXCLUDED.") {
		return Value{Kind: ValueExcluded, Raw: unquote(seg[len("EXCLUDED."):])}
	}
	return Value{Kind: ValueExpr, Raw: seg}
}

// isParamPlaceholder matches $n and :name placeholders.
func isParamPlaceholder(seg string) bool {
	if len(seg) < 2 {
		return false
	}
	if seg[0] == '$' {
		for _, r := range seg[1:] {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	if seg[0] == ':' {
		for i, r := range seg[1:] {
			alpha := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
			if !alpha && !(i > 0 && r >= '0' && r <= '9') {
				return false
			}
		}
		return true
	}
	return false
}
