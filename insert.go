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
INSERT grammar:

	INSERT INTO [schema.]table [( col [, col ...] )]
	VALUES ( v [, v ...] ) [, ( ... )]*  |  SELECT ...
	[ON CONFLICT [( col [, ...] ) | ON CONSTRAINT name]
	    DO NOTHING | DO UPDATE SET col = val [, ...] [WHERE condition]]
	[RETURNING * | col [, col ...]]

The row source is either literal VALUES rows or a full nested SELECT.
Value slots recognize NULL, TRUE/FALSE, quoted strings, bare numerics,
$n/:name placeholders, DEFAULT and EXCLUDED.column; anything else keeps
its raw expression text.
*/
package sqlens

import "strings"

// parseInsert parses a full INSERT statement.
func parseInsert(text string) (*InsertStmt, string, *ParseError) {
	rest, err := expectToken(text, "INSERT")
	if err != nil {
		return nil, "", err
	}
	rest, err = expectToken(rest, "INTO")
	if err != nil {
		return nil, "", err
	}

	stmt := &InsertStmt{}
	// INSERT targets take no alias; the next token is either the
	// column list, VALUES or SELECT.
	tok, after := NextToken(rest)
	if !isIdentToken(tok) {
		return nil, "", parseErrorf(ErrCodeUnexpectedToken, "expected table name but found %s", tokOrEOF(tok))
	}
	parts := strings.Split(tok, ".")
	switch len(parts) {
	case 1:
		stmt.Table = TableRef{Table: unquote(parts[0])}
	case 2:
		stmt.Table = TableRef{Schema: unquote(parts[0]), Table: unquote(parts[1])}
	default:
		return nil, "", parseErrorf(ErrCodeUnexpectedToken, "malformed table name %q", tok)
	}
	stmt.Table.Alias = stmt.Table.Table
	rest = after

	if StartsWith(rest, "(") {
		cols, after, err := parseNameList(rest)
		if err != nil {
			return nil, "", err
		}
		stmt.Columns = cols
		rest = after
	}

	switch {
	case StartsWith(rest, "VALUES"):
		_, rest = NextToken(rest)
		rows, after, err := parseValuesRows(rest)
		if err != nil {
			return nil, "", err
		}
		stmt.Rows = rows
		rest = after
	case StartsWith(rest, "SELECT") || StartsWith(rest, "WITH"):
		sub, after, err := parseSelect(rest)
		if err != nil {
			return nil, "", err
		}
		stmt.Select = sub
		rest = after
	default:
		head, _ := NextToken(rest)
		return nil, "", parseErrorf(ErrCodeMissingKeyword, "expected VALUES or SELECT but found %s", tokOrEOF(head))
	}

	if StartsWith(rest, "ON") {
		clause, after, err := parseOnConflict(rest)
		if err != nil {
			return nil, "", err
		}
		stmt.OnConflict = clause
		rest = after
	}

	if StartsWith(rest, "RETURNING") {
		clause, after, err := parseReturning(rest, false)
		if err != nil {
			return nil, "", err
		}
		stmt.Returning = clause
		rest = after
	}

	return stmt, rest, nil
}

// parseNameList parses a parenthesized comma-separated identifier
// list.
func parseNameList(text string) ([]string, string, *ParseError) {
	inner, rest, err := extractGroup(text)
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(inner) == "" {
		return nil, "", parseErrorf(ErrCodeMalformedList, "empty column list")
	}
	var cols []string
	for _, seg := range SplitTopLevel(inner, ",") {
		seg = strings.TrimSpace(seg)
		if !isIdentToken(seg) || strings.Contains(seg, ".") {
			return nil, "", parseErrorf(ErrCodeMalformedList, "expected column name, found %q", seg)
		}
		cols = append(cols, unquote(seg))
	}
	return cols, rest, nil
}

// parseValuesRows parses one or more parenthesized value rows.
func parseValuesRows(text string) ([][]Value, string, *ParseError) {
	var rows [][]Value
	rest := text
	for {
		inner, after, err := extractGroup(rest)
		if err != nil {
			return nil, "", err
		}
		if strings.TrimSpace(inner) == "" {
			return nil, "", parseErrorf(ErrCodeMalformedList, "empty VALUES row")
		}
		var row []Value
		for _, seg := range SplitTopLevel(inner, ",") {
			if strings.TrimSpace(seg) == "" {
				return nil, "", parseErrorf(ErrCodeMalformedList, "empty value in VALUES row ( %s )", inner)
			}
			row = append(row, classifyValue(seg))
		}
		rows = append(rows, row)
		rest = after

		if !StartsWith(rest, ",") {
			return rows, rest, nil
		}
		_, rest = NextToken(rest)
	}
}

// parseOnConflict parses the ON CONFLICT suffix. The conflict target
// is either a parenthesized column list or ON CONSTRAINT name; the
// action is DO NOTHING or DO UPDATE SET with an optional WHERE guard.
func parseOnConflict(text string) (*OnConflictClause, string, *ParseError) {
	rest, err := expectToken(text, "ON")
	if err != nil {
		return nil, "", err
	}
	rest, err = expectToken(rest, "CONFLICT")
	if err != nil {
		return nil, "", err
	}

	clause := &OnConflictClause{}
	switch {
	case StartsWith(rest, "("):
		cols, after, err := parseNameList(rest)
		if err != nil {
			return nil, "", err
		}
		clause.Columns = cols
		rest = after
	case StartsWith(rest, "ON"):
		_, rest = NextToken(rest)
		var after string
		after, err = expectToken(rest, "CONSTRAINT")
		if err != nil {
			return nil, "", err
		}
		name, after2 := NextToken(after)
		if !isIdentToken(name) {
			return nil, "", parseErrorf(ErrCodeUnexpectedToken, "expected constraint name but found %s", tokOrEOF(name))
		}
		clause.Constraint = unquote(name)
		rest = after2
	}

	rest, err = expectToken(rest, "DO")
	if err != nil {
		return nil, "", err
	}
	tok, rest := NextToken(rest)
	switch tok {
	case "NOTHING":
		return clause, rest, nil
	case "UPDATE":
		rest, err = expectToken(rest, "SET")
		if err != nil {
			return nil, "", err
		}
		body, after := ExtractUntil(rest, conflictSetTerminators)
		assignments, err := parseAssignments(body)
		if err != nil {
			return nil, "", err
		}
		clause.DoUpdate = true
		clause.Assignments = assignments
		rest = after

		if StartsWith(rest, "WHERE") {
			_, rest = NextToken(rest)
			seg, after := ExtractUntil(rest, map[string]bool{"RETURNING": true})
			if strings.TrimSpace(seg) == "" {
				return nil, "", parseErrorf(ErrCodeMissingKeyword, "expected condition after WHERE")
			}
			clause.Where = newFilter(seg)
			rest = after
		}
		return clause, rest, nil
	default:
		return nil, "", parseErrorf(ErrCodeMissingKeyword, "expected NOTHING or UPDATE after DO, found %s", tokOrEOF(tok))
	}
}
