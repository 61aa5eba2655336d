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
DELETE grammar:

	DELETE FROM [schema.]table [AS alias]
	[USING source [, source ...]]
	[WHERE condition]
	[RETURNING * | col [, col ...]]

USING lists extra sources for multi-table deletes; their columns are
visible to the WHERE condition.
*/
package sqlens

import "strings"

// parseDelete parses a full DELETE statement.
func parseDelete(text string) (*DeleteStmt, string, *ParseError) {
	rest, err := expectToken(text, "DELETE")
	if err != nil {
		return nil, "", err
	}
	rest, err = expectToken(rest, "FROM")
	if err != nil {
		return nil, "", err
	}

	stmt := &DeleteStmt{}
	table, rest, err := parseTableRef(rest)
	if err != nil {
		return nil, "", err
	}
	stmt.Table = table

	if StartsWith(rest, "USING") {
		_, rest = NextToken(rest)
		body, after := ExtractUntil(rest, sourceListTerminators)
		if strings.TrimSpace(body) == "" {
			return nil, "", parseErrorf(ErrCodeMalformedList, "expected table list after USING")
		}
		for _, seg := range SplitTopLevel(body, ",") {
			src, segRest, err := parseTableSource(seg)
			if err != nil {
				return nil, "", err
			}
			if segRest != "" {
				return nil, "", parseErrorf(ErrCodeTrailingInput, "unexpected input in USING source: %q", segRest)
			}
			stmt.Using = append(stmt.Using, src)
		}
		rest = after
	}

	if StartsWith(rest, "WHERE") {
		_, rest = NextToken(rest)
		seg, after := ExtractUntil(rest, map[string]bool{"RETURNING": true})
		if strings.TrimSpace(seg) == "" {
			return nil, "", parseErrorf(ErrCodeMissingKeyword, "expected condition after WHERE")
		}
		stmt.Where = newFilter(seg)
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
