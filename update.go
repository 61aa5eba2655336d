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
UPDATE grammar:

	[WITH name AS ( select ) [, ...]]
	UPDATE [schema.]table [AS alias]
	SET col = val [, col = val ...]
	[FROM source [joins...]]
	[WHERE condition]
	[RETURNING * | item [, item ...]]

RETURNING items may carry OLD. or NEW. qualifiers (pre-/post-image
references), including OLD.* and NEW.*; this is the one grammar that
accepts them.
*/
package sqlens

import "strings"

// parseUpdate parses a full UPDATE statement.
func parseUpdate(text string) (*UpdateStmt, string, *ParseError) {
	stmt := &UpdateStmt{}
	rest := text

	if StartsWith(rest, "WITH") {
		ctes, after, err := parseCTEs(rest)
		if err != nil {
			return nil, "", err
		}
		stmt.CTEs = ctes
		rest = after
	}

	rest, err := expectToken(rest, "UPDATE")
	if err != nil {
		return nil, "", err
	}

	table, rest, err := parseTableRef(rest)
	if err != nil {
		return nil, "", err
	}
	stmt.Table = table

	rest, err = expectToken(rest, "SET")
	if err != nil {
		return nil, "", err
	}
	body, rest := ExtractUntil(rest, updateSetTerminators)
	assignments, err2 := parseAssignments(body)
	if err2 != nil {
		return nil, "", err2
	}
	stmt.Assignments = assignments

	if StartsWith(rest, "FROM") {
		_, rest = NextToken(rest)
		src, after, err := parseTableSource(rest)
		if err != nil {
			return nil, "", err
		}
		stmt.From = src
		joins, after, err := parseJoins(after)
		if err != nil {
			return nil, "", err
		}
		stmt.FromJoins = joins
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
		clause, after, err := parseReturning(rest, true)
		if err != nil {
			return nil, "", err
		}
		stmt.Returning = clause
		rest = after
	}

	return stmt, rest, nil
}
