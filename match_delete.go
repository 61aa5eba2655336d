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

// matchDelete computes a DELETE's result shape: no result without
// RETURNING, the full target row shape for RETURNING *, or the
// requested subset. USING sources must resolve but add no output.
func matchDelete(stmt *DeleteStmt, schema *Schema) (*MatchResult, *MatchError) {
	table, err := resolveTable(schema, stmt.Table)
	if err != nil {
		return nil, err
	}

	if len(stmt.Using) > 0 {
		sc := newScope(schema, nil)
		sc.entries = append(sc.entries, scopeEntry{alias: stmt.Table.Alias, shape: table})
		for _, src := range stmt.Using {
			if err := sc.addSource(src); err != nil {
				return nil, err
			}
		}
	}

	return matchReturning(table, stmt.Table.Table, stmt.Returning), nil
}
