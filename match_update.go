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

// matchUpdate computes an UPDATE's result shape. RETURNING items may
// carry OLD./NEW. qualifiers, keyed as old_<col>/new_<col> but drawn
// from the same target-table shape; both images of one column may
// appear together. The FROM/JOIN sources and CTEs only have to
// resolve - they never contribute output columns.
func matchUpdate(stmt *UpdateStmt, schema *Schema) (*MatchResult, *MatchError) {
	ctes, err := resolveCTEs(stmt.CTEs, schema, nil)
	if err != nil {
		return nil, err
	}
	table, err := resolveTable(schema, stmt.Table)
	if err != nil {
		return nil, err
	}

	if stmt.From != nil {
		sc := newScope(schema, ctes)
		sc.entries = append(sc.entries, scopeEntry{alias: stmt.Table.Alias, shape: table})
		if err := sc.addSource(stmt.From); err != nil {
			return nil, err
		}
		for _, j := range stmt.FromJoins {
			if err := sc.addSource(j.Source); err != nil {
				return nil, err
			}
		}
	}

	return matchReturning(table, stmt.Table.Table, stmt.Returning), nil
}
