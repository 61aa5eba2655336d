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

// matchInsert computes an INSERT's result shape: no result without
// RETURNING, otherwise the requested subset of the target table's
// shape. The row source itself contributes nothing to the output.
func matchInsert(stmt *InsertStmt, schema *Schema) (*MatchResult, *MatchError) {
	table, err := resolveTable(schema, stmt.Table)
	if err != nil {
		return nil, err
	}
	return matchReturning(table, stmt.Table.Table, stmt.Returning), nil
}
