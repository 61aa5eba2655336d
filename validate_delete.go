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

// validateDelete strictly checks a DELETE: the target table exists,
// USING sources resolve, WHERE sees the target plus all USING sources,
// and RETURNING items reference real columns.
func validateDelete(stmt *DeleteStmt, schema *Schema, opts *Options) *ValidateError {
	table, verr := strictResolveTable(schema, stmt.Table)
	if verr != nil {
		return verr
	}

	sc := newScope(schema, nil)
	sc.entries = append(sc.entries, scopeEntry{alias: stmt.Table.Alias, shape: table})
	for _, src := range stmt.Using {
		if err := addSourceStrict(sc, src, opts); err != nil {
			return err
		}
	}

	if opts.CheckWhere {
		if err := checkFilter(sc, stmt.Where); err != nil {
			return err
		}
	}

	if opts.CheckReturning {
		if err := checkReturningColumns(table, stmt.Table.Table, stmt.Returning); err != nil {
			return err
		}
	}
	return nil
}
