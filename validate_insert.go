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

// validateInsert strictly checks an INSERT: the target table exists,
// listed columns exist, every VALUES row matches the explicit column
// list's arity, a SELECT source validates (and matches the arity when
// countable), and ON CONFLICT / RETURNING reference real columns.
func validateInsert(stmt *InsertStmt, schema *Schema, opts *Options) *ValidateError {
	table, verr := strictResolveTable(schema, stmt.Table)
	if verr != nil {
		return verr
	}

	for _, col := range stmt.Columns {
		if _, ok := table[col]; !ok {
			return validateErrorf(ErrCodeColumnNotFound,
				"column %q not found in table %q", col, stmt.Table.Table)
		}
	}

	if len(stmt.Columns) > 0 {
		for i, row := range stmt.Rows {
			if len(row) != len(stmt.Columns) {
				return validateErrorf(ErrCodeArityMismatch,
					"INSERT lists %d columns but VALUES row %d has %d values",
					len(stmt.Columns), i+1, len(row))
			}
		}
	}

	if stmt.Select != nil {
		if err := validateSelect(stmt.Select, schema, nil, opts); err != nil {
			return err
		}
		if n, countable := countSelectItems(stmt.Select); countable && len(stmt.Columns) > 0 && n != len(stmt.Columns) {
			return validateErrorf(ErrCodeArityMismatch,
				"INSERT lists %d columns but the SELECT source produces %d", len(stmt.Columns), n)
		}
	}

	if stmt.OnConflict != nil && opts.CheckConflict {
		if err := validateOnConflict(stmt.OnConflict, table, stmt.Table.Table, schema); err != nil {
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

// countSelectItems counts a SELECT's output columns when that is
// knowable without resolution; wildcards make it uncountable.
func countSelectItems(stmt *SelectStmt) (int, bool) {
	n := 0
	for _, item := range stmt.Items {
		switch item.(type) {
		case AllColumns, TableWildcard:
			return 0, false
		default:
			n++
		}
	}
	return n, true
}

// validateOnConflict checks the conflict target columns, the DO UPDATE
// assignment targets, and any EXCLUDED.column references against the
// target table.
func validateOnConflict(clause *OnConflictClause, table RowShape, tableName string, schema *Schema) *ValidateError {
	for _, col := range clause.Columns {
		if _, ok := table[col]; !ok {
			return validateErrorf(ErrCodeConflictTarget,
				"ON CONFLICT target column %q not found in table %q", col, tableName)
		}
	}
	for _, a := range clause.Assignments {
		if _, ok := table[a.Column]; !ok {
			return validateErrorf(ErrCodeColumnNotFound,
				"column %q not found in table %q", a.Column, tableName)
		}
		if a.Value.Kind == ValueExcluded {
			if _, ok := table[a.Value.Raw]; !ok {
				return validateErrorf(ErrCodeColumnNotFound,
					"EXCLUDED column %q not found in table %q", a.Value.Raw, tableName)
			}
		}
	}
	if clause.Where != nil {
		sc := newScope(schema, nil)
		sc.entries = append(sc.entries,
			scopeEntry{alias: tableName, shape: table},
			scopeEntry{alias: "EXCLUDED", shape: table})
		if err := checkFilter(sc, clause.Where); err != nil {
			return err
		}
	}
	return nil
}
