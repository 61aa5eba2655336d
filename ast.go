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
Abstract Syntax Tree (AST) node types.

Every parsed statement is a tree of the structs below. All statement
types implement the Statement interface; statementNode() is a marker
method with no behavior, a pattern borrowed from go/ast that gives
compile-time exhaustiveness to the type switches in the matcher and
validator.

Statement hierarchy:

	Statement (interface)
	├── SelectStmt   (CTEs, joins, derived tables, set operations)
	├── InsertStmt   (VALUES or SELECT source, ON CONFLICT)
	├── UpdateStmt   (SET list, FROM/JOIN, OLD/NEW RETURNING)
	└── DeleteStmt   (USING, RETURNING)

Nodes are never mutated after the parser returns them; the matcher and
validator treat the whole tree as read-only.
*/
package sqlens

// Statement is a parsed SQL statement node.
type Statement interface {
	statementNode()
	// Kind reports which of the four statement grammars produced
	// this node.
	Kind() StatementKind
}

// StatementKind identifies one of the four supported statement
// grammars. KindUnknown means the leading keyword matched none of
// them.
type StatementKind int

const (
	KindUnknown StatementKind = iota
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
)

// String returns the SQL keyword for the statement kind.
func (k StatementKind) String() string {
	switch k {
	case KindSelect:
		return "SELECT"
	case KindInsert:
		return "INSERT"
	case KindUpdate:
		return "UPDATE"
	case KindDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// TableSource is anything that can appear as a FROM/JOIN/USING source:
// a named table (or CTE reference) or an inline derived table.
type TableSource interface {
	tableSource()
	// SourceAlias is the name the source is known by in the
	// resolution context.
	SourceAlias() string
}

// TableRef names a table, optionally schema-qualified, with the alias
// it is known by. When the statement gives no alias the parser fills
// Alias with the table name itself. A TableRef whose name matches a
// CTE defined by the statement resolves to that CTE, not to a schema
// table.
type TableRef struct {
	Schema string // empty means the schema's default
	Table  string
	Alias  string
}

func (TableRef) tableSource()          {}
func (t TableRef) SourceAlias() string { return t.Alias }

// DerivedTable is an inline subquery used as a FROM or JOIN source.
// The alias is mandatory.
type DerivedTable struct {
	Subquery *SelectStmt
	Alias    string
}

func (DerivedTable) tableSource()          {}
func (d DerivedTable) SourceAlias() string { return d.Alias }

// CTE is one WITH-clause definition: a named subquery visible to the
// rest of the statement (and to later CTEs in the same list).
type CTE struct {
	Name     string
	Subquery *SelectStmt
}

// ColumnRef is a reference to one output column or one column mention.
// The concrete types cover the variants the grammar distinguishes.
type ColumnRef interface {
	columnRef()
}

// UnboundColumn is a bare column name with no qualifier. It resolves
// against the statement's context: the first source (FROM before
// JOINs, left to right) that defines the column wins.
type UnboundColumn struct {
	Column string
	Alias  string // explicit AS alias, or empty
}

// TableColumn is a qualified reference: alias.column, or
// schema.table.column which bypasses the context and resolves straight
// against the schema.
type TableColumn struct {
	Schema string
	Table  string // table name or alias
	Column string
	Alias  string
}

// TableWildcard is table.* or schema.table.*.
type TableWildcard struct {
	Schema string
	Table  string
}

// AllColumns is the bare * select item: every column of every source
// in context, in context order.
type AllColumns struct{}

// AggregateExpr is an aggregate call in a column list:
// FUNC(column) or COUNT(*). Func is the canonical uppercase name.
type AggregateExpr struct {
	Func  string
	Arg   ColumnRef // nil when Star is set
	Star  bool
	Alias string
}

// SubqueryExpr is a scalar subquery used as a select item, with an
// optional ::type cast and alias.
type SubqueryExpr struct {
	Subquery *SelectStmt
	Cast     string // normalized cast target, empty if none
	Alias    string
}

// ComplexExpr covers column expressions the grammar recognizes but
// does not fully model: JSON path operators (-> ->> #> #>>) and ::type
// casts. The column references feeding the expression are extracted
// for resolution; the expression text itself is kept raw.
type ComplexExpr struct {
	Raw   string
	Refs  []ColumnRef // base columns mentioned by the expression
	Cast  string      // normalized cast target, empty if none
	Alias string
}

func (UnboundColumn) columnRef() {}
func (TableColumn) columnRef()   {}
func (TableWildcard) columnRef() {}
func (AllColumns) columnRef()    {}
func (AggregateExpr) columnRef() {}
func (SubqueryExpr) columnRef()  {}
func (ComplexExpr) columnRef()   {}

// JoinType is the join flavor keyword.
type JoinType string

const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
	RightJoin JoinType = "RIGHT"
	FullJoin  JoinType = "FULL"
	CrossJoin JoinType = "CROSS"
)

// JoinClause is one JOIN step: the joined source and the optional ON
// condition. The condition is not modeled as an expression tree; only
// the column references it mentions are extracted, plus the raw text.
type JoinClause struct {
	Type   JoinType
	Source TableSource
	On     *FilterClause // nil for CROSS JOIN or a bare JOIN without ON
}

// FilterClause carries a condition the grammar scans but does not
// structure: WHERE, HAVING and JOIN ON bodies. Raw is the normalized
// condition text; Columns are the column references found in it.
type FilterClause struct {
	Raw     string
	Columns []ColumnRef
}

// OrderByItem is one ORDER BY entry. Desc defaults to false (ASC).
type OrderByItem struct {
	Column ColumnRef
	Desc   bool
}

// SetOp is a set operation joining two SELECTs.
type SetOp string

const (
	OpUnion        SetOp = "UNION"
	OpUnionAll     SetOp = "UNION ALL"
	OpIntersect    SetOp = "INTERSECT"
	OpIntersectAll SetOp = "INTERSECT ALL"
	OpExcept       SetOp = "EXCEPT"
	OpExceptAll    SetOp = "EXCEPT ALL"
)

// CompoundClause chains another full SELECT onto a statement with a
// set operation. Chains are right-associated: the Right side owns any
// further compounds.
type CompoundClause struct {
	Op    SetOp
	Right *SelectStmt
}

// SelectStmt is a parsed SELECT statement.
type SelectStmt struct {
	CTEs     []CTE
	Distinct bool
	Items    []ColumnRef
	From     TableSource
	Joins    []JoinClause
	Where    *FilterClause
	GroupBy  []ColumnRef
	Having   *FilterClause
	OrderBy  []OrderByItem
	Limit    *int64
	Offset   *int64
	Compound *CompoundClause
}

func (*SelectStmt) statementNode()      {}
func (*SelectStmt) Kind() StatementKind { return KindSelect }

// ValueKind classifies a literal or expression in a VALUES row or a
// SET assignment.
type ValueKind int

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueString // Raw holds the text without quotes
	ValueNumber
	ValueParam    // $n or :name placeholder
	ValueDefault  // the DEFAULT keyword
	ValueExcluded // EXCLUDED.column inside ON CONFLICT DO UPDATE; Raw is the column
	ValueExpr     // anything else, kept as raw text
)

// Value is one literal/expression slot.
type Value struct {
	Kind ValueKind
	Raw  string
	Bool bool // meaningful only for ValueBool
}

// Assignment is one column = value pair in a SET list.
type Assignment struct {
	Column string
	Value  Value
}

// OnConflictClause is INSERT's ON CONFLICT suffix. Either Columns or
// Constraint names the conflict target (both may be empty for a bare
// ON CONFLICT). DoUpdate distinguishes DO UPDATE SET from DO NOTHING.
type OnConflictClause struct {
	Columns     []string
	Constraint  string
	DoUpdate    bool
	Assignments []Assignment
	Where       *FilterClause
}

// RowImage is the OLD/NEW qualifier on an UPDATE RETURNING item.
type RowImage int

const (
	ImageNone RowImage = iota
	ImageOld
	ImageNew
)

// ReturningItem is one RETURNING entry: a column, optionally qualified
// with OLD or NEW, or a qualified wildcard (OLD.*, NEW.*).
type ReturningItem struct {
	Image  RowImage
	Star   bool // OLD.* / NEW.*
	Column string
}

// ReturningClause is the RETURNING suffix of a DML statement.
// Star covers the bare "*" form; otherwise Items lists the entries.
type ReturningClause struct {
	Star  bool
	Items []ReturningItem
}

// InsertStmt is a parsed INSERT statement. Exactly one of Rows or
// Select is set: the row source is either literal VALUES or a query.
type InsertStmt struct {
	Table      TableRef
	Columns    []string
	Rows       [][]Value
	Select     *SelectStmt
	OnConflict *OnConflictClause
	Returning  *ReturningClause
}

func (*InsertStmt) statementNode()      {}
func (*InsertStmt) Kind() StatementKind { return KindInsert }

// UpdateStmt is a parsed UPDATE statement. From/FromJoins model the
// optional multi-table FROM source.
type UpdateStmt struct {
	CTEs        []CTE
	Table       TableRef
	Assignments []Assignment
	From        TableSource
	FromJoins   []JoinClause
	Where       *FilterClause
	Returning   *ReturningClause
}

func (*UpdateStmt) statementNode()      {}
func (*UpdateStmt) Kind() StatementKind { return KindUpdate }

// DeleteStmt is a parsed DELETE statement.
type DeleteStmt struct {
	Table     TableRef
	Using     []TableSource
	Where     *FilterClause
	Returning *ReturningClause
}

func (*DeleteStmt) statementNode()      {}
func (*DeleteStmt) Kind() StatementKind { return KindDelete }
