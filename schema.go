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
Schema model: the declared relational contract statements are analyzed
against.

A Schema holds named schemas, each holding tables, each holding columns
with their value types, plus optional relation metadata (declared
foreign-key edges). It is authored once by the caller - either through
the builder API or from the JSON document format - and treated as
immutable afterwards: the matcher and validator only read it.

Schema names, table names within a schema, and column names within a
table are unique; the builder rejects duplicates. The default schema is
the explicitly declared one, or the first schema added through the
builder. The JSON loader cannot observe declaration order, so it only
infers a default when exactly one schema is declared.
*/
package sqlens

import (
	"encoding/json"
	"fmt"
)

// ValueType is the declared type of a column, and the type of a result
// column in a computed row shape. Authors may use any names they like;
// the canonical ones below are what casts and aggregates produce.
type ValueType string

const (
	TypeNumber  ValueType = "number"
	TypeString  ValueType = "string"
	TypeBoolean ValueType = "boolean"
	TypeJSON    ValueType = "json"
)

// numericTypes are the value types an aggregate like SUM or AVG
// accepts. Authors writing SQL-flavored type names get the same
// treatment as the canonical "number".
var numericTypes = map[ValueType]bool{
	TypeNumber: true, "int": true, "integer": true, "bigint": true,
	"smallint": true, "serial": true, "bigserial": true,
	"float": true, "double": true, "real": true,
	"decimal": true, "numeric": true,
}

// IsNumeric reports whether t is acceptable as a SUM/AVG argument.
// Union types (see RowShape) are numeric when every member is.
func (t ValueType) IsNumeric() bool {
	for _, m := range splitTypeSet(t) {
		if !numericTypes[m] {
			return false
		}
	}
	return true
}

// RowShape maps output column names to their value types. It is the
// result of matching a statement, and also how the schema's tables are
// exposed to the resolution context.
type RowShape map[string]ValueType

// clone returns an independent copy of the shape.
func (r RowShape) clone() RowShape {
	out := make(RowShape, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Cardinality describes a declared relation between two columns.
type Cardinality string

const (
	OneToOne   Cardinality = "one-to-one"
	OneToMany  Cardinality = "one-to-many"
	ManyToOne  Cardinality = "many-to-one"
	ManyToMany Cardinality = "many-to-many"
)

// ColumnPath fully qualifies one column of the model.
type ColumnPath struct {
	Schema string
	Table  string
	Column string
}

// Relation is one declared edge between two columns, typically a
// foreign key.
type Relation struct {
	Name        string
	From        ColumnPath
	To          ColumnPath
	Cardinality Cardinality
}

// Schema is the full declared model. Construct one with NewSchema and
// the Add* methods, or load the JSON document format with
// ParseSchemaJSON. A Schema must not be modified once handed to Match
// or Validate; there is no internal locking because none is needed for
// read-only use.
type Schema struct {
	defaultSchema string
	order         []string
	schemas       map[string]map[string]RowShape
	relations     map[string]Relation
}

// NewSchema returns an empty model.
func NewSchema() *Schema {
	return &Schema{
		schemas:   make(map[string]map[string]RowShape),
		relations: make(map[string]Relation),
	}
}

// AddSchema declares a schema. The first schema added becomes the
// default unless SetDefaultSchema overrides it.
func (s *Schema) AddSchema(name string) error {
	if name == "" {
		return fmt.Errorf("schema name must not be empty")
	}
	if _, ok := s.schemas[name]; ok {
		return fmt.Errorf("schema %q already declared", name)
	}
	s.schemas[name] = make(map[string]RowShape)
	s.order = append(s.order, name)
	if s.defaultSchema == "" {
		s.defaultSchema = name
	}
	return nil
}

// SetDefaultSchema picks the schema unqualified table names resolve
// against.
func (s *Schema) SetDefaultSchema(name string) error {
	if _, ok := s.schemas[name]; !ok {
		return fmt.Errorf("schema %q not declared", name)
	}
	s.defaultSchema = name
	return nil
}

// DefaultSchema returns the schema unqualified table names resolve
// against.
func (s *Schema) DefaultSchema() string { return s.defaultSchema }

// AddTable declares a table with its columns. The columns map is
// copied; later changes to the argument do not affect the schema.
func (s *Schema) AddTable(schemaName, table string, columns RowShape) error {
	tables, ok := s.schemas[schemaName]
	if !ok {
		return fmt.Errorf("schema %q not declared", schemaName)
	}
	if _, ok := tables[table]; ok {
		return fmt.Errorf("table %q already declared in schema %q", table, schemaName)
	}
	tables[table] = columns.clone()
	return nil
}

// AddRelation declares a named relation between two columns. Both
// endpoints must already exist.
func (s *Schema) AddRelation(r Relation) error {
	if r.Name == "" {
		return fmt.Errorf("relation name must not be empty")
	}
	if _, ok := s.relations[r.Name]; ok {
		return fmt.Errorf("relation %q already declared", r.Name)
	}
	for _, p := range []ColumnPath{r.From, r.To} {
		if err := s.verifyPath(p); err != nil {
			return fmt.Errorf("relation %q: %w", r.Name, err)
		}
	}
	s.relations[r.Name] = r
	return nil
}

func (s *Schema) verifyPath(p ColumnPath) error {
	shape, ok := s.Table(p.Schema, p.Table)
	if !ok {
		return fmt.Errorf("table %q not found in schema %q", p.Table, s.resolveSchemaName(p.Schema))
	}
	if _, ok := shape[p.Column]; !ok {
		return fmt.Errorf("column %q not found in table %q", p.Column, p.Table)
	}
	return nil
}

// resolveSchemaName maps the empty name to the default schema.
func (s *Schema) resolveSchemaName(name string) string {
	if name == "" {
		return s.defaultSchema
	}
	return name
}

// HasSchema reports whether the named schema is declared.
func (s *Schema) HasSchema(name string) bool {
	_, ok := s.schemas[s.resolveSchemaName(name)]
	return ok
}

// Table returns the row shape of a table. An empty schema name means
// the default schema. The returned shape is a copy and safe to hold.
func (s *Schema) Table(schemaName, table string) (RowShape, bool) {
	tables, ok := s.schemas[s.resolveSchemaName(schemaName)]
	if !ok {
		return nil, false
	}
	shape, ok := tables[table]
	if !ok {
		return nil, false
	}
	return shape.clone(), true
}

// Tables lists the table names of a schema. An empty schema name means
// the default schema.
func (s *Schema) Tables(schemaName string) []string {
	tables, ok := s.schemas[s.resolveSchemaName(schemaName)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(tables))
	for name := range tables {
		out = append(out, name)
	}
	return out
}

// SchemaNames lists the declared schemas in declaration order (JSON
// loaded schemas are in document-map order, which is unspecified).
func (s *Schema) SchemaNames() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Relation returns a declared relation by name.
func (s *Schema) Relation(name string) (Relation, bool) {
	r, ok := s.relations[name]
	return r, ok
}

// RelationsFrom lists the relations whose From endpoint sits in the
// given table. An empty schema name means the default schema.
func (s *Schema) RelationsFrom(schemaName, table string) []Relation {
	schemaName = s.resolveSchemaName(schemaName)
	var out []Relation
	for _, r := range s.relations {
		if s.resolveSchemaName(r.From.Schema) == schemaName && r.From.Table == table {
			out = append(out, r)
		}
	}
	return out
}

// schemaDocument is the authored JSON format:
//
//	{
//	  "defaultSchema": "public",
//	  "schemas": {
//	    "public": {
//	      "users": {"id": "number", "name": "string"}
//	    }
//	  },
//	  "relations": {
//	    "user_posts": {
//	      "from": {"table": "posts", "column": "user_id"},
//	      "to":   {"table": "users", "column": "id"},
//	      "cardinality": "many-to-one"
//	    }
//	  }
//	}
type schemaDocument struct {
	DefaultSchema string                                     `json:"defaultSchema"`
	Schemas       map[string]map[string]map[string]ValueType `json:"schemas"`
	Relations     map[string]relationDocument                `json:"relations"`
}

type relationDocument struct {
	From        columnPathDocument `json:"from"`
	To          columnPathDocument `json:"to"`
	Cardinality Cardinality        `json:"cardinality"`
}

type columnPathDocument struct {
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Column string `json:"column"`
}

// ParseSchemaJSON loads the authored schema document. JSON objects
// carry no declaration order, so when defaultSchema is absent the
// document must declare exactly one schema.
func ParseSchemaJSON(data []byte) (*Schema, error) {
	var doc schemaDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("schema document: %w", err)
	}
	if len(doc.Schemas) == 0 {
		return nil, fmt.Errorf("schema document declares no schemas")
	}
	if doc.DefaultSchema == "" && len(doc.Schemas) > 1 {
		return nil, fmt.Errorf("schema document declares %d schemas but no defaultSchema", len(doc.Schemas))
	}

	s := NewSchema()
	for name, tables := range doc.Schemas {
		if err := s.AddSchema(name); err != nil {
			return nil, err
		}
		for table, cols := range tables {
			if err := s.AddTable(name, table, RowShape(cols)); err != nil {
				return nil, err
			}
		}
	}
	if doc.DefaultSchema != "" {
		if err := s.SetDefaultSchema(doc.DefaultSchema); err != nil {
			return nil, err
		}
	}
	for name, rel := range doc.Relations {
		card := rel.Cardinality
		switch card {
		case OneToOne, OneToMany, ManyToOne, ManyToMany:
		case "":
			card = ManyToOne
		default:
			return nil, fmt.Errorf("relation %q: unknown cardinality %q", name, card)
		}
		err := s.AddRelation(Relation{
			Name:        name,
			From:        ColumnPath(rel.From),
			To:          ColumnPath(rel.To),
			Cardinality: card,
		})
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
