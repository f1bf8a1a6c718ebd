// pkg/schema/ddl.go
package schema

import (
	"fmt"
	"strings"
)

// ColumnDefinitions renders the schema's columns as PostgreSQL column
// definitions, in schema order.
func (s *Schema) ColumnDefinitions() []string {
	defs := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		def := fmt.Sprintf("%s %s", f.Name, f.PgType)
		if f.Required {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	return defs
}

// CreateStatement builds a CREATE TABLE IF NOT EXISTS statement for the
// schema's destination table.
func (s *Schema) CreateStatement(pgSchema, table string) string {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s.%s (\n\t%s,\n\tPRIMARY KEY (%s)\n)",
		pgSchema,
		table,
		strings.Join(s.ColumnDefinitions(), ",\n\t"),
		s.PrimaryKey().Name,
	)
}
