// pkg/schema/schema.go
package schema

import (
	"fmt"
	"time"

	"github.com/DanCorvesor/environ-policies/pkg/model"
)

// Role classifies a column by its cleaning semantics rather than its
// position, so rule dispatch is the same for every kind.
type Role string

const (
	RoleIdentifier  Role = "identifier"
	RoleText        Role = "text"
	RoleMultiValue  Role = "multi_value"
	RoleDate        Role = "date"
	RoleTimestamp   Role = "timestamp"
	RoleCategorical Role = "categorical"
)

// Field describes one column of a kind's destination table.
type Field struct {
	Name       string
	Role       Role
	Required   bool
	PrimaryKey bool
	// IntKey marks an identifier that must validate as a positive integer.
	IntKey bool
	// Aliases lists header names accepted for this field in input files.
	Aliases []string
	// Formats lists accepted input layouts for date/timestamp fields, tried
	// in order; first match wins.
	Formats []string
	// Allowed is the case-insensitive value set for categorical fields.
	Allowed []string
	// StripHTML marks free-text fields whose values may carry markup that
	// must be removed during cleaning.
	StripHTML bool
	// URL marks free-text fields expected to hold an http(s) URL; values
	// without a scheme are flagged for review, not altered.
	URL bool
	// PgType is the destination column type.
	PgType string
}

// Matches reports whether a header name refers to this field.
func (f Field) Matches(header string) bool {
	if header == f.Name {
		return true
	}
	for _, a := range f.Aliases {
		if header == a {
			return true
		}
	}
	return false
}

// Schema is the fixed, externally supplied column contract for one kind.
type Schema struct {
	Kind   model.Kind
	Fields []Field
}

// Columns returns field names in schema order.
func (s *Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Name
	}
	return cols
}

// PrimaryKey returns the primary-key field.
func (s *Schema) PrimaryKey() Field {
	for _, f := range s.Fields {
		if f.PrimaryKey {
			return f
		}
	}
	// Schemas are package constants; a missing key is a programming error.
	panic(fmt.Sprintf("schema %s has no primary key", s.Kind))
}

// FieldByHeader resolves a raw header name to a field, honoring aliases.
func (s *Schema) FieldByHeader(header string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Matches(header) {
			return f, true
		}
	}
	return Field{}, false
}

// Date layouts accepted by the cleaner, in match order. Published dates
// arrive day-first; timestamps arrive as ISO 8601 with optional fractional
// seconds.
var (
	dayFirstDateFormats = []string{"02/01/2006", "02/01/06", "2006-01-02"}
	timestampFormats    = []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

var companySchema = Schema{
	Kind: model.KindCompany,
	Fields: []Field{
		{Name: "id", Role: RoleIdentifier, Required: true, PrimaryKey: true, IntKey: true, Aliases: []string{"company_id"}, PgType: "BIGINT"},
		{Name: "name", Role: RoleText, Required: true, PgType: "TEXT"},
		{Name: "operating_jurisdiction", Role: RoleText, Required: true, PgType: "TEXT"},
		{Name: "last_login", Role: RoleTimestamp, Formats: timestampFormats, PgType: "TIMESTAMP WITH TIME ZONE"},
		{Name: "sector", Role: RoleText, Required: true, PgType: "TEXT"},
	},
}

var policySchema = Schema{
	Kind: model.KindPolicy,
	Fields: []Field{
		{Name: "id", Role: RoleIdentifier, Required: true, PrimaryKey: true, PgType: "TEXT"},
		{Name: "name", Role: RoleText, Required: true, PgType: "TEXT"},
		{Name: "published_date", Role: RoleDate, Formats: dayFirstDateFormats, PgType: "DATE"},
		{Name: "description", Role: RoleText, StripHTML: true, PgType: "TEXT"},
		{Name: "geography", Role: RoleText, Required: true, PgType: "TEXT"},
		{Name: "source_url", Role: RoleText, URL: true, PgType: "TEXT"},
		{Name: "topics", Role: RoleMultiValue, PgType: "TEXT[]"},
		{Name: "sectors", Role: RoleMultiValue, PgType: "TEXT[]"},
		{Name: "status", Role: RoleCategorical, Allowed: []string{"active", "inactive", "draft", "pending"}, PgType: "VARCHAR(50)"},
		{Name: "updated_date", Role: RoleTimestamp, Formats: timestampFormats, PgType: "TIMESTAMP WITH TIME ZONE"},
	},
}

// ForKind returns the schema contract for a kind.
func ForKind(kind model.Kind) (*Schema, error) {
	switch kind {
	case model.KindCompany:
		return &companySchema, nil
	case model.KindPolicy:
		return &policySchema, nil
	default:
		return nil, fmt.Errorf("no schema for kind %q", kind)
	}
}
