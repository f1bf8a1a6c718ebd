// pkg/validator/validator.go
package validator

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/DanCorvesor/environ-policies/pkg/model"
	"github.com/DanCorvesor/environ-policies/pkg/schema"
)

// Validator is the hard accept/reject gate: it maps each cleaned row into a
// typed record or a failure descriptor. Rows are evaluated independently and
// in order; one row's failure never prevents evaluation of the rest.
type Validator struct {
	logger *zap.Logger
}

// NewValidator creates a Validator.
func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{logger: logger.Named("validator")}
}

// Validate evaluates every row of the cleaned table. Duplicate primary keys
// within the batch fail for all but the first occurrence, since the
// destination table enforces uniqueness.
func (v *Validator) Validate(table *model.CleanedTable) ([]model.ValidationOutcome, error) {
	sch, err := schema.ForKind(table.Kind)
	if err != nil {
		return nil, err
	}

	outcomes := make([]model.ValidationOutcome, 0, len(table.Rows))
	seen := make(map[string]struct{}, len(table.Rows))

	for i, row := range table.Rows {
		record, failure := v.validateRow(row, sch, i)
		if failure == nil {
			key := record.Key()
			if _, dup := seen[key]; dup {
				failure = &model.ValidationFailure{
					RowIndex: i,
					Field:    sch.PrimaryKey().Name,
					Reason:   fmt.Sprintf("duplicate primary key %q", key),
				}
				record = nil
			} else {
				seen[key] = struct{}{}
			}
		}
		outcomes = append(outcomes, model.ValidationOutcome{RowIndex: i, Record: record, Failure: failure})
	}

	valid := 0
	for _, o := range outcomes {
		if o.Valid() {
			valid++
		}
	}
	v.logger.Info("Validated table",
		zap.String("kind", table.Kind.String()),
		zap.Int("rows", len(outcomes)),
		zap.Int("valid", valid),
		zap.Int("invalid", len(outcomes)-valid))

	return outcomes, nil
}

func (v *Validator) validateRow(row map[string]interface{}, sch *schema.Schema, idx int) (model.Record, *model.ValidationFailure) {
	switch sch.Kind {
	case model.KindCompany:
		return validateCompany(row, idx)
	case model.KindPolicy:
		return validatePolicy(row, sch, idx)
	default:
		return nil, &model.ValidationFailure{RowIndex: idx, Reason: fmt.Sprintf("no validator for kind %q", sch.Kind)}
	}
}

func validateCompany(row map[string]interface{}, idx int) (model.Record, *model.ValidationFailure) {
	idText, _ := stringCell(row["id"])
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil || id <= 0 {
		return nil, fail(idx, "id", fmt.Sprintf("identifier %q is not a positive integer", idText))
	}

	name, ok := requiredText(row, "name")
	if !ok {
		return nil, fail(idx, "name", "required field is missing")
	}
	jurisdiction, ok := requiredText(row, "operating_jurisdiction")
	if !ok {
		return nil, fail(idx, "operating_jurisdiction", "required field is missing")
	}
	sector, ok := requiredText(row, "sector")
	if !ok {
		return nil, fail(idx, "sector", "required field is missing")
	}

	return &model.Company{
		ID:                    id,
		Name:                  name,
		OperatingJurisdiction: jurisdiction,
		LastLogin:             timeCell(row["last_login"]),
		Sector:                sector,
	}, nil
}

func validatePolicy(row map[string]interface{}, sch *schema.Schema, idx int) (model.Record, *model.ValidationFailure) {
	id, _ := stringCell(row["id"])
	if id == "" {
		return nil, fail(idx, "id", "identifier must be a non-empty string")
	}

	name, ok := requiredText(row, "name")
	if !ok {
		return nil, fail(idx, "name", "required field is missing")
	}
	geography, ok := requiredText(row, "geography")
	if !ok {
		return nil, fail(idx, "geography", "required field is missing")
	}

	status := optionalText(row["status"])
	if status != nil {
		field, _ := sch.FieldByHeader("status")
		if !inAllowedSet(*status, field.Allowed) {
			return nil, fail(idx, "status", fmt.Sprintf("status %q is not in the allowed set", *status))
		}
	}

	return &model.Policy{
		ID:            id,
		Name:          name,
		PublishedDate: timeCell(row["published_date"]),
		Description:   optionalText(row["description"]),
		Geography:     geography,
		SourceURL:     optionalText(row["source_url"]),
		Topics:        listCell(row["topics"]),
		Sectors:       listCell(row["sectors"]),
		Status:        status,
		UpdatedDate:   timeCell(row["updated_date"]),
	}, nil
}

func fail(idx int, field, reason string) *model.ValidationFailure {
	return &model.ValidationFailure{RowIndex: idx, Field: field, Reason: reason}
}

func stringCell(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func requiredText(row map[string]interface{}, field string) (string, bool) {
	s, ok := stringCell(row[field])
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func optionalText(v interface{}) *string {
	if s, ok := v.(string); ok && s != "" {
		return &s
	}
	return nil
}

func timeCell(v interface{}) *time.Time {
	if t, ok := v.(*time.Time); ok {
		return t
	}
	return nil
}

// listCell returns the cell's sequence, or an empty one: multi-value fields
// are never null.
func listCell(v interface{}) []string {
	if l, ok := v.([]string); ok {
		return l
	}
	return []string{}
}

func inAllowedSet(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
