// pkg/model/outcome.go
package model

// ValidationFailure describes why one row was rejected by the validator.
type ValidationFailure struct {
	RowIndex int    // Zero-based index in the cleaned table
	Field    string // Offending field, empty for row-level failures
	Reason   string
}

// ValidationOutcome is the per-row result of validation: either a validated
// record or a failure descriptor, never both.
type ValidationOutcome struct {
	RowIndex int
	Record   Record
	Failure  *ValidationFailure
}

// Valid reports whether the row produced a validated record.
func (o ValidationOutcome) Valid() bool {
	return o.Failure == nil
}

// SplitOutcomes separates outcomes into validated records and failures,
// preserving input order within each slice.
func SplitOutcomes(outcomes []ValidationOutcome) ([]Record, []ValidationFailure) {
	var records []Record
	var failures []ValidationFailure
	for _, o := range outcomes {
		if o.Valid() {
			records = append(records, o.Record)
		} else {
			failures = append(failures, *o.Failure)
		}
	}
	return records, failures
}
