// pkg/model/cleaning.go
package model

// CleaningOperation records a single per-cell cleaning action so that no
// degradation is silently dropped.
type CleaningOperation struct {
	Kind          Kind        // Record kind being cleaned
	ColumnName    string      // Column that was cleaned
	RowIdentifier string      // Identifier value of the row, if known
	RowIndex      int         // Zero-based index in the raw table
	OriginalValue interface{} // Original value (may be nil)
	NewValue      string      // Value after cleaning, rendered as text
	Operation     string      // Type of cleaning performed (e.g. "date_coercion")
	Reason        string      // Reason for cleaning (e.g. "unparseable_date")
}

// CleaningReport summarizes a cleaning pass over one raw table.
type CleaningReport struct {
	Kind         Kind
	RowsIn       int
	RowsOut      int
	RowsDropped  int
	RowsModified int
	Operations   []CleaningOperation
	// Flagged holds operations that did not alter a value but mark it for
	// downstream review, such as a categorical value outside the allowed set.
	Flagged []CleaningOperation
}

// Record appends an operation that modified or nulled a value.
func (r *CleaningReport) Record(op CleaningOperation) {
	r.Operations = append(r.Operations, op)
}

// Flag appends an operation that preserved a value but marks it for review.
func (r *CleaningReport) Flag(op CleaningOperation) {
	r.Flagged = append(r.Flagged, op)
}
