// pkg/model/table.go
package model

// RawTable holds a delimited file's contents exactly as read: header names
// verbatim, every cell an untyped string, column order preserved. It is
// produced by the loader and never mutated afterwards.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// ColumnIndex returns the position of a column in the header, or -1.
func (t *RawTable) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// CleanedTable is a RawTable after per-kind cleaning. Cells carry their
// coerced representation: string for text, []string for multi-value columns,
// *time.Time for dates and timestamps, nil for null. Every column of the
// target schema is present in Columns, in schema order.
type CleanedTable struct {
	Kind    Kind
	Columns []string
	Rows    []map[string]interface{}
}

// Len returns the number of surviving rows.
func (t *CleanedTable) Len() int {
	return len(t.Rows)
}
