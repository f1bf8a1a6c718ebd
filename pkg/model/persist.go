// pkg/model/persist.go
package model

import (
	"fmt"
	"strings"
	"time"
)

// ConflictPolicy governs how a persist call reconciles new rows with an
// existing destination table.
type ConflictPolicy string

const (
	// ConflictReplace removes the table's existing rows and writes the batch
	// in their place, atomically.
	ConflictReplace ConflictPolicy = "replace"
	// ConflictAppend adds rows; a primary-key collision is a per-row
	// conflict, not a batch abort.
	ConflictAppend ConflictPolicy = "append"
	// ConflictFail aborts before writing if the table already holds rows.
	ConflictFail ConflictPolicy = "fail-if-exists"
)

// ParseConflictPolicy converts a user-supplied policy name.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "replace":
		return ConflictReplace, nil
	case "append":
		return ConflictAppend, nil
	case "fail", "fail-if-exists":
		return ConflictFail, nil
	default:
		return "", fmt.Errorf("unknown conflict policy: %q", s)
	}
}

// RowConflict records one row rejected during an append because its primary
// key already exists in the destination table.
type RowConflict struct {
	Key    string
	Reason string
}

// WriteSummary reports the outcome of one persist call.
type WriteSummary struct {
	Table       string
	Policy      ConflictPolicy
	RowsWritten int64
	Conflicts   []RowConflict
	// TableCount is the row count re-read from the table after the write.
	TableCount int64
	Duration   time.Duration
}
