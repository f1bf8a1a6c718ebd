// pkg/model/kind.go
package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies the record category of an input file. It selects the
// cleaning rule-set and the destination schema for the rest of the pipeline.
type Kind string

const (
	KindUnknown Kind = "unknown"
	KindCompany Kind = "companies"
	KindPolicy  Kind = "policies"
)

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// Known reports whether the kind is one the pipeline can process.
func (k Kind) Known() bool {
	return k == KindCompany || k == KindPolicy
}

// DetectKind infers the record kind from a file path, matching the
// "companies" / "policies" naming convention of the input files.
func DetectKind(path string) Kind {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(name, "companies"):
		return KindCompany
	case strings.Contains(name, "policies"):
		return KindPolicy
	default:
		return KindUnknown
	}
}

// ParseKind converts a user-supplied kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "company", "companies":
		return KindCompany, nil
	case "policy", "policies":
		return KindPolicy, nil
	default:
		return KindUnknown, fmt.Errorf("unknown record kind: %q", s)
	}
}
