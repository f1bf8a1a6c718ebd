// pkg/cleaner/rules.go
package cleaner

import (
	"regexp"
	"strings"
	"time"

	"github.com/DanCorvesor/environ-policies/pkg/model"
	"github.com/DanCorvesor/environ-policies/pkg/schema"
)

var (
	htmlTagPattern = regexp.MustCompile(`<[^<>]*>`)
	nbspPattern    = regexp.MustCompile(`&nbsp;`)
)

// cellOp pairs a cleaning operation with whether it is a review flag rather
// than a value change.
type cellOp struct {
	model.CleaningOperation
	flagged bool
}

// cleanCell applies the rule for the field's role to one raw cell. The
// returned value uses the cleaned representation: string, []string,
// *time.Time or nil.
func (c *Cleaner) cleanCell(raw string, field schema.Field, rowID string, rowIdx int, kind model.Kind) (interface{}, []cellOp) {
	switch field.Role {
	case schema.RoleIdentifier:
		// Emptiness was already handled by the row-drop check.
		return trimCell(raw), nil
	case schema.RoleText:
		return c.cleanText(raw, field, rowID, rowIdx, kind)
	case schema.RoleMultiValue:
		return c.splitList(raw), nil
	case schema.RoleDate, schema.RoleTimestamp:
		return c.cleanTime(raw, field, rowID, rowIdx, kind)
	case schema.RoleCategorical:
		return c.cleanCategorical(raw, field, rowID, rowIdx, kind)
	default:
		return trimCell(raw), nil
	}
}

// cleanText whitespace-normalizes a free-text cell; empty becomes null.
func (c *Cleaner) cleanText(raw string, field schema.Field, rowID string, rowIdx int, kind model.Kind) (interface{}, []cellOp) {
	value := raw
	if field.StripHTML {
		value = htmlTagPattern.ReplaceAllString(value, "")
		value = nbspPattern.ReplaceAllString(value, " ")
	}
	value = normalizeWhitespace(value)
	if value == "" {
		return nil, nil
	}

	var ops []cellOp
	if field.URL && !isHTTPURL(value) {
		ops = append(ops, cellOp{
			CleaningOperation: model.CleaningOperation{
				Kind:          kind,
				ColumnName:    field.Name,
				RowIdentifier: rowID,
				RowIndex:      rowIdx,
				OriginalValue: raw,
				NewValue:      value,
				Operation:     "url_review",
				Reason:        "missing_http_scheme",
			},
			flagged: true,
		})
	}
	return value, ops
}

// splitList parses a multi-value cell into an ordered sequence of trimmed,
// non-empty strings. Both bracketed list literals ("['A', 'B']") and
// delimiter-separated values are accepted; empty input yields an empty
// sequence, never null.
func (c *Cleaner) splitList(raw string) []string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return []string{}
	}

	var parts []string
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		parts = splitQuotedList(trimmed[1 : len(trimmed)-1])
	} else {
		parts = strings.Split(trimmed, c.listDelimiter)
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), `'"`)
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitQuotedList splits a bracket literal's interior on commas. Commas
// inside a single- or double-quoted element do not split.
func splitQuotedList(s string) []string {
	var parts []string
	var cur strings.Builder
	var quote rune
	for _, r := range s {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
			cur.WriteRune(r)
		case r == ',':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(parts, cur.String())
}

// cleanTime parses a date or timestamp cell against the field's accepted
// layouts in order; an unparseable value degrades to null and is recorded.
func (c *Cleaner) cleanTime(raw string, field schema.Field, rowID string, rowIdx int, kind model.Kind) (interface{}, []cellOp) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	for _, layout := range field.Formats {
		if t, err := time.Parse(layout, value); err == nil {
			if field.Role == schema.RoleTimestamp {
				t = t.UTC()
			}
			return &t, nil
		}
	}

	return nil, []cellOp{{
		CleaningOperation: model.CleaningOperation{
			Kind:          kind,
			ColumnName:    field.Name,
			RowIdentifier: rowID,
			RowIndex:      rowIdx,
			OriginalValue: raw,
			NewValue:      "",
			Operation:     "date_coercion",
			Reason:        "unparseable_date",
		},
	}}
}

// cleanCategorical matches a cell case-insensitively against the allowed
// set. Matches are canonicalized; mismatches are preserved as-is and flagged
// for downstream review, since validation is the hard gate.
func (c *Cleaner) cleanCategorical(raw string, field schema.Field, rowID string, rowIdx int, kind model.Kind) (interface{}, []cellOp) {
	value := normalizeWhitespace(raw)
	if value == "" {
		return nil, nil
	}

	for _, allowed := range field.Allowed {
		if strings.EqualFold(value, allowed) {
			return allowed, nil
		}
	}

	return value, []cellOp{{
		CleaningOperation: model.CleaningOperation{
			Kind:          kind,
			ColumnName:    field.Name,
			RowIdentifier: rowID,
			RowIndex:      rowIdx,
			OriginalValue: raw,
			NewValue:      value,
			Operation:     "categorical_review",
			Reason:        "value_not_in_allowed_set",
		},
		flagged: true,
	}}
}

func trimCell(s string) string {
	return strings.TrimSpace(s)
}

// normalizeWhitespace collapses internal whitespace runs and trims the ends.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
