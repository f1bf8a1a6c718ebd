// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DanCorvesor/environ-policies/pkg/model"
	"github.com/DanCorvesor/environ-policies/pkg/schema"
)

// ErrMissingColumn indicates a schema-required column is absent from the
// file's header. Missing columns are structural and fatal; bad cells are not.
var ErrMissingColumn = errors.New("required column missing")

// Cleaner applies per-kind normalization and type-coercion rules to a raw
// table. Cleaning is permissive: a bad cell is degraded to null and recorded,
// never raised.
type Cleaner struct {
	logger        *zap.Logger
	listDelimiter string
}

// NewCleaner creates a Cleaner splitting multi-value cells on ";".
func NewCleaner(logger *zap.Logger) *Cleaner {
	return &Cleaner{
		logger:        logger.Named("cleaner"),
		listDelimiter: ";",
	}
}

// WithListDelimiter sets the multi-value delimiter and returns the modified
// cleaner.
func (c *Cleaner) WithListDelimiter(d string) *Cleaner {
	if d != "" {
		c.listDelimiter = d
	}
	return c
}

// Clean produces a cleaned table for the kind plus a report of every row
// dropped and cell degraded. The cleaned table holds every schema column in
// schema order; raw columns outside the schema are discarded.
func (c *Cleaner) Clean(raw *model.RawTable, kind model.Kind) (*model.CleanedTable, *model.CleaningReport, error) {
	sch, err := schema.ForKind(kind)
	if err != nil {
		return nil, nil, err
	}

	indexes, err := c.mapColumns(raw, sch)
	if err != nil {
		return nil, nil, err
	}

	report := &model.CleaningReport{Kind: kind, RowsIn: len(raw.Rows)}
	pk := sch.PrimaryKey()

	rows := make([]map[string]interface{}, 0, len(raw.Rows))
	for i, rawRow := range raw.Rows {
		id := trimCell(cellAt(rawRow, indexes[pk.Name]))
		if id == "" {
			report.RowsDropped++
			report.Record(model.CleaningOperation{
				Kind:          kind,
				ColumnName:    pk.Name,
				RowIndex:      i,
				OriginalValue: cellAt(rawRow, indexes[pk.Name]),
				Operation:     "row_dropped",
				Reason:        "empty_identifier",
			})
			continue
		}

		row := make(map[string]interface{}, len(sch.Fields))
		modified := false
		for _, field := range sch.Fields {
			value, ops := c.cleanCell(cellAt(rawRow, indexes[field.Name]), field, id, i, kind)
			row[field.Name] = value
			for _, op := range ops {
				if op.flagged {
					report.Flag(op.CleaningOperation)
				} else {
					report.Record(op.CleaningOperation)
					modified = true
				}
			}
		}
		if modified {
			report.RowsModified++
		}
		rows = append(rows, row)
	}

	report.RowsOut = len(rows)
	c.logger.Info("Cleaned table",
		zap.String("kind", kind.String()),
		zap.Int("rows_in", report.RowsIn),
		zap.Int("rows_out", report.RowsOut),
		zap.Int("rows_dropped", report.RowsDropped),
		zap.Int("cells_degraded", len(report.Operations)),
		zap.Int("flagged", len(report.Flagged)))

	return &model.CleanedTable{Kind: kind, Columns: sch.Columns(), Rows: rows}, report, nil
}

// mapColumns resolves each schema field to its raw column index, honoring
// header aliases. A required field without a column is a structural error;
// optional fields without one are materialized as all-null (index -1).
func (c *Cleaner) mapColumns(raw *model.RawTable, sch *schema.Schema) (map[string]int, error) {
	indexes := make(map[string]int, len(sch.Fields))
	mapped := make(map[int]struct{}, len(raw.Columns))
	for _, field := range sch.Fields {
		indexes[field.Name] = -1
		for i, header := range raw.Columns {
			if field.Matches(header) {
				indexes[field.Name] = i
				mapped[i] = struct{}{}
				break
			}
		}
		if indexes[field.Name] == -1 && field.Required {
			return nil, fmt.Errorf("%w: %s (kind %s)", ErrMissingColumn, field.Name, sch.Kind)
		}
	}

	for i, header := range raw.Columns {
		if _, ok := mapped[i]; !ok {
			c.logger.Warn("Dropping column not in schema",
				zap.String("kind", sch.Kind.String()),
				zap.String("column", header))
		}
	}
	return indexes, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
