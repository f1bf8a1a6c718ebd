// pkg/loader/writer.go
package loader

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DanCorvesor/environ-policies/pkg/model"
)

// WriteCSV writes a cleaned table back out in the same dialect it was read
// in, header preserved. Multi-value cells are joined with the loader's list
// delimiter; times are rendered as RFC 3339; nulls become empty cells.
func (l *Loader) WriteCSV(table *model.CleanedTable, path string, listDelimiter string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = l.comma

	if err := w.Write(table.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, row := range table.Rows {
		out := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			out[i] = renderCell(row[col], listDelimiter)
		}
		if err := w.Write(out); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}

	l.logger.Info("Wrote cleaned file",
		zap.String("path", path),
		zap.Int("rows", len(table.Rows)))
	return nil
}

func renderCell(v interface{}, listDelimiter string) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, listDelimiter+" ")
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.Format(time.RFC3339)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
