// pkg/loader/loader.go
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/DanCorvesor/environ-policies/pkg/model"
)

var (
	// ErrFileNotFound indicates the input path does not resolve to a file.
	ErrFileNotFound = errors.New("file not found")
	// ErrParse indicates the file content could not be tokenized into a
	// header and rows. Parse errors are structural and fatal to the session.
	ErrParse = errors.New("parse error")
)

// Loader reads a delimited UTF-8 file into a RawTable. It has no side
// effects beyond the read.
type Loader struct {
	logger *zap.Logger
	comma  rune
}

// NewLoader creates a Loader reading comma-delimited files.
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{
		logger: logger.Named("loader"),
		comma:  ',',
	}
}

// WithComma sets the field delimiter and returns the modified loader.
func (l *Loader) WithComma(comma rune) *Loader {
	l.comma = comma
	return l
}

// Load reads the file at path into a RawTable. The first row is the header,
// taken verbatim; duplicate header names are a parse error.
func (l *Loader) Load(path string) (*model.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = l.comma

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s is empty", ErrParse, path)
		}
		return nil, fmt.Errorf("%w: reading header of %s: %v", ErrParse, path, err)
	}
	header[0] = stripBOM(header[0])

	if err := checkDuplicateHeaders(header); err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %v", ErrParse, path, err)
		}
		rows = append(rows, row)
	}

	l.logger.Info("Loaded file",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(header)))

	return &model.RawTable{Columns: header, Rows: rows}, nil
}

// stripBOM removes a UTF-8 byte order mark from the first header cell.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}

func checkDuplicateHeaders(header []string) error {
	seen := make(map[string]struct{}, len(header))
	for _, name := range header {
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: duplicate header %q", ErrParse, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}
