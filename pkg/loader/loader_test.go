package loader

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DanCorvesor/environ-policies/pkg/model"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "id,name,geography\nPOL-1,Clean Air Act,UK\nPOL-2,Water Act,France\n")

	table, err := NewLoader(zap.NewNop()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "geography"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"POL-1", "Clean Air Act", "UK"}, table.Rows[0])
	assert.Equal(t, 2, table.ColumnIndex("geography"))
	assert.Equal(t, -1, table.ColumnIndex("missing"))
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := NewLoader(zap.NewNop()).Load(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, "")
	_, err := NewLoader(zap.NewNop()).Load(path)
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoad_DuplicateHeaders(t *testing.T) {
	path := writeFile(t, "id,name,id\n1,a,2\n")
	_, err := NewLoader(zap.NewNop()).Load(path)
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoad_MalformedQuoting(t *testing.T) {
	path := writeFile(t, "id,name\nPOL-1,\"broken\nrest,of,file\n")
	_, err := NewLoader(zap.NewNop()).Load(path)
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoad_StripsBOM(t *testing.T) {
	path := writeFile(t, "\uFEFFid,name\nPOL-1,Clean Air Act\n")

	table, err := NewLoader(zap.NewNop()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "id", table.Columns[0])
}

func TestLoad_CustomDelimiter(t *testing.T) {
	path := writeFile(t, "id\tname\nPOL-1\tClean Air Act\n")

	table, err := NewLoader(zap.NewNop()).WithComma('\t').Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, table.Columns)
	assert.Equal(t, []string{"POL-1", "Clean Air Act"}, table.Rows[0])
}

func TestWriteCSV(t *testing.T) {
	updated := time.Date(2025, 3, 3, 10, 59, 53, 0, time.UTC)
	table := &model.CleanedTable{
		Kind:    model.KindPolicy,
		Columns: []string{"id", "name", "topics", "updated_date", "description"},
		Rows: []map[string]interface{}{
			{
				"id":           "POL-1",
				"name":         "Clean Air Act",
				"topics":       []string{"Mitigation", "Adaptation"},
				"updated_date": &updated,
				"description":  nil,
			},
		},
	}

	out := filepath.Join(t.TempDir(), "cleaned_policies.csv")
	require.NoError(t, NewLoader(zap.NewNop()).WriteCSV(table, out, ";"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t,
		"id,name,topics,updated_date,description\n"+
			"POL-1,Clean Air Act,Mitigation; Adaptation,2025-03-03T10:59:53Z,\n",
		string(data))
}
