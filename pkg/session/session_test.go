package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DanCorvesor/environ-policies/pkg/loader"
	"github.com/DanCorvesor/environ-policies/pkg/model"
)

// fakeStore records the persist call instead of touching a database.
type fakeStore struct {
	records []model.Record
	kind    model.Kind
	table   string
	policy  model.ConflictPolicy
	err     error
}

func (f *fakeStore) Persist(_ context.Context, records []model.Record, kind model.Kind, table string, policy model.ConflictPolicy) (*model.WriteSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.records = records
	f.kind = kind
	f.table = table
	f.policy = policy
	return &model.WriteSummary{
		Table:       table,
		Policy:      policy,
		RowsWritten: int64(len(records)),
		TableCount:  int64(len(records)),
	}, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const policiesCSV = "id,name,published_date,description,geography,source_url,topics,sectors,status,updated_date\n" +
	"POL-1,Clean Air Act,15/06/2023,A policy,United Kingdom,https://example.org/pol-1,Mitigation; Adaptation,Energy,active,2025-03-03T10:59:53Z\n" +
	"POL-2,Water Act,01/02/2024,,France,https://example.org/pol-2,Adaptation,Water,draft,2025-01-10T08:00:00Z\n"

func TestRun_FullPipeline(t *testing.T) {
	path := writeFile(t, "policies.csv", policiesCSV)
	store := &fakeStore{}

	sess, err := New(path, store, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, model.KindPolicy, sess.Kind())

	result, err := sess.Run(context.Background(), "policies", model.ConflictReplace)
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, result.State)
	assert.Equal(t, 2, result.RowsValid)
	assert.Zero(t, result.RowsRejected)
	require.NotNil(t, result.Write)
	assert.Equal(t, int64(2), result.Write.RowsWritten)

	assert.Equal(t, model.KindPolicy, store.kind)
	assert.Equal(t, "policies", store.table)
	assert.Equal(t, model.ConflictReplace, store.policy)
	require.Len(t, store.records, 2)
	assert.Equal(t, "POL-1", store.records[0].Key())
}

func TestRun_RejectedRowsYieldPartialState(t *testing.T) {
	csv := policiesCSV +
		"POL-1,Duplicate,01/01/2024,,Spain,https://example.org/dup,,,active,2025-01-01T00:00:00Z\n"
	path := writeFile(t, "policies.csv", csv)
	store := &fakeStore{}

	sess, err := New(path, store, zap.NewNop())
	require.NoError(t, err)

	result, err := sess.Run(context.Background(), "policies", model.ConflictAppend)
	require.NoError(t, err)

	assert.Equal(t, StatePartial, result.State)
	assert.Equal(t, 2, result.RowsValid)
	assert.Equal(t, 1, result.RowsRejected)
	// Only the valid records reach the store.
	require.Len(t, store.records, 2)
}

func TestRun_StoreFailureAborts(t *testing.T) {
	path := writeFile(t, "policies.csv", policiesCSV)
	store := &fakeStore{err: errors.New("connection refused")}

	sess, err := New(path, store, zap.NewNop())
	require.NoError(t, err)

	result, err := sess.Run(context.Background(), "policies", model.ConflictReplace)
	require.Error(t, err)
	assert.Equal(t, StateAborted, result.State)
	assert.Nil(t, result.Write)
}

func TestStageOrderEnforced(t *testing.T) {
	path := writeFile(t, "policies.csv", policiesCSV)

	sess, err := New(path, &fakeStore{}, zap.NewNop())
	require.NoError(t, err)

	_, err = sess.Clean()
	assert.ErrorIs(t, err, ErrStageOrder)
	_, err = sess.Validate()
	assert.ErrorIs(t, err, ErrStageOrder)
	_, err = sess.Persist(context.Background(), "policies", model.ConflictReplace)
	assert.ErrorIs(t, err, ErrStageOrder)

	_, err = sess.Load()
	require.NoError(t, err)
	assert.Equal(t, StageLoaded, sess.Stage())

	// A stage cannot run twice either.
	_, err = sess.Load()
	assert.ErrorIs(t, err, ErrStageOrder)
}

func TestStoreLessSessionEndsValidated(t *testing.T) {
	path := writeFile(t, "policies.csv", policiesCSV)

	sess, err := New(path, nil, zap.NewNop())
	require.NoError(t, err)

	_, err = sess.Load()
	require.NoError(t, err)
	_, err = sess.Clean()
	require.NoError(t, err)
	_, err = sess.Validate()
	require.NoError(t, err)

	result := sess.Result()
	assert.Equal(t, StateValidated, result.State)
	assert.Equal(t, 2, result.RowsValid)
	assert.Nil(t, result.Write)

	_, err = sess.Persist(context.Background(), "policies", model.ConflictReplace)
	assert.Error(t, err)
}

func TestStoppedBeforePersistIsAborted(t *testing.T) {
	path := writeFile(t, "policies.csv", policiesCSV)

	sess, err := New(path, &fakeStore{}, zap.NewNop())
	require.NoError(t, err)

	_, err = sess.Load()
	require.NoError(t, err)
	_, err = sess.Clean()
	require.NoError(t, err)
	_, err = sess.Validate()
	require.NoError(t, err)

	// With a store attached, stopping short of persistence is an abort.
	assert.Equal(t, StateAborted, sess.Result().State)
}

func TestNew_FileNotFound(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.csv"), &fakeStore{}, zap.NewNop())
	assert.ErrorIs(t, err, loader.ErrFileNotFound)
}

func TestNew_UnknownKind(t *testing.T) {
	path := writeFile(t, "records.csv", policiesCSV)
	_, err := New(path, &fakeStore{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNew_KindOverride(t *testing.T) {
	path := writeFile(t, "records.csv", policiesCSV)
	sess, err := New(path, &fakeStore{}, zap.NewNop(), WithKind(model.KindPolicy))
	require.NoError(t, err)
	assert.Equal(t, model.KindPolicy, sess.Kind())
}

func TestWriteCleaned(t *testing.T) {
	path := writeFile(t, "policies.csv", policiesCSV)
	sess, err := New(path, &fakeStore{}, zap.NewNop())
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "cleaned_policies.csv")
	err = sess.WriteCleaned(out, ";")
	assert.ErrorIs(t, err, ErrStageOrder)

	_, err = sess.Load()
	require.NoError(t, err)
	_, err = sess.Clean()
	require.NoError(t, err)

	require.NoError(t, sess.WriteCleaned(out, ";"))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Mitigation; Adaptation")
}
