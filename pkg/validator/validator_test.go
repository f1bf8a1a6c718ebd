package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DanCorvesor/environ-policies/pkg/model"
)

func cleanedPolicy(overrides map[string]interface{}) map[string]interface{} {
	updated := time.Date(2025, 3, 3, 10, 59, 53, 0, time.UTC)
	row := map[string]interface{}{
		"id":             "POL-1",
		"name":           "Clean Air Act",
		"published_date": nil,
		"description":    "A policy",
		"geography":      "United Kingdom",
		"source_url":     "https://example.org/pol-1",
		"topics":         []string{"Mitigation"},
		"sectors":        []string{},
		"status":         "active",
		"updated_date":   &updated,
	}
	for k, v := range overrides {
		row[k] = v
	}
	return row
}

func policyTable(rows ...map[string]interface{}) *model.CleanedTable {
	return &model.CleanedTable{Kind: model.KindPolicy, Rows: rows}
}

func TestValidate_PolicyAccepted(t *testing.T) {
	table := policyTable(cleanedPolicy(nil))

	outcomes, err := NewValidator(zap.NewNop()).Validate(table)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.True(t, outcomes[0].Valid())

	policy := outcomes[0].Record.(*model.Policy)
	assert.Equal(t, "POL-1", policy.ID)
	assert.Equal(t, "Clean Air Act", policy.Name)
	assert.Equal(t, "United Kingdom", policy.Geography)
	assert.Equal(t, []string{"Mitigation"}, policy.Topics)
	assert.Equal(t, []string{}, policy.Sectors)
	require.NotNil(t, policy.Status)
	assert.Equal(t, "active", *policy.Status)
	assert.Nil(t, policy.PublishedDate)
	require.NotNil(t, policy.UpdatedDate)
}

func TestValidate_EveryRowProducesAnOutcome(t *testing.T) {
	table := policyTable(
		cleanedPolicy(nil),
		cleanedPolicy(map[string]interface{}{"id": "POL-2", "name": nil}),
		cleanedPolicy(map[string]interface{}{"id": "POL-3"}),
	)

	outcomes, err := NewValidator(zap.NewNop()).Validate(table)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	valid, failures := model.SplitOutcomes(outcomes)
	assert.Len(t, valid, 2)
	assert.Len(t, failures, 1)
	assert.Equal(t, len(table.Rows), len(valid)+len(failures))

	// Outcome order follows row order.
	for i, o := range outcomes {
		assert.Equal(t, i, o.RowIndex)
	}
}

func TestValidate_MissingRequiredField(t *testing.T) {
	table := policyTable(cleanedPolicy(map[string]interface{}{"geography": nil}))

	outcomes, err := NewValidator(zap.NewNop()).Validate(table)
	require.NoError(t, err)
	require.False(t, outcomes[0].Valid())
	assert.Equal(t, "geography", outcomes[0].Failure.Field)
	assert.Equal(t, "required field is missing", outcomes[0].Failure.Reason)
}

func TestValidate_StatusOutsideAllowedSet(t *testing.T) {
	table := policyTable(cleanedPolicy(map[string]interface{}{"status": "Retired"}))

	outcomes, err := NewValidator(zap.NewNop()).Validate(table)
	require.NoError(t, err)
	require.False(t, outcomes[0].Valid())
	assert.Equal(t, "status", outcomes[0].Failure.Field)
	assert.Equal(t, `status "Retired" is not in the allowed set`, outcomes[0].Failure.Reason)
}

func TestValidate_NullStatusAccepted(t *testing.T) {
	table := policyTable(cleanedPolicy(map[string]interface{}{"status": nil}))

	outcomes, err := NewValidator(zap.NewNop()).Validate(table)
	require.NoError(t, err)
	require.True(t, outcomes[0].Valid())
	assert.Nil(t, outcomes[0].Record.(*model.Policy).Status)
}

func TestValidate_DuplicateKeyFirstSeenWins(t *testing.T) {
	table := policyTable(
		cleanedPolicy(map[string]interface{}{"name": "First"}),
		cleanedPolicy(map[string]interface{}{"name": "Second"}),
	)

	outcomes, err := NewValidator(zap.NewNop()).Validate(table)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	require.True(t, outcomes[0].Valid())
	assert.Equal(t, "First", outcomes[0].Record.(*model.Policy).Name)

	require.False(t, outcomes[1].Valid())
	assert.Equal(t, "id", outcomes[1].Failure.Field)
	assert.Equal(t, `duplicate primary key "POL-1"`, outcomes[1].Failure.Reason)
}

func TestValidate_Company(t *testing.T) {
	login := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	table := &model.CleanedTable{
		Kind: model.KindCompany,
		Rows: []map[string]interface{}{
			{
				"id":                     "42",
				"name":                   "Acme Ltd",
				"operating_jurisdiction": "United Kingdom",
				"last_login":             &login,
				"sector":                 "Energy",
			},
			{
				"id":                     "-7",
				"name":                   "Negative Co",
				"operating_jurisdiction": "France",
				"last_login":             nil,
				"sector":                 "Water",
			},
			{
				"id":                     "abc",
				"name":                   "Alpha Co",
				"operating_jurisdiction": "Spain",
				"last_login":             nil,
				"sector":                 "Energy",
			},
		},
	}

	outcomes, err := NewValidator(zap.NewNop()).Validate(table)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	require.True(t, outcomes[0].Valid())
	company := outcomes[0].Record.(*model.Company)
	assert.Equal(t, int64(42), company.ID)
	assert.Equal(t, "Acme Ltd", company.Name)
	require.NotNil(t, company.LastLogin)
	assert.True(t, login.Equal(*company.LastLogin))

	require.False(t, outcomes[1].Valid())
	assert.Equal(t, "id", outcomes[1].Failure.Field)
	assert.Equal(t, `identifier "-7" is not a positive integer`, outcomes[1].Failure.Reason)

	require.False(t, outcomes[2].Valid())
	assert.Equal(t, `identifier "abc" is not a positive integer`, outcomes[2].Failure.Reason)
}

func TestValidate_UnknownKind(t *testing.T) {
	table := &model.CleanedTable{Kind: model.KindUnknown}
	_, err := NewValidator(zap.NewNop()).Validate(table)
	assert.Error(t, err)
}
