package validation_test

import (
	"testing"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListParams_Defaults(t *testing.T) {
	t.Parallel()

	params, errs := validation.ParseListParams(mustQuery(t, ""))
	require.True(t, errs.Empty())

	assert.Equal(t, validation.DefaultLimit, params.Limit)
	assert.Zero(t, params.Offset)
	assert.Nil(t, params.CampaignID)
	assert.Nil(t, params.Sub1)
	assert.Nil(t, params.Sub2)
	assert.Nil(t, params.IsValid)
}

func TestParseListParams_AllFilters(t *testing.T) {
	t.Parallel()

	params, errs := validation.ParseListParams(mustQuery(t, "cid=5&limit=1000&offset=20&sub1=fb&sub2=&is_valid=0"))
	require.True(t, errs.Empty(), "unexpected errors: %v", errs)

	require.NotNil(t, params.CampaignID)
	assert.Equal(t, 5, *params.CampaignID)
	assert.Equal(t, 1000, params.Limit)
	assert.Equal(t, 20, params.Offset)
	require.NotNil(t, params.Sub1)
	assert.Equal(t, "fb", *params.Sub1)
	require.NotNil(t, params.Sub2)
	assert.Empty(t, *params.Sub2)
	require.NotNil(t, params.IsValid)
	assert.Equal(t, 0, *params.IsValid)
}

func TestParseListParams_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		field   string
		message string
	}{
		{"limit zero", "limit=0", "limit", "Limit must be between 1 and 1000"},
		{"limit too large", "limit=1001", "limit", "Limit must be between 1 and 1000"},
		{"limit not a number", "limit=ten", "limit", "Invalid parameter format"},
		{"limit overflows int", "limit=99999999999999999999", "limit", "Limit must be between 1 and 1000"},
		{"offset negative overflow", "offset=-99999999999999999999", "offset", "Offset must be >= 0"},
		{"is_valid overflows int", "is_valid=99999999999999999999", "is_valid", "is_valid must be 0 or 1"},
		{"negative offset", "offset=-1", "offset", "Offset must be >= 0"},
		{"is_valid out of range", "is_valid=2", "is_valid", "is_valid must be 0 or 1"},
		{"empty cid", "cid=", "cid", "Campaign ID cannot be empty"},
		{"zero cid", "cid=0", "cid", "Campaign ID must be >= 1"},
		{"unknown parameter", "sub3=x", "sub3", "Unknown query parameter: sub3"},
		{"repeated parameter", "limit=1&limit=2", "limit", "Parameter limit must be a single value, not an array"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, errs := validation.ParseListParams(mustQuery(t, tt.query))
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.message, errs[0].Message)
		})
	}
}
