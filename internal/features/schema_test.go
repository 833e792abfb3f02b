package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attrition/internal/data"
)

func TestDefaultSchema(t *testing.T) {
	s := Default()
	assert.Equal(t, data.FeatureColumns, s.Names())

	gap, ok := s.Lookup(data.ColPromotionGap)
	require.True(t, ok)
	assert.Equal(t, Numeric, gap.Type)
	require.NotNil(t, gap.Min)
	require.NotNil(t, gap.Max)
	assert.Equal(t, 0.0, *gap.Min)
	assert.Equal(t, 50.0, *gap.Max)

	ot, ok := s.Lookup(data.ColOvertime)
	require.True(t, ok)
	assert.Equal(t, Categorical, ot.Type)
	assert.Equal(t, data.OvertimeLevels, ot.Options)
	assert.Equal(t, normalizeDashes, ot.Normalize)

	for _, col := range data.CategoricalColumns {
		spec, ok := s.Lookup(col)
		require.True(t, ok, col)
		assert.Equal(t, Categorical, spec.Type, col)
	}

	_, ok = s.Lookup("Salary")
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	d := Default().Describe()
	require.Len(t, d, len(data.FeatureColumns))
	assert.Equal(t, "Average Monthly Overtime", d[data.ColOvertime].Description)
	assert.Nil(t, d[data.ColDepartment].Min)
}

func TestParseSchema_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "bad yaml", doc: "features: [\n"},
		{name: "no name", doc: "features:\n  - type: numeric\n"},
		{name: "duplicate", doc: "features:\n  - {name: a, type: numeric}\n  - {name: a, type: numeric}\n"},
		{name: "unknown type", doc: "features:\n  - {name: a, type: date}\n"},
		{name: "unknown normalizer", doc: "features:\n  - {name: a, type: categorical, normalize: upper}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchema([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}
