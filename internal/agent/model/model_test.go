package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureVectorValuesFollowCanonicalOrder(t *testing.T) {
	fv := FeatureVector{
		EnergyUsageKWh:        1,
		FuelConsumptionLiters: 2,
		DistanceTraveledKM:    3,
		WasteGeneratedKG:      4,
		CompanySize:           5,
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, fv.Values())
	assert.Equal(t, 5.0, fv.Map()[FeatureCompanySize])
	assert.Len(t, FeatureNames, 5)
}

func TestSessionApplyReplacesOneSlot(t *testing.T) {
	s := &Session{ID: "s1"}

	require.NoError(t, s.Apply(SlotData, FeatureVector{EnergyUsageKWh: 12}))
	require.NotNil(t, s.Data)
	assert.Equal(t, 12.0, s.Data.EnergyUsageKWh)
	assert.Nil(t, s.Prediction)
	assert.False(t, s.DataUploaded)

	require.NoError(t, s.Apply(SlotDataUploaded, true))
	assert.True(t, s.DataUploaded)
}

func TestSessionApplyRejectsWrongType(t *testing.T) {
	s := &Session{}
	assert.Error(t, s.Apply(SlotPrediction, "not a prediction"))
	assert.Error(t, s.Apply(SlotDataUploaded, "yes"))
	assert.Error(t, s.Apply(Slot("history"), 1))
}

func TestSessionFlagsAreMonotonic(t *testing.T) {
	s := &Session{}
	require.NoError(t, s.Apply(SlotPredictionMade, true))
	assert.Error(t, s.Apply(SlotPredictionMade, false))
	assert.True(t, s.PredictionMade)
	require.NoError(t, s.Apply(SlotPredictionMade, true))
}

func TestNewOptimizationBundleSumsSavings(t *testing.T) {
	b := NewOptimizationBundle([]OptimizationSuggestion{
		{Category: "Energy", PotentialSavingKG: 100},
		{Category: "Fuel", PotentialSavingKG: 150},
	})
	assert.Equal(t, 250.0, b.TotalPotentialSavings)
	assert.Len(t, b.Suggestions, 2)
}

func TestComputeCost(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 2_000_000}
	in, out, total := ComputeCost(usage, ResolvePricing("gemini-2.5-flash"))
	assert.InDelta(t, 0.30, in, 1e-9)
	assert.InDelta(t, 5.00, out, 1e-9)
	assert.InDelta(t, 5.30, total, 1e-9)

	_, _, total = ComputeCost(usage, ResolvePricing("unknown"))
	assert.Zero(t, total)
	_, _, total = ComputeCost(nil, Pricing{InputPerM: 1})
	assert.Zero(t, total)
}

func TestSessionCloneIsDeep(t *testing.T) {
	s := &Session{ID: "s1", DataUploaded: true}
	require.NoError(t, s.Apply(SlotData, FeatureVector{EnergyUsageKWh: 5}))
	require.NoError(t, s.Apply(SlotOptimization, NewOptimizationBundle([]OptimizationSuggestion{{Category: "Energy"}})))

	c := s.Clone()
	c.Data.EnergyUsageKWh = 9
	c.Optimization.Suggestions[0].Category = "Fuel"

	assert.Equal(t, 5.0, s.Data.EnergyUsageKWh)
	assert.Equal(t, "Energy", s.Optimization.Suggestions[0].Category)
	assert.Nil(t, c.Prediction)
	assert.Nil(t, (*Session)(nil).Clone())
}
