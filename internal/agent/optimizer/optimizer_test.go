package optimizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbon-assistant/server/internal/agent/model"
)

type stubCompleter struct {
	text string
	err  error
	vars map[string]any
}

func (s *stubCompleter) Complete(ctx context.Context, vars map[string]any) (string, error) {
	s.vars = vars
	return s.text, s.err
}

func TestFallbackAllRulesInOrder(t *testing.T) {
	fv := model.FeatureVector{EnergyUsageKWh: 1200, FuelConsumptionLiters: 600, DistanceTraveledKM: 600}
	got := FallbackSuggestions(fv, 1000)

	require.Len(t, got, 3)
	assert.Equal(t, "Energy", got[0].Category)
	assert.InDelta(t, 100, got[0].PotentialSavingKG, 1e-9)
	assert.Equal(t, "Fuel", got[1].Category)
	assert.InDelta(t, 150, got[1].PotentialSavingKG, 1e-9)
	assert.Equal(t, "Logistics", got[2].Category)
	assert.InDelta(t, 50, got[2].PotentialSavingKG, 1e-9)
}

func TestFallbackGeneralOnly(t *testing.T) {
	got := FallbackSuggestions(model.FeatureVector{EnergyUsageKWh: 1000, FuelConsumptionLiters: 500, DistanceTraveledKM: 500}, 1000)

	require.Len(t, got, 1)
	assert.Equal(t, "General", got[0].Category)
	assert.Equal(t, "Conduct a detailed energy audit.", got[0].Suggestion)
	assert.InDelta(t, 20, got[0].PotentialSavingKG, 1e-9)
}

func TestFallbackZeroEmission(t *testing.T) {
	got := FallbackSuggestions(model.FeatureVector{FuelConsumptionLiters: 900}, 0)
	require.Len(t, got, 1)
	assert.Equal(t, "Fuel", got[0].Category)
	assert.Equal(t, 0.0, got[0].PotentialSavingKG)
}

func TestOptimizeUsesValidBackendOutput(t *testing.T) {
	stub := &stubCompleter{text: "```json\n" + `[
		{"category": "Energy", "suggestion": "Install rooftop solar.", "potential_saving_kg": 120.5},
		{"category": "Waste", "suggestion": "Compost organic waste.", "potential_saving_kg": 12}
	]` + "\n```"}
	o := New(stub, nil)

	got := o.Optimize(context.Background(), model.FeatureVector{EnergyUsageKWh: 1500}, 900)

	require.Len(t, got, 2)
	assert.Equal(t, model.OptimizationSuggestion{Category: "Energy", Suggestion: "Install rooftop solar.", PotentialSavingKG: 120.5}, got[0])
	assert.Equal(t, "Waste", got[1].Category)
	assert.Equal(t, 3, stub.vars["Count"])
	assert.Equal(t, 900.0, stub.vars["Emission"])
}

func TestOptimizeBackendErrorFallsBack(t *testing.T) {
	o := New(&stubCompleter{err: errors.New("timeout")}, nil)
	got := o.Optimize(context.Background(), model.FeatureVector{}, 500)

	require.Len(t, got, 1)
	assert.Equal(t, "General", got[0].Category)
	assert.InDelta(t, 10, got[0].PotentialSavingKG, 1e-9)
}

func TestOptimizeMalformedBackendFallsBack(t *testing.T) {
	o := New(&stubCompleter{text: "Here are some ideas: use less energy."}, nil)
	got := o.Optimize(context.Background(), model.FeatureVector{EnergyUsageKWh: 2000}, 1000)

	require.Len(t, got, 1)
	assert.Equal(t, "Energy", got[0].Category)
}

func TestOptimizeWithoutBackend(t *testing.T) {
	got := New(nil, nil).Optimize(context.Background(), model.FeatureVector{DistanceTraveledKM: 501}, 200)
	require.Len(t, got, 1)
	assert.Equal(t, "Logistics", got[0].Category)
	assert.InDelta(t, 10, got[0].PotentialSavingKG, 1e-9)
}

func TestParseSuggestionsRejects(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"not json":       "use less energy",
		"object":         `{"category": "Energy", "suggestion": "x", "potential_saving_kg": 1}`,
		"empty array":    `[]`,
		"null":           `null`,
		"null item":      `[null]`,
		"missing field":  `[{"category": "Energy", "suggestion": "x"}]`,
		"unknown field":  `[{"category": "Energy", "suggestion": "x", "potential_saving_kg": 1, "priority": 1}]`,
		"wrong type":     `[{"category": "Energy", "suggestion": "x", "potential_saving_kg": "lots"}]`,
		"blank category": `[{"category": " ", "suggestion": "x", "potential_saving_kg": 1}]`,
		"trailing data":  `[{"category": "Energy", "suggestion": "x", "potential_saving_kg": 1}] extra`,
		"one bad item": `[
			{"category": "Energy", "suggestion": "x", "potential_saving_kg": 1},
			{"category": "Fuel", "potential_saving_kg": 2}
		]`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := ParseSuggestions(input)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrFallbackRequired)
		})
	}
}

func TestParseSuggestionsAcceptsAnyNonEmptyCount(t *testing.T) {
	got, err := ParseSuggestions(`[{"category": "Fuel", "suggestion": "Idle less.", "potential_saving_kg": 0}]`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Fuel", got[0].Category)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "[1]", StripCodeFences("```json\n[1]\n```"))
	assert.Equal(t, "[1]", StripCodeFences("```JSON [1]```"))
	assert.Equal(t, "[1]", StripCodeFences("```\n[1]\n```"))
	assert.Equal(t, "[1]", StripCodeFences("  [1]  "))
}
