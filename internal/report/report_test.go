package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbon-assistant/server/internal/agent/model"
)

func TestTextRendererRender(t *testing.T) {
	r := NewTextRenderer()
	r.now = func() time.Time { return time.Date(2024, 3, 9, 8, 30, 0, 0, time.UTC) }

	bundle := model.NewOptimizationBundle([]model.OptimizationSuggestion{
		{Category: "Energy", Suggestion: "Switch to LED lighting and optimize HVAC schedules.", PotentialSavingKG: 100},
		{Category: "Fuel", Suggestion: "Upgrade fleet to electric vehicles or hybrid models.", PotentialSavingKG: 150},
	})
	out, err := r.Render("Acme", model.PredictionResult{EmissionKG: 1000, Explanation: "Driven by fuel."}, bundle)
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "Company:   Acme")
	assert.Contains(t, text, "Generated: 2024-03-09 08:30 UTC")
	assert.Contains(t, text, "Predicted emission: 1000.00 kg CO2e")
	assert.Contains(t, text, "Driven by fuel.")
	assert.Contains(t, text, "1. [Energy] Switch to LED lighting")
	assert.Contains(t, text, "2. [Fuel] Upgrade fleet")
	assert.Contains(t, text, "Total potential savings: 250.00 kg CO2e")
	assert.NotContains(t, text, "No strategies available.")
}

func TestTextRendererNoSuggestions(t *testing.T) {
	out, err := NewTextRenderer().Render("Acme", model.PredictionResult{}, model.OptimizationBundle{})
	require.NoError(t, err)
	assert.Contains(t, string(out), "No strategies available.")
	assert.Equal(t, "report.txt", NewTextRenderer().FileName())
}
