package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExplainRendersValues(t *testing.T) {
	msgs, err := Explain().Format(context.Background(), map[string]any{
		VarData:       "energy_usage_kwh=1200.00",
		VarPrediction: 812.456,
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "energy_usage_kwh=1200.00")
	assert.Contains(t, msgs[0].Content, "812.46 kg CO2e")
}

func TestOptimizeRendersCount(t *testing.T) {
	msgs, err := Optimize().Format(context.Background(), map[string]any{
		VarData:     "x",
		VarEmission: 1000.0,
		VarCount:    3,
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "suggest exactly 3 specific")
	assert.Contains(t, msgs[0].Content, `"potential_saving_kg"`)
}
