package predictor

import (
	"context"
	"fmt"
	"strings"

	"github.com/carbon-assistant/server/internal/agent/llm"
	"github.com/carbon-assistant/server/internal/agent/model"
	"github.com/carbon-assistant/server/internal/agent/prompts"
	"github.com/carbon-assistant/server/internal/metrics"
	logx "github.com/carbon-assistant/server/pkg/logger"
)

const (
	highEnergyKWh   = 1000
	highFuelLiters  = 500
	balancedFactors = "balanced factors"
	explainTemplate = "The predicted carbon emission is %.2f kg CO2e. This is primarily driven by %s."
)

// Predictor estimates emissions and explains them.
type Predictor struct {
	regressor Regressor
	explainer llm.Completer
	metrics   *metrics.Metrics
}

// New builds a Predictor. A nil regressor predicts 0; a nil explainer always
// uses the rule-based explanation.
func New(regressor Regressor, explainer llm.Completer, m *metrics.Metrics) *Predictor {
	return &Predictor{regressor: regressor, explainer: explainer, metrics: m}
}

// LoadRegressor loads the model at path. Failures are logged and yield nil,
// which degrades Predict to a constant 0.
func LoadRegressor(path string) Regressor {
	m, err := LoadLinearModel(path)
	if err != nil {
		logx.Warn().Err(err).Str("path", path).Msg("Regression model unavailable, predictions will be 0")
		return nil
	}
	logx.Info().Str("path", path).Strs("features", m.Features).Msg("Regression model loaded")
	return m
}

// Predict returns the model's emission estimate in kg CO2e. It never fails:
// a missing model or an inference error yields 0.
func (p *Predictor) Predict(ctx context.Context, fv model.FeatureVector) (emission float64) {
	if p.regressor == nil {
		logx.Debug().Msg("No regression model loaded, returning 0.0")
		p.metrics.Fallback(metrics.AgentPredict)
		return 0
	}

	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "predictor").Msgf("panic recovered: %v", r)
			p.metrics.Fallback(metrics.AgentPredict)
			emission = 0
		}
	}()

	y, err := p.regressor.Predict(model.FeatureNames, fv.Values())
	if err != nil {
		logx.Error().
			Err(err).
			Strs("model_expects", p.regressor.FeatureNames()).
			Strs("data_has", model.FeatureNames).
			Msg("Prediction error")
		p.metrics.Fallback(metrics.AgentPredict)
		return 0
	}
	return y
}

// Explain describes the main drivers of the prediction. The generative
// backend is tried first; any failure falls back to fixed rules.
func (p *Predictor) Explain(ctx context.Context, fv model.FeatureVector, prediction float64) string {
	if p.explainer != nil {
		text, err := p.explainer.Complete(ctx, map[string]any{
			prompts.VarData:       fv.String(),
			prompts.VarPrediction: prediction,
		})
		if err == nil {
			return text
		}
		logx.Warn().Err(err).Msg("LLM explanation failed, using rule-based explanation")
	}
	p.metrics.Fallback(metrics.AgentExplain)
	return FallbackExplanation(fv, prediction)
}

// FallbackExplanation is the deterministic explanation used without a backend.
func FallbackExplanation(fv model.FeatureVector, prediction float64) string {
	var reasons []string
	if fv.EnergyUsageKWh > highEnergyKWh {
		reasons = append(reasons, "high energy usage")
	}
	if fv.FuelConsumptionLiters > highFuelLiters {
		reasons = append(reasons, "significant fuel consumption")
	}
	reason := balancedFactors
	if len(reasons) > 0 {
		reason = strings.Join(reasons, " and ")
	}
	return fmt.Sprintf(explainTemplate, prediction, reason)
}
