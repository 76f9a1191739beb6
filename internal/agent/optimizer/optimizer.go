package optimizer

import (
	"context"

	"github.com/carbon-assistant/server/internal/agent/llm"
	"github.com/carbon-assistant/server/internal/agent/model"
	"github.com/carbon-assistant/server/internal/agent/prompts"
	"github.com/carbon-assistant/server/internal/metrics"
	logx "github.com/carbon-assistant/server/pkg/logger"
)

// suggestionCount is how many strategies the backend is asked for.
const suggestionCount = 3

type rule struct {
	applies    func(model.FeatureVector) bool
	category   string
	suggestion string
	share      float64
}

// rules are evaluated independently, in this order.
var rules = []rule{
	{
		applies:    func(f model.FeatureVector) bool { return f.EnergyUsageKWh > 1000 },
		category:   "Energy",
		suggestion: "Switch to LED lighting and optimize HVAC schedules.",
		share:      0.10,
	},
	{
		applies:    func(f model.FeatureVector) bool { return f.FuelConsumptionLiters > 500 },
		category:   "Fuel",
		suggestion: "Upgrade fleet to electric vehicles or hybrid models.",
		share:      0.15,
	},
	{
		applies:    func(f model.FeatureVector) bool { return f.DistanceTraveledKM > 500 },
		category:   "Logistics",
		suggestion: "Optimize delivery routes using route planning software.",
		share:      0.05,
	},
}

var generalRule = rule{
	category:   "General",
	suggestion: "Conduct a detailed energy audit.",
	share:      0.02,
}

// Optimizer proposes emission reduction strategies.
type Optimizer struct {
	completer llm.Completer
	metrics   *metrics.Metrics
}

// New builds an Optimizer. A nil completer always uses the heuristics.
func New(completer llm.Completer, m *metrics.Metrics) *Optimizer {
	return &Optimizer{completer: completer, metrics: m}
}

// Optimize returns at least one suggestion and never fails. Backend output
// is used only when every item validates.
func (o *Optimizer) Optimize(ctx context.Context, fv model.FeatureVector, emission float64) []model.OptimizationSuggestion {
	if o.completer != nil {
		suggestions, err := o.fromBackend(ctx, fv, emission)
		if err == nil {
			return suggestions
		}
		logx.Warn().Err(err).Msg("LLM optimization failed, using heuristics")
	}
	o.metrics.Fallback(metrics.AgentOptimize)
	return FallbackSuggestions(fv, emission)
}

func (o *Optimizer) fromBackend(ctx context.Context, fv model.FeatureVector, emission float64) ([]model.OptimizationSuggestion, error) {
	text, err := o.completer.Complete(ctx, map[string]any{
		prompts.VarData:     fv.String(),
		prompts.VarEmission: emission,
		prompts.VarCount:    suggestionCount,
	})
	if err != nil {
		return nil, err
	}
	return ParseSuggestions(text)
}

// FallbackSuggestions applies the fixed heuristic table. Savings are shares
// of the supplied total emission.
func FallbackSuggestions(fv model.FeatureVector, emission float64) []model.OptimizationSuggestion {
	var out []model.OptimizationSuggestion
	for _, r := range rules {
		if r.applies(fv) {
			out = append(out, r.build(emission))
		}
	}
	if len(out) == 0 {
		out = append(out, generalRule.build(emission))
	}
	return out
}

func (r rule) build(emission float64) model.OptimizationSuggestion {
	return model.OptimizationSuggestion{
		Category:          r.category,
		Suggestion:        r.suggestion,
		PotentialSavingKG: emission * r.share,
	}
}
