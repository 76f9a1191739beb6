package pipeline

import (
	"context"

	"github.com/carbon-assistant/server/internal/agent/llm"
	"github.com/carbon-assistant/server/internal/agent/model"
	"github.com/carbon-assistant/server/internal/agent/optimizer"
	"github.com/carbon-assistant/server/internal/agent/predictor"
	"github.com/carbon-assistant/server/internal/agent/prompts"
	"github.com/carbon-assistant/server/internal/metrics"
	logx "github.com/carbon-assistant/server/pkg/logger"
)

// AgentsConfig holds everything needed to build the predictor and optimizer.
type AgentsConfig struct {
	LLM       model.LLMConfig
	Predictor model.PredictorConfig
	Metrics   *metrics.Metrics
}

// Agents are the built predictor and optimizer.
type Agents struct {
	Predictor *predictor.Predictor
	Optimizer *optimizer.Optimizer
}

// BuildAgents loads the regression model and, when a Gemini key is set,
// compiles the explain and optimize chains. Without a key both agents run
// on their deterministic fallbacks.
func BuildAgents(ctx context.Context, cfg AgentsConfig) (*Agents, error) {
	regressor := predictor.LoadRegressor(cfg.Predictor.ModelPath)

	explainer, optimizerLLM, err := buildCompleters(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &Agents{
		Predictor: predictor.New(regressor, explainer, cfg.Metrics),
		Optimizer: optimizer.New(optimizerLLM, cfg.Metrics),
	}, nil
}

func buildCompleters(ctx context.Context, cfg AgentsConfig) (explain, optimize llm.Completer, err error) {
	if !cfg.LLM.Enabled() {
		logx.Warn().Msg("GEMINI_API_KEY not set, agents will use rule-based fallbacks")
		return nil, nil, nil
	}

	cms, err := llm.NewChatModels(ctx, cfg.LLM)
	if err != nil {
		return nil, nil, err
	}

	explainChain, err := llm.NewChainCompleter(ctx, llm.ChainConfig{
		Agent:     metrics.AgentExplain,
		ModelName: cms.ExplainModelName,
		Template:  prompts.Explain(),
		ChatModel: cms.Explain,
		Timeout:   cfg.LLM.Timeout,
		Metrics:   cfg.Metrics,
	})
	if err != nil {
		return nil, nil, err
	}

	optimizeChain, err := llm.NewChainCompleter(ctx, llm.ChainConfig{
		Agent:     metrics.AgentOptimize,
		ModelName: cms.OptimizeModelName,
		Template:  prompts.Optimize(),
		ChatModel: cms.Optimize,
		Timeout:   cfg.LLM.Timeout,
		Metrics:   cfg.Metrics,
	})
	if err != nil {
		return nil, nil, err
	}

	logx.Debug().
		Str("explain_model", cms.ExplainModelName).
		Str("optimize_model", cms.OptimizeModelName).
		Msg("Agent chains built successfully")
	return explainChain, optimizeChain, nil
}
