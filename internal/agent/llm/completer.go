package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/carbon-assistant/server/internal/agent/model"
	"github.com/carbon-assistant/server/internal/agent/observers"
	"github.com/carbon-assistant/server/internal/metrics"
	logx "github.com/carbon-assistant/server/pkg/logger"
)

// ErrEmptyResponse is returned when the backend answers with blank content.
var ErrEmptyResponse = errors.New("empty model response")

// Completer renders a prompt with the given variables and returns the
// backend's text answer.
type Completer interface {
	Complete(ctx context.Context, vars map[string]any) (string, error)
}

// ChainConfig describes one prompt -> chat model chain.
type ChainConfig struct {
	Agent     string // metrics label
	ModelName string // pricing lookup
	Template  prompt.ChatTemplate
	ChatModel einomodel.BaseChatModel
	Timeout   time.Duration
	Metrics   *metrics.Metrics
}

// ChainCompleter is a Completer backed by a compiled eino chain.
type ChainCompleter struct {
	agent     string
	modelName string
	timeout   time.Duration
	metrics   *metrics.Metrics
	runnable  compose.Runnable[map[string]any, *schema.Message]
}

// NewChainCompleter compiles template -> chat model into a runnable chain.
func NewChainCompleter(ctx context.Context, cfg ChainConfig) (*ChainCompleter, error) {
	if cfg.Template == nil {
		return nil, fmt.Errorf("prompt template is nil")
	}
	if cfg.ChatModel == nil {
		return nil, fmt.Errorf("chat model is nil")
	}

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(cfg.Template)
	chain.AppendChatModel(cfg.ChatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		logx.Error().Err(err).Str("agent", cfg.Agent).Msg("Error compiling chain")
		return nil, fmt.Errorf("compile %s chain: %w", cfg.Agent, err)
	}

	return &ChainCompleter{
		agent:     cfg.Agent,
		modelName: cfg.ModelName,
		timeout:   cfg.Timeout,
		metrics:   cfg.Metrics,
		runnable:  runnable,
	}, nil
}

// Complete invokes the chain once. No retries.
func (c *ChainCompleter) Complete(ctx context.Context, vars map[string]any) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.runnable.Invoke(ctx, vars, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		c.metrics.LLMCall(c.agent, false)
		return "", fmt.Errorf("invoke %s chain: %w", c.agent, err)
	}
	c.recordUsage(out)

	if out == nil || strings.TrimSpace(out.Content) == "" {
		c.metrics.LLMCall(c.agent, false)
		return "", ErrEmptyResponse
	}
	c.metrics.LLMCall(c.agent, true)
	return strings.TrimSpace(out.Content), nil
}

func (c *ChainCompleter) recordUsage(out *schema.Message) {
	if out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	usage := out.ResponseMeta.Usage
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(c.modelName))
	logx.Debug().
		Str("agent", c.agent).
		Str("model", c.modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
	c.metrics.LLMCost(c.modelName, totalC)
}

var _ Completer = (*ChainCompleter)(nil)
