package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/carbon-assistant/server/internal/agent/model"
	logx "github.com/carbon-assistant/server/pkg/logger"
)

// ChatModels holds the Gemini models backing the explain and optimize agents.
type ChatModels struct {
	Explain           *gemini.ChatModel
	Optimize          *gemini.ChatModel
	ExplainModelName  string
	OptimizeModelName string
}

// NewChatModels creates both chat models over one Gemini client.
func NewChatModels(ctx context.Context, cfg model.LLMConfig) (*ChatModels, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	explain, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Explain.Model,
		Temperature: &cfg.Explain.Temperature,
		MaxTokens:   &cfg.Explain.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(512)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating explain model")
		return nil, fmt.Errorf("error creating explain model: %w", err)
	}

	optimize, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Optimize.Model,
		Temperature: &cfg.Optimize.Temperature,
		MaxTokens:   &cfg.Optimize.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(1024)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating optimize model")
		return nil, fmt.Errorf("error creating optimize model: %w", err)
	}

	return &ChatModels{
		Explain:           explain,
		Optimize:          optimize,
		ExplainModelName:  cfg.Explain.Model,
		OptimizeModelName: cfg.Optimize.Model,
	}, nil
}
