package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/cloudprompt/aws-devops-agent/internal/config"
	"github.com/cloudprompt/aws-devops-agent/internal/logging"
)

// TextOracle is the narrow boundary to the language model. The far side
// enforces no structured contract: callers must tolerate free text, fenced
// code blocks, or malformed quasi-JSON in the response.
type TextOracle interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// LLMOracle adapts a langchaingo model to the TextOracle boundary with a
// per-call timeout
type LLMOracle struct {
	llm         llms.Model
	temperature float64
	maxTokens   int
	timeout     time.Duration
	logger      *logging.Logger
}

// New initializes the appropriate LLM based on the provider configuration
// and wraps it as a TextOracle
func New(agentConfig *config.AgentConfig, logger *logging.Logger) (*LLMOracle, error) {
	llm, err := initializeLLM(agentConfig, logger)
	if err != nil {
		return nil, err
	}

	return &LLMOracle{
		llm:         llm,
		temperature: agentConfig.Temperature,
		maxTokens:   agentConfig.MaxTokens,
		timeout:     agentConfig.OracleTimeout(),
		logger:      logger,
	}, nil
}

// Complete sends a system instruction and user text to the model and returns
// the raw response text
func (o *LLMOracle) Complete(ctx context.Context, system, user string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: system}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: user}},
		},
	}

	started := time.Now()
	resp, err := o.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(o.temperature),
		llms.WithMaxTokens(o.maxTokens))
	o.logger.LogOracleCall("complete", time.Since(started), err)

	if err != nil {
		return "", fmt.Errorf("oracle call failed: %w", err)
	}

	if len(resp.Choices) < 1 {
		return "", fmt.Errorf("oracle returned empty response - no choices available")
	}

	return resp.Choices[0].Content, nil
}

// initializeLLM initializes the appropriate LLM based on the provider configuration
func initializeLLM(agentConfig *config.AgentConfig, logger *logging.Logger) (llms.Model, error) {
	provider := strings.ToLower(agentConfig.Provider)

	logger.WithFields(map[string]interface{}{
		"provider": provider,
		"model":    agentConfig.Model,
	}).Info("Initializing LLM")

	switch provider {
	case "openai":
		if agentConfig.OpenAIAPIKey == "" {
			logger.Error("OpenAI API key is missing")
			return nil, fmt.Errorf("OpenAI API key is required for provider 'openai'")
		}

		llm, err := openai.New(
			openai.WithToken(agentConfig.OpenAIAPIKey),
			openai.WithModel(agentConfig.Model),
		)
		if err != nil {
			logger.WithError(err).Error("Failed to initialize OpenAI client")
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		logger.Info("OpenAI client initialized successfully")
		return llm, nil

	case "gemini", "googleai":
		if agentConfig.GeminiAPIKey == "" {
			logger.Error("Gemini API key is missing")
			return nil, fmt.Errorf("Gemini API key is required for provider 'gemini'")
		}

		ctx := context.Background()
		llm, err := googleai.New(
			ctx,
			googleai.WithAPIKey(agentConfig.GeminiAPIKey),
			googleai.WithDefaultModel(agentConfig.Model),
		)
		if err != nil {
			logger.WithError(err).Error("Failed to initialize Gemini client")
			return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
		}
		logger.Info("Gemini client initialized successfully")
		return llm, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s. Supported providers: openai, gemini", provider)
	}
}
