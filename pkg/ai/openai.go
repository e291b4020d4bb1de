package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const providerOpenAI = "openai"

// OpenAIConfig defines configuration options for the OpenAI model.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIModel implements Model against the OpenAI chat completion API.
type OpenAIModel struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIModel builds a model client using the provided configuration.
func NewOpenAIModel(cfg OpenAIConfig) (*OpenAIModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}

	tracer := otel.Tracer("github.com/noah-isme/gcc-pulse-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	client := openai.NewClientWithConfig(config)

	return &OpenAIModel{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Name returns the configured model identifier.
func (m *OpenAIModel) Name() string {
	return m.cfg.Model
}

// SupportsAttachments is false; callers must extract document text first.
func (m *OpenAIModel) SupportsAttachments() bool {
	return false
}

// Generate sends the prompt as a chat completion and returns the first choice.
func (m *OpenAIModel) Generate(parent context.Context, prompt Prompt) (string, error) {
	ctx, span := m.tracer.Start(parent, "openai.generate", trace.WithAttributes(
		attribute.String("model", m.cfg.Model),
		attribute.Bool("json", prompt.JSON),
	))
	defer span.End()

	if prompt.Attachment != nil {
		span.SetStatus(codes.Error, ErrAttachmentsUnsupported.Error())
		return "", ErrAttachmentsUnsupported
	}

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if prompt.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt.Text,
	})

	request := openai.ChatCompletionRequest{
		Model:       m.cfg.Model,
		MaxTokens:   m.cfg.MaxTokens,
		Temperature: m.cfg.Temperature,
		Messages:    messages,
	}
	if prompt.JSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := m.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(providerOpenAI, m.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", m.fail(span, fmt.Errorf("openai generate: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", m.fail(span, ErrEmptyResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", m.fail(span, ErrEmptyResponse)
	}

	m.logger.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("openai generation completed")

	return content, nil
}

func (m *OpenAIModel) fail(span trace.Span, err error) error {
	aiFailures.WithLabelValues(providerOpenAI, m.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
