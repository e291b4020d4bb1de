package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

const providerGemini = "gemini"

// GeminiConfig configures the Vertex AI Gemini model.
type GeminiConfig struct {
	ProjectID       string
	Location        string
	Model           string
	CredentialsFile string
	Temperature     float32
	MaxOutputTokens int32
	Logger          zerolog.Logger
}

// GeminiModel implements Model on Gemini through Vertex AI. It accepts
// inline document attachments.
type GeminiModel struct {
	client *genai.Client
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiModel dials Vertex AI for the configured project.
func NewGeminiModel(ctx context.Context, cfg GeminiConfig) (*GeminiModel, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("gemini project id is required")
	}
	if cfg.Location == "" {
		cfg.Location = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 8192
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vertex ai client: %w", err)
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &GeminiModel{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/gcc-pulse-api/pkg/ai/gemini"),
		logger: logger,
	}, nil
}

// Name returns the configured model identifier.
func (m *GeminiModel) Name() string {
	return m.cfg.Model
}

// SupportsAttachments is true for Gemini.
func (m *GeminiModel) SupportsAttachments() bool {
	return true
}

// Generate sends the prompt and optional attachment in a single request.
func (m *GeminiModel) Generate(parent context.Context, prompt Prompt) (string, error) {
	ctx, span := m.tracer.Start(parent, "gemini.generate", trace.WithAttributes(
		attribute.String("model", m.cfg.Model),
		attribute.Bool("json", prompt.JSON),
		attribute.Bool("attachment", prompt.Attachment != nil),
	))
	defer span.End()

	model := m.client.GenerativeModel(m.cfg.Model)
	model.SetTemperature(m.cfg.Temperature)
	model.SetMaxOutputTokens(m.cfg.MaxOutputTokens)
	if prompt.JSON {
		model.ResponseMIMEType = "application/json"
	}
	if prompt.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(prompt.System)}}
	}

	parts := []genai.Part{genai.Text(prompt.Text)}
	if prompt.Attachment != nil {
		parts = append(parts, genai.Blob{MIMEType: prompt.Attachment.MIMEType, Data: prompt.Attachment.Data})
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, parts...)
	aiDuration.WithLabelValues(providerGemini, m.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", m.fail(span, fmt.Errorf("gemini generate: %w", err))
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", m.fail(span, ErrEmptyResponse)
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}

	content := strings.TrimSpace(builder.String())
	if content == "" {
		return "", m.fail(span, ErrEmptyResponse)
	}
	return content, nil
}

// Close releases the underlying client.
func (m *GeminiModel) Close() error {
	return m.client.Close()
}

func (m *GeminiModel) fail(span trace.Span, err error) error {
	aiFailures.WithLabelValues(providerGemini, m.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	m.logger.Warn().Err(err).Str("model", m.cfg.Model).Msg("gemini generation failed")
	return err
}
