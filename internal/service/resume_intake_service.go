package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gcc-pulse-api/internal/analysis"
	"github.com/noah-isme/gcc-pulse-api/internal/models"
	"github.com/noah-isme/gcc-pulse-api/internal/observability"
	"github.com/noah-isme/gcc-pulse-api/internal/repository"
	"github.com/noah-isme/gcc-pulse-api/pkg/ai"
	"github.com/noah-isme/gcc-pulse-api/pkg/events"
)

// Messages returned to callers in IntakeResult.Error.
const (
	MsgResumeTooShort      = "Resume file is empty or too short. Please upload a valid resume."
	MsgResumeUnsupported   = "Unsupported file type. Please upload a PDF or plain text resume."
	MsgResumeUnreadable    = "Failed to read file content."
	MsgResumeTooLarge      = "Resume file exceeds the maximum allowed size."
	MsgAnalysisFailed      = "Failed to analyze resume. Please check your API key."
	MsgDemoAnalysisFailed  = "Failed to generate demo analysis"
	MsgResumeProcessFailed = "Failed to process resume"
)

const pdfMIME = "application/pdf"

// FileStorage abstracts resume upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, bucket, path string, reader io.Reader) (string, error)
}

// TextExtractor pulls text out of binary resumes.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, uri string) (string, error)
}

// ResumeFile is an uploaded resume.
type ResumeFile struct {
	FileName string
	MimeType string
	Data     []byte
}

// ResumeInput is either raw text or an uploaded file.
type ResumeInput struct {
	Text        string
	File        *ResumeFile
	ApplicantID string
}

// IntakeResult is the outcome of a resume analysis. Expected failures are
// reported through Success and Error rather than a Go error.
type IntakeResult struct {
	Success     bool
	Profile     *models.CandidateProfile
	Error       string
	IsDemoMode  bool
	CandidateID string
	ResumeURL   string
}

// ResumeIntakeConfig tunes the intake pipeline.
type ResumeIntakeConfig struct {
	MinChars       int
	MaxFileBytes   int64
	Bucket         string
	StorageTimeout time.Duration
}

// ResumeIntakeService turns resumes into stored candidate profiles.
type ResumeIntakeService interface {
	Analyze(ctx context.Context, input ResumeInput) IntakeResult
}

type resumeIntakeService struct {
	analyzer   analysis.ResumeAnalyzer
	extractor  TextExtractor
	storage    FileStorage
	candidates repository.CandidateRepository
	publisher  events.Publisher
	cfg        ResumeIntakeConfig
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewResumeIntakeService wires the intake pipeline. extractor and storage are
// optional.
func NewResumeIntakeService(
	analyzer analysis.ResumeAnalyzer,
	extractor TextExtractor,
	storage FileStorage,
	candidates repository.CandidateRepository,
	publisher events.Publisher,
	cfg ResumeIntakeConfig,
	logger zerolog.Logger,
) ResumeIntakeService {
	if cfg.MinChars <= 0 {
		cfg.MinChars = 50
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 10 * 1024 * 1024
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "resumes"
	}
	if cfg.StorageTimeout <= 0 {
		cfg.StorageTimeout = 30 * time.Second
	}
	if publisher == nil {
		publisher = events.Noop{}
	}

	return &resumeIntakeService{
		analyzer:   analyzer,
		extractor:  extractor,
		storage:    storage,
		candidates: candidates,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger.With().Str("component", "resume_intake_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/gcc-pulse-api/internal/service/resume_intake"),
		now:        time.Now,
	}
}

// rejection is an expected failure carrying the caller-facing message.
type rejection struct {
	message string
	outcome string
	cause   error
}

func (r *rejection) Error() string {
	if r.cause != nil {
		return r.message + ": " + r.cause.Error()
	}
	return r.message
}

func (s *resumeIntakeService) Analyze(ctx context.Context, input ResumeInput) (result IntakeResult) {
	mode := s.analyzer.Mode()
	demo := mode == analysis.ModeDemo
	outcome := "success"
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "resume.intake", trace.WithAttributes(
		attribute.String("resume.mode", string(mode)),
		attribute.Bool("resume.has_file", input.File != nil),
	))
	defer span.End()

	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = "panic"
			err := fmt.Errorf("resume analysis panicked: %v", recovered)
			span.RecordError(err)
			span.SetStatus(codes.Error, "panic")
			s.logger.Error().Err(err).Msg("resume analysis aborted")
			result = IntakeResult{Error: MsgResumeProcessFailed, IsDemoMode: demo}
		}
		observability.ResumeIntake().WithLabelValues(string(mode), outcome).Inc()
		observability.ResumeIntakeDuration().WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	}()

	doc, err := s.prepare(ctx, input)
	if err != nil {
		var rejected *rejection
		if !errors.As(err, &rejected) {
			rejected = &rejection{message: MsgResumeProcessFailed, outcome: "failed", cause: err}
		}
		outcome = rejected.outcome
		span.SetStatus(codes.Error, rejected.outcome)
		s.logger.Info().Err(err).Str("outcome", outcome).Msg("resume rejected")
		return IntakeResult{Error: rejected.message, IsDemoMode: demo}
	}

	profile, err := s.analyzer.Analyze(ctx, doc)
	if err != nil {
		outcome = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, "analysis failed")
		s.logger.Warn().Err(err).Str("mode", string(mode)).Msg("resume analysis failed")
		message := MsgAnalysisFailed
		if demo {
			message = MsgDemoAnalysisFailed
		}
		return IntakeResult{Error: message, IsDemoMode: demo}
	}

	result = IntakeResult{Success: true, Profile: &profile, IsDemoMode: demo}
	if !demo {
		result.ResumeURL = s.upload(ctx, input.File)
		result.CandidateID = s.save(ctx, profile, doc.Text, result.ResumeURL, input.ApplicantID)
	}

	s.publish(ctx, result, mode)
	span.SetStatus(codes.Ok, "analysed")
	return result
}

// prepare resolves the input into what the analyser accepts, enforcing the
// minimum length on every text path before any model call.
func (s *resumeIntakeService) prepare(ctx context.Context, input ResumeInput) (analysis.ResumeDocument, error) {
	if input.File == nil {
		return s.textDocument(input.Text)
	}

	file := input.File
	if int64(len(file.Data)) > s.cfg.MaxFileBytes {
		return analysis.ResumeDocument{}, &rejection{message: MsgResumeTooLarge, outcome: "rejected"}
	}
	if len(bytes.TrimSpace(file.Data)) == 0 {
		return analysis.ResumeDocument{}, &rejection{message: MsgResumeTooShort, outcome: "rejected"}
	}

	detected := mimetype.Detect(file.Data)
	switch {
	case strings.HasPrefix(detected.String(), "text/"):
		if !utf8.Valid(file.Data) {
			return analysis.ResumeDocument{}, &rejection{message: MsgResumeUnreadable, outcome: "rejected"}
		}
		return s.textDocument(string(file.Data))
	case detected.Is(pdfMIME):
		if s.analyzer.AcceptsAttachments() {
			return analysis.ResumeDocument{Attachment: &ai.Attachment{MIMEType: pdfMIME, Data: file.Data}}, nil
		}
		if s.extractor == nil {
			return analysis.ResumeDocument{}, &rejection{message: MsgResumeUnreadable, outcome: "rejected"}
		}
		text, err := s.extractor.ExtractText(ctx, file.Data, file.FileName)
		if err != nil {
			return analysis.ResumeDocument{}, &rejection{message: MsgResumeUnreadable, outcome: "rejected", cause: err}
		}
		return s.textDocument(text)
	default:
		return analysis.ResumeDocument{}, &rejection{
			message: MsgResumeUnsupported,
			outcome: "rejected",
			cause:   fmt.Errorf("detected %s", detected.String()),
		}
	}
}

func (s *resumeIntakeService) textDocument(text string) (analysis.ResumeDocument, error) {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) < s.cfg.MinChars {
		return analysis.ResumeDocument{}, &rejection{message: MsgResumeTooShort, outcome: "rejected"}
	}
	return analysis.ResumeDocument{Text: trimmed}, nil
}

// upload stores the original file. Failures are logged and yield no URL.
func (s *resumeIntakeService) upload(ctx context.Context, file *ResumeFile) string {
	if s.storage == nil || file == nil {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.StorageTimeout)
	defer cancel()

	path := fmt.Sprintf("%d-%s", s.now().Unix(), sanitizeResumeName(file.FileName))
	url, err := s.storage.Upload(ctx, s.cfg.Bucket, path, bytes.NewReader(file.Data))
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("resume upload failed; continuing without file url")
		return ""
	}
	return url
}

// save persists the candidate. Failures are logged and the analysis result
// is still returned.
func (s *resumeIntakeService) save(ctx context.Context, profile models.CandidateProfile, text, url, applicantID string) string {
	if s.candidates == nil {
		return ""
	}

	candidate := models.NewCandidate(profile, text, url, models.CandidateSourceLive)
	if applicantID != "" {
		candidate.UserID = &applicantID
	}
	if err := s.candidates.Create(ctx, &candidate); err != nil {
		s.logger.Warn().Err(err).Msg("failed to save candidate; continuing anyway")
		return ""
	}
	return candidate.ID
}

func (s *resumeIntakeService) publish(ctx context.Context, result IntakeResult, mode analysis.Mode) {
	payload := map[string]interface{}{
		"candidate_id":    result.CandidateID,
		"mode":            mode,
		"readiness_score": result.Profile.GCCReadiness.Score,
		"name":            result.Profile.CandidateInfo.Name,
	}
	if err := s.publisher.Publish(ctx, events.TypeCandidateAnalyzed, result.CandidateID, payload); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish candidate event")
	}
}

func sanitizeResumeName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == "" {
		return "resume"
	}

	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
	cleaned = strings.Trim(cleaned, "-.")
	if cleaned == "" {
		return "resume"
	}
	return cleaned
}
