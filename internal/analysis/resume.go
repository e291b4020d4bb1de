package analysis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
	"github.com/noah-isme/gcc-pulse-api/pkg/ai"
)

// Mode tells callers whether a result came from the live model.
type Mode string

// Analyzer modes.
const (
	ModeLive Mode = "live"
	ModeDemo Mode = "demo"
)

// ErrModelUnavailable wraps failed or timed out model calls.
var ErrModelUnavailable = errors.New("resume analysis model unavailable")

// ResumeDocument is the analyser input: plain text, an inline binary
// attachment, or both.
type ResumeDocument struct {
	Text       string
	Attachment *ai.Attachment
}

// ResumeAnalyzer turns a resume into a validated CandidateProfile.
type ResumeAnalyzer interface {
	Mode() Mode
	AcceptsAttachments() bool
	Analyze(ctx context.Context, doc ResumeDocument) (models.CandidateProfile, error)
}

// Options configures analyser selection.
type Options struct {
	DemoDelay      time.Duration
	RequestTimeout time.Duration
	Logger         zerolog.Logger
}

// NewResumeAnalyzer picks the live analyser when a model is configured and
// the offline analyser otherwise. The choice is made once at startup.
func NewResumeAnalyzer(model ai.Model, opts Options) ResumeAnalyzer {
	if model == nil {
		return NewOfflineAnalyzer(opts.DemoDelay)
	}
	return NewModelBackedAnalyzer(model, opts.RequestTimeout, opts.Logger)
}

// OfflineAnalyzer derives a best-effort profile from simple patterns. It is
// used when no model credential is configured.
type OfflineAnalyzer struct {
	delay time.Duration
}

// NewOfflineAnalyzer builds the demo analyser.
func NewOfflineAnalyzer(delay time.Duration) *OfflineAnalyzer {
	return &OfflineAnalyzer{delay: delay}
}

// Mode implements ResumeAnalyzer.
func (a *OfflineAnalyzer) Mode() Mode { return ModeDemo }

// AcceptsAttachments implements ResumeAnalyzer.
func (a *OfflineAnalyzer) AcceptsAttachments() bool { return false }

// Analyze waits for the configured delay to mimic model latency and then
// returns the demo profile.
func (a *OfflineAnalyzer) Analyze(ctx context.Context, doc ResumeDocument) (models.CandidateProfile, error) {
	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return models.CandidateProfile{}, ctx.Err()
		case <-timer.C:
		}
	}
	return DemoProfile(doc.Text), nil
}

var (
	namePattern  = regexp.MustCompile(`(?m)^([A-Z][A-Za-z]+(?:[ \t]+[A-Z][A-Za-z]+)+)`)
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`[+]?[(]?[0-9]{1,4}[)]?[-\s.]?[(]?[0-9]{1,4}[)]?[-\s.]?[0-9]{1,9}`)
)

const defaultDemoName = "John Doe"

// DemoProfile extracts name, email and phone from text and fills the rest
// with a fixed illustrative profile.
func DemoProfile(text string) models.CandidateProfile {
	name := defaultDemoName
	if match := namePattern.FindStringSubmatch(text); match != nil {
		name = match[1]
	}
	email := models.NotProvided
	if match := emailPattern.FindString(text); match != "" {
		email = match
	}
	phone := models.NotProvided
	if match := phonePattern.FindString(text); match != "" {
		phone = strings.TrimSpace(match)
	}

	return models.CandidateProfile{
		CandidateInfo: models.CandidateInfo{
			Name:     name,
			Email:    email,
			Phone:    phone,
			Location: "Bangalore, India",
		},
		TechnicalDNA: models.TechnicalDNA{
			PrimaryStack:           []string{"React", "Node.js", "AWS", "PostgreSQL"},
			YearsExperience:        5,
			ProjectComplexityScore: 8,
			ProficiencyLevels: map[string]int{
				"React":         90,
				"Node.js":       85,
				"AWS":           80,
				"System Design": 75,
				"PostgreSQL":    85,
			},
		},
		GCCReadiness: models.GCCReadiness{
			Score:                  85,
			ReasoningSummary:       "Strong technical background with proven experience building scalable systems. Good potential for GCC roles.",
			CulturalFitNotes:       "Shows collaboration in distributed teams with solid documentation and communication habits.",
			ScalabilityMindset:     82,
			CrossTeamCommunication: 88,
			SystemDesign:           80,
		},
		SkillsArray: []string{"React", "Node.js", "AWS", "PostgreSQL", "Docker", "Kubernetes", "System Design"},
		FlightRisk: models.FlightRisk{
			RiskLevel: models.RiskLow,
			Reason:    "Stable career progression with average tenure of 2-3 years per company.",
		},
		Strengths: []string{
			"Strong full-stack development capabilities",
			"Experience with cloud infrastructure and DevOps",
			"Good understanding of system architecture",
		},
		Gaps: []string{
			"Could use more experience with large-scale distributed systems",
			"Limited evidence of cross-timezone collaboration",
		},
		RecommendedRole: "Senior Backend Engineer",
	}
}

// ModelBackedAnalyzer sends the resume to a generative model and validates
// the JSON it returns.
type ModelBackedAnalyzer struct {
	model   ai.Model
	timeout time.Duration
	logger  zerolog.Logger
}

// NewModelBackedAnalyzer builds the live analyser.
func NewModelBackedAnalyzer(model ai.Model, timeout time.Duration, logger zerolog.Logger) *ModelBackedAnalyzer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ModelBackedAnalyzer{
		model:   model,
		timeout: timeout,
		logger:  logger.With().Str("component", "resume_analyzer").Str("model", model.Name()).Logger(),
	}
}

// Mode implements ResumeAnalyzer.
func (a *ModelBackedAnalyzer) Mode() Mode { return ModeLive }

// AcceptsAttachments reports whether binary resumes can be sent as-is.
func (a *ModelBackedAnalyzer) AcceptsAttachments() bool { return a.model.SupportsAttachments() }

// Analyze runs a single bounded model call.
func (a *ModelBackedAnalyzer) Analyze(ctx context.Context, doc ResumeDocument) (models.CandidateProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := ai.Prompt{Text: buildResumePrompt(doc.Text), JSON: true}
	if doc.Attachment != nil {
		prompt.Attachment = doc.Attachment
	}

	raw, err := a.model.Generate(ctx, prompt)
	if err != nil {
		return models.CandidateProfile{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	profile, err := ParseProfile(raw)
	if err != nil {
		a.logger.Warn().Err(err).Int("response_length", len(raw)).Msg("resume analysis response rejected")
		return models.CandidateProfile{}, err
	}
	return profile, nil
}

// ParseProfile strips fences, validates and normalises a model response.
func ParseProfile(raw string) (models.CandidateProfile, error) {
	var profile models.CandidateProfile
	if err := decodeValidated(StripCodeFence(raw), candidateProfileSchema, &profile); err != nil {
		return models.CandidateProfile{}, err
	}

	info := &profile.CandidateInfo
	if strings.TrimSpace(info.Email) == "" {
		info.Email = models.NotProvided
	}
	if strings.TrimSpace(info.Phone) == "" {
		info.Phone = models.NotProvided
	}
	if strings.TrimSpace(info.Location) == "" {
		info.Location = models.NotSpecified
	}
	if profile.SkillsArray == nil {
		profile.SkillsArray = []string{}
	}
	if profile.TechnicalDNA.ProficiencyLevels == nil {
		profile.TechnicalDNA.ProficiencyLevels = map[string]int{}
	}
	return profile, nil
}
