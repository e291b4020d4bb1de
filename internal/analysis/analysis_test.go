package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
	"github.com/noah-isme/gcc-pulse-api/pkg/ai"
)

type stubModel struct {
	response    string
	err         error
	attachments bool
	calls       int
	prompts     []ai.Prompt
}

func (s *stubModel) Name() string              { return "stub" }
func (s *stubModel) SupportsAttachments() bool { return s.attachments }

func (s *stubModel) Generate(_ context.Context, prompt ai.Prompt) (string, error) {
	s.calls++
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func mustJSON(t *testing.T, value interface{}) string {
	t.Helper()
	encoded, err := json.Marshal(value)
	require.NoError(t, err)
	return string(encoded)
}

func TestStripCodeFence(t *testing.T) {
	require.Equal(t, `{"a":1}`, StripCodeFence("```json\n{\"a\":1}\n```"))
	require.Equal(t, `{"a":1}`, StripCodeFence("```JSON {\"a\":1}```"))
	require.Equal(t, `[1]`, StripCodeFence("  [1]  "))
}

func TestNewResumeAnalyzerSelectsMode(t *testing.T) {
	require.Equal(t, ModeDemo, NewResumeAnalyzer(nil, Options{}).Mode())

	live := NewResumeAnalyzer(&stubModel{attachments: true}, Options{Logger: zerolog.Nop()})
	require.Equal(t, ModeLive, live.Mode())
	require.True(t, live.AcceptsAttachments())
}

func TestDemoProfileExtractsContactDetails(t *testing.T) {
	text := "Jane Doe\njane.doe@x.com\n+1 555 123 4567\nSenior engineer building distributed systems for a decade."

	profile := DemoProfile(text)
	require.Equal(t, "Jane Doe", profile.CandidateInfo.Name)
	require.Equal(t, "jane.doe@x.com", profile.CandidateInfo.Email)
	require.True(t, strings.HasPrefix(profile.CandidateInfo.Phone, "+1 555"), profile.CandidateInfo.Phone)

	readiness := profile.GCCReadiness
	for _, score := range []int{readiness.Score, readiness.ScalabilityMindset, readiness.CrossTeamCommunication, readiness.SystemDesign} {
		require.GreaterOrEqual(t, score, 0)
		require.LessOrEqual(t, score, 100)
	}
	require.NoError(t, ValidateProfile(profile))
}

func TestDemoProfileDefaultsWhenNothingMatches(t *testing.T) {
	profile := DemoProfile("lowercase text only, no contact details here at all whatsoever")
	require.Equal(t, "John Doe", profile.CandidateInfo.Name)
	require.Equal(t, models.NotProvided, profile.CandidateInfo.Email)
	require.Equal(t, models.NotProvided, profile.CandidateInfo.Phone)
	require.NoError(t, ValidateProfile(profile))
}

func TestDemoProfileAlwaysValid(t *testing.T) {
	inputs := []string{
		"",
		"A",
		"Alan Turing\nalan@bletchley.uk",
		strings.Repeat("Resume line 42 with numbers 123-456\n", 40),
	}
	for _, input := range inputs {
		require.NoError(t, ValidateProfile(DemoProfile(input)))
	}
}

func TestOfflineAnalyzerHonoursContext(t *testing.T) {
	analyzer := NewOfflineAnalyzer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := analyzer.Analyze(ctx, ResumeDocument{Text: "Jane Doe"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestModelBackedAnalyzerParsesFencedResponse(t *testing.T) {
	profile := DemoProfile("Priya Sharma\npriya@example.com")
	profile.CandidateInfo.Location = ""
	model := &stubModel{response: "```json\n" + mustJSON(t, profile) + "\n```"}
	analyzer := NewModelBackedAnalyzer(model, time.Second, zerolog.Nop())

	result, err := analyzer.Analyze(context.Background(), ResumeDocument{Text: "resume body"})
	require.NoError(t, err)
	require.Equal(t, "Priya Sharma", result.CandidateInfo.Name)
	require.Equal(t, models.NotSpecified, result.CandidateInfo.Location)
	require.Equal(t, 1, model.calls)
	require.True(t, model.prompts[0].JSON)
	require.Contains(t, model.prompts[0].Text, "RESUME:\nresume body")
}

func TestModelBackedAnalyzerForwardsAttachment(t *testing.T) {
	model := &stubModel{response: mustJSON(t, DemoProfile("Jane Doe")), attachments: true}
	analyzer := NewModelBackedAnalyzer(model, time.Second, zerolog.Nop())

	attachment := &ai.Attachment{MIMEType: "application/pdf", Data: []byte("%PDF-1.4")}
	_, err := analyzer.Analyze(context.Background(), ResumeDocument{Attachment: attachment})
	require.NoError(t, err)
	require.Same(t, attachment, model.prompts[0].Attachment)
}

func TestModelBackedAnalyzerRejectsMissingRequiredFields(t *testing.T) {
	required := []string{"candidate_info", "technical_dna", "gcc_readiness", "skills_array", "flight_risk"}
	for _, key := range required {
		var document map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(mustJSON(t, DemoProfile("Jane Doe"))), &document))
		delete(document, key)

		model := &stubModel{response: mustJSON(t, document)}
		_, err := NewModelBackedAnalyzer(model, time.Second, zerolog.Nop()).Analyze(context.Background(), ResumeDocument{Text: "x"})
		require.ErrorIs(t, err, ErrSchemaViolation, key)
	}
}

func TestParseProfileRejectsOutOfRangeScores(t *testing.T) {
	profile := DemoProfile("Jane Doe")
	profile.GCCReadiness.Score = 101
	_, err := ParseProfile(mustJSON(t, profile))
	require.ErrorIs(t, err, ErrSchemaViolation)

	profile = DemoProfile("Jane Doe")
	profile.TechnicalDNA.ProjectComplexityScore = 0
	_, err = ParseProfile(mustJSON(t, profile))
	require.ErrorIs(t, err, ErrSchemaViolation)

	profile = DemoProfile("Jane Doe")
	profile.FlightRisk.RiskLevel = "Extreme"
	_, err = ParseProfile(mustJSON(t, profile))
	require.ErrorIs(t, err, ErrSchemaViolation)
}

func TestModelBackedAnalyzerFailures(t *testing.T) {
	model := &stubModel{err: errors.New("deadline exceeded")}
	_, err := NewModelBackedAnalyzer(model, time.Second, zerolog.Nop()).Analyze(context.Background(), ResumeDocument{Text: "x"})
	require.ErrorIs(t, err, ErrModelUnavailable)

	model = &stubModel{response: "I could not read this resume"}
	_, err = NewModelBackedAnalyzer(model, time.Second, zerolog.Nop()).Analyze(context.Background(), ResumeDocument{Text: "x"})
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestParseQuestionSetAcceptsArrayAndWrapper(t *testing.T) {
	bank := DemoQuestionBank()

	questions, err := ParseQuestionSet("```json\n" + mustJSON(t, bank) + "\n```")
	require.NoError(t, err)
	require.Len(t, questions, models.QuestionCount)

	questions, err = ParseQuestionSet(mustJSON(t, map[string]interface{}{"questions": bank}))
	require.NoError(t, err)
	require.Equal(t, bank, questions)
}

func TestParseQuestionSetRejectsWrongCountOrMix(t *testing.T) {
	bank := DemoQuestionBank()

	_, err := ParseQuestionSet(mustJSON(t, bank[:4]))
	require.ErrorIs(t, err, ErrInvalidQuestionSet)

	_, err = ParseQuestionSet(mustJSON(t, append(DemoQuestionBank(), bank[0])))
	require.ErrorIs(t, err, ErrInvalidQuestionSet)

	skewed := DemoQuestionBank()
	skewed[4].Difficulty = models.DifficultyEasy
	_, err = ParseQuestionSet(mustJSON(t, skewed))
	require.ErrorIs(t, err, ErrInvalidQuestionSet)

	duplicate := DemoQuestionBank()
	duplicate[1].ID = duplicate[0].ID
	_, err = ParseQuestionSet(mustJSON(t, duplicate))
	require.ErrorIs(t, err, ErrInvalidQuestionSet)

	_, err = ParseQuestionSet("not json")
	require.ErrorIs(t, err, ErrInvalidQuestionSet)
}

func TestModelQuestionGeneratorUsesProfile(t *testing.T) {
	model := &stubModel{response: mustJSON(t, DemoQuestionBank())}
	generator := NewModelQuestionGenerator(model, time.Second, zerolog.Nop())

	questions, err := generator.Generate(context.Background(), SkillProfile{
		CandidateName: "Jane Doe",
		Skills:        []string{"Go", "Kafka"},
		ResumeExcerpt: "Built payment systems",
	})
	require.NoError(t, err)
	require.Len(t, questions, models.QuestionCount)
	require.Contains(t, model.prompts[0].Text, "Go, Kafka")
	require.Contains(t, model.prompts[0].Text, "Built payment systems")
}

func TestModelQuestionGeneratorReadsWrappedQuestions(t *testing.T) {
	bank := DemoQuestionBank()
	model := &stubModel{response: "```json\n" + mustJSON(t, map[string]interface{}{"questions": bank}) + "\n```"}

	questions, err := NewModelQuestionGenerator(model, time.Second, zerolog.Nop()).Generate(context.Background(), SkillProfile{})
	require.NoError(t, err)
	require.Equal(t, bank, questions)
	require.Contains(t, model.prompts[0].Text, `{"questions": [{"id": "q1"`)
	require.NotContains(t, model.prompts[0].Text, "JSON array")
}

func TestParseQuestionSetRejectsEmptyWrapper(t *testing.T) {
	_, err := ParseQuestionSet(`{"items": []}`)
	require.ErrorIs(t, err, ErrInvalidQuestionSet)

	_, err = ParseQuestionSet(`{"questions": [`)
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestModelQuestionGeneratorFailsOnPartialSet(t *testing.T) {
	model := &stubModel{response: mustJSON(t, DemoQuestionBank()[:3])}
	_, err := NewModelQuestionGenerator(model, time.Second, zerolog.Nop()).Generate(context.Background(), SkillProfile{})
	require.ErrorIs(t, err, ErrInvalidQuestionSet)
}

func TestNewSkillProfileTruncatesResume(t *testing.T) {
	candidate := models.NewCandidate(DemoProfile("Jane Doe"), strings.Repeat("é", 1500), "", models.CandidateSourceLive)
	profile := NewSkillProfile(candidate)
	require.Equal(t, 1000, len([]rune(profile.ResumeExcerpt)))
	require.Equal(t, "Jane Doe", profile.CandidateName)
	require.Contains(t, profile.Skills, "React")
}

func TestOfflineQuestionGeneratorSatisfiesMix(t *testing.T) {
	questions, err := OfflineQuestionGenerator{}.Generate(context.Background(), SkillProfile{})
	require.NoError(t, err)
	require.NoError(t, ValidateQuestionSet(questions))
}

func TestModelAnswerEvaluatorParsesResponse(t *testing.T) {
	evaluation := models.Evaluation{
		OverallScore:   78,
		QuestionScores: []models.QuestionScore{{QuestionID: "q1", Score: 90, Feedback: "clean"}},
		Strengths:      []string{"Clear code"},
		Weaknesses:     []string{"Missed edge cases"},
		Recommendation: models.RecommendationHire,
	}
	model := &stubModel{response: mustJSON(t, evaluation)}

	result := NewModelAnswerEvaluator(model, time.Second, zerolog.Nop()).Evaluate(context.Background(), DemoQuestionBank(), nil)
	require.Equal(t, evaluation, result)
}

func TestModelAnswerEvaluatorDegradesOnFailure(t *testing.T) {
	cases := []*stubModel{
		{response: "this is not json"},
		{response: `{"overall_score": 50}`},
		{response: `{"overall_score": 150, "question_scores": [], "strengths": [], "weaknesses": [], "recommendation": "Hire"}`},
		{response: `{"overall_score": 50, "question_scores": [], "strengths": [], "weaknesses": [], "recommendation": "Definitely"}`},
		{err: context.DeadlineExceeded},
	}

	for _, model := range cases {
		result := NewModelAnswerEvaluator(model, time.Second, zerolog.Nop()).Evaluate(context.Background(), nil, nil)
		require.Equal(t, 0, result.OverallScore)
		require.Equal(t, models.RecommendationManualReview, result.Recommendation)
		require.NotEmpty(t, result.Weaknesses)
	}
}

func TestOfflineAnswerEvaluatorReturnsDegradedResult(t *testing.T) {
	result := OfflineAnswerEvaluator{}.Evaluate(context.Background(), nil, nil)
	require.Equal(t, models.RecommendationManualReview, result.Recommendation)
	require.NotEmpty(t, result.Weaknesses)
	require.NotEmpty(t, result.Notes)
}
