package analysis

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
	"github.com/noah-isme/gcc-pulse-api/pkg/ai"
)

const (
	degradedWeakness   = "Automated evaluation failed; manual review required"
	demoEvaluationNote = "Demo mode: no evaluation model is configured"
)

// AnswerEvaluator reviews submitted answers. It never fails: any problem
// yields the degraded evaluation.
type AnswerEvaluator interface {
	Evaluate(ctx context.Context, questions []models.Question, answers []models.Answer) models.Evaluation
}

// NewAnswerEvaluator returns the model evaluator, or the offline evaluator
// when model is nil.
func NewAnswerEvaluator(model ai.Model, opts Options) AnswerEvaluator {
	if model == nil {
		return OfflineAnswerEvaluator{}
	}
	return NewModelAnswerEvaluator(model, opts.RequestTimeout, opts.Logger)
}

// DegradedEvaluation is the result handed to human reviewers when automated
// evaluation is not possible.
func DegradedEvaluation(note string) models.Evaluation {
	return models.Evaluation{
		OverallScore:   0,
		QuestionScores: []models.QuestionScore{},
		Strengths:      []string{},
		Weaknesses:     []string{degradedWeakness},
		Recommendation: models.RecommendationManualReview,
		Notes:          note,
	}
}

// ParseEvaluation strips fences and validates an evaluation response.
func ParseEvaluation(raw string) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := decodeValidated(StripCodeFence(raw), evaluationSchema, &evaluation); err != nil {
		return models.Evaluation{}, err
	}
	if evaluation.QuestionScores == nil {
		evaluation.QuestionScores = []models.QuestionScore{}
	}
	if evaluation.Strengths == nil {
		evaluation.Strengths = []string{}
	}
	if evaluation.Weaknesses == nil {
		evaluation.Weaknesses = []string{}
	}
	return evaluation, nil
}

// ModelAnswerEvaluator grades answers with a generative model.
type ModelAnswerEvaluator struct {
	model   ai.Model
	timeout time.Duration
	logger  zerolog.Logger
}

// NewModelAnswerEvaluator builds a model-backed evaluator.
func NewModelAnswerEvaluator(model ai.Model, timeout time.Duration, logger zerolog.Logger) *ModelAnswerEvaluator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ModelAnswerEvaluator{
		model:   model,
		timeout: timeout,
		logger:  logger.With().Str("component", "answer_evaluator").Logger(),
	}
}

// Evaluate implements AnswerEvaluator.
func (e *ModelAnswerEvaluator) Evaluate(ctx context.Context, questions []models.Question, answers []models.Answer) models.Evaluation {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.model.Generate(ctx, ai.Prompt{Text: buildEvaluationPrompt(questions, answers), JSON: true})
	if err != nil {
		e.logger.Warn().Err(err).Msg("evaluation model call failed")
		return DegradedEvaluation("")
	}

	evaluation, err := ParseEvaluation(raw)
	if err != nil {
		e.logger.Warn().Err(err).Int("response_length", len(raw)).Msg("evaluation response rejected")
		return DegradedEvaluation("")
	}
	return evaluation
}

// OfflineAnswerEvaluator always returns the degraded result with a demo note.
type OfflineAnswerEvaluator struct{}

// Evaluate implements AnswerEvaluator.
func (OfflineAnswerEvaluator) Evaluate(context.Context, []models.Question, []models.Answer) models.Evaluation {
	return DegradedEvaluation(demoEvaluationNote)
}
