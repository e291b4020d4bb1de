package dto

import (
	"time"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
)

// AnswerRequest is one submitted solution.
type AnswerRequest struct {
	QuestionID string `json:"question_id"`
	Code       string `json:"code"`
	Language   string `json:"language"`
}

// SubmitAssessmentRequest carries every answer for an assessment.
type SubmitAssessmentRequest struct {
	Answers []AnswerRequest `json:"answers"`
}

// ToModels converts the request answers to their stored form.
func (r SubmitAssessmentRequest) ToModels() []models.Answer {
	answers := make([]models.Answer, 0, len(r.Answers))
	for _, answer := range r.Answers {
		answers = append(answers, models.Answer{
			QuestionID: answer.QuestionID,
			Code:       answer.Code,
			Language:   answer.Language,
		})
	}
	return answers
}

// AssessmentResponse represents a coding assessment to API consumers.
type AssessmentResponse struct {
	ID            string             `json:"id"`
	ApplicationID string             `json:"application_id"`
	Status        string             `json:"status"`
	Questions     []models.Question  `json:"questions"`
	Answers       []models.Answer    `json:"answers,omitempty"`
	Evaluation    *models.Evaluation `json:"ai_evaluation,omitempty"`
	SubmittedAt   *time.Time         `json:"submitted_at,omitempty"`
	EvaluatedAt   *time.Time         `json:"evaluated_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// NewAssessmentResponse builds the response DTO. Reviewers see answers and
// the evaluation; applicants only see questions and status.
func NewAssessmentResponse(assessment models.CodingAssessment, includeReview bool) AssessmentResponse {
	response := AssessmentResponse{
		ID:            assessment.ID,
		ApplicationID: assessment.ApplicationID,
		Status:        assessment.Status,
		Questions:     []models.Question(assessment.Questions),
		SubmittedAt:   assessment.SubmittedAt,
		EvaluatedAt:   assessment.EvaluatedAt,
		CreatedAt:     assessment.CreatedAt,
	}
	if response.Questions == nil {
		response.Questions = []models.Question{}
	}

	if includeReview {
		response.Answers = []models.Answer(assessment.Answers)
		response.Evaluation = assessment.Evaluation()
	}

	return response
}
