package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Assessment states. Transitions only move forward.
const (
	AssessmentStatusPending   = "pending"
	AssessmentStatusSubmitted = "submitted"
	AssessmentStatusEvaluated = "evaluated"
)

// Question difficulties.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Recommendations an evaluation can carry.
const (
	RecommendationStrongHire   = "Strong Hire"
	RecommendationHire         = "Hire"
	RecommendationMaybe        = "Maybe"
	RecommendationNoHire       = "No Hire"
	RecommendationManualReview = "Manual Review Required"
)

// QuestionCount is the size of every generated question set.
const QuestionCount = 5

// Question is a single coding problem.
type Question struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Difficulty     string   `json:"difficulty"`
	ExpectedSkills []string `json:"expected_skills"`
	SampleInput    string   `json:"sample_input"`
	SampleOutput   string   `json:"sample_output"`
	Hints          []string `json:"hints"`
}

// Answer is a submitted solution for one question.
type Answer struct {
	QuestionID string `json:"question_id"`
	Code       string `json:"code"`
	Language   string `json:"language"`
	Output     string `json:"output,omitempty"`
}

// QuestionScore is the per-question part of an evaluation.
type QuestionScore struct {
	QuestionID string `json:"question_id"`
	Score      int    `json:"score"`
	Feedback   string `json:"feedback"`
}

// Evaluation is the structured review of a submitted assessment.
type Evaluation struct {
	OverallScore   int             `json:"overall_score"`
	QuestionScores []QuestionScore `json:"question_scores"`
	Strengths      []string        `json:"strengths"`
	Weaknesses     []string        `json:"weaknesses"`
	Recommendation string          `json:"recommendation"`
	Notes          string          `json:"notes,omitempty"`
}

// CodingAssessment is a generated question set and its lifecycle.
type CodingAssessment struct {
	ID            string                          `gorm:"primaryKey;size:36" json:"id"`
	ApplicationID string                          `gorm:"size:36;not null;index" json:"application_id"`
	Questions     datatypes.JSONSlice[Question]   `json:"questions"`
	Answers       datatypes.JSONSlice[Answer]     `json:"answers"`
	Status        string                          `gorm:"size:16;not null;default:pending;index" json:"status"`
	AIEvaluation  datatypes.JSONType[*Evaluation] `json:"ai_evaluation"`
	SubmittedAt   *time.Time                      `json:"submitted_at,omitempty"`
	EvaluatedAt   *time.Time                      `json:"evaluated_at,omitempty"`
	CreatedAt     time.Time                       `json:"created_at"`
	UpdatedAt     time.Time                       `json:"updated_at"`
}

// BeforeCreate assigns a UUID primary key and normalises empty JSON columns.
func (a *CodingAssessment) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	if a.Answers == nil {
		a.Answers = datatypes.JSONSlice[Answer]{}
	}
	return nil
}

// Evaluation returns the stored evaluation, if any.
func (a CodingAssessment) Evaluation() *Evaluation {
	return a.AIEvaluation.Data()
}
