package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/noah-isme/gcc-pulse-api/internal/models"
	"github.com/noah-isme/gcc-pulse-api/pkg/ai"
)

// ErrInvalidQuestionSet is returned when generated questions do not form a
// complete set of five with the required difficulty mix.
var ErrInvalidQuestionSet = errors.New("invalid question set")

const resumeExcerptLimit = 1000

var requiredDifficulties = map[string]int{
	models.DifficultyEasy:   2,
	models.DifficultyMedium: 2,
	models.DifficultyHard:   1,
}

// SkillProfile is what the generator knows about a candidate.
type SkillProfile struct {
	CandidateName string
	Skills        []string
	TechnicalDNA  models.TechnicalDNA
	ResumeExcerpt string
}

// NewSkillProfile builds the generator input from a stored candidate.
func NewSkillProfile(candidate models.Candidate) SkillProfile {
	excerpt := candidate.ResumeText
	if utf8.RuneCountInString(excerpt) > resumeExcerptLimit {
		excerpt = string([]rune(excerpt)[:resumeExcerptLimit])
	}
	return SkillProfile{
		CandidateName: candidate.FullName,
		Skills:        []string(candidate.SkillsArray),
		TechnicalDNA:  candidate.TechnicalDNA.Data(),
		ResumeExcerpt: excerpt,
	}
}

// QuestionGenerator produces a coding assessment for a candidate.
type QuestionGenerator interface {
	Generate(ctx context.Context, profile SkillProfile) ([]models.Question, error)
}

// NewQuestionGenerator returns the model generator, or the fixed question bank
// when model is nil.
func NewQuestionGenerator(model ai.Model, opts Options) QuestionGenerator {
	if model == nil {
		return OfflineQuestionGenerator{}
	}
	return NewModelQuestionGenerator(model, opts.RequestTimeout, opts.Logger)
}

// ValidateQuestionSet enforces the count and difficulty mix and requires
// unique question ids.
func ValidateQuestionSet(questions []models.Question) error {
	if len(questions) != models.QuestionCount {
		return fmt.Errorf("%w: expected %d questions, got %d", ErrInvalidQuestionSet, models.QuestionCount, len(questions))
	}

	counts := make(map[string]int, len(requiredDifficulties))
	seen := make(map[string]struct{}, len(questions))
	for _, question := range questions {
		counts[question.Difficulty]++
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidQuestionSet, question.ID)
		}
		seen[question.ID] = struct{}{}
	}

	for difficulty, want := range requiredDifficulties {
		if counts[difficulty] != want {
			return fmt.Errorf("%w: expected %d %s questions, got %d", ErrInvalidQuestionSet, want, difficulty, counts[difficulty])
		}
	}
	return nil
}

// ParseQuestionSet accepts a bare JSON array or an object with a
// "questions" array and validates the result.
func ParseQuestionSet(raw string) ([]models.Question, error) {
	cleaned := StripCodeFence(raw)
	if strings.HasPrefix(cleaned, "{") {
		var wrapper struct {
			Questions json.RawMessage `json:"questions"`
		}
		if err := json.Unmarshal([]byte(cleaned), &wrapper); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if len(wrapper.Questions) == 0 {
			return nil, fmt.Errorf("%w: missing questions array", ErrInvalidQuestionSet)
		}
		cleaned = string(wrapper.Questions)
	}

	var questions []models.Question
	if err := decodeValidated(cleaned, questionSetSchema, &questions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestionSet, err)
	}
	if err := ValidateQuestionSet(questions); err != nil {
		return nil, err
	}

	for i := range questions {
		if questions[i].ExpectedSkills == nil {
			questions[i].ExpectedSkills = []string{}
		}
		if questions[i].Hints == nil {
			questions[i].Hints = []string{}
		}
	}
	return questions, nil
}

// ModelQuestionGenerator asks a generative model for questions.
type ModelQuestionGenerator struct {
	model   ai.Model
	timeout time.Duration
	logger  zerolog.Logger
}

// NewModelQuestionGenerator builds a model-backed generator.
func NewModelQuestionGenerator(model ai.Model, timeout time.Duration, logger zerolog.Logger) *ModelQuestionGenerator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ModelQuestionGenerator{
		model:   model,
		timeout: timeout,
		logger:  logger.With().Str("component", "question_generator").Logger(),
	}
}

// Generate implements QuestionGenerator. Partial sets are never accepted.
func (g *ModelQuestionGenerator) Generate(ctx context.Context, profile SkillProfile) ([]models.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.model.Generate(ctx, ai.Prompt{Text: buildQuestionPrompt(profile), JSON: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	questions, err := ParseQuestionSet(raw)
	if err != nil {
		g.logger.Warn().Err(err).Msg("generated question set rejected")
		return nil, err
	}
	return questions, nil
}

// OfflineQuestionGenerator serves a fixed question bank in demo mode.
type OfflineQuestionGenerator struct{}

// Generate implements QuestionGenerator.
func (OfflineQuestionGenerator) Generate(ctx context.Context, _ SkillProfile) ([]models.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return DemoQuestionBank(), nil
}

// DemoQuestionBank returns a fresh copy of the offline question set.
func DemoQuestionBank() []models.Question {
	return []models.Question{
		{
			ID:             "q1",
			Title:          "Two Sum Problem",
			Description:    "Given an array of integers nums and an integer target, return the indices of the two numbers that add up to target. Each input has exactly one solution and the same element may not be used twice.",
			Difficulty:     models.DifficultyEasy,
			ExpectedSkills: []string{"Arrays", "Hash Maps"},
			SampleInput:    "nums = [2,7,11,15], target = 9",
			SampleOutput:   "[0,1]",
			Hints:          []string{"Store each value's index in a map while scanning."},
		},
		{
			ID:             "q2",
			Title:          "Reverse Linked List",
			Description:    "Given the head of a singly linked list, reverse the list and return the new head.",
			Difficulty:     models.DifficultyEasy,
			ExpectedSkills: []string{"Linked Lists", "Pointers"},
			SampleInput:    "head = [1,2,3,4,5]",
			SampleOutput:   "[5,4,3,2,1]",
			Hints:          []string{"Track the previous node while walking the list."},
		},
		{
			ID:             "q3",
			Title:          "Group Anagrams",
			Description:    "Given an array of strings, group the anagrams together. The groups may be returned in any order.",
			Difficulty:     models.DifficultyMedium,
			ExpectedSkills: []string{"Strings", "Hash Maps", "Sorting"},
			SampleInput:    `strs = ["eat","tea","tan","ate","nat","bat"]`,
			SampleOutput:   `[["bat"],["nat","tan"],["ate","eat","tea"]]`,
			Hints:          []string{"Use the sorted word or a letter count as the map key."},
		},
		{
			ID:             "q4",
			Title:          "LRU Cache",
			Description:    "Design a cache with a fixed capacity that evicts the least recently used key. get and put must run in O(1) average time.",
			Difficulty:     models.DifficultyMedium,
			ExpectedSkills: []string{"System Design", "Hash Maps", "Linked Lists"},
			SampleInput:    "capacity = 2; put(1,1); put(2,2); get(1); put(3,3); get(2)",
			SampleOutput:   "1, -1",
			Hints:          []string{"Combine a map with a doubly linked list."},
		},
		{
			ID:             "q5",
			Title:          "Merge K Sorted Lists",
			Description:    "Merge k sorted linked lists into one sorted list and analyse the time complexity of your approach.",
			Difficulty:     models.DifficultyHard,
			ExpectedSkills: []string{"Heaps", "Divide and Conquer"},
			SampleInput:    "lists = [[1,4,5],[1,3,4],[2,6]]",
			SampleOutput:   "[1,1,2,3,4,4,5,6]",
			Hints:          []string{"A min-heap of list heads keeps each step O(log k)."},
		},
	}
}
