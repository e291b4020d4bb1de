package analysis

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrMalformedResponse is returned when the model output is not JSON.
	ErrMalformedResponse = errors.New("model response is not valid JSON")
	// ErrSchemaViolation is returned when the model output does not match the expected shape.
	ErrSchemaViolation = errors.New("model response does not match schema")
)

var (
	//go:embed schemas/candidate_profile.schema.json
	candidateProfileSchemaSource string
	//go:embed schemas/question_set.schema.json
	questionSetSchemaSource string
	//go:embed schemas/evaluation.schema.json
	evaluationSchemaSource string

	candidateProfileSchema = jsonschema.MustCompileString("schemas/candidate_profile.schema.json", candidateProfileSchemaSource)
	questionSetSchema      = jsonschema.MustCompileString("schemas/question_set.schema.json", questionSetSchemaSource)
	evaluationSchema       = jsonschema.MustCompileString("schemas/evaluation.schema.json", evaluationSchemaSource)
)

var fenceMarker = regexp.MustCompile("(?i)```(?:json)?")

// StripCodeFence removes markdown code fences models like to wrap JSON in.
func StripCodeFence(raw string) string {
	return strings.TrimSpace(fenceMarker.ReplaceAllString(raw, ""))
}

// decodeValidated parses raw, validates it against schema and only then
// decodes it into target, so a partially valid document never escapes.
func decodeValidated(raw string, schema *jsonschema.Schema, target interface{}) error {
	var document interface{}
	if err := json.Unmarshal([]byte(raw), &document); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := schema.Validate(document); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}

// ValidateProfile checks an already typed profile against the schema.
func ValidateProfile(profile interface{}) error {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	var document interface{}
	if err := json.Unmarshal(encoded, &document); err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}
	if err := candidateProfileSchema.Validate(document); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}
