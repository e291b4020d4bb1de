package models

import "github.com/google/uuid"

// All lists every persisted model for schema migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Candidate{},
		&Job{},
		&Application{},
		&CodingAssessment{},
	}
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
