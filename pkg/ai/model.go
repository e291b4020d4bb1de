package ai

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrAttachmentsUnsupported is returned by models that only accept text.
var ErrAttachmentsUnsupported = errors.New("model does not accept binary attachments")

// ErrEmptyResponse is returned when the provider answers without content.
var ErrEmptyResponse = errors.New("model returned no content")

// Attachment is an inline binary document, for example a PDF resume.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Prompt is a single request to a generative model.
type Prompt struct {
	System     string
	Text       string
	Attachment *Attachment
	// JSON asks the provider to constrain its output to a JSON document.
	JSON bool
}

// Model is a generative text model.
type Model interface {
	Name() string
	SupportsAttachments() bool
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

const minAPIKeyLength = 20

var placeholderKey = regexp.MustCompile(`(?i)^your_[a-z0-9_]*api_key_here$`)

// HasUsableAPIKey reports whether key looks like a real credential rather than
// an empty value or the template placeholder.
func HasUsableAPIKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" || placeholderKey.MatchString(key) {
		return false
	}
	return len(key) >= minAPIKeyLength
}
