package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoparser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"
)

// ErrNotPDF is returned when the payload lacks a PDF header.
var ErrNotPDF = errors.New("document is not a pdf")

// ErrNoText is returned when a PDF yields no extractable text.
var ErrNoText = errors.New("pdf contains no extractable text")

const defaultTimeout = 30 * time.Second

// PDFExtractor pulls plain text out of PDF resumes.
type PDFExtractor struct {
	parser  *pdf.PDFParser
	timeout time.Duration
	logger  zerolog.Logger
}

// NewPDFExtractor builds an extractor that returns the whole document as one
// text block.
func NewPDFExtractor(ctx context.Context, timeout time.Duration, logger zerolog.Logger) (*PDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("create pdf parser: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &PDFExtractor{
		parser:  p,
		timeout: timeout,
		logger:  logger.With().Str("component", "pdf_extractor").Logger(),
	}, nil
}

// ExtractText returns the text content of data. uri is only used for tracing
// the source document.
func (e *PDFExtractor) ExtractText(ctx context.Context, data []byte, uri string) (string, error) {
	if !IsPDF(data) {
		return "", ErrNotPDF
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	docs, err := e.parser.Parse(ctx, bytes.NewReader(data), einoparser.WithURI(uri))
	if err != nil {
		return "", fmt.Errorf("parse pdf %s: %w", uri, err)
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if content := strings.TrimSpace(doc.Content); content != "" {
			parts = append(parts, content)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoText
	}

	text := strings.Join(parts, "\n\n")
	e.logger.Debug().
		Str("uri", uri).
		Int("documents", len(docs)).
		Int("chars", len(text)).
		Dur("duration", time.Since(start)).
		Msg("pdf text extracted")

	return text, nil
}

// IsPDF reports whether data starts with a PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF-"))
}
