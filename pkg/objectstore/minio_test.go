package objectstore

import (
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	require.Equal(t, "http://localhost:9000/resumes/1700-cv.pdf", PublicURL("http://localhost:9000/", "resumes", "1700-cv.pdf"))
	require.Equal(t, "https://cdn.example.com/resumes/a/jane%20doe.pdf", PublicURL("https://cdn.example.com", "resumes", "/a/jane doe.pdf"))
}

func TestDetectReaderReplaysHeader(t *testing.T) {
	body := "%PDF-1.7\n" + strings.Repeat("x", 5000)
	mtype, reader, err := detectReader(strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, "application/pdf", mtype)

	replayed, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, body, string(replayed))
}

func TestNewMinIORequiresEndpoint(t *testing.T) {
	_, err := NewMinIO(Config{}, zerolog.Nop())
	require.Error(t, err)

	store, err := NewMinIO(Config{Endpoint: "localhost:9000", UseSSL: true}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "https://localhost:9000", store.baseURL())
}
