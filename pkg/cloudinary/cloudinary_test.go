package cloudinary

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSplitObjectPath(t *testing.T) {
	now := time.Unix(1700000000, 0)

	folder, id := splitObjectPath("resumes", "1700000000-jane doe.pdf", now)
	require.Equal(t, "resumes", folder)
	require.Equal(t, "1700000000-jane-doe", id)

	folder, id = splitObjectPath("/resumes/", "applicants/42/cv.pdf", now)
	require.Equal(t, "resumes/applicants/42", folder)
	require.Equal(t, "cv", id)

	_, id = splitObjectPath("resumes", "###.pdf", now)
	require.Equal(t, "upload-1700000000", id)
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo"}, zerolog.Nop())
	require.Error(t, err)
}
