package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

func discardLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var body envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

// asIdentity installs a fixed caller ahead of the handlers under test.
func asIdentity(identity access.Identity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		middleware.SetIdentity(c, identity)
		return c.Next()
	}
}

type resolverStub struct {
	identities map[string]access.Identity
}

func (r resolverStub) Verify(_ context.Context, token string) (access.Identity, error) {
	identity, ok := r.identities[token]
	if !ok {
		return access.Identity{}, context.Canceled
	}
	return identity, nil
}
