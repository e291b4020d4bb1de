package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/handler"
	"github.com/noah-isme/gcc-pulse-api/internal/middleware"
)

func newPageApp() *fiber.App {
	resolver := resolverStub{identities: map[string]access.Identity{
		"admin-token":    {ID: "admin-1", Role: access.RoleRecruitingAdmin},
		"panelist-token": {ID: "panel-1", Role: access.RolePanelist},
	}}
	app := fiber.New()
	guard := middleware.PageGuard(access.NewGatekeeper(), resolver, "gcc_session", discardLogger())
	handler.NewPageHandler(resolver, "gcc_session", discardLogger()).Register(app, guard)
	return app
}

func pageRequest(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "gcc_session", Value: token})
	}
	return req
}

func TestPageCallbackRedirects(t *testing.T) {
	app := newPageApp()

	cases := []struct {
		path     string
		token    string
		location string
	}{
		{"/auth/callback?redirect=/admin/jobs", "admin-token", "/admin/jobs"},
		{"/auth/callback?redirect=https://evil.example.com", "admin-token", "/admin"},
		{"/auth/callback?redirect=//evil.example.com", "panelist-token", "/panelist"},
		{"/auth/callback", "panelist-token", "/panelist"},
		{"/auth/callback?redirect=/admin", "", "/auth/login?redirect=/admin"},
		{"/auth/callback?redirect=//evil.example.com", "", "/auth/login"},
		{"/auth/callback", "", "/auth/login"},
		{"/auth/callback?redirect=/x%0D%0ASet-Cookie:%20a=b", "admin-token", "/admin"},
		{"/auth/callback?redirect=/%09/evil.example.com", "panelist-token", "/panelist"},
		{"/auth/callback?redirect=/x%0D%0ASet-Cookie:%20a=b", "", "/auth/login"},
	}

	for _, tc := range cases {
		resp, err := app.Test(pageRequest(tc.path, tc.token))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusFound, resp.StatusCode, tc.path)
		require.Equal(t, tc.location, resp.Header.Get(fiber.HeaderLocation), tc.path)
	}
}

func TestPageRenderBehindGuard(t *testing.T) {
	app := newPageApp()

	resp, err := app.Test(pageRequest("/admin/jobs", "admin-token"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeEnvelope(t, resp)
	require.Contains(t, string(body.Data), `"path":"/admin/jobs"`)
	require.Contains(t, string(body.Data), `"home":"/admin"`)

	resp, err = app.Test(pageRequest("/admin/jobs", "panelist-token"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/panelist", resp.Header.Get(fiber.HeaderLocation))

	resp, err = app.Test(pageRequest("/dashboard", ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/auth/login?redirect=/dashboard", resp.Header.Get(fiber.HeaderLocation))

	resp, err = app.Test(pageRequest("/auth/login", "admin-token"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/admin", resp.Header.Get(fiber.HeaderLocation))

	resp, err = app.Test(pageRequest("/auth/forgot-password", ""))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
