package server

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webOrigin = "http://localhost:5173"

func fromOrigin(origin string) http.Header {
	h := http.Header{}
	h.Set("Origin", origin)
	return h
}

// exhaustGlobalLimit spends the per-IP budget shared by every route.
func exhaustGlobalLimit(t *testing.T, env *testEnv) {
	t.Helper()
	for i := 0; i < 100; i++ {
		resp, body := env.do(t, request{method: http.MethodGet, path: "/api/v1/feature-flags", header: fromOrigin(webOrigin)})
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d: %s", i+1, body.Message)
	}
}

func TestAPI_CORSAllowsConfiguredOrigin(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, request{method: http.MethodGet, path: "/api/v1/feature-flags", header: fromOrigin(webOrigin)})
	assert.Equal(t, webOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp, _ = env.do(t, request{method: http.MethodGet, path: "/api/v1/feature-flags", header: fromOrigin("https://elsewhere.example")})
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_RateLimitedResponseKeepsCORSHeaders(t *testing.T) {
	env := newTestEnv(t)
	exhaustGlobalLimit(t, env)

	// The budget is per client, not per route.
	resp, body := env.do(t, request{method: http.MethodGet, path: "/api/v1/videos", header: fromOrigin(webOrigin)})
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "Too many requests, please try again later.", body.Message)
	assert.Equal(t, fiber.StatusTooManyRequests, body.StatusCode)
	assert.False(t, body.Success)
	assert.Equal(t, webOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_PreflightBypassesRateLimit(t *testing.T) {
	env := newTestEnv(t)
	exhaustGlobalLimit(t, env)

	user := env.seedUser(t, "uploader")
	resp, _ := env.do(t, request{
		method: http.MethodPost,
		path:   "/api/v1/videos",
		token:  env.tokenFor(t, user.ID),
		header: fromOrigin(webOrigin),
	})
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	h := fromOrigin(webOrigin)
	h.Set("Access-Control-Request-Method", http.MethodPost)
	h.Set("Access-Control-Request-Headers", "authorization,content-type")
	resp, _ = env.do(t, request{method: http.MethodOptions, path: "/api/v1/videos", header: h})

	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, webOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.Equal(t, "86400", resp.Header.Get("Access-Control-Max-Age"))
}
