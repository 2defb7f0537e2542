package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestIssueAndParseToken(t *testing.T) {
	signed, issued, err := IssueToken(testSecret, 123, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, issued.JTI)

	claims, err := ParseToken(testSecret, signed)
	require.NoError(t, err)
	assert.Equal(t, uint(123), claims.UserID)
	assert.Equal(t, issued.JTI, claims.JTI)
	assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt, time.Second)
}

func TestParseToken_Rejections(t *testing.T) {
	sign := func(claims jwt.MapClaims, secret string) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub": strconv.Itoa(7),
			"iss": TokenIssuer,
			"aud": TokenAudience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
	}

	expired := base()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	wrongIssuer := base()
	wrongIssuer["iss"] = "someone-else"
	wrongAudience := base()
	wrongAudience["aud"] = "other-client"
	badSubject := base()
	badSubject["sub"] = "not-a-number"
	noExpiry := base()
	delete(noExpiry, "exp")

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"wrong secret", sign(base(), "another-secret")},
		{"expired", sign(expired, testSecret)},
		{"wrong issuer", sign(wrongIssuer, testSecret)},
		{"wrong audience", sign(wrongAudience, testSecret)},
		{"bad subject", sign(badSubject, testSecret)},
		{"no expiry", sign(noExpiry, testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(testSecret, tt.token)
			assert.Error(t, err)
		})
	}
}

func TestExtractToken(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(ExtractToken(c))
	})

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		expected string
	}{
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"}) }, "from-cookie"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer from-header") }, "from-header"},
		{"cookie wins", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "from-cookie"})
			r.Header.Set("Authorization", "Bearer from-header")
		}, "from-cookie"},
		{"basic ignored", func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwYXNz") }, ""},
		{"none", func(r *http.Request) {}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			resp, err := app.Test(req)
			require.NoError(t, err)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.expected, string(body))
		})
	}
}
