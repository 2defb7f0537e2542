package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"tubbit/internal/config"
	"tubbit/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func TestStateStore_SingleUse(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewStateStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	state, err := store.Issue(ctx, "github")
	require.NoError(t, err)
	assert.Equal(t, StateTTL, mr.TTL(stateKey(state)))

	require.NoError(t, store.Consume(ctx, state, "github"))
	assert.ErrorIs(t, store.Consume(ctx, state, "github"), ErrInvalidState)
	assert.ErrorIs(t, store.Consume(ctx, "", "github"), ErrInvalidState)
}

func TestStateStore_ProviderMismatchAndExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewStateStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	ctx := context.Background()

	state, err := store.Issue(ctx, "google")
	require.NoError(t, err)
	assert.ErrorIs(t, store.Consume(ctx, state, "github"), ErrInvalidState)

	late, err := store.Issue(ctx, "google")
	require.NoError(t, err)
	mr.FastForward(StateTTL + 1)
	assert.ErrorIs(t, store.Consume(ctx, late, "google"), ErrInvalidState)
}

func TestRegistry(t *testing.T) {
	r := NewRegistryFromConfig(&config.Config{
		OAuthRedirectBaseURL: "https://api.tubbit.test/",
		GithubClientID:       "id",
		GithubClientSecret:   "secret",
	})

	p, err := r.Get(" GitHub ")
	require.NoError(t, err)
	assert.Equal(t, models.AuthTypeGithub, p.Name())
	assert.Contains(t, p.AuthCodeURL("st"), "state=st")
	assert.Contains(t, p.AuthCodeURL("st"), "redirect_uri=https%3A%2F%2Fapi.tubbit.test%2Fapi%2Fv1%2Fauth%2Foauth%2Fgithub%2Fcallback")

	_, err = r.Get("google")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	var nilRegistry *Registry
	_, err = nilRegistry.Get("github")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestGithubProfile_PrefersPrimaryVerifiedEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(`{"id":42,"login":"octo","name":"Octo Cat","email":"public@example.com","avatar_url":"https://a/42"}`))
		case "/user/emails":
			_, _ = w.Write([]byte(`[{"email":"old@example.com","primary":false,"verified":true},{"email":"octo@example.com","primary":true,"verified":true}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	g := NewGithub("id", "secret", "http://localhost/cb")
	g.apiBase = srv.URL

	profile, err := g.profile(context.Background(), srv.Client())
	require.NoError(t, err)
	assert.Equal(t, &ExternalProfile{
		Provider:      models.AuthTypeGithub,
		Subject:       "42",
		Email:         "octo@example.com",
		EmailVerified: true,
		Name:          "Octo Cat",
		Username:      "octo",
		AvatarURL:     "https://a/42",
	}, profile)
}

func TestGithubProfile_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	g := NewGithub("id", "secret", "http://localhost/cb")
	g.apiBase = srv.URL

	_, err := g.profile(context.Background(), srv.Client())
	assert.ErrorContains(t, err, "401")
}

func TestProfileFromGoogleClaims(t *testing.T) {
	p := profileFromGoogleClaims(&idtoken.Payload{
		Subject: "1093",
		Claims: map[string]interface{}{
			"email":          "ada@example.com",
			"email_verified": true,
			"name":           "Ada",
			"picture":        "https://p/ada",
		},
	})
	assert.Equal(t, "1093", p.Subject)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.True(t, p.EmailVerified)
	assert.Equal(t, models.AuthTypeGoogle, p.Provider)

	bare := profileFromGoogleClaims(&idtoken.Payload{Subject: "7", Claims: map[string]interface{}{}})
	assert.False(t, bare.EmailVerified)
	assert.Empty(t, bare.Email)
}
