// Package oauth implements the external identity providers accounts can sign in with.
package oauth

import (
	"context"
	"errors"
	"strings"

	"tubbit/internal/config"
	"tubbit/internal/models"
)

// ErrUnknownProvider is returned for providers that are not configured.
var ErrUnknownProvider = errors.New("unknown oauth provider")

// ExternalProfile is the identity a provider vouches for.
type ExternalProfile struct {
	Provider      models.AuthType
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Username      string
	AvatarURL     string
}

// Provider runs the authorization-code flow for one identity provider.
type Provider interface {
	Name() models.AuthType
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the signed-in profile.
	Exchange(ctx context.Context, code string) (*ExternalProfile, error)
}

// Registry holds the configured providers by name.
type Registry struct {
	providers map[models.AuthType]Provider
}

// NewRegistry returns a registry of the given providers.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[models.AuthType]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// NewRegistryFromConfig registers every provider with a client id and secret.
func NewRegistryFromConfig(cfg *config.Config) *Registry {
	var providers []Provider
	if cfg == nil {
		return NewRegistry()
	}
	base := strings.TrimRight(cfg.OAuthRedirectBaseURL, "/")
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		providers = append(providers, NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, base+"/api/v1/auth/oauth/google/callback"))
	}
	if cfg.GithubClientID != "" && cfg.GithubClientSecret != "" {
		providers = append(providers, NewGithub(cfg.GithubClientID, cfg.GithubClientSecret, base+"/api/v1/auth/oauth/github/callback"))
	}
	return NewRegistry(providers...)
}

// Get looks a provider up by its path name.
func (r *Registry) Get(name string) (Provider, error) {
	if r == nil {
		return nil, ErrUnknownProvider
	}
	p, ok := r.providers[models.AuthType(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}
