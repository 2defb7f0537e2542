package oauth

import (
	"context"
	"errors"
	"fmt"

	"tubbit/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

type idTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Google signs users in with Google and trusts the verified ID token.
type Google struct {
	config   *oauth2.Config
	validate idTokenValidator
}

func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	return &Google{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		validate: idtoken.Validate,
	}
}

func (g *Google) Name() models.AuthType { return models.AuthTypeGoogle }

func (g *Google) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *Google) Exchange(ctx context.Context, code string) (*ExternalProfile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange: %w", err)
	}
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, errors.New("google response carried no id_token")
	}
	payload, err := g.validate(ctx, raw, g.config.ClientID)
	if err != nil {
		return nil, fmt.Errorf("google id token validation: %w", err)
	}
	return profileFromGoogleClaims(payload), nil
}

func profileFromGoogleClaims(p *idtoken.Payload) *ExternalProfile {
	claim := func(name string) string {
		s, _ := p.Claims[name].(string)
		return s
	}
	verified, _ := p.Claims["email_verified"].(bool)
	return &ExternalProfile{
		Provider:      models.AuthTypeGoogle,
		Subject:       p.Subject,
		Email:         claim("email"),
		EmailVerified: verified,
		Name:          claim("name"),
		AvatarURL:     claim("picture"),
	}
}
