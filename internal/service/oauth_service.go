package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"tubbit/internal/featureflags"
	"tubbit/internal/models"
	"tubbit/internal/oauth"
	"tubbit/internal/repository"
	"tubbit/internal/validation"
)

var usernameUnsafe = regexp.MustCompile(`[^a-z0-9_-]+`)

// OAuthService signs users in through external identity providers.
type OAuthService struct {
	registry *oauth.Registry
	states   *oauth.StateStore
	userRepo repository.UserRepository
	auth     *AuthService
	flags    *featureflags.Manager
}

func NewOAuthService(
	registry *oauth.Registry,
	states *oauth.StateStore,
	userRepo repository.UserRepository,
	auth *AuthService,
	flags *featureflags.Manager,
) *OAuthService {
	return &OAuthService{
		registry: registry,
		states:   states,
		userRepo: userRepo,
		auth:     auth,
		flags:    flags,
	}
}

func (s *OAuthService) provider(name string) (oauth.Provider, error) {
	p, err := s.registry.Get(name)
	if err != nil {
		return nil, models.NewNotFoundMessage("Unknown sign-in provider")
	}
	if !s.flags.Enabled("oauth_"+string(p.Name()), 0) {
		return nil, models.NewNotFoundMessage("Unknown sign-in provider")
	}
	return p, nil
}

// Begin returns the provider consent URL carrying a fresh single-use state.
func (s *OAuthService) Begin(ctx context.Context, providerName string) (string, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return "", err
	}
	state, err := s.states.Issue(ctx, string(p.Name()))
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return p.AuthCodeURL(state), nil
}

// Complete validates state, exchanges code and signs the resolved user in.
func (s *OAuthService) Complete(ctx context.Context, providerName, state, code string) (*AuthResult, error) {
	p, err := s.provider(providerName)
	if err != nil {
		return nil, err
	}
	if err := s.states.Consume(ctx, state, string(p.Name())); err != nil {
		if errors.Is(err, oauth.ErrInvalidState) {
			return nil, models.NewUnauthorizedError("Sign-in session expired. Please try again")
		}
		return nil, models.NewInternalError(err)
	}
	if code == "" {
		return nil, models.NewValidationError("Authorization code is required")
	}

	profile, err := p.Exchange(ctx, code)
	if err != nil {
		slog.WarnContext(ctx, "oauth exchange failed", "provider", p.Name(), "err", err)
		return nil, models.NewUnauthorizedError("Sign-in with provider failed")
	}
	user, err := s.ResolveOrCreateUser(ctx, profile)
	if err != nil {
		return nil, err
	}
	return s.auth.signIn(ctx, user)
}

// ResolveOrCreateUser links a provider identity to the account with the same
// email, creating one with the provider's auth type when none exists.
func (s *OAuthService) ResolveOrCreateUser(ctx context.Context, profile *oauth.ExternalProfile) (*models.User, error) {
	if profile == nil || strings.TrimSpace(profile.Email) == "" {
		return nil, models.NewValidationError("Provider did not share an email address")
	}
	if !profile.EmailVerified {
		return nil, models.NewUnauthorizedError("Provider email address is not verified")
	}
	email := models.NormalizeEmail(profile.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	username, err := s.availableUsername(ctx, profile)
	if err != nil {
		return nil, err
	}
	secret, err := randomHex(32)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	// Provider accounts have no usable password until a reset sets one.
	hashed, err := hashPassword(secret)
	if err != nil {
		return nil, err
	}

	fullname := strings.TrimSpace(profile.Name)
	if fullname == "" {
		fullname = username
	}
	user := &models.User{
		Username: username,
		Email:    email,
		Fullname: fullname,
		Password: hashed,
		Avatar:   profile.AvatarURL,
		AuthType: profile.Provider,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// availableUsername derives a valid username from the profile and adds a
// random suffix while it is taken.
func (s *OAuthService) availableUsername(ctx context.Context, profile *oauth.ExternalProfile) (string, error) {
	base := profile.Username
	if base == "" {
		base, _, _ = strings.Cut(profile.Email, "@")
	}
	base = strings.Trim(usernameUnsafe.ReplaceAllString(strings.ToLower(base), ""), "_-")
	if len(base) > 20 {
		base = base[:20]
	}
	if validation.ValidateUsername(base) != nil {
		base = "user"
	}

	candidate := base
	for attempt := 0; attempt < 5; attempt++ {
		taken, err := s.userRepo.GetByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if taken == nil {
			return candidate, nil
		}
		suffix, err := randomHex(3)
		if err != nil {
			return "", models.NewInternalError(err)
		}
		candidate = base + "_" + suffix
	}
	return "", models.NewConflictError("Could not allocate a username for this account")
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
