package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"tubbit/internal/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPI = "https://api.github.com"

// Github signs users in with GitHub and reads the profile from its REST API.
type Github struct {
	config  *oauth2.Config
	apiBase string
}

func NewGithub(clientID, clientSecret, redirectURL string) *Github {
	return &Github{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBase: githubAPI,
	}
}

func (g *Github) Name() models.AuthType { return models.AuthTypeGithub }

func (g *Github) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state)
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (g *Github) Exchange(ctx context.Context, code string) (*ExternalProfile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github code exchange: %w", err)
	}
	return g.profile(ctx, g.config.Client(ctx, token))
}

// profile reads /user and, because the public email may be hidden, /user/emails.
func (g *Github) profile(ctx context.Context, client *http.Client) (*ExternalProfile, error) {
	var user githubUser
	if err := getJSON(ctx, client, g.apiBase+"/user", &user); err != nil {
		return nil, err
	}

	var emails []githubEmail
	if err := getJSON(ctx, client, g.apiBase+"/user/emails", &emails); err != nil {
		return nil, err
	}

	out := &ExternalProfile{
		Provider:  models.AuthTypeGithub,
		Subject:   strconv.FormatInt(user.ID, 10),
		Name:      user.Name,
		Username:  user.Login,
		AvatarURL: user.AvatarURL,
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			out.Email, out.EmailVerified = e.Email, true
			break
		}
	}
	if out.Email == "" {
		out.Email = user.Email
	}
	return out, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("github api %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api %s: %s", url, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("github api %s: decode: %w", url, err)
	}
	return nil
}
