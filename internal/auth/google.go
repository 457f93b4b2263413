package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUserInfoURL is Google's OpenID Connect userinfo endpoint.
const GoogleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Identity is an OAuth identity provider used by the sign-in routes.
type Identity interface {
	// AuthCodeURL returns the consent page URL carrying state.
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the signed-in profile.
	Exchange(ctx context.Context, code string) (*Profile, error)
}

// GoogleIdentity implements Identity with Google's OAuth2 code flow.
type GoogleIdentity struct {
	Config      *oauth2.Config
	UserInfoURL string
}

// NewGoogleIdentity configures the Google code flow with the profile and
// email scopes.
func NewGoogleIdentity(clientID, clientSecret, callbackURL string) *GoogleIdentity {
	return &GoogleIdentity{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"profile", "email"},
			Endpoint:     google.Endpoint,
		},
		UserInfoURL: GoogleUserInfoURL,
	}
}

func (g *GoogleIdentity) AuthCodeURL(state string) string {
	return g.Config.AuthCodeURL(state)
}

func (g *GoogleIdentity) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := g.Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.UserInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating userinfo request: %w", err)
	}
	resp, err := g.Config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("userinfo returned status %d: %s", resp.StatusCode, body)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decoding userinfo: %w", err)
	}
	if p.Subject == "" {
		return nil, fmt.Errorf("userinfo has no subject")
	}
	return &p, nil
}
