package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"baby-name-game/internal/backend"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGoogle    = "google"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

type googleProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

type googleUser struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// EnableGoogle turns on Google sign-in with the given client credentials.
func (s *Service) EnableGoogle(clientID, clientSecret, redirectURL string) {
	s.useOAuth(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}, googleUserInfoURL)
}

func (s *Service) useOAuth(config *oauth2.Config, userInfoURL string) {
	s.google = &googleProvider{config: config, userInfoURL: userInfoURL}
}

func (s *Service) GoogleEnabled() bool {
	return s.google != nil
}

func (s *Service) GoogleAuthURL(state string) (string, error) {
	if s.google == nil {
		return "", ErrOAuthDisabled
	}
	return s.google.config.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// CompleteOAuth exchanges the callback code, finds or creates the account, and issues a token.
func (s *Service) CompleteOAuth(ctx context.Context, code string) (string, error) {
	if s.google == nil {
		return "", ErrOAuthDisabled
	}
	if strings.TrimSpace(code) == "" {
		return "", errors.New("missing authorization code")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	token, err := s.google.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	user, err := s.fetchGoogleUser(ctx, token)
	if err != nil {
		return "", err
	}
	account, err := s.store.FindAccountByOAuth(ctx, ProviderGoogle, user.ID)
	if errors.Is(err, backend.ErrNotFound) {
		provider, subject := ProviderGoogle, user.ID
		account, err = s.store.CreateAccount(ctx, backend.CreateAccountInput{
			Email:         user.Email,
			OAuthProvider: &provider,
			OAuthSubject:  &subject,
			Metadata: backend.AccountMetadata{
				FullName:  user.Name,
				FirstName: user.GivenName,
				LastName:  user.FamilyName,
			},
		})
		if err == nil {
			log.Printf("account created account_id=%s provider=google", account.ID)
		}
	}
	if err != nil {
		return "", err
	}
	if _, err := s.CurrentParent(ctx, account.ID); err != nil {
		log.Printf("parent profile create failed account_id=%s error=%v", account.ID, err)
	}
	return s.IssueToken(account.ID)
}

func (s *Service) fetchGoogleUser(ctx context.Context, token *oauth2.Token) (googleUser, error) {
	client := s.google.config.Client(ctx, token)
	resp, err := client.Get(s.google.userInfoURL)
	if err != nil {
		return googleUser{}, errors.New("failed to fetch Google user info")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return googleUser{}, errors.New("failed to fetch Google user info")
	}
	var user googleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return googleUser{}, errors.New("failed to decode Google user info")
	}
	if user.ID == "" || user.Email == "" {
		return googleUser{}, errors.New("google account is missing an email address")
	}
	return user, nil
}
