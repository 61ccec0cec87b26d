package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/voxlane/voxlane/config"
	"github.com/voxlane/voxlane/services/logging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

var (
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrExchangeFailed  = errors.New("oauth code exchange failed")
	ErrNoEmail         = errors.New("no email found in oauth profile")
)

// Profile is the provider-independent identity extracted from a
// completed authorization flow.
type Profile struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
}

type Service struct {
	configs      map[string]*oauth2.Config
	userInfoURLs map[string]string
	emailsURL    string
	logger       *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	callback := func(provider string) string {
		return fmt.Sprintf("%s/auth/%s/callback", cfg.App.URL, provider)
	}

	return &Service{
		configs: map[string]*oauth2.Config{
			ProviderGoogle: {
				ClientID:     cfg.OAuth.GoogleClientID,
				ClientSecret: cfg.OAuth.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				RedirectURL:  callback(ProviderGoogle),
				Scopes:       []string{"openid", "email", "profile"},
			},
			ProviderGitHub: {
				ClientID:     cfg.OAuth.GitHubClientID,
				ClientSecret: cfg.OAuth.GitHubClientSecret,
				Endpoint:     github.Endpoint,
				RedirectURL:  callback(ProviderGitHub),
				Scopes:       []string{"user:email"},
			},
		},
		userInfoURLs: map[string]string{
			ProviderGoogle: "https://www.googleapis.com/oauth2/v2/userinfo",
			ProviderGitHub: "https://api.github.com/user",
		},
		emailsURL: "https://api.github.com/user/emails",
		logger:    logger,
	}
}

func (s *Service) conf(provider string) (*oauth2.Config, error) {
	conf, ok := s.configs[provider]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return conf, nil
}

// GenerateState returns an unguessable value binding the redirect to
// the callback that follows it.
func (s *Service) GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Service) AuthCodeURL(provider, state string) (string, error) {
	conf, err := s.conf(provider)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Exchange trades the authorization code for the provider's profile.
func (s *Service) Exchange(ctx context.Context, provider, code string) (*Profile, error) {
	conf, err := s.conf(provider)
	if err != nil {
		return nil, err
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	client := conf.Client(ctx, tok)

	switch provider {
	case ProviderGoogle:
		return s.fetchGoogleProfile(client)
	case ProviderGitHub:
		return s.fetchGitHubProfile(client)
	default:
		return nil, ErrUnknownProvider
	}
}

func (s *Service) fetchGoogleProfile(client *http.Client) (*Profile, error) {
	var info struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	if err := getJSON(client, s.userInfoURLs[ProviderGoogle], &info); err != nil {
		return nil, err
	}

	if info.Email == "" {
		return nil, ErrNoEmail
	}

	return &Profile{
		Provider:   ProviderGoogle,
		ProviderID: info.ID,
		Email:      info.Email,
		Name:       info.Name,
	}, nil
}

func (s *Service) fetchGitHubProfile(client *http.Client) (*Profile, error) {
	var info struct {
		ID    int64  `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	if err := getJSON(client, s.userInfoURLs[ProviderGitHub], &info); err != nil {
		return nil, err
	}

	email := info.Email
	if email == "" {
		// The profile email is empty when the account keeps it private.
		primary, err := s.fetchGitHubPrimaryEmail(client)
		if err != nil {
			return nil, err
		}
		email = primary
	}

	if email == "" {
		return nil, ErrNoEmail
	}

	return &Profile{
		Provider:   ProviderGitHub,
		ProviderID: strconv.FormatInt(info.ID, 10),
		Email:      email,
		Name:       info.Name,
	}, nil
}

func (s *Service) fetchGitHubPrimaryEmail(client *http.Client) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}

	if err := getJSON(client, s.emailsURL, &emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}

	return "", nil
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("fetch oauth profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch oauth profile: unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
