// Package hubspot talks to the HubSpot OAuth endpoints and the CRM v3 API.
package hubspot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"golang.org/x/oauth2"
)

// Default provider endpoints.
const (
	DefaultAuthURL    = "https://app.hubspot.com/oauth/authorize"
	DefaultTokenURL   = "https://api.hubapi.com/oauth/v1/token"
	DefaultAPIBaseURL = "https://api.hubapi.com"
)

// ErrMissingConfig is returned by Validate.
var ErrMissingConfig = errors.New("hubspot: incomplete provider configuration")

// Config identifies the app registered with HubSpot. Scopes has no default;
// deployments list exactly what their app was granted.
type Config struct {
	ClientID     string   `env:"HUBSPOT_CLIENT_ID"`
	ClientSecret string   `env:"HUBSPOT_CLIENT_SECRET"`
	RedirectURI  string   `env:"HUBSPOT_REDIRECT_URI"`
	Scopes       []string `env:"HUBSPOT_SCOPES" envSeparator:","`
	AuthURL      string   `env:"HUBSPOT_AUTH_URL" envDefault:"https://app.hubspot.com/oauth/authorize"`
	TokenURL     string   `env:"HUBSPOT_TOKEN_URL" envDefault:"https://api.hubapi.com/oauth/v1/token"`
	APIBaseURL   string   `env:"HUBSPOT_API_BASE_URL" envDefault:"https://api.hubapi.com"`
}

// LoadConfig reads HUBSPOT_* variables. It does not validate; callers that
// need a usable config call Validate.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Scopes = trimCSV(cfg.Scopes)
	return cfg, nil
}

// Validate checks the fields needed to build an authorization URL.
func (c Config) Validate() error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if c.RedirectURI == "" {
		missing = append(missing, "redirect uri")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

// OAuth2 returns the x/oauth2 view of c. Credentials go in the form body,
// which is what HubSpot's token endpoint expects.
func (c Config) OAuth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   orDefault(c.AuthURL, DefaultAuthURL),
			TokenURL:  orDefault(c.TokenURL, DefaultTokenURL),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AuthorizationURL builds the consent URL. Scopes are space separated and
// state is left out when empty.
func (c Config) AuthorizationURL(state string) string {
	return c.OAuth2().AuthCodeURL(state)
}

func trimCSV(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
