package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aussiebroadwan/crmconnect/pkg/hubspot"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces environment overrides, e.g. HUBCONNECT_BASE_URL.
	EnvPrefix = "HUBCONNECT"

	DefaultBaseURL = "http://localhost:8000"
)

type Config struct {
	BaseURL      string
	UserID       string
	OrgID        string
	LogLevel     string
	LogFormat    string
	OTELEndpoint string
	Open         bool
	Timeout      time.Duration

	// HubSpot is only needed for authorize --local.
	HubSpot hubspot.Config
}

// provider returns the HubSpot config for the connector, or nil when no
// client id is configured.
func (c Config) provider() *hubspot.Config {
	if c.HubSpot.ClientID == "" {
		return nil
	}
	hs := c.HubSpot
	return &hs
}

// boundFlags maps config keys to the flags that override them.
var boundFlags = map[string]string{
	"config":        "config",
	"base_url":      "base-url",
	"user_id":       "user-id",
	"org_id":        "org-id",
	"log_level":     "log-level",
	"log_format":    "log-format",
	"otel_endpoint": "otel-endpoint",
	"open":          "open",
	"timeout":       "timeout",
}

// LoadConfig resolves settings from, in order of precedence: flags set on
// the command line, HUBCONNECT_* variables, a YAML config file, then flag
// defaults.
//
// The file is --config (or HUBCONNECT_CONFIG) when given, otherwise the
// first hubconnect.yaml found in the working directory or
// $XDG_CONFIG_HOME/hubconnect. A missing default file is not an error.
func LoadConfig(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, name := range boundFlags {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	v.SetDefault("hubspot.auth_url", hubspot.DefaultAuthURL)
	v.SetDefault("hubspot.token_url", hubspot.DefaultTokenURL)
	v.SetDefault("hubspot.api_base_url", hubspot.DefaultAPIBaseURL)

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("hubconnect")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "hubconnect"))
		}
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		BaseURL:      strings.TrimSpace(v.GetString("base_url")),
		UserID:       v.GetString("user_id"),
		OrgID:        v.GetString("org_id"),
		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
		OTELEndpoint: v.GetString("otel_endpoint"),
		Open:         v.GetBool("open"),
		Timeout:      v.GetDuration("timeout"),
		HubSpot: hubspot.Config{
			ClientID:    v.GetString("hubspot.client_id"),
			RedirectURI: v.GetString("hubspot.redirect_uri"),
			Scopes:      splitList(v.GetStringSlice("hubspot.scopes")),
			AuthURL:     v.GetString("hubspot.auth_url"),
			TokenURL:    v.GetString("hubspot.token_url"),
			APIBaseURL:  v.GetString("hubspot.api_base_url"),
		},
	}

	if cfg.BaseURL == "" {
		return Config{}, errors.New("base url must not be empty")
	}
	if cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}

	return cfg, nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
