package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultSecretsDir is where the hosting platform mounts secret files.
// Each secret is a single file named after the variable (Render convention).
const DefaultSecretsDir = "/etc/secrets"

// Config holds everything the relay needs at startup. All values are
// immutable once loaded.
type Config struct {
	Env      string `mapstructure:"env"`
	HTTPAddr string `mapstructure:"http_addr"`

	// DatabaseURL is optional; when empty the server falls back to the
	// in-memory token store (tokens lost on restart).
	DatabaseURL string `mapstructure:"database_url"`

	OAuth OAuthConfig `mapstructure:"oauth"`

	// Upstream overrides the Oura API base URLs, primarily for tests.
	Upstream UpstreamConfig `mapstructure:"upstream"`
}

// OAuthConfig carries the upstream OAuth client registration.
type OAuthConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri"`

	// StateSecret signs the OAuth state parameter issued by /login.
	// When empty, /callback accepts requests without a state check.
	StateSecret string `mapstructure:"state_secret"`
	StateTTL    time.Duration
}

// UpstreamConfig points at the Oura API.
type UpstreamConfig struct {
	APIBaseURL   string `mapstructure:"api_base_url"`
	TokenURL     string `mapstructure:"token_url"`
	AuthorizeURL string `mapstructure:"authorize_url"`
}

// Load reads configuration from the environment, falling back to secret
// files for the OAuth client credentials. It fails when the client id or
// secret is missing; everything else has a usable default.
func Load() (*Config, error) {
	return load(DefaultSecretsDir)
}

func load(secretsDir string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("database_url", "")
	v.SetDefault("client_id", "")
	v.SetDefault("client_secret", "")
	v.SetDefault("redirect_uri", "https://oura-oauth-server.onrender.com/callback")
	v.SetDefault("state_secret", "")
	v.SetDefault("oura_api_base_url", "https://api.ouraring.com/v2/usercollection")
	v.SetDefault("oura_token_url", "https://api.ouraring.com/oauth/token")
	v.SetDefault("oura_authorize_url", "https://cloud.ouraring.com/oauth/authorize")

	cfg := &Config{
		Env:         v.GetString("env"),
		HTTPAddr:    v.GetString("http_addr"),
		DatabaseURL: v.GetString("database_url"),
		OAuth: OAuthConfig{
			ClientID:     firstNonEmpty(readSecret(secretsDir, "CLIENT_ID"), v.GetString("client_id")),
			ClientSecret: firstNonEmpty(readSecret(secretsDir, "CLIENT_SECRET"), v.GetString("client_secret")),
			RedirectURI:  v.GetString("redirect_uri"),
			StateSecret:  firstNonEmpty(readSecret(secretsDir, "STATE_SECRET"), v.GetString("state_secret")),
			StateTTL:     10 * time.Minute,
		},
		Upstream: UpstreamConfig{
			APIBaseURL:   v.GetString("oura_api_base_url"),
			TokenURL:     v.GetString("oura_token_url"),
			AuthorizeURL: v.GetString("oura_authorize_url"),
		},
	}

	if cfg.OAuth.ClientID == "" || cfg.OAuth.ClientSecret == "" {
		return nil, fmt.Errorf("CLIENT_ID and CLIENT_SECRET must be set (env or %s)", secretsDir)
	}

	return cfg, nil
}

// readSecret returns the trimmed contents of a platform secret file, or ""
// when the file does not exist.
func readSecret(dir, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
