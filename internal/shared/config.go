package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server" json:"server"`
	Credentials CredentialsConfig `toml:"credentials" json:"credentials"`
	Auth        AuthConfig        `toml:"auth" json:"auth"`
	Pairing     PairingConfig     `toml:"pairing" json:"pairing"`
	Upstream    UpstreamConfig    `toml:"upstream" json:"upstream"`
	Log         LogConfig         `toml:"log" json:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host" json:"host"`
	Port           int      `toml:"port" json:"port"`
	FrontendURL    string   `toml:"frontend_url" json:"frontend_url"`
	CallbackPath   string   `toml:"callback_path" json:"callback_path"`
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify" json:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and endpoints.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" json:"client_id"`
	ClientSecret string `toml:"client_secret" json:"client_secret"`
	RedirectURI  string `toml:"redirect_uri" json:"redirect_uri"`
	APIURL       string `toml:"api_url" json:"api_url"`
	AccountsURL  string `toml:"accounts_url" json:"accounts_url"`
}

// AuthConfig controls the credentials this service signs for its clients.
type AuthConfig struct {
	JWTSecret     string `toml:"jwt_secret" json:"jwt_secret"`
	TokenTTLHours int    `toml:"token_ttl_hours" json:"token_ttl_hours"`
}

// TokenTTL returns the credential lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLHours) * time.Hour
}

// PairingConfig holds the lifetimes of rooms, handoff sessions and OAuth states.
type PairingConfig struct {
	RoomTTLMinutes    int `toml:"room_ttl_minutes" json:"room_ttl_minutes"`
	HandoffTTLMinutes int `toml:"handoff_ttl_minutes" json:"handoff_ttl_minutes"`
	StateTTLMinutes   int `toml:"state_ttl_minutes" json:"state_ttl_minutes"`
}

func (p PairingConfig) RoomTTL() time.Duration    { return minutes(p.RoomTTLMinutes) }
func (p PairingConfig) HandoffTTL() time.Duration { return minutes(p.HandoffTTLMinutes) }
func (p PairingConfig) StateTTL() time.Duration   { return minutes(p.StateTTLMinutes) }

// UpstreamConfig bounds calls made to the Spotify Web API.
type UpstreamConfig struct {
	TimeoutSeconds    int     `toml:"timeout_seconds" json:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
	PageSize          int     `toml:"page_size" json:"page_size"`
}

// Timeout returns the per-request upstream timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSeconds) * time.Second
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadDotEnv loads variables from a .env file into the process environment.
//
// A missing file is not an error; variables already set in the environment win.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values with any of the supported environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", ErrInvalidConfig, key)
		}
		*dst = n
		return nil
	}

	setString("SPOTIFY_CLIENT_ID", &c.Credentials.Spotify.ClientID)
	setString("SPOTIFY_CLIENT_SECRET", &c.Credentials.Spotify.ClientSecret)
	setString("SPOTIFY_REDIRECT_URI", &c.Credentials.Spotify.RedirectURI)
	setString("JWT_SECRET", &c.Auth.JWTSecret)
	setString("FRONTEND_URL", &c.Server.FrontendURL)
	setString("LOG_LEVEL", &c.Log.Level)

	if err := setInt("JWT_EXPIRE_HOURS", &c.Auth.TokenTTLHours); err != nil {
		return err
	}
	return setInt("PORT", &c.Server.Port)
}

// Validate reports configuration that would prevent the server from working.
func (c *Config) Validate() error {
	sp := c.Credentials.Spotify
	switch {
	case sp.ClientID == "" || sp.ClientSecret == "":
		return fmt.Errorf("%w: spotify client_id and client_secret are required", ErrInvalidConfig)
	case sp.RedirectURI == "":
		return fmt.Errorf("%w: spotify redirect_uri is required", ErrInvalidConfig)
	case c.Auth.JWTSecret == "":
		return fmt.Errorf("%w: auth jwt_secret is required", ErrInvalidConfig)
	case c.Auth.TokenTTLHours <= 0:
		return fmt.Errorf("%w: auth token_ttl_hours must be positive", ErrInvalidConfig)
	case c.Pairing.RoomTTLMinutes <= 0 || c.Pairing.HandoffTTLMinutes <= 0 || c.Pairing.StateTTLMinutes <= 0:
		return fmt.Errorf("%w: pairing lifetimes must be positive", ErrInvalidConfig)
	case c.Server.FrontendURL == "":
		return fmt.Errorf("%w: server frontend_url is required", ErrInvalidConfig)
	}
	return nil
}

// Redacted returns a copy of the config with secrets masked, suitable for printing.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Credentials.Spotify.ClientSecret = mask(c.Credentials.Spotify.ClientSecret)
	c.Auth.JWTSecret = mask(c.Auth.JWTSecret)
	c.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return c
}
