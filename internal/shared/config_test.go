package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 8000 {
			t.Errorf("expected server port 8000, got %d", config.Server.Port)
		}
		if config.Auth.TokenTTL() != 2*time.Hour {
			t.Errorf("expected token ttl 2h, got %v", config.Auth.TokenTTL())
		}
		if config.Pairing.RoomTTL() != 30*time.Minute {
			t.Errorf("expected room ttl 30m, got %v", config.Pairing.RoomTTL())
		}
		if config.Pairing.HandoffTTL() != 5*time.Minute {
			t.Errorf("expected handoff ttl 5m, got %v", config.Pairing.HandoffTTL())
		}
		if config.Credentials.Spotify.ClientID != "your_spotify_client_id" {
			t.Errorf("expected spotify client_id your_spotify_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Upstream.PageSize != 50 {
			t.Errorf("expected page size 50, got %d", config.Upstream.PageSize)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Server.FrontendURL != DefaultConfig().Server.FrontendURL {
			t.Errorf("created config frontend url doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[server]
host = "0.0.0.0"
port = 9000
frontend_url = "https://vibes.example.com"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:9000/callback"

[pairing]
room_ttl_minutes = 10
`

		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 9000 {
			t.Errorf("expected server port 9000, got %d", config.Server.Port)
		}
		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Pairing.RoomTTLMinutes != 10 {
			t.Errorf("expected room ttl 10, got %d", config.Pairing.RoomTTLMinutes)
		}
		if config.Pairing.HandoffTTLMinutes != 5 {
			t.Errorf("expected unset handoff ttl to keep default 5, got %d", config.Pairing.HandoffTTLMinutes)
		}
		if config.Credentials.Spotify.APIURL != "https://api.spotify.com/v1" {
			t.Errorf("expected default api url, got %s", config.Credentials.Spotify.APIURL)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			"SPOTIFY_CLIENT_ID":     "env_id",
			"SPOTIFY_CLIENT_SECRET": "env_secret",
			"JWT_SECRET":            "env_jwt",
			"JWT_EXPIRE_HOURS":      "6",
			"FRONTEND_URL":          "https://front.example.com",
			"PORT":                  "8123",
		}
		config := DefaultConfig()

		if err := config.ApplyEnv(func(k string) string { return env[k] }); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.Credentials.Spotify.ClientID != "env_id" {
			t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Auth.JWTSecret != "env_jwt" {
			t.Errorf("expected env jwt secret, got %s", config.Auth.JWTSecret)
		}
		if config.Auth.TokenTTLHours != 6 {
			t.Errorf("expected 6 hours, got %d", config.Auth.TokenTTLHours)
		}
		if config.Server.Port != 8123 {
			t.Errorf("expected port 8123, got %d", config.Server.Port)
		}
		if config.Server.FrontendURL != "https://front.example.com" {
			t.Errorf("expected env frontend url, got %s", config.Server.FrontendURL)
		}
		if config.Credentials.Spotify.RedirectURI != DefaultConfig().Credentials.Spotify.RedirectURI {
			t.Error("unset variables should not change the config")
		}
	})

	t.Run("ApplyEnv Invalid Integer", func(t *testing.T) {
		config := DefaultConfig()
		err := config.ApplyEnv(func(k string) string {
			if k == "JWT_EXPIRE_HOURS" {
				return "two"
			}
			return ""
		})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadDotEnv", func(t *testing.T) {
		tmpDir := t.TempDir()

		if err := LoadDotEnv(filepath.Join(tmpDir, "missing.env")); err != nil {
			t.Errorf("missing .env should be ignored, got %v", err)
		}

		envPath := filepath.Join(tmpDir, ".env")
		if err := os.WriteFile(envPath, []byte("VIBESYNC_TEST_DOTENV=loaded\n"), 0600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("VIBESYNC_TEST_DOTENV") })

		if err := LoadDotEnv(envPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := os.Getenv("VIBESYNC_TEST_DOTENV"); got != "loaded" {
			t.Errorf("expected variable from .env, got %q", got)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name   string
			mutate func(c *Config)
		}{
			{name: "missing client id", mutate: func(c *Config) { c.Credentials.Spotify.ClientID = "" }},
			{name: "missing client secret", mutate: func(c *Config) { c.Credentials.Spotify.ClientSecret = "" }},
			{name: "missing redirect uri", mutate: func(c *Config) { c.Credentials.Spotify.RedirectURI = "" }},
			{name: "missing jwt secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }},
			{name: "zero token ttl", mutate: func(c *Config) { c.Auth.TokenTTLHours = 0 }},
			{name: "zero room ttl", mutate: func(c *Config) { c.Pairing.RoomTTLMinutes = 0 }},
			{name: "missing frontend", mutate: func(c *Config) { c.Server.FrontendURL = "" }},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				config := DefaultConfig()
				tc.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})

	t.Run("Redacted", func(t *testing.T) {
		config := DefaultConfig()
		redacted := config.Redacted()

		if redacted.Auth.JWTSecret == config.Auth.JWTSecret {
			t.Error("expected jwt secret to be masked")
		}
		if redacted.Credentials.Spotify.ClientSecret == config.Credentials.Spotify.ClientSecret {
			t.Error("expected client secret to be masked")
		}
		if redacted.Credentials.Spotify.ClientID != config.Credentials.Spotify.ClientID {
			t.Error("client id should be left visible")
		}
	})
}
