package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/vibesync/internal/auth"
	"github.com/desertthunder/vibesync/internal/models"
	"github.com/desertthunder/vibesync/internal/shared"
	tu "github.com/desertthunder/vibesync/internal/testing"
)

func fakeConfig(fake *tu.FakeSpotify) *shared.Config {
	config := shared.DefaultConfig()
	config.Auth.JWTSecret = "cli-secret"
	config.Credentials.Spotify.ClientID = tu.FakeClientID
	config.Credentials.Spotify.ClientSecret = tu.FakeClientSecret
	config.Credentials.Spotify.APIURL = fake.APIURL()
	config.Credentials.Spotify.AccountsURL = fake.URL()
	return config
}

func TestCompare(t *testing.T) {
	fake := tu.NewFakeSpotify(t)
	fake.AddUser("tok-alice", tu.FakeUser{ID: "alice", DisplayName: "Alice", Tracks: append(tu.Tracks("s", 2), tu.Tracks("a", 2)...)})
	fake.AddUser("tok-bob", tu.FakeUser{ID: "bob", DisplayName: "Bob", Tracks: append(tu.Tracks("b", 2), tu.Tracks("s", 2)...)})

	config := fakeConfig(fake)
	authority, err := auth.NewAuthority(config.Auth.JWTSecret, nil)
	if err != nil {
		t.Fatal(err)
	}
	alice, _ := authority.Issue(auth.Identity{UserID: "alice", DisplayName: "Alice", AccessToken: "tok-alice"})
	bob, _ := authority.Issue(auth.Identity{UserID: "bob", DisplayName: "Bob", AccessToken: "tok-bob"})

	t.Run("prints a summary", func(t *testing.T) {
		output := &bytes.Buffer{}
		logger, logs := tu.NewTestLogger(t)
		r := NewRunner(RunnerOpts{Config: config, Output: output, Logger: logger})

		if err := run(r, "compare", "--a", alice, "--b", bob); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := output.String()
		for _, want := range []string{"Alice × Bob", "Compatibility: 50.0%", "In common: 2", "1. Artist s-0 - Song s-0"} {
			if !strings.Contains(got, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, got)
			}
		}
		if !strings.Contains(logs.String(), "phase=done") {
			t.Errorf("expected progress to be logged, got:\n%s", logs.String())
		}
	})

	t.Run("prints JSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		logger, _ := tu.NewTestLogger(t)
		r := NewRunner(RunnerOpts{Config: config, Output: output, Logger: logger})

		if err := run(r, "compare", "--a", alice, "--b", bob, "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var result models.ComparisonResult
		if err := json.Unmarshal(output.Bytes(), &result); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if result.UserA.ID != "alice" || result.Stats.CommonCount != 2 || len(result.OnlyB) != 2 {
			t.Errorf("unexpected result: %+v", result)
		}
	})

	t.Run("writes an export file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "result.csv")
		output := &bytes.Buffer{}
		logger, _ := tu.NewTestLogger(t)
		r := NewRunner(RunnerOpts{Config: config, Output: output, Logger: logger})

		if err := run(r, "compare", "--a", alice, "--b", bob, "-f", "csv", "-o", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.Len() != 0 {
			t.Errorf("expected nothing on stdout, got %q", output.String())
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected export file: %v", err)
		}
		if !strings.HasPrefix(string(data), "Section,ID,Title,Artists,Album,URL") {
			t.Errorf("unexpected export: %s", data)
		}
	})

	t.Run("rejects an unknown format", func(t *testing.T) {
		r := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}})
		if err := run(r, "compare", "--a", alice, "--b", bob, "--format", "xml"); err == nil {
			t.Error("expected an error for unknown format")
		}
	})

	t.Run("rejects a foreign credential", func(t *testing.T) {
		other, _ := auth.NewAuthority("other-secret", nil)
		forged, _ := other.Issue(auth.Identity{UserID: "mallory", AccessToken: "tok-alice"})

		logger, _ := tu.NewTestLogger(t)
		r := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}, Logger: logger})

		err := run(r, "compare", "--a", alice, "--b", forged)
		if err == nil || !strings.Contains(err.Error(), "credential --b") {
			t.Errorf("expected credential error, got %v", err)
		}
	})

	t.Run("upstream failure fails the run", func(t *testing.T) {
		expired, _ := authority.Issue(auth.Identity{UserID: "carol", DisplayName: "Carol", AccessToken: "revoked"})

		logger, _ := tu.NewTestLogger(t)
		r := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}, Logger: logger})

		err := run(r, "compare", "--a", alice, "--b", expired)
		if err == nil || !strings.Contains(err.Error(), "comparison failed") {
			t.Errorf("expected comparison error, got %v", err)
		}
	})
}
