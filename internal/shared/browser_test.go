package shared

import (
	"slices"
	"testing"
)

func TestBrowserCommand(t *testing.T) {
	tests := []struct {
		goos string
		want []string
	}{
		{"darwin", []string{"open", "http://127.0.0.1:3000"}},
		{"linux", []string{"xdg-open", "http://127.0.0.1:3000"}},
		{"windows", []string{"rundll32", "url.dll,FileProtocolHandler", "http://127.0.0.1:3000"}},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			cmd, err := browserCommand(tt.goos, "http://127.0.0.1:3000")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(cmd.Args, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, cmd.Args)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		if _, err := browserCommand("plan9", "http://x"); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
