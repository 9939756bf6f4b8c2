package utils

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestNormalizeImageURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://Example.com/p/neko 1.png#top", "https://example.com/p/neko%201.png"},
		{"http://user:pw@example.com:8080/a.jpg", "http://example.com:8080/a.jpg"},
		{"https://bücher.example/x.png", "https://xn--bcher-kva.example/x.png"},
	}
	for _, tt := range tests {
		got, err := NormalizeImageURL(tt.raw)
		if err != nil {
			t.Fatalf("NormalizeImageURL(%q): %v", tt.raw, err)
		}
		if got != tt.want {
			t.Fatalf("NormalizeImageURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}

	for _, raw := range []string{"ftp://example.com/a.png", "not a url", "https:///a.png"} {
		if _, err := NormalizeImageURL(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestEscapeSpaces(t *testing.T) {
	if got := EscapeSpaces("a b c"); got != "a%20b%20c" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestIsPermissionError(t *testing.T) {
	missing := &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: discordgo.ErrCodeMissingPermissions}}
	if !IsPermissionError(missing) {
		t.Fatalf("expected missing permissions to match")
	}
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	if !IsPermissionError(forbidden) {
		t.Fatalf("expected 403 to match")
	}
	if IsPermissionError(errors.New("timeout")) {
		t.Fatalf("plain error must not match")
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(&discordgo.User{Username: "neko", Discriminator: "1660"}); got != "neko#1660" {
		t.Fatalf("unexpected %q", got)
	}
	if got := DisplayName(&discordgo.User{Username: "neko", Discriminator: "0"}); got != "neko" {
		t.Fatalf("unexpected %q", got)
	}
}
