package policy

import (
	"testing"

	"nekoguard/internal/config"
	"nekoguard/internal/storage"
)

type fakeSource struct {
	patterns map[string][]string
	channels map[string][]string
	settings map[string]storage.ServerSettings
}

func (f fakeSource) Patterns(guildID string) ([]string, bool) {
	value, ok := f.patterns[guildID]
	return value, ok
}

func (f fakeSource) Channels(guildID string) ([]string, bool) {
	value, ok := f.channels[guildID]
	return value, ok
}

func (f fakeSource) Settings(guildID string) storage.ServerSettings {
	return f.settings[guildID]
}

func roles(string) config.RoleNames {
	return config.RoleNames{Moderator: "Moderator", Admin: "Admin"}
}

func TestDecide(t *testing.T) {
	source := fakeSource{
		patterns: map[string][]string{"g1": {"cat"}, "g2": {}, "g3": {"cat"}},
		channels: map[string][]string{"g1": {"General"}},
		settings: map[string]storage.ServerSettings{"g3": {ModeratorsExempt: true}},
	}
	p := New(source, roles)

	tests := []struct {
		name string
		in   Input
		want Decision
	}{
		{"direct message", Input{ChannelName: "dm"}, DirectMessage},
		{"no patterns", Input{GuildID: "g9", ChannelName: "chat"}, Unconfigured},
		{"empty patterns", Input{GuildID: "g2", ChannelName: "chat"}, Unconfigured},
		{"whitelisted channel", Input{GuildID: "g1", ChannelName: "general"}, WhitelistChannel},
		{"other channel", Input{GuildID: "g1", ChannelName: "random"}, Filter},
		{"moderator exempt", Input{GuildID: "g3", ChannelName: "chat", AuthorRoles: []string{"member", "moderator"}}, ModeratorExempt},
		{"admin exempt", Input{GuildID: "g3", ChannelName: "chat", AuthorRoles: []string{"ADMIN"}}, ModeratorExempt},
		{"regular member", Input{GuildID: "g3", ChannelName: "chat", AuthorRoles: []string{"member"}}, Filter},
		{"exemption disabled", Input{GuildID: "g1", ChannelName: "chat", AuthorRoles: []string{"Moderator"}}, Filter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Decide(tt.in); got != tt.want {
				t.Fatalf("Decide() = %s, want %s", got, tt.want)
			}
			if p.ShouldFilter(tt.in) != (tt.want == Filter) {
				t.Fatalf("ShouldFilter disagrees with Decide for %s", tt.want)
			}
		})
	}
}

func TestWhitelistWinsRegardlessOfContent(t *testing.T) {
	source := fakeSource{
		patterns: map[string][]string{"g1": {"cat"}},
		channels: map[string][]string{"g1": {"general"}},
	}
	p := New(source, roles)
	if p.ShouldFilter(Input{GuildID: "g1", ChannelName: "general"}) {
		t.Fatalf("expected whitelisted channel to be exempt")
	}
}
