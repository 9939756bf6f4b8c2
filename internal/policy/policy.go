package policy

import (
	"nekoguard/internal/config"
	"nekoguard/internal/storage"

	"golang.org/x/text/cases"
)

// Source is the read side of the word filter store.
type Source interface {
	Patterns(guildID string) ([]string, bool)
	Channels(guildID string) ([]string, bool)
	Settings(guildID string) storage.ServerSettings
}

type Input struct {
	GuildID     string
	ChannelName string
	// AuthorRoles holds role names, not ids.
	AuthorRoles []string
}

// Decision explains why a message is or is not filtered.
type Decision string

const (
	Filter           Decision = "filter"
	DirectMessage    Decision = "direct_message"
	Unconfigured     Decision = "unconfigured"
	WhitelistChannel Decision = "whitelisted_channel"
	ModeratorExempt  Decision = "moderator_exempt"
)

type Policy struct {
	source Source
	roles  func(guildID string) config.RoleNames
}

func New(source Source, roles func(guildID string) config.RoleNames) *Policy {
	return &Policy{source: source, roles: roles}
}

func (p *Policy) ShouldFilter(in Input) bool {
	return p.Decide(in) == Filter
}

func (p *Policy) Decide(in Input) Decision {
	if in.GuildID == "" {
		return DirectMessage
	}
	if patterns, ok := p.source.Patterns(in.GuildID); !ok || len(patterns) == 0 {
		return Unconfigured
	}

	channels, _ := p.source.Channels(in.GuildID)
	for _, channel := range channels {
		if equalFold(channel, in.ChannelName) {
			return WhitelistChannel
		}
	}

	if p.source.Settings(in.GuildID).ModeratorsExempt {
		names := p.roles(in.GuildID)
		for _, role := range in.AuthorRoles {
			if (names.Moderator != "" && equalFold(role, names.Moderator)) ||
				(names.Admin != "" && equalFold(role, names.Admin)) {
				return ModeratorExempt
			}
		}
	}
	return Filter
}

func equalFold(a, b string) bool {
	fold := cases.Fold()
	return fold.String(a) == fold.String(b)
}
