package bot

import (
	"context"
	"fmt"

	"nekoguard/internal/storage"

	"github.com/bwmarrin/discordgo"
)

type reply struct {
	content   string
	ephemeral bool
	err       error
}

func (b *Bot) send(session *discordgo.Session, interaction *discordgo.InteractionCreate, command string, r reply) {
	if r.err != nil {
		b.respondError(session, interaction, command, r.err)
		return
	}
	b.respond(session, interaction, r.content, r.ephemeral)
}

func (b *Bot) addPattern(ctx context.Context, interaction *discordgo.InteractionCreate, guild, word string) reply {
	if err := b.wordfilter.ValidatePattern(word); err != nil {
		return invalidPatternReply(word)
	}
	result, err := b.store.AddPattern(ctx, interaction.GuildID, word)
	if err != nil {
		return reply{err: err}
	}
	if result == storage.Added {
		b.auditCommand(ctx, interaction, "filter_pattern_added", "pattern="+word)
	}
	return patternAddReply(result, word, guild)
}

func (b *Bot) removePattern(ctx context.Context, interaction *discordgo.InteractionCreate, guild, word string) reply {
	result, err := b.store.RemovePattern(ctx, interaction.GuildID, word)
	if err != nil {
		return reply{err: err}
	}
	if result == storage.Removed {
		b.auditCommand(ctx, interaction, "filter_pattern_removed", "pattern="+word)
	}
	return patternRemoveReply(result, word, guild)
}

func (b *Bot) toggleModerators(ctx context.Context, interaction *discordgo.InteractionCreate) reply {
	exempt, err := b.store.ToggleModerators(ctx, interaction.GuildID)
	if err != nil {
		return reply{err: err}
	}
	b.auditCommand(ctx, interaction, "filter_moderators_toggled", fmt.Sprintf("exempt=%t", exempt))
	return toggleReply(exempt)
}

func (b *Bot) addChannel(ctx context.Context, interaction *discordgo.InteractionCreate, channel string) reply {
	result, err := b.store.AddChannel(ctx, interaction.GuildID, channel)
	if err != nil {
		return reply{err: err}
	}
	if result == storage.Added {
		b.auditCommand(ctx, interaction, "filter_channel_whitelisted", "channel="+channel)
	}
	return channelAddReply(result, channel)
}

func (b *Bot) removeChannel(ctx context.Context, interaction *discordgo.InteractionCreate, guild, channel string) reply {
	result, err := b.store.RemoveChannel(ctx, interaction.GuildID, channel)
	if err != nil {
		return reply{err: err}
	}
	if result == storage.Removed {
		b.auditCommand(ctx, interaction, "filter_channel_unwhitelisted", "channel="+channel)
	}
	return channelRemoveReply(result, channel, guild)
}

func invalidPatternReply(word string) reply {
	return reply{content: fmt.Sprintf("`Word Filter:` `%s` is not a valid pattern.", word), ephemeral: true}
}

func patternAddReply(result storage.Result, word, guild string) reply {
	if result == storage.AlreadyPresent {
		return reply{content: fmt.Sprintf("`Word Filter:` The word `%s` is already in the filter for guild **%s**", word, guild), ephemeral: true}
	}
	return reply{content: fmt.Sprintf("`Word Filter:` `%s` was added to the filter in the guild **%s**", word, guild), ephemeral: true}
}

func patternRemoveReply(result storage.Result, word, guild string) reply {
	switch result {
	case storage.Unregistered:
		return reply{content: fmt.Sprintf("`Word Filter:` The guild **%s** is not registered, please add a word first", guild), ephemeral: true}
	case storage.NotPresent:
		return reply{content: fmt.Sprintf("`Word Filter:` The word `%s` is not in the filter for guild **%s**", word, guild), ephemeral: true}
	default:
		return reply{content: fmt.Sprintf("`Word Filter:` `%s` removed from the filter in the guild **%s**", word, guild), ephemeral: true}
	}
}

func toggleReply(exempt bool) reply {
	if exempt {
		return reply{content: ":white_check_mark: Word Filter: Moderators (and higher) **will not be** filtered."}
	}
	return reply{content: ":negative_squared_cross_mark: Word Filter: Moderators (and higher) **will be** filtered."}
}

func channelAddReply(result storage.Result, channel string) reply {
	if result == storage.AlreadyPresent {
		return reply{content: fmt.Sprintf(":negative_squared_cross_mark: Word Filter: Channel `%s` is already whitelisted.", channel)}
	}
	return reply{content: fmt.Sprintf(":white_check_mark: Word Filter: Channel with name `%s` will not be filtered.", channel)}
}

func channelRemoveReply(result storage.Result, channel, guild string) reply {
	switch result {
	case storage.Unregistered:
		return reply{content: fmt.Sprintf(":negative_squared_cross_mark: Word Filter: The guild **%s** is not registered, please add a channel to the whitelist first.", guild)}
	case storage.NotPresent:
		return reply{content: fmt.Sprintf(":negative_squared_cross_mark: Word Filter: Channel `%s` was already not whitelisted.", channel)}
	default:
		return reply{content: fmt.Sprintf(":white_check_mark: Word Filter: `%s` removed from the channel whitelist.", channel)}
	}
}

func pendingReply(notified bool) string {
	if notified {
		return "Added, notified and pending approval. :ok_hand:"
	}
	return "Added, but could not notify owner."
}
