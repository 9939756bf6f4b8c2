package bot

import (
	"context"
	"fmt"

	"nekoguard/internal/catalog"
	"nekoguard/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type commandOptions = []*discordgo.ApplicationCommandInteractionDataOption

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	switch data.Name {
	case "word_filter":
		b.handleWordFilterCommand(ctx, session, interaction, data.Options)
	case "catgirl":
		b.respondImage(session, interaction, catalog.Catgirls, "Catgirl")
	case "catboy":
		b.respondImage(session, interaction, catalog.Catboys, "Catboy")
	case "nyaa":
		b.handleNyaaCommand(ctx, session, interaction, data.Options)
	}
}

func (b *Bot) handleWordFilterCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options commandOptions) {
	if interaction.GuildID == "" {
		b.respond(session, interaction, "`Word Filter:` This command only works in servers.", true)
		return
	}
	if len(options) == 0 {
		b.respond(session, interaction, "`Word Filter:` Missing subcommand.", true)
		return
	}

	guildID := interaction.GuildID
	guild := b.guildName(session, guildID)
	sub := options[0]
	args := optionMap(sub.Options)

	switch sub.Name {
	case "add":
		b.send(session, interaction, "word_filter add", b.addPattern(ctx, interaction, guild, args.String("word")))
	case "remove":
		b.send(session, interaction, "word_filter remove", b.removePattern(ctx, interaction, guild, args.String("word")))
	case "list":
		patterns, ok := b.store.Patterns(guildID)
		if !ok {
			b.respond(session, interaction, fmt.Sprintf("`Word Filter:` The guild **%s** is not registered, please add a word first", guild), true)
			return
		}
		if len(patterns) == 0 {
			b.respond(session, interaction, fmt.Sprintf("Sorry you have no filtered words in **%s**", guild), true)
			return
		}
		embed := listEmbed("Filtered words for: **"+guild+"**", quoted(patterns), int(args.Int("page")), b.cfg.Filter.PageSize, b.cfg.Notifications.EmbedColors.Warning)
		b.respondEmbed(session, interaction, embed, true)
	case "togglemod":
		b.send(session, interaction, "word_filter togglemod", b.toggleModerators(ctx, interaction))
	case "whitelist":
		b.handleWhitelistCommand(ctx, session, interaction, guild, sub.Options)
	default:
		b.respond(session, interaction, "`Word Filter:` Unknown subcommand.", true)
	}
}

func (b *Bot) handleWhitelistCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, guild string, options commandOptions) {
	if len(options) == 0 {
		b.respond(session, interaction, "`Word Filter:` Missing subcommand.", true)
		return
	}
	guildID := interaction.GuildID
	sub := options[0]
	channel := optionMap(sub.Options).String("channel")

	switch sub.Name {
	case "add":
		b.send(session, interaction, "word_filter whitelist add", b.addChannel(ctx, interaction, channel))
	case "remove":
		b.send(session, interaction, "word_filter whitelist remove", b.removeChannel(ctx, interaction, guild, channel))
	case "list":
		channels, ok := b.store.Channels(guildID)
		if !ok {
			b.respond(session, interaction, fmt.Sprintf(":negative_squared_cross_mark: Word Filter: The guild **%s** is not registered, please add a channel first", guild), true)
			return
		}
		if len(channels) == 0 {
			b.respond(session, interaction, fmt.Sprintf("Sorry, there are no whitelisted channels in **%s**", guild), true)
			return
		}
		page := int(optionMap(sub.Options).Int("page"))
		embed := listEmbed("Whitelisted channels for: **"+guild+"**", quoted(channels), page, b.cfg.Filter.PageSize, b.cfg.Notifications.EmbedColors.Warning)
		b.respondEmbed(session, interaction, embed, true)
	default:
		b.respond(session, interaction, "`Word Filter:` Unknown subcommand.", true)
	}
}

func (b *Bot) handleNyaaCommand(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options commandOptions) {
	if len(options) == 0 {
		b.respond(session, interaction, "Missing subcommand.", true)
		return
	}
	sub := options[0]
	switch sub.Name {
	case "about":
		b.respondEmbed(session, interaction, aboutEmbed(b.cfg.Notifications.EmbedColors.Action), false)
	case "catgirl":
		b.respondImage(session, interaction, catalog.Catgirls, "Catgirl")
	case "catboy":
		b.respondImage(session, interaction, catalog.Catboys, "Catboy")
	case "local":
		b.respondImage(session, interaction, catalog.Local, "Catgirl")
	case "trap":
		b.respondImage(session, interaction, catalog.Traps, "Nekomimi")
	case "numbers":
		b.respond(session, interaction, countsMessage("There are:", b.catalog.Counts()), false)
	case "refresh":
		if err := b.catalog.Refresh(ctx); err != nil {
			b.respondError(session, interaction, "nyaa refresh", err)
			return
		}
		b.respond(session, interaction, countsMessage("List reloaded.  There are:", b.catalog.Counts()), false)
	case "debug":
		b.handleNyaaDebug(session, interaction)
	case "add":
		b.handleNyaaAdd(ctx, session, interaction, optionMap(sub.Options))
	default:
		b.respond(session, interaction, "Unknown subcommand.", true)
	}
}

func (b *Bot) respondImage(session *discordgo.Session, interaction *discordgo.InteractionCreate, kind catalog.Kind, title string) {
	entry, ok := b.catalog.Random(kind)
	if !ok {
		b.logger.Warn("catalog list empty", zap.String("list", string(kind)))
		b.respond(session, interaction, retryMessage, false)
		return
	}
	b.respondEmbed(session, interaction, imageEmbed(title, entry, b.cfg.Notifications.EmbedColors.Image), false)
}

func (b *Bot) handleNyaaDebug(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if err := b.deferReply(session, interaction, true); err != nil {
		return
	}
	userID := invokerID(interaction)
	var messages []string
	messages = append(messages, debugChunks("Debug Mode\nCatgirls:\n", entryURLs(b.catalog.List(catalog.Catgirls)), debugChunkLimit)...)
	messages = append(messages, debugChunks("Catboys:\n", entryURLs(b.catalog.List(catalog.Catboys)), debugChunkLimit)...)
	for _, message := range messages {
		if err := b.directMessage(userID, message); err != nil {
			b.editError(session, interaction, "nyaa debug", err)
			return
		}
	}
	b.editReply(session, interaction, "Sent the lists by DM.")
}

func (b *Bot) handleNyaaAdd(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, args optionSet) {
	if interaction.GuildID == "" {
		b.respond(session, interaction, "This command only works in servers.", true)
		return
	}
	link, err := utils.NormalizeImageURL(args.String("link"))
	if err != nil {
		b.respond(session, interaction, "That does not look like an image link.", true)
		return
	}
	if err := b.deferReply(session, interaction, false); err != nil {
		return
	}

	submitter := ""
	if user := invoker(interaction); user != nil {
		submitter = utils.DisplayName(user)
	}
	entry := catalog.ImageEntry{
		URL:       link,
		Character: args.String("description"),
		Submitter: submitter,
	}
	if err := b.catalog.AddPending(ctx, entry); err != nil {
		b.editError(session, interaction, "nyaa add", err)
		return
	}
	b.auditCommand(ctx, interaction, "catalog_image_submitted", "url="+link)

	notified := false
	if b.cfg.OwnerID != "" {
		if err := b.directMessage(b.cfg.OwnerID, "New catgirl image is pending approval. Please check the list!"); err != nil {
			b.logger.Warn("owner notification failed", zap.Error(err))
		} else {
			notified = true
		}
	}
	b.editReply(session, interaction, pendingReply(notified))
}

func (b *Bot) guildName(session *discordgo.Session, guildID string) string {
	if guild, err := session.State.Guild(guildID); err == nil && guild != nil && guild.Name != "" {
		return guild.Name
	}
	return guildID
}

func invoker(interaction *discordgo.InteractionCreate) *discordgo.User {
	if interaction.Member != nil && interaction.Member.User != nil {
		return interaction.Member.User
	}
	return interaction.User
}

func invokerID(interaction *discordgo.InteractionCreate) string {
	if user := invoker(interaction); user != nil {
		return user.ID
	}
	return ""
}

type optionSet map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(opts commandOptions) optionSet {
	out := make(optionSet, len(opts))
	for _, opt := range opts {
		out[opt.Name] = opt
	}
	return out
}

func (o optionSet) String(name string) string {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return ""
	}
	return opt.StringValue()
}

func (o optionSet) Int(name string) int64 {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionInteger {
		return 0
	}
	return opt.IntValue()
}
