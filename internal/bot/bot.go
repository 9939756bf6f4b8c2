package bot

import (
	"context"
	"errors"

	"nekoguard/internal/catalog"
	"nekoguard/internal/config"
	"nekoguard/internal/modules/audit"
	"nekoguard/internal/modules/wordfilter"
	"nekoguard/internal/storage"
	"nekoguard/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Bot struct {
	cfg        config.Config
	logger     *zap.Logger
	store      *storage.Store
	catalog    *catalog.Catalog
	wordfilter *wordfilter.Module
	audit      *audit.Logger
	session    *discordgo.Session
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, images *catalog.Catalog, filterModule *wordfilter.Module, auditLogger *audit.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Bot{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		catalog:    images,
		wordfilter: filterModule,
		audit:      auditLogger,
		session:    session,
	}, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onMessageUpdate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	return b.registerCommands()
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username), zap.Int("guilds", len(event.Guilds)))
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Message == nil {
		return
	}
	b.filterMessage(session, msg.Message, false)
}

func (b *Bot) onMessageUpdate(session *discordgo.Session, msg *discordgo.MessageUpdate) {
	if msg.Message == nil {
		return
	}
	b.filterMessage(session, msg.Message, true)
}

func (b *Bot) filterMessage(session *discordgo.Session, msg *discordgo.Message, edited bool) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	if msg.GuildID == "" || msg.Content == "" {
		return
	}
	if _, ok := b.store.Patterns(msg.GuildID); !ok {
		return
	}

	ctx := context.Background()
	in := wordfilter.Message{
		ID:          msg.ID,
		GuildID:     msg.GuildID,
		ChannelID:   msg.ChannelID,
		ChannelName: b.channelName(session, msg.ChannelID),
		AuthorID:    msg.Author.ID,
		AuthorName:  utils.DisplayName(msg.Author),
		AuthorRoles: b.memberRoleNames(session, msg),
		Content:     msg.Content,
		Edited:      edited,
	}
	if _, err := b.wordfilter.HandleMessage(ctx, sessionActions{session: session}, in); err != nil {
		if utils.IsPermissionError(err) {
			b.logger.Debug("word filter lacks permissions", zap.String("guild_id", msg.GuildID), zap.String("channel_id", msg.ChannelID))
			return
		}
		b.logger.Warn("word filter action failed", zap.String("guild_id", msg.GuildID), zap.Error(err))
	}
}

func (b *Bot) channelName(session *discordgo.Session, channelID string) string {
	if channel, err := session.State.Channel(channelID); err == nil && channel != nil {
		return channel.Name
	}
	channel, err := session.Channel(channelID)
	if err != nil || channel == nil {
		return ""
	}
	return channel.Name
}

func (b *Bot) memberRoleNames(session *discordgo.Session, msg *discordgo.Message) []string {
	var roleIDs []string
	if msg.Member != nil {
		roleIDs = msg.Member.Roles
	} else if member := b.memberForUser(session, msg.GuildID, msg.Author.ID); member != nil {
		roleIDs = member.Roles
	}
	if len(roleIDs) == 0 {
		return nil
	}

	names := make([]string, 0, len(roleIDs))
	var fetched []*discordgo.Role
	for _, roleID := range roleIDs {
		if role, err := session.State.Role(msg.GuildID, roleID); err == nil && role != nil {
			names = append(names, role.Name)
			continue
		}
		if fetched == nil {
			roles, err := session.GuildRoles(msg.GuildID)
			if err != nil {
				b.logger.Debug("guild roles unavailable", zap.String("guild_id", msg.GuildID), zap.Error(err))
				continue
			}
			fetched = roles
		}
		for _, role := range fetched {
			if role.ID == roleID {
				names = append(names, role.Name)
				break
			}
		}
	}
	return names
}

func (b *Bot) memberForUser(session *discordgo.Session, guildID, userID string) *discordgo.Member {
	if member, err := session.State.Member(guildID, userID); err == nil && member != nil {
		return member
	}
	member, err := session.GuildMember(guildID, userID)
	if err != nil {
		return nil
	}
	return member
}

// sessionActions performs word filter actions through the live session.
type sessionActions struct {
	session *discordgo.Session
}

func (a sessionActions) DeleteMessage(channelID, messageID string) error {
	return a.session.ChannelMessageDelete(channelID, messageID)
}

func (a sessionActions) SendMessage(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return a.session.ChannelMessageSendComplex(channelID, data)
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:         content,
			Flags:           flags,
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
	})
	b.replyFailed(err)
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
	b.replyFailed(err)
}

// respondError logs err and answers with the generic retry message. Permission
// failures are dropped silently.
func (b *Bot) respondError(session *discordgo.Session, interaction *discordgo.InteractionCreate, command string, err error) {
	if utils.IsPermissionError(err) {
		return
	}
	b.logger.Warn("command failed", zap.String("command", command), zap.String("guild_id", interaction.GuildID), zap.Error(err))
	b.respond(session, interaction, retryMessage, true)
}

// deferReply acknowledges the interaction so slow work can finish after
// Discord's three second window. The final text goes through editReply.
func (b *Bot) deferReply(session *discordgo.Session, interaction *discordgo.InteractionCreate, ephemeral bool) error {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: flags},
	})
	b.replyFailed(err)
	return err
}

func (b *Bot) editReply(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string) {
	_, err := session.InteractionResponseEdit(interaction.Interaction, &discordgo.WebhookEdit{
		Content:         &content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	b.replyFailed(err)
}

// editError is respondError for a deferred interaction. The deferred reply
// has to be finished even on permission errors.
func (b *Bot) editError(session *discordgo.Session, interaction *discordgo.InteractionCreate, command string, err error) {
	if !utils.IsPermissionError(err) {
		b.logger.Warn("command failed", zap.String("command", command), zap.String("guild_id", interaction.GuildID), zap.Error(err))
	}
	b.editReply(session, interaction, retryMessage)
}

func (b *Bot) replyFailed(err error) {
	if err == nil || utils.IsPermissionError(err) {
		return
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		b.logger.Warn("interaction reply failed", zap.Int("code", restErr.Message.Code), zap.String("message", restErr.Message.Message))
		return
	}
	b.logger.Warn("interaction reply failed", zap.Error(err))
}

// auditCommand records an operator change made through a command.
func (b *Bot) auditCommand(ctx context.Context, interaction *discordgo.InteractionCreate, event, details string) {
	b.audit.Log(ctx, audit.Entry{
		GuildID:   interaction.GuildID,
		ChannelID: interaction.ChannelID,
		UserID:    invokerID(interaction),
		Level:     audit.LevelInfo,
		Event:     event,
		Details:   details,
	})
}

// directMessage sends content to a user through their DM channel.
func (b *Bot) directMessage(userID, content string) error {
	channel, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return err
	}
	_, err = b.session.ChannelMessageSend(channel.ID, content)
	return err
}
