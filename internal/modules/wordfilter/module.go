package wordfilter

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"nekoguard/internal/filter"
	"nekoguard/internal/modules/audit"
	"nekoguard/internal/policy"
	"nekoguard/internal/utils"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	DefaultNoticeDelay = 3 * time.Second
	// RepeatWindow is how far back audit entries count an author's earlier
	// filtered messages.
	RepeatWindow = 10 * time.Minute
)

// Embed colours for censored echoes: purple, red, blue, orange, green.
var palette = []int{0x9B59B6, 0xE74C3C, 0x3498DB, 0xE67E22, 0x2ECC71}

// Actions are the Discord operations the module performs.
type Actions interface {
	DeleteMessage(channelID, messageID string) error
	SendMessage(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
}

type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Message is a created or edited chat message, already resolved to names.
type Message struct {
	ID          string
	GuildID     string
	ChannelID   string
	ChannelName string
	AuthorID    string
	AuthorName  string
	AuthorRoles []string
	Content     string
	Edited      bool
}

type Outcome int

const (
	OutcomeNone Outcome = iota
	// OutcomeNotice: original deleted, short-lived notice posted.
	OutcomeNotice
	// OutcomeReplaced: original deleted, censored text reposted.
	OutcomeReplaced
)

type Module struct {
	policy      *policy.Policy
	source      policy.Source
	matcher     *filter.Matcher
	audit       *audit.Logger
	logger      *zap.Logger
	clock       Clock
	noticeDelay time.Duration
	pick        func(n int) int
	repeats     *utils.HitCounter
	now         func() time.Time
}

func New(source policy.Source, pol *policy.Policy, matcher *filter.Matcher, auditLogger *audit.Logger, logger *zap.Logger, noticeDelay time.Duration) *Module {
	if noticeDelay <= 0 {
		noticeDelay = DefaultNoticeDelay
	}
	return &Module{
		policy:      pol,
		source:      source,
		matcher:     matcher,
		audit:       auditLogger,
		logger:      logger,
		clock:       realClock{},
		noticeDelay: noticeDelay,
		pick:        rand.IntN,
		repeats:     utils.NewHitCounter(RepeatWindow),
		now:         time.Now,
	}
}

func (m *Module) WithClock(clock Clock) {
	m.clock = clock
}

// ValidatePattern reports whether pattern can be used by the filter.
func (m *Module) ValidatePattern(pattern string) error {
	return m.matcher.Validate(pattern)
}

func (m *Module) HandleMessage(ctx context.Context, actions Actions, msg Message) (Outcome, error) {
	if msg.Content == "" {
		return OutcomeNone, nil
	}
	in := policy.Input{GuildID: msg.GuildID, ChannelName: msg.ChannelName, AuthorRoles: msg.AuthorRoles}
	if !m.policy.ShouldFilter(in) {
		return OutcomeNone, nil
	}

	patterns, _ := m.source.Patterns(msg.GuildID)
	result := m.matcher.Censor(msg.Content, patterns)
	for _, pattern := range result.Invalid {
		m.logger.Warn("word filter pattern skipped", zap.String("guild_id", msg.GuildID), zap.String("pattern", pattern))
	}
	if !result.Changed {
		return OutcomeNone, nil
	}

	if err := actions.DeleteMessage(msg.ChannelID, msg.ID); err != nil {
		return OutcomeNone, fmt.Errorf("delete filtered message: %w", err)
	}

	if result.FullyRedacted || filter.SingleToken(msg.Content) {
		notice, err := actions.SendMessage(msg.ChannelID, &discordgo.MessageSend{
			Content: fmt.Sprintf("<@%s> was filtered!", msg.AuthorID),
		})
		m.record(ctx, msg, "message_filtered", "notice")
		if err != nil {
			return OutcomeNotice, fmt.Errorf("send filter notice: %w", err)
		}
		if notice != nil {
			m.clock.AfterFunc(m.noticeDelay, func() {
				if err := actions.DeleteMessage(msg.ChannelID, notice.ID); err != nil {
					m.logger.Debug("filter notice cleanup failed", zap.Error(err))
				}
			})
		}
		return OutcomeNotice, nil
	}

	_, err := actions.SendMessage(msg.ChannelID, &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s> was filtered! Message was: \n", msg.AuthorID),
		Embeds: []*discordgo.MessageEmbed{{
			Color:       palette[m.pick(len(palette))],
			Description: fmt.Sprintf("%s: %s", msg.AuthorName, result.Text),
		}},
		AllowedMentions: &discordgo.MessageAllowedMentions{Users: []string{msg.AuthorID}},
	})
	m.record(ctx, msg, "message_censored", "replaced")
	if err != nil {
		return OutcomeReplaced, fmt.Errorf("send censored message: %w", err)
	}
	return OutcomeReplaced, nil
}

func (m *Module) record(ctx context.Context, msg Message, event, action string) {
	recent := m.repeats.Add(msg.GuildID+":"+msg.AuthorID, m.now())
	details := fmt.Sprintf("action=%s recent=%d", action, recent)
	if msg.Edited {
		details += " edited=true"
	}
	m.audit.Log(ctx, audit.Entry{
		GuildID:   msg.GuildID,
		ChannelID: msg.ChannelID,
		UserID:    msg.AuthorID,
		Level:     audit.LevelWarn,
		Event:     event,
		Details:   details,
	})
}
