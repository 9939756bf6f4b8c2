package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	LevelInfo = "INFO"
	LevelWarn = "WARN"
)

type Entry struct {
	GuildID   string
	ChannelID string
	UserID    string
	Level     string
	Event     string
	Details   string
	CreatedAt time.Time
}

// Logger records moderation events as structured log lines.
type Logger struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger, now: time.Now}
}

func (l *Logger) Log(ctx context.Context, entry Entry) Entry {
	_ = ctx
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now()
	}
	fields := []zap.Field{
		zap.String("audit_level", entry.Level),
		zap.String("guild_id", entry.GuildID),
		zap.String("channel_id", entry.ChannelID),
		zap.String("user_id", entry.UserID),
		zap.String("event", entry.Event),
		zap.String("details", entry.Details),
		zap.Time("at", entry.CreatedAt),
	}
	if entry.Level == LevelWarn {
		l.logger.Warn("audit", fields...)
		return entry
	}
	l.logger.Info("audit", fields...)
	return entry
}
