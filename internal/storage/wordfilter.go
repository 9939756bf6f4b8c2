package storage

import (
	"context"
	"slices"

	"go.uber.org/zap"
)

const (
	FilterDocument    = "filter.json"
	WhitelistDocument = "whitelist.json"
	SettingsDocument  = "settings.json"
)

// ServerSettings are the per-guild word filter settings.
type ServerSettings struct {
	ModeratorsExempt bool `json:"toggleMod"`
}

// Result describes the outcome of a list mutation.
type Result int

const (
	Added Result = iota
	AlreadyPresent
	Removed
	NotPresent
	// Unregistered means the guild has never had an entry in the document.
	Unregistered
)

// Store holds the three word filter documents. Each document has its own
// write lock, so filter, whitelist and settings updates never block each other.
type Store struct {
	backend   Backend
	filters   *Document[[]string]
	whitelist *Document[[]string]
	settings  *Document[ServerSettings]
}

func New(ctx context.Context, backend Backend, logger *zap.Logger) (*Store, error) {
	filters, err := OpenDocument[[]string](ctx, backend, FilterDocument, logger)
	if err != nil {
		return nil, err
	}
	whitelist, err := OpenDocument[[]string](ctx, backend, WhitelistDocument, logger)
	if err != nil {
		return nil, err
	}
	settings, err := OpenDocument[ServerSettings](ctx, backend, SettingsDocument, logger)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend, filters: filters, whitelist: whitelist, settings: settings}, nil
}

func (s *Store) Close() {
	if s.backend != nil {
		s.backend.Close()
	}
}

// Patterns returns the guild's patterns in insertion order.
func (s *Store) Patterns(guildID string) ([]string, bool) {
	return s.filters.Get(guildID)
}

func (s *Store) AddPattern(ctx context.Context, guildID, pattern string) (Result, error) {
	return addEntry(ctx, s.filters, guildID, pattern)
}

func (s *Store) RemovePattern(ctx context.Context, guildID, pattern string) (Result, error) {
	return removeEntry(ctx, s.filters, guildID, pattern)
}

// Channels returns the names of the guild's whitelisted channels.
func (s *Store) Channels(guildID string) ([]string, bool) {
	return s.whitelist.Get(guildID)
}

func (s *Store) AddChannel(ctx context.Context, guildID, channel string) (Result, error) {
	return addEntry(ctx, s.whitelist, guildID, channel)
}

func (s *Store) RemoveChannel(ctx context.Context, guildID, channel string) (Result, error) {
	return removeEntry(ctx, s.whitelist, guildID, channel)
}

func (s *Store) Settings(guildID string) ServerSettings {
	settings, _ := s.settings.Get(guildID)
	return settings
}

// ToggleModerators flips the moderator exemption and returns the new value.
func (s *Store) ToggleModerators(ctx context.Context, guildID string) (bool, error) {
	var enabled bool
	err := s.settings.Update(ctx, guildID, func(current ServerSettings, _ bool) (ServerSettings, bool, error) {
		current.ModeratorsExempt = !current.ModeratorsExempt
		enabled = current.ModeratorsExempt
		return current, true, nil
	})
	return enabled, err
}

func addEntry(ctx context.Context, doc *Document[[]string], guildID, entry string) (Result, error) {
	result := Added
	err := doc.Update(ctx, guildID, func(current []string, _ bool) ([]string, bool, error) {
		if slices.Contains(current, entry) {
			result = AlreadyPresent
			return current, false, nil
		}
		return slices.Concat(current, []string{entry}), true, nil
	})
	return result, err
}

func removeEntry(ctx context.Context, doc *Document[[]string], guildID, entry string) (Result, error) {
	result := Removed
	err := doc.Update(ctx, guildID, func(current []string, exists bool) ([]string, bool, error) {
		if !exists {
			result = Unregistered
			return current, false, nil
		}
		idx := slices.Index(current, entry)
		if idx < 0 {
			result = NotPresent
			return current, false, nil
		}
		return slices.Delete(slices.Clone(current), idx, idx+1), true, nil
	})
	return result, err
}
