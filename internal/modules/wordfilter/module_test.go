package wordfilter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"nekoguard/internal/config"
	"nekoguard/internal/filter"
	"nekoguard/internal/modules/audit"
	"nekoguard/internal/policy"
	"nekoguard/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSource struct {
	patterns []string
	settings storage.ServerSettings
}

func (f fakeSource) Patterns(guildID string) ([]string, bool) {
	if guildID != "g1" {
		return nil, false
	}
	return f.patterns, true
}

func (f fakeSource) Channels(string) ([]string, bool) {
	return []string{"rules"}, true
}

func (f fakeSource) Settings(string) storage.ServerSettings {
	return f.settings
}

type sent struct {
	channelID string
	data      *discordgo.MessageSend
}

type fakeActions struct {
	mu        sync.Mutex
	deleted   []string
	sent      []sent
	deleteErr error
}

func (f *fakeActions) DeleteMessage(channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, channelID+"/"+messageID)
	return nil
}

func (f *fakeActions) SendMessage(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{channelID: channelID, data: data})
	return &discordgo.Message{ID: "notice", ChannelID: channelID}, nil
}

type fakeTimer struct {
	delay time.Duration
	fn    func()
}

func (t *fakeTimer) Stop() bool { return true }

type fakeClock struct {
	timers []*fakeTimer
}

func (f *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	t := &fakeTimer{delay: d, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *fakeClock) Fire() {
	pending := f.timers
	f.timers = nil
	for _, timer := range pending {
		timer.fn()
	}
}

func newModule(source fakeSource) (*Module, *fakeClock) {
	roles := func(string) config.RoleNames { return config.RoleNames{Moderator: "Moderator", Admin: "Admin"} }
	module := New(source, policy.New(source, roles), filter.NewMatcher(0), audit.NewLogger(zap.NewNop()), zap.NewNop(), 0)
	clock := &fakeClock{}
	module.WithClock(clock)
	module.pick = func(int) int { return 0 }
	return module, clock
}

func message(content string) Message {
	return Message{
		ID:          "m1",
		GuildID:     "g1",
		ChannelID:   "c1",
		ChannelName: "chat",
		AuthorID:    "u1",
		AuthorName:  "neko",
		AuthorRoles: []string{"Member"},
		Content:     content,
	}
}

func TestCleanMessageUntouched(t *testing.T) {
	module, _ := newModule(fakeSource{patterns: []string{"cat"}})
	actions := &fakeActions{}

	outcome, err := module.HandleMessage(context.Background(), actions, message("I love cats"))
	if err != nil || outcome != OutcomeNone {
		t.Fatalf("expected no action, got %v %v", outcome, err)
	}
	if len(actions.deleted) != 0 || len(actions.sent) != 0 {
		t.Fatalf("unexpected actions %+v", actions)
	}
}

func TestSingleWordDeletedWithTransientNotice(t *testing.T) {
	module, clock := newModule(fakeSource{patterns: []string{"cat"}})
	actions := &fakeActions{}

	outcome, err := module.HandleMessage(context.Background(), actions, message("CAT"))
	if err != nil || outcome != OutcomeNotice {
		t.Fatalf("expected notice, got %v %v", outcome, err)
	}
	if len(actions.deleted) != 1 || actions.deleted[0] != "c1/m1" {
		t.Fatalf("expected original deleted, got %v", actions.deleted)
	}
	if len(actions.sent) != 1 || actions.sent[0].data.Content != "<@u1> was filtered!" {
		t.Fatalf("unexpected notice %+v", actions.sent)
	}
	if len(actions.sent[0].data.Embeds) != 0 {
		t.Fatalf("notice must not carry message content")
	}
	if len(clock.timers) != 1 || clock.timers[0].delay != DefaultNoticeDelay {
		t.Fatalf("expected notice cleanup after %s", DefaultNoticeDelay)
	}

	clock.Fire()
	if len(actions.deleted) != 2 || actions.deleted[1] != "c1/notice" {
		t.Fatalf("expected notice deleted, got %v", actions.deleted)
	}
}

func TestFullyRedactedSentenceUsesNotice(t *testing.T) {
	module, _ := newModule(fakeSource{patterns: []string{"cat", "dog"}})
	actions := &fakeActions{}

	outcome, err := module.HandleMessage(context.Background(), actions, message("cat dog"))
	if err != nil || outcome != OutcomeNotice {
		t.Fatalf("expected notice, got %v %v", outcome, err)
	}
}

func TestPartialRedactionReposted(t *testing.T) {
	module, clock := newModule(fakeSource{patterns: []string{"cat"}})
	actions := &fakeActions{}

	outcome, err := module.HandleMessage(context.Background(), actions, message("I love cat"))
	if err != nil || outcome != OutcomeReplaced {
		t.Fatalf("expected replacement, got %v %v", outcome, err)
	}
	if len(actions.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(actions.sent))
	}
	data := actions.sent[0].data
	if !strings.HasPrefix(data.Content, "<@u1> was filtered! Message was:") {
		t.Fatalf("unexpected content %q", data.Content)
	}
	if len(data.Embeds) != 1 || data.Embeds[0].Description != "neko: I love `***`" {
		t.Fatalf("unexpected embed %+v", data.Embeds)
	}
	if data.Embeds[0].Color != palette[0] {
		t.Fatalf("unexpected colour %x", data.Embeds[0].Color)
	}
	if len(clock.timers) != 0 {
		t.Fatalf("replacement must not be scheduled for deletion")
	}
}

func TestEditedMessageChecked(t *testing.T) {
	module, _ := newModule(fakeSource{patterns: []string{"cat"}})
	actions := &fakeActions{}
	msg := message("now it says cat")
	msg.Edited = true

	outcome, err := module.HandleMessage(context.Background(), actions, msg)
	if err != nil || outcome != OutcomeReplaced {
		t.Fatalf("expected replacement, got %v %v", outcome, err)
	}
}

func TestExemptionsSkipFiltering(t *testing.T) {
	module, _ := newModule(fakeSource{patterns: []string{"cat"}, settings: storage.ServerSettings{ModeratorsExempt: true}})
	actions := &fakeActions{}

	mod := message("cat")
	mod.AuthorRoles = []string{"moderator"}
	whitelisted := message("cat")
	whitelisted.ChannelName = "Rules"
	direct := message("cat")
	direct.GuildID = ""

	for _, msg := range []Message{mod, whitelisted, direct} {
		outcome, err := module.HandleMessage(context.Background(), actions, msg)
		if err != nil || outcome != OutcomeNone {
			t.Fatalf("expected no action for %+v, got %v %v", msg, outcome, err)
		}
	}
}

func TestDeleteFailureReported(t *testing.T) {
	module, _ := newModule(fakeSource{patterns: []string{"cat"}})
	actions := &fakeActions{deleteErr: errors.New("boom")}

	outcome, err := module.HandleMessage(context.Background(), actions, message("cat"))
	if err == nil || outcome != OutcomeNone {
		t.Fatalf("expected error, got %v %v", outcome, err)
	}
	if len(actions.sent) != 0 {
		t.Fatalf("nothing should be posted when delete fails")
	}
}

func TestAuditCountsRepeatOffences(t *testing.T) {
	module, _ := newModule(fakeSource{patterns: []string{"cat"}})
	core, logs := observer.New(zapcore.InfoLevel)
	module.audit = audit.NewLogger(zap.New(core))
	start := time.Unix(1000, 0)
	now := start
	module.now = func() time.Time { return now }

	actions := &fakeActions{}
	for _, at := range []time.Time{start, start.Add(time.Minute), start.Add(time.Hour)} {
		now = at
		if _, err := module.HandleMessage(context.Background(), actions, message("cat")); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	var details []string
	for _, entry := range logs.All() {
		details = append(details, entry.ContextMap()["details"].(string))
	}
	want := []string{"action=notice recent=1", "action=notice recent=2", "action=notice recent=1"}
	if strings.Join(details, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected audit details %q", details)
	}
}
