package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"pgregory.net/rapid"
)

const testBotID = "bot-1"

type fakeChannelAPI struct {
	mu       sync.Mutex
	botID    string
	nextID   int
	baseTime time.Time
	channels map[string][]*discordgo.Message

	failFetch bool
	failSend  bool
	failEdit  bool

	sends   int
	edits   int
	deletes int
}

func newFakeChannelAPI() *fakeChannelAPI {
	return &fakeChannelAPI{
		botID:    testBotID,
		baseTime: time.Now().Add(-time.Minute),
		channels: make(map[string][]*discordgo.Message),
	}
}

func (f *fakeChannelAPI) BotUserID() string { return f.botID }

func (f *fakeChannelAPI) Message(_ context.Context, channelID, messageID string) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFetch {
		return nil, errors.New("fetch failed")
	}
	for _, msg := range f.channels[channelID] {
		if msg.ID == messageID {
			return msg, nil
		}
	}
	return nil, errors.New("unknown message")
}

func (f *fakeChannelAPI) RecentMessages(_ context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.channels[channelID]
	var out []*discordgo.Message
	for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, msgs[i])
	}
	return out, nil
}

func (f *fakeChannelAPI) Send(_ context.Context, channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return nil, errors.New("send failed")
	}
	f.nextID++
	f.sends++
	msg := &discordgo.Message{
		ID:        fmt.Sprintf("msg-%d", f.nextID),
		ChannelID: channelID,
		Author:    &discordgo.User{ID: f.botID},
		Timestamp: f.baseTime.Add(time.Duration(f.nextID) * time.Second),
		Content:   data.Content,
		Embeds:    data.Embeds,
	}
	f.channels[channelID] = append(f.channels[channelID], msg)
	return msg, nil
}

func (f *fakeChannelAPI) Edit(_ context.Context, channelID, messageID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEdit {
		return nil, errors.New("edit failed")
	}
	for _, msg := range f.channels[channelID] {
		if msg.ID == messageID {
			msg.Content = data.Content
			msg.Embeds = data.Embeds
			f.edits++
			return msg, nil
		}
	}
	return nil, errors.New("unknown message")
}

func (f *fakeChannelAPI) Delete(_ context.Context, channelID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.channels[channelID]
	for i, msg := range msgs {
		if msg.ID == messageID {
			f.channels[channelID] = append(msgs[:i], msgs[i+1:]...)
			f.deletes++
			return nil
		}
	}
	return errors.New("unknown message")
}

func (f *fakeChannelAPI) botEmbedCount(channelID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, msg := range f.channels[channelID] {
		if msg.Author != nil && msg.Author.ID == f.botID && len(msg.Embeds) > 0 {
			count++
		}
	}
	return count
}

func (f *fakeChannelAPI) find(channelID, messageID string) *discordgo.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.channels[channelID] {
		if msg.ID == messageID {
			return msg
		}
	}
	return nil
}

func embedPayload(description string) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{{Description: description}},
	}
}

func TestSendOrEdit_SecondCallEditsInPlace(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	first, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v1"), "cart_1")
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v2"), "cart_1")
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected second upsert to edit message %s, got new message %s", first.ID, second.ID)
	}
	if fake.sends != 1 {
		t.Errorf("expected exactly 1 send, got %d", fake.sends)
	}
	if fake.edits != 1 {
		t.Errorf("expected exactly 1 edit, got %d", fake.edits)
	}
	if got := fake.find("chan-1", first.ID).Embeds[0].Description; got != "v2" {
		t.Errorf("expected edited embed to show v2, got %q", got)
	}
}

func TestSendOrEdit_EmbedlessMessageNotEdited(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	first, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v1"), "cart_1")
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// The tracked message lost its embeds (e.g. an admin stripped them).
	fake.find("chan-1", first.ID).Embeds = nil

	second, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v2"), "cart_1")
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.ID == first.ID {
		t.Error("expected a new message instead of editing the embed-less one")
	}
	if fake.sends != 2 {
		t.Errorf("expected 2 sends, got %d", fake.sends)
	}
}

func TestSendOrEdit_ForeignAuthorNotEdited(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	first, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v1"), "cart_1")
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Simulate the tracked ID now resolving to someone else's message.
	fake.find("chan-1", first.ID).Author = &discordgo.User{ID: "someone-else"}

	second, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v2"), "cart_1")
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.ID == first.ID {
		t.Error("expected a new message instead of editing a foreign-authored one")
	}
	if fake.edits != 0 {
		t.Errorf("expected no edits, got %d", fake.edits)
	}
}

func TestSendOrEdit_ExpiredEntryNotReused(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	first, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v1"), "cart_1")
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Age the cache entry past the threshold while it is still map-resident.
	m.mu.Lock()
	m.entries["chan-1"].TouchedAt = time.Now().Add(-2 * time.Hour)
	m.mu.Unlock()

	second, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v2"), "cart_1")
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.ID == first.ID {
		t.Error("expected a new message instead of reusing the expired entry")
	}
	if fake.edits != 0 {
		t.Errorf("expected no edits, got %d", fake.edits)
	}
}

func TestSendOrEdit_OldMessageNotEdited(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	first, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v1"), "cart_1")
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	// Cache entry is fresh but the Discord-side message itself is old.
	fake.find("chan-1", first.ID).Timestamp = time.Now().Add(-2 * time.Hour)

	second, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v2"), "cart_1")
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	if second.ID == first.ID {
		t.Error("expected a new message instead of editing a too-old one")
	}
}

func TestForceNew_BypassesValidEntry(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	first, err := m.SendOrEdit(ctx, "chan-1", embedPayload("cart"), "cart_1")
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	forced, err := m.ForceNew(ctx, "chan-1", embedPayload("checkout"), "checkout_1")
	if err != nil {
		t.Fatalf("forced upsert failed: %v", err)
	}

	if forced.ID == first.ID {
		t.Error("expected ForceNew to create a new message")
	}

	m.mu.Lock()
	entry := m.entries["chan-1"]
	m.mu.Unlock()
	if entry == nil || entry.MessageID != forced.ID {
		t.Fatalf("expected cache to track %s, got %+v", forced.ID, entry)
	}
	if entry.Context != "checkout_1" {
		t.Errorf("expected context checkout_1, got %q", entry.Context)
	}
}

func TestCreatePath_CleanupKeepsSingleRecentDuplicate(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	var last *discordgo.Message
	var err error
	for i := 0; i < 5; i++ {
		last, err = m.ForceNew(ctx, "chan-1", embedPayload(fmt.Sprintf("v%d", i)), "cart_1")
		if err != nil {
			t.Fatalf("forced upsert %d failed: %v", i, err)
		}
	}

	// Each create keeps at most the previous UI message around; everything
	// older is removed before the new send.
	if count := fake.botEmbedCount("chan-1"); count > 2 {
		t.Errorf("expected at most 2 bot embed messages after creates, got %d", count)
	}

	// One more create sweeps the rest: only the newly sent message plus the
	// single kept duplicate may remain.
	next, err := m.ForceNew(ctx, "chan-1", embedPayload("final"), "cart_1")
	if err != nil {
		t.Fatalf("final forced upsert failed: %v", err)
	}
	if count := fake.botEmbedCount("chan-1"); count != 2 {
		t.Errorf("expected exactly 2 bot embed messages (kept %s + new %s), got %d", last.ID, next.ID, count)
	}
	if fake.deletes == 0 {
		t.Error("expected cleanup to have deleted older duplicates")
	}
}

func TestSendOrEdit_FetchFailureFallsBackToCreate(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	first, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v1"), "cart_1")
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	fake.failFetch = true
	second, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v2"), "cart_1")
	if err != nil {
		t.Fatalf("upsert should absorb fetch failures, got: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a new message after fetch failure")
	}
}

func TestSendOrEdit_EditFailurePropagates(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	if _, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v1"), "cart_1"); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	fake.failEdit = true
	if _, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v2"), "cart_1"); err == nil {
		t.Error("expected edit failure to propagate")
	}
}

func TestSendOrEdit_SendFailurePropagates(t *testing.T) {
	fake := newFakeChannelAPI()
	fake.failSend = true
	m := NewClientMessenger(fake)
	defer m.Close()

	if _, err := m.SendOrEdit(context.Background(), "chan-1", embedPayload("v1"), "cart_1"); err == nil {
		t.Error("expected send failure to propagate")
	}
}

func TestUpsert_CartThenCheckoutScenario(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	m1, err := m.SendOrEdit(ctx, "chan-C", embedPayload("cart v1"), "cart_1")
	if err != nil {
		t.Fatalf("cart v1 failed: %v", err)
	}

	m1b, err := m.SendOrEdit(ctx, "chan-C", embedPayload("cart v2"), "cart_1")
	if err != nil {
		t.Fatalf("cart v2 failed: %v", err)
	}
	if m1b.ID != m1.ID {
		t.Fatalf("expected cart v2 to edit %s in place, got %s", m1.ID, m1b.ID)
	}

	m2, err := m.ForceNew(ctx, "chan-C", embedPayload("checkout"), "checkout_1")
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if m2.ID == m1.ID {
		t.Fatal("expected checkout to be a new message")
	}

	m.mu.Lock()
	entry := m.entries["chan-C"]
	m.mu.Unlock()
	if entry.MessageID != m2.ID || entry.Context != "checkout_1" {
		t.Errorf("expected cache {%s checkout_1}, got {%s %s}", m2.ID, entry.MessageID, entry.Context)
	}

	// M1 stays in history until a later create-path cleanup removes it.
	if fake.find("chan-C", m1.ID) == nil {
		t.Error("expected the old cart message to remain in channel history")
	}
}

func TestInvalidate_NextUpsertCreates(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	first, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v1"), "cart_1")
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	m.Invalidate("chan-1")

	second, err := m.SendOrEdit(ctx, "chan-1", embedPayload("v2"), "cart_1")
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a new message after invalidation")
	}
}

func TestSweep_RemovesExpiredEntries(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		channelID := fmt.Sprintf("chan-%d", i)
		if _, err := m.SendOrEdit(ctx, channelID, embedPayload("v1"), "cart_1"); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	m.mu.Lock()
	m.entries["chan-0"].TouchedAt = time.Now().Add(-90 * time.Minute)
	m.entries["chan-1"].TouchedAt = time.Now().Add(-61 * time.Minute)
	m.mu.Unlock()

	m.sweep(time.Now())

	stats := m.Stats()
	if stats.TrackedChannels != 1 {
		t.Errorf("expected 1 tracked channel after sweep, got %d", stats.TrackedChannels)
	}
}

func TestStats_CountsContexts(t *testing.T) {
	fake := newFakeChannelAPI()
	m := NewClientMessenger(fake)
	defer m.Close()
	ctx := context.Background()

	if _, err := m.SendOrEdit(ctx, "chan-1", embedPayload("a"), "cart_1"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if _, err := m.SendOrEdit(ctx, "chan-2", embedPayload("b"), "cart_2"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if _, err := m.ForceNew(ctx, "chan-3", embedPayload("c"), "checkout_2"); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	stats := m.Stats()
	if stats.TrackedChannels != 3 {
		t.Errorf("expected 3 tracked channels, got %d", stats.TrackedChannels)
	}
	if stats.Contexts["checkout_2"] != 1 {
		t.Errorf("expected 1 checkout_2 context, got %d", stats.Contexts["checkout_2"])
	}
	if stats.OldestTouch.After(stats.NewestTouch) {
		t.Error("expected oldest touch not after newest touch")
	}
}

// Property: whatever mix of edits and forced creates runs against a channel,
// the cache tracks the newest bot message and the recent window never holds
// more than two bot embed messages.
func TestUpsertSequence_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		fake := newFakeChannelAPI()
		m := NewClientMessenger(fake)
		defer m.Close()
		ctx := context.Background()

		steps := rapid.IntRange(1, 20).Draw(rt, "steps")
		var lastID string
		for i := 0; i < steps; i++ {
			forceNew := rapid.Bool().Draw(rt, fmt.Sprintf("force-%d", i))
			payload := embedPayload(fmt.Sprintf("step %d", i))

			var msg *discordgo.Message
			var err error
			if forceNew {
				msg, err = m.ForceNew(ctx, "chan-1", payload, "cart_1")
			} else {
				msg, err = m.SendOrEdit(ctx, "chan-1", payload, "cart_1")
			}
			if err != nil {
				rt.Fatalf("upsert %d failed: %v", i, err)
			}
			lastID = msg.ID

			if count := fake.botEmbedCount("chan-1"); count > 2 {
				rt.Fatalf("step %d: %d bot embed messages in channel, want <= 2", i, count)
			}
		}

		m.mu.Lock()
		entry := m.entries["chan-1"]
		m.mu.Unlock()
		if entry == nil {
			rt.Fatal("expected a tracked entry after upserts")
		}
		if entry.MessageID != lastID {
			rt.Fatalf("cache tracks %s, want newest message %s", entry.MessageID, lastID)
		}
	})
}
