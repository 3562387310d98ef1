package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

const (
	// Tracked messages older than this are never edited again.
	maxMessageAge = time.Hour
	// How often the cache sweep runs.
	sweepInterval = 30 * time.Minute
	// How many recent channel messages the duplicate cleanup inspects.
	cleanupWindow = 10
)

type trackedMessage struct {
	MessageID string
	Context   string
	TouchedAt time.Time
}

// MessengerStats is a read-only snapshot of the messenger cache.
type MessengerStats struct {
	TrackedChannels int
	Contexts        map[string]int
	OldestTouch     time.Time
	NewestTouch     time.Time
}

// ClientMessenger keeps each ticket channel down to a single bot-authored UI
// message. Callers hand it a rendered payload and it decides whether to edit
// the message it already tracks for that channel or to send a fresh one,
// deleting duplicates opportunistically along the way.
//
// The cache is process-local. Losing it on restart only costs an extra
// message in the channel, never a wrong edit: a message is edited only after
// it has been re-fetched and checked for author, embeds and age.
//
// Concurrent upserts for the same channel are allowed and not serialized.
// Two racing edits of the same message are benign; a racing invalidation can
// leave one stray duplicate, which the next create-path cleanup removes.
type ClientMessenger struct {
	api ChannelAPI

	mu      sync.Mutex
	entries map[string]*trackedMessage

	stop     chan struct{}
	stopOnce sync.Once
}

func NewClientMessenger(api ChannelAPI) *ClientMessenger {
	m := &ClientMessenger{
		api:     api,
		entries: make(map[string]*trackedMessage),
		stop:    make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// SendOrEdit updates the channel's UI message in place when the tracked
// message is still valid, otherwise sends a new one. The returned message is
// the channel's current UI either way.
func (m *ClientMessenger) SendOrEdit(ctx context.Context, channelID string, data *discordgo.MessageSend, contextTag string) (*discordgo.Message, error) {
	return m.upsert(ctx, channelID, data, contextTag, false)
}

// ForceNew always sends a new message, replacing whatever was tracked. Used
// for screens that must not overwrite what the user is currently reading,
// like checkout confirmations.
func (m *ClientMessenger) ForceNew(ctx context.Context, channelID string, data *discordgo.MessageSend, contextTag string) (*discordgo.Message, error) {
	return m.upsert(ctx, channelID, data, contextTag, true)
}

func (m *ClientMessenger) upsert(ctx context.Context, channelID string, data *discordgo.MessageSend, contextTag string, forceNew bool) (*discordgo.Message, error) {
	if !forceNew {
		if target := m.editTarget(ctx, channelID); target != nil {
			edited, err := m.api.Edit(ctx, channelID, target.ID, data)
			if err != nil {
				// Terminal failure: the caller gets it, no second attempt.
				return nil, fmt.Errorf("edit message %s in channel %s: %w", target.ID, channelID, err)
			}
			m.track(channelID, target.ID, contextTag)
			return edited, nil
		}
	}
	return m.createNew(ctx, channelID, data, contextTag)
}

// editTarget returns the fetched tracked message when it is still safe to
// edit. Any miss (no entry, expired entry, fetch failure, failed validation)
// drops the cache entry and returns nil.
func (m *ClientMessenger) editTarget(ctx context.Context, channelID string) *discordgo.Message {
	m.mu.Lock()
	entry, ok := m.entries[channelID]
	var messageID string
	var touchedAt time.Time
	if ok {
		messageID = entry.MessageID
		touchedAt = entry.TouchedAt
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}
	if time.Since(touchedAt) > maxMessageAge {
		m.Invalidate(channelID)
		return nil
	}

	msg, err := m.api.Message(ctx, channelID, messageID)
	if err != nil {
		log.Printf("[messenger] could not fetch tracked message %s in channel %s: %v", messageID, channelID, err)
		m.Invalidate(channelID)
		return nil
	}

	if !m.editable(msg) {
		m.Invalidate(channelID)
		return nil
	}
	return msg
}

// editable reports whether a fetched message still represents bot-owned,
// recent, embed-bearing UI.
func (m *ClientMessenger) editable(msg *discordgo.Message) bool {
	if msg == nil || msg.Author == nil || msg.Author.ID != m.api.BotUserID() {
		return false
	}
	if len(msg.Embeds) == 0 {
		return false
	}
	if time.Since(msg.Timestamp) > maxMessageAge {
		return false
	}
	return true
}

func (m *ClientMessenger) createNew(ctx context.Context, channelID string, data *discordgo.MessageSend, contextTag string) (*discordgo.Message, error) {
	m.cleanupChannel(ctx, channelID)

	msg, err := m.api.Send(ctx, channelID, data)
	if err != nil {
		return nil, fmt.Errorf("send message to channel %s: %w", channelID, err)
	}

	m.track(channelID, msg.ID, contextTag)
	return msg, nil
}

// cleanupChannel deletes all but the most recent bot-authored embed message
// from the channel's recent history. Best effort: failures are logged and the
// upsert proceeds regardless.
func (m *ClientMessenger) cleanupChannel(ctx context.Context, channelID string) {
	msgs, err := m.api.RecentMessages(ctx, channelID, cleanupWindow)
	if err != nil {
		log.Printf("[messenger] could not list recent messages in channel %s: %v", channelID, err)
		return
	}

	botID := m.api.BotUserID()
	var own []*discordgo.Message
	for _, msg := range msgs {
		if msg.Author != nil && msg.Author.ID == botID && len(msg.Embeds) > 0 {
			own = append(own, msg)
		}
	}
	if len(own) <= 1 {
		return
	}

	sort.Slice(own, func(i, j int) bool {
		return own[i].Timestamp.After(own[j].Timestamp)
	})

	for _, msg := range own[1:] {
		if err := m.api.Delete(ctx, channelID, msg.ID); err != nil {
			log.Printf("[messenger] could not delete duplicate message %s in channel %s: %v", msg.ID, channelID, err)
		}
	}
}

func (m *ClientMessenger) track(channelID, messageID, contextTag string) {
	m.mu.Lock()
	m.entries[channelID] = &trackedMessage{
		MessageID: messageID,
		Context:   contextTag,
		TouchedAt: time.Now(),
	}
	m.mu.Unlock()
}

// Invalidate drops the tracked entry for a channel so the next upsert sends a
// new message.
func (m *ClientMessenger) Invalidate(channelID string) {
	m.mu.Lock()
	delete(m.entries, channelID)
	m.mu.Unlock()
}

func (m *ClientMessenger) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep(time.Now())
		}
	}
}

// sweep removes entries untouched for longer than maxMessageAge. Memory
// housekeeping only; it never touches Discord.
func (m *ClientMessenger) sweep(now time.Time) {
	m.mu.Lock()
	cleaned := 0
	for channelID, entry := range m.entries {
		if now.Sub(entry.TouchedAt) > maxMessageAge {
			delete(m.entries, channelID)
			cleaned++
		}
	}
	m.mu.Unlock()

	if cleaned > 0 {
		log.Printf("[messenger] swept %d stale cache entries", cleaned)
	}
}

func (m *ClientMessenger) Stats() MessengerStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := MessengerStats{
		TrackedChannels: len(m.entries),
		Contexts:        make(map[string]int),
	}
	for _, entry := range m.entries {
		stats.Contexts[entry.Context]++
		if stats.OldestTouch.IsZero() || entry.TouchedAt.Before(stats.OldestTouch) {
			stats.OldestTouch = entry.TouchedAt
		}
		if entry.TouchedAt.After(stats.NewestTouch) {
			stats.NewestTouch = entry.TouchedAt
		}
	}
	return stats
}

func (m *ClientMessenger) Close() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}
