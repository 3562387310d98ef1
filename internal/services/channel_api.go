package services

import (
	"context"

	"github.com/bwmarrin/discordgo"
)

// ChannelAPI is the slice of the Discord API the client messenger needs:
// fetch, send, edit and delete messages in a channel. Payloads stay opaque
// *discordgo.MessageSend values; the adapter converts them for edits.
type ChannelAPI interface {
	BotUserID() string
	Message(ctx context.Context, channelID, messageID string) (*discordgo.Message, error)
	RecentMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error)
	Send(ctx context.Context, channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	Edit(ctx context.Context, channelID, messageID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	Delete(ctx context.Context, channelID, messageID string) error
}

// SessionChannelAPI adapts a live discordgo session to ChannelAPI.
type SessionChannelAPI struct {
	session *discordgo.Session
}

func NewSessionChannelAPI(session *discordgo.Session) *SessionChannelAPI {
	return &SessionChannelAPI{session: session}
}

func (a *SessionChannelAPI) BotUserID() string {
	if a.session.State != nil && a.session.State.User != nil {
		return a.session.State.User.ID
	}
	return ""
}

func (a *SessionChannelAPI) Message(ctx context.Context, channelID, messageID string) (*discordgo.Message, error) {
	return a.session.ChannelMessage(channelID, messageID, discordgo.WithContext(ctx))
}

func (a *SessionChannelAPI) RecentMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	return a.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
}

func (a *SessionChannelAPI) Send(ctx context.Context, channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return a.session.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
}

func (a *SessionChannelAPI) Edit(ctx context.Context, channelID, messageID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.SetContent(data.Content)
	edit.SetEmbeds(data.Embeds)
	edit.Components = &data.Components
	return a.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
}

func (a *SessionChannelAPI) Delete(ctx context.Context, channelID, messageID string) error {
	return a.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}
