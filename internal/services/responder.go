package services

import (
	"log"

	"github.com/bwmarrin/discordgo"
)

const (
	ColorRed    = 0xED4245
	ColorGreen  = 0x57F287
	ColorYellow = 0xFAA61A
	ColorBlue   = 0x5865F2
)

// Responder sends ephemeral interaction replies, falling back to a follow-up
// when the interaction was already acknowledged.
type Responder struct {
	session *discordgo.Session
}

func NewResponder(session *discordgo.Session) *Responder {
	return &Responder{session: session}
}

func (r *Responder) Ephemeral(i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) error {
	data.Flags |= discordgo.MessageFlagsEphemeral

	err := r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err == nil {
		return nil
	}

	// Interaction already acknowledged elsewhere: follow up instead.
	_, followErr := r.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: data.Content,
		Embeds:  data.Embeds,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if followErr != nil {
		log.Printf("[responder] ephemeral reply and follow-up both failed: %v / %v", err, followErr)
		return err
	}
	return nil
}

func (r *Responder) Error(i *discordgo.InteractionCreate, title, description string) error {
	return r.Ephemeral(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "❌ " + title,
			Description: description,
			Color:       ColorRed,
		}},
	})
}

func (r *Responder) Success(i *discordgo.InteractionCreate, title, description string) error {
	return r.Ephemeral(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "✅ " + title,
			Description: description,
			Color:       ColorGreen,
		}},
	})
}

func (r *Responder) Warning(i *discordgo.InteractionCreate, title, description string) error {
	return r.Ephemeral(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "⚠️ " + title,
			Description: description,
			Color:       ColorYellow,
		}},
	})
}

// Ack defers the interaction with an ephemeral placeholder.
func (r *Responder) Ack(i *discordgo.InteractionCreate) error {
	return r.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}
