package services

import (
	"fmt"
	"log"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
)

// ErrorManager reports handler panics and delivery failures to the admin log
// channel so they are not lost in stdout.
type ErrorManager struct {
	session        *discordgo.Session
	adminChannelID string
}

func NewErrorManager(session *discordgo.Session, adminChannelID string) *ErrorManager {
	return &ErrorManager{
		session:        session,
		adminChannelID: adminChannelID,
	}
}

func (e *ErrorManager) NotifyPanic(panicValue interface{}, i *discordgo.InteractionCreate) {
	userInfo := "unknown"
	if i != nil {
		if user := interactionUser(i); user != nil {
			userInfo = fmt.Sprintf("%s [%s]", user.Username, user.ID)
		}
	}

	msg := fmt.Sprintf("🚨 Panic in interaction handler\nUser: %s\nError: %v\n\nStack trace:\n%s",
		userInfo, panicValue, string(debug.Stack()))

	if len(msg) > 4000 {
		msg = msg[:4000] + "\n... (truncated)"
	}

	log.Printf("[errors] panic in handler: %v", panicValue)
	if _, err := e.session.ChannelMessageSend(e.adminChannelID, msg); err != nil {
		log.Printf("[errors] could not notify admin channel: %v", err)
	}
}

func (e *ErrorManager) NotifyFailure(context string, failure error) {
	msg := fmt.Sprintf("❌ %s\nError: %v", context, failure)
	if len(msg) > 4000 {
		msg = msg[:4000] + "\n... (truncated)"
	}

	log.Printf("[errors] %s: %v", context, failure)
	if _, err := e.session.ChannelMessageSend(e.adminChannelID, msg); err != nil {
		log.Printf("[errors] could not notify admin channel: %v", err)
	}
}

func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
