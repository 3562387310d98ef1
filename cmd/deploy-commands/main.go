package main

import (
	"log"
	"os"

	"github.com/bwmarrin/discordgo"
	_ "github.com/joho/godotenv/autoload"
	"github.com/pawstore/storebot/internal/handlers"
)

// Registers the slash command set. Run once per guild (or globally with an
// empty GUILD_ID) after changing handlers.Commands.
func main() {
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		log.Fatal("BOT_TOKEN environment variable is required")
	}
	appID := os.Getenv("APP_ID")
	if appID == "" {
		log.Fatal("APP_ID environment variable is required")
	}
	guildID := os.Getenv("GUILD_ID")

	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}

	registered, err := session.ApplicationCommandBulkOverwrite(appID, guildID, handlers.Commands())
	if err != nil {
		log.Fatalf("Failed to register commands: %v", err)
	}

	for _, cmd := range registered {
		log.Printf("Registered /%s", cmd.Name)
	}
	log.Printf("%d command(s) registered", len(registered))
}
