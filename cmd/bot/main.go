package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	_ "github.com/joho/godotenv/autoload"
	"github.com/pawstore/storebot/internal/catalog"
	"github.com/pawstore/storebot/internal/db"
	"github.com/pawstore/storebot/internal/handlers"
	"github.com/pawstore/storebot/internal/services"
	_ "modernc.org/sqlite"
)

func main() {
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		log.Fatal("BOT_TOKEN environment variable is required")
	}

	adminChannelID := os.Getenv("ADMIN_CHANNEL_ID")
	if adminChannelID == "" {
		log.Fatal("ADMIN_CHANNEL_ID environment variable is required")
	}

	adminRoleID := os.Getenv("ADMIN_ROLE_ID")
	ticketCategoryID := os.Getenv("TICKET_CATEGORY_ID")

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "store.db"
	}

	catalogPath := os.Getenv("CATALOG_PATH")
	if catalogPath == "" {
		catalogPath = "catalog.json"
	}

	sqlDB, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer sqlDB.Close()

	if err := db.InitSchema(sqlDB); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	dbQueue := db.NewDBQueue(sqlDB)
	defer dbQueue.Close()

	userRepo := db.NewUserRepository(dbQueue)
	accountRepo := db.NewAccountRepository(dbQueue)
	friendshipRepo := db.NewFriendshipRepository(dbQueue)
	cartRepo := db.NewCartRepository(dbQueue)
	orderRepo := db.NewOrderRepository(dbQueue)
	settingsRepo := db.NewSettingsRepository(dbQueue)

	cat, err := catalog.Load(catalogPath)
	if err != nil {
		log.Fatalf("Failed to load catalog from %s: %v", catalogPath, err)
	}
	log.Printf("Catalog loaded: %d items in %d categories", cat.Size(), len(cat.Categories()))

	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		log.Fatalf("Failed to create Discord session: %v", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent

	messenger := services.NewClientMessenger(services.NewSessionChannelAPI(session))
	defer messenger.Close()

	errorManager := services.NewErrorManager(session, adminChannelID)
	responder := services.NewResponder(session)
	cartService := services.NewCartService(messenger, cat, cartRepo, userRepo, friendshipRepo, accountRepo, settingsRepo)
	orderService := services.NewOrderService(session, messenger, orderRepo, cartRepo, userRepo, friendshipRepo, accountRepo, settingsRepo, adminChannelID)
	friendshipService := services.NewFriendshipService(session, userRepo, accountRepo, friendshipRepo, settingsRepo, adminChannelID)
	notifier := services.NewFriendshipNotifier(session, userRepo, friendshipRepo, settingsRepo)

	handler := handlers.NewBotHandler(
		session,
		handlers.Config{
			AdminRoleID:      adminRoleID,
			AdminChannelID:   adminChannelID,
			TicketCategoryID: ticketCategoryID,
		},
		errorManager,
		responder,
		messenger,
		cartService,
		orderService,
		friendshipService,
		notifier,
		userRepo,
		cartRepo,
		accountRepo,
		settingsRepo,
	)
	handler.Register()

	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Printf("Logged in as %s#%s", r.User.Username, r.User.Discriminator)
	})

	if err := session.Open(); err != nil {
		log.Fatalf("Failed to connect to Discord: %v", err)
	}
	defer session.Close()

	notifier.Start()
	defer notifier.Stop()

	log.Printf("Bot started. DB: %s", dbPath)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	log.Println("Shutting down")
}
