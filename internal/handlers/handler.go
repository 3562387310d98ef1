package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pawstore/storebot/internal/db"
	"github.com/pawstore/storebot/internal/services"
)

// Config holds the guild-specific IDs the handlers need.
type Config struct {
	AdminRoleID      string
	AdminChannelID   string
	TicketCategoryID string
}

type BotHandler struct {
	session      *discordgo.Session
	config       Config
	errorManager *services.ErrorManager
	responder    *services.Responder
	messenger    *services.ClientMessenger
	cartService  *services.CartService
	orderService *services.OrderService
	friendships  *services.FriendshipService
	notifier     *services.FriendshipNotifier
	userRepo     *db.UserRepository
	cartRepo     *db.CartRepository
	accountRepo  *db.AccountRepository
	settingsRepo *db.SettingsRepository
}

func NewBotHandler(
	session *discordgo.Session,
	config Config,
	errorManager *services.ErrorManager,
	responder *services.Responder,
	messenger *services.ClientMessenger,
	cartService *services.CartService,
	orderService *services.OrderService,
	friendships *services.FriendshipService,
	notifier *services.FriendshipNotifier,
	userRepo *db.UserRepository,
	cartRepo *db.CartRepository,
	accountRepo *db.AccountRepository,
	settingsRepo *db.SettingsRepository,
) *BotHandler {
	return &BotHandler{
		session:      session,
		config:       config,
		errorManager: errorManager,
		responder:    responder,
		messenger:    messenger,
		cartService:  cartService,
		orderService: orderService,
		friendships:  friendships,
		notifier:     notifier,
		userRepo:     userRepo,
		cartRepo:     cartRepo,
		accountRepo:  accountRepo,
		settingsRepo: settingsRepo,
	}
}

// Register attaches the handler to the session's event dispatch.
func (h *BotHandler) Register() {
	h.session.AddHandler(h.HandleInteraction)
	h.session.AddHandler(h.HandleMessage)
}

func (h *BotHandler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	defer h.recoverPanic(i)

	ctx := context.Background()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		h.handleComponent(ctx, i)
	case discordgo.InteractionModalSubmit:
		h.handleModal(ctx, i)
	}
}

func (h *BotHandler) recoverPanic(i *discordgo.InteractionCreate) {
	if r := recover(); r != nil {
		h.errorManager.NotifyPanic(r, i)
	}
}

func (h *BotHandler) handleCommand(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	switch data.Name {
	case "send-panel":
		h.handleSendPanel(i)
	case "account":
		h.handleAccountCommand(i, data)
	case "friendship-admin":
		h.handleFriendshipAdmin(i, data)
	case "revenue":
		h.handleRevenue(i, data)
	case "messenger-stats":
		h.handleMessengerStats(i)
	}
}

func (h *BotHandler) handleComponent(ctx context.Context, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	parts := strings.Split(customID, ":")
	if len(parts) < 2 {
		return
	}

	switch parts[0] {
	case "panel":
		switch parts[1] {
		case "ticket":
			h.handleOpenTicket(ctx, i)
		case "friendship":
			h.handleFriendshipPicker(i)
		}
	case "friendship":
		switch parts[1] {
		case "account":
			h.handleFriendshipAccountPicked(i)
		case "approve", "reject":
			h.handleFriendshipDecision(i, parts)
		}
	case "cart":
		h.handleCartAction(ctx, i, parts)
	case "cat":
		h.handleCategoryPicked(ctx, i, parts)
	case "item":
		h.handleItemAdd(ctx, i, parts)
	case "items":
		h.handleItemsPage(ctx, i, parts)
	case "checkout":
		h.handleCheckoutPicked(ctx, i, parts)
	case "order":
		h.handleOrderDecision(ctx, i, parts)
	}
}

func (h *BotHandler) handleModal(ctx context.Context, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	parts := strings.Split(data.CustomID, ":")

	switch parts[0] {
	case "friendship":
		h.handleFriendshipModal(i, data, parts)
	case "search":
		h.handleSearchModal(ctx, i, data, parts)
	}
}

// HandleMessage watches ticket channels for payment proof images.
func (h *BotHandler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	var proofURL string
	for _, attachment := range m.Attachments {
		if strings.HasPrefix(attachment.ContentType, "image/") {
			proofURL = attachment.URL
			break
		}
	}
	if proofURL == "" {
		return
	}

	ctx := context.Background()
	handled, err := h.orderService.HandlePaymentProof(ctx, m.ChannelID, m.Author.ID, proofURL)
	if err != nil {
		if err == services.ErrWrongProofAuthor {
			return
		}
		log.Printf("[handler] payment proof in channel %s failed: %v", m.ChannelID, err)
		h.errorManager.NotifyFailure(fmt.Sprintf("Payment proof in channel %s", m.ChannelID), err)
		return
	}
	if handled {
		log.Printf("[handler] payment proof received in channel %s from %s", m.ChannelID, m.Author.ID)
	}
}

// isAdmin checks the configured role or the administrator permission.
func (h *BotHandler) isAdmin(i *discordgo.InteractionCreate) bool {
	if i.Member == nil {
		return false
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	for _, role := range i.Member.Roles {
		if role == h.config.AdminRoleID {
			return true
		}
	}
	return false
}

// ackUpdate acknowledges a component interaction without changing the
// message. The messenger edits the UI message through the channel API, so
// the interaction itself has nothing to say.
func (h *BotHandler) ackUpdate(i *discordgo.InteractionCreate) {
	err := h.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Printf("[handler] could not acknowledge interaction: %v", err)
	}
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func interactionUsername(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return ""
}

func parseInt64(s string) (int64, error) {
	var result int64
	_, err := fmt.Sscanf(s, "%d", &result)
	return result, err
}
