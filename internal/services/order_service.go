package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/pawstore/storebot/internal/db"
	"github.com/pawstore/storebot/internal/models"
)

var (
	ErrOrderNotPending  = errors.New("order is not awaiting approval")
	ErrWrongProofAuthor = errors.New("payment proof sent by a different user")
	ErrDeliveryMismatch = errors.New("friendship does not belong to the cart owner")
)

// OrderService runs the manual payment workflow: checkout creates an order,
// the user posts a payment proof, an admin approves or rejects it.
type OrderService struct {
	session        *discordgo.Session
	messenger      *ClientMessenger
	orders         *db.OrderRepository
	carts          *db.CartRepository
	users          *db.UserRepository
	friendships    *db.FriendshipRepository
	accounts       *db.AccountRepository
	settings       *db.SettingsRepository
	adminChannelID string
}

func NewOrderService(
	session *discordgo.Session,
	messenger *ClientMessenger,
	orders *db.OrderRepository,
	carts *db.CartRepository,
	users *db.UserRepository,
	friendships *db.FriendshipRepository,
	accounts *db.AccountRepository,
	settings *db.SettingsRepository,
	adminChannelID string,
) *OrderService {
	return &OrderService{
		session:        session,
		messenger:      messenger,
		orders:         orders,
		carts:          carts,
		users:          users,
		friendships:    friendships,
		accounts:       accounts,
		settings:       settings,
		adminChannelID: adminChannelID,
	}
}

// BeginCheckout creates the order for a chosen delivery friendship and posts
// the payment instructions as a fresh message in the ticket channel.
func (s *OrderService) BeginCheckout(ctx context.Context, cartID, friendshipID int64) (*models.Order, error) {
	cart, err := s.carts.GetByID(cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart %d: %w", cartID, err)
	}
	if !cart.CanCheckout() {
		return nil, ErrCartNotActive
	}

	friendship, err := s.friendships.GetByID(friendshipID)
	if err != nil {
		return nil, fmt.Errorf("load friendship %d: %w", friendshipID, err)
	}
	if friendship.UserID != cart.UserID {
		return nil, ErrDeliveryMismatch
	}

	order := &models.Order{
		Reference:    strings.ToUpper(uuid.NewString()[:8]),
		CartID:       cart.ID,
		UserID:       cart.UserID,
		FriendshipID: friendship.ID,
		Status:       models.OrderPendingPaymentProof,
		TotalRP:      cart.TotalRP,
		TotalPrice:   cart.TotalPrice,
	}
	orderID, err := s.orders.Create(order)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.ID = orderID

	if err := s.carts.UpdateStatus(cart.ID, models.CartPendingPayment); err != nil {
		return nil, fmt.Errorf("update cart status: %w", err)
	}

	settings, err := s.settings.GetAll()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	embed := &discordgo.MessageEmbed{
		Title: "💳 Pagamento",
		Description: fmt.Sprintf(
			"**Pedido #%s**\nTotal: **%s**\n\nEnvie o pagamento via Pix e poste o comprovante (imagem) neste canal.",
			order.Reference, FormatBRL(order.TotalPrice)),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Chave Pix", Value: orDefault(settings.PixKey, "consulte um administrador"), Inline: false},
			{Name: "Entrega", Value: fmt.Sprintf("%s#%s", friendship.GameNickname, friendship.GameTag), Inline: true},
			{Name: "Total em RP", Value: FormatRP(order.TotalRP), Inline: true},
		},
		Color: ColorYellow,
	}

	if _, err := s.messenger.ForceNew(ctx, cart.TicketChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, fmt.Sprintf("order_%d", order.ID)); err != nil {
		return nil, err
	}
	return order, nil
}

// HandlePaymentProof reacts to an image attachment in a ticket channel. The
// bool result says whether the message was consumed as a proof.
func (s *OrderService) HandlePaymentProof(ctx context.Context, channelID, authorDiscordID, proofURL string) (bool, error) {
	order, err := s.orders.FindActiveByChannel(channelID, models.OrderPendingPaymentProof)
	if err != nil {
		// No pending order here: not a proof, just a regular attachment.
		return false, nil
	}

	user, err := s.users.GetByID(order.UserID)
	if err != nil {
		return false, fmt.Errorf("load order user: %w", err)
	}
	if user.DiscordID != authorDiscordID {
		return false, ErrWrongProofAuthor
	}

	if err := s.orders.AttachPaymentProof(order.ID, proofURL); err != nil {
		return false, fmt.Errorf("attach payment proof: %w", err)
	}

	if err := s.sendAdminApproval(order, user, proofURL); err != nil {
		// The order is already updated; an admin can still find it manually.
		log.Printf("[orders] could not post approval request for order %d: %v", order.ID, err)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "✅ Comprovante Recebido",
		Description: fmt.Sprintf("Pedido **#%s** aguardando aprovação da equipe.", order.Reference),
		Color:       ColorGreen,
	}
	if _, err := s.messenger.ForceNew(ctx, channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, fmt.Sprintf("order_%d", order.ID)); err != nil {
		return true, err
	}
	return true, nil
}

func (s *OrderService) sendAdminApproval(order *models.Order, user *models.User, proofURL string) error {
	embed := &discordgo.MessageEmbed{
		Title: "🧾 Novo Comprovante",
		Description: fmt.Sprintf("**Pedido #%s**\nCliente: <@%s>\nTotal: %s (%s)",
			order.Reference, user.DiscordID, FormatRP(order.TotalRP), FormatBRL(order.TotalPrice)),
		Image: &discordgo.MessageEmbedImage{URL: proofURL},
		Color: ColorYellow,
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "✅ Aprovar", Style: discordgo.SuccessButton, CustomID: fmt.Sprintf("order:approve:%d", order.ID)},
			discordgo.Button{Label: "❌ Rejeitar", Style: discordgo.DangerButton, CustomID: fmt.Sprintf("order:reject:%d", order.ID)},
		}},
	}

	_, err := s.session.ChannelMessageSendComplex(s.adminChannelID, &discordgo.MessageSend{
		Content:    fmt.Sprintf("🔔 **Comprovante recebido** - Pedido #%s", order.Reference),
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	return err
}

// Approve finishes an order: debits the delivery account's RP, bumps the
// cart to completed and tells the customer in the ticket channel.
func (s *OrderService) Approve(ctx context.Context, orderID int64, approverID string) (*models.Order, error) {
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	if !order.AwaitingApproval() {
		return nil, ErrOrderNotPending
	}

	if err := s.orders.Approve(order.ID, approverID); err != nil {
		return nil, fmt.Errorf("approve order: %w", err)
	}
	if err := s.carts.UpdateStatus(order.CartID, models.CartCompleted); err != nil {
		return nil, fmt.Errorf("complete cart: %w", err)
	}

	if friendship, err := s.friendships.GetByID(order.FriendshipID); err == nil {
		if err := s.accounts.AdjustRP(friendship.AccountID, -order.TotalRP); err != nil {
			log.Printf("[orders] could not debit RP from account %d: %v", friendship.AccountID, err)
		}
	}

	cart, err := s.carts.GetByID(order.CartID)
	if err == nil {
		embed := &discordgo.MessageEmbed{
			Title: "🎉 Pedido Aprovado",
			Description: fmt.Sprintf("Pedido **#%s** aprovado! Os presentes serão enviados para sua conta em breve.",
				order.Reference),
			Color: ColorGreen,
		}
		if _, err := s.messenger.ForceNew(ctx, cart.TicketChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{embed},
		}, fmt.Sprintf("order_%d", order.ID)); err != nil {
			log.Printf("[orders] could not notify ticket channel for order %d: %v", order.ID, err)
		}
	}

	order.Status = models.OrderApproved
	return order, nil
}

// Reject sends the order back: the cart becomes active again so the user can
// retry payment or change items.
func (s *OrderService) Reject(ctx context.Context, orderID int64, rejectedBy string) (*models.Order, error) {
	order, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	if !order.AwaitingApproval() {
		return nil, ErrOrderNotPending
	}

	if err := s.orders.Reject(order.ID, rejectedBy); err != nil {
		return nil, fmt.Errorf("reject order: %w", err)
	}
	if err := s.carts.UpdateStatus(order.CartID, models.CartActive); err != nil {
		return nil, fmt.Errorf("reactivate cart: %w", err)
	}

	cart, err := s.carts.GetByID(order.CartID)
	if err == nil {
		embed := &discordgo.MessageEmbed{
			Title: "❌ Pedido Rejeitado",
			Description: fmt.Sprintf("O comprovante do pedido **#%s** foi rejeitado. Verifique o pagamento e tente novamente.",
				order.Reference),
			Color: ColorRed,
		}
		if _, err := s.messenger.ForceNew(ctx, cart.TicketChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{embed},
		}, fmt.Sprintf("order_%d", order.ID)); err != nil {
			log.Printf("[orders] could not notify ticket channel for order %d: %v", order.ID, err)
		}
	}

	order.Status = models.OrderRejected
	return order, nil
}

func (s *OrderService) Revenue(days int) (float64, int, error) {
	return s.orders.Revenue(days)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
