package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pawstore/storebot/internal/catalog"
	"github.com/pawstore/storebot/internal/db"
	"github.com/pawstore/storebot/internal/models"
)

var (
	ErrCartNotActive     = errors.New("cart is not active")
	ErrItemNotFound      = errors.New("item not found in catalog")
	ErrItemAlreadyInCart = errors.New("item already in cart")
)

// CartService renders every shopping screen of a ticket channel through the
// client messenger, so each channel keeps a single UI message that gets
// edited as the user browses.
type CartService struct {
	messenger   *ClientMessenger
	catalog     *catalog.Catalog
	carts       *db.CartRepository
	users       *db.UserRepository
	friendships *db.FriendshipRepository
	accounts    *db.AccountRepository
	settings    *db.SettingsRepository
}

func NewCartService(
	messenger *ClientMessenger,
	cat *catalog.Catalog,
	carts *db.CartRepository,
	users *db.UserRepository,
	friendships *db.FriendshipRepository,
	accounts *db.AccountRepository,
	settings *db.SettingsRepository,
) *CartService {
	return &CartService{
		messenger:   messenger,
		catalog:     cat,
		carts:       carts,
		users:       users,
		friendships: friendships,
		accounts:    accounts,
		settings:    settings,
	}
}

// ShowCart renders the cart overview. The cart screen is always an edit
// target: navigating back and forth must not spam the channel.
func (s *CartService) ShowCart(ctx context.Context, channelID string, cartID int64) error {
	cart, err := s.carts.GetByID(cartID)
	if err != nil {
		return fmt.Errorf("load cart %d: %w", cartID, err)
	}
	items, err := s.carts.GetItems(cartID)
	if err != nil {
		return fmt.Errorf("load cart items: %w", err)
	}

	embed := &discordgo.MessageEmbed{
		Title: "🛒 Seu Carrinho",
		Color: ColorBlue,
	}
	if len(items) == 0 {
		embed.Description = "Seu carrinho está vazio. Use **Navegar** para explorar o catálogo."
	} else {
		for _, item := range items {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   item.Name,
				Value:  fmt.Sprintf("%s • %s", FormatRP(item.PriceRP), item.Category),
				Inline: false,
			})
		}
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Total: %s (%s)", FormatRP(cart.TotalRP), FormatBRL(cart.TotalPrice)),
		}
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Navegar", Style: discordgo.PrimaryButton, CustomID: fmt.Sprintf("cart:browse:%d", cartID)},
			discordgo.Button{Label: "Buscar", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("cart:search:%d", cartID)},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Finalizar Pedido", Style: discordgo.SuccessButton, CustomID: fmt.Sprintf("cart:checkout:%d", cartID), Disabled: len(items) == 0},
			discordgo.Button{Label: "Fechar Ticket", Style: discordgo.DangerButton, CustomID: fmt.Sprintf("cart:close:%d", cartID)},
		}},
	}

	if len(items) > 0 {
		options := make([]discordgo.SelectMenuOption, 0, len(items))
		for _, item := range items {
			if len(options) == 25 {
				break
			}
			options = append(options, discordgo.SelectMenuOption{
				Label:       item.Name,
				Value:       fmt.Sprintf("%d", item.ID),
				Description: FormatRP(item.PriceRP),
			})
		}
		components = append(components, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    fmt.Sprintf("cart:remove:%d", cartID),
				Placeholder: "Remover item do carrinho",
				Options:     options,
			},
		}})
	}

	_, err = s.messenger.SendOrEdit(ctx, channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}, fmt.Sprintf("cart_%d", cartID))
	return err
}

// ShowCategories renders the category picker.
func (s *CartService) ShowCategories(ctx context.Context, channelID string, cartID int64) error {
	categories := s.catalog.Categories()

	embed := &discordgo.MessageEmbed{
		Title:       "🗂️ Categorias",
		Description: "Escolha uma categoria para ver os itens disponíveis.",
		Color:       ColorBlue,
	}

	options := make([]discordgo.SelectMenuOption, 0, len(categories))
	for _, cat := range categories {
		if len(options) == 25 {
			break
		}
		options = append(options, discordgo.SelectMenuOption{Label: cat, Value: cat})
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    fmt.Sprintf("cat:pick:%d", cartID),
				Placeholder: "Selecione uma categoria",
				Options:     options,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Voltar ao Carrinho", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("cart:view:%d", cartID)},
		}},
	}

	_, err := s.messenger.SendOrEdit(ctx, channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}, fmt.Sprintf("categories_%d", cartID))
	return err
}

// ShowItems renders one page of a category.
func (s *CartService) ShowItems(ctx context.Context, channelID string, cartID int64, category string, page int) error {
	items, totalPages := s.catalog.Page(category, page)

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("✨ %s", category),
		Color: ColorBlue,
	}
	if len(items) == 0 {
		embed.Description = "Nenhum item nesta categoria."
	} else {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Página %d/%d", page, totalPages),
		}
		for _, item := range items {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   item.Name,
				Value:  FormatRP(item.PriceRP),
				Inline: true,
			})
		}
	}

	components := s.itemListComponents(cartID, category, page, totalPages, items)

	_, err := s.messenger.SendOrEdit(ctx, channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}, fmt.Sprintf("items_%d_%s", cartID, category))
	return err
}

// ShowSearch renders one page of search results. An empty category means a
// catalog-wide search.
func (s *CartService) ShowSearch(ctx context.Context, channelID string, cartID int64, category, query string, page int) error {
	items, totalPages := s.catalog.Search(category, query, page)

	scope := "no catálogo"
	if category != "" {
		scope = fmt.Sprintf("em %s", category)
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🔎 Resultados da busca",
		Description: fmt.Sprintf("Busca por **%s** %s.", query, scope),
		Color:       ColorBlue,
	}
	if len(items) == 0 {
		embed.Description += "\n\nNenhum item encontrado."
	} else {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Página %d/%d", page, totalPages),
		}
		for _, item := range items {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   item.Name,
				Value:  fmt.Sprintf("%s • %s", FormatRP(item.PriceRP), item.Category),
				Inline: true,
			})
		}
	}

	components := s.itemListComponents(cartID, category, page, totalPages, items)

	_, err := s.messenger.SendOrEdit(ctx, channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}, fmt.Sprintf("search_%d_%s", cartID, query))
	return err
}

func (s *CartService) itemListComponents(cartID int64, category string, page, totalPages int, items []catalog.Item) []discordgo.MessageComponent {
	var components []discordgo.MessageComponent

	if len(items) > 0 {
		options := make([]discordgo.SelectMenuOption, 0, len(items))
		for _, item := range items {
			options = append(options, discordgo.SelectMenuOption{
				Label:       item.Name,
				Value:       fmt.Sprintf("%d", item.ID),
				Description: FormatRP(item.PriceRP),
			})
		}
		components = append(components, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    fmt.Sprintf("item:add:%d", cartID),
				Placeholder: "Adicionar ao carrinho",
				Options:     options,
			},
		}})
	}

	if totalPages > 1 {
		components = append(components, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "◀", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("items:page:%d:%d:%s", cartID, page-1, category), Disabled: page <= 1},
			discordgo.Button{Label: "▶", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("items:page:%d:%d:%s", cartID, page+1, category), Disabled: page >= totalPages},
		}})
	}

	components = append(components, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.Button{Label: "Categorias", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("cart:browse:%d", cartID)},
		discordgo.Button{Label: "Carrinho", Style: discordgo.PrimaryButton, CustomID: fmt.Sprintf("cart:view:%d", cartID)},
	}})

	return components
}

// AddItem validates and adds a catalog item to the cart.
func (s *CartService) AddItem(cartID, catalogItemID int64) (*catalog.Item, error) {
	cart, err := s.carts.GetByID(cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart %d: %w", cartID, err)
	}
	if cart.Status != models.CartActive {
		return nil, ErrCartNotActive
	}

	item, ok := s.catalog.Get(catalogItemID)
	if !ok {
		return nil, ErrItemNotFound
	}

	exists, err := s.carts.HasItem(cartID, catalogItemID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrItemAlreadyInCart
	}

	pricePerRP, err := s.settings.PricePerRP()
	if err != nil {
		return nil, fmt.Errorf("load price setting: %w", err)
	}

	_, err = s.carts.AddItem(&models.CartItem{
		CartID:        cartID,
		Name:          item.Name,
		PriceRP:       item.PriceRP,
		ImageURL:      item.ImageURL,
		Category:      item.Category,
		CatalogItemID: item.ID,
	}, pricePerRP)
	if err != nil {
		return nil, fmt.Errorf("add item to cart: %w", err)
	}
	return &item, nil
}

func (s *CartService) RemoveItem(cartItemID int64) error {
	pricePerRP, err := s.settings.PricePerRP()
	if err != nil {
		return fmt.Errorf("load price setting: %w", err)
	}
	return s.carts.RemoveItem(cartItemID, pricePerRP)
}

// Delivery pairs an approved friendship with its account for checkout.
type Delivery struct {
	Friendship *models.Friendship
	Account    *models.Account
	EligibleAt time.Time
}

// ShowCheckout lists the user's delivery options. Always a new message: the
// checkout screen must not silently replace whatever the user was reading.
func (s *CartService) ShowCheckout(ctx context.Context, channelID, discordID string, cartID int64) error {
	cart, err := s.carts.GetByID(cartID)
	if err != nil {
		return fmt.Errorf("load cart %d: %w", cartID, err)
	}
	if !cart.CanCheckout() {
		return ErrCartNotActive
	}
	items, err := s.carts.GetItems(cartID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return errors.New("cart is empty")
	}

	user, err := s.users.GetByDiscordID(discordID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	minDays, err := s.settings.MinFriendshipDays()
	if err != nil {
		return fmt.Errorf("load friendship setting: %w", err)
	}

	eligible, pending, err := s.deliveries(user.ID, minDays)
	if err != nil {
		return err
	}

	if len(eligible) == 0 {
		embed := &discordgo.MessageEmbed{
			Title: "❌ Nenhuma Conta Elegível",
			Description: "Você ainda não possui contas elegíveis para entrega.\n\n" +
				"🎮 Adicione uma conta pelo painel e aguarde o período mínimo de amizade.",
			Color: ColorRed,
		}
		now := time.Now()
		for _, d := range pending {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name:   d.Account.Nickname,
				Value:  FormatDaysRemaining(now, d.EligibleAt),
				Inline: true,
			})
		}
		_, err = s.messenger.ForceNew(ctx, channelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{embed},
		}, fmt.Sprintf("checkout_%d", cartID))
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title: "🧾 Finalizar Pedido",
		Description: fmt.Sprintf("**Total: %s (%s)**\n\nEscolha a conta que receberá os presentes.",
			FormatRP(cart.TotalRP), FormatBRL(cart.TotalPrice)),
		Color: ColorGreen,
	}

	options := make([]discordgo.SelectMenuOption, 0, len(eligible))
	for _, d := range eligible {
		if len(options) == 25 {
			break
		}
		label := d.Account.Nickname
		desc := fmt.Sprintf("%s#%s", d.Friendship.GameNickname, d.Friendship.GameTag)
		if !d.Account.CanCover(cart.TotalRP) {
			desc += " • RP insuficiente na conta"
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       label,
			Value:       fmt.Sprintf("%d", d.Friendship.ID),
			Description: desc,
		})
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    fmt.Sprintf("checkout:pick:%d", cartID),
				Placeholder: "Conta de entrega",
				Options:     options,
			},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Voltar ao Carrinho", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("cart:view:%d", cartID)},
		}},
	}

	_, err = s.messenger.ForceNew(ctx, channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}, fmt.Sprintf("checkout_%d", cartID))
	return err
}

// deliveries splits a user's approved friendships into checkout-eligible and
// still-waiting ones.
func (s *CartService) deliveries(userID int64, minDays int) (eligible, pending []Delivery, err error) {
	friendships, err := s.friendships.FindByUser(userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load friendships: %w", err)
	}

	now := time.Now()
	for _, f := range friendships {
		if f.Status != models.FriendshipApproved {
			continue
		}
		account, err := s.accounts.GetByID(f.AccountID)
		if err != nil {
			continue
		}
		d := Delivery{Friendship: f, Account: account, EligibleAt: f.EligibleAt(minDays)}
		if f.IsEligible(now, minDays) {
			eligible = append(eligible, d)
		} else {
			pending = append(pending, d)
		}
	}
	return eligible, pending, nil
}

// ShowCloseConfirmation asks before cancelling the cart and ticket.
func (s *CartService) ShowCloseConfirmation(ctx context.Context, channelID string, cartID int64) error {
	embed := &discordgo.MessageEmbed{
		Title:       "⚠️ Fechar Ticket",
		Description: "Tem certeza? O carrinho será cancelado e o canal removido.",
		Color:       ColorYellow,
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Sim, fechar", Style: discordgo.DangerButton, CustomID: fmt.Sprintf("cart:close_confirm:%d", cartID)},
			discordgo.Button{Label: "Voltar", Style: discordgo.SecondaryButton, CustomID: fmt.Sprintf("cart:view:%d", cartID)},
		}},
	}

	_, err := s.messenger.SendOrEdit(ctx, channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}, fmt.Sprintf("close_%d", cartID))
	return err
}

// Close cancels the cart and forgets the channel's tracked message.
func (s *CartService) Close(cartID int64, channelID string) error {
	if err := s.carts.UpdateStatus(cartID, models.CartCancelled); err != nil {
		return err
	}
	s.messenger.Invalidate(channelID)
	return nil
}
