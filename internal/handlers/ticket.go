package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/pawstore/storebot/internal/services"
)

// handleSendPanel posts the storefront panel in the channel the command was
// invoked from.
func (h *BotHandler) handleSendPanel(i *discordgo.InteractionCreate) {
	if !h.isAdmin(i) {
		h.responder.Error(i, "Sem permissão", "Apenas a equipe pode publicar o painel.")
		return
	}

	settings, err := h.settingsRepo.GetAll()
	if err != nil {
		h.responder.Error(i, "Erro", "Não foi possível carregar as configurações.")
		return
	}

	title := settings.PanelTitle
	if title == "" {
		title = "🛍️ Loja de Presentes"
	}
	description := settings.PanelDescription
	if description == "" {
		description = "Abra um ticket para montar seu carrinho ou adicione uma amizade para receber presentes."
	}

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       services.ColorBlue,
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "🛒 Abrir Ticket", Style: discordgo.PrimaryButton, CustomID: "panel:ticket"},
			discordgo.Button{Label: "🤝 Adicionar Amizade", Style: discordgo.SecondaryButton, CustomID: "panel:friendship"},
		}},
	}

	if _, err := h.session.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}); err != nil {
		h.responder.Error(i, "Erro", "Não foi possível publicar o painel.")
		return
	}
	h.responder.Success(i, "Painel publicado", "O painel da loja foi enviado neste canal.")
}

// handleOpenTicket creates a private ticket channel with a fresh cart, or
// points the user at the ticket they already have open.
func (h *BotHandler) handleOpenTicket(ctx context.Context, i *discordgo.InteractionCreate) {
	discordID := interactionUserID(i)
	username := interactionUsername(i)

	user, err := h.userRepo.GetOrCreate(discordID, username)
	if err != nil {
		h.responder.Error(i, "Erro", "Não foi possível registrar seu usuário.")
		return
	}

	if cart, err := h.cartRepo.FindActiveByUser(user.ID); err == nil {
		h.responder.Warning(i, "Ticket já aberto",
			fmt.Sprintf("Você já possui um ticket ativo: <#%s>", cart.TicketChannelID))
		return
	}

	channel, err := h.session.GuildChannelCreateComplex(i.GuildID, discordgo.GuildChannelCreateData{
		Name:     fmt.Sprintf("ticket-%s", username),
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: h.config.TicketCategoryID,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				ID:   i.GuildID, // @everyone
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: discordgo.PermissionViewChannel,
			},
			{
				ID:    discordID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionAttachFiles,
			},
			{
				ID:    h.session.State.User.ID,
				Type:  discordgo.PermissionOverwriteTypeMember,
				Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionManageMessages,
			},
		},
	})
	if err != nil {
		h.responder.Error(i, "Erro", "Não foi possível criar o canal do ticket.")
		return
	}

	cartID, err := h.cartRepo.Create(user.ID, channel.ID)
	if err != nil {
		h.responder.Error(i, "Erro", "Não foi possível criar o carrinho.")
		return
	}

	if err := h.cartService.ShowCart(ctx, channel.ID, cartID); err != nil {
		log.Printf("[handler] could not render cart %d: %v", cartID, err)
	}

	h.responder.Success(i, "Ticket criado", fmt.Sprintf("Seu ticket está pronto: <#%s>", channel.ID))
}

// handleCartAction routes the cart screen buttons: cart:<action>:<cartID>.
func (h *BotHandler) handleCartAction(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) != 3 {
		return
	}
	action := parts[1]
	cartID, err := parseInt64(parts[2])
	if err != nil {
		return
	}

	switch action {
	case "view":
		h.ackUpdate(i)
		if err := h.cartService.ShowCart(ctx, i.ChannelID, cartID); err != nil {
			log.Printf("[handler] could not render cart %d: %v", cartID, err)
		}
	case "browse":
		h.ackUpdate(i)
		if err := h.cartService.ShowCategories(ctx, i.ChannelID, cartID); err != nil {
			log.Printf("[handler] could not render categories for cart %d: %v", cartID, err)
		}
	case "search":
		h.openSearchModal(i, cartID)
	case "checkout":
		h.ackUpdate(i)
		discordID := interactionUserID(i)
		if err := h.cartService.ShowCheckout(ctx, i.ChannelID, discordID, cartID); err != nil {
			if errors.Is(err, services.ErrCartNotActive) {
				h.responder.Warning(i, "Carrinho indisponível", "Este carrinho não pode ser finalizado.")
				return
			}
			log.Printf("[handler] could not render checkout for cart %d: %v", cartID, err)
		}
	case "close":
		h.ackUpdate(i)
		if err := h.cartService.ShowCloseConfirmation(ctx, i.ChannelID, cartID); err != nil {
			log.Printf("[handler] could not render close confirmation for cart %d: %v", cartID, err)
		}
	case "close_confirm":
		h.ackUpdate(i)
		if err := h.cartService.Close(cartID, i.ChannelID); err != nil {
			log.Printf("[handler] could not close cart %d: %v", cartID, err)
			return
		}
		if _, err := h.session.ChannelDelete(i.ChannelID); err != nil {
			log.Printf("[handler] could not delete ticket channel %s: %v", i.ChannelID, err)
		}
	case "remove":
		h.ackUpdate(i)
		values := i.MessageComponentData().Values
		if len(values) == 0 {
			return
		}
		itemID, err := parseInt64(values[0])
		if err != nil {
			return
		}
		if err := h.cartService.RemoveItem(itemID); err != nil {
			log.Printf("[handler] could not remove item %d from cart %d: %v", itemID, cartID, err)
			return
		}
		if err := h.cartService.ShowCart(ctx, i.ChannelID, cartID); err != nil {
			log.Printf("[handler] could not render cart %d: %v", cartID, err)
		}
	}
}

// handleCategoryPicked routes cat:pick:<cartID>.
func (h *BotHandler) handleCategoryPicked(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) != 3 || parts[1] != "pick" {
		return
	}
	cartID, err := parseInt64(parts[2])
	if err != nil {
		return
	}
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}

	h.ackUpdate(i)
	if err := h.cartService.ShowItems(ctx, i.ChannelID, cartID, values[0], 1); err != nil {
		log.Printf("[handler] could not render items for cart %d: %v", cartID, err)
	}
}

// handleItemAdd routes item:add:<cartID>.
func (h *BotHandler) handleItemAdd(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) != 3 || parts[1] != "add" {
		return
	}
	cartID, err := parseInt64(parts[2])
	if err != nil {
		return
	}
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}
	itemID, err := parseInt64(values[0])
	if err != nil {
		return
	}

	item, err := h.cartService.AddItem(cartID, itemID)
	switch {
	case errors.Is(err, services.ErrItemAlreadyInCart):
		h.responder.Warning(i, "Item repetido", "Este item já está no seu carrinho.")
	case errors.Is(err, services.ErrCartNotActive):
		h.responder.Warning(i, "Carrinho indisponível", "Este carrinho não está mais ativo.")
	case err != nil:
		log.Printf("[handler] could not add item %d to cart %d: %v", itemID, cartID, err)
		h.responder.Error(i, "Erro", "Não foi possível adicionar o item.")
	default:
		h.responder.Success(i, "Item adicionado",
			fmt.Sprintf("**%s** (%s) foi para o carrinho.", item.Name, services.FormatRP(item.PriceRP)))
	}
}

// handleItemsPage routes items:page:<cartID>:<page>:<category>.
func (h *BotHandler) handleItemsPage(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) != 5 || parts[1] != "page" {
		return
	}
	cartID, err := parseInt64(parts[2])
	if err != nil {
		return
	}
	page, err := parseInt64(parts[3])
	if err != nil || page < 1 {
		return
	}
	category := parts[4]

	h.ackUpdate(i)
	if err := h.cartService.ShowItems(ctx, i.ChannelID, cartID, category, int(page)); err != nil {
		log.Printf("[handler] could not render page %d for cart %d: %v", page, cartID, err)
	}
}

// handleCheckoutPicked routes checkout:pick:<cartID>; the select value is the
// delivery friendship ID.
func (h *BotHandler) handleCheckoutPicked(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) != 3 || parts[1] != "pick" {
		return
	}
	cartID, err := parseInt64(parts[2])
	if err != nil {
		return
	}
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}
	friendshipID, err := parseInt64(values[0])
	if err != nil {
		return
	}

	h.ackUpdate(i)
	order, err := h.orderService.BeginCheckout(ctx, cartID, friendshipID)
	if err != nil {
		log.Printf("[handler] checkout failed for cart %d: %v", cartID, err)
		h.errorManager.NotifyFailure(fmt.Sprintf("Checkout for cart %d", cartID), err)
		return
	}
	log.Printf("[handler] order %s created for cart %d", order.Reference, cartID)
}

func (h *BotHandler) openSearchModal(i *discordgo.InteractionCreate, cartID int64) {
	err := h.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: fmt.Sprintf("search:modal:%d", cartID),
			Title:    "Buscar no catálogo",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "query",
						Label:       "O que você procura?",
						Style:       discordgo.TextInputShort,
						Placeholder: "Nome do item",
						Required:    true,
						MaxLength:   100,
					},
				}},
			},
		},
	})
	if err != nil {
		log.Printf("[handler] could not open search modal: %v", err)
	}
}

// handleSearchModal routes search:modal:<cartID>.
func (h *BotHandler) handleSearchModal(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ModalSubmitInteractionData, parts []string) {
	if len(parts) != 3 || parts[1] != "modal" {
		return
	}
	cartID, err := parseInt64(parts[2])
	if err != nil {
		return
	}
	query := modalInput(data, "query")
	if query == "" {
		return
	}

	h.ackUpdate(i)
	if err := h.cartService.ShowSearch(ctx, i.ChannelID, cartID, "", query, 1); err != nil {
		log.Printf("[handler] could not render search for cart %d: %v", cartID, err)
	}
}

// handleFriendshipPicker shows the delivery account select, ephemeral so the
// panel channel stays clean.
func (h *BotHandler) handleFriendshipPicker(i *discordgo.InteractionCreate) {
	accounts, err := h.friendships.AvailableAccounts("")
	if err != nil {
		h.responder.Error(i, "Erro", "Não foi possível listar as contas.")
		return
	}
	if len(accounts) == 0 {
		h.responder.Warning(i, "Sem vagas", "Nenhuma conta da loja tem vagas de amizade no momento.")
		return
	}

	options := make([]discordgo.SelectMenuOption, 0, len(accounts))
	for _, account := range accounts {
		if len(options) == 25 {
			break
		}
		options = append(options, discordgo.SelectMenuOption{
			Label:       account.Nickname,
			Value:       fmt.Sprintf("%d", account.ID),
			Description: fmt.Sprintf("%s • %d/%d amigos", account.Region, account.FriendsCount, account.MaxFriends),
		})
	}

	h.responder.Ephemeral(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "🤝 Escolha a Conta",
			Description: "Selecione a conta da loja que deve adicionar você no jogo.",
			Color:       services.ColorBlue,
		}},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    "friendship:account",
					Placeholder: "Conta da loja",
					Options:     options,
				},
			}},
		},
	})
}

// handleFriendshipAccountPicked opens the nickname modal for the chosen
// account.
func (h *BotHandler) handleFriendshipAccountPicked(i *discordgo.InteractionCreate) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}

	err := h.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: fmt.Sprintf("friendship:modal:%s", values[0]),
			Title:    "Seus dados no jogo",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "nickname",
						Label:     "Nick no jogo",
						Style:     discordgo.TextInputShort,
						Required:  true,
						MaxLength: 50,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "tag",
						Label:       "Tag",
						Style:       discordgo.TextInputShort,
						Placeholder: "BR1",
						Required:    true,
						MaxLength:   10,
					},
				}},
			},
		},
	})
	if err != nil {
		log.Printf("[handler] could not open friendship modal: %v", err)
	}
}

// handleFriendshipModal routes friendship:modal:<accountID>.
func (h *BotHandler) handleFriendshipModal(i *discordgo.InteractionCreate, data discordgo.ModalSubmitInteractionData, parts []string) {
	if len(parts) != 3 || parts[1] != "modal" {
		return
	}
	accountID, err := parseInt64(parts[2])
	if err != nil {
		return
	}
	nickname := modalInput(data, "nickname")
	tag := modalInput(data, "tag")
	if nickname == "" || tag == "" {
		return
	}

	_, err = h.friendships.Request(interactionUserID(i), interactionUsername(i), accountID, nickname, tag)
	switch {
	case errors.Is(err, services.ErrFriendshipExists):
		h.responder.Warning(i, "Solicitação duplicada", "Você já solicitou amizade com esta conta.")
	case errors.Is(err, services.ErrAccountFull):
		h.responder.Warning(i, "Sem vagas", "Esta conta não tem mais vagas de amizade.")
	case err != nil:
		log.Printf("[handler] friendship request failed: %v", err)
		h.responder.Error(i, "Erro", "Não foi possível registrar a solicitação.")
	default:
		h.responder.Success(i, "Solicitação enviada",
			"A equipe vai adicionar você no jogo e confirmar por aqui. Fique de olho nas suas DMs!")
	}
}

// modalInput finds a text input value by custom ID in a submitted modal.
func modalInput(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, component := range data.Components {
		row, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			input, ok := inner.(*discordgo.TextInput)
			if ok && input.CustomID == customID {
				return input.Value
			}
		}
	}
	return ""
}
