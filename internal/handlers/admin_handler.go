package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/pawstore/storebot/internal/models"
	"github.com/pawstore/storebot/internal/services"
)

func (h *BotHandler) handleAccountCommand(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !h.isAdmin(i) {
		h.responder.Error(i, "Sem permissão", "Apenas a equipe pode gerenciar contas.")
		return
	}
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]

	switch sub.Name {
	case "add":
		h.handleAccountAdd(i, sub)
	case "list":
		h.handleAccountList(i)
	case "remove":
		h.handleAccountRemove(i, sub)
	}
}

func (h *BotHandler) handleAccountAdd(i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	account := &models.Account{}
	for _, opt := range sub.Options {
		switch opt.Name {
		case "nickname":
			account.Nickname = opt.StringValue()
		case "rp":
			account.RPAmount = int(opt.IntValue())
		case "max-friends":
			account.MaxFriends = int(opt.IntValue())
		case "region":
			account.Region = strings.ToUpper(opt.StringValue())
		}
	}

	id, err := h.accountRepo.Create(account)
	if err != nil {
		h.responder.Error(i, "Erro", "Não foi possível cadastrar a conta.")
		return
	}
	h.responder.Success(i, "Conta cadastrada",
		fmt.Sprintf("**%s** (#%d) — %s, %s, %d vagas.",
			account.Nickname, id, account.Region, services.FormatRP(account.RPAmount), account.MaxFriends))
}

func (h *BotHandler) handleAccountList(i *discordgo.InteractionCreate) {
	accounts, err := h.accountRepo.GetAll()
	if err != nil {
		h.responder.Error(i, "Erro", "Não foi possível listar as contas.")
		return
	}
	if len(accounts) == 0 {
		h.responder.Warning(i, "Nenhuma conta", "Cadastre contas com `/account add`.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "🎮 Contas de Entrega",
		Color: services.ColorBlue,
	}
	for _, account := range accounts {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: fmt.Sprintf("#%d %s", account.ID, account.Nickname),
			Value: fmt.Sprintf("%s • %s • %d/%d amigos",
				account.Region, services.FormatRP(account.RPAmount), account.FriendsCount, account.MaxFriends),
			Inline: false,
		})
	}
	h.responder.Ephemeral(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
}

func (h *BotHandler) handleAccountRemove(i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	if len(sub.Options) == 0 {
		return
	}
	id := sub.Options[0].IntValue()

	if _, err := h.accountRepo.GetByID(id); err != nil {
		h.responder.Error(i, "Conta não encontrada", fmt.Sprintf("Nenhuma conta com ID %d.", id))
		return
	}
	if err := h.accountRepo.Delete(id); err != nil {
		h.responder.Error(i, "Erro", "Não foi possível remover a conta.")
		return
	}
	h.responder.Success(i, "Conta removida", fmt.Sprintf("A conta #%d foi removida.", id))
}

func (h *BotHandler) handleFriendshipAdmin(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !h.isAdmin(i) {
		h.responder.Error(i, "Sem permissão", "Apenas a equipe pode usar este comando.")
		return
	}
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]

	switch sub.Name {
	case "check":
		if len(sub.Options) == 0 {
			return
		}
		id := sub.Options[0].IntValue()
		notified, err := h.notifier.CheckSpecific(id)
		if err != nil {
			h.responder.Error(i, "Erro", fmt.Sprintf("Não foi possível verificar a amizade %d: %v", id, err))
			return
		}
		if notified {
			h.responder.Success(i, "Notificado", fmt.Sprintf("A amizade %d está elegível e o usuário foi avisado.", id))
		} else {
			h.responder.Warning(i, "Ainda não elegível", fmt.Sprintf("A amizade %d não completou o período mínimo.", id))
		}
	case "reset":
		count, err := h.notifier.ResetAll()
		if err != nil {
			h.responder.Error(i, "Erro", "Não foi possível limpar as notificações.")
			return
		}
		h.responder.Success(i, "Notificações limpas",
			fmt.Sprintf("%d amizade(s) serão notificadas novamente no próximo ciclo.", count))
	case "stats":
		stats, err := h.notifier.Stats()
		if err != nil {
			h.responder.Error(i, "Erro", "Não foi possível calcular as estatísticas.")
			return
		}
		h.responder.Ephemeral(i, &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{
				Title: "🤝 Amizades",
				Color: services.ColorBlue,
				Fields: []*discordgo.MessageEmbedField{
					{Name: "Aprovadas", Value: fmt.Sprintf("%d", stats.Approved), Inline: true},
					{Name: "Pendentes", Value: fmt.Sprintf("%d", stats.Pending), Inline: true},
					{Name: "Notificadas", Value: fmt.Sprintf("%d", stats.Notified), Inline: true},
				},
			}},
		})
	}
}

func (h *BotHandler) handleRevenue(i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !h.isAdmin(i) {
		h.responder.Error(i, "Sem permissão", "Apenas a equipe pode ver a receita.")
		return
	}

	days := 30
	if len(data.Options) > 0 {
		days = int(data.Options[0].IntValue())
	}
	if days < 1 {
		days = 1
	}

	total, count, err := h.orderService.Revenue(days)
	if err != nil {
		h.responder.Error(i, "Erro", "Não foi possível calcular a receita.")
		return
	}
	h.responder.Ephemeral(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "💰 Receita",
			Description: fmt.Sprintf("Últimos **%d** dia(s)", days),
			Color:       services.ColorGreen,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Total", Value: services.FormatBRL(total), Inline: true},
				{Name: "Pedidos aprovados", Value: fmt.Sprintf("%d", count), Inline: true},
			},
		}},
	})
}

func (h *BotHandler) handleMessengerStats(i *discordgo.InteractionCreate) {
	if !h.isAdmin(i) {
		h.responder.Error(i, "Sem permissão", "Apenas a equipe pode ver o cache.")
		return
	}

	stats := h.messenger.Stats()
	embed := &discordgo.MessageEmbed{
		Title: "📨 Cache de Mensagens",
		Color: services.ColorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Canais rastreados", Value: fmt.Sprintf("%d", stats.TrackedChannels), Inline: true},
		},
	}
	if stats.TrackedChannels > 0 {
		var sb strings.Builder
		for tag, count := range stats.Contexts {
			sb.WriteString(fmt.Sprintf("%s: %d\n", tag, count))
		}
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Contextos", Value: sb.String(), Inline: false},
			&discordgo.MessageEmbedField{Name: "Mais antigo", Value: services.DiscordTimestamp(stats.OldestTouch), Inline: true},
			&discordgo.MessageEmbedField{Name: "Mais recente", Value: services.DiscordTimestamp(stats.NewestTouch), Inline: true},
		)
	}
	h.responder.Ephemeral(i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	})
}

// handleOrderDecision routes order:approve:<id> and order:reject:<id> from
// the admin channel.
func (h *BotHandler) handleOrderDecision(ctx context.Context, i *discordgo.InteractionCreate, parts []string) {
	if len(parts) != 3 {
		return
	}
	if !h.isAdmin(i) {
		h.responder.Error(i, "Sem permissão", "Apenas a equipe pode decidir pedidos.")
		return
	}
	orderID, err := parseInt64(parts[2])
	if err != nil {
		return
	}
	adminID := interactionUserID(i)

	switch parts[1] {
	case "approve":
		order, err := h.orderService.Approve(ctx, orderID, adminID)
		if err != nil {
			h.responder.Error(i, "Erro", fmt.Sprintf("Não foi possível aprovar o pedido: %v", err))
			return
		}
		h.resolveDecisionMessage(i, fmt.Sprintf("✅ Pedido #%s aprovado por <@%s>", order.Reference, adminID))
	case "reject":
		order, err := h.orderService.Reject(ctx, orderID, adminID)
		if err != nil {
			h.responder.Error(i, "Erro", fmt.Sprintf("Não foi possível rejeitar o pedido: %v", err))
			return
		}
		h.resolveDecisionMessage(i, fmt.Sprintf("❌ Pedido #%s rejeitado por <@%s>", order.Reference, adminID))
	}
}

// handleFriendshipDecision routes friendship:approve:<id> and
// friendship:reject:<id> from the admin channel.
func (h *BotHandler) handleFriendshipDecision(i *discordgo.InteractionCreate, parts []string) {
	if len(parts) != 3 {
		return
	}
	if !h.isAdmin(i) {
		h.responder.Error(i, "Sem permissão", "Apenas a equipe pode decidir amizades.")
		return
	}
	friendshipID, err := parseInt64(parts[2])
	if err != nil {
		return
	}
	adminID := interactionUserID(i)

	switch parts[1] {
	case "approve":
		f, err := h.friendships.Approve(friendshipID)
		if err != nil {
			h.responder.Error(i, "Erro", fmt.Sprintf("Não foi possível aprovar a amizade: %v", err))
			return
		}
		h.resolveDecisionMessage(i, fmt.Sprintf("✅ Amizade %s#%s confirmada por <@%s>", f.GameNickname, f.GameTag, adminID))
	case "reject":
		f, err := h.friendships.Reject(friendshipID)
		if err != nil {
			h.responder.Error(i, "Erro", fmt.Sprintf("Não foi possível rejeitar a amizade: %v", err))
			return
		}
		h.resolveDecisionMessage(i, fmt.Sprintf("❌ Amizade %s#%s rejeitada por <@%s>", f.GameNickname, f.GameTag, adminID))
	}
}

// resolveDecisionMessage rewrites the admin message in place, dropping the
// buttons so the decision cannot be repeated.
func (h *BotHandler) resolveDecisionMessage(i *discordgo.InteractionCreate, content string) {
	var embeds []*discordgo.MessageEmbed
	if i.Message != nil {
		embeds = i.Message.Embeds
	}

	err := h.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     embeds,
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		log.Printf("[handler] could not update decision message: %v", err)
	}
}
