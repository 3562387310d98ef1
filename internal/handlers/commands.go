package handlers

import "github.com/bwmarrin/discordgo"

// Commands lists every slash command the bot registers. Shared with the
// deploy binary so the registered set never drifts from the handled set.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "send-panel",
			Description: "Publica o painel da loja neste canal",
		},
		{
			Name:        "account",
			Description: "Gerencia as contas de entrega da loja",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Cadastra uma conta de entrega",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "nickname", Description: "Nick da conta", Required: true},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "rp", Description: "Saldo de RP", Required: true},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "max-friends", Description: "Limite de amigos", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "region", Description: "Região da conta", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "Lista as contas cadastradas",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove uma conta",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "ID da conta", Required: true},
					},
				},
			},
		},
		{
			Name:        "friendship-admin",
			Description: "Ferramentas de amizade para a equipe",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "check",
					Description: "Verifica e notifica uma amizade específica",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "id", Description: "ID da amizade", Required: true},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "reset",
					Description: "Limpa as notificações de elegibilidade",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "stats",
					Description: "Mostra as estatísticas de amizades",
				},
			},
		},
		{
			Name:        "revenue",
			Description: "Mostra a receita de pedidos aprovados",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionInteger, Name: "days", Description: "Janela em dias (padrão 30)"},
			},
		},
		{
			Name:        "messenger-stats",
			Description: "Mostra o estado do cache de mensagens da loja",
		},
	}
}
