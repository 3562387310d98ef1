package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pawstore/storebot/internal/db"
	"github.com/pawstore/storebot/internal/models"
)

var (
	ErrFriendshipExists   = errors.New("friendship already requested for this account")
	ErrAccountFull        = errors.New("account has no free friend slots")
	ErrFriendshipNotFound = errors.New("friendship not found")
)

// FriendshipService manages the add-friend workflow that precedes gifting:
// a user asks to be added on one of the store accounts, an admin confirms the
// in-game add, and after the waiting period the account can send gifts.
type FriendshipService struct {
	session        *discordgo.Session
	users          *db.UserRepository
	accounts       *db.AccountRepository
	friendships    *db.FriendshipRepository
	settings       *db.SettingsRepository
	adminChannelID string
}

func NewFriendshipService(
	session *discordgo.Session,
	users *db.UserRepository,
	accounts *db.AccountRepository,
	friendships *db.FriendshipRepository,
	settings *db.SettingsRepository,
	adminChannelID string,
) *FriendshipService {
	return &FriendshipService{
		session:        session,
		users:          users,
		accounts:       accounts,
		friendships:    friendships,
		settings:       settings,
		adminChannelID: adminChannelID,
	}
}

// AvailableAccounts lists store accounts with free friend slots, optionally
// filtered by region.
func (s *FriendshipService) AvailableAccounts(region string) ([]*models.Account, error) {
	return s.accounts.FindAvailable(region)
}

// Request registers a pending friendship and asks the admins to add the user
// in game.
func (s *FriendshipService) Request(discordID, username string, accountID int64, gameNickname, gameTag string) (*models.Friendship, error) {
	user, err := s.users.GetOrCreate(discordID, username)
	if err != nil {
		return nil, fmt.Errorf("get or create user: %w", err)
	}

	account, err := s.accounts.GetByID(accountID)
	if err != nil {
		return nil, fmt.Errorf("load account %d: %w", accountID, err)
	}
	if !account.HasFreeSlots() {
		return nil, ErrAccountFull
	}

	if existing, err := s.friendships.FindByUserAndAccount(user.ID, accountID); err == nil {
		if existing.Status != models.FriendshipRejected {
			return nil, ErrFriendshipExists
		}
		// A rejected request can be retried; clear the old row first.
		if err := s.friendships.Delete(existing.ID); err != nil {
			return nil, fmt.Errorf("clear rejected friendship: %w", err)
		}
	}

	friendship := &models.Friendship{
		UserID:       user.ID,
		AccountID:    accountID,
		GameNickname: gameNickname,
		GameTag:      gameTag,
		Status:       models.FriendshipPending,
	}
	id, err := s.friendships.Create(friendship)
	if err != nil {
		return nil, fmt.Errorf("create friendship: %w", err)
	}
	friendship.ID = id

	if err := s.notifyAdmins(friendship, user, account); err != nil {
		log.Printf("[friendships] could not post friendship request %d to admin channel: %v", id, err)
	}
	return friendship, nil
}

func (s *FriendshipService) notifyAdmins(f *models.Friendship, user *models.User, account *models.Account) error {
	embed := &discordgo.MessageEmbed{
		Title: "🤝 Nova Solicitação de Amizade",
		Description: fmt.Sprintf("Cliente: <@%s>\nConta da loja: **%s** (%s)\nAdicionar: **%s#%s**",
			user.DiscordID, account.Nickname, account.Region, f.GameNickname, f.GameTag),
		Color: ColorBlue,
	}
	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "✅ Adicionado", Style: discordgo.SuccessButton, CustomID: fmt.Sprintf("friendship:approve:%d", f.ID)},
			discordgo.Button{Label: "❌ Rejeitar", Style: discordgo.DangerButton, CustomID: fmt.Sprintf("friendship:reject:%d", f.ID)},
		}},
	}

	_, err := s.session.ChannelMessageSendComplex(s.adminChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	return err
}

// Approve confirms the in-game add. The eligibility clock starts now, so the
// waiting period counts from the real friendship date, not the request date.
func (s *FriendshipService) Approve(friendshipID int64) (*models.Friendship, error) {
	friendship, err := s.friendships.GetByID(friendshipID)
	if err != nil {
		return nil, ErrFriendshipNotFound
	}

	if err := s.friendships.Approve(friendship.ID); err != nil {
		return nil, fmt.Errorf("approve friendship: %w", err)
	}
	if err := s.accounts.AdjustFriendCount(friendship.AccountID, 1); err != nil {
		log.Printf("[friendships] could not bump friend count for account %d: %v", friendship.AccountID, err)
	}

	s.dmApproval(friendship)

	friendship.Status = models.FriendshipApproved
	friendship.AddedAt = time.Now()
	return friendship, nil
}

func (s *FriendshipService) dmApproval(f *models.Friendship) {
	user, err := s.users.GetByID(f.UserID)
	if err != nil {
		log.Printf("[friendships] could not load user %d for approval DM: %v", f.UserID, err)
		return
	}
	minDays, err := s.settings.MinFriendshipDays()
	if err != nil {
		minDays = 7
	}

	channel, err := s.session.UserChannelCreate(user.DiscordID)
	if err != nil {
		log.Printf("[friendships] could not open DM with %s: %v", user.DiscordID, err)
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "✅ Amizade Confirmada",
		Description: fmt.Sprintf(
			"Sua conta **%s#%s** foi adicionada! Presentes ficam disponíveis %s.",
			f.GameNickname, f.GameTag, DiscordTimestamp(time.Now().AddDate(0, 0, minDays))),
		Color: ColorGreen,
	}
	if _, err := s.session.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		log.Printf("[friendships] could not DM %s: %v", user.DiscordID, err)
	}
}

// Reject turns the request down without touching the account's friend count.
func (s *FriendshipService) Reject(friendshipID int64) (*models.Friendship, error) {
	friendship, err := s.friendships.GetByID(friendshipID)
	if err != nil {
		return nil, ErrFriendshipNotFound
	}

	if err := s.friendships.UpdateStatus(friendship.ID, models.FriendshipRejected); err != nil {
		return nil, fmt.Errorf("reject friendship: %w", err)
	}
	friendship.Status = models.FriendshipRejected
	return friendship, nil
}

// Remove deletes a friendship and frees the slot on the store account when
// the friendship had been approved.
func (s *FriendshipService) Remove(friendshipID int64) error {
	friendship, err := s.friendships.GetByID(friendshipID)
	if err != nil {
		return ErrFriendshipNotFound
	}

	if err := s.friendships.Delete(friendship.ID); err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	if friendship.Status == models.FriendshipApproved {
		if err := s.accounts.AdjustFriendCount(friendship.AccountID, -1); err != nil {
			log.Printf("[friendships] could not release slot on account %d: %v", friendship.AccountID, err)
		}
	}
	return nil
}

// CanSendGifts reports whether any of the user's friendships is old enough
// for gifting, with a human-readable reason when it is not.
func (s *FriendshipService) CanSendGifts(userID int64) (bool, string, error) {
	minDays, err := s.settings.MinFriendshipDays()
	if err != nil {
		return false, "", fmt.Errorf("load min friendship days: %w", err)
	}

	friendships, err := s.friendships.FindByUser(userID)
	if err != nil {
		return false, "", fmt.Errorf("load friendships: %w", err)
	}

	now := time.Now()
	var nearest *models.Friendship
	for _, f := range friendships {
		if f.Status != models.FriendshipApproved {
			continue
		}
		if f.IsEligible(now, minDays) {
			return true, "", nil
		}
		if nearest == nil || f.EligibleAt(minDays).Before(nearest.EligibleAt(minDays)) {
			nearest = f
		}
	}

	if nearest == nil {
		return false, "nenhuma amizade aprovada", nil
	}
	return false, FormatDaysRemaining(now, nearest.EligibleAt(minDays)), nil
}
