package services

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/pawstore/storebot/internal/db"
	"github.com/pawstore/storebot/internal/models"
)

const notifierInterval = time.Hour

// FriendshipNotifier periodically DMs users whose friendships have aged past
// the waiting period and can now receive gifts. Each friendship is notified
// at most once; the flag survives restarts because it lives in the database.
type FriendshipNotifier struct {
	session     *discordgo.Session
	users       *db.UserRepository
	friendships *db.FriendshipRepository
	settings    *db.SettingsRepository

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type NotifierStats struct {
	Approved int
	Pending  int
	Notified int
}

func NewFriendshipNotifier(
	session *discordgo.Session,
	users *db.UserRepository,
	friendships *db.FriendshipRepository,
	settings *db.SettingsRepository,
) *FriendshipNotifier {
	return &FriendshipNotifier{
		session:     session,
		users:       users,
		friendships: friendships,
		settings:    settings,
		stop:        make(chan struct{}),
	}
}

// Start launches the hourly sweep. The first sweep runs shortly after start
// so a restart does not delay notifications by a full interval.
func (n *FriendshipNotifier) Start() {
	n.wg.Add(1)
	go n.loop()
	log.Printf("[notifier] eligibility sweep started (every %v)", notifierInterval)
}

func (n *FriendshipNotifier) Stop() {
	n.stopOnce.Do(func() { close(n.stop) })
	n.wg.Wait()
}

func (n *FriendshipNotifier) loop() {
	defer n.wg.Done()

	timer := time.NewTimer(time.Minute)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			n.Sweep()
			timer.Reset(notifierInterval)
		case <-n.stop:
			return
		}
	}
}

// Sweep notifies every approved friendship that became eligible since the
// last pass. DM failures are logged and retried on the next sweep.
func (n *FriendshipNotifier) Sweep() {
	minDays, err := n.settings.MinFriendshipDays()
	if err != nil {
		log.Printf("[notifier] could not load min friendship days: %v", err)
		return
	}

	candidates, err := n.friendships.FindApprovedUnnotified()
	if err != nil {
		log.Printf("[notifier] could not list friendships: %v", err)
		return
	}

	now := time.Now()
	notified := 0
	for _, f := range candidates {
		if !f.IsEligible(now, minDays) {
			continue
		}
		if err := n.notify(f); err != nil {
			log.Printf("[notifier] could not notify friendship %d: %v", f.ID, err)
			continue
		}
		if err := n.friendships.SetNotified(f.ID, true); err != nil {
			log.Printf("[notifier] could not mark friendship %d notified: %v", f.ID, err)
			continue
		}
		notified++
	}

	if notified > 0 {
		log.Printf("[notifier] notified %d newly eligible friendship(s)", notified)
	}
}

func (n *FriendshipNotifier) notify(f *models.Friendship) error {
	user, err := n.users.GetByID(f.UserID)
	if err != nil {
		return fmt.Errorf("load user %d: %w", f.UserID, err)
	}

	channel, err := n.session.UserChannelCreate(user.DiscordID)
	if err != nil {
		return fmt.Errorf("open DM: %w", err)
	}

	embed := &discordgo.MessageEmbed{
		Title: "🎁 Presentes Liberados",
		Description: fmt.Sprintf(
			"A amizade com **%s#%s** completou o período de espera. Você já pode receber presentes!",
			f.GameNickname, f.GameTag),
		Color: ColorGreen,
	}
	if _, err := n.session.ChannelMessageSendEmbed(channel.ID, embed); err != nil {
		return fmt.Errorf("send DM: %w", err)
	}
	return nil
}

// CheckSpecific runs the eligibility check for one friendship right now,
// regardless of the notified flag. Used by the admin command.
func (n *FriendshipNotifier) CheckSpecific(friendshipID int64) (bool, error) {
	minDays, err := n.settings.MinFriendshipDays()
	if err != nil {
		return false, fmt.Errorf("load min friendship days: %w", err)
	}
	f, err := n.friendships.GetByID(friendshipID)
	if err != nil {
		return false, ErrFriendshipNotFound
	}
	if !f.IsEligible(time.Now(), minDays) {
		return false, nil
	}
	if err := n.notify(f); err != nil {
		return false, err
	}
	if err := n.friendships.SetNotified(f.ID, true); err != nil {
		return false, err
	}
	return true, nil
}

// ResetAll clears every notified flag so the next sweep re-notifies all
// eligible friendships. Returns how many flags were cleared.
func (n *FriendshipNotifier) ResetAll() (int64, error) {
	return n.friendships.ResetNotifications()
}

func (n *FriendshipNotifier) Stats() (NotifierStats, error) {
	approved, err := n.friendships.CountByStatus(models.FriendshipApproved)
	if err != nil {
		return NotifierStats{}, err
	}
	pending, err := n.friendships.CountByStatus(models.FriendshipPending)
	if err != nil {
		return NotifierStats{}, err
	}
	notified, err := n.friendships.CountNotified()
	if err != nil {
		return NotifierStats{}, err
	}
	return NotifierStats{Approved: approved, Pending: pending, Notified: notified}, nil
}
