package db

import (
	"testing"
	"time"

	"github.com/pawstore/storebot/internal/models"
)

func TestFriendshipLifecycle(t *testing.T) {
	queue := newTestQueue(t)
	repo := NewFriendshipRepository(queue)

	user := seedUser(t, queue, "100")
	accountID := seedAccount(t, queue, "store-main")

	id, err := repo.Create(&models.Friendship{
		UserID:       user.ID,
		AccountID:    accountID,
		GameNickname: "Player",
		GameTag:      "BR1",
		Status:       models.FriendshipPending,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if f.Status != models.FriendshipPending {
		t.Errorf("expected pending, got %s", f.Status)
	}

	if err := repo.Approve(id); err != nil {
		t.Fatalf("approve: %v", err)
	}
	f, err = repo.GetByID(id)
	if err != nil {
		t.Fatalf("get after approve: %v", err)
	}
	if f.Status != models.FriendshipApproved {
		t.Errorf("expected approved, got %s", f.Status)
	}
	if time.Since(f.AddedAt) > time.Minute {
		t.Errorf("approve should restart the eligibility clock, added_at = %v", f.AddedAt)
	}

	count, err := repo.CountByStatus(models.FriendshipApproved)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 approved friendship, got %d", count)
	}
}

func TestFriendshipFindByUserAndAccount(t *testing.T) {
	queue := newTestQueue(t)
	repo := NewFriendshipRepository(queue)

	user := seedUser(t, queue, "200")
	accountID := seedAccount(t, queue, "store-alt")

	if _, err := repo.FindByUserAndAccount(user.ID, accountID); err == nil {
		t.Fatal("expected no friendship before create")
	}

	id, err := repo.Create(&models.Friendship{
		UserID: user.ID, AccountID: accountID,
		GameNickname: "Player", GameTag: "BR1",
		Status: models.FriendshipPending,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := repo.FindByUserAndAccount(user.ID, accountID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID != id {
		t.Errorf("expected friendship %d, got %d", id, found.ID)
	}
}

func TestFriendshipNotificationFlags(t *testing.T) {
	queue := newTestQueue(t)
	repo := NewFriendshipRepository(queue)

	user := seedUser(t, queue, "300")
	ids := make([]int64, 0, 3)
	for i := 0; i < 3; i++ {
		accountID := seedAccount(t, queue, "store-"+string(rune('a'+i)))
		id, err := repo.Create(&models.Friendship{
			UserID: user.ID, AccountID: accountID,
			GameNickname: "Player", GameTag: "BR1",
			Status: models.FriendshipPending,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := repo.Approve(id); err != nil {
			t.Fatalf("approve: %v", err)
		}
		ids = append(ids, id)
	}

	if err := repo.SetNotified(ids[0], true); err != nil {
		t.Fatalf("set notified: %v", err)
	}

	unnotified, err := repo.FindApprovedUnnotified()
	if err != nil {
		t.Fatalf("find unnotified: %v", err)
	}
	if len(unnotified) != 2 {
		t.Errorf("expected 2 unnotified friendships, got %d", len(unnotified))
	}
	for _, f := range unnotified {
		if f.ID == ids[0] {
			t.Error("notified friendship listed as unnotified")
		}
	}

	notified, err := repo.CountNotified()
	if err != nil {
		t.Fatalf("count notified: %v", err)
	}
	if notified != 1 {
		t.Errorf("expected 1 notified friendship, got %d", notified)
	}

	cleared, err := repo.ResetNotifications()
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if cleared != 1 {
		t.Errorf("expected 1 cleared flag, got %d", cleared)
	}

	unnotified, err = repo.FindApprovedUnnotified()
	if err != nil {
		t.Fatalf("find unnotified after reset: %v", err)
	}
	if len(unnotified) != 3 {
		t.Errorf("expected 3 unnotified friendships after reset, got %d", len(unnotified))
	}
}
