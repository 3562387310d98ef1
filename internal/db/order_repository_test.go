package db

import (
	"testing"

	"github.com/pawstore/storebot/internal/models"
)

func seedOrder(t *testing.T, queue *DBQueue, channelID, reference string) *models.Order {
	t.Helper()

	user := seedUser(t, queue, "user-"+reference)
	accountID := seedAccount(t, queue, "acct-"+reference)

	friendshipID, err := NewFriendshipRepository(queue).Create(&models.Friendship{
		UserID: user.ID, AccountID: accountID,
		GameNickname: "Player", GameTag: "BR1",
		Status: models.FriendshipApproved,
	})
	if err != nil {
		t.Fatalf("seed friendship: %v", err)
	}

	cartID, err := NewCartRepository(queue).Create(user.ID, channelID)
	if err != nil {
		t.Fatalf("seed cart: %v", err)
	}

	order := &models.Order{
		Reference:    reference,
		CartID:       cartID,
		UserID:       user.ID,
		FriendshipID: friendshipID,
		Status:       models.OrderPendingPaymentProof,
		TotalRP:      1350,
		TotalPrice:   47.25,
	}
	id, err := NewOrderRepository(queue).Create(order)
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	order.ID = id
	return order
}

func TestOrderPaymentWorkflow(t *testing.T) {
	queue := newTestQueue(t)
	repo := NewOrderRepository(queue)

	order := seedOrder(t, queue, "ticket-1", "AB12CD34")

	found, err := repo.FindActiveByChannel("ticket-1", models.OrderPendingPaymentProof)
	if err != nil {
		t.Fatalf("find by channel: %v", err)
	}
	if found.ID != order.ID {
		t.Errorf("expected order %d, got %d", order.ID, found.ID)
	}
	if !found.AwaitingProof() {
		t.Errorf("expected awaiting proof, got %s", found.Status)
	}

	if err := repo.AttachPaymentProof(order.ID, "https://cdn.example/proof.png"); err != nil {
		t.Fatalf("attach proof: %v", err)
	}

	found, err = repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found.AwaitingApproval() {
		t.Errorf("expected awaiting approval, got %s", found.Status)
	}
	if found.PaymentProofURL != "https://cdn.example/proof.png" {
		t.Errorf("unexpected proof URL %q", found.PaymentProofURL)
	}
	if found.CompletedAt != nil {
		t.Error("completed_at should be empty before approval")
	}

	if err := repo.Approve(order.ID, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	found, err = repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get after approve: %v", err)
	}
	if found.Status != models.OrderApproved {
		t.Errorf("expected approved, got %s", found.Status)
	}
	if found.ApprovedBy != "admin-1" {
		t.Errorf("expected approver admin-1, got %q", found.ApprovedBy)
	}
	if found.CompletedAt == nil {
		t.Error("completed_at should be set after approval")
	}

	// Approved orders must no longer be resolvable as active.
	if _, err := repo.FindActiveByChannel("ticket-1", models.OrderPendingPaymentProof); err == nil {
		t.Error("approved order still listed as awaiting proof")
	}
}

func TestOrderReject(t *testing.T) {
	queue := newTestQueue(t)
	repo := NewOrderRepository(queue)

	order := seedOrder(t, queue, "ticket-2", "EF56GH78")
	if err := repo.AttachPaymentProof(order.ID, "https://cdn.example/proof.png"); err != nil {
		t.Fatalf("attach proof: %v", err)
	}
	if err := repo.Reject(order.ID, "admin-2"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	found, err := repo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found.Status != models.OrderRejected {
		t.Errorf("expected rejected, got %s", found.Status)
	}
	if found.CompletedAt != nil {
		t.Error("rejected order must not have completed_at")
	}
}

func TestRevenueCountsOnlyApproved(t *testing.T) {
	queue := newTestQueue(t)
	repo := NewOrderRepository(queue)

	approved := seedOrder(t, queue, "ticket-3", "REF00001")
	seedOrder(t, queue, "ticket-4", "REF00002") // stays pending

	if err := repo.Approve(approved.ID, "admin-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	total, count, err := repo.Revenue(30)
	if err != nil {
		t.Fatalf("revenue: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 approved order, got %d", count)
	}
	if total != 47.25 {
		t.Errorf("expected total 47.25, got %.2f", total)
	}

	total, count, err = repo.Revenue(0)
	if err != nil {
		t.Fatalf("revenue all-time: %v", err)
	}
	if count != 1 || total != 47.25 {
		t.Errorf("expected all-time 47.25/1, got %.2f/%d", total, count)
	}
}
