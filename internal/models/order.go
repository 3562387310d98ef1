package models

import "time"

const (
	OrderPendingPaymentProof   = "PENDING_PAYMENT_PROOF"
	OrderPendingManualApproval = "PENDING_MANUAL_APPROVAL"
	OrderApproved              = "APPROVED"
	OrderRejected              = "REJECTED"
)

type Order struct {
	ID              int64
	Reference       string
	CartID          int64
	UserID          int64
	FriendshipID    int64
	Status          string
	PaymentProofURL string
	TotalRP         int
	TotalPrice      float64
	ApprovedBy      string
	CompletedAt     *time.Time
	CreatedAt       time.Time
}

func (o *Order) AwaitingProof() bool {
	return o.Status == OrderPendingPaymentProof
}

func (o *Order) AwaitingApproval() bool {
	return o.Status == OrderPendingManualApproval
}
