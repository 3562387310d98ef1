package models

import "time"

const (
	FriendshipPending  = "pending"
	FriendshipApproved = "approved"
	FriendshipRejected = "rejected"
)

// Friendship links a customer to a delivery account. Gifts can only be sent
// after the friendship is approved and old enough.
type Friendship struct {
	ID               int64
	UserID           int64
	AccountID        int64
	GameNickname     string
	GameTag          string
	Status           string
	AddedAt          time.Time
	NotifiedEligible bool
}

func (f *Friendship) Age(now time.Time) time.Duration {
	return now.Sub(f.AddedAt)
}

func (f *Friendship) EligibleAt(minDays int) time.Time {
	return f.AddedAt.AddDate(0, 0, minDays)
}

func (f *Friendship) IsEligible(now time.Time, minDays int) bool {
	return f.Status == FriendshipApproved && !now.Before(f.EligibleAt(minDays))
}
