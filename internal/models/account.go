package models

import "time"

// Account is a store-owned game account that delivers gifts to customers.
type Account struct {
	ID           int64
	Nickname     string
	RPAmount     int
	FriendsCount int
	MaxFriends   int
	Region       string
	CreatedAt    time.Time
}

func (a *Account) HasFreeSlots() bool {
	return a.FriendsCount < a.MaxFriends
}

func (a *Account) CanCover(rp int) bool {
	return a.RPAmount >= rp
}
