package models

import "time"

type User struct {
	ID        int64
	DiscordID string
	Username  string
	CreatedAt time.Time
}
