package db

import (
	"database/sql"
	"testing"

	"github.com/pawstore/storebot/internal/models"
	_ "modernc.org/sqlite"
)

func newTestQueue(t *testing.T) *DBQueue {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	if err := InitSchema(sqlDB); err != nil {
		t.Fatal(err)
	}

	queue := NewDBQueueForTest(sqlDB)
	t.Cleanup(func() {
		queue.Close()
		sqlDB.Close()
	})
	return queue
}

func seedUser(t *testing.T, queue *DBQueue, discordID string) *models.User {
	t.Helper()
	user, err := NewUserRepository(queue).GetOrCreate(discordID, "user-"+discordID)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedAccount(t *testing.T, queue *DBQueue, nickname string) int64 {
	t.Helper()
	id, err := NewAccountRepository(queue).Create(&models.Account{
		Nickname:   nickname,
		RPAmount:   10000,
		MaxFriends: 10,
		Region:     "BR",
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return id
}
