package db

import (
	"database/sql"

	"github.com/pawstore/storebot/internal/models"
)

type UserRepository struct {
	queue *DBQueue
}

func NewUserRepository(queue *DBQueue) *UserRepository {
	return &UserRepository{queue: queue}
}

// GetOrCreate returns the user for a Discord ID, creating it on first contact.
func (r *UserRepository) GetOrCreate(discordID, username string) (*models.User, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT INTO users (discord_id, username) VALUES (?, ?)
			ON CONFLICT(discord_id) DO UPDATE SET username = excluded.username
		`, discordID, username)
		if err != nil {
			return nil, err
		}

		row := db.QueryRow(`
			SELECT id, discord_id, username, created_at
			FROM users WHERE discord_id = ?
		`, discordID)

		var user models.User
		if err := row.Scan(&user.ID, &user.DiscordID, &user.Username, &user.CreatedAt); err != nil {
			return nil, err
		}
		return &user, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.User), nil
}

func (r *UserRepository) GetByDiscordID(discordID string) (*models.User, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, discord_id, username, created_at
			FROM users WHERE discord_id = ?
		`, discordID)

		var user models.User
		if err := row.Scan(&user.ID, &user.DiscordID, &user.Username, &user.CreatedAt); err != nil {
			return nil, err
		}
		return &user, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.User), nil
}

func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, discord_id, username, created_at
			FROM users WHERE id = ?
		`, id)

		var user models.User
		if err := row.Scan(&user.ID, &user.DiscordID, &user.Username, &user.CreatedAt); err != nil {
			return nil, err
		}
		return &user, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.User), nil
}
