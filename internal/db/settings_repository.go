package db

import (
	"database/sql"
	"strconv"

	"github.com/pawstore/storebot/internal/models"
)

type SettingsRepository struct {
	queue *DBQueue
}

func NewSettingsRepository(queue *DBQueue) *SettingsRepository {
	return &SettingsRepository{queue: queue}
}

func (r *SettingsRepository) Get(key string) (string, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		var value string
		err := db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
		return value, err
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		return nil, err
	})
	return err
}

func (r *SettingsRepository) GetAll() (*models.Settings, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`SELECT key, value FROM settings`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		settings := &models.Settings{
			PricePerRP:        0.035,
			MinFriendshipDays: 7,
		}
		for rows.Next() {
			var key, value string
			if err := rows.Scan(&key, &value); err != nil {
				return nil, err
			}
			switch key {
			case "price_per_rp":
				if v, err := strconv.ParseFloat(value, 64); err == nil {
					settings.PricePerRP = v
				}
			case "pix_key":
				settings.PixKey = value
			case "min_friendship_days":
				if v, err := strconv.Atoi(value); err == nil {
					settings.MinFriendshipDays = v
				}
			case "panel_title":
				settings.PanelTitle = value
			case "panel_description":
				settings.PanelDescription = value
			}
		}
		return settings, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Settings), nil
}

func (r *SettingsRepository) PricePerRP() (float64, error) {
	value, err := r.Get("price_per_rp")
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(value, 64)
}

func (r *SettingsRepository) MinFriendshipDays() (int, error) {
	value, err := r.Get("min_friendship_days")
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}
