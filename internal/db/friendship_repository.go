package db

import (
	"database/sql"

	"github.com/pawstore/storebot/internal/models"
)

type FriendshipRepository struct {
	queue *DBQueue
}

func NewFriendshipRepository(queue *DBQueue) *FriendshipRepository {
	return &FriendshipRepository{queue: queue}
}

func (r *FriendshipRepository) Create(f *models.Friendship) (int64, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`
			INSERT INTO friendships (user_id, account_id, game_nickname, game_tag, status)
			VALUES (?, ?, ?, ?, ?)
		`, f.UserID, f.AccountID, f.GameNickname, f.GameTag, f.Status)
		if err != nil {
			return nil, err
		}
		return res.LastInsertId()
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

func (r *FriendshipRepository) GetByID(id int64) (*models.Friendship, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, user_id, account_id, game_nickname, game_tag, status, added_at, notified_eligible
			FROM friendships WHERE id = ?
		`, id)
		return scanFriendship(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Friendship), nil
}

func (r *FriendshipRepository) FindByUser(userID int64) ([]*models.Friendship, error) {
	return r.query(`
		SELECT id, user_id, account_id, game_nickname, game_tag, status, added_at, notified_eligible
		FROM friendships WHERE user_id = ? ORDER BY added_at
	`, userID)
}

func (r *FriendshipRepository) FindByUserAndAccount(userID, accountID int64) (*models.Friendship, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, user_id, account_id, game_nickname, game_tag, status, added_at, notified_eligible
			FROM friendships WHERE user_id = ? AND account_id = ?
		`, userID, accountID)
		return scanFriendship(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Friendship), nil
}

// FindApprovedUnnotified lists approved friendships that were never notified
// about gift eligibility. The notifier filters by age on top of this.
func (r *FriendshipRepository) FindApprovedUnnotified() ([]*models.Friendship, error) {
	return r.query(`
		SELECT id, user_id, account_id, game_nickname, game_tag, status, added_at, notified_eligible
		FROM friendships WHERE status = ? AND notified_eligible = FALSE ORDER BY added_at
	`, models.FriendshipApproved)
}

func (r *FriendshipRepository) UpdateStatus(id int64, status string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`UPDATE friendships SET status = ? WHERE id = ?`, status, id)
		return nil, err
	})
	return err
}

// Approve marks the request approved and restarts the eligibility clock.
func (r *FriendshipRepository) Approve(id int64) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			UPDATE friendships SET status = ?, added_at = CURRENT_TIMESTAMP WHERE id = ?
		`, models.FriendshipApproved, id)
		return nil, err
	})
	return err
}

func (r *FriendshipRepository) SetNotified(id int64, notified bool) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`UPDATE friendships SET notified_eligible = ? WHERE id = ?`, notified, id)
		return nil, err
	})
	return err
}

// ResetNotifications clears the notified flag on every friendship and returns
// how many rows changed.
func (r *FriendshipRepository) ResetNotifications() (int64, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`UPDATE friendships SET notified_eligible = FALSE WHERE notified_eligible = TRUE`)
		if err != nil {
			return nil, err
		}
		return res.RowsAffected()
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

func (r *FriendshipRepository) Delete(id int64) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`DELETE FROM friendships WHERE id = ?`, id)
		return nil, err
	})
	return err
}

func (r *FriendshipRepository) CountByStatus(status string) (int, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		var count int
		err := db.QueryRow(`SELECT COUNT(*) FROM friendships WHERE status = ?`, status).Scan(&count)
		return count, err
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (r *FriendshipRepository) CountNotified() (int, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		var count int
		err := db.QueryRow(`SELECT COUNT(*) FROM friendships WHERE notified_eligible = TRUE`).Scan(&count)
		return count, err
	})
	if err != nil {
		return 0, err
	}
	return result.(int), nil
}

func (r *FriendshipRepository) query(query string, args ...interface{}) ([]*models.Friendship, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var friendships []*models.Friendship
		for rows.Next() {
			f, err := scanFriendship(rows)
			if err != nil {
				return nil, err
			}
			friendships = append(friendships, f)
		}
		return friendships, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Friendship), nil
}

func scanFriendship(row rowScanner) (*models.Friendship, error) {
	var f models.Friendship
	err := row.Scan(&f.ID, &f.UserID, &f.AccountID, &f.GameNickname, &f.GameTag,
		&f.Status, &f.AddedAt, &f.NotifiedEligible)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
