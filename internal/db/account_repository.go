package db

import (
	"database/sql"

	"github.com/pawstore/storebot/internal/models"
)

type AccountRepository struct {
	queue *DBQueue
}

func NewAccountRepository(queue *DBQueue) *AccountRepository {
	return &AccountRepository{queue: queue}
}

func (r *AccountRepository) Create(account *models.Account) (int64, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`
			INSERT INTO accounts (nickname, rp_amount, friends_count, max_friends, region)
			VALUES (?, ?, ?, ?, ?)
		`, account.Nickname, account.RPAmount, account.FriendsCount, account.MaxFriends, account.Region)
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

func (r *AccountRepository) GetByID(id int64) (*models.Account, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, nickname, rp_amount, friends_count, max_friends, region, created_at
			FROM accounts WHERE id = ?
		`, id)
		return scanAccount(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Account), nil
}

// FindAvailable lists accounts that still have free friend slots, optionally
// limited to a region.
func (r *AccountRepository) FindAvailable(region string) ([]*models.Account, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		query := `
			SELECT id, nickname, rp_amount, friends_count, max_friends, region, created_at
			FROM accounts WHERE friends_count < max_friends
		`
		args := []interface{}{}
		if region != "" {
			query += ` AND region = ?`
			args = append(args, region)
		}
		query += ` ORDER BY friends_count ASC`

		rows, err := db.Query(query, args...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var accounts []*models.Account
		for rows.Next() {
			account, err := scanAccount(rows)
			if err != nil {
				return nil, err
			}
			accounts = append(accounts, account)
		}
		return accounts, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Account), nil
}

func (r *AccountRepository) GetAll() ([]*models.Account, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`
			SELECT id, nickname, rp_amount, friends_count, max_friends, region, created_at
			FROM accounts ORDER BY nickname
		`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var accounts []*models.Account
		for rows.Next() {
			account, err := scanAccount(rows)
			if err != nil {
				return nil, err
			}
			accounts = append(accounts, account)
		}
		return accounts, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Account), nil
}

func (r *AccountRepository) AdjustRP(id int64, delta int) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			UPDATE accounts SET rp_amount = rp_amount + ? WHERE id = ?
		`, delta, id)
		return nil, err
	})
	return err
}

func (r *AccountRepository) AdjustFriendCount(id int64, delta int) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			UPDATE accounts SET friends_count = MAX(0, friends_count + ?) WHERE id = ?
		`, delta, id)
		return nil, err
	})
	return err
}

func (r *AccountRepository) Delete(id int64) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`DELETE FROM accounts WHERE id = ?`, id)
		return nil, err
	})
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	err := row.Scan(&account.ID, &account.Nickname, &account.RPAmount,
		&account.FriendsCount, &account.MaxFriends, &account.Region, &account.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &account, nil
}
