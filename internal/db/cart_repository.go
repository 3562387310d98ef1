package db

import (
	"database/sql"

	"github.com/pawstore/storebot/internal/models"
)

type CartRepository struct {
	queue *DBQueue
}

func NewCartRepository(queue *DBQueue) *CartRepository {
	return &CartRepository{queue: queue}
}

func (r *CartRepository) Create(userID int64, ticketChannelID string) (int64, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`
			INSERT INTO carts (user_id, ticket_channel_id, status)
			VALUES (?, ?, ?)
		`, userID, ticketChannelID, models.CartActive)
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

func (r *CartRepository) GetByID(id int64) (*models.Cart, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, user_id, ticket_channel_id, status, total_rp, total_price, created_at, updated_at
			FROM carts WHERE id = ?
		`, id)
		return scanCart(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Cart), nil
}

func (r *CartRepository) GetByChannel(ticketChannelID string) (*models.Cart, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, user_id, ticket_channel_id, status, total_rp, total_price, created_at, updated_at
			FROM carts WHERE ticket_channel_id = ?
		`, ticketChannelID)
		return scanCart(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Cart), nil
}

func (r *CartRepository) FindActiveByUser(userID int64) (*models.Cart, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(`
			SELECT id, user_id, ticket_channel_id, status, total_rp, total_price, created_at, updated_at
			FROM carts WHERE user_id = ? AND status = ? ORDER BY created_at DESC LIMIT 1
		`, userID, models.CartActive)
		return scanCart(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Cart), nil
}

func (r *CartRepository) UpdateStatus(id int64, status string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			UPDATE carts SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
		`, status, id)
		return nil, err
	})
	return err
}

// AddItem inserts the item and refreshes the cart totals in one task so the
// totals never drift from the item rows.
func (r *CartRepository) AddItem(item *models.CartItem, pricePerRP float64) (int64, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`
			INSERT INTO cart_items (cart_id, skin_name, skin_price, skin_image_url, category, original_item_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, item.CartID, item.Name, item.PriceRP, item.ImageURL, item.Category, item.CatalogItemID)
		if err != nil {
			return nil, err
		}
		if err := refreshCartTotals(db, item.CartID, pricePerRP); err != nil {
			return nil, err
		}
		return res.LastInsertId()
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

func (r *CartRepository) RemoveItem(itemID int64, pricePerRP float64) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		var cartID int64
		err := db.QueryRow(`SELECT cart_id FROM cart_items WHERE id = ?`, itemID).Scan(&cartID)
		if err != nil {
			return nil, err
		}
		if _, err := db.Exec(`DELETE FROM cart_items WHERE id = ?`, itemID); err != nil {
			return nil, err
		}
		return nil, refreshCartTotals(db, cartID, pricePerRP)
	})
	return err
}

func (r *CartRepository) GetItems(cartID int64) ([]*models.CartItem, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`
			SELECT id, cart_id, skin_name, skin_price, skin_image_url, category, original_item_id, added_at
			FROM cart_items WHERE cart_id = ? ORDER BY added_at
		`, cartID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var items []*models.CartItem
		for rows.Next() {
			var item models.CartItem
			var imageURL, category sql.NullString
			var originalID sql.NullInt64
			err := rows.Scan(&item.ID, &item.CartID, &item.Name, &item.PriceRP,
				&imageURL, &category, &originalID, &item.AddedAt)
			if err != nil {
				return nil, err
			}
			item.ImageURL = imageURL.String
			item.Category = category.String
			item.CatalogItemID = originalID.Int64
			items = append(items, &item)
		}
		return items, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.CartItem), nil
}

func (r *CartRepository) HasItem(cartID, catalogItemID int64) (bool, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		var count int
		err := db.QueryRow(`
			SELECT COUNT(*) FROM cart_items WHERE cart_id = ? AND original_item_id = ?
		`, cartID, catalogItemID).Scan(&count)
		return count > 0, err
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func refreshCartTotals(db *sql.DB, cartID int64, pricePerRP float64) error {
	_, err := db.Exec(`
		UPDATE carts SET
			total_rp = (SELECT COALESCE(SUM(skin_price), 0) FROM cart_items WHERE cart_id = ?),
			total_price = (SELECT COALESCE(SUM(skin_price), 0) FROM cart_items WHERE cart_id = ?) * ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, cartID, cartID, pricePerRP, cartID)
	return err
}

func scanCart(row rowScanner) (*models.Cart, error) {
	var cart models.Cart
	err := row.Scan(&cart.ID, &cart.UserID, &cart.TicketChannelID, &cart.Status,
		&cart.TotalRP, &cart.TotalPrice, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}
