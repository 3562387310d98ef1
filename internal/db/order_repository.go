package db

import (
	"database/sql"
	"fmt"

	"github.com/pawstore/storebot/internal/models"
)

type OrderRepository struct {
	queue *DBQueue
}

func NewOrderRepository(queue *DBQueue) *OrderRepository {
	return &OrderRepository{queue: queue}
}

func (r *OrderRepository) Create(order *models.Order) (int64, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		res, err := db.Exec(`
			INSERT INTO orders (reference, cart_id, user_id, friendship_id, status, total_rp, total_price)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, order.Reference, order.CartID, order.UserID, order.FriendshipID,
			order.Status, order.TotalRP, order.TotalPrice)
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

func (r *OrderRepository) GetByID(id int64) (*models.Order, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(orderSelect+` WHERE o.id = ?`, id)
		return scanOrder(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Order), nil
}

// FindActiveByChannel resolves the order currently waiting in a ticket channel,
// joined through the cart that owns the channel.
func (r *OrderRepository) FindActiveByChannel(ticketChannelID, status string) (*models.Order, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		row := db.QueryRow(orderSelect+`
			JOIN carts c ON c.id = o.cart_id
			WHERE c.ticket_channel_id = ? AND o.status = ?
			ORDER BY o.created_at DESC LIMIT 1
		`, ticketChannelID, status)
		return scanOrder(row)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Order), nil
}

func (r *OrderRepository) AttachPaymentProof(id int64, proofURL string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			UPDATE orders SET payment_proof_url = ?, status = ? WHERE id = ?
		`, proofURL, models.OrderPendingManualApproval, id)
		return nil, err
	})
	return err
}

func (r *OrderRepository) Approve(id int64, approvedBy string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			UPDATE orders SET status = ?, approved_by = ?, completed_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, models.OrderApproved, approvedBy, id)
		return nil, err
	})
	return err
}

func (r *OrderRepository) Reject(id int64, rejectedBy string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			UPDATE orders SET status = ?, approved_by = ? WHERE id = ?
		`, models.OrderRejected, rejectedBy, id)
		return nil, err
	})
	return err
}

// Revenue sums approved order totals; when days > 0 only orders completed in
// the last N days count.
func (r *OrderRepository) Revenue(days int) (float64, int, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		query := `
			SELECT COALESCE(SUM(total_price), 0), COUNT(*)
			FROM orders WHERE status = ?
		`
		args := []interface{}{models.OrderApproved}
		if days > 0 {
			query += ` AND completed_at >= datetime('now', ?)`
			args = append(args, formatDaysAgo(days))
		}

		var total float64
		var count int
		err := db.QueryRow(query, args...).Scan(&total, &count)
		if err != nil {
			return nil, err
		}
		return []interface{}{total, count}, nil
	})
	if err != nil {
		return 0, 0, err
	}
	pair := result.([]interface{})
	return pair[0].(float64), pair[1].(int), nil
}

const orderSelect = `
	SELECT o.id, o.reference, o.cart_id, o.user_id, o.friendship_id, o.status,
	       o.payment_proof_url, o.total_rp, o.total_price, o.approved_by, o.completed_at, o.created_at
	FROM orders o
`

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var proofURL, approvedBy sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(&order.ID, &order.Reference, &order.CartID, &order.UserID,
		&order.FriendshipID, &order.Status, &proofURL, &order.TotalRP,
		&order.TotalPrice, &approvedBy, &completedAt, &order.CreatedAt)
	if err != nil {
		return nil, err
	}
	order.PaymentProofURL = proofURL.String
	order.ApprovedBy = approvedBy.String
	if completedAt.Valid {
		order.CompletedAt = &completedAt.Time
	}
	return &order, nil
}

func formatDaysAgo(days int) string {
	return fmt.Sprintf("-%d days", days)
}
