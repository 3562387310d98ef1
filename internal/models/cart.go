package models

import "time"

const (
	CartActive         = "active"
	CartPendingPayment = "pending_payment"
	CartCompleted      = "completed"
	CartCancelled      = "cancelled"
)

type Cart struct {
	ID              int64
	UserID          int64
	TicketChannelID string
	Status          string
	TotalRP         int
	TotalPrice      float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c *Cart) CanCheckout() bool {
	return c.Status == CartActive || c.Status == CartPendingPayment
}

type CartItem struct {
	ID            int64
	CartID        int64
	Name          string
	PriceRP       int
	ImageURL      string
	Category      string
	CatalogItemID int64
	AddedAt       time.Time
}
