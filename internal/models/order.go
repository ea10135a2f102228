package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a secondary-market resale listing for a ticket, priced
// independently of the ticket's original stake. At most one active order may
// exist per ticket; the ticket's Listed flag holds that lock. ActivityID is
// denormalized from the ticket so the per-activity book is one query.
type Order struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	TicketID   uint            `gorm:"not null;index" json:"ticket_id"`
	ActivityID uint            `gorm:"not null;index" json:"activity_id"`
	Seller     string          `gorm:"size:255;not null;index" json:"seller"`
	Price      decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"price"`
	Active     bool            `gorm:"not null;default:true;index" json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Order model
func (Order) TableName() string {
	return "orders"
}
