package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket is a non-fungible receipt for one stake on one choice of one
// activity. LockedOdds captures the choice's odds at purchase time and never
// changes afterwards, regardless of later odds updates on the activity.
// Tickets are never destroyed; after settlement they remain as historical
// receipts with Redeemed marking paid-out winners.
type Ticket struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Owner      string          `gorm:"size:255;not null;index" json:"owner"`
	ActivityID uint            `gorm:"not null;index" json:"activity_id"`
	Choice     int             `gorm:"not null" json:"choice"`
	Price      decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"price"`
	LockedOdds int64           `gorm:"not null" json:"locked_odds"`
	Listed     bool            `gorm:"not null;default:false" json:"listed"`
	Redeemed   bool            `gorm:"not null;default:false" json:"redeemed"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Ticket model
func (Ticket) TableName() string {
	return "tickets"
}

// Payout returns the amount the ticket pays if its choice wins:
// price * lockedOdds / 100.
func (t *Ticket) Payout() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.LockedOdds)).Div(decimal.NewFromInt(100))
}
