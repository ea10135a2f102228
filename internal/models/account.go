package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PoolAccount is the reserved ledger address that holds staked funds while
// their activities are open.
const PoolAccount = "activity-pool"

// Account represents a fungible credit balance keyed by an opaque,
// address-like identifier. Accounts are created lazily on first reference
// and never destroyed.
type Account struct {
	Address    string          `gorm:"primaryKey;size:255" json:"address"`
	Balance    decimal.Decimal `gorm:"type:decimal(38,18);not null;default:0" json:"balance"`
	HasClaimed bool            `gorm:"not null;default:false" json:"has_claimed"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Account model
func (Account) TableName() string {
	return "accounts"
}
