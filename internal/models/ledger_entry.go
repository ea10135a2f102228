package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LedgerEntryType string

const (
	EntryTypeClaim     LedgerEntryType = "CLAIM"
	EntryTypeBetPlaced LedgerEntryType = "BET_PLACED"
	EntryTypeOrderFill LedgerEntryType = "ORDER_FILL"
	EntryTypePayout    LedgerEntryType = "PAYOUT"
)

// LedgerEntry is one line of the append-only balance journal. Transfers write
// a negative entry for the debited account and a positive one for the
// credited account; mints (claim bonus, settlement payout) write a single
// positive entry.
type LedgerEntry struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Account   string          `gorm:"size:255;not null;index" json:"account"`
	Type      LedgerEntryType `gorm:"size:50;not null;index" json:"type"`
	Amount    decimal.Decimal `gorm:"type:decimal(38,18);not null" json:"amount"`
	Reference string          `gorm:"size:255" json:"reference"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for LedgerEntry model
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}
