package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Activity is a proposition with mutually exclusive choices, each carrying a
// payout multiplier, open for betting until its deadline. Expiry is derived
// from the deadline and a caller-supplied time, never stored.
type Activity struct {
	ID            uint             `gorm:"primaryKey" json:"id"`
	Name          string           `gorm:"size:500;not null" json:"name"`
	Creator       string           `gorm:"size:255;not null;index" json:"creator"`
	TotalPool     decimal.Decimal  `gorm:"type:decimal(38,18);not null;default:0" json:"total_pool"`
	Deadline      time.Time        `gorm:"not null" json:"deadline"`
	Settled       bool             `gorm:"not null;default:false;index" json:"settled"`
	WinningChoice *int             `json:"winning_choice,omitempty"`
	Choices       []ActivityChoice `gorm:"foreignKey:ActivityID" json:"choices,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	SettledAt     *time.Time       `json:"settled_at,omitempty"`
}

// TableName specifies the table name for Activity model
func (Activity) TableName() string {
	return "activities"
}

// IsExpired reports whether the deadline has passed at the given time.
func (a *Activity) IsExpired(now time.Time) bool {
	return !now.Before(a.Deadline)
}

// ActivityChoice is one choice of an activity together with its current odds
// in basis points (150 = 1.5x payout). Odds here are quotes for future
// tickets only; issued tickets keep the odds they were bought at.
type ActivityChoice struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ActivityID uint   `gorm:"not null;uniqueIndex:idx_activity_choice_idx" json:"activity_id"`
	Idx        int    `gorm:"not null;uniqueIndex:idx_activity_choice_idx" json:"idx"`
	Label      string `gorm:"size:255;not null" json:"label"`
	Odds       int64  `gorm:"not null" json:"odds"`
}

// TableName specifies the table name for ActivityChoice model
func (ActivityChoice) TableName() string {
	return "activity_choices"
}
