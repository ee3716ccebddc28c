package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActivityEntry is an append-only audit record of one state transition.
type ActivityEntry struct {
	ID          string              `gorm:"primaryKey;size:36" json:"id"`
	Type        ActivityType        `gorm:"size:24;not null" json:"type"`
	RequestID   string              `gorm:"size:36;not null;index" json:"requestId"`
	TitleID     string              `gorm:"size:36;not null;index" json:"titleId"`
	MemberID    string              `gorm:"size:36;not null;index" json:"memberId"`
	LibrarianID string              `gorm:"size:36" json:"librarianId,omitempty"`
	Timestamp   time.Time           `gorm:"not null;index" json:"timestamp"`
	Notes       string              `gorm:"size:512" json:"notes,omitempty"`
	Dues        decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"dues"`
}

// TableName keeps the audit table name stable.
func (ActivityEntry) TableName() string { return "activity_log" }
