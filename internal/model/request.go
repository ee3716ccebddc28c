package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FineRecord is the fine accrued by an issued or returned request.
type FineRecord struct {
	DaysOverdue      int             `gorm:"not null;default:0" json:"daysOverdue"`
	AmountDue        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amountDue"`
	IsPaid           bool            `gorm:"not null;default:false" json:"isPaid"`
	LastCalculatedAt *time.Time      `json:"lastCalculatedAt"`
}

// CirculationRequest is one member's claim on one copy of a title.
type CirculationRequest struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	TitleID     string       `gorm:"size:36;not null;index:idx_request_member_title,priority:2" json:"titleId"`
	MemberID    string       `gorm:"size:36;not null;index:idx_request_member_title,priority:1" json:"memberId"`
	State       RequestState `gorm:"size:16;not null;index" json:"state"`
	RequestedAt time.Time    `gorm:"not null;index" json:"requestedAt"`
	IssuedAt    *time.Time   `json:"issuedAt,omitempty"`
	IssuedBy    string       `gorm:"size:36" json:"issuedBy,omitempty"`
	DueAt       *time.Time   `gorm:"index" json:"dueAt,omitempty"`
	ReturnedAt  *time.Time   `json:"returnedAt,omitempty"`
	ClosedAt    *time.Time   `json:"closedAt,omitempty"`
	Fine        FineRecord   `gorm:"embedded;embeddedPrefix:fine_" json:"fine"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updatedAt"`
}
