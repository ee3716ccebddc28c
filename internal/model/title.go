package model

import (
	"time"

	"library-circulation-backend/internal/ledger"
)

// Title is a catalogued book together with its copy counts.
type Title struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	ISBN           string     `gorm:"size:20;index" json:"isbn"`
	Name           string     `gorm:"column:title;size:256;not null" json:"title"`
	Author         string     `gorm:"size:256" json:"author"`
	Genre          string     `gorm:"size:64" json:"genre"`
	TotalCount     int        `gorm:"not null" json:"totalCount"`
	AvailableCount int        `gorm:"not null" json:"availableCount"`
	ReservedCount  int        `gorm:"not null" json:"reservedCount"`
	IssuedCount    int        `gorm:"not null" json:"issuedCount"`
	ArchivedAt     *time.Time `gorm:"index" json:"archivedAt,omitempty"`
	CreatedAt      time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time  `gorm:"not null" json:"updatedAt"`
}

// Counts returns the inventory part of the title.
func (t *Title) Counts() ledger.Counts {
	return ledger.Counts{
		Total:     t.TotalCount,
		Available: t.AvailableCount,
		Reserved:  t.ReservedCount,
		Issued:    t.IssuedCount,
	}
}

// SetCounts overwrites the inventory part of the title.
func (t *Title) SetCounts(c ledger.Counts) {
	t.TotalCount = c.Total
	t.AvailableCount = c.Available
	t.ReservedCount = c.Reserved
	t.IssuedCount = c.Issued
}

// Archived reports whether the title has been withdrawn from circulation.
func (t *Title) Archived() bool {
	return t.ArchivedAt != nil
}
