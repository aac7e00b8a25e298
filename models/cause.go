package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cause is a fundraising category that donations may be attributed to.
// Its lifecycle is independent from donors.
type Cause struct {
	CauseID     string `gorm:"primaryKey;size:20" json:"cause_id"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	// Aggregate stats maintained outside this subsystem.
	AmountRaised *decimal.Decimal `gorm:"type:decimal(10,2)" json:"amount_raised,omitempty"`
	PeopleHelped *int             `json:"people_helped,omitempty"`
	// Images holds a JSON array of image references.
	Images string `gorm:"type:text" json:"images,omitempty"`
}
