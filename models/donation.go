package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recurrence values for Donation.
const (
	RecurrenceOneTime   = "one-time"
	RecurrenceRecurring = "recurring"
)

// Donation is a single monetary contribution event, linked to exactly one
// donor and at most one cause.
type Donation struct {
	DonationID string `gorm:"primaryKey;size:20" json:"donation_id"`
	CreatedAt  time.Time
	DonorID    string `gorm:"index;size:20;not null" json:"donor_id"`
	Donor      Donor  `gorm:"foreignKey:DonorID;references:DonorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	// Amount is non-negative, in currency units with two decimal places.
	Amount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Date   time.Time       `gorm:"type:date;not null" json:"date"`
	// TimeOfDay is the normalized 24-hour clock time "15:04".
	TimeOfDay   string  `gorm:"size:5;not null" json:"time_of_day"`
	PaymentType string  `gorm:"size:50" json:"payment_type,omitempty"`
	Recurrence  string  `gorm:"size:20;default:one-time" json:"recurrence"`
	CauseID     *string `gorm:"index;size:20" json:"cause_id,omitempty"`
	Cause       *Cause  `gorm:"foreignKey:CauseID;references:CauseID" json:"-"`
	TaxReceipt  bool    `gorm:"default:false" json:"tax_receipt"`
}
