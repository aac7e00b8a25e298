package models

import (
	"strings"
	"time"
)

// Donor is an individual who has made one or more donations, keyed by a
// stable external identifier. Rows are created on first occurrence during
// ingestion and existing fields are never overwritten (first-write-wins).
type Donor struct {
	DonorID   string `gorm:"primaryKey;size:20" json:"donor_id"`
	CreatedAt time.Time
	UpdatedAt time.Time
	FirstName string `gorm:"size:50;not null" json:"first_name"`
	LastName  string `gorm:"size:50;not null" json:"last_name"`
	Email     string `gorm:"size:255" json:"email"`
	Phone     string `gorm:"size:15" json:"phone,omitempty"`
	Address   string `gorm:"size:512" json:"address,omitempty"`

	Donations []Donation `gorm:"foreignKey:DonorID;references:DonorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Reports   []Report   `gorm:"foreignKey:DonorID;references:DonorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

func (d Donor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}
