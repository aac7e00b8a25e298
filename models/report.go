package models

import "time"

// Report status values.
const (
	ReportSuccess = "SUCCESS"
	ReportFailed  = "FAILED"
)

// Report records the outcome of one report-generation attempt for a donor.
// History is append-only; the current report for a donor is the most recent
// row with status SUCCESS.
type Report struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	DonorID string `gorm:"index;size:20;not null" json:"donor_id"`
	Donor   Donor  `gorm:"foreignKey:DonorID;references:DonorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	// FilePath is the artifact location in storage; empty when generation
	// failed before upload.
	FilePath      string    `gorm:"size:512" json:"file_path"`
	DateGenerated time.Time `gorm:"autoCreateTime" json:"date_generated"`
	Status        string    `gorm:"size:20;not null;index" json:"status"`
	ErrorLog      string    `gorm:"type:text" json:"error_log,omitempty"`
}
