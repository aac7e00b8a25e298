package models

import "time"

// ReportJob is the persisted state-machine record for one asynchronous
// report-generation job, keyed by an opaque identifier.
type ReportJob struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DonorID   string `gorm:"index;size:20;not null" json:"donor_id"`
	Status    string `gorm:"size:16;not null;index" json:"status"`
	Progress  int    `gorm:"default:0" json:"progress"`
	Result    string `gorm:"size:512" json:"result,omitempty"`
	Error     string `gorm:"type:text" json:"error,omitempty"`
}
