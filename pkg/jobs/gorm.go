package jobs

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"charityreports/models"
)

// GormStore persists job state in the report_jobs table so status polls keep
// working across process restarts.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Put(ctx context.Context, j *Job) error {
	row := models.ReportJob{
		ID:       j.ID,
		DonorID:  j.DonorID,
		Status:   string(j.Status),
		Progress: j.Progress,
		Result:   j.Result,
		Error:    j.Error,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *GormStore) Get(ctx context.Context, id string) (*Job, error) {
	var row models.ReportJob
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Job{
		ID:       row.ID,
		DonorID:  row.DonorID,
		Status:   Status(row.Status),
		Progress: row.Progress,
		Result:   row.Result,
		Error:    row.Error,
	}, nil
}
