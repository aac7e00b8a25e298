// Package entitystore is the GORM-backed persistence layer shared by the
// HTTP server and the batch ingest tooling.
package entitystore

import (
	"context"

	"gorm.io/gorm"

	"charityreports/models"
)

// Store implements ingest.EntityStore plus the donor/report queries the
// report pipeline needs, against the shared Postgres database.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// EnsureDonor creates the donor if absent. Existing rows keep their fields
// unchanged (first-write-wins).
func (s *Store) EnsureDonor(ctx context.Context, d *models.Donor) error {
	var out models.Donor
	return s.db.WithContext(ctx).
		Where(models.Donor{DonorID: d.DonorID}).
		Attrs(*d).
		FirstOrCreate(&out).Error
}

// EnsureCause creates the cause if absent, leaving existing rows unchanged.
func (s *Store) EnsureCause(ctx context.Context, c *models.Cause) error {
	var out models.Cause
	return s.db.WithContext(ctx).
		Where(models.Cause{CauseID: c.CauseID}).
		Attrs(*c).
		FirstOrCreate(&out).Error
}

func (s *Store) CreateDonation(ctx context.Context, dn *models.Donation) error {
	return s.db.WithContext(ctx).Create(dn).Error
}

func (s *Store) Donor(ctx context.Context, donorID string) (models.Donor, error) {
	var d models.Donor
	if err := s.db.WithContext(ctx).First(&d, "donor_id = ?", donorID).Error; err != nil {
		return models.Donor{}, err
	}
	return d, nil
}

// Donations returns a donor's donations in insertion order with causes
// preloaded.
func (s *Store) Donations(ctx context.Context, donorID string) ([]models.Donation, error) {
	var out []models.Donation
	err := s.db.WithContext(ctx).
		Preload("Cause").
		Where("donor_id = ?", donorID).
		Order("created_at, donation_id").
		Find(&out).Error
	return out, err
}

func (s *Store) CreateReport(ctx context.Context, r *models.Report) error {
	return s.db.WithContext(ctx).Create(r).Error
}

// LatestReports returns the most recent report row per donor for a set of
// donor ids in a single query.
func (s *Store) LatestReports(ctx context.Context, donorIDs []string) ([]models.Report, error) {
	if len(donorIDs) == 0 {
		return nil, nil
	}
	var out []models.Report
	err := s.db.WithContext(ctx).
		Select("DISTINCT ON (donor_id) *").
		Where("donor_id IN ?", donorIDs).
		Order("donor_id, date_generated DESC, id DESC").
		Find(&out).Error
	return out, err
}

// LatestSuccessfulReport resolves "the current report" for a donor: the most
// recent row with status SUCCESS.
func (s *Store) LatestSuccessfulReport(ctx context.Context, donorID string) (models.Report, error) {
	var r models.Report
	err := s.db.WithContext(ctx).
		Where("donor_id = ? AND status = ?", donorID, models.ReportSuccess).
		Order("date_generated DESC, id DESC").
		First(&r).Error
	return r, err
}
