package reports

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charityreports/models"
	"charityreports/pkg/ingest"
	"charityreports/pkg/jobs"
	"charityreports/pkg/render"
)

// memEntityStore backs the full pipeline in memory: the importer writes
// entities through it, the processor reads them back and appends reports.
type memEntityStore struct {
	mu        sync.Mutex
	donors    map[string]models.Donor
	causes    map[string]models.Cause
	donations map[string][]models.Donation
	reports   []models.Report
}

func newMemEntityStore() *memEntityStore {
	return &memEntityStore{
		donors:    make(map[string]models.Donor),
		causes:    make(map[string]models.Cause),
		donations: make(map[string][]models.Donation),
	}
}

func (s *memEntityStore) EnsureDonor(ctx context.Context, d *models.Donor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.donors[d.DonorID]; ok {
		*d = existing
		return nil
	}
	s.donors[d.DonorID] = *d
	return nil
}

func (s *memEntityStore) EnsureCause(ctx context.Context, c *models.Cause) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.causes[c.CauseID]; ok {
		*c = existing
		return nil
	}
	s.causes[c.CauseID] = *c
	return nil
}

func (s *memEntityStore) CreateDonation(ctx context.Context, dn *models.Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dn.CauseID != nil {
		if c, ok := s.causes[*dn.CauseID]; ok {
			dn.Cause = &c
		}
	}
	s.donations[dn.DonorID] = append(s.donations[dn.DonorID], *dn)
	return nil
}

func (s *memEntityStore) Donor(ctx context.Context, donorID string) (models.Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donors[donorID]
	if !ok {
		return models.Donor{}, fmt.Errorf("donor %s not found", donorID)
	}
	return d, nil
}

func (s *memEntityStore) Donations(ctx context.Context, donorID string) ([]models.Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Donation(nil), s.donations[donorID]...), nil
}

func (s *memEntityStore) CreateReport(ctx context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, *r)
	return nil
}

func (s *memEntityStore) reportRows() []models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Report(nil), s.reports...)
}

const pipelineCSV = `Donor ID,Donation ID,Donor First Name,Donor Last Name,Donor Email,Donation Amount,Date of Donation,Time of Donation,Cause ID,Cause
D1,DN1,Alice,Smith,alice@example.org,$50.00,2024-01-15,02:30 PM,C1,Clean Water
D1,DN2,Alice,Smith,alice@example.org,25.00,2024-02-01,09:00 AM,C2,Education
`

// TestIngestToPublishedReport drives the whole flow: spreadsheet in, queue
// job through the real renderer, PDF out.
func TestIngestToPublishedReport(t *testing.T) {
	ctx := context.Background()
	store := newMemEntityStore()

	imp := &ingest.Importer{Store: store}
	donorIDs, err := imp.Import(ctx, []byte(pipelineCSV), "donations.csv")
	require.NoError(t, err)
	require.Equal(t, []string{"D1"}, donorIDs)

	artifacts := newMemStorage()
	renderer := &render.Renderer{}
	proc := &Processor{Donors: store, Reports: store, Artifacts: artifacts, Render: renderer.Render}

	queue := jobs.NewQueue(jobs.NewMemoryStore(), proc.Process, 2, 8)
	queue.Start(ctx)

	jobID, err := queue.Enqueue(ctx, donorIDs[0])
	require.NoError(t, err)
	queue.Close()

	job, err := queue.Poll(ctx, jobID)
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusSuccess, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "Report for D1 generated successfully.", job.Result)
	assert.Empty(t, job.Error)

	rows := store.reportRows()
	require.Len(t, rows, 1)
	assert.Equal(t, models.ReportSuccess, rows[0].Status)
	assert.Equal(t, "charity_reports/D1_alice_smith_report.pdf", rows[0].FilePath)

	data, ok := artifacts.objects[rows[0].FilePath]
	require.True(t, ok, "PDF must be published under the report path")
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "artifact must be a PDF document")

	// Parsed donation fields survive the round trip the renderer consumes.
	donations, err := store.Donations(ctx, "D1")
	require.NoError(t, err)
	require.Len(t, donations, 2)
	assert.Equal(t, "14:30", donations[0].TimeOfDay)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), donations[1].Date)
	require.NotNil(t, donations[1].Cause)
	assert.Equal(t, "Education", donations[1].Cause.Name)
}
