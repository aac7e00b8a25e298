package reports

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charityreports/models"
	"charityreports/pkg/storage"
)

type fakeSource struct {
	donors    map[string]models.Donor
	donations map[string][]models.Donation
}

func (f *fakeSource) Donor(ctx context.Context, donorID string) (models.Donor, error) {
	d, ok := f.donors[donorID]
	if !ok {
		return models.Donor{}, errors.New("record not found")
	}
	return d, nil
}

func (f *fakeSource) Donations(ctx context.Context, donorID string) ([]models.Donation, error) {
	return f.donations[donorID], nil
}

type fakeSink struct {
	reports []models.Report
}

func (f *fakeSink) CreateReport(ctx context.Context, r *models.Report) error {
	f.reports = append(f.reports, *r)
	return nil
}

// memStorage is an in-memory object store with an optional forced save
// failure.
type memStorage struct {
	objects  map[string][]byte
	failSave bool
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) Save(ctx context.Context, path string, data []byte) error {
	if m.failSave {
		return &storage.UploadError{Path: path, Err: errors.New("bucket unavailable")}
	}
	m.objects[path] = data
	return nil
}

func (m *memStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.objects[path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStorage) Exists(ctx context.Context, path string) (bool, error) {
	_, ok := m.objects[path]
	return ok, nil
}

func (m *memStorage) Delete(ctx context.Context, path string) error {
	delete(m.objects, path)
	return nil
}

func alice() models.Donor {
	return models.Donor{DonorID: "D1", FirstName: "Alice", LastName: "Smith"}
}

func stubRender(d models.Donor, ds []models.Donation) ([]byte, error) {
	return []byte("%PDF-1.4 stub"), nil
}

func newProcessor(src *fakeSource, sink *fakeSink, store *memStorage) *Processor {
	return &Processor{Donors: src, Reports: sink, Artifacts: store, Render: stubRender}
}

func TestProcessSuccess(t *testing.T) {
	src := &fakeSource{donors: map[string]models.Donor{"D1": alice()}}
	sink := &fakeSink{}
	store := newMemStorage()
	p := newProcessor(src, sink, store)

	var progress []int
	result, err := p.Process(context.Background(), "D1", func(n int) { progress = append(progress, n) })
	require.NoError(t, err)
	assert.Equal(t, "Report for D1 generated successfully.", result)
	assert.Equal(t, []int{50, 90}, progress)

	require.Len(t, sink.reports, 1)
	report := sink.reports[0]
	assert.Equal(t, models.ReportSuccess, report.Status)
	assert.Equal(t, ObjectName(alice()), report.FilePath)
	assert.Empty(t, report.ErrorLog)

	data, ok := store.objects[report.FilePath]
	require.True(t, ok, "artifact must be uploaded under the report path")
	assert.NotEmpty(t, data)
}

func TestUploadFailureRecordsFailedReport(t *testing.T) {
	src := &fakeSource{donors: map[string]models.Donor{"D1": alice()}}
	sink := &fakeSink{}
	store := newMemStorage()
	store.failSave = true
	p := newProcessor(src, sink, store)

	_, err := p.Process(context.Background(), "D1", func(int) {})
	require.Error(t, err)
	var uploadErr *storage.UploadError
	assert.ErrorAs(t, err, &uploadErr)

	// Exactly one FAILED row with error detail, zero successful rows.
	require.Len(t, sink.reports, 1)
	report := sink.reports[0]
	assert.Equal(t, models.ReportFailed, report.Status)
	assert.NotEmpty(t, report.ErrorLog)
	assert.Empty(t, report.FilePath)
}

func TestRenderFailureRecordsFailedReport(t *testing.T) {
	src := &fakeSource{donors: map[string]models.Donor{"D1": alice()}}
	sink := &fakeSink{}
	p := newProcessor(src, sink, newMemStorage())
	p.Render = func(models.Donor, []models.Donation) ([]byte, error) {
		return nil, errors.New("font table corrupt")
	}

	_, err := p.Process(context.Background(), "D1", func(int) {})
	require.Error(t, err)
	require.Len(t, sink.reports, 1)
	assert.Equal(t, models.ReportFailed, sink.reports[0].Status)
	assert.Contains(t, sink.reports[0].ErrorLog, "font table corrupt")
}

func TestMissingDonorWritesNoReportRow(t *testing.T) {
	src := &fakeSource{donors: map[string]models.Donor{}}
	sink := &fakeSink{}
	p := newProcessor(src, sink, newMemStorage())

	_, err := p.Process(context.Background(), "ghost", func(int) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
	assert.Empty(t, sink.reports)
}

func TestObjectNameSanitization(t *testing.T) {
	donor := models.Donor{DonorID: "D42", FirstName: "Mary Jane", LastName: "O'Brien!"}
	assert.Equal(t, "charity_reports/D42_maryjane_obrien_report.pdf", ObjectName(donor))
}
