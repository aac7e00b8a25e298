// Package reports executes one report-generation attempt per job: load the
// donor snapshot, render the document, publish it, record the outcome.
package reports

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"charityreports/models"
	"charityreports/pkg/storage"
)

var sanitizeRE = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// DonorSource reads donor snapshots at job start.
type DonorSource interface {
	Donor(ctx context.Context, donorID string) (models.Donor, error)
	// Donations returns the donor's donations in insertion order with the
	// Cause association populated.
	Donations(ctx context.Context, donorID string) ([]models.Donation, error)
}

// ReportSink appends Report rows. Rows are never mutated in place.
type ReportSink interface {
	CreateReport(ctx context.Context, r *models.Report) error
}

// Processor is the job handler for report generation.
type Processor struct {
	Donors    DonorSource
	Reports   ReportSink
	Artifacts storage.Storage
	Render    func(models.Donor, []models.Donation) ([]byte, error)
}

// Process runs the full pipeline for one donor. It satisfies jobs.Handler.
// Once the donor is loaded, every failure leaves exactly one FAILED Report
// row carrying the error detail; success leaves exactly one SUCCESS row
// holding the artifact path.
func (p *Processor) Process(ctx context.Context, donorID string, progress func(int)) (string, error) {
	donor, err := p.Donors.Donor(ctx, donorID)
	if err != nil {
		return "", fmt.Errorf("donor %s: %w", donorID, err)
	}
	donations, err := p.Donors.Donations(ctx, donorID)
	if err != nil {
		return "", p.fail(ctx, donor, fmt.Errorf("load donations for %s: %w", donorID, err))
	}

	pdf, err := p.Render(donor, donations)
	if err != nil {
		return "", p.fail(ctx, donor, fmt.Errorf("render report for %s: %w", donorID, err))
	}
	progress(50)

	path := ObjectName(donor)
	if err := p.Artifacts.Save(ctx, path, pdf); err != nil {
		return "", p.fail(ctx, donor, err)
	}
	progress(90)

	report := models.Report{DonorID: donor.DonorID, FilePath: path, Status: models.ReportSuccess}
	if err := p.Reports.CreateReport(ctx, &report); err != nil {
		return "", fmt.Errorf("persist report row for %s: %w", donorID, err)
	}
	return fmt.Sprintf("Report for %s generated successfully.", donor.DonorID), nil
}

// fail appends a FAILED Report row for a donor that was successfully loaded
// and passes the original error through.
func (p *Processor) fail(ctx context.Context, donor models.Donor, cause error) error {
	r := models.Report{DonorID: donor.DonorID, Status: models.ReportFailed, ErrorLog: cause.Error()}
	if err := p.Reports.CreateReport(ctx, &r); err != nil {
		log.Printf("could not record failed report for donor %s: %v", donor.DonorID, err)
	}
	return cause
}

// ObjectName derives the deterministic artifact path for a donor's report:
// the donor id plus the sanitized, lower-cased name.
func ObjectName(donor models.Donor) string {
	first := sanitizeRE.ReplaceAllString(strings.ToLower(donor.FirstName), "")
	last := sanitizeRE.ReplaceAllString(strings.ToLower(donor.LastName), "")
	return fmt.Sprintf("charity_reports/%s_%s_%s_report.pdf", donor.DonorID, first, last)
}
