// Package ingest parses uploaded donation spreadsheets and persists the
// entities they describe.
package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"charityreports/models"
)

// RequiredColumns must all be present in the file header; ingestion is
// rejected outright when any are missing.
var RequiredColumns = []string{
	"Donor ID",
	"Donation ID",
	"Donor First Name",
	"Donor Last Name",
	"Donor Email",
	"Donation Amount",
	"Date of Donation",
	"Time of Donation",
	"Cause ID",
	"Cause",
}

// Optional columns: Phone Number, Address, Description, Images,
// Payment Type, Recurrence Status, Tax Receipt Status.

const (
	dateLayout = "2006-01-02"
	timeLayout = "03:04 PM"
)

// EntityStore is the persistence surface the importer writes through.
// Ensure methods are upserts by primary key with first-write-wins semantics:
// an existing row's fields are left unchanged.
type EntityStore interface {
	EnsureDonor(ctx context.Context, d *models.Donor) error
	EnsureCause(ctx context.Context, c *models.Cause) error
	CreateDonation(ctx context.Context, dn *models.Donation) error
}

// Importer turns a tabular byte stream into Donor/Cause/Donation rows.
type Importer struct {
	Store EntityStore
}

// Import processes data row by row in file order and returns the distinct
// donor ids that received at least one donation, in first-seen order. A row
// that fails to parse aborts the remaining rows with a *FormatError; rows
// committed before it stay committed and no donor ids are returned.
func (imp *Importer) Import(ctx context.Context, data []byte, filename string) ([]string, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = decodeCSV(data)
	case ".xlsx":
		records, err = decodeXLSX(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &SchemaError{Missing: RequiredColumns}
	}

	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))] = i
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	cell := func(rec []string, col string) string {
		idx, ok := header[col]
		if !ok || idx >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[idx])
	}

	var order []string
	seen := make(map[string]bool)
	for n, rec := range records[1:] {
		row := n + 1

		donor := models.Donor{
			DonorID:   cell(rec, "Donor ID"),
			FirstName: cell(rec, "Donor First Name"),
			LastName:  cell(rec, "Donor Last Name"),
			Email:     cell(rec, "Donor Email"),
			Phone:     cell(rec, "Phone Number"),
			Address:   cell(rec, "Address"),
		}
		if donor.DonorID == "" {
			return nil, &FormatError{Row: row, Field: "Donor ID", Value: "", Err: fmt.Errorf("empty donor id")}
		}
		if err := imp.Store.EnsureDonor(ctx, &donor); err != nil {
			return nil, fmt.Errorf("row %d: upsert donor %s: %w", row, donor.DonorID, err)
		}

		var causeID *string
		if id := cell(rec, "Cause ID"); id != "" {
			cause := models.Cause{
				CauseID:     id,
				Name:        cell(rec, "Cause"),
				Description: cell(rec, "Description"),
				Images:      cell(rec, "Images"),
			}
			if err := imp.Store.EnsureCause(ctx, &cause); err != nil {
				return nil, fmt.Errorf("row %d: upsert cause %s: %w", row, id, err)
			}
			cid := id
			causeID = &cid
		}

		dn, ferr := buildDonation(rec, row, cell)
		if ferr != nil {
			return nil, ferr
		}
		dn.DonorID = donor.DonorID
		dn.CauseID = causeID
		if err := imp.Store.CreateDonation(ctx, dn); err != nil {
			return nil, fmt.Errorf("row %d: insert donation %s: %w", row, dn.DonationID, err)
		}

		if !seen[donor.DonorID] {
			seen[donor.DonorID] = true
			order = append(order, donor.DonorID)
		}
	}
	return order, nil
}

func buildDonation(rec []string, row int, cell func([]string, string) string) (*models.Donation, error) {
	id := cell(rec, "Donation ID")
	if id == "" {
		return nil, &FormatError{Row: row, Field: "Donation ID", Value: "", Err: fmt.Errorf("empty donation id")}
	}

	rawDate := cell(rec, "Date of Donation")
	date, err := time.Parse(dateLayout, rawDate)
	if err != nil {
		return nil, &FormatError{Row: row, Field: "Date of Donation", Value: rawDate, Err: err}
	}
	rawTime := cell(rec, "Time of Donation")
	tod, err := time.Parse(timeLayout, strings.ToUpper(rawTime))
	if err != nil {
		return nil, &FormatError{Row: row, Field: "Time of Donation", Value: rawTime, Err: err}
	}

	rawAmount := cell(rec, "Donation Amount")
	amount, err := decimal.NewFromString(strings.TrimPrefix(rawAmount, "$"))
	if err != nil {
		return nil, &FormatError{Row: row, Field: "Donation Amount", Value: rawAmount, Err: err}
	}
	if amount.IsNegative() {
		return nil, &FormatError{Row: row, Field: "Donation Amount", Value: rawAmount, Err: fmt.Errorf("amount must be non-negative")}
	}

	recurrence := strings.ToLower(cell(rec, "Recurrence Status"))
	if recurrence == "" {
		recurrence = models.RecurrenceOneTime
	}

	return &models.Donation{
		DonationID:  id,
		Amount:      amount,
		Date:        date,
		TimeOfDay:   tod.Format("15:04"),
		PaymentType: cell(rec, "Payment Type"),
		Recurrence:  recurrence,
		TaxReceipt:  parseBool(cell(rec, "Tax Receipt Status")),
	}, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}
