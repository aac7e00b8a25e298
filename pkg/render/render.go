// Package render produces the per-donor PDF impact report: cover page,
// donation summary table, trend charts, closing page.
package render

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/go-pdf/fpdf"

	"charityreports/models"
)

// A4 in mm.
const (
	pageWidth  = 210.0
	pageHeight = 297.0
	marginX    = 25.0
)

// Renderer builds impact-report documents. The zero value is usable; Logo
// optionally names an image file drawn on the cover page.
type Renderer struct {
	Logo string
}

// Render produces the report document for a donor. It is deterministic for
// identical inputs and never fails on an empty donation list; table rows
// keep the order they are given in.
func (r *Renderer) Render(donor models.Donor, donations []models.Donation) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Charity Impact Report", false)
	pdf.SetAutoPageBreak(false, 0)

	r.coverPage(pdf, donor)
	summaryPages(pdf, donations)
	if err := trendsPage(pdf, donations); err != nil {
		return nil, err
	}
	closingPage(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) coverPage(pdf *fpdf.Fpdf, donor models.Donor) {
	pdf.AddPage()

	pdf.SetFillColor(52, 152, 219)
	pdf.Rect(0, 0, pageWidth, 42, "F")
	pdf.SetFont("Helvetica", "B", 30)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(0, 14)
	pdf.CellFormat(pageWidth, 14, "Charity Impact Report", "", 1, "C", false, 0, "")

	r.drawLogo(pdf)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetXY(0, 58)
	pdf.CellFormat(pageWidth, 8, "Prepared for "+donor.FullName(), "", 1, "C", false, 0, "")
	pdf.SetDrawColor(120, 120, 120)
	pdf.Line(marginX, 72, pageWidth-marginX, 72)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetXY(marginX, 80)
	pdf.CellFormat(0, 6, fmt.Sprintf("Dear %s,", donor.FirstName), "", 1, "L", false, 0, "")
	pdf.SetX(marginX)
	pdf.CellFormat(0, 6, "Thank you for your generous contributions. Below is a summary of your donations.", "", 1, "L", false, 0, "")
}

// drawLogo places the configured logo near the banner, scaled to fit.
// Missing or unreadable logos are skipped silently.
func (r *Renderer) drawLogo(pdf *fpdf.Fpdf) {
	if r.Logo == "" {
		return
	}
	img, err := imaging.Open(r.Logo)
	if err != nil {
		return
	}
	fitted := imaging.Fit(img, 300, 300, imaging.Lanczos)
	var buf bytes.Buffer
	if err := png.Encode(&buf, fitted); err != nil {
		return
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("logo", opts, &buf)
	pdf.ImageOptions("logo", pageWidth-marginX-30, 46, 30, 0, false, opts, 0, "")
}

var summaryWidths = [4]float64{40, 70, 25, 25}

func summaryHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(52, 152, 219)
	pdf.SetX(marginX)
	for i, title := range [4]string{"Donation ID", "Cause", "Amount", "Date"} {
		pdf.CellFormat(summaryWidths[i], 8, title, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 12)
}

func summaryPages(pdf *fpdf.Fpdf, donations []models.Donation) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(0, 28)
	pdf.CellFormat(pageWidth, 10, "Donation Summary", "", 1, "C", false, 0, "")
	pdf.SetY(46)
	summaryHeader(pdf)

	if len(donations) == 0 {
		pdf.SetFont("Helvetica", "I", 12)
		pdf.SetX(marginX)
		pdf.CellFormat(0, 8, "No donations recorded.", "", 1, "L", false, 0, "")
		return
	}
	for _, d := range donations {
		if pdf.GetY() > pageHeight-25 {
			pdf.AddPage()
			pdf.SetY(28)
			summaryHeader(pdf)
		}
		pdf.SetX(marginX)
		pdf.CellFormat(summaryWidths[0], 8, d.DonationID, "", 0, "L", false, 0, "")
		pdf.CellFormat(summaryWidths[1], 8, causeName(d), "", 0, "L", false, 0, "")
		pdf.CellFormat(summaryWidths[2], 8, "$"+d.Amount.StringFixed(2), "", 0, "L", false, 0, "")
		pdf.CellFormat(summaryWidths[3], 8, d.Date.Format("2006-01-02"), "", 1, "L", false, 0, "")
	}
}

func trendsPage(pdf *fpdf.Fpdf, donations []models.Donation) error {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(0, 28)
	pdf.CellFormat(pageWidth, 10, "Donation Summary and Trends", "", 1, "C", false, 0, "")

	pie, err := pieChartPNG(donations)
	if err != nil {
		return err
	}
	bar, err := barChartPNG(donations)
	if err != nil {
		return err
	}
	if pie == nil && bar == nil {
		pdf.SetFont("Helvetica", "I", 12)
		pdf.SetXY(marginX, 50)
		pdf.CellFormat(0, 8, "No donation data available for charts.", "", 1, "L", false, 0, "")
		return nil
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	y := 44.0
	if pie != nil {
		pdf.RegisterImageOptionsReader("cause-pie", opts, bytes.NewReader(pie))
		pdf.ImageOptions("cause-pie", marginX, y, 160, 0, false, opts, 0, "")
		y += 118
	}
	if bar != nil {
		pdf.RegisterImageOptionsReader("amount-bar", opts, bytes.NewReader(bar))
		pdf.ImageOptions("amount-bar", marginX, y, 160, 0, false, opts, 0, "")
	}
	return nil
}

func closingPage(pdf *fpdf.Fpdf) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(46, 204, 113)
	pdf.SetXY(0, 38)
	pdf.CellFormat(pageWidth, 12, "Thank You!", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(0, 54)
	pdf.CellFormat(pageWidth, 8, "We appreciate your continued support.", "", 1, "C", false, 0, "")
	pdf.SetX(0)
	pdf.CellFormat(pageWidth, 8, "Together, we can achieve great things.", "", 1, "C", false, 0, "")
}
