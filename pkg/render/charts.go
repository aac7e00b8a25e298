package render

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"charityreports/models"
)

// Uncategorized is the chart bucket for donations without a cause.
const Uncategorized = "Uncategorized"

// CauseTotals sums donation amounts per cause name. The returned slices are
// parallel; order follows the first appearance of each cause in the input so
// chart legends are stable.
func CauseTotals(donations []models.Donation) ([]string, []decimal.Decimal) {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, d := range donations {
		name := causeName(d)
		if _, ok := totals[name]; !ok {
			order = append(order, name)
		}
		totals[name] = totals[name].Add(d.Amount)
	}
	amounts := make([]decimal.Decimal, len(order))
	for i, name := range order {
		amounts[i] = totals[name]
	}
	return order, amounts
}

func causeName(d models.Donation) string {
	if d.Cause != nil && d.Cause.Name != "" {
		return d.Cause.Name
	}
	return Uncategorized
}

// pieChartPNG renders the proportion-by-cause chart. Returns nil bytes when
// there is nothing to plot.
func pieChartPNG(donations []models.Donation) ([]byte, error) {
	names, totals := CauseTotals(donations)
	values := make([]chart.Value, 0, len(names))
	for i, name := range names {
		v := totals[i].InexactFloat64()
		if v <= 0 {
			continue
		}
		values = append(values, chart.Value{Value: v, Label: name})
	}
	if len(values) == 0 {
		return nil, nil
	}
	pie := chart.PieChart{Width: 600, Height: 400, Values: values}
	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render cause chart: %w", err)
	}
	return buf.Bytes(), nil
}

// barChartPNG renders amounts over time, sorted ascending by donation date
// for this chart only.
func barChartPNG(donations []models.Donation) ([]byte, error) {
	if len(donations) == 0 {
		return nil, nil
	}
	sorted := make([]models.Donation, len(donations))
	copy(sorted, donations)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	bars := make([]chart.Value, 0, len(sorted))
	maxAmount := 0.0
	for _, d := range sorted {
		v := d.Amount.InexactFloat64()
		if v > maxAmount {
			maxAmount = v
		}
		bars = append(bars, chart.Value{
			Value: v,
			Label: d.Date.Format("2006-01-02"),
		})
	}
	if maxAmount <= 0 {
		return nil, nil
	}
	// go-chart rejects a zero-height value range, which the implicit range
	// becomes whenever every bar has the same amount. Pin the axis instead.
	bc := chart.BarChart{
		Title:    "Donations Over Time",
		Width:    600,
		Height:   400,
		BarWidth: 40,
		Bars:     bars,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxAmount * 1.1},
		},
	}
	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render trend chart: %w", err)
	}
	return buf.Bytes(), nil
}
