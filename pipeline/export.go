package pipeline

import (
	"math"

	"github.com/shopspring/decimal"

	"stockout-app/models"
)

// Format sets the rounding of derived columns on export.
type Format struct {
	RiskDecimals  int32
	ValueDecimals int32
}

// DefaultFormat rounds risk to 3 places and money and units to 2.
var DefaultFormat = Format{RiskDecimals: 3, ValueDecimals: 2}

// ResultTable renders r as a flat table: the original columns followed by
// the derived ones.
func ResultTable(r *models.Result, f Format) *models.Table {
	cols := make([]string, 0, len(r.Columns)+len(models.DerivedColumns))
	cols = append(cols, r.Columns...)
	cols = append(cols, models.DerivedColumns...)

	rows := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		vals := make([]string, 0, len(cols))
		vals = append(vals, row.Values...)
		vals = append(vals,
			FormatFloat(row.StockoutRisk, f.RiskDecimals),
			FormatFloat(row.Demand14d, f.ValueDecimals),
			FormatFloat(row.UnitsAtRisk, f.ValueDecimals),
			FormatFloat(row.ProfitPerUnit, f.ValueDecimals),
			FormatFloat(row.EconomicLoss, f.ValueDecimals),
		)
		rows[i] = vals
	}
	return &models.Table{Columns: cols, Rows: rows}
}

// FormatFloat rounds v half away from zero to places decimals. Missing
// values render as an empty cell.
func FormatFloat(v float64, places int32) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

// ExportCSV filters, sorts and serializes a result in one step.
func ExportCSV(r *models.Result, filters Filters, top int, f Format) ([]byte, error) {
	view := TopN(SortByRiskDescending(Filter(r, filters)), top)
	return ToCSV(ResultTable(view, f))
}
