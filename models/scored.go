package models

import "time"

// Derived column names appended to every scored table.
const (
	ColStockoutRisk  = "stockout_risk"
	ColDemand14d     = "demand_14d"
	ColUnitsAtRisk   = "units_at_risk"
	ColProfitPerUnit = "profit_per_unit"
	ColEconomicLoss  = "economic_loss"
)

// DerivedColumns lists the appended columns in export order.
var DerivedColumns = []string{
	ColStockoutRisk,
	ColDemand14d,
	ColUnitsAtRisk,
	ColProfitPerUnit,
	ColEconomicLoss,
}

// LossFields are the economic figures derived from one scored row.
type LossFields struct {
	Demand14d     float64 `json:"demand_14d"`
	UnitsAtRisk   float64 `json:"units_at_risk"`
	ProfitPerUnit float64 `json:"profit_per_unit"`
	EconomicLoss  float64 `json:"economic_loss"`
}

// ScoredRow is one input row plus its stockout risk and loss figures.
// Index is the row's position in the uploaded file.
type ScoredRow struct {
	Index        int      `json:"index"`
	Values       []string `json:"values"`
	StockoutRisk float64  `json:"stockout_risk"`
	LossFields
}

// Result is the loss-augmented table for one upload.
type Result struct {
	RunID        string      `json:"run_id"`
	FileName     string      `json:"file_name"`
	Columns      []string    `json:"columns"`
	Rows         []ScoredRow `json:"rows"`
	ModelName    string      `json:"model_name"`
	ModelVersion string      `json:"model_version"`
	ScoredAt     time.Time   `json:"scored_at"`
}

// Index returns the position of an original column, or -1.
func (r *Result) Index(col string) int {
	for i, c := range r.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Value returns an original cell of row, "" when the column is absent.
func (r *Result) Value(row ScoredRow, col string) string {
	i := r.Index(col)
	if i < 0 || i >= len(row.Values) {
		return ""
	}
	return row.Values[i]
}

// WithRows returns a shallow copy of r holding rows instead of r.Rows.
func (r *Result) WithRows(rows []ScoredRow) *Result {
	out := *r
	out.Rows = rows
	return &out
}

// Summary aggregates a (possibly filtered) result.
type Summary struct {
	Rows              int     `json:"rows"`
	MeanRisk          float64 `json:"mean_risk"`
	HighRiskRows      int     `json:"high_risk_rows"`
	TotalEconomicLoss float64 `json:"total_economic_loss"`
}
