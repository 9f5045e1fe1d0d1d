package pipeline

import (
	"math"
	"sort"

	"stockout-app/models"
)

// All is the selector value that disables a filter.
const All = "All"

// Risk levels used for highlighting.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// DefaultHighRiskThreshold is the probability from which a row counts as
// high risk.
const DefaultHighRiskThreshold = 0.7

const mediumRiskThreshold = 0.3

// Filters are equality filters on category and store. Empty or All means no
// filter.
type Filters struct {
	Category string `form:"category" json:"category"`
	Store    string `form:"store" json:"store"`
}

// Active reports whether any filter narrows the result.
func (f Filters) Active() bool {
	return !isAll(f.Category) || !isAll(f.Store)
}

func isAll(v string) bool {
	return v == "" || v == All
}

// Filter returns the rows of r matching every active filter, in order.
func Filter(r *models.Result, f Filters) *models.Result {
	if !f.Active() {
		return r.WithRows(append([]models.ScoredRow(nil), r.Rows...))
	}

	rows := make([]models.ScoredRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		if !isAll(f.Category) && r.Value(row, ColCategory) != f.Category {
			continue
		}
		if !isAll(f.Store) && r.Value(row, ColStoreID) != f.Store {
			continue
		}
		rows = append(rows, row)
	}
	return r.WithRows(rows)
}

// SortByRiskDescending orders rows by stockout risk, highest first. Equal
// risks keep their original file order.
func SortByRiskDescending(r *models.Result) *models.Result {
	rows := append([]models.ScoredRow(nil), r.Rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StockoutRisk != rows[j].StockoutRisk {
			return rows[i].StockoutRisk > rows[j].StockoutRisk
		}
		return rows[i].Index < rows[j].Index
	})
	return r.WithRows(rows)
}

// TopN keeps the first n rows. n <= 0 keeps everything.
func TopN(r *models.Result, n int) *models.Result {
	if n <= 0 || n >= len(r.Rows) {
		return r.WithRows(append([]models.ScoredRow(nil), r.Rows...))
	}
	return r.WithRows(append([]models.ScoredRow(nil), r.Rows[:n]...))
}

// DistinctValues lists the non-empty values of col, sorted, for selectors.
func DistinctValues(r *models.Result, col string) []string {
	if r.Index(col) < 0 {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, row := range r.Rows {
		v := r.Value(row, col)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// RiskLevel buckets a probability for display.
func RiskLevel(p, highThreshold float64) string {
	switch {
	case p >= highThreshold:
		return RiskHigh
	case p >= mediumRiskThreshold:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Summarize aggregates the rows of r. Rows with an unknown loss are left
// out of the loss total.
func Summarize(r *models.Result, highThreshold float64) models.Summary {
	s := models.Summary{Rows: len(r.Rows)}
	if len(r.Rows) == 0 {
		return s
	}
	var riskSum float64
	for _, row := range r.Rows {
		riskSum += row.StockoutRisk
		if row.StockoutRisk >= highThreshold {
			s.HighRiskRows++
		}
		if !math.IsNaN(row.EconomicLoss) && !math.IsInf(row.EconomicLoss, 0) {
			s.TotalEconomicLoss += row.EconomicLoss
		}
	}
	s.MeanRisk = riskSum / float64(len(r.Rows))
	return s
}
