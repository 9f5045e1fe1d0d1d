package pipeline

import (
	"stockout-app/models"
)

// HorizonDays is the stockout horizon the classifier was trained for.
const HorizonDays = 14

// LossInputs are the numeric fields the loss estimate reads. NaN marks a
// missing value and propagates into every figure that depends on it.
type LossInputs struct {
	DemandForecast float64
	InventoryLevel float64
	Price          float64
	Discount       float64
	StockoutRisk   float64
}

// EstimateLoss derives the 14 day demand, units at risk, unit profit and
// expected economic loss.
func EstimateLoss(in LossInputs) models.LossFields {
	demand := in.DemandForecast * HorizonDays

	atRisk := demand - in.InventoryLevel
	if atRisk < 0 {
		atRisk = 0
	}

	profit := in.Price * (1 - in.Discount/100)

	return models.LossFields{
		Demand14d:     demand,
		UnitsAtRisk:   atRisk,
		ProfitPerUnit: profit,
		EconomicLoss:  in.StockoutRisk * atRisk * profit,
	}
}

// Augment pairs every row of t with its risk and loss figures. A table
// without a discount column is treated as undiscounted.
func Augment(t *models.Table, risks []float64) []models.ScoredRow {
	hasDiscount := t.Has(ColDiscount)

	rows := make([]models.ScoredRow, len(t.Rows))
	for i, values := range t.Rows {
		discount := 0.0
		if hasDiscount {
			discount = t.Float(i, ColDiscount)
		}
		rows[i] = models.ScoredRow{
			Index:        i,
			Values:       values,
			StockoutRisk: risks[i],
			LossFields: EstimateLoss(LossInputs{
				DemandForecast: t.Float(i, ColDemandForecast),
				InventoryLevel: t.Float(i, ColInventoryLevel),
				Price:          t.Float(i, ColPrice),
				Discount:       discount,
				StockoutRisk:   risks[i],
			}),
		}
	}
	return rows
}
