package pipeline

import (
	"strings"
	"time"

	"stockout-app/errorx"
	"stockout-app/models"
)

// Internal column names the scoring artifact and loss estimator rely on.
const (
	ColDate              = "date"
	ColStoreID           = "store_id"
	ColProductID         = "product_id"
	ColCategory          = "category"
	ColRegion            = "region"
	ColInventoryLevel    = "inventory_level"
	ColUnitsSold         = "units_sold"
	ColUnitsOrdered      = "units_ordered"
	ColDemandForecast    = "demand_forecast"
	ColPrice             = "price"
	ColDiscount          = "discount"
	ColWeather           = "weather"
	ColHolidayPromo      = "holiday_promo"
	ColCompetitorPricing = "competitor_pricing"
	ColSeasonality       = "seasonality"
)

// DefaultRenames maps the display headers of the retail inventory export to
// internal names.
var DefaultRenames = map[string]string{
	"Date":               ColDate,
	"Store ID":           ColStoreID,
	"Product ID":         ColProductID,
	"Category":           ColCategory,
	"Region":             ColRegion,
	"Inventory Level":    ColInventoryLevel,
	"Units Sold":         ColUnitsSold,
	"Units Ordered":      ColUnitsOrdered,
	"Demand Forecast":    ColDemandForecast,
	"Price":              ColPrice,
	"Discount":           ColDiscount,
	"Weather Condition":  ColWeather,
	"Holiday/Promotion":  ColHolidayPromo,
	"Competitor Pricing": ColCompetitorPricing,
	"Seasonality":        ColSeasonality,
}

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

var dateLayouts = []string{
	dateLayout,
	dateTimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
}

// Normalize renames columns and coerces the date and holiday_promo columns.
// raw is left untouched. Normalize(Normalize(t)) equals Normalize(t).
func Normalize(raw *models.Table, renames map[string]string) (*models.Table, error) {
	if raw == nil || len(raw.Columns) == 0 {
		return nil, errorx.Newf(errorx.StageNormalize, errorx.ErrSchema, "table has no columns")
	}
	if raw.Len() == 0 {
		return nil, errorx.Newf(errorx.StageNormalize, errorx.ErrSchema, "table has no data rows")
	}

	out := raw.Clone()
	seen := make(map[string]bool, len(out.Columns))
	for i, c := range out.Columns {
		if to, ok := renames[strings.TrimSpace(c)]; ok {
			out.Columns[i] = to
		}
		if seen[out.Columns[i]] {
			return nil, errorx.Newf(errorx.StageNormalize, errorx.ErrSchema, "duplicate column %q", out.Columns[i])
		}
		seen[out.Columns[i]] = true
	}

	if i := out.Index(ColDate); i >= 0 {
		for _, row := range out.Rows {
			if i < len(row) {
				row[i] = normalizeDate(row[i])
			}
		}
	}
	if i := out.Index(ColHolidayPromo); i >= 0 {
		for _, row := range out.Rows {
			if i < len(row) {
				row[i] = normalizeFlag(row[i])
			}
		}
	}
	return out, nil
}

// normalizeDate returns the canonical form of a date cell, "" when it does
// not parse.
func normalizeDate(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		ts, err := time.Parse(layout, v)
		if err != nil {
			continue
		}
		if ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0 {
			return ts.Format(dateLayout)
		}
		return ts.Format(dateTimeLayout)
	}
	return ""
}

// normalizeFlag maps boolean-ish cells to "1"/"0", "" when unrecognized.
func normalizeFlag(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "1.0", "true", "t", "yes", "y":
		return "1"
	case "0", "0.0", "false", "f", "no", "n":
		return "0"
	default:
		return ""
	}
}
