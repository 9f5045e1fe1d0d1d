package pipeline

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockout-app/models"
)

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.500", FormatFloat(0.5, 3))
	assert.Equal(t, "0.124", FormatFloat(0.12351, 3))
	assert.Equal(t, "3600.00", FormatFloat(3600, 2))
	assert.Equal(t, "", FormatFloat(math.NaN(), 2))
	assert.Equal(t, "", FormatFloat(math.Inf(1), 2))
}

func TestResultTable(t *testing.T) {
	r := &models.Result{
		Columns: []string{"store_id", "demand_forecast"},
		Rows: []models.ScoredRow{
			{
				Index:        0,
				Values:       []string{"S001", "10"},
				StockoutRisk: 0.5,
				LossFields:   EstimateLoss(LossInputs{DemandForecast: 10, InventoryLevel: 50, Price: 100, Discount: 20, StockoutRisk: 0.5}),
			},
			{
				Index:        1,
				Values:       []string{"S002", ""},
				StockoutRisk: 0.123456,
				LossFields:   EstimateLoss(LossInputs{DemandForecast: math.NaN(), InventoryLevel: 5, Price: 2, StockoutRisk: 0.123456}),
			},
		},
	}

	tbl := ResultTable(r, DefaultFormat)
	assert.Equal(t, []string{
		"store_id", "demand_forecast",
		"stockout_risk", "demand_14d", "units_at_risk", "profit_per_unit", "economic_loss",
	}, tbl.Columns)
	assert.Equal(t, []string{"S001", "10", "0.500", "140.00", "90.00", "80.00", "3600.00"}, tbl.Rows[0])
	assert.Equal(t, []string{"S002", "", "0.123", "", "", "2.00", ""}, tbl.Rows[1])
}

func TestExportCSV(t *testing.T) {
	data, err := ExportCSV(sampleResult(), Filters{Category: "Toys"}, 2, DefaultFormat)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "store_id,category,stockout_risk,demand_14d,units_at_risk,profit_per_unit,economic_loss", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "S003,Toys,0.900,"))
	assert.True(t, strings.HasPrefix(lines[2], "S001,Toys,0.200,"))
}

func TestToCSV_QuotesSpecialValues(t *testing.T) {
	data, err := ToCSV(&models.Table{
		Columns: []string{"category", "note"},
		Rows:    [][]string{{"Toys, Outdoor", `say "hi"`}},
	})
	require.NoError(t, err)
	assert.Equal(t, "category,note\n\"Toys, Outdoor\",\"say \"\"hi\"\"\"\n", string(data))
}

func TestToCSV_SingleEmptyField(t *testing.T) {
	data, err := ToCSV(&models.Table{
		Columns: []string{"date"},
		Rows:    [][]string{{""}, {"2024-01-01"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "date\n\"\"\n2024-01-01\n", string(data))
}
