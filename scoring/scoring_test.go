package scoring

import (
	"stockout-app/logger"
	"stockout-app/models"
)

const testArtifactJSON = `{
  "name": "stockout-risk-logit",
  "version": "test",
  "intercept": 0,
  "numeric": [
    {"column": "inventory_level", "mean": 100, "scale": 50, "weight": -1.5},
    {"column": "demand_forecast", "mean": 50, "scale": 25, "weight": 1.2}
  ],
  "categorical": [
    {"column": "category", "weights": {"Groceries": 0.4, "Toys": -0.2}}
  ]
}`

// stubArtifact returns fixed probabilities and records what it was given.
type stubArtifact struct {
	features []string
	probs    []float64
	err      error
	panicMsg string
	got      *models.Table
}

func (s *stubArtifact) PredictProba(t *models.Table) ([]float64, error) {
	s.got = t
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.probs != nil {
		return s.probs, nil
	}
	out := make([]float64, t.Len())
	for i := range out {
		out[i] = 0.5
	}
	return out, nil
}

// declaringStub adds a declared feature set to stubArtifact.
type declaringStub struct {
	stubArtifact
}

func (s *declaringStub) FeatureColumns() []string {
	return s.features
}

func inventoryTable() *models.Table {
	return &models.Table{
		Columns: []string{"store_id", "category", "inventory_level", "demand_forecast"},
		Rows: [][]string{
			{"S001", "Groceries", "20", "90"},
			{"S002", "Toys", "300", "10"},
			{"S003", "Electronics", "100", "50"},
		},
	}
}

func nopLogger() *logger.ZapLogger {
	return logger.NewNop()
}
