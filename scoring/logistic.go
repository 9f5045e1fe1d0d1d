package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"stockout-app/errorx"
	"stockout-app/models"
)

// NumericFeature is a standardized numeric input.
type NumericFeature struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Scale  float64 `json:"scale"`
	Weight float64 `json:"weight"`
}

// CategoricalFeature is a one-hot encoded input; unknown levels contribute 0.
type CategoricalFeature struct {
	Column  string             `json:"column"`
	Weights map[string]float64 `json:"weights"`
}

// LogisticModel is the serialized scoring pipeline: standardization, one-hot
// encoding and a logistic regression head.
type LogisticModel struct {
	Name        string               `json:"name"`
	Version     string               `json:"version"`
	Intercept   float64              `json:"intercept"`
	Numeric     []NumericFeature     `json:"numeric"`
	Categorical []CategoricalFeature `json:"categorical"`
}

// Decode materializes an artifact from its serialized bytes.
func Decode(data []byte) (Artifact, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var m LogisticModel
	if err := dec.Decode(&m); err != nil {
		return nil, errorx.New(errorx.StageLoad, errorx.ErrDeserialization, err)
	}
	if err := m.validate(); err != nil {
		return nil, errorx.New(errorx.StageLoad, errorx.ErrDeserialization, err)
	}
	return &m, nil
}

func (m *LogisticModel) validate() error {
	if len(m.Numeric)+len(m.Categorical) == 0 {
		return fmt.Errorf("artifact declares no features")
	}
	if math.IsNaN(m.Intercept) || math.IsInf(m.Intercept, 0) {
		return fmt.Errorf("intercept is not finite")
	}
	seen := make(map[string]bool)
	check := func(col string) error {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("feature with empty column name")
		}
		if seen[col] {
			return fmt.Errorf("feature %q declared twice", col)
		}
		seen[col] = true
		return nil
	}
	for _, f := range m.Numeric {
		if err := check(f.Column); err != nil {
			return err
		}
		if f.Scale == 0 || math.IsNaN(f.Scale) || math.IsInf(f.Scale, 0) {
			return fmt.Errorf("feature %q: invalid scale %v", f.Column, f.Scale)
		}
	}
	for _, f := range m.Categorical {
		if err := check(f.Column); err != nil {
			return err
		}
	}
	return nil
}

// FeatureColumns lists numeric features followed by categorical ones.
func (m *LogisticModel) FeatureColumns() []string {
	cols := make([]string, 0, len(m.Numeric)+len(m.Categorical))
	for _, f := range m.Numeric {
		cols = append(cols, f.Column)
	}
	for _, f := range m.Categorical {
		cols = append(cols, f.Column)
	}
	return cols
}

func (m *LogisticModel) Describe() Info {
	return Info{Name: m.Name, Version: m.Version, Features: m.FeatureColumns()}
}

// PredictProba scores every row. A numeric feature cell that does not parse
// fails the whole call.
func (m *LogisticModel) PredictProba(t *models.Table) ([]float64, error) {
	numIdx := make([]int, len(m.Numeric))
	for i, f := range m.Numeric {
		if numIdx[i] = t.Index(f.Column); numIdx[i] < 0 {
			return nil, fmt.Errorf("missing feature column %q", f.Column)
		}
	}
	catIdx := make([]int, len(m.Categorical))
	for i, f := range m.Categorical {
		if catIdx[i] = t.Index(f.Column); catIdx[i] < 0 {
			return nil, fmt.Errorf("missing feature column %q", f.Column)
		}
	}

	probs := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		z := m.Intercept
		for i, f := range m.Numeric {
			x := models.ParseFloat(row[numIdx[i]])
			if math.IsNaN(x) {
				return nil, fmt.Errorf("row %d: column %q: non-numeric value %q", r+1, f.Column, row[numIdx[i]])
			}
			z += f.Weight * (x - f.Mean) / f.Scale
		}
		for i, f := range m.Categorical {
			z += f.Weights[strings.TrimSpace(row[catIdx[i]])]
		}
		probs[r] = sigmoid(z)
	}
	return probs, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
