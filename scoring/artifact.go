package scoring

import "stockout-app/models"

// Artifact is a loaded classifier. PredictProba returns, for every row of t,
// the probability of the positive (stockout) class.
type Artifact interface {
	PredictProba(t *models.Table) ([]float64, error)
}

// FeatureDeclarer is implemented by artifacts that declare the exact column
// set they expect. The scorer reindexes input to that set before predicting.
type FeatureDeclarer interface {
	FeatureColumns() []string
}

// Info describes a loaded artifact.
type Info struct {
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Features []string `json:"features,omitempty"`
}

// Describer is implemented by artifacts that carry a name and version.
type Describer interface {
	Describe() Info
}

// Describe returns what is known about a.
func Describe(a Artifact) Info {
	var info Info
	if d, ok := a.(Describer); ok {
		info = d.Describe()
	}
	if info.Name == "" {
		info.Name = "unknown"
	}
	if f, ok := a.(FeatureDeclarer); ok && info.Features == nil {
		info.Features = f.FeatureColumns()
	}
	return info
}
