package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"stockout-app/errorx"
	"stockout-app/logger"
	"stockout-app/models"
)

// MissingFeaturePolicy decides what happens when the upload lacks a column
// the artifact declares.
type MissingFeaturePolicy string

const (
	// PolicyFill adds the missing columns filled with 0 and logs a warning.
	PolicyFill MissingFeaturePolicy = "fill"
	// PolicyFail rejects the upload.
	PolicyFail MissingFeaturePolicy = "fail"
)

// FillValue is written into feature columns the upload does not carry.
const FillValue = "0"

// Scorer runs an artifact against a normalized table.
type Scorer struct {
	policy MissingFeaturePolicy
	log    logger.Logger
}

func NewScorer(policy MissingFeaturePolicy, log logger.Logger) *Scorer {
	if policy == "" {
		policy = PolicyFill
	}
	return &Scorer{policy: policy, log: log}
}

// Score returns one probability per row of t, each in [0,1].
func (s *Scorer) Score(ctx context.Context, t *models.Table, a Artifact) (probs []float64, err error) {
	if err := ctx.Err(); err != nil {
		return nil, errorx.New(errorx.StageScore, errorx.ErrPrediction, err)
	}

	input := t
	if d, ok := a.(FeatureDeclarer); ok {
		var missing []string
		input, missing = t.Reindex(d.FeatureColumns(), FillValue)
		if len(missing) > 0 {
			if s.policy == PolicyFail {
				return nil, errorx.Newf(errorx.StageScore, errorx.ErrPrediction, "missing feature columns: %s", strings.Join(missing, ", "))
			}
			s.log.Warnf(ctx, "upload lacks feature columns %s, filled with %s", strings.Join(missing, ", "), FillValue)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			probs = nil
			err = errorx.Newf(errorx.StageScore, errorx.ErrPrediction, "artifact panicked: %v", r)
		}
	}()

	probs, err = a.PredictProba(input)
	if err != nil {
		return nil, errorx.New(errorx.StageScore, errorx.ErrPrediction, err)
	}
	if len(probs) != t.Len() {
		return nil, errorx.Newf(errorx.StageScore, errorx.ErrPrediction, "artifact returned %d probabilities for %d rows", len(probs), t.Len())
	}
	for i, p := range probs {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, errorx.Newf(errorx.StageScore, errorx.ErrPrediction, "row %d: probability %v outside [0,1]", i+1, p)
		}
	}
	return probs, nil
}

// String is used in log lines.
func (p MissingFeaturePolicy) String() string {
	return string(p)
}

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (MissingFeaturePolicy, error) {
	switch MissingFeaturePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyFill:
		return PolicyFill, nil
	case PolicyFail:
		return PolicyFail, nil
	default:
		return "", fmt.Errorf("unknown missing feature policy %q (want fill or fail)", s)
	}
}
