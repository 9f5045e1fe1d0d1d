package scoring

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"stockout-app/errorx"
	"stockout-app/logger"
)

func TestScorer_ReturnsOneProbabilityPerRow(t *testing.T) {
	a, err := Decode([]byte(testArtifactJSON))
	require.NoError(t, err)

	probs, err := NewScorer(PolicyFill, logger.NewNop()).Score(context.Background(), inventoryTable(), a)
	require.NoError(t, err)
	assert.Len(t, probs, 3)
	for _, p := range probs {
		assert.True(t, p >= 0 && p <= 1)
	}
}

func TestScorer_FillsMissingFeatureColumns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	stub := &declaringStub{stubArtifact{features: []string{"inventory_level", "units_ordered", "category"}}}

	probs, err := NewScorer(PolicyFill, logger.FromZap(zap.New(core))).Score(context.Background(), inventoryTable(), stub)
	require.NoError(t, err)
	assert.Len(t, probs, 3)

	require.NotNil(t, stub.got)
	assert.Equal(t, []string{"inventory_level", "units_ordered", "category"}, stub.got.Columns)
	assert.Equal(t, []string{"20", "0", "Groceries"}, stub.got.Rows[0])

	require.Equal(t, 1, logs.Len())
	assert.Contains(t, logs.All()[0].Message, "units_ordered")
}

func TestScorer_FailPolicyRejectsMissingFeatures(t *testing.T) {
	stub := &declaringStub{stubArtifact{features: []string{"inventory_level", "units_ordered"}}}

	_, err := NewScorer(PolicyFail, logger.NewNop()).Score(context.Background(), inventoryTable(), stub)
	require.Error(t, err)
	assert.ErrorIs(t, err, errorx.ErrPrediction)
	assert.ErrorContains(t, err, "units_ordered")
	assert.Nil(t, stub.got)
}

func TestScorer_NonDeclaringArtifactGetsWholeTable(t *testing.T) {
	stub := &stubArtifact{}
	tbl := inventoryTable()

	_, err := NewScorer(PolicyFail, logger.NewNop()).Score(context.Background(), tbl, stub)
	require.NoError(t, err)
	assert.Same(t, tbl, stub.got)
}

func TestScorer_WrapsArtifactFailures(t *testing.T) {
	cause := errors.New("could not convert string to float")
	cases := map[string]*stubArtifact{
		"error":        {err: cause},
		"panic":        {panicMsg: "index out of range"},
		"short result": {probs: []float64{0.1}},
		"above one":    {probs: []float64{0.1, 1.2, 0.3}},
		"negative":     {probs: []float64{0.1, -0.01, 0.3}},
		"nan":          {probs: []float64{0.1, math.NaN(), 0.3}},
	}
	for name, stub := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewScorer(PolicyFill, logger.NewNop()).Score(context.Background(), inventoryTable(), stub)
			require.Error(t, err)
			assert.ErrorIs(t, err, errorx.ErrPrediction)
			assert.Equal(t, errorx.StageScore, errorx.StageOf(err))
		})
	}

	_, err := NewScorer(PolicyFill, logger.NewNop()).Score(context.Background(), inventoryTable(), cases["error"])
	assert.ErrorIs(t, err, cause)
}

func TestScorer_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScorer(PolicyFill, logger.NewNop()).Score(ctx, inventoryTable(), &stubArtifact{})
	assert.ErrorIs(t, err, errorx.ErrPrediction)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyFill, p)

	p, err = ParsePolicy(" FAIL ")
	require.NoError(t, err)
	assert.Equal(t, PolicyFail, p)

	_, err = ParsePolicy("impute")
	assert.Error(t, err)
}
