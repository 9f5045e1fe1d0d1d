package pipeline

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockout-app/errorx"
	"stockout-app/logger"
	"stockout-app/models"
	"stockout-app/scoring"
)

// ArtifactSource hands out the loaded scoring artifact.
type ArtifactSource interface {
	Load(ctx context.Context) (scoring.Artifact, error)
}

// Recorder keeps the history of scoring runs.
type Recorder interface {
	Record(ctx context.Context, run models.ScoringRun) error
}

// Runner takes one uploaded file from raw CSV to a loss-augmented result.
type Runner struct {
	source        ArtifactSource
	scorer        *scoring.Scorer
	recorder      Recorder
	log           logger.Logger
	renames       map[string]string
	highThreshold float64
	now           func() time.Time
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithRenames replaces DefaultRenames.
func WithRenames(m map[string]string) RunnerOption {
	return func(r *Runner) { r.renames = m }
}

// WithHighRiskThreshold sets the probability counted as high risk in run
// summaries.
func WithHighRiskThreshold(p float64) RunnerOption {
	return func(r *Runner) {
		if p > 0 && p <= 1 {
			r.highThreshold = p
		}
	}
}

// WithRecorder stores a history entry for every run.
func WithRecorder(rec Recorder) RunnerOption {
	return func(r *Runner) { r.recorder = rec }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

func NewRunner(source ArtifactSource, scorer *scoring.Scorer, log logger.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		source:        source,
		scorer:        scorer,
		log:           log,
		renames:       DefaultRenames,
		highThreshold: DefaultHighRiskThreshold,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads, normalizes, scores and augments one file. Every error is tagged
// with the stage that failed.
func (r *Runner) Run(ctx context.Context, fileName string, in io.Reader) (*models.Result, error) {
	runID := logger.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logger.WithRun(ctx, runID, fileName)
	}
	started := r.now()

	res, err := r.run(ctx, runID, fileName, in)
	if err != nil {
		r.log.Errorf(ctx, "scoring run failed at stage %s: %v", errorx.StageOf(err), err)
		r.record(ctx, models.ScoringRun{
			ID:          runID,
			FileName:    fileName,
			Status:      models.RunFailed,
			FailedStage: errorx.StageOf(err),
			ErrorKind:   errorx.KindName(err),
			Message:     err.Error(),
			CreatedAt:   started,
		})
		return nil, err
	}

	sum := Summarize(res, r.highThreshold)
	r.log.Infof(ctx, "scored %d rows in %s, %d high risk, mean risk %.3f",
		sum.Rows, r.now().Sub(started).Round(time.Millisecond), sum.HighRiskRows, sum.MeanRisk)
	r.record(ctx, models.ScoringRun{
		ID:                runID,
		FileName:          fileName,
		Rows:              sum.Rows,
		Status:            models.RunSucceeded,
		MeanRisk:          sum.MeanRisk,
		HighRiskRows:      sum.HighRiskRows,
		TotalEconomicLoss: sum.TotalEconomicLoss,
		ModelVersion:      res.ModelVersion,
		CreatedAt:         started,
	})
	return res, nil
}

func (r *Runner) run(ctx context.Context, runID, fileName string, in io.Reader) (*models.Result, error) {
	raw, err := ReadCSV(in)
	if err != nil {
		return nil, err
	}
	r.log.Debugf(ctx, "read %d rows with columns %s", raw.Len(), strings.Join(raw.Columns, ","))

	table, err := Normalize(raw, r.renames)
	if err != nil {
		return nil, err
	}
	table, err = r.dropDerived(ctx, table)
	if err != nil {
		return nil, err
	}

	artifact, err := r.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	risks, err := r.scorer.Score(ctx, table, artifact)
	if err != nil {
		return nil, err
	}

	info := scoring.Describe(artifact)
	return &models.Result{
		RunID:        runID,
		FileName:     fileName,
		Columns:      table.Columns,
		Rows:         Augment(table, risks),
		ModelName:    info.Name,
		ModelVersion: info.Version,
		ScoredAt:     r.now(),
	}, nil
}

// dropDerived removes columns left over from a previous export so the fresh
// figures are the only ones in the result.
func (r *Runner) dropDerived(ctx context.Context, t *models.Table) (*models.Table, error) {
	derived := make(map[string]bool, len(models.DerivedColumns))
	for _, c := range models.DerivedColumns {
		derived[c] = true
	}

	var keep []string
	var dropped []string
	for _, c := range t.Columns {
		if derived[c] {
			dropped = append(dropped, c)
			continue
		}
		keep = append(keep, c)
	}
	if len(dropped) == 0 {
		return t, nil
	}
	if len(keep) == 0 {
		return nil, errorx.Newf(errorx.StageNormalize, errorx.ErrSchema, "table only contains derived columns")
	}
	r.log.Warnf(ctx, "replacing previously derived columns %s", strings.Join(dropped, ", "))
	out, _ := t.Reindex(keep, "")
	return out, nil
}

func (r *Runner) record(ctx context.Context, run models.ScoringRun) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(ctx, run); err != nil {
		r.log.Warnf(ctx, "record scoring run %s: %v", run.ID, err)
	}
}
