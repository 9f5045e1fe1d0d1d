package controllers

import (
	"context"
	"fmt"
	"html/template"

	"github.com/dustin/go-humanize"

	"stockout-app/logger"
	"stockout-app/models"
	"stockout-app/pipeline"
	"stockout-app/results"
	"stockout-app/scoring"
)

// RunHistory reads scoring run history.
type RunHistory interface {
	List(ctx context.Context, limit int) ([]models.ScoringRun, error)
	Get(ctx context.Context, id string) (models.ScoringRun, error)
}

// Settings are the presentation and export knobs handlers need.
type Settings struct {
	MaxUploadBytes     int64
	ExportFileName     string
	Format             pipeline.Format
	HighlightThreshold float64
	DefaultTop         int
}

// Controller serves the upload pages and the JSON API.
type Controller struct {
	runner   *pipeline.Runner
	model    pipeline.ArtifactSource
	results  *results.Store
	runs     RunHistory
	log      logger.Logger
	settings Settings
}

// New wires a Controller. runs may be nil when history is disabled.
func New(runner *pipeline.Runner, model pipeline.ArtifactSource, store *results.Store, runs RunHistory, log logger.Logger, settings Settings) *Controller {
	if settings.ExportFileName == "" {
		settings.ExportFileName = "stockout_predictions.csv"
	}
	if settings.HighlightThreshold <= 0 {
		settings.HighlightThreshold = pipeline.DefaultHighRiskThreshold
	}
	if settings.Format == (pipeline.Format{}) {
		settings.Format = pipeline.DefaultFormat
	}
	return &Controller{
		runner:   runner,
		model:    model,
		results:  store,
		runs:     runs,
		log:      log,
		settings: settings,
	}
}

// modelInfo describes the loaded artifact; blank when it cannot be loaded.
func (h *Controller) modelInfo(ctx context.Context) scoring.Info {
	a, err := h.model.Load(ctx)
	if err != nil {
		return scoring.Info{}
	}
	return scoring.Describe(a)
}

// TemplateFuncs are the helpers available to the HTML pages.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(v float64) string {
			return humanize.CommafWithDigits(v, 2)
		},
		"percent": func(p float64) string {
			return fmt.Sprintf("%.1f%%", p*100)
		},
	}
}
