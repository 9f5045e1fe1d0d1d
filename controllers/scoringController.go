package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"stockout-app/errorx"
	"stockout-app/ginx"
	"stockout-app/logger"
	"stockout-app/middlewares"
	"stockout-app/models"
	"stockout-app/pipeline"
)

const recentRuns = 10

type page struct {
	Title        string
	ModelName    string
	ModelVersion string
}

type indexPage struct {
	page
	Error     string
	Stage     string
	MaxUpload string
	Runs      []models.ScoringRun
}

// Index renders the upload form.
func (h *Controller) Index(c *gin.Context) {
	h.renderIndex(c, http.StatusOK, nil)
}

// Upload scores the uploaded file and redirects to its results page. A
// failure re-renders the form with the failing stage so the user can retry.
func (h *Controller) Upload(c *gin.Context) {
	res, err := h.score(c)
	if err != nil {
		status := ginx.StatusFor(err)
		if !errorx.IsUploadScoped(err) {
			h.log.Errorf(c.Request.Context(), "scoring unavailable: %v", err)
			if status == http.StatusServiceUnavailable {
				c.Header("Retry-After", ginx.RetryAfterSeconds)
			}
		}
		h.renderIndex(c, status, err)
		return
	}
	h.results.Put(res)
	c.Redirect(http.StatusSeeOther, "/results/"+res.RunID)
}

// ScoreAPI scores the uploaded file and returns the augmented table as JSON.
// The result stays downloadable under /results/:id/download until it expires.
func (h *Controller) ScoreAPI(c *gin.Context) {
	q, ok := h.bindView(c, true)
	if !ok {
		return
	}
	res, err := h.score(c)
	if err != nil {
		ginx.PipelineError(c, err)
		return
	}
	h.results.Put(res)
	ginx.Success(c, h.resultPayload(res, q))
}

// ScoreCSV scores the uploaded file and answers with the CSV export directly.
func (h *Controller) ScoreCSV(c *gin.Context) {
	q, ok := h.bindView(c, true)
	if !ok {
		return
	}
	res, err := h.score(c)
	if err != nil {
		ginx.PipelineError(c, err)
		return
	}
	h.writeCSV(c, res, q)
}

// score runs the pipeline for the multipart "file" field.
func (h *Controller) score(c *gin.Context) (*models.Result, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.settings.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errorx.Newf(errorx.StageRead, errorx.ErrSchema, "file is larger than %s", humanize.IBytes(uint64(h.settings.MaxUploadBytes)))
		}
		return nil, errorx.Newf(errorx.StageRead, errorx.ErrSchema, "no file uploaded: %v", err)
	}
	if !pipeline.IsCSVName(fh.Filename) {
		return nil, errorx.Newf(errorx.StageRead, errorx.ErrSchema, "%q is not a .csv file", fh.Filename)
	}

	runID := uuid.NewString()
	c.Set(middlewares.RunIDKey, runID)
	ctx := logger.WithRun(c.Request.Context(), runID, fh.Filename)

	f, err := fh.Open()
	if err != nil {
		return nil, errorx.New(errorx.StageRead, errorx.ErrSchema, err)
	}
	defer func(f multipart.File) {
		if err := f.Close(); err != nil {
			h.log.Warnf(ctx, "close upload: %v", err)
		}
	}(f)

	return h.runner.Run(ctx, fh.Filename, f)
}

func (h *Controller) renderIndex(c *gin.Context, status int, err error) {
	ctx := c.Request.Context()
	info := h.modelInfo(ctx)

	p := indexPage{
		page:      page{Title: "Retail Stockout Risk Scoring", ModelName: info.Name, ModelVersion: info.Version},
		MaxUpload: humanize.IBytes(uint64(h.settings.MaxUploadBytes)),
	}
	if err != nil {
		p.Error = err.Error()
		p.Stage = errorx.StageOf(err)
		if p.Stage == "" {
			p.Stage = "upload"
		}
	}
	if h.runs != nil {
		runs, lerr := h.runs.List(ctx, recentRuns)
		if lerr != nil {
			h.log.Warnf(ctx, "list scoring runs: %v", lerr)
		}
		p.Runs = runs
	}
	c.HTML(status, "index.html", p)
}

func (h *Controller) writeCSV(c *gin.Context, res *models.Result, q viewQuery) {
	data, err := pipeline.ExportCSV(res, q.Filters(), q.Top, h.settings.Format)
	if err != nil {
		h.log.Errorf(logger.WithRun(c.Request.Context(), res.RunID, res.FileName), "export failed: %v", err)
		ginx.PipelineError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.settings.ExportFileName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
