package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockout-app/errorx"
	"stockout-app/ginx"
	"stockout-app/middlewares"
	"stockout-app/models"
	"stockout-app/pipeline"
)

// viewQuery selects the slice of a result to show or export.
type viewQuery struct {
	Category string `form:"category"`
	Store    string `form:"store"`
	Top      int    `form:"top" binding:"min=0,max=1000000"`
}

func (q viewQuery) Filters() pipeline.Filters {
	return pipeline.Filters{Category: q.Category, Store: q.Store}
}

func (q viewQuery) Encode() string {
	v := url.Values{}
	if q.Category != "" && q.Category != pipeline.All {
		v.Set("category", q.Category)
	}
	if q.Store != "" && q.Store != pipeline.All {
		v.Set("store", q.Store)
	}
	if q.Top > 0 {
		v.Set("top", strconv.Itoa(q.Top))
	}
	return v.Encode()
}

type rowView struct {
	Level string
	Cells []string
}

type resultsPage struct {
	page
	RunID       string
	FileName    string
	Summary     models.Summary
	Filters     pipeline.Filters
	Categories  []string
	Stores      []string
	Top         int
	Columns     []string
	Rows        []rowView
	DownloadURL string
}

type tablePayload struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type resultPayload struct {
	RunID        string           `json:"run_id"`
	FileName     string           `json:"file_name"`
	ModelName    string           `json:"model_name"`
	ModelVersion string           `json:"model_version"`
	Filters      pipeline.Filters `json:"filters"`
	Summary      models.Summary   `json:"summary"`
	Table        tablePayload     `json:"table"`
	DownloadURL  string           `json:"download_url"`
}

// bindView reads filter and top query parameters. api selects the error
// format on invalid input.
func (h *Controller) bindView(c *gin.Context, api bool) (viewQuery, bool) {
	var q viewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		if api {
			ginx.BadRequestWithValidation(c, err)
		} else {
			h.renderIndex(c, http.StatusBadRequest, errorx.New(errorx.StagePresent, errorx.ErrSchema, err))
		}
		return q, false
	}
	if _, set := c.GetQuery("top"); !set {
		q.Top = h.settings.DefaultTop
	}
	return q, true
}

func (h *Controller) lookup(c *gin.Context, api bool) (*models.Result, bool) {
	id := c.Param("id")
	c.Set(middlewares.RunIDKey, id)
	res, ok := h.results.Get(id)
	if !ok {
		msg := fmt.Sprintf("result %s not found or expired, upload the file again", id)
		if api {
			ginx.NotFound(c, msg)
		} else {
			h.renderIndex(c, http.StatusNotFound, errors.New(msg))
		}
		return nil, false
	}
	return res, true
}

func (h *Controller) view(res *models.Result, q viewQuery) *models.Result {
	return pipeline.TopN(pipeline.SortByRiskDescending(pipeline.Filter(res, q.Filters())), q.Top)
}

func (h *Controller) downloadURL(res *models.Result, q viewQuery) string {
	u := "/results/" + res.RunID + "/download"
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// Results renders the filtered, risk-sorted table of one upload.
func (h *Controller) Results(c *gin.Context) {
	res, ok := h.lookup(c, false)
	if !ok {
		return
	}
	q, ok := h.bindView(c, false)
	if !ok {
		return
	}

	view := h.view(res, q)
	table := pipeline.ResultTable(view, h.settings.Format)
	rows := make([]rowView, len(view.Rows))
	for i, row := range view.Rows {
		rows[i] = rowView{
			Level: pipeline.RiskLevel(row.StockoutRisk, h.settings.HighlightThreshold),
			Cells: table.Rows[i],
		}
	}

	c.HTML(http.StatusOK, "results.html", resultsPage{
		page:        page{Title: "Risk results: " + res.FileName, ModelName: res.ModelName, ModelVersion: res.ModelVersion},
		RunID:       res.RunID,
		FileName:    res.FileName,
		Summary:     pipeline.Summarize(view, h.settings.HighlightThreshold),
		Filters:     q.Filters(),
		Categories:  pipeline.DistinctValues(res, pipeline.ColCategory),
		Stores:      pipeline.DistinctValues(res, pipeline.ColStoreID),
		Top:         q.Top,
		Columns:     table.Columns,
		Rows:        rows,
		DownloadURL: h.downloadURL(res, q),
	})
}

// Download exports the filtered view of one upload as CSV.
func (h *Controller) Download(c *gin.Context) {
	res, ok := h.lookup(c, true)
	if !ok {
		return
	}
	q, ok := h.bindView(c, true)
	if !ok {
		return
	}
	h.writeCSV(c, res, q)
}

// ResultAPI returns the filtered view of one upload as JSON.
func (h *Controller) ResultAPI(c *gin.Context) {
	res, ok := h.lookup(c, true)
	if !ok {
		return
	}
	q, ok := h.bindView(c, true)
	if !ok {
		return
	}
	ginx.Success(c, h.resultPayload(res, q))
}

func (h *Controller) resultPayload(res *models.Result, q viewQuery) resultPayload {
	view := h.view(res, q)
	table := pipeline.ResultTable(view, h.settings.Format)
	return resultPayload{
		RunID:        res.RunID,
		FileName:     res.FileName,
		ModelName:    res.ModelName,
		ModelVersion: res.ModelVersion,
		Filters:      q.Filters(),
		Summary:      pipeline.Summarize(view, h.settings.HighlightThreshold),
		Table:        tablePayload{Columns: table.Columns, Rows: table.Rows},
		DownloadURL:  h.downloadURL(res, q),
	}
}
