package ginx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockout-app/errorx"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(errorx.New(errorx.StageRead, errorx.ErrSchema, nil)))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(errorx.New(errorx.StageScore, errorx.ErrPrediction, nil)))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(errorx.New(errorx.StageLoad, errorx.ErrFetch, nil)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errorx.New(errorx.StageExport, errorx.ErrExport, nil)))
}

func TestPipelineError_NamesStage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	PipelineError(c, errorx.Newf(errorx.StageNormalize, errorx.ErrSchema, "table has no data rows"))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "normalize", resp.Meta.Stage)
	assert.Contains(t, resp.Meta.Message, "table has no data rows")
}

func TestPipelineError_RetryAfterOnlyWhenUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	PipelineError(c, errorx.Newf(errorx.StageLoad, errorx.ErrFetch, "connection refused"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, RetryAfterSeconds, w.Header().Get("Retry-After"))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	PipelineError(c, errorx.Newf(errorx.StageScore, errorx.ErrPrediction, "bad value"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, w.Header().Get("Retry-After"))
}

func TestBadRequestWithValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	type query struct {
		Top int `form:"top" binding:"min=0,max=10"`
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?top=50", nil)

	var q query
	err := c.ShouldBindQuery(&q)
	require.Error(t, err)
	BadRequestWithValidation(c, err)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Validation failed", resp.Meta.Message)
	require.Len(t, resp.Meta.Details, 1)
	assert.Equal(t, "Top must be at most 10", resp.Meta.Details[0].Info)
}
