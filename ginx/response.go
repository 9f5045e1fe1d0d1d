package ginx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"stockout-app/errorx"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data,omitempty"`
}

// Meta carries the status of a reply.
type Meta struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Stage   string        `json:"stage,omitempty"`
	Details []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail points at one invalid input.
type ErrorDetail struct {
	Path string `json:"path"`
	Info string `json:"info"`
}

// Success writes a 200 reply.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Meta: Meta{Code: http.StatusOK, Message: "OK"},
		Data: data,
	})
}

// Error writes an error reply without stage information.
func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, Response{
		Meta: Meta{Code: httpCode, Message: message},
	})
}

// BadRequest is a 400 reply.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// NotFound is a 404 reply.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError is a 500 reply.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}

// BadRequestWithValidation turns binding errors into per-field details.
func BadRequestWithValidation(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]ErrorDetail, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details = append(details, ErrorDetail{
				Path: fieldErr.Field(),
				Info: validationMessage(fieldErr),
			})
		}
		c.JSON(http.StatusBadRequest, Response{
			Meta: Meta{Code: http.StatusBadRequest, Message: "Validation failed", Details: details},
		})
		return
	}
	BadRequest(c, err.Error())
}

// RetryAfterSeconds is advertised when the scoring artifact is unavailable.
const RetryAfterSeconds = "30"

// PipelineError maps a pipeline failure to a status code and names the stage
// that failed. Failures outside the upload itself ask the client to retry.
func PipelineError(c *gin.Context, err error) {
	code := StatusFor(err)
	if !errorx.IsUploadScoped(err) && code == http.StatusServiceUnavailable {
		c.Header("Retry-After", RetryAfterSeconds)
	}
	c.JSON(code, Response{
		Meta: Meta{Code: code, Message: err.Error(), Stage: errorx.StageOf(err)},
	})
}

// StatusFor picks the HTTP status for a pipeline error.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errorx.ErrSchema):
		return http.StatusBadRequest
	case errors.Is(err, errorx.ErrPrediction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errorx.ErrFetch), errors.Is(err, errorx.ErrDeserialization):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "min":
		return fieldErr.Field() + " must be at least " + fieldErr.Param()
	case "max":
		return fieldErr.Field() + " must be at most " + fieldErr.Param()
	default:
		return fieldErr.Field() + " is invalid"
	}
}
