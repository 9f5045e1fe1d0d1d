package errorx

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageError_IsMatchesKindAndCause(t *testing.T) {
	err := New(StageScore, ErrPrediction, io.ErrUnexpectedEOF)

	assert.ErrorIs(t, err, ErrPrediction)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrSchema)
	assert.Equal(t, "score: prediction failed: unexpected EOF", err.Error())
}

func TestStageOf(t *testing.T) {
	err := Newf(StageNormalize, ErrSchema, "table has %d rows", 0)
	wrapped := errors.Join(errors.New("upload inventory.csv"), err)

	assert.Equal(t, StageNormalize, StageOf(wrapped))
	assert.Equal(t, "", StageOf(io.EOF))
}

func TestKindName(t *testing.T) {
	cases := map[string]error{
		"fetch":           New(StageLoad, ErrFetch, nil),
		"deserialization": New(StageLoad, ErrDeserialization, nil),
		"schema":          New(StageRead, ErrSchema, nil),
		"prediction":      New(StageScore, ErrPrediction, nil),
		"export":          New(StageExport, ErrExport, nil),
		"internal":        io.EOF,
	}
	for want, err := range cases {
		assert.Equal(t, want, KindName(err))
	}
}

func TestIsUploadScoped(t *testing.T) {
	assert.True(t, IsUploadScoped(New(StageRead, ErrSchema, nil)))
	assert.True(t, IsUploadScoped(New(StageScore, ErrPrediction, nil)))
	assert.False(t, IsUploadScoped(New(StageLoad, ErrFetch, nil)))
	assert.False(t, IsUploadScoped(New(StageLoad, ErrDeserialization, nil)))
}
