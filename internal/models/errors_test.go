package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineError(t *testing.T) {
	cause := errors.New("status 403")
	err := fmt.Errorf("fetch: %w", NewPipelineError(ErrYouTubeQuotaExceeded, cause))

	var pipelineErr *PipelineError
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, ErrYouTubeQuotaExceeded, pipelineErr.Code)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "YOUTUBE_QUOTA_EXCEEDED")
	assert.Contains(t, err.Error(), "quota")
}

func TestPipelineError_WithoutCause(t *testing.T) {
	err := NewPipelineError(ErrMissingAPIKey, nil)

	assert.Nil(t, err.Unwrap())
	assert.Equal(t, "MISSING_API_KEY: "+ErrorMessage(ErrMissingAPIKey), err.Error())
}

func TestErrorMessage_UnknownCode(t *testing.T) {
	assert.Equal(t, "SOMETHING_ELSE", ErrorMessage(ErrorCode("SOMETHING_ELSE")))
}
