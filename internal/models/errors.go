package models

import "fmt"

// ErrorCode is a stable, machine-readable failure code
type ErrorCode string

const (
	ErrMissingAPIKey           ErrorCode = "MISSING_API_KEY"
	ErrYouTubeQuotaExceeded    ErrorCode = "YOUTUBE_QUOTA_EXCEEDED"
	ErrYouTubeVideoNotFound    ErrorCode = "YOUTUBE_VIDEO_NOT_FOUND"
	ErrYouTubeCommentsDisabled ErrorCode = "YOUTUBE_COMMENTS_DISABLED"
	ErrYouTubeInvalidKey       ErrorCode = "YOUTUBE_INVALID_KEY"
	ErrYouTubeForbidden        ErrorCode = "YOUTUBE_FORBIDDEN"
	ErrYouTubeUnknown          ErrorCode = "YOUTUBE_UNKNOWN"
	ErrAllBatchesFailed        ErrorCode = "ALL_BATCHES_FAILED"
	ErrRunSuperseded           ErrorCode = "RUN_SUPERSEDED"
)

var errorMessages = map[ErrorCode]string{
	ErrMissingAPIKey:           "No YouTube API key configured. Add one to your config file or set YOUTUBE_API_KEY.",
	ErrYouTubeQuotaExceeded:    "The YouTube API daily quota has been exceeded. Try again later.",
	ErrYouTubeVideoNotFound:    "The video could not be found. Check the video ID.",
	ErrYouTubeCommentsDisabled: "Comments are disabled for this video.",
	ErrYouTubeInvalidKey:       "The YouTube API key is invalid. Check your key.",
	ErrYouTubeForbidden:        "Access to this video's comments is forbidden.",
	ErrYouTubeUnknown:          "The YouTube API returned an unexpected error.",
	ErrAllBatchesFailed:        "All batches failed during categorization.",
	ErrRunSuperseded:           "The analysis was superseded by a newer run.",
}

// ErrorMessage returns the human-readable message for a code
func ErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return string(code)
}

// PipelineError is a fatal, typed failure of an analysis run
type PipelineError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// NewPipelineError creates a pipeline error with the default message for code
func NewPipelineError(code ErrorCode, err error) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: ErrorMessage(code),
		Err:     err,
	}
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
