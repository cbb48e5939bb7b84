package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"comment-digest/internal/config"
	"comment-digest/internal/models"
)

// YouTubeRepository handles YouTube Data API interactions
type YouTubeRepository struct {
	config *config.YouTubeConfig
	client *http.Client
}

// NewYouTubeRepository creates a new YouTube repository
func NewYouTubeRepository(youtubeConfig *config.YouTubeConfig) *YouTubeRepository {
	return &YouTubeRepository{
		config: youtubeConfig,
		client: &http.Client{
			Timeout: time.Duration(youtubeConfig.TimeoutSeconds) * time.Second,
		},
	}
}

// ListCommentThreads fetches one page of top-level comments ordered by relevance.
// Any failure is returned as a *models.PipelineError carrying a YouTube error code.
func (r *YouTubeRepository) ListCommentThreads(ctx context.Context, apiKey, videoID, pageToken string, pageSize int) (*models.CommentPage, error) {
	params := url.Values{}
	params.Set("part", "snippet,replies")
	params.Set("videoId", videoID)
	params.Set("key", apiKey)
	params.Set("maxResults", strconv.Itoa(pageSize))
	params.Set("order", "relevance")
	params.Set("textFormat", "plainText")
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	endpoint := fmt.Sprintf("%s/commentThreads?%s", strings.TrimRight(r.config.BaseURL, "/"), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrYouTubeUnknown, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, models.NewPipelineError(models.ErrYouTubeUnknown, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		code, reason := mapResponseError(resp.StatusCode, extractReasons(body))
		return nil, models.NewPipelineError(
			code,
			fmt.Errorf("YouTube API returned status %d (reason %q)", resp.StatusCode, reason),
		)
	}

	var listResp models.YouTubeThreadListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, models.NewPipelineError(models.ErrYouTubeUnknown, fmt.Errorf("failed to decode response: %w", err))
	}

	page := &models.CommentPage{
		Comments:      make([]models.Comment, 0, len(listResp.Items)),
		NextPageToken: listResp.NextPageToken,
	}
	for _, thread := range listResp.Items {
		page.Comments = append(page.Comments, threadToComment(thread))
	}

	return page, nil
}

// MapYouTubeError maps an HTTP status and API reason string to an error code
func MapYouTubeError(statusCode int, reason string) models.ErrorCode {
	if code, ok := reasonCode(reason); ok {
		return code
	}
	return statusError(statusCode)
}

// mapResponseError maps the first recognised reason, in body order, and falls
// back to the status when none is known. It also returns the reason used.
func mapResponseError(statusCode int, reasons []string) (models.ErrorCode, string) {
	for _, reason := range reasons {
		if code, ok := reasonCode(reason); ok {
			return code, reason
		}
	}
	first := ""
	if len(reasons) > 0 {
		first = reasons[0]
	}
	return statusError(statusCode), first
}

func reasonCode(reason string) (models.ErrorCode, bool) {
	switch reason {
	case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded", "userRateLimitExceeded", "RATE_LIMIT_EXCEEDED":
		return models.ErrYouTubeQuotaExceeded, true
	case "videoNotFound", "notFound":
		return models.ErrYouTubeVideoNotFound, true
	case "commentsDisabled":
		return models.ErrYouTubeCommentsDisabled, true
	case "keyInvalid", "keyExpired", "API_KEY_INVALID", "API_KEY_EXPIRED":
		return models.ErrYouTubeInvalidKey, true
	case "forbidden", "accessNotConfigured", "ipRefererBlocked", "SERVICE_DISABLED":
		return models.ErrYouTubeForbidden, true
	}
	return "", false
}

func statusError(statusCode int) models.ErrorCode {
	switch statusCode {
	case http.StatusNotFound:
		return models.ErrYouTubeVideoNotFound
	case http.StatusForbidden:
		return models.ErrYouTubeForbidden
	case http.StatusTooManyRequests:
		return models.ErrYouTubeQuotaExceeded
	}

	return models.ErrYouTubeUnknown
}

// extractReasons collects every reason string in an error body. Structured
// ErrorInfo details come before the legacy errors list.
func extractReasons(body []byte) []string {
	var errResp models.YouTubeErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return nil
	}

	var reasons []string
	for _, detail := range errResp.Error.Details {
		if detail.Reason != "" {
			reasons = append(reasons, detail.Reason)
		}
	}
	for _, e := range errResp.Error.Errors {
		if e.Reason != "" {
			reasons = append(reasons, e.Reason)
		}
	}
	return reasons
}

func threadToComment(thread models.YouTubeCommentThread) models.Comment {
	top := thread.Snippet.TopLevelComment
	id := top.ID
	if id == "" {
		id = thread.ID
	}

	comment := models.Comment{
		ID:     id,
		Author: top.Snippet.AuthorDisplayName,
		Text:   commentText(top.Snippet),
	}

	if thread.Replies != nil {
		for _, reply := range thread.Replies.Comments {
			comment.Replies = append(comment.Replies, models.Comment{
				ID:     reply.ID,
				Author: reply.Snippet.AuthorDisplayName,
				Text:   commentText(reply.Snippet),
			})
		}
	}

	return comment
}

func commentText(snippet models.YouTubeCommentSnippet) string {
	if snippet.TextOriginal != "" {
		return snippet.TextOriginal
	}
	return snippet.TextDisplay
}
