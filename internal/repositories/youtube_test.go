package repositories

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"comment-digest/internal/config"
	"comment-digest/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threadsResponse = `{
	"nextPageToken": "page-2",
	"items": [
		{
			"id": "thread-1",
			"snippet": {
				"topLevelComment": {
					"id": "c1",
					"snippet": {"authorDisplayName": "Ann", "textDisplay": "Great &amp; clear", "textOriginal": "Great & clear"}
				},
				"totalReplyCount": 1
			},
			"replies": {
				"comments": [
					{"id": "c1.r1", "snippet": {"authorDisplayName": "Bob", "textDisplay": "agreed", "parentId": "c1"}}
				]
			}
		},
		{
			"id": "thread-2",
			"snippet": {
				"topLevelComment": {
					"snippet": {"authorDisplayName": "Cy", "textDisplay": "Too loud"}
				}
			}
		}
	]
}`

func newTestRepository(baseURL string) *YouTubeRepository {
	cfg := config.Default().YouTube
	cfg.BaseURL = baseURL
	return NewYouTubeRepository(&cfg)
}

func TestYouTubeRepository_ListCommentThreads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/commentThreads", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "snippet,replies", query.Get("part"))
		assert.Equal(t, "vid123", query.Get("videoId"))
		assert.Equal(t, "secret", query.Get("key"))
		assert.Equal(t, "50", query.Get("maxResults"))
		assert.Equal(t, "relevance", query.Get("order"))
		assert.Equal(t, "plainText", query.Get("textFormat"))
		assert.Equal(t, "page-1", query.Get("pageToken"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(threadsResponse))
	}))
	defer server.Close()

	page, err := newTestRepository(server.URL+"/").ListCommentThreads(context.Background(), "secret", "vid123", "page-1", 50)
	require.NoError(t, err)

	assert.Equal(t, "page-2", page.NextPageToken)
	require.Len(t, page.Comments, 2)

	first := page.Comments[0]
	assert.Equal(t, "c1", first.ID)
	assert.Equal(t, "Ann", first.Author)
	assert.Equal(t, "Great & clear", first.Text)
	assert.Equal(t, []models.Comment{{ID: "c1.r1", Author: "Bob", Text: "agreed"}}, first.Replies)

	second := page.Comments[1]
	assert.Equal(t, "thread-2", second.ID, "falls back to the thread id")
	assert.Equal(t, "Too loud", second.Text)
	assert.Empty(t, second.Replies)
}

func TestYouTubeRepository_OmitsEmptyPageToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["pageToken"]
		assert.False(t, present)
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	page, err := newTestRepository(server.URL).ListCommentThreads(context.Background(), "secret", "vid", "", 100)
	require.NoError(t, err)
	assert.Empty(t, page.Comments)
	assert.Empty(t, page.NextPageToken)
}

func TestYouTubeRepository_ErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   models.ErrorCode
	}{
		{
			name:   "quota exceeded",
			status: http.StatusForbidden,
			body:   `{"error": {"code": 403, "errors": [{"reason": "quotaExceeded", "domain": "youtube.quota"}]}}`,
			want:   models.ErrYouTubeQuotaExceeded,
		},
		{
			name:   "comments disabled",
			status: http.StatusForbidden,
			body:   `{"error": {"code": 403, "errors": [{"reason": "commentsDisabled"}]}}`,
			want:   models.ErrYouTubeCommentsDisabled,
		},
		{
			name:   "video not found",
			status: http.StatusNotFound,
			body:   `{"error": {"code": 404, "errors": [{"reason": "videoNotFound"}]}}`,
			want:   models.ErrYouTubeVideoNotFound,
		},
		{
			name:   "invalid key from details",
			status: http.StatusBadRequest,
			body:   `{"error": {"code": 400, "errors": [{"reason": "badRequest"}], "details": [{"reason": "API_KEY_INVALID"}]}}`,
			want:   models.ErrYouTubeInvalidKey,
		},
		{
			name:   "legacy reason wins over unmapped detail",
			status: http.StatusForbidden,
			body:   `{"error": {"code": 403, "errors": [{"reason": "quotaExceeded"}], "details": [{"reason": "ACCESS_DENIED"}]}}`,
			want:   models.ErrYouTubeQuotaExceeded,
		},
		{
			name:   "only unmapped reasons fall back to status",
			status: http.StatusForbidden,
			body:   `{"error": {"code": 403, "errors": [{"reason": "somethingNew"}], "details": [{"reason": "ACCESS_DENIED"}]}}`,
			want:   models.ErrYouTubeForbidden,
		},
		{
			name:   "forbidden without reason",
			status: http.StatusForbidden,
			body:   `not json`,
			want:   models.ErrYouTubeForbidden,
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{}`,
			want:   models.ErrYouTubeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			page, err := newTestRepository(server.URL).ListCommentThreads(context.Background(), "secret", "vid", "", 100)
			assert.Nil(t, page)

			var pipelineErr *models.PipelineError
			require.ErrorAs(t, err, &pipelineErr)
			assert.Equal(t, tt.want, pipelineErr.Code)
		})
	}
}

func TestYouTubeRepository_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [`))
	}))
	defer server.Close()

	_, err := newTestRepository(server.URL).ListCommentThreads(context.Background(), "secret", "vid", "", 100)

	var pipelineErr *models.PipelineError
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, models.ErrYouTubeUnknown, pipelineErr.Code)
}

func TestMapYouTubeError(t *testing.T) {
	tests := []struct {
		status int
		reason string
		want   models.ErrorCode
	}{
		{http.StatusForbidden, "dailyLimitExceeded", models.ErrYouTubeQuotaExceeded},
		{http.StatusForbidden, "rateLimitExceeded", models.ErrYouTubeQuotaExceeded},
		{http.StatusTooManyRequests, "", models.ErrYouTubeQuotaExceeded},
		{http.StatusNotFound, "", models.ErrYouTubeVideoNotFound},
		{http.StatusBadRequest, "keyExpired", models.ErrYouTubeInvalidKey},
		{http.StatusForbidden, "accessNotConfigured", models.ErrYouTubeForbidden},
		{http.StatusForbidden, "somethingNew", models.ErrYouTubeForbidden},
		{http.StatusBadRequest, "", models.ErrYouTubeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapYouTubeError(tt.status, tt.reason), "%d %q", tt.status, tt.reason)
	}
}

func TestExtractReasons(t *testing.T) {
	body := []byte(`{"error": {"errors": [{"reason": "quotaExceeded"}, {"reason": ""}], "details": [{"reason": "ACCESS_DENIED"}]}}`)
	assert.Equal(t, []string{"ACCESS_DENIED", "quotaExceeded"}, extractReasons(body))
	assert.Nil(t, extractReasons([]byte(`<html>`)))

	code, reason := mapResponseError(http.StatusForbidden, extractReasons(body))
	assert.Equal(t, models.ErrYouTubeQuotaExceeded, code)
	assert.Equal(t, "quotaExceeded", reason)
}
