package services

import (
	"context"
	"errors"
	"fmt"

	"comment-digest/internal/config"
	"comment-digest/internal/helpers"
	"comment-digest/internal/models"
	"comment-digest/internal/repositories"
)

// CommentSource returns one page of top-level comments for a video
type CommentSource interface {
	ListCommentThreads(ctx context.Context, apiKey, videoID, pageToken string, pageSize int) (*models.CommentPage, error)
}

// CommentService paginates the comment source
type CommentService struct {
	source   CommentSource
	pageSize int
}

// NewCommentService creates a comment service backed by the YouTube Data API
func NewCommentService(youtubeConfig *config.YouTubeConfig) *CommentService {
	return NewCommentServiceWithSource(repositories.NewYouTubeRepository(youtubeConfig), youtubeConfig.PageSize)
}

// NewCommentServiceWithSource creates a comment service over any source
func NewCommentServiceWithSource(source CommentSource, pageSize int) *CommentService {
	if pageSize <= 0 || pageSize > config.DefaultPageSize {
		pageSize = config.DefaultPageSize
	}
	return &CommentService{source: source, pageSize: pageSize}
}

// FetchComments follows continuation tokens until maxComments top-level
// comments are collected or the source runs out. The result is truncated to
// maxComments. Any page failure aborts the fetch; no partial result is
// returned. A cancelled context is returned as the context error.
func (s *CommentService) FetchComments(ctx context.Context, videoID, apiKey string, maxComments int) ([]models.Comment, error) {
	if maxComments <= 0 {
		return []models.Comment{}, nil
	}

	tree := models.NewCommentTree()
	seenTokens := make(map[string]struct{})
	pageToken := ""
	pages := 0

	for tree.Len() < maxComments {
		page, err := s.source.ListCommentThreads(ctx, apiKey, videoID, pageToken, s.pageSize)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			var pipelineErr *models.PipelineError
			if errors.As(err, &pipelineErr) {
				return nil, err
			}
			return nil, models.NewPipelineError(models.ErrYouTubeUnknown, fmt.Errorf("failed to fetch comments: %w", err))
		}
		pages++

		for _, c := range page.Comments {
			if _, err := tree.AddRoot(c); err != nil {
				helpers.PrintWarning("Skipped replies of comment %s: %v", c.ID, err)
			}
		}
		helpers.PrintInfo("Fetched page %d (%d/%d comments)", pages, min(tree.Len(), maxComments), maxComments)

		if page.NextPageToken == "" {
			break
		}
		if _, repeated := seenTokens[page.NextPageToken]; repeated {
			helpers.PrintWarning("Comment source repeated page token %q, stopping", page.NextPageToken)
			break
		}
		seenTokens[page.NextPageToken] = struct{}{}
		pageToken = page.NextPageToken
	}

	comments := tree.Roots()
	if len(comments) > maxComments {
		comments = comments[:maxComments]
	}
	return comments, nil
}
