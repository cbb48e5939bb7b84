package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"comment-digest/internal/config"
	"comment-digest/internal/helpers"
	"comment-digest/internal/models"
)

// ErrSchemaMismatch is returned when the oracle answers with JSON that holds
// no usable category
var ErrSchemaMismatch = errors.New("oracle response does not match the category schema")

// Categorizer groups one batch of comments into categories
type Categorizer interface {
	CategorizeBatch(ctx context.Context, req models.CategorizationRequest) ([]models.ProposedCategory, error)
}

// AIService categorizes comment batches with the Anthropic Messages API
type AIService struct {
	config *config.AnthropicConfig
	client *http.Client
}

// NewAIService creates a new AI service
func NewAIService(anthropicConfig *config.AnthropicConfig) *AIService {
	return &AIService{
		config: anthropicConfig,
		client: &http.Client{
			Timeout: time.Duration(anthropicConfig.TimeoutSeconds) * time.Second,
		},
	}
}

// CategorizeBatch categorizes a batch, retrying up to the configured count
func (s *AIService) CategorizeBatch(ctx context.Context, req models.CategorizationRequest) ([]models.ProposedCategory, error) {
	attempts := s.config.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		categories, err := s.categorize(ctx, req)
		if err == nil {
			return categories, nil
		}

		lastErr = err
		if attempt == attempts || ctx.Err() != nil {
			break
		}

		helpers.PrintWarning("Batch %d attempt %d/%d failed: %v", req.Batch.Index, attempt, attempts, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(s.config.RetryDelaySeconds) * time.Second):
		}
	}

	if attempts > 1 {
		return nil, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
	}
	return nil, lastErr
}

func (s *AIService) categorize(ctx context.Context, req models.CategorizationRequest) ([]models.ProposedCategory, error) {
	prompt, err := buildCategorizationPrompt(req)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"model":      s.config.Model,
		"max_tokens": s.config.MaxTokens,
		"messages": []map[string]string{
			{
				"role":    "user",
				"content": prompt,
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := strings.TrimRight(s.config.BaseURL, "/") + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", s.config.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var apiResponse struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return nil, fmt.Errorf("failed to decode API response: %w", err)
	}

	var text strings.Builder
	for _, block := range apiResponse.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("empty response from API")
	}

	return ParseCategories(text.String())
}

type promptComment struct {
	ID     string `json:"id"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

func buildCategorizationPrompt(req models.CategorizationRequest) (string, error) {
	comments := make([]promptComment, 0, len(req.Batch.Comments))
	for _, c := range req.Batch.Comments {
		comments = append(comments, promptComment{ID: c.ID, Author: c.Author, Text: c.Text})
	}
	commentsJSON, err := json.Marshal(comments)
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch: %w", err)
	}

	hints := "none yet"
	if len(req.ExistingTitles) > 0 {
		quoted := make([]string, len(req.ExistingTitles))
		for i, title := range req.ExistingTitles {
			quoted[i] = fmt.Sprintf("%q", title)
		}
		hints = strings.Join(quoted, ", ")
	}

	return fmt.Sprintf(`You are analyzing batch %d of %d from the comment section of a video. Group the substantive comments into discussion threads.

Existing category titles from earlier batches: %s
Reuse an existing title verbatim whenever a comment fits it. Only introduce a new title for a genuinely new topic.

Comments (JSON):
%s

Please respond with a JSON array that follows this exact structure:
[
  {
    "categoryTitle": "Short topic title",
    "summary": "One or two sentences describing what commenters say about this topic",
    "comments": [
      {"id": "comment id copied exactly", "author": "author", "text": "comment text"}
    ]
  }
]

Guidelines:
- Write every categoryTitle and summary in %s
- Copy comment ids exactly as given; never invent ids
- Leave out comments that are jokes, off-topic, or add nothing to the discussion
- Each comment should appear in at most one category

Respond ONLY with valid JSON. Do not include any markdown formatting or explanations.`,
		req.Batch.Index, req.TotalBatches, hints, string(commentsJSON), req.TargetLanguage), nil
}

// ParseCategories parses an oracle answer. The answer must be a JSON array.
// Elements and comments with the wrong shape are dropped; if no element is
// usable the answer is rejected with ErrSchemaMismatch.
func ParseCategories(responseText string) ([]models.ProposedCategory, error) {
	responseText = stripCodeFence(responseText)

	var elements []json.RawMessage
	if err := json.Unmarshal([]byte(responseText), &elements); err != nil {
		return nil, fmt.Errorf("failed to parse AI response as JSON array: %w", err)
	}
	if elements == nil {
		return nil, fmt.Errorf("AI response is null, expected a JSON array")
	}

	categories := make([]models.ProposedCategory, 0, len(elements))
	for _, element := range elements {
		var raw struct {
			CategoryTitle string            `json:"categoryTitle"`
			Summary       string            `json:"summary"`
			Comments      []json.RawMessage `json:"comments"`
		}
		if err := json.Unmarshal(element, &raw); err != nil {
			continue
		}
		if strings.TrimSpace(raw.CategoryTitle) == "" || raw.Comments == nil {
			continue
		}

		category := models.ProposedCategory{
			CategoryTitle: raw.CategoryTitle,
			Summary:       raw.Summary,
			Comments:      make([]models.ProposedComment, 0, len(raw.Comments)),
		}
		for _, rawComment := range raw.Comments {
			var comment models.ProposedComment
			if err := json.Unmarshal(rawComment, &comment); err != nil {
				continue
			}
			category.Comments = append(category.Comments, comment)
		}
		categories = append(categories, category)
	}

	if len(elements) > 0 && len(categories) == 0 {
		return nil, ErrSchemaMismatch
	}
	return categories, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
