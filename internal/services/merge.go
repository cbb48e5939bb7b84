package services

import (
	"sort"
	"strings"

	"comment-digest/internal/models"

	"github.com/google/uuid"
)

// ResultMerger accumulates per-batch category proposals into one consistent
// category set keyed by exact categoryTitle. It is not safe for concurrent
// use; a run feeds it from a single consumer.
type ResultMerger struct {
	categories map[string]*mergedCategory
	order      []string
	newID      func() string
}

type mergedCategory struct {
	category models.Category
	seen     map[string]struct{}
}

// NewResultMerger creates an empty merger
func NewResultMerger() *ResultMerger {
	return &ResultMerger{
		categories: make(map[string]*mergedCategory),
		newID:      uuid.NewString,
	}
}

// Reset discards every category
func (m *ResultMerger) Reset() {
	m.categories = make(map[string]*mergedCategory)
	m.order = nil
}

// Merge folds one batch's proposals into the set and returns how many
// comments were newly placed. Malformed proposals and comments are dropped.
// Replaying an already merged batch adds nothing.
func (m *ResultMerger) Merge(incoming []models.ProposedCategory) int {
	added := 0
	for _, proposal := range incoming {
		if strings.TrimSpace(proposal.CategoryTitle) == "" {
			continue
		}

		comments := validComments(proposal.Comments)
		if len(comments) == 0 {
			continue
		}

		existing, ok := m.categories[proposal.CategoryTitle]
		if !ok {
			existing = &mergedCategory{
				category: models.Category{
					ID:            m.newID(),
					CategoryTitle: proposal.CategoryTitle,
					Summary:       proposal.Summary,
				},
				seen: make(map[string]struct{}),
			}
			m.categories[proposal.CategoryTitle] = existing
			m.order = append(m.order, proposal.CategoryTitle)
		} else if existing.category.Summary == "" {
			existing.category.Summary = proposal.Summary
		}

		for _, c := range comments {
			if _, dup := existing.seen[c.ID]; dup {
				continue
			}
			existing.seen[c.ID] = struct{}{}
			existing.category.Comments = append(existing.category.Comments, c)
			added++
		}
	}
	return added
}

// Len returns the number of categories
func (m *ResultMerger) Len() int {
	return len(m.order)
}

// Categories returns a copy of the category set ordered by descending comment
// count, ties broken by first appearance. Comment order within a category is
// the order in which comments were merged.
func (m *ResultMerger) Categories() []models.Category {
	result := make([]models.Category, 0, len(m.order))
	for _, title := range m.order {
		c := m.categories[title].category
		c.Comments = append([]models.Comment(nil), c.Comments...)
		result = append(result, c)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return len(result[i].Comments) > len(result[j].Comments)
	})
	return result
}

// RecentTitles returns up to n of the most recently introduced titles,
// oldest first
func (m *ResultMerger) RecentTitles(n int) []string {
	if n <= 0 {
		return nil
	}
	start := len(m.order) - n
	if start < 0 {
		start = 0
	}
	return append([]string(nil), m.order[start:]...)
}

// validComments keeps only comment records with an id and text
func validComments(proposed []models.ProposedComment) []models.Comment {
	comments := make([]models.Comment, 0, len(proposed))
	for _, p := range proposed {
		if p.ID == "" || strings.TrimSpace(p.Text) == "" {
			continue
		}
		comments = append(comments, models.Comment{ID: p.ID, Author: p.Author, Text: p.Text})
	}
	return comments
}
