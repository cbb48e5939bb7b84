package models

import (
	"errors"
	"fmt"
)

// CommentTree stores comments in an arena keyed by id. Replies are attached by
// parent id rather than by position, so sibling lists can grow independently.
type CommentTree struct {
	nodes   map[string]*treeNode
	rootIDs []string
}

type treeNode struct {
	comment  Comment
	children []string
}

// NewCommentTree creates an empty tree
func NewCommentTree() *CommentTree {
	return &CommentTree{nodes: make(map[string]*treeNode)}
}

// AddRoot adds a top-level comment with its replies. A duplicate root id is
// ignored and reports false. Replies that cannot be attached are skipped and
// reported in the error; the root itself is still added.
func (t *CommentTree) AddRoot(c Comment) (bool, error) {
	if _, exists := t.nodes[c.ID]; exists {
		return false, nil
	}
	t.nodes[c.ID] = &treeNode{comment: withoutReplies(c)}
	t.rootIDs = append(t.rootIDs, c.ID)

	var errs []error
	for _, reply := range c.Replies {
		if err := t.AppendChild(c.ID, reply); err != nil {
			errs = append(errs, err)
		}
	}
	return true, errors.Join(errs...)
}

// AppendChild attaches child under the comment with parentID
func (t *CommentTree) AppendChild(parentID string, child Comment) error {
	parent, ok := t.nodes[parentID]
	if !ok {
		return fmt.Errorf("parent comment %q not found", parentID)
	}
	if _, exists := t.nodes[child.ID]; exists {
		return fmt.Errorf("comment %q already in tree", child.ID)
	}
	t.nodes[child.ID] = &treeNode{comment: withoutReplies(child)}
	parent.children = append(parent.children, child.ID)
	for _, reply := range child.Replies {
		if err := t.AppendChild(child.ID, reply); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of top-level comments
func (t *CommentTree) Len() int {
	return len(t.rootIDs)
}

// Roots returns the top-level comments in insertion order with nested replies
func (t *CommentTree) Roots() []Comment {
	roots := make([]Comment, 0, len(t.rootIDs))
	for _, id := range t.rootIDs {
		roots = append(roots, t.build(id))
	}
	return roots
}

func (t *CommentTree) build(id string) Comment {
	node := t.nodes[id]
	c := node.comment
	if len(node.children) > 0 {
		c.Replies = make([]Comment, 0, len(node.children))
		for _, childID := range node.children {
			c.Replies = append(c.Replies, t.build(childID))
		}
	}
	return c
}

func withoutReplies(c Comment) Comment {
	c.Replies = nil
	return c
}
