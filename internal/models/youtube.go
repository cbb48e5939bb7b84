package models

// YouTubeThreadListResponse represents a commentThreads.list response
type YouTubeThreadListResponse struct {
	Items         []YouTubeCommentThread `json:"items"`
	NextPageToken string                 `json:"nextPageToken"`
}

// YouTubeCommentThread represents a top-level comment with its inline replies
type YouTubeCommentThread struct {
	ID      string               `json:"id"`
	Snippet YouTubeThreadSnippet `json:"snippet"`
	Replies *YouTubeReplies      `json:"replies,omitempty"`
}

// YouTubeThreadSnippet represents the snippet of a comment thread
type YouTubeThreadSnippet struct {
	TopLevelComment YouTubeComment `json:"topLevelComment"`
	TotalReplyCount int            `json:"totalReplyCount"`
}

// YouTubeReplies represents the replies part of a comment thread
type YouTubeReplies struct {
	Comments []YouTubeComment `json:"comments"`
}

// YouTubeComment represents a single comment resource
type YouTubeComment struct {
	ID      string                `json:"id"`
	Snippet YouTubeCommentSnippet `json:"snippet"`
}

// YouTubeCommentSnippet represents the snippet of a comment resource
type YouTubeCommentSnippet struct {
	AuthorDisplayName string `json:"authorDisplayName"`
	TextDisplay       string `json:"textDisplay"`
	TextOriginal      string `json:"textOriginal"`
	ParentID          string `json:"parentId,omitempty"`
}

// YouTubeErrorResponse represents a Google API error body
type YouTubeErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Domain  string `json:"domain"`
			Message string `json:"message"`
		} `json:"errors"`
		Details []struct {
			Reason string `json:"reason"`
		} `json:"details"`
	} `json:"error"`
}

// CommentPage is one page of top-level comments
type CommentPage struct {
	Comments      []Comment
	NextPageToken string
}
