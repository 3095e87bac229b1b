package domain

import "time"

type Comment struct {
	Rev              string    `json:"_rev,omitempty"`
	Kind             string    `json:"kind"`
	ID               string    `json:"id"`
	PostID           string    `json:"post_id"`
	UserID           string    `json:"user_id"`
	Parent           string    `json:"parent,omitempty"`
	TopLevelParentID string    `json:"top_level_parent_id,omitempty"`
	Body             string    `json:"body"`
	Pinned           bool      `json:"pinned"`
	Likes            []string  `json:"likes"`
	CreatedAt        time.Time `json:"created_at"`
}

func (c *Comment) TopLevel() bool { return c.Parent == "" }

type CreateCommentRequest struct {
	Body   string `json:"body" validate:"required,max=1000"`
	Parent string `json:"parent"`
}

type UpdateCommentRequest struct {
	Pinned *bool   `json:"pinned"`
	Body   *string `json:"body" validate:"omitempty,min=1,max=1000"`
}

type CommentResponse struct {
	ID               string    `json:"id"`
	PostID           string    `json:"post_id"`
	PostUserID       string    `json:"post_user_id"`
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	Parent           string    `json:"parent,omitempty"`
	TopLevelParentID string    `json:"top_level_parent_id,omitempty"`
	Body             string    `json:"body"`
	Pinned           bool      `json:"pinned"`
	LikesCount       int       `json:"likes_count"`
	RepliesCount     int       `json:"replies_count"`
	CreatedAt        time.Time `json:"created_at"`
}

type CommentDeleted struct {
	CommentID string `json:"comment_id"`
	PostID    string `json:"post_id"`
}
