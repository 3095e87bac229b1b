package domain

import "time"

type Post struct {
	Rev         string    `json:"_rev,omitempty"`
	Kind        string    `json:"kind"`
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Tags        []string  `json:"tags"`
	Likes       []string  `json:"likes"`
	Created     time.Time `json:"created"`
}

type SavedPost struct {
	Rev       string    `json:"_rev,omitempty"`
	Kind      string    `json:"kind"`
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

func SavedPostID(userID, postID string) string {
	return userID + ":" + postID
}

type CreatePostRequest struct {
	Title       string   `validate:"required,max=100"`
	Description string   `validate:"max=2200"`
	Tags        []string `validate:"max=30,dive,max=50"`
}

type SavePostRequest struct {
	PostID string `json:"post_id" validate:"required"`
}

type SaveResponse struct {
	Saved bool `json:"saved"`
}

type LikeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likes_count"`
}

type PostResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Tags        []string  `json:"tags"`
	LikesCount  int       `json:"likes_count"`
	IsLiked     bool      `json:"is_liked"`
	IsSaved     bool      `json:"is_saved"`
	Created     time.Time `json:"created"`
}

type PostsResponse struct {
	Posts []*PostResponse `json:"posts"`
}
