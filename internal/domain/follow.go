package domain

import "time"

type Follow struct {
	Rev        string    `json:"_rev,omitempty"`
	Kind       string    `json:"kind"`
	FollowerID string    `json:"follower_id"`
	FolloweeID string    `json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func FollowID(followerID, followeeID string) string {
	return followerID + ":" + followeeID
}

type FollowResponse struct {
	UserID         string `json:"user_id"`
	IsFollowing    bool   `json:"is_following"`
	FollowersCount int    `json:"followers_count"`
}

type PostSaved struct {
	PostID string `json:"post_id"`
	Saved  bool   `json:"saved"`
}
