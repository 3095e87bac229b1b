package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var resp struct {
		Msg  string `json:"msg"`
		User User   `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Login stores the access token on the client; the refresh token stays in the cookie jar.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	body := map[string]string{"username": username, "password": password}
	var session Session
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", nil, body, &session); err != nil {
		return nil, err
	}
	c.SetToken(session.Access)
	return &session, nil
}

func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	var session Session
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", nil, nil, &session); err != nil {
		return nil, err
	}
	c.SetToken(session.Access)
	return &session, nil
}

func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) GetProfile(ctx context.Context, username string) (*Profile, error) {
	var profile Profile
	path := "/api/users/profile/" + url.PathEscape(username)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) UpdateProfile(ctx context.Context, username string, update ProfileUpdate) (*Profile, error) {
	var profile Profile
	path := "/api/users/profile/" + url.PathEscape(username)
	if err := c.doJSON(ctx, http.MethodPut, path, nil, update, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *Client) Follow(ctx context.Context, userID string) (*FollowResult, error) {
	var res FollowResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/follow/"+url.PathEscape(userID), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Unfollow(ctx context.Context, userID string) (*FollowResult, error) {
	var res FollowResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/users/unfollow/"+url.PathEscape(userID), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Posts(ctx context.Context) ([]Post, error) {
	var posts []Post
	if err := c.doJSON(ctx, http.MethodGet, "/api/posts", nil, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (c *Client) PostsByUser(ctx context.Context, username string) ([]Post, error) {
	var resp struct {
		Posts []Post `json:"posts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/posts/user/"+url.PathEscape(username), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

func (c *Client) SavedPosts(ctx context.Context) ([]Post, error) {
	var resp struct {
		Posts []Post `json:"posts"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/posts/saved/", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

// SavePost toggles the saved flag and returns the server's value.
func (c *Client) SavePost(ctx context.Context, postID string) (bool, error) {
	var resp struct {
		Saved bool `json:"saved"`
	}
	body := map[string]string{"post_id": postID}
	if err := c.doJSON(ctx, http.MethodPost, "/api/posts/saved/", nil, body, &resp); err != nil {
		return false, err
	}
	return resp.Saved, nil
}

func (c *Client) LikePost(ctx context.Context, postID string) (*LikeResult, error) {
	var res LikeResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(postID)+"/like", nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) CreatePost(ctx context.Context, p NewPost) (*Post, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"title":       p.Title,
		"description": p.Description,
		"tags":        strings.Join(p.Tags, ","),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	if len(p.Image) > 0 {
		name := p.ImageName
		if name == "" {
			name = "image"
		}
		fw, err := mw.CreateFormFile("image", name)
		if err != nil {
			return nil, fmt.Errorf("failed to create image part: %w", err)
		}
		if _, err := fw.Write(p.Image); err != nil {
			return nil, fmt.Errorf("failed to write image: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var post Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", nil, &buf, mw.FormDataContentType(), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) Comments(ctx context.Context, postID string) ([]Comment, error) {
	var comments []Comment
	if err := c.doJSON(ctx, http.MethodGet, "/api/posts/"+url.PathEscape(postID)+"/comments", nil, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *Client) CreateComment(ctx context.Context, postID, body, parent string) (*Comment, error) {
	req := map[string]string{"body": body}
	if parent != "" {
		req["parent"] = parent
	}
	var comment Comment
	if err := c.doJSON(ctx, http.MethodPost, "/api/posts/"+url.PathEscape(postID)+"/comments", nil, req, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) SetCommentPinned(ctx context.Context, commentID string, pinned bool) (*Comment, error) {
	var comment Comment
	body := map[string]bool{"pinned": pinned}
	if err := c.doJSON(ctx, http.MethodPut, "/api/comments/"+url.PathEscape(commentID), nil, body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/comments/"+url.PathEscape(commentID), nil, nil, nil)
}
