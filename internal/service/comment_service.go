package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"photon/internal/domain"
	"photon/internal/repository"
	"photon/internal/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	publisher   Publisher
	validator   *validator.Validate
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, userRepo repository.UserRepository, publisher Publisher) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		publisher:   publisherOrNop(publisher),
		validator:   domain.NewValidator(),
	}
}

// List returns the post's comments, pinned first then newest first.
func (s *CommentService) List(ctx context.Context, postID string) ([]*domain.CommentResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post")
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	replies := make(map[string]int)
	for _, c := range comments {
		if c.Parent != "" {
			replies[c.Parent]++
		}
	}

	names := make(map[string]string)
	out := make([]*domain.CommentResponse, 0, len(comments))
	for _, c := range comments {
		resp, err := s.response(ctx, post, c, replies[c.ID], names)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *CommentService) Create(ctx context.Context, actor domain.Actor, postID string, req *domain.CreateCommentRequest) (*domain.CommentResponse, error) {
	req.Body = strings.TrimSpace(req.Body)
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post")
	}

	comment := &domain.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    actor.UserID,
		Body:      req.Body,
		Likes:     []string{},
		CreatedAt: time.Now(),
	}

	if req.Parent != "" {
		parent, err := s.commentRepo.FindByID(ctx, req.Parent)
		if err != nil {
			return nil, notFound(err, "parent comment")
		}
		if parent.PostID != postID {
			return nil, fmt.Errorf("%w: parent comment belongs to another post", ErrValidation)
		}
		comment.Parent = parent.ID
		comment.TopLevelParentID = parent.TopLevelParentID
		if comment.TopLevelParentID == "" {
			comment.TopLevelParentID = parent.ID
		}
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	resp, err := s.response(ctx, post, comment, 0, nil)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(actor.UserID, actor.DeviceID, websocket.TypeCommentUpdated, resp)
	return resp, nil
}

// Update pins or unpins a comment, or edits its body. Pinning is reserved to
// the post owner and to top-level comments; editing to the author.
func (s *CommentService) Update(ctx context.Context, actor domain.Actor, id string, req *domain.UpdateCommentRequest) (*domain.CommentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.Pinned == nil && req.Body == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "comment")
	}
	post, err := s.postRepo.FindByID(ctx, comment.PostID)
	if err != nil {
		return nil, notFound(err, "post")
	}

	if req.Pinned != nil {
		if post.UserID != actor.UserID {
			return nil, fmt.Errorf("%w: only the post owner can pin comments", ErrForbidden)
		}
		if !comment.TopLevel() {
			return nil, fmt.Errorf("%w: replies cannot be pinned", ErrForbidden)
		}
		comment.Pinned = *req.Pinned
	}
	if req.Body != nil {
		if comment.UserID != actor.UserID {
			return nil, fmt.Errorf("%w: only the author can edit a comment", ErrForbidden)
		}
		comment.Body = strings.TrimSpace(*req.Body)
	}

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: comment changed concurrently", ErrConflict)
		}
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	replies, err := s.commentRepo.ListReplies(ctx, comment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count replies: %w", err)
	}
	direct := 0
	for _, r := range replies {
		if r.Parent == comment.ID {
			direct++
		}
	}

	resp, err := s.response(ctx, post, comment, direct, nil)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(actor.UserID, actor.DeviceID, websocket.TypeCommentUpdated, resp)
	return resp, nil
}

// Delete removes a comment and every reply beneath it. Allowed for the post
// owner and the comment's author.
func (s *CommentService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	comment, err := s.commentRepo.FindByID(ctx, id)
	if err != nil {
		return notFound(err, "comment")
	}
	post, err := s.postRepo.FindByID(ctx, comment.PostID)
	if err != nil {
		return notFound(err, "post")
	}
	if post.UserID != actor.UserID && comment.UserID != actor.UserID {
		return fmt.Errorf("%w: cannot delete this comment", ErrForbidden)
	}

	doomed, err := s.descendants(ctx, comment)
	if err != nil {
		return err
	}
	for _, c := range doomed {
		if err := s.commentRepo.Delete(ctx, c.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to delete reply: %w", err)
		}
	}
	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return notFound(err, "comment")
	}

	s.publisher.Publish(actor.UserID, actor.DeviceID, websocket.TypeCommentDeleted, domain.CommentDeleted{CommentID: comment.ID, PostID: comment.PostID})
	return nil
}

func (s *CommentService) descendants(ctx context.Context, comment *domain.Comment) ([]*domain.Comment, error) {
	top := comment.TopLevelParentID
	if top == "" {
		top = comment.ID
	}
	thread, err := s.commentRepo.ListReplies(ctx, top)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}

	if comment.TopLevel() {
		return thread, nil
	}

	children := make(map[string][]*domain.Comment)
	for _, c := range thread {
		children[c.Parent] = append(children[c.Parent], c)
	}
	var out []*domain.Comment
	queue := []string{comment.ID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range children[id] {
			out = append(out, c)
			queue = append(queue, c.ID)
		}
	}
	return out, nil
}

func (s *CommentService) response(ctx context.Context, post *domain.Post, c *domain.Comment, replies int, names map[string]string) (*domain.CommentResponse, error) {
	name, ok := names[c.UserID]
	if !ok {
		user, err := s.userRepo.FindByID(ctx, c.UserID)
		switch {
		case err == nil:
			name = user.Username
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("failed to load comment author: %w", err)
		}
		if names != nil {
			names[c.UserID] = name
		}
	}

	return &domain.CommentResponse{
		ID:               c.ID,
		PostID:           c.PostID,
		PostUserID:       post.UserID,
		UserID:           c.UserID,
		Username:         name,
		Parent:           c.Parent,
		TopLevelParentID: c.TopLevelParentID,
		Body:             c.Body,
		Pinned:           c.Pinned,
		LikesCount:       len(c.Likes),
		RepliesCount:     replies,
		CreatedAt:        c.CreatedAt,
	}, nil
}
