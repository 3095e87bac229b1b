package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"photon/internal/domain"
	"photon/internal/repository"
	"photon/internal/storage"
	"photon/internal/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Upload is an image attached to a new post.
type Upload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type PostService struct {
	postRepo  repository.PostRepository
	savedRepo repository.SavedPostRepository
	userRepo  repository.UserRepository
	images    storage.ImageStore
	publisher Publisher
	validator *validator.Validate
}

func NewPostService(postRepo repository.PostRepository, savedRepo repository.SavedPostRepository, userRepo repository.UserRepository, images storage.ImageStore, publisher Publisher) *PostService {
	return &PostService{
		postRepo:  postRepo,
		savedRepo: savedRepo,
		userRepo:  userRepo,
		images:    images,
		publisher: publisherOrNop(publisher),
		validator: domain.NewValidator(),
	}
}

func (s *PostService) List(ctx context.Context, viewerID string, limit int) ([]*domain.PostResponse, error) {
	posts, err := s.postRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return s.responses(ctx, viewerID, posts)
}

func (s *PostService) Create(ctx context.Context, actor domain.Actor, req *domain.CreatePostRequest, image *Upload) (*domain.PostResponse, error) {
	req.Tags = normalizeTags(req.Tags)
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	post := &domain.Post{
		ID:          uuid.New().String(),
		UserID:      actor.UserID,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Likes:       []string{},
		Created:     time.Now(),
	}

	if image != nil {
		if s.images == nil {
			return nil, fmt.Errorf("%w: image uploads are disabled", ErrValidation)
		}
		url, err := s.images.Put(ctx, image.Name, image.ContentType, image.Body)
		if err != nil {
			if errors.Is(err, storage.ErrTooLarge) {
				return nil, fmt.Errorf("%w: %v", ErrValidation, err)
			}
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		post.Image = url
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	resps, err := s.responses(ctx, actor.UserID, []*domain.Post{post})
	if err != nil {
		return nil, err
	}
	return resps[0], nil
}

func normalizeTags(tags []string) []string {
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
		if tag != "" && !slices.Contains(out, tag) {
			out = append(out, tag)
		}
	}
	return out
}

func (s *PostService) ByUser(ctx context.Context, viewerID, username string) ([]*domain.PostResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "user")
	}
	posts, err := s.postRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return s.responses(ctx, viewerID, posts)
}

// ToggleLike likes the post, or unlikes it if the actor already did.
func (s *PostService) ToggleLike(ctx context.Context, actor domain.Actor, postID string) (*domain.LikeResponse, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, "post")
	}

	liked := !slices.Contains(post.Likes, actor.UserID)
	if liked {
		post.Likes = append(post.Likes, actor.UserID)
	} else {
		post.Likes = slices.DeleteFunc(post.Likes, func(id string) bool { return id == actor.UserID })
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: post changed concurrently", ErrConflict)
		}
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return &domain.LikeResponse{Liked: liked, LikesCount: len(post.Likes)}, nil
}

// ToggleSave saves the post, or unsaves it if already saved.
func (s *PostService) ToggleSave(ctx context.Context, actor domain.Actor, postID string) (*domain.SaveResponse, error) {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		return nil, notFound(err, "post")
	}

	saved, err := s.savedRepo.Exists(ctx, actor.UserID, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to check saved post: %w", err)
	}

	if saved {
		err = s.savedRepo.Delete(ctx, actor.UserID, postID)
		if errors.Is(err, repository.ErrNotFound) {
			err = nil
		}
	} else {
		err = s.savedRepo.Save(ctx, &domain.SavedPost{UserID: actor.UserID, PostID: postID, CreatedAt: time.Now()})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to toggle saved post: %w", err)
	}

	resp := &domain.SaveResponse{Saved: !saved}
	s.publisher.Publish(actor.UserID, actor.DeviceID, websocket.TypePostSaved, domain.PostSaved{PostID: postID, Saved: resp.Saved})
	return resp, nil
}

// Saved lists the viewer's saved posts, newest first. Saves whose post is gone
// are skipped.
func (s *PostService) Saved(ctx context.Context, viewerID string) ([]*domain.PostResponse, error) {
	saved, err := s.savedRepo.ListByUser(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved posts: %w", err)
	}

	posts := make([]*domain.Post, 0, len(saved))
	for _, sp := range saved {
		post, err := s.postRepo.FindByID(ctx, sp.PostID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load saved post: %w", err)
		}
		posts = append(posts, post)
	}
	repository.SortPostsNewestFirst(posts)
	return s.responses(ctx, viewerID, posts)
}

func (s *PostService) responses(ctx context.Context, viewerID string, posts []*domain.Post) ([]*domain.PostResponse, error) {
	names := make(map[string]string)
	out := make([]*domain.PostResponse, 0, len(posts))
	for _, post := range posts {
		name, ok := names[post.UserID]
		if !ok {
			user, err := s.userRepo.FindByID(ctx, post.UserID)
			switch {
			case err == nil:
				name = user.Username
			case !errors.Is(err, repository.ErrNotFound):
				return nil, fmt.Errorf("failed to load post author: %w", err)
			}
			names[post.UserID] = name
		}

		isSaved := false
		if viewerID != "" {
			var err error
			isSaved, err = s.savedRepo.Exists(ctx, viewerID, post.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to check saved post: %w", err)
			}
		}

		tags := post.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, &domain.PostResponse{
			ID:          post.ID,
			UserID:      post.UserID,
			Username:    name,
			Title:       post.Title,
			Description: post.Description,
			Image:       post.Image,
			Tags:        tags,
			LikesCount:  len(post.Likes),
			IsLiked:     slices.Contains(post.Likes, viewerID),
			IsSaved:     isSaved,
			Created:     post.Created,
		})
	}
	return out, nil
}
