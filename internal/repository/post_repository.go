package repository

import (
	"context"
	"sort"

	"photon/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	List(ctx context.Context, limit int) ([]*domain.Post, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Post, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, post *domain.Post) error
}

type postRepository struct {
	store couchStore
}

func NewPostRepository(client *kivik.Client, dbName string) PostRepository {
	return &postRepository{store: couchStore{client: client, dbName: dbName}}
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	post.Kind = domain.KindPost
	rev, err := r.store.put(ctx, domain.KindPost, post.ID, post)
	if err != nil {
		return err
	}
	post.Rev = rev
	return nil
}

func (r *postRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := r.store.get(ctx, domain.KindPost, id, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit int) ([]*domain.Post, error) {
	posts, err := find[domain.Post](ctx, r.store, domain.KindPost, nil, 0)
	if err != nil {
		return nil, err
	}
	SortPostsNewestFirst(posts)
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Post, error) {
	posts, err := find[domain.Post](ctx, r.store, domain.KindPost, map[string]any{"user_id": userID}, 0)
	if err != nil {
		return nil, err
	}
	SortPostsNewestFirst(posts)
	return posts, nil
}

func (r *postRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	return count(ctx, r.store, domain.KindPost, map[string]any{"user_id": userID})
}

func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	rev, err := r.store.put(ctx, domain.KindPost, post.ID, post)
	if err != nil {
		return err
	}
	post.Rev = rev
	return nil
}

func SortPostsNewestFirst(posts []*domain.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Created.After(posts[j].Created)
	})
}
