package repository

import (
	"context"
	"sort"

	"photon/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error)
	ListReplies(ctx context.Context, topLevelID string) ([]*domain.Comment, error)
	Update(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id string) error
}

type commentRepository struct {
	store couchStore
}

func NewCommentRepository(client *kivik.Client, dbName string) CommentRepository {
	return &commentRepository{store: couchStore{client: client, dbName: dbName}}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	comment.Kind = domain.KindComment
	rev, err := r.store.put(ctx, domain.KindComment, comment.ID, comment)
	if err != nil {
		return err
	}
	comment.Rev = rev
	return nil
}

func (r *commentRepository) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := r.store.get(ctx, domain.KindComment, id, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	comments, err := find[domain.Comment](ctx, r.store, domain.KindComment, map[string]any{"post_id": postID}, 0)
	if err != nil {
		return nil, err
	}
	SortComments(comments)
	return comments, nil
}

func (r *commentRepository) ListReplies(ctx context.Context, topLevelID string) ([]*domain.Comment, error) {
	return find[domain.Comment](ctx, r.store, domain.KindComment, map[string]any{"top_level_parent_id": topLevelID}, 0)
}

func (r *commentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	rev, err := r.store.put(ctx, domain.KindComment, comment.ID, comment)
	if err != nil {
		return err
	}
	comment.Rev = rev
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	return r.store.remove(ctx, domain.KindComment, id)
}

// SortComments orders pinned comments first, then newest first.
func SortComments(comments []*domain.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].Pinned != comments[j].Pinned {
			return comments[i].Pinned
		}
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
}
