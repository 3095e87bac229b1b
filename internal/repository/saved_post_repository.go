package repository

import (
	"context"

	"photon/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type SavedPostRepository interface {
	Exists(ctx context.Context, userID, postID string) (bool, error)
	Save(ctx context.Context, saved *domain.SavedPost) error
	Delete(ctx context.Context, userID, postID string) error
	ListByUser(ctx context.Context, userID string) ([]*domain.SavedPost, error)
}

type savedPostRepository struct {
	store couchStore
}

func NewSavedPostRepository(client *kivik.Client, dbName string) SavedPostRepository {
	return &savedPostRepository{store: couchStore{client: client, dbName: dbName}}
}

func (r *savedPostRepository) Exists(ctx context.Context, userID, postID string) (bool, error) {
	var saved domain.SavedPost
	err := r.store.get(ctx, domain.KindSaved, domain.SavedPostID(userID, postID), &saved)
	switch {
	case err == nil:
		return true, nil
	case err == ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

func (r *savedPostRepository) Save(ctx context.Context, saved *domain.SavedPost) error {
	saved.Kind = domain.KindSaved
	_, err := r.store.put(ctx, domain.KindSaved, domain.SavedPostID(saved.UserID, saved.PostID), saved)
	return err
}

func (r *savedPostRepository) Delete(ctx context.Context, userID, postID string) error {
	return r.store.remove(ctx, domain.KindSaved, domain.SavedPostID(userID, postID))
}

func (r *savedPostRepository) ListByUser(ctx context.Context, userID string) ([]*domain.SavedPost, error) {
	return find[domain.SavedPost](ctx, r.store, domain.KindSaved, map[string]any{"user_id": userID}, 0)
}
