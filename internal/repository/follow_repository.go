package repository

import (
	"context"

	"photon/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type FollowRepository interface {
	Exists(ctx context.Context, followerID, followeeID string) (bool, error)
	Create(ctx context.Context, follow *domain.Follow) error
	Delete(ctx context.Context, followerID, followeeID string) error
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
}

type followRepository struct {
	store couchStore
}

func NewFollowRepository(client *kivik.Client, dbName string) FollowRepository {
	return &followRepository{store: couchStore{client: client, dbName: dbName}}
}

func (r *followRepository) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	var follow domain.Follow
	err := r.store.get(ctx, domain.KindFollow, domain.FollowID(followerID, followeeID), &follow)
	switch {
	case err == nil:
		return true, nil
	case err == ErrNotFound:
		return false, nil
	default:
		return false, err
	}
}

func (r *followRepository) Create(ctx context.Context, follow *domain.Follow) error {
	follow.Kind = domain.KindFollow
	_, err := r.store.put(ctx, domain.KindFollow, domain.FollowID(follow.FollowerID, follow.FolloweeID), follow)
	return err
}

func (r *followRepository) Delete(ctx context.Context, followerID, followeeID string) error {
	return r.store.remove(ctx, domain.KindFollow, domain.FollowID(followerID, followeeID))
}

func (r *followRepository) CountFollowers(ctx context.Context, userID string) (int, error) {
	return count(ctx, r.store, domain.KindFollow, map[string]any{"followee_id": userID})
}

func (r *followRepository) CountFollowing(ctx context.Context, userID string) (int, error) {
	return count(ctx, r.store, domain.KindFollow, map[string]any{"follower_id": userID})
}
