package repository

import (
	"context"

	"photon/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Save(ctx context.Context, profile *domain.Profile) error
}

type profileRepository struct {
	store couchStore
}

func NewProfileRepository(client *kivik.Client, dbName string) ProfileRepository {
	return &profileRepository{store: couchStore{client: client, dbName: dbName}}
}

func (r *profileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	if err := r.store.get(ctx, domain.KindProfile, userID, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	profile.Kind = domain.KindProfile
	rev, err := r.store.put(ctx, domain.KindProfile, profile.UserID, profile)
	if err != nil {
		return err
	}
	profile.Rev = rev
	return nil
}
