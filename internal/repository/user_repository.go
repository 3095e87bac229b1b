package repository

import (
	"context"

	"photon/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type userRepository struct {
	store couchStore
}

func NewUserRepository(client *kivik.Client, dbName string) UserRepository {
	return &userRepository{store: couchStore{client: client, dbName: dbName}}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	user.Kind = domain.KindUser
	rev, err := r.store.put(ctx, domain.KindUser, user.ID, user)
	if err != nil {
		return err
	}
	user.Rev = rev
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.store.get(ctx, domain.KindUser, id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) findOne(ctx context.Context, field, value string) (*domain.User, error) {
	users, err := find[domain.User](ctx, r.store, domain.KindUser, map[string]any{field: value}, 1)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrNotFound
	}
	return users[0], nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	rev, err := r.store.put(ctx, domain.KindUser, user.ID, user)
	if err != nil {
		return err
	}
	user.Rev = rev
	return nil
}
