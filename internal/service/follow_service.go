package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photon/internal/domain"
	"photon/internal/repository"
	"photon/internal/websocket"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	publisher  Publisher
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, publisher Publisher) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		publisher:  publisherOrNop(publisher),
	}
}

// Follow is idempotent: following someone twice leaves one follow.
func (s *FollowService) Follow(ctx context.Context, actor domain.Actor, userID string) (*domain.FollowResponse, error) {
	if err := s.check(ctx, actor, userID); err != nil {
		return nil, err
	}

	exists, err := s.followRepo.Exists(ctx, actor.UserID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check follow: %w", err)
	}
	if !exists {
		follow := &domain.Follow{FollowerID: actor.UserID, FolloweeID: userID, CreatedAt: time.Now()}
		if err := s.followRepo.Create(ctx, follow); err != nil && !errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("failed to follow: %w", err)
		}
	}
	return s.result(ctx, actor, userID, true)
}

func (s *FollowService) Unfollow(ctx context.Context, actor domain.Actor, userID string) (*domain.FollowResponse, error) {
	if err := s.check(ctx, actor, userID); err != nil {
		return nil, err
	}

	if err := s.followRepo.Delete(ctx, actor.UserID, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to unfollow: %w", err)
	}
	return s.result(ctx, actor, userID, false)
}

func (s *FollowService) check(ctx context.Context, actor domain.Actor, userID string) error {
	if actor.UserID == userID {
		return fmt.Errorf("%w: cannot follow yourself", ErrValidation)
	}
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return notFound(err, "user")
	}
	return nil
}

func (s *FollowService) result(ctx context.Context, actor domain.Actor, userID string, following bool) (*domain.FollowResponse, error) {
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count followers: %w", err)
	}
	resp := &domain.FollowResponse{UserID: userID, IsFollowing: following, FollowersCount: followers}
	s.publisher.Publish(actor.UserID, actor.DeviceID, websocket.TypeFollowChanged, resp)
	return resp, nil
}
