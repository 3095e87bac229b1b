package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photon/internal/domain"
	"photon/internal/repository"
	"photon/internal/websocket"

	"github.com/go-playground/validator/v10"
)

type ProfileService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	postRepo    repository.PostRepository
	followRepo  repository.FollowRepository
	publisher   Publisher
	validator   *validator.Validate
}

func NewProfileService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository, postRepo repository.PostRepository, followRepo repository.FollowRepository, publisher Publisher) *ProfileService {
	return &ProfileService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		postRepo:    postRepo,
		followRepo:  followRepo,
		publisher:   publisherOrNop(publisher),
		validator:   domain.NewValidator(),
	}
}

// Get returns username's profile as seen by viewerID.
func (s *ProfileService) Get(ctx context.Context, viewerID, username string) (*domain.ProfileResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return s.build(ctx, viewerID, user)
}

func (s *ProfileService) build(ctx context.Context, viewerID string, user *domain.User) (*domain.ProfileResponse, error) {
	profile, err := s.profileRepo.Get(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		profile = domain.NewProfile(user.ID)
	}

	posts, err := s.postRepo.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}
	followers, err := s.followRepo.CountFollowers(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count followers: %w", err)
	}
	following, err := s.followRepo.CountFollowing(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count following: %w", err)
	}

	isFollowing := false
	if viewerID != "" && viewerID != user.ID {
		isFollowing, err = s.followRepo.Exists(ctx, viewerID, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check follow: %w", err)
		}
	}

	resp := &domain.ProfileResponse{
		User:           user.Response(),
		Bio:            profile.Bio,
		Gender:         profile.Gender,
		AccountType:    profile.AccountType,
		BirthDate:      profile.BirthDate,
		ProfileImage:   profile.ProfileImage,
		IsVerified:     profile.IsVerified,
		IsFollowing:    isFollowing,
		PostsCount:     posts,
		FollowersCount: followers,
		FollowingCount: following,
	}
	if viewerID != user.ID {
		resp.User.Email = ""
	}
	return resp, nil
}

// Update applies the fields present in req to the actor's own profile.
func (s *ProfileService) Update(ctx context.Context, actor domain.Actor, username string, req *domain.UpdateProfileRequest) (*domain.ProfileResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	if user.ID != actor.UserID {
		return nil, fmt.Errorf("%w: cannot edit another user's profile", ErrForbidden)
	}

	profile, err := s.profileRepo.Get(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
		profile = domain.NewProfile(user.ID)
	}

	now := time.Now()
	if req.FirstName != nil || req.LastName != nil {
		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}
		user.UpdatedAt = now
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
	}

	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if req.Gender != nil {
		profile.Gender = *req.Gender
	}
	if req.AccountType != nil {
		profile.AccountType = *req.AccountType
	}
	profile.UpdatedAt = now
	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	resp, err := s.build(ctx, actor.UserID, user)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(actor.UserID, actor.DeviceID, websocket.TypeProfileUpdated, resp)
	return resp, nil
}
