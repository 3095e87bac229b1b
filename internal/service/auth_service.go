package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photon/internal/domain"
	"photon/internal/repository"
	"photon/pkg/hash"
	"photon/pkg/jwt"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo          repository.UserRepository
	profileRepo       repository.ProfileRepository
	jwtSecret         string
	jwtExpiration     time.Duration
	refreshExpiration time.Duration
}

func NewAuthService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository, jwtSecret string, jwtExp, refreshExp time.Duration) *AuthService {
	return &AuthService{
		userRepo:          userRepo,
		profileRepo:       profileRepo,
		jwtSecret:         jwtSecret,
		jwtExpiration:     jwtExp,
		refreshExpiration: refreshExp,
	}
}

func (s *AuthService) RefreshExpiration() time.Duration {
	return s.refreshExpiration
}

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserResponse, error) {
	if err := s.ensureFree(ctx, s.userRepo.FindByUsername, req.Username, "username already taken"); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, s.userRepo.FindByEmail, req.Email, "email already registered"); err != nil {
		return nil, err
	}

	hashedPassword, err := hash.Hash(req.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooShort) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashedPassword,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := s.profileRepo.Save(ctx, domain.NewProfile(user.ID)); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return user.Response(), nil
}

func (s *AuthService) ensureFree(ctx context.Context, lookup func(context.Context, string) (*domain.User, error), value, msg string) error {
	_, err := lookup(ctx, value)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("failed to check existing users: %w", err)
	}
}

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Session, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := hash.Matches(user.Password, req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.session(user, true)
}

// Refresh issues a new access token for a valid refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrInvalidToken)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return s.session(user, false)
}

func (s *AuthService) session(user *domain.User, withRefresh bool) (*domain.Session, error) {
	accessToken, err := jwt.GenerateToken(user.ID, s.jwtExpiration, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	session := &domain.Session{Access: accessToken, User: user.Response()}
	if withRefresh {
		session.RefreshToken, err = jwt.GenerateRefreshToken(user.ID, s.refreshExpiration, s.jwtSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to generate refresh token: %w", err)
		}
	}
	return session, nil
}

func (s *AuthService) ValidateToken(token string) (*jwt.Claims, error) {
	claims, err := jwt.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
