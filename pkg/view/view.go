// Package view holds per-screen state for the Photon client. Each view owns its
// state behind one mutex, mutates it optimistically through an
// optimistic.Runner and loads it through a scope.Scope that Close tears down.
package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"photon/pkg/client"
	"photon/pkg/optimistic"
	"photon/pkg/scope"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	ErrNotFound   = errors.New("not found in view")
	ErrNotAllowed = errors.New("not allowed")
	ErrNotLoaded  = errors.New("view not loaded")
	ErrNoChanges  = errors.New("no changes")
)

// API is the subset of *client.Client the views call.
type API interface {
	GetProfile(ctx context.Context, username string) (*client.Profile, error)
	UpdateProfile(ctx context.Context, username string, update client.ProfileUpdate) (*client.Profile, error)
	Follow(ctx context.Context, userID string) (*client.FollowResult, error)
	Unfollow(ctx context.Context, userID string) (*client.FollowResult, error)
	PostsByUser(ctx context.Context, username string) ([]client.Post, error)
	SavePost(ctx context.Context, postID string) (bool, error)
	Comments(ctx context.Context, postID string) ([]client.Comment, error)
	SetCommentPinned(ctx context.Context, commentID string, pinned bool) (*client.Comment, error)
	DeleteComment(ctx context.Context, commentID string) error
}

// Deps is what every view receives from its host.
type Deps struct {
	Client     API
	Identity   client.Identity
	Logger     *zap.Logger
	Notifier   optimistic.Notifier
	Policy     optimistic.Policy
	Timeout    time.Duration
	Registerer prometheus.Registerer
}

type base struct {
	mu     sync.Mutex
	api    API
	me     client.Identity
	logger *zap.Logger
	runner *optimistic.Runner
	scope  *scope.Scope
}

func (b *base) init(ctx context.Context, deps Deps, name string) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	b.api = deps.Client
	b.me = deps.Identity
	b.logger = logger.Named(name)
	b.runner = optimistic.NewRunner(&b.mu,
		optimistic.WithPolicy(deps.Policy),
		optimistic.WithNotifier(deps.Notifier),
		optimistic.WithLogger(b.logger),
		optimistic.WithTimeout(deps.Timeout),
		optimistic.WithRegisterer(deps.Registerer),
	)
	b.scope = scope.New(ctx, &b.mu)
}

// Close discards any fetch still in flight. Submitted mutations keep running;
// use Wait to block on them.
func (b *base) Close() {
	b.scope.Close()
}

// Wait blocks until every mutation submitted through the view has resolved.
func (b *base) Wait() {
	b.runner.Wait()
}

func (b *base) handle(ev client.Event, apply func(client.Event) error) {
	b.scope.Guard(func() {
		if err := apply(ev); err != nil {
			b.logger.Warn("failed to apply event", zap.String("type", string(ev.Type)), zap.Error(err))
		}
	})
}
