package view

import (
	"context"

	"photon/pkg/client"
	"photon/pkg/collection"
	"photon/pkg/optimistic"
	"photon/pkg/scope"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProfilePage shows another user's profile, their posts and a follow button.
type ProfilePage struct {
	base
	username string

	profile  *client.Profile
	posts    *collection.List[string, client.Post]
	loading  bool
	notFound bool
	err      error
}

func NewProfilePage(ctx context.Context, deps Deps, username string) *ProfilePage {
	p := &ProfilePage{
		username: username,
		posts:    collection.New(func(p client.Post) string { return p.ID }),
	}
	p.init(ctx, deps, "profile_page")
	return p
}

type profileData struct {
	profile *client.Profile
	posts   []client.Post
}

// Load fetches the profile and the user's posts concurrently.
func (p *ProfilePage) Load() *scope.Task {
	p.mu.Lock()
	p.loading = true
	p.mu.Unlock()

	return scope.Fetch(p.scope,
		func(ctx context.Context) (profileData, error) {
			var data profileData
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				profile, err := p.api.GetProfile(ctx, p.username)
				data.profile = profile
				return err
			})
			g.Go(func() error {
				posts, err := p.api.PostsByUser(ctx, p.username)
				data.posts = posts
				return err
			})
			return data, g.Wait()
		},
		func(data profileData) {
			p.loading = false
			p.profile = data.profile
			p.posts.Reset(data.posts)
			p.notFound = false
			p.err = nil
		},
		func(err error) {
			p.loading = false
			p.err = err
			if client.IsNotFound(err) {
				p.notFound = true
				p.profile = nil
				return
			}
			p.logger.Warn("failed to load profile", zap.String("username", p.username), zap.Error(err))
		},
	)
}

func (p *ProfilePage) Profile() *client.Profile {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.profile == nil {
		return nil
	}
	cp := *p.profile
	return &cp
}

func (p *ProfilePage) Posts() []client.Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.posts.Items()
}

func (p *ProfilePage) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *ProfilePage) NotFound() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notFound
}

func (p *ProfilePage) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *ProfilePage) IsOwn() bool {
	return p.username == p.me.Username
}

func (p *ProfilePage) followKey() string { return "user:" + p.username + ":following" }

// ToggleFollow flips is_following and moves followers_count with it.
func (p *ProfilePage) ToggleFollow() (*optimistic.Pending, error) {
	var (
		prev   client.FollowResult
		next   bool
		userID string
		server *client.FollowResult
	)
	return p.runner.Submit(&optimistic.Func{
		MutationKey: p.followKey(),
		Operation:   "follow",
		Validate: func() error {
			if p.profile == nil {
				return ErrNotLoaded
			}
			if p.me.Anonymous() || p.profile.User.ID == p.me.ID {
				return ErrNotAllowed
			}
			return nil
		},
		Apply: func() {
			userID = p.profile.User.ID
			prev = client.FollowResult{IsFollowing: p.profile.IsFollowing, FollowersCount: p.profile.FollowersCount}
			next = !prev.IsFollowing
			p.profile.IsFollowing = next
			if next {
				p.profile.FollowersCount++
			} else if p.profile.FollowersCount > 0 {
				p.profile.FollowersCount--
			}
		},
		Rollback: func() {
			if p.profile != nil {
				p.profile.IsFollowing = prev.IsFollowing
				p.profile.FollowersCount = prev.FollowersCount
			}
		},
		Persist: func(ctx context.Context) error {
			var err error
			if next {
				server, err = p.api.Follow(ctx, userID)
			} else {
				server, err = p.api.Unfollow(ctx, userID)
			}
			return err
		},
		Confirm: func() {
			if p.profile != nil && server != nil {
				p.profile.IsFollowing = server.IsFollowing
				p.profile.FollowersCount = server.FollowersCount
			}
		},
	})
}

func (p *ProfilePage) HandleEvent(ev client.Event) {
	p.handle(ev, func(ev client.Event) error {
		if p.profile == nil {
			return nil
		}
		switch ev.Type {
		case client.EventFollowChanged:
			var fc client.FollowChanged
			if err := ev.Decode(&fc); err != nil {
				return err
			}
			if fc.UserID == p.profile.User.ID && !p.runner.InFlight(p.followKey()) {
				p.profile.IsFollowing = fc.IsFollowing
				p.profile.FollowersCount = fc.FollowersCount
			}
		case client.EventProfileUpdated:
			var up client.Profile
			if err := ev.Decode(&up); err != nil {
				return err
			}
			if up.User.ID == p.profile.User.ID {
				p.profile.User = up.User
				p.profile.Bio = up.Bio
				p.profile.Gender = up.Gender
				p.profile.AccountType = up.AccountType
				p.profile.ProfileImage = up.ProfileImage
			}
		}
		return nil
	})
}
