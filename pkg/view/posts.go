package view

import (
	"context"

	"photon/pkg/client"
	"photon/pkg/collection"
	"photon/pkg/scope"

	"go.uber.org/zap"
)

// PostsByUser is the grid of one user's posts. Each Load appends the fetched
// page to what is already shown.
type PostsByUser struct {
	base
	username string

	posts   *collection.List[string, client.Post]
	loading bool
}

type PostsOption func(*PostsByUser)

// WithDedupPosts makes repeated loads replace posts already shown instead of
// listing them twice.
func WithDedupPosts() PostsOption {
	return func(p *PostsByUser) {
		p.posts = collection.New(postID, collection.WithDedup())
	}
}

func postID(p client.Post) string { return p.ID }

func NewPostsByUser(ctx context.Context, deps Deps, username string, opts ...PostsOption) *PostsByUser {
	p := &PostsByUser{
		username: username,
		posts:    collection.New(postID),
		loading:  true,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.init(ctx, deps, "posts_by_user")
	return p
}

func (p *PostsByUser) Load() *scope.Task {
	p.mu.Lock()
	p.loading = true
	p.mu.Unlock()

	return scope.Fetch(p.scope,
		func(ctx context.Context) ([]client.Post, error) {
			return p.api.PostsByUser(ctx, p.username)
		},
		func(posts []client.Post) {
			p.posts.Append(posts...)
			p.loading = false
		},
		func(err error) {
			p.loading = false
			p.logger.Warn("failed to load posts", zap.String("username", p.username), zap.Error(err))
		},
	)
}

func (p *PostsByUser) Posts() []client.Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.posts.Items()
}

func (p *PostsByUser) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

func (p *PostsByUser) HandleEvent(ev client.Event) {
	p.handle(ev, func(ev client.Event) error {
		if ev.Type != client.EventPostSaved {
			return nil
		}
		var saved client.PostSaved
		if err := ev.Decode(&saved); err != nil {
			return err
		}
		p.posts.Update(saved.PostID, func(post *client.Post) { post.IsSaved = saved.Saved })
		return nil
	})
}
