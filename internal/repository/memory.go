package repository

import (
	"context"
	"sync"

	"photon/internal/domain"
)

// MemoryStore keeps every aggregate in process memory. It backs tests and
// DB_DRIVER=memory development servers.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	profiles map[string]domain.Profile
	posts    map[string]domain.Post
	saved    map[string]domain.SavedPost
	comments map[string]domain.Comment
	follows  map[string]domain.Follow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		profiles: make(map[string]domain.Profile),
		posts:    make(map[string]domain.Post),
		saved:    make(map[string]domain.SavedPost),
		comments: make(map[string]domain.Comment),
		follows:  make(map[string]domain.Follow),
	}
}

func (m *MemoryStore) Users() UserRepository           { return memUsers{m} }
func (m *MemoryStore) Profiles() ProfileRepository     { return memProfiles{m} }
func (m *MemoryStore) Posts() PostRepository           { return memPosts{m} }
func (m *MemoryStore) SavedPosts() SavedPostRepository { return memSaved{m} }
func (m *MemoryStore) Comments() CommentRepository     { return memComments{m} }
func (m *MemoryStore) Follows() FollowRepository       { return memFollows{m} }

type memUsers struct{ m *MemoryStore }

func (r memUsers) Create(ctx context.Context, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[user.ID]; ok {
		return ErrConflict
	}
	user.Kind = domain.KindUser
	r.m.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r memUsers) find(match func(domain.User) bool) (*domain.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	for _, u := range r.m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memUsers) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r memUsers) Update(ctx context.Context, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[user.ID]; !ok {
		return ErrNotFound
	}
	r.m.users[user.ID] = *user
	return nil
}

type memProfiles struct{ m *MemoryStore }

func (r memProfiles) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r memProfiles) Save(ctx context.Context, profile *domain.Profile) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	profile.Kind = domain.KindProfile
	r.m.profiles[profile.UserID] = *profile
	return nil
}

type memPosts struct{ m *MemoryStore }

func (r memPosts) Create(ctx context.Context, post *domain.Post) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.posts[post.ID]; ok {
		return ErrConflict
	}
	post.Kind = domain.KindPost
	r.m.posts[post.ID] = clonePost(*post)
	return nil
}

func (r memPosts) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = clonePost(p)
	return &p, nil
}

func (r memPosts) filter(match func(domain.Post) bool) []*domain.Post {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []*domain.Post
	for _, p := range r.m.posts {
		if match(p) {
			p = clonePost(p)
			out = append(out, &p)
		}
	}
	SortPostsNewestFirst(out)
	return out
}

func (r memPosts) List(ctx context.Context, limit int) ([]*domain.Post, error) {
	posts := r.filter(func(domain.Post) bool { return true })
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func (r memPosts) ListByUser(ctx context.Context, userID string) ([]*domain.Post, error) {
	return r.filter(func(p domain.Post) bool { return p.UserID == userID }), nil
}

func (r memPosts) CountByUser(ctx context.Context, userID string) (int, error) {
	return len(r.filter(func(p domain.Post) bool { return p.UserID == userID })), nil
}

func (r memPosts) Update(ctx context.Context, post *domain.Post) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.posts[post.ID]; !ok {
		return ErrNotFound
	}
	r.m.posts[post.ID] = clonePost(*post)
	return nil
}

func clonePost(p domain.Post) domain.Post {
	p.Tags = append([]string(nil), p.Tags...)
	p.Likes = append([]string(nil), p.Likes...)
	return p
}

type memSaved struct{ m *MemoryStore }

func (r memSaved) Exists(ctx context.Context, userID, postID string) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	_, ok := r.m.saved[domain.SavedPostID(userID, postID)]
	return ok, nil
}

func (r memSaved) Save(ctx context.Context, saved *domain.SavedPost) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	saved.Kind = domain.KindSaved
	r.m.saved[domain.SavedPostID(saved.UserID, saved.PostID)] = *saved
	return nil
}

func (r memSaved) Delete(ctx context.Context, userID, postID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	id := domain.SavedPostID(userID, postID)
	if _, ok := r.m.saved[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.saved, id)
	return nil
}

func (r memSaved) ListByUser(ctx context.Context, userID string) ([]*domain.SavedPost, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []*domain.SavedPost
	for _, s := range r.m.saved {
		if s.UserID == userID {
			out = append(out, &s)
		}
	}
	return out, nil
}

type memComments struct{ m *MemoryStore }

func (r memComments) Create(ctx context.Context, comment *domain.Comment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.comments[comment.ID]; ok {
		return ErrConflict
	}
	comment.Kind = domain.KindComment
	r.m.comments[comment.ID] = *comment
	return nil
}

func (r memComments) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.comments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r memComments) filter(match func(domain.Comment) bool) []*domain.Comment {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	var out []*domain.Comment
	for _, c := range r.m.comments {
		if match(c) {
			out = append(out, &c)
		}
	}
	return out
}

func (r memComments) ListByPost(ctx context.Context, postID string) ([]*domain.Comment, error) {
	comments := r.filter(func(c domain.Comment) bool { return c.PostID == postID })
	SortComments(comments)
	return comments, nil
}

func (r memComments) ListReplies(ctx context.Context, topLevelID string) ([]*domain.Comment, error) {
	return r.filter(func(c domain.Comment) bool { return c.TopLevelParentID == topLevelID }), nil
}

func (r memComments) Update(ctx context.Context, comment *domain.Comment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.comments[comment.ID]; !ok {
		return ErrNotFound
	}
	r.m.comments[comment.ID] = *comment
	return nil
}

func (r memComments) Delete(ctx context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.comments[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.comments, id)
	return nil
}

type memFollows struct{ m *MemoryStore }

func (r memFollows) Exists(ctx context.Context, followerID, followeeID string) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	_, ok := r.m.follows[domain.FollowID(followerID, followeeID)]
	return ok, nil
}

func (r memFollows) Create(ctx context.Context, follow *domain.Follow) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	follow.Kind = domain.KindFollow
	r.m.follows[domain.FollowID(follow.FollowerID, follow.FolloweeID)] = *follow
	return nil
}

func (r memFollows) Delete(ctx context.Context, followerID, followeeID string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	id := domain.FollowID(followerID, followeeID)
	if _, ok := r.m.follows[id]; !ok {
		return ErrNotFound
	}
	delete(r.m.follows, id)
	return nil
}

func (r memFollows) count(match func(domain.Follow) bool) int {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	n := 0
	for _, f := range r.m.follows {
		if match(f) {
			n++
		}
	}
	return n
}

func (r memFollows) CountFollowers(ctx context.Context, userID string) (int, error) {
	return r.count(func(f domain.Follow) bool { return f.FolloweeID == userID }), nil
}

func (r memFollows) CountFollowing(ctx context.Context, userID string) (int, error) {
	return r.count(func(f domain.Follow) bool { return f.FollowerID == userID }), nil
}
