package view

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"photon/pkg/client"
	"photon/pkg/optimistic"
	"photon/pkg/scope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

var (
	owner    = client.Identity{ID: "u-owner", Username: "owner"}
	author   = client.Identity{ID: "u-author", Username: "author"}
	stranger = client.Identity{ID: "u-stranger", Username: "stranger"}
	admin    = client.Identity{ID: "u-admin", Username: "admin", IsSuperuser: true}
)

type request struct {
	Method string
	Path   string
	Body   string
}

// backend records every request and answers with handler.
type backend struct {
	mu       sync.Mutex
	requests []request
}

func (b *backend) record(r *http.Request) request {
	body, _ := io.ReadAll(r.Body)
	req := request{Method: r.Method, Path: r.URL.Path, Body: string(body)}
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	return req
}

func (b *backend) matching(method, path string) []request {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []request
	for _, r := range b.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func newDeps(t *testing.T, me client.Identity, policy optimistic.Policy, h func(w http.ResponseWriter, r *http.Request, req request)) (Deps, *backend, *optimistic.ChanNotifier) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := b.record(r)
		h(w, r, req)
	}))
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, client.WithHTTPClient(srv.Client()), client.WithToken("tok"))
	require.NoError(t, err)

	notices := optimistic.NewChanNotifier(16, nil)
	return Deps{Client: c, Identity: me, Notifier: notices, Policy: policy}, b, notices
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func waitTask(t *testing.T, task *scope.Task) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := task.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return err
}

var thread = []client.Comment{
	{ID: "41", PostID: "7", PostUserID: owner.ID, UserID: author.ID, Body: "first"},
	{ID: "42", PostID: "7", PostUserID: owner.ID, UserID: author.ID, Body: "second", RepliesCount: 1},
	{ID: "43", PostID: "7", PostUserID: owner.ID, UserID: stranger.ID, Parent: "42", TopLevelParentID: "42", Body: "reply"},
}

func commentsBackend(pinStatus int, release <-chan struct{}) func(w http.ResponseWriter, r *http.Request, req request) {
	return func(w http.ResponseWriter, r *http.Request, req request) {
		switch {
		case req.Method == http.MethodGet && req.Path == "/api/posts/7/comments":
			writeJSON(w, http.StatusOK, thread)
		case req.Method == http.MethodPut && strings.HasPrefix(req.Path, "/api/comments/"):
			if pinStatus >= 300 {
				writeJSON(w, pinStatus, map[string]string{"error": "internal"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"id": "42", "pinned": false})
		case req.Method == http.MethodDelete:
			if release != nil {
				<-release
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func loadedComments(t *testing.T, deps Deps) *Comments {
	t.Helper()
	c := NewComments(context.Background(), deps, "7")
	t.Cleanup(c.Close)
	require.NoError(t, waitTask(t, c.Load()))
	require.Len(t, c.Items(), 3)
	return c
}

func TestPinIsVisibleBeforeServerAnswers(t *testing.T) {
	tests := []struct {
		name       string
		policy     optimistic.Policy
		status     int
		wantPinned bool
		wantState  optimistic.State
		wantNotice bool
	}{
		{name: "success keeps pin", policy: optimistic.Rollback, status: http.StatusOK, wantPinned: true, wantState: optimistic.Confirmed},
		{name: "failure under keep policy keeps pin", policy: optimistic.KeepOptimistic, status: http.StatusInternalServerError, wantPinned: true, wantState: optimistic.Unreconciled, wantNotice: true},
		{name: "failure under rollback policy unpins", policy: optimistic.Rollback, status: http.StatusInternalServerError, wantPinned: false, wantState: optimistic.RolledBack, wantNotice: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, b, notices := newDeps(t, owner, tt.policy, commentsBackend(tt.status, nil))
			c := loadedComments(t, deps)

			p, err := c.TogglePin("42")
			require.NoError(t, err)
			cm, _ := c.Get("42")
			assert.True(t, cm.Pinned, "pin must show before the response")

			c.Wait()
			assert.Equal(t, tt.wantState, p.State())

			cm, _ = c.Get("42")
			// The response says pinned=false; it is never adopted.
			assert.Equal(t, tt.wantPinned, cm.Pinned)

			puts := b.matching(http.MethodPut, "/api/comments/42")
			require.Len(t, puts, 1)
			assert.JSONEq(t, `{"pinned":true}`, puts[0].Body)
			assert.Equal(t, tt.wantNotice, len(notices.Drain()) == 1)
		})
	}
}

func TestPinPermissions(t *testing.T) {
	deps, b, _ := newDeps(t, author, optimistic.Rollback, commentsBackend(http.StatusOK, nil))
	c := loadedComments(t, deps)

	_, err := c.TogglePin("42")
	assert.ErrorIs(t, err, ErrNotAllowed)

	_, err = c.TogglePin("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, b.matching(http.MethodPut, "/api/comments/42"))

	cm, _ := c.Get("42")
	assert.False(t, cm.Pinned)
}

func TestOwnerCannotPinReply(t *testing.T) {
	deps, _, _ := newDeps(t, owner, optimistic.Rollback, commentsBackend(http.StatusOK, nil))
	c := loadedComments(t, deps)

	_, err := c.TogglePin("43")
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestCommentPermissionHelpers(t *testing.T) {
	reply := thread[2]
	tests := []struct {
		name                      string
		me                        client.Identity
		pin, del, report, disable bool
	}{
		{name: "post owner", me: owner, pin: false, del: true, report: true},
		{name: "comment author", me: stranger, del: true},
		{name: "someone else", me: author, report: true},
		{name: "superuser", me: admin, report: true, disable: true},
		{name: "anonymous", me: client.Identity{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Comments{}
			c.me = tt.me
			assert.Equal(t, tt.pin, c.CanPin(reply), "pin")
			assert.Equal(t, tt.del, c.CanDelete(reply), "delete")
			assert.Equal(t, tt.report, c.CanReport(reply), "report")
			assert.Equal(t, tt.disable, c.CanDisable(reply), "disable")
		})
	}
}

func TestDeleteRemovesImmediately(t *testing.T) {
	release := make(chan struct{})
	deps, _, _ := newDeps(t, owner, optimistic.Rollback, commentsBackend(http.StatusOK, release))
	c := loadedComments(t, deps)

	p, err := c.Delete("42")
	require.NoError(t, err)

	_, ok := c.Get("42")
	assert.False(t, ok, "deleted before confirmation")
	_, ok = c.Get("43")
	assert.False(t, ok, "replies go with it")
	assert.Equal(t, optimistic.Applied, p.State())

	close(release)
	c.Wait()
	assert.Equal(t, optimistic.Confirmed, p.State())
	assert.Len(t, c.Items(), 1)
}

func TestFailedDeleteFollowsPolicy(t *testing.T) {
	tests := []struct {
		name        string
		policy      optimistic.Policy
		wantState   optimistic.State
		wantIDs     []string
		wantReplies int
	}{
		{name: "rollback restores position", policy: optimistic.Rollback, wantState: optimistic.RolledBack, wantIDs: []string{"41", "42", "43"}, wantReplies: 1},
		{name: "keep optimistic stays removed", policy: optimistic.KeepOptimistic, wantState: optimistic.Unreconciled, wantIDs: []string{"41", "42"}, wantReplies: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, _, notices := newDeps(t, stranger, tt.policy, func(w http.ResponseWriter, r *http.Request, req request) {
				if req.Method == http.MethodDelete {
					writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
					return
				}
				commentsBackend(http.StatusOK, nil)(w, r, req)
			})
			c := loadedComments(t, deps)

			p, err := c.Delete("43")
			require.NoError(t, err)
			parent, _ := c.Get("42")
			assert.Equal(t, 0, parent.RepliesCount)

			c.Wait()
			assert.Equal(t, tt.wantState, p.State())
			assert.True(t, client.IsForbidden(p.Err()))
			assert.Equal(t, tt.wantIDs, commentIDs(c))

			parent, _ = c.Get("42")
			assert.Equal(t, tt.wantReplies, parent.RepliesCount)
			assert.Len(t, notices.Drain(), 1)
		})
	}
}

func commentIDs(c *Comments) []string {
	var ids []string
	for _, cm := range c.Items() {
		ids = append(ids, cm.ID)
	}
	return ids
}

// nested is a reply chain 42 <- 43 <- 44 <- 45 under a top-level comment.
var nested = []client.Comment{
	{ID: "41", PostID: "7", PostUserID: owner.ID, UserID: author.ID, Body: "first"},
	{ID: "42", PostID: "7", PostUserID: owner.ID, UserID: author.ID, Body: "root", RepliesCount: 1},
	{ID: "43", PostID: "7", PostUserID: owner.ID, UserID: stranger.ID, Parent: "42", TopLevelParentID: "42", Body: "reply", RepliesCount: 1},
	{ID: "44", PostID: "7", PostUserID: owner.ID, UserID: author.ID, Parent: "43", TopLevelParentID: "42", Body: "reply to reply", RepliesCount: 1},
	{ID: "45", PostID: "7", PostUserID: owner.ID, UserID: stranger.ID, Parent: "44", TopLevelParentID: "42", Body: "deepest"},
}

func nestedBackend(deleteStatus int) func(w http.ResponseWriter, r *http.Request, req request) {
	return func(w http.ResponseWriter, r *http.Request, req request) {
		switch {
		case req.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, nested)
		case req.Method == http.MethodDelete && deleteStatus >= 300:
			writeJSON(w, deleteStatus, map[string]string{"error": "internal"})
		case req.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestDeleteRemovesNestedReplies(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantState optimistic.State
		wantIDs   []string
	}{
		{name: "confirmed", status: http.StatusNoContent, wantState: optimistic.Confirmed, wantIDs: []string{"41", "42"}},
		{name: "rolled back", status: http.StatusInternalServerError, wantState: optimistic.RolledBack, wantIDs: []string{"41", "42", "43", "44", "45"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, _, _ := newDeps(t, owner, optimistic.Rollback, nestedBackend(tt.status))
			c := NewComments(context.Background(), deps, "7")
			t.Cleanup(c.Close)
			require.NoError(t, waitTask(t, c.Load()))

			p, err := c.Delete("43")
			require.NoError(t, err)
			assert.Equal(t, []string{"41", "42"}, commentIDs(c))

			c.Wait()
			assert.Equal(t, tt.wantState, p.State())
			assert.Equal(t, tt.wantIDs, commentIDs(c))
		})
	}
}

func TestDeletedEventRemovesNestedReplies(t *testing.T) {
	deps, _, _ := newDeps(t, owner, optimistic.Rollback, nestedBackend(http.StatusNoContent))
	c := NewComments(context.Background(), deps, "7")
	t.Cleanup(c.Close)
	require.NoError(t, waitTask(t, c.Load()))

	payload, _ := json.Marshal(client.CommentDeleted{CommentID: "43", PostID: "7"})
	c.HandleEvent(client.Event{Type: client.EventCommentDeleted, Payload: payload})
	assert.Equal(t, []string{"41", "42"}, commentIDs(c))
}

func TestUpdateEventDoesNotResurrectPendingDelete(t *testing.T) {
	release := make(chan struct{})
	deps, _, _ := newDeps(t, owner, optimistic.Rollback, commentsBackend(http.StatusOK, release))
	c := loadedComments(t, deps)

	p, err := c.Delete("41")
	require.NoError(t, err)

	updated := thread[0]
	updated.Body = "edited elsewhere"
	payload, _ := json.Marshal(updated)
	c.HandleEvent(client.Event{Type: client.EventCommentUpdated, Payload: payload})

	_, ok := c.Get("41")
	assert.False(t, ok, "update for a comment being deleted is ignored")

	close(release)
	c.Wait()
	assert.Equal(t, optimistic.Confirmed, p.State())
	assert.Equal(t, []string{"42", "43"}, commentIDs(c))
}

func TestCloseMidFetchDropsResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	deps, _, _ := newDeps(t, owner, optimistic.Rollback, func(w http.ResponseWriter, r *http.Request, req request) {
		close(started)
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		writeJSON(w, http.StatusOK, thread)
	})
	defer close(release)

	c := NewComments(context.Background(), deps, "7")
	task := c.Load()
	<-started
	c.Close()

	assert.ErrorIs(t, waitTask(t, task), scope.ErrClosed)
	assert.Empty(t, c.Items())
}

func TestEventsAfterCloseAreIgnored(t *testing.T) {
	deps, _, _ := newDeps(t, owner, optimistic.Rollback, commentsBackend(http.StatusOK, nil))
	c := loadedComments(t, deps)

	payload, _ := json.Marshal(client.CommentDeleted{CommentID: "41", PostID: "7"})
	ev := client.Event{Type: client.EventCommentDeleted, Payload: payload}

	c.Close()
	c.HandleEvent(ev)
	assert.Len(t, c.Items(), 3)
}

func TestCommentEventsReconcile(t *testing.T) {
	deps, _, _ := newDeps(t, owner, optimistic.Rollback, commentsBackend(http.StatusOK, nil))
	c := loadedComments(t, deps)

	updated := thread[0]
	updated.Pinned = true
	payload, _ := json.Marshal(updated)
	c.HandleEvent(client.Event{Type: client.EventCommentUpdated, Payload: payload})

	cm, _ := c.Get("41")
	assert.True(t, cm.Pinned)
	assert.Len(t, c.Items(), 3)

	payload, _ = json.Marshal(client.CommentDeleted{CommentID: "42", PostID: "7"})
	c.HandleEvent(client.Event{Type: client.EventCommentDeleted, Payload: payload})
	assert.Len(t, c.Items(), 1)
}

func TestSaveAdoptsServerValue(t *testing.T) {
	deps, b, _ := newDeps(t, owner, optimistic.Rollback, func(w http.ResponseWriter, r *http.Request, req request) {
		writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
	})
	s := NewSaveButton(context.Background(), deps, "7", false)
	defer s.Close()

	_, err := s.Toggle()
	require.NoError(t, err)
	assert.True(t, s.Saved())
	s.Wait()
	assert.True(t, s.Saved())

	posts := b.matching(http.MethodPost, "/api/posts/saved/")
	require.Len(t, posts, 1)
	assert.JSONEq(t, `{"post_id":"7"}`, posts[0].Body)
}

func TestRapidSaveTogglesSendOneRequestEach(t *testing.T) {
	const n = 6
	var server atomic.Bool
	deps, b, _ := newDeps(t, owner, optimistic.Rollback, func(w http.ResponseWriter, r *http.Request, req request) {
		v := !server.Load()
		server.Store(v)
		writeJSON(w, http.StatusOK, map[string]bool{"saved": v})
	})
	s := NewSaveButton(context.Background(), deps, "7", false)
	defer s.Close()

	for i := 0; i < n; i++ {
		_, err := s.Toggle()
		require.NoError(t, err)
	}
	assert.False(t, s.Saved(), "even number of toggles")

	s.Wait()
	assert.Len(t, b.matching(http.MethodPost, "/api/posts/saved/"), n)
}

func TestSaveRequiresIdentity(t *testing.T) {
	deps, b, _ := newDeps(t, client.Identity{}, optimistic.Rollback, func(w http.ResponseWriter, r *http.Request, req request) {})
	s := NewSaveButton(context.Background(), deps, "7", false)
	defer s.Close()

	_, err := s.Toggle()
	assert.ErrorIs(t, err, ErrNotAllowed)
	assert.Empty(t, b.matching(http.MethodPost, "/api/posts/saved/"))
}

func profileBackend(status int) func(w http.ResponseWriter, r *http.Request, req request) {
	return func(w http.ResponseWriter, r *http.Request, req request) {
		switch req.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, client.Profile{User: client.User{ID: owner.ID, Username: owner.Username}, Bio: "old", Gender: client.GenderPreferNotSay})
		case http.MethodPut:
			if status >= 300 {
				writeJSON(w, status, map[string]string{"error": "internal"})
				return
			}
			var upd client.ProfileUpdate
			json.Unmarshal([]byte(req.Body), &upd)
			p := client.Profile{User: client.User{ID: owner.ID, Username: owner.Username}, Bio: "old", Gender: client.GenderPreferNotSay, IsVerified: true}
			if upd.Bio != nil {
				p.Bio = *upd.Bio
			}
			if upd.Gender != nil {
				p.Gender = *upd.Gender
			}
			writeJSON(w, http.StatusOK, p)
		}
	}
}

func TestProfileEditorSendsChangedFieldsOnly(t *testing.T) {
	deps, b, _ := newDeps(t, owner, optimistic.Rollback, profileBackend(http.StatusOK))
	e := NewProfileEditor(context.Background(), deps)
	defer e.Close()
	require.NoError(t, waitTask(t, e.Load()))

	_, err := e.Submit()
	assert.ErrorIs(t, err, ErrNoChanges)
	assert.Empty(t, b.matching(http.MethodPut, "/api/users/profile/owner"))

	long := strings.Repeat("é", 200)
	e.SetBio(long)
	_, err = e.Submit()
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 125), e.Profile().Bio)

	e.Wait()
	puts := b.matching(http.MethodPut, "/api/users/profile/owner")
	require.Len(t, puts, 1)
	assert.JSONEq(t, `{"bio":"`+strings.Repeat("é", 125)+`"}`, puts[0].Body)
	assert.True(t, e.Profile().IsVerified, "server profile adopted")
	assert.Equal(t, AccountState{Bio: strings.Repeat("é", 125), Gender: client.GenderPreferNotSay}, e.Draft())
}

func TestProfileEditorRollsBack(t *testing.T) {
	deps, _, notices := newDeps(t, owner, optimistic.Rollback, profileBackend(http.StatusInternalServerError))
	e := NewProfileEditor(context.Background(), deps)
	defer e.Close()
	require.NoError(t, waitTask(t, e.Load()))

	require.NoError(t, e.SetGender(client.GenderFemale))
	_, err := e.Submit()
	require.NoError(t, err)
	assert.Equal(t, client.GenderFemale, e.Profile().Gender)

	e.Wait()
	assert.Equal(t, client.GenderPreferNotSay, e.Profile().Gender)
	assert.Equal(t, client.GenderFemale, e.Draft().Gender, "draft kept for retry")
	assert.Len(t, notices.Drain(), 1)
}

func TestProfileEditorRejectsUnknownChoices(t *testing.T) {
	e := &ProfileEditor{}
	assert.Error(t, e.SetGender("Other"))
	assert.Error(t, e.SetAccountType("Astronaut"))
	assert.NoError(t, e.SetAccountType("Chef"))
	assert.NoError(t, e.SetAccountType(""))
}

func TestProfilePageNotFound(t *testing.T) {
	deps, _, _ := newDeps(t, owner, optimistic.Rollback, func(w http.ResponseWriter, r *http.Request, req request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found"})
	})
	p := NewProfilePage(context.Background(), deps, "ghost")
	defer p.Close()

	waitTask(t, p.Load())
	assert.True(t, p.NotFound())
	assert.Nil(t, p.Profile())
	assert.False(t, p.Loading())
}

func TestProfilePageToggleFollow(t *testing.T) {
	deps, b, _ := newDeps(t, owner, optimistic.Rollback, func(w http.ResponseWriter, r *http.Request, req request) {
		switch req.Path {
		case "/api/users/profile/author":
			writeJSON(w, http.StatusOK, client.Profile{User: client.User{ID: author.ID, Username: author.Username}, FollowersCount: 10})
		case "/api/posts/user/author":
			writeJSON(w, http.StatusOK, map[string]any{"posts": []client.Post{{ID: "p1"}, {ID: "p2"}}})
		case "/api/users/follow/" + author.ID:
			writeJSON(w, http.StatusOK, client.FollowResult{IsFollowing: true, FollowersCount: 12})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	p := NewProfilePage(context.Background(), deps, "author")
	defer p.Close()

	require.NoError(t, waitTask(t, p.Load()))
	assert.Len(t, p.Posts(), 2)

	_, err := p.ToggleFollow()
	require.NoError(t, err)
	assert.True(t, p.Profile().IsFollowing)
	assert.Equal(t, 11, p.Profile().FollowersCount)

	p.Wait()
	assert.Equal(t, 12, p.Profile().FollowersCount, "server count adopted")
	assert.Len(t, b.matching(http.MethodPost, "/api/users/follow/"+author.ID), 1)
}

func TestCannotFollowSelf(t *testing.T) {
	deps, _, _ := newDeps(t, owner, optimistic.Rollback, func(w http.ResponseWriter, r *http.Request, req request) {
		if strings.HasPrefix(req.Path, "/api/posts/") {
			writeJSON(w, http.StatusOK, map[string]any{"posts": []client.Post{}})
			return
		}
		writeJSON(w, http.StatusOK, client.Profile{User: client.User{ID: owner.ID, Username: owner.Username}})
	})
	p := NewProfilePage(context.Background(), deps, "owner")
	defer p.Close()
	require.NoError(t, waitTask(t, p.Load()))

	assert.True(t, p.IsOwn())
	_, err := p.ToggleFollow()
	assert.ErrorIs(t, err, ErrNotAllowed)
}

func TestPostsByUserAppendsEachLoad(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request, req request) {
		writeJSON(w, http.StatusOK, map[string]any{"posts": []client.Post{{ID: "1"}, {ID: "2"}}})
	}

	t.Run("default keeps duplicates", func(t *testing.T) {
		deps, _, _ := newDeps(t, owner, optimistic.Rollback, handler)
		p := NewPostsByUser(context.Background(), deps, "owner")
		defer p.Close()
		assert.True(t, p.Loading())

		require.NoError(t, waitTask(t, p.Load()))
		require.NoError(t, waitTask(t, p.Load()))
		assert.Len(t, p.Posts(), 4)
		assert.False(t, p.Loading())
	})

	t.Run("dedup replaces", func(t *testing.T) {
		deps, _, _ := newDeps(t, owner, optimistic.Rollback, handler)
		p := NewPostsByUser(context.Background(), deps, "owner", WithDedupPosts())
		defer p.Close()

		require.NoError(t, waitTask(t, p.Load()))
		require.NoError(t, waitTask(t, p.Load()))
		assert.Len(t, p.Posts(), 2)
	})
}
