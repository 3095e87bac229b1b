package view

import (
	"context"

	"photon/pkg/client"
	"photon/pkg/collection"
	"photon/pkg/optimistic"
	"photon/pkg/scope"

	"go.uber.org/zap"
)

// Comments is the comment thread under one post.
type Comments struct {
	base
	postID string

	list    *collection.List[string, client.Comment]
	loading bool
	err     error
}

func NewComments(ctx context.Context, deps Deps, postID string) *Comments {
	c := &Comments{
		postID: postID,
		list:   collection.New(func(c client.Comment) string { return c.ID }, collection.WithDedup()),
	}
	c.init(ctx, deps, "comments")
	return c
}

func (c *Comments) Load() *scope.Task {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	return scope.Fetch(c.scope,
		func(ctx context.Context) ([]client.Comment, error) {
			return c.api.Comments(ctx, c.postID)
		},
		func(comments []client.Comment) {
			c.list.Reset(comments)
			c.loading = false
			c.err = nil
		},
		func(err error) {
			c.loading = false
			c.err = err
			c.logger.Warn("failed to load comments", zap.String("post_id", c.postID), zap.Error(err))
		},
	)
}

func (c *Comments) Items() []client.Comment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Items()
}

func (c *Comments) Get(id string) (client.Comment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.list.Get(id)
}

func (c *Comments) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Comments) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// CanPin: only the post owner pins, and only top-level comments.
func (c *Comments) CanPin(cm client.Comment) bool {
	return !c.me.Anonymous() && cm.TopLevel() && cm.PostUserID == c.me.ID
}

func (c *Comments) CanDelete(cm client.Comment) bool {
	return !c.me.Anonymous() && (cm.PostUserID == c.me.ID || cm.UserID == c.me.ID)
}

func (c *Comments) CanReport(cm client.Comment) bool {
	return !c.me.Anonymous() && cm.UserID != c.me.ID
}

func (c *Comments) CanDisable(client.Comment) bool {
	return c.me.IsSuperuser
}

// TogglePin flips the pinned flag. The response body is not reconciled; the
// local value stands unless the request fails.
func (c *Comments) TogglePin(id string) (*optimistic.Pending, error) {
	var prev, next bool
	return c.runner.Submit(&optimistic.Func{
		MutationKey: "comment:" + id + ":pinned",
		Operation:   "pin_comment",
		Validate: func() error {
			cm, ok := c.list.Get(id)
			if !ok {
				return ErrNotFound
			}
			if !c.CanPin(cm) {
				return ErrNotAllowed
			}
			return nil
		},
		Apply: func() {
			c.list.Update(id, func(cm *client.Comment) {
				prev = cm.Pinned
				next = !prev
				cm.Pinned = next
			})
		},
		Rollback: func() {
			c.list.Update(id, func(cm *client.Comment) { cm.Pinned = prev })
		},
		Persist: func(ctx context.Context) error {
			_, err := c.api.SetCommentPinned(ctx, id, next)
			return err
		},
	})
}

// Delete removes the comment and its replies immediately.
func (c *Comments) Delete(id string) (*optimistic.Pending, error) {
	var removed []collection.Removed[client.Comment]
	var parent string
	return c.runner.Submit(&optimistic.Func{
		MutationKey: "comment:" + id + ":deleted",
		Operation:   "delete_comment",
		Validate: func() error {
			cm, ok := c.list.Get(id)
			if !ok {
				return ErrNotFound
			}
			if !c.CanDelete(cm) {
				return ErrNotAllowed
			}
			return nil
		},
		Apply: func() {
			if cm, ok := c.list.Get(id); ok {
				parent = cm.Parent
			}
			removed = c.removeThread(id)
			if parent != "" {
				c.list.Update(parent, func(p *client.Comment) {
					if p.RepliesCount > 0 {
						p.RepliesCount--
					}
				})
			}
		},
		Rollback: func() {
			c.list.Restore(removed...)
			if parent != "" {
				c.list.Update(parent, func(p *client.Comment) { p.RepliesCount++ })
			}
		},
		Persist: func(ctx context.Context) error {
			return c.api.DeleteComment(ctx, id)
		},
	})
}

// HandleEvent applies a pushed change unless a local mutation on the same
// comment is still in flight.
func (c *Comments) HandleEvent(ev client.Event) {
	c.handle(ev, func(ev client.Event) error {
		switch ev.Type {
		case client.EventCommentUpdated:
			var cm client.Comment
			if err := ev.Decode(&cm); err != nil {
				return err
			}
			if cm.PostID != c.postID ||
				c.runner.InFlight("comment:"+cm.ID+":pinned") ||
				c.runner.InFlight("comment:"+cm.ID+":deleted") {
				return nil
			}
			c.list.Append(cm)
		case client.EventCommentDeleted:
			var del client.CommentDeleted
			if err := ev.Decode(&del); err != nil {
				return err
			}
			if del.PostID != c.postID || c.runner.InFlight("comment:"+del.CommentID+":deleted") {
				return nil
			}
			c.removeThread(del.CommentID)
		}
		return nil
	})
}

// removeThread removes id and every reply beneath it, at any depth. Callers
// must hold the view lock.
func (c *Comments) removeThread(id string) []collection.Removed[client.Comment] {
	children := make(map[string][]string)
	for _, cm := range c.list.Items() {
		if cm.Parent != "" {
			children[cm.Parent] = append(children[cm.Parent], cm.ID)
		}
	}

	doomed := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, child := range children[next] {
			if !doomed[child] {
				doomed[child] = true
				queue = append(queue, child)
			}
		}
	}

	return c.list.RemoveFunc(func(cm client.Comment) bool {
		return doomed[cm.ID] || cm.TopLevelParentID == id
	})
}
