package view

import (
	"context"

	"photon/pkg/client"
	"photon/pkg/optimistic"
)

// SaveButton tracks whether the viewer has saved one post.
type SaveButton struct {
	base
	postID string
	saved  bool
}

func NewSaveButton(ctx context.Context, deps Deps, postID string, saved bool) *SaveButton {
	s := &SaveButton{postID: postID, saved: saved}
	s.init(ctx, deps, "save")
	return s
}

func (s *SaveButton) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

func (s *SaveButton) key() string { return "post:" + s.postID + ":saved" }

// Toggle flips the saved flag and adopts the server's value on success.
func (s *SaveButton) Toggle() (*optimistic.Pending, error) {
	var prev, server bool
	return s.runner.Submit(&optimistic.Func{
		MutationKey: s.key(),
		Operation:   "save_post",
		Validate: func() error {
			if s.me.Anonymous() {
				return ErrNotAllowed
			}
			return nil
		},
		Apply: func() {
			prev = s.saved
			s.saved = !prev
		},
		Rollback: func() { s.saved = prev },
		Persist: func(ctx context.Context) error {
			saved, err := s.api.SavePost(ctx, s.postID)
			server = saved
			return err
		},
		Confirm: func() { s.saved = server },
	})
}

func (s *SaveButton) HandleEvent(ev client.Event) {
	s.handle(ev, func(ev client.Event) error {
		if ev.Type != client.EventPostSaved {
			return nil
		}
		var saved client.PostSaved
		if err := ev.Decode(&saved); err != nil {
			return err
		}
		if saved.PostID == s.postID && !s.runner.InFlight(s.key()) {
			s.saved = saved.Saved
		}
		return nil
	})
}
