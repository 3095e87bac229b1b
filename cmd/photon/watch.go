package main

import (
	"photon/pkg/client"

	"github.com/spf13/cobra"
)

func watchCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print changes made from your other devices as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			a.printf("Watching for changes, press Ctrl-C to stop\n")
			return a.client.Subscribe(cmd.Context(), func(ev client.Event) {
				a.printf("%s  %s\n", ev.Timestamp.Format("15:04:05"), describe(ev))
			})
		},
	}
}

func describe(ev client.Event) string {
	switch ev.Type {
	case client.EventPostSaved:
		var p client.PostSaved
		if ev.Decode(&p) == nil {
			if p.Saved {
				return "saved post " + p.PostID
			}
			return "unsaved post " + p.PostID
		}
	case client.EventFollowChanged:
		var f client.FollowChanged
		if ev.Decode(&f) == nil {
			if f.IsFollowing {
				return "followed user " + f.UserID
			}
			return "unfollowed user " + f.UserID
		}
	case client.EventCommentDeleted:
		var d client.CommentDeleted
		if ev.Decode(&d) == nil {
			return "deleted comment " + d.CommentID + " on post " + d.PostID
		}
	case client.EventCommentUpdated:
		var c client.Comment
		if ev.Decode(&c) == nil {
			if c.Pinned {
				return "pinned comment " + c.ID
			}
			return "updated comment " + c.ID
		}
	case client.EventProfileUpdated:
		return "updated profile"
	}
	return string(ev.Type)
}
