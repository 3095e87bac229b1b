package main

import (
	"context"

	"photon/pkg/client"
	"photon/pkg/optimistic"
	"photon/pkg/view"

	"github.com/spf13/cobra"
)

func loadComments(ctx context.Context, a *app, postID string) (*view.Comments, error) {
	comments := view.NewComments(ctx, a.deps(), postID)
	if err := comments.Load().Wait(ctx); err != nil {
		comments.Close()
		return nil, err
	}
	return comments, nil
}

func printComments(a *app, c *view.Comments) {
	items := c.Items()
	if len(items) == 0 {
		a.printf("No comments\n")
		return
	}
	for _, cm := range items {
		indent := ""
		if !cm.TopLevel() {
			indent = "    "
		}
		a.printf("%s%s  %s: %s", indent, cm.ID, cm.Username, cm.Body)
		if cm.Pinned {
			a.printf(" [pinned]")
		}
		if cm.RepliesCount > 0 {
			a.printf(" (%d replies)", cm.RepliesCount)
		}
		a.printf("%s\n", actions(c, cm))
	}
}

func actions(c *view.Comments, cm client.Comment) string {
	var s string
	if c.CanPin(cm) {
		s += " pin"
	}
	if c.CanDelete(cm) {
		s += " delete"
	}
	if c.CanReport(cm) {
		s += " report"
	}
	if c.CanDisable(cm) {
		s += " disable"
	}
	if s == "" {
		return ""
	}
	return "  <" + s[1:] + ">"
}

func commentsCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <postID>",
		Short: "List a post's comments with the actions you may take",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			comments, err := loadComments(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			defer comments.Close()
			printComments(a, comments)
			return nil
		},
	}
}

// commentMutationCmd loads the post's comments, applies mutate to one of them
// and prints the list once the server has answered.
func commentMutationCmd(get func() *app, use, short string, mutate func(*view.Comments, string) (*optimistic.Pending, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			comments, err := loadComments(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			defer comments.Close()

			pending, err := mutate(comments, args[1])
			if err != nil {
				return err
			}
			settleErr := a.settle(cmd.Context(), pending)
			printComments(a, comments)
			return settleErr
		},
	}
}

func pinCmd(get func() *app) *cobra.Command {
	return commentMutationCmd(get, "pin <postID> <commentID>", "Pin or unpin a comment on your post",
		(*view.Comments).TogglePin)
}

func deleteCommentCmd(get func() *app) *cobra.Command {
	return commentMutationCmd(get, "delete-comment <postID> <commentID>", "Delete a comment and its replies",
		(*view.Comments).Delete)
}

func commentCmd(get func() *app) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "comment <postID> <text>",
		Short: "Comment on a post",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			cm, err := a.client.CreateComment(cmd.Context(), args[0], args[1], parent)
			if err != nil {
				return err
			}
			a.printf("Commented %s\n", cm.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&parent, "reply-to", "", "id of the comment to reply to")
	return cmd
}
