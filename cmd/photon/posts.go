package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"photon/pkg/client"
	"photon/pkg/view"

	"github.com/spf13/cobra"
)

func printPost(a *app, p client.Post) {
	marks := ""
	if p.IsSaved {
		marks += " [saved]"
	}
	if p.IsLiked {
		marks += " [liked]"
	}
	a.printf("- %s  %s by %s, %d likes%s\n", p.ID, p.Title, p.Username, p.LikesCount, marks)
	if len(p.Tags) > 0 {
		a.printf("    #%s\n", strings.Join(p.Tags, " #"))
	}
}

func postsCmd(get func() *app) *cobra.Command {
	var dedup bool

	cmd := &cobra.Command{
		Use:   "posts <username>",
		Short: "List a user's posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			var opts []view.PostsOption
			if dedup {
				opts = append(opts, view.WithDedupPosts())
			}

			posts := view.NewPostsByUser(cmd.Context(), a.deps(), args[0], opts...)
			defer posts.Close()
			if err := posts.Load().Wait(cmd.Context()); err != nil {
				if client.IsNotFound(err) {
					a.printf("No such user: %s\n", args[0])
					return nil
				}
				return err
			}

			items := posts.Posts()
			if len(items) == 0 {
				a.printf("%s has not posted yet\n", args[0])
			}
			for _, p := range items {
				printPost(a, p)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dedup, "dedup", false, "collapse posts listed more than once")
	return cmd
}

func postCmd(get func() *app) *cobra.Command {
	var (
		post      client.NewPost
		tags      []string
		imagePath string
	)

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}

			post.Tags = tags
			if imagePath != "" {
				data, err := os.ReadFile(imagePath)
				if err != nil {
					return fmt.Errorf("failed to read image: %w", err)
				}
				post.Image = data
				post.ImageName = filepath.Base(imagePath)
			}

			created, err := a.client.CreatePost(cmd.Context(), post)
			if err != nil {
				return err
			}
			printPost(a, *created)
			return nil
		},
	}
	cmd.Flags().StringVar(&post.Title, "title", "", "post title")
	cmd.Flags().StringVar(&post.Description, "description", "", "post description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag, repeatable")
	cmd.Flags().StringVar(&imagePath, "image", "", "image file to attach")
	cmd.MarkFlagRequired("title")
	return cmd
}

func saveCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <postID>",
		Short: "Save a post, or unsave it if already saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}
			postID := args[0]

			saved, err := a.client.SavedPosts(cmd.Context())
			if err != nil {
				return err
			}
			isSaved := slices.ContainsFunc(saved, func(p client.Post) bool { return p.ID == postID })

			button := view.NewSaveButton(cmd.Context(), a.deps(), postID, isSaved)
			defer button.Close()

			pending, err := button.Toggle()
			if err != nil {
				return err
			}
			if err := a.settle(cmd.Context(), pending); err != nil {
				return err
			}

			if button.Saved() {
				a.printf("Saved %s\n", postID)
			} else {
				a.printf("Removed %s from saved posts\n", postID)
			}
			return nil
		},
	}
}
