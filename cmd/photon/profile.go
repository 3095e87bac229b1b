package main

import (
	"errors"
	"strings"

	"photon/pkg/client"
	"photon/pkg/view"

	"github.com/spf13/cobra"
)

func profileCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit profiles",
	}
	cmd.AddCommand(profileShowCmd(get), profileEditCmd(get))
	return cmd
}

func profileShowCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [username]",
		Short: "Show a profile and its posts (your own by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			username := a.cfg.identity().Username
			if len(args) == 1 {
				username = args[0]
			}
			if username == "" {
				return a.requireLogin()
			}

			page := view.NewProfilePage(cmd.Context(), a.deps(), username)
			defer page.Close()
			if err := page.Load().Wait(cmd.Context()); err != nil {
				if page.NotFound() {
					a.printf("No such user: %s\n", username)
					return nil
				}
				return err
			}

			printProfile(a, page.Profile(), page.IsOwn())
			for _, p := range page.Posts() {
				printPost(a, p)
			}
			return nil
		},
	}
}

func printProfile(a *app, p *client.Profile, own bool) {
	name := strings.TrimSpace(p.User.FirstName + " " + p.User.LastName)
	a.printf("%s", p.User.Username)
	if name != "" {
		a.printf(" (%s)", name)
	}
	if p.IsVerified {
		a.printf(" [verified]")
	}
	a.printf("\n")
	if p.AccountType != "" {
		a.printf("  %s\n", p.AccountType)
	}
	if p.Bio != "" {
		a.printf("  %s\n", p.Bio)
	}
	a.printf("  %d posts  %d followers  %d following\n", p.PostsCount, p.FollowersCount, p.FollowingCount)
	if !own && p.IsFollowing {
		a.printf("  you follow %s\n", p.User.Username)
	}
}

func profileEditCmd(get func() *app) *cobra.Command {
	var bio, gender, accountType string

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit your bio, gender or account type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}

			editor := view.NewProfileEditor(cmd.Context(), a.deps())
			defer editor.Close()
			if err := editor.Load().Wait(cmd.Context()); err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("bio") {
				editor.SetBio(bio)
			}
			if flags.Changed("gender") {
				if err := editor.SetGender(gender); err != nil {
					return err
				}
			}
			if flags.Changed("account-type") {
				if err := editor.SetAccountType(accountType); err != nil {
					return err
				}
			}

			pending, err := editor.Submit()
			if err != nil {
				if errors.Is(err, view.ErrNoChanges) {
					a.printf("Nothing to change\n")
					return nil
				}
				return err
			}
			if err := a.settle(cmd.Context(), pending); err != nil {
				return err
			}

			printProfile(a, editor.Profile(), true)
			return nil
		},
	}
	cmd.Flags().StringVar(&bio, "bio", "", "bio, truncated to 125 characters")
	cmd.Flags().StringVar(&gender, "gender", "", "one of: "+strings.Join(client.Genders, ", "))
	cmd.Flags().StringVar(&accountType, "account-type", "", "account type, empty to clear")
	return cmd
}

func followCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "follow <username>",
		Short: "Follow someone, or unfollow if you already do",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.requireLogin(); err != nil {
				return err
			}

			page := view.NewProfilePage(cmd.Context(), a.deps(), args[0])
			defer page.Close()
			if err := page.Load().Wait(cmd.Context()); err != nil {
				return err
			}

			pending, err := page.ToggleFollow()
			if err != nil {
				return err
			}
			if err := a.settle(cmd.Context(), pending); err != nil {
				return err
			}

			p := page.Profile()
			verb := "Unfollowed"
			if p.IsFollowing {
				verb = "Following"
			}
			a.printf("%s %s (%d followers)\n", verb, p.User.Username, p.FollowersCount)
			return nil
		},
	}
}
