package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"photon/pkg/client"

	"github.com/spf13/cobra"
)

// readPassword takes the password from the flag, $PHOTON_PASSWORD or the first
// line of stdin, in that order.
func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv("PHOTON_PASSWORD"); env != "" {
		return env, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	pw := strings.TrimRight(line, "\r\n")
	if pw == "" {
		return "", errors.New("password is required")
	}
	return pw, nil
}

func registerCmd(get func() *app) *cobra.Command {
	var req client.RegisterRequest
	var password string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			req.Username = args[0]
			req.Password = pw

			user, err := a.client.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.printf("Registered %s. Run `photon login %s` to sign in.\n", user.Username, user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted if omitted)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func loginCmd(get func() *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}

			session, err := a.client.Login(cmd.Context(), args[0], pw)
			if err != nil {
				if client.IsUnauthorized(err) {
					return errors.New("invalid username or password")
				}
				return err
			}

			a.cfg.signIn(session.Access, session.User)
			if err := a.save(); err != nil {
				return err
			}
			a.printf("Logged in as %s\n", session.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password (prompted if omitted)")
	return cmd
}

func logoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if err := a.client.Logout(cmd.Context()); err != nil {
				a.logger.Sugar().Debugf("server logout failed: %v", err)
			}
			a.cfg.signOut()
			if err := a.save(); err != nil {
				return err
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}
