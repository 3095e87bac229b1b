package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	var a *app

	root := &cobra.Command{
		Use:   "photon",
		Short: "Command-line client for Photon",
		Long: `photon talks to a Photon server: browse profiles and posts, save posts,
moderate comments and follow people. Changes are shown immediately and undone
if the server rejects them (see --policy).

Configuration lives in $PHOTON_CONFIG or ~/.config/photon/config.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(cmd, flags)
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.server, "server", "", "server base URL (overrides config)")
	pf.StringVar(&flags.policy, "policy", "", "failure policy: rollback or keep")
	pf.DurationVar(&flags.timeout, "timeout", 0, "bound on each write request")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log requests to stderr")

	get := func() *app { return a }
	root.AddCommand(
		registerCmd(get),
		loginCmd(get),
		logoutCmd(get),
		profileCmd(get),
		postsCmd(get),
		postCmd(get),
		saveCmd(get),
		commentsCmd(get),
		commentCmd(get),
		pinCmd(get),
		deleteCommentCmd(get),
		followCmd(get),
		watchCmd(get),
	)
	return root
}
