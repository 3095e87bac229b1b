package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"photon/pkg/client"
	"photon/pkg/optimistic"
	"photon/pkg/view"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is what every command works with: the persisted config, an API client
// and the notifier the views report failed mutations to.
type app struct {
	path    string
	cfg     *cliConfig
	client  *client.Client
	notices *optimistic.ChanNotifier
	logger  *zap.Logger
	policy  optimistic.Policy
	timeout time.Duration
	out     io.Writer
}

type globalFlags struct {
	server  string
	policy  string
	timeout time.Duration
	verbose bool
}

func newApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	if flags.server != "" {
		cfg.Server = flags.server
	}

	logger := zap.NewNop()
	if flags.verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return nil, err
		}
	}

	policyName := cfg.Policy
	if flags.policy != "" {
		policyName = flags.policy
	}
	policy, err := optimistic.ParsePolicy(policyName)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if flags.timeout > 0 {
		timeout = flags.timeout
	}

	c, err := client.New(cfg.Server,
		client.WithToken(cfg.Token),
		client.WithDeviceID(cfg.DeviceID),
		client.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &app{
		path:    path,
		cfg:     cfg,
		client:  c,
		notices: optimistic.NewChanNotifier(32, logger),
		logger:  logger,
		policy:  policy,
		timeout: timeout,
		out:     cmd.OutOrStdout(),
	}, nil
}

func (a *app) deps() view.Deps {
	return view.Deps{
		Client:   a.client,
		Identity: a.cfg.identity(),
		Logger:   a.logger,
		Notifier: a.notices,
		Policy:   a.policy,
		Timeout:  a.timeout,
	}
}

func (a *app) save() error {
	return saveConfig(a.path, a.cfg)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// settle waits for a submitted mutation and reports how it ended.
func (a *app) settle(ctx context.Context, p *optimistic.Pending) error {
	err := p.Wait(ctx)
	for _, n := range a.notices.Drain() {
		a.printf("! %s\n", n)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", p.Op(), err)
	}
	return nil
}

func (a *app) requireLogin() error {
	if a.cfg.identity().Anonymous() {
		return fmt.Errorf("not logged in, run `photon login` first")
	}
	return nil
}
