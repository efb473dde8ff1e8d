package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/cedricziel/vtql/internal/app"
	"github.com/cedricziel/vtql/internal/config"
	"github.com/cedricziel/vtql/internal/dispatch"
	"github.com/cedricziel/vtql/internal/engine/backends"
	"github.com/cedricziel/vtql/internal/query"
	"github.com/cedricziel/vtql/internal/shell"
	"github.com/cedricziel/vtql/pkg/client"
)

func main() {
	flags := pflag.NewFlagSet("vtqlsh", pflag.ExitOnError)
	config.RegisterFlags(flags)
	remote := flags.Bool("remote", false, "connect to a vtql server at --host/--port instead of running in-process")
	backend := flags.String("backend", query.SQL, "initial backend")
	command := flags.StringP("command", "c", "", "run a single line and exit")
	_ = flags.Parse(os.Args[1:])

	if err := run(flags, *remote, *backend, *command); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(flags *pflag.FlagSet, remote bool, backend, command string) error {
	cfg, err := config.Load("", flags)
	if err != nil {
		return err
	}
	if !flags.Changed("log-level") {
		cfg.Log.Level = "warn"
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	ctx := context.Background()

	var registry *backends.Registry
	dispatcher := dispatch.New(dispatch.Config{Logger: logger})

	if remote {
		c, err := client.New(client.Settings{Host: cfg.Server.Host, Port: cfg.Server.Port})
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		registry = backends.NewRegistry()
		registry.Register(query.SQL, c.Backend(query.SQL))
		registry.Register(query.KQL, c.Backend(query.KQL))
	} else {
		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = a.Close() }()
		registry = a.Registry
		dispatcher = a.Dispatcher
	}

	sh := shell.New(shell.Config{
		Registry:   registry,
		Dispatcher: dispatcher,
		Backend:    backend,
		Out:        os.Stdout,
	})

	if command != "" {
		sh.Execute(ctx, command)
		return nil
	}

	history := ""
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".vtqlsh_history")
	}
	return sh.Run(ctx, history)
}
