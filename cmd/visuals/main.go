package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/genricoloni/visuals/internal/cli"
	"github.com/genricoloni/visuals/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

const startTimeout = 15 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string, opts ...fx.Option) int {
	silent := cli.ModeFor(args) == logging.ModeSilent

	var (
		root     *cobra.Command
		closeLog logCloser
	)
	app := fx.New(
		fx.WithLogger(eventLogger(cli.Verbose(args))),
		AppOptions,
		fx.Replace(commandLine(args)),
		fx.Options(opts...),
		fx.Populate(&root, &closeLog),
	)
	defer func() {
		if closeLog != nil {
			closeLog()
		}
	}()

	startCtx, cancelStart := context.WithTimeout(context.Background(), startTimeout)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		if silent {
			return 0
		}
		fmt.Fprintf(os.Stderr, "visuals: %v\n", err)
		return 1
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	root.SetArgs(args)
	err := root.ExecuteContext(ctx)

	stopCtx, cancelStop := context.WithTimeout(context.Background(), startTimeout)
	defer cancelStop()
	_ = app.Stop(stopCtx)

	if err != nil && !silent {
		fmt.Fprintf(os.Stderr, "visuals: %v\n", err)
		return 1
	}
	return 0
}
