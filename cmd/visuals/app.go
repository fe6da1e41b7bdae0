package main

import (
	"context"
	"os"

	"github.com/genricoloni/visuals/internal/acquire"
	"github.com/genricoloni/visuals/internal/cli"
	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/display"
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/executor"
	"github.com/genricoloni/visuals/internal/fetcher"
	"github.com/genricoloni/visuals/internal/library"
	"github.com/genricoloni/visuals/internal/logging"
	"github.com/genricoloni/visuals/internal/processor"
	"github.com/genricoloni/visuals/internal/retention"
	"github.com/genricoloni/visuals/internal/rotation"
	"github.com/genricoloni/visuals/internal/schedule"
	"github.com/genricoloni/visuals/internal/source"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AppOptions is the dependency graph of the command line
var AppOptions = fx.Options(
	fx.Provide(
		osArgs,
		newLogOptions,
		config.NewPaths,
		newLogger,
		config.NewStore,

		// OS integration
		fx.Annotate(executor.NewCommandRunner, fx.As(new(domain.CommandRunner))),
		executor.NewExecutor,
		display.NewScreenResolution,
		schedule.NewBackend,
		schedule.NewManager,

		// Acquisition
		fx.Annotate(fetcher.NewHTTPFetcher, fx.As(new(domain.Fetcher)), fx.As(new(domain.APIClient))),
		fx.Annotate(processor.NewNormalizer, fx.As(new(domain.ImageProcessor))),
		fx.Annotate(source.NewRegistry, fx.As(fx.Self()), fx.As(new(acquire.Sources))),
		newLibrary,
		fx.Annotate(acquire.NewDispatcher, fx.As(new(rotation.Acquirer))),

		// Engine
		fx.Annotate(rotation.NewEngine, fx.As(new(cli.Rotator))),
		fx.Annotate(newRetention, fx.As(new(cli.Cleaner))),

		cli.NewRootCommand,
	),
)

// commandLine is the argument list without the program name
type commandLine []string

func osArgs() commandLine {
	return os.Args[1:]
}

// newLogOptions derives the log mode from the command line
func newLogOptions(args commandLine, paths config.Paths) logging.Options {
	level := zapcore.WarnLevel
	if cli.Verbose(args) {
		level = zapcore.DebugLevel
	}
	return logging.Options{
		File:         paths.LogFile(),
		Mode:         cli.ModeFor(args),
		ConsoleLevel: level,
	}
}

// logCloser closes the log file once the app has fully stopped
type logCloser func()

// newLogger creates the process logger. OnStop only flushes: fx keeps
// logging lifecycle events after the hooks ran.
func newLogger(lc fx.Lifecycle, opts logging.Options) (*zap.Logger, logCloser, error) {
	logger, closeFn, err := logging.New(opts)
	if err != nil {
		return nil, nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
	return logger, logCloser(closeFn), nil
}

// eventLogger keeps fx lifecycle events out of the log unless asked for
func eventLogger(verbose bool) func(*zap.Logger) fxevent.Logger {
	return func(log *zap.Logger) fxevent.Logger {
		if !verbose {
			return fxevent.NopLogger
		}
		return &fxevent.ZapLogger{Logger: log}
	}
}

func newLibrary(logger *zap.Logger, paths config.Paths) *library.Library {
	return library.New(logger, paths.WallpaperDir)
}

func newRetention(logger *zap.Logger, lib *library.Library, exec domain.Executor, paths config.Paths) *retention.Service {
	return retention.NewService(logger, lib, exec, paths.LogFile())
}
