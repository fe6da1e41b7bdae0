// Package cli is the command surface of visuals.
package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/library"
	"github.com/genricoloni/visuals/internal/logging"
	"github.com/genricoloni/visuals/internal/retention"
	"github.com/genricoloni/visuals/internal/rotation"
	"github.com/genricoloni/visuals/internal/schedule"
	"github.com/genricoloni/visuals/internal/source"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// skipRetention marks commands that must not run the cleanup pass
const skipRetention = "visuals/skip-retention"

// silentCommands never prompt and always exit 0
var silentCommands = []string{"auto-change", "silent-uninstall"}

// ModeFor reports whether the command line invokes a silent command
func ModeFor(args []string) logging.Mode {
	for _, a := range args {
		if len(a) > 0 && a[0] == '-' {
			continue
		}
		if slices.Contains(silentCommands, a) {
			return logging.ModeSilent
		}
		break
	}
	return logging.ModeInteractive
}

// Verbose reports whether debug output was requested on the console
func Verbose(args []string) bool {
	return slices.Contains(args, "--verbose") || slices.Contains(args, "-v")
}

// Rotator performs one rotation tick
type Rotator interface {
	Run(ctx context.Context, cfg *config.Config) (rotation.Outcome, error)
}

// Cleaner performs one retention pass
type Cleaner interface {
	Run(ctx context.Context, cfg *config.Config) (retention.Report, error)
}

// Params are the services the commands drive
type Params struct {
	fx.In

	Logger    *zap.Logger
	Store     *config.Store
	Registry  *source.Registry
	Library   *library.Library
	Acquirer  rotation.Acquirer
	Rotation  Rotator
	Retention Cleaner
	Schedule  *schedule.Manager
	Executor  domain.Executor
}

// NewRootCommand creates the root command
func NewRootCommand(p Params) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "visuals",
		Short:         "Wallpaper rotation and acquisition",
		Long:          "Download wallpapers from online sources into a numbered local library and rotate through them on a schedule.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipRetention] != "" {
				return nil
			}
			cleanup(cmd.Context(), p)
			return nil
		},
	}

	// read before the graph is built, see Verbose
	cmd.PersistentFlags().BoolP("verbose", "v", false, "print debug output")

	cmd.AddCommand(
		newFetchCommand(p),
		newChangeCommand(p),
		newListCommand(p),
		newSourceCommand(p),
		newRemoveKeyCommand(p),
		newResetCommand(p),
		newScheduleCommand(p),
		newSetCommand(p, "set", "s"),
		newUnsetCommand(p, "unset", "un"),
		newStatusCommand(p, "status", "st"),
		newRunCommand(p),
		newAutoChangeCommand(p),
		newSilentUninstallCommand(p),
	)
	return cmd
}

// cleanup runs retention before an interactive command; failures are
// logged and never block the command itself
func cleanup(ctx context.Context, p Params) {
	err := p.Store.Update(ctx, func(cfg *config.Config) error {
		report, err := p.Retention.Run(ctx, cfg)
		if report.Deleted > 0 || report.Renamed > 0 {
			p.Logger.Info("Library cleaned up",
				zap.Int("deleted", report.Deleted),
				zap.Int("renamed", report.Renamed))
		}
		return err
	})
	if err != nil {
		p.Logger.Warn("Cleanup incomplete", zap.Error(err))
	}
}

// silent marks cmd as an unattended command
func silent(cmd *cobra.Command) *cobra.Command {
	cmd.Hidden = true
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[skipRetention] = "true"
	return cmd
}

// describeError turns engine errors into user-facing messages
func describeError(err error) string {
	var rl *domain.RateLimitError
	switch {
	case errors.As(err, &rl):
		return fmt.Sprintf("%s has reached its request limit; try again in %s or switch source with `visuals source`",
			rl.Source, rl.ResetIn.Round(time.Second))
	case errors.Is(err, domain.ErrCredentialMissing):
		return "this source needs an API key; set one with `visuals source <name> --key <key>`"
	case errors.Is(err, domain.ErrCredentialInvalid):
		return "the provider rejected the API key; set a new one with `visuals source <name> --key <key>`"
	case errors.Is(err, domain.ErrConfigBusy):
		return "another visuals process is running; try again in a moment"
	case errors.Is(err, domain.ErrNoResults):
		return "no images found for this query"
	default:
		return err.Error()
	}
}

// UserError wraps err with a user-facing explanation
func UserError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", describeError(err), err)
}
