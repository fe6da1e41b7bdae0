package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/schedule"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const frequencyPrompt = "Frequency (auto, HH:MM, or every N hours 1-24):"

func newScheduleCommand(p Params) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"sched"},
		Short:   "Manage automatic wallpaper changes",
	}
	cmd.AddCommand(
		newSetCommand(p, "set"),
		newUnsetCommand(p, "unset"),
		newStatusCommand(p, "status"),
	)
	return cmd
}

func newSetCommand(p Params, use string, aliases ...string) *cobra.Command {
	return &cobra.Command{
		Use:     use + " [frequency]",
		Aliases: aliases,
		Short:   "Enable automatic wallpaper changes",
		Long: "Register an OS trigger that changes the wallpaper periodically.\n" +
			"Frequency is `auto` (daily at 08:00), a time of day such as `21:30`, or `every:Nh` / `Nh` with N from 1 to 24.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				f   domain.Frequency
				err error
			)
			if len(args) == 1 {
				f, err = domain.ParseFrequency(args[0])
			} else {
				f, err = askUntil(newPrompter(cmd), frequencyPrompt, 3, domain.ParseFrequency)
			}
			if err != nil {
				return err
			}

			err = p.Store.Update(cmd.Context(), func(cfg *config.Config) error {
				return p.Schedule.Set(cmd.Context(), cfg, f)
			})
			if err != nil {
				return UserError(schedulingError(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Auto-change enabled: %s\n", f.Describe())
			return nil
		},
	}
}

func newUnsetCommand(p Params, use string, aliases ...string) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Aliases: aliases,
		Short:   "Disable automatic wallpaper changes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := p.Store.Update(cmd.Context(), func(cfg *config.Config) error {
				return p.Schedule.Unset(cmd.Context(), cfg)
			})
			if err != nil {
				return UserError(schedulingError(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Auto-change disabled")
			return nil
		},
	}
}

func newStatusCommand(p Params, use string, aliases ...string) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Aliases: aliases,
		Short:   "Show the automatic wallpaper change status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := p.Store.Load(cmd.Context())
			if err != nil {
				return UserError(err)
			}
			st, err := p.Schedule.Status(cmd.Context(), cfg)
			if err != nil {
				p.Logger.Warn("Trigger state unknown", zap.Error(err))
			}
			printStatus(cmd, st)
			return nil
		},
	}
}

func printStatus(cmd *cobra.Command, st schedule.Status) {
	out := cmd.OutOrStdout()
	state := "disabled"
	switch {
	case st.Enabled && st.Registered:
		state = "enabled"
	case st.Enabled:
		state = "enabled, but no trigger is registered; run `visuals set` again"
	case st.Registered:
		state = "disabled, but a stale trigger is registered; run `visuals unset`"
	}

	fmt.Fprintf(out, "Auto-change: %s\n", state)
	fmt.Fprintf(out, "Scheduler:   %s\n", st.Backend)
	fmt.Fprintf(out, "Frequency:   %s\n", st.Frequency.Describe())
	fmt.Fprintf(out, "Last run:    %s\n", formatTime(st.LastRun))
	if st.Registered {
		fmt.Fprintf(out, "Next run:    %s\n", formatTime(st.NextRun))
	}
	fmt.Fprintf(out, "Position:    %d\n", st.Index)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// schedulingError points unsupported hosts at the foreground runner
func schedulingError(err error) error {
	if errors.Is(err, domain.ErrUnsupported) {
		return fmt.Errorf("%w; keep `visuals run` running instead", err)
	}
	return err
}

func newRunCommand(p Params) *cobra.Command {
	var every string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Change wallpapers from a foreground scheduler until interrupted",
		Long: "Run the automatic wallpaper change in this process instead of an OS trigger. " +
			"Uses the configured frequency unless --every is given.",
		Args: cobra.NoArgs,
		Annotations: map[string]string{
			skipRetention: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := p.Store.Load(cmd.Context())
			if err != nil {
				return UserError(err)
			}
			f := cfg.Frequency()
			if strings.TrimSpace(every) != "" {
				if f, err = domain.ParseFrequency(every); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Changing wallpaper %s; press Ctrl+C to stop\n", f.Describe())
			return schedule.NewForeground(p.Logger, func(ctx context.Context) error {
				return tick(ctx, p)
			}).Run(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&every, "every", "", "frequency overriding the configured one")
	return cmd
}
