package cli

import (
	"fmt"

	"github.com/genricoloni/visuals/internal/config"
	"github.com/spf13/cobra"
)

func newResetCommand(p Params) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset settings to their defaults",
		Long: "Reset the source, API keys, themes and rotation position to their defaults. " +
			"Downloaded wallpapers, the schedule and request budgets are kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !yes {
				ok, err := newPrompter(cmd).confirm("This clears your source, API keys and themes. Continue?")
				if err != nil || !ok {
					fmt.Fprintln(out, "Reset cancelled")
					return nil
				}
			}

			err := p.Store.Update(cmd.Context(), func(cfg *config.Config) error {
				reset(cfg)
				return nil
			})
			if err != nil {
				return UserError(err)
			}
			fmt.Fprintln(out, "Configuration reset to defaults")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

// reset restores defaults while keeping the state that mirrors the outside
// world: the registered trigger, provider quotas and the sequence counter
func reset(cfg *config.Config) {
	def := config.Default()
	def.AutoChange.Enabled = cfg.AutoChange.Enabled
	def.AutoChange.Frequency = cfg.AutoChange.Frequency
	def.RateLimits = cfg.RateLimits
	def.NextSequence = cfg.NextSequence
	def.LastAutoChange = cfg.LastAutoChange
	*cfg = *def
}
