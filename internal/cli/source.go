package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/ratelimit"
	"github.com/spf13/cobra"
)

func newSourceCommand(p Params) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:     "source [name]",
		Aliases: []string{"src"},
		Short:   "Show or switch the image source",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				cfg, err := p.Store.Load(cmd.Context())
				if err != nil {
					return UserError(err)
				}
				printSources(out, p.Registry.Descriptors(), cfg, time.Now())
				return nil
			}

			id, err := domain.ParseSourceID(args[0])
			if err != nil {
				return err
			}
			src, err := p.Registry.Get(id)
			if err != nil {
				return err
			}
			desc := src.Descriptor()

			if desc.RequiresCredential && key == "" {
				cfg, err := p.Store.Load(cmd.Context())
				if err != nil {
					return UserError(err)
				}
				if cfg.Credential(id) == "" {
					key, err = newPrompter(cmd).ask(fmt.Sprintf("%s needs an API key. Enter it:", desc.DisplayName))
					if err != nil {
						return err
					}
					if key == "" {
						return fmt.Errorf("%s needs an API key; source unchanged", desc.DisplayName)
					}
				}
			}

			err = p.Store.Update(cmd.Context(), func(cfg *config.Config) error {
				cfg.Source = id
				if key != "" {
					cfg.SetCredential(id, key)
				}
				return nil
			})
			if err != nil {
				return UserError(err)
			}
			fmt.Fprintf(out, "Source set to %s\n", desc.DisplayName)
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "API key for the source")
	return cmd
}

func printSources(out io.Writer, descs []domain.SourceDescriptor, cfg *config.Config, now time.Time) {
	for _, d := range descs {
		mark := " "
		if d.ID == cfg.Source {
			mark = "*"
		}

		budget := "unmetered"
		if d.Metered() {
			b := ratelimit.BudgetFor(d)
			w := cfg.Window(d.ID)
			budget = fmt.Sprintf("%d/%d requests left", b.Remaining(w, now), d.Capacity)
			if b.Exhausted(w, now) {
				budget += fmt.Sprintf(", resets in %s", b.ResetIn(w, now).Round(time.Minute))
			}
		}

		key := ""
		switch {
		case !d.RequiresCredential:
		case cfg.Credential(d.ID) == "":
			key = ", no API key"
		default:
			key = ", API key set"
		}

		fmt.Fprintf(out, "%s %-10s %-6s %s%s\n", mark, d.ID, d.Resolution, budget, key)
	}
}

func newRemoveKeyCommand(p Params) *cobra.Command {
	return &cobra.Command{
		Use:   "rm",
		Short: "Clear the API key of the current source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				id      domain.SourceID
				removed bool
			)
			err := p.Store.Update(cmd.Context(), func(cfg *config.Config) error {
				id = cfg.Source
				removed = cfg.Credential(id) != ""
				cfg.SetCredential(id, "")
				return nil
			})
			if err != nil {
				return UserError(err)
			}

			out := cmd.OutOrStdout()
			if removed {
				fmt.Fprintf(out, "%s API key cleared; use `visuals source %s --key <key>` to set a new one\n", id, id)
			} else {
				fmt.Fprintf(out, "%s has no API key stored\n", id)
			}
			return nil
		},
	}
}
