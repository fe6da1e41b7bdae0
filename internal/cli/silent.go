package cli

import (
	"context"

	"github.com/genricoloni/visuals/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// tick runs one rotation under the configuration lock
func tick(ctx context.Context, p Params) error {
	return p.Store.Update(ctx, func(cfg *config.Config) error {
		out, err := p.Rotation.Run(ctx, cfg)
		if err != nil {
			return err
		}
		p.Logger.Info("Auto-change finished",
			zap.Stringer("transition", out.Transition),
			zap.String("path", out.Path),
			zap.Int("index", out.Index))
		return nil
	})
}

func newAutoChangeCommand(p Params) *cobra.Command {
	return silent(&cobra.Command{
		Use:   "auto-change",
		Short: "Change the wallpaper once (invoked by the scheduler)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := tick(cmd.Context(), p); err != nil {
				p.Logger.Error("Auto-change failed", zap.Error(err))
			}
			return nil
		},
	})
}

func newSilentUninstallCommand(p Params) *cobra.Command {
	return silent(&cobra.Command{
		Use:   "silent-uninstall",
		Short: "Remove the scheduler trigger (invoked by the uninstaller)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := p.Store.Update(cmd.Context(), func(cfg *config.Config) error {
				return p.Schedule.Unset(cmd.Context(), cfg)
			})
			if err != nil {
				p.Logger.Warn("Uninstall cleanup incomplete", zap.Error(err))
			}
			return nil
		},
	})
}
