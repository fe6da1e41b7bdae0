package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/library"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newChangeCommand(p Params) *cobra.Command {
	return &cobra.Command{
		Use:     "change [sequence]",
		Aliases: []string{"c"},
		Short:   "Set a wallpaper from the local library",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := p.Library.List()
			if err != nil {
				return UserError(err)
			}
			if len(images) == 0 {
				return fmt.Errorf("the library at %s is empty; download images with `visuals fetch`", p.Library.Dir())
			}

			var seq int
			if len(args) == 1 {
				seq, err = parseSequence(args[0])
			} else {
				printLibrary(cmd.OutOrStdout(), images, "", -1)
				seq, err = askUntil(newPrompter(cmd), "Sequence number:", 3, parseSequence)
			}
			if err != nil {
				return err
			}

			// positions are only stable under the lock
			var img library.Image
			err = p.Store.Update(cmd.Context(), func(cfg *config.Config) error {
				images, err := p.Library.List()
				if err != nil {
					return err
				}
				pos := findSequence(images, seq)
				if pos < 0 {
					return fmt.Errorf("no image with sequence %d", seq)
				}
				img = images[pos]
				if err := p.Executor.SetWallpaper(cmd.Context(), img.Path); err != nil {
					return err
				}
				cfg.AutoChange.Index = pos + 1
				return nil
			})
			if err != nil {
				return UserError(err)
			}

			p.Logger.Debug("Wallpaper changed from library", zap.String("path", img.Path))
			fmt.Fprintf(cmd.OutOrStdout(), "Wallpaper set to %s\n", filepath.Base(img.Path))
			return nil
		},
	}
}

func newListCommand(p Params) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the wallpapers in the library",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			images, err := p.Library.List()
			if err != nil {
				return UserError(err)
			}
			cfg, err := p.Store.Load(cmd.Context())
			if err != nil {
				return UserError(err)
			}
			current, err := p.Executor.GetCurrentWallpaper(cmd.Context())
			if err != nil {
				p.Logger.Debug("Current wallpaper unknown", zap.Error(err))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%d images)\n", p.Library.Dir(), len(images))
			printLibrary(out, images, current, cfg.AutoChange.Index)
			return nil
		},
	}
}

// printLibrary marks the displayed image with * and the next rotation
// target with >
func printLibrary(out io.Writer, images []library.Image, current string, next int) {
	for i, img := range images {
		mark := " "
		switch {
		case current != "" && library.SamePath(img.Path, current):
			mark = "*"
		case i == next:
			mark = ">"
		}
		fmt.Fprintf(out, "%s %5d  %-10s %-24s %s\n",
			mark, img.Sequence, img.Source, img.Theme, img.ModTime.Format("2006-01-02"))
	}
}

func parseSequence(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q is not a sequence number", s)
	}
	return n, nil
}

func findSequence(images []library.Image, seq int) int {
	for i, img := range images {
		if img.Sequence == seq {
			return i
		}
	}
	return -1
}
