package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/genricoloni/visuals/internal/acquire"
	"github.com/genricoloni/visuals/internal/config"
	"github.com/genricoloni/visuals/internal/domain"
	"github.com/genricoloni/visuals/internal/library"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const maxFetchCount = 30

func newFetchCommand(p Params) *cobra.Command {
	var (
		count  int
		source string
		apply  bool
	)

	cmd := &cobra.Command{
		Use:     "fetch [query...]",
		Aliases: []string{"f"},
		Short:   "Download new wallpapers from the current source",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 || count > maxFetchCount {
				return fmt.Errorf("count must be between 1 and %d", maxFetchCount)
			}
			req := acquire.Request{
				Query: strings.Join(args, " "),
				Count: count,
			}
			if source != "" {
				id, err := domain.ParseSourceID(source)
				if err != nil {
					return err
				}
				req.Source = id
			}
			err := runFetch(cmd.Context(), cmd.OutOrStdout(), p, req, apply)
			if !needsCredential(err) {
				return err
			}
			// offer to fix the key once, then retry
			if fixErr := promptCredential(cmd, p, req.Source); fixErr != nil {
				return err
			}
			return runFetch(cmd.Context(), cmd.OutOrStdout(), p, req, apply)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of images to download")
	cmd.Flags().StringVarP(&source, "source", "s", "", "source to use instead of the configured one")
	cmd.Flags().BoolVarP(&apply, "apply", "a", true, "set the newest image as wallpaper")
	return cmd
}

func runFetch(ctx context.Context, out io.Writer, p Params, req acquire.Request, apply bool) error {
	var result acquire.Result
	err := p.Store.Update(ctx, func(cfg *config.Config) error {
		var err error
		result, err = p.Acquirer.Acquire(ctx, cfg, req, func(ev acquire.Event) {
			printEvent(out, ev)
		})
		if err != nil {
			return err
		}
		if !apply || len(result.Accepted) == 0 {
			return nil
		}

		newest := result.Accepted[len(result.Accepted)-1]
		if err := p.Executor.SetWallpaper(ctx, newest.Path); err != nil {
			p.Logger.Warn("Wallpaper not applied", zap.String("path", newest.Path), zap.Error(err))
			fmt.Fprintf(out, "Downloaded, but the wallpaper could not be set: %v\n", err)
			return nil
		}
		images, err := p.Library.List()
		if err == nil {
			if i := library.IndexOf(images, newest.Path); i >= 0 {
				cfg.AutoChange.Index = i + 1
			}
		}
		return nil
	})
	if err != nil {
		return UserError(err)
	}

	switch {
	case len(result.Accepted) > 0:
		fmt.Fprintf(out, "%d new image(s) from %s for %q\n", len(result.Accepted), result.Source, result.Query)
	case result.Duplicates > 0:
		fmt.Fprintln(out, "Every result is already in your library; try another query.")
	}
	if result.Failed > 0 {
		fmt.Fprintf(out, "%d download(s) failed\n", result.Failed)
	}
	return nil
}

func needsCredential(err error) bool {
	return errors.Is(err, domain.ErrCredentialMissing) || errors.Is(err, domain.ErrCredentialInvalid)
}

// promptCredential asks for and stores an API key for id, or for the
// configured source when id is empty
func promptCredential(cmd *cobra.Command, p Params, id domain.SourceID) error {
	if id == "" {
		cfg, err := p.Store.Load(cmd.Context())
		if err != nil {
			return err
		}
		id = cfg.Source
	}
	key, err := newPrompter(cmd).ask(fmt.Sprintf("Enter your %s API key (empty to cancel):", id))
	if err != nil {
		return err
	}
	if key == "" {
		return errNoInput
	}
	return p.Store.Update(cmd.Context(), func(cfg *config.Config) error {
		cfg.SetCredential(id, key)
		return nil
	})
}

func printEvent(out io.Writer, ev acquire.Event) {
	switch ev.Kind {
	case acquire.EventAccepted:
		fmt.Fprintf(out, "  + %s\n", filepath.Base(ev.Image.Path))
	case acquire.EventDuplicate:
		fmt.Fprintf(out, "  = %s already saved as %s\n", ev.Candidate.NativeID, filepath.Base(ev.Existing))
	case acquire.EventFailed:
		msg := "failed"
		if ev.Err != nil && !errors.Is(ev.Err, context.Canceled) {
			msg = ev.Err.Error()
		}
		fmt.Fprintf(out, "  ! %s: %s\n", ev.Candidate.NativeID, msg)
	}
}
