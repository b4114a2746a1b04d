package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/linkboard/internal/core"
)

type watchOptions struct {
	criteriaFlags
	debounce time.Duration
}

func newWatchCmd(root *rootOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <file.csv>",
		Short: "Re-run the analysis whenever the file changes",
		Long: `Watch prints the analysis once, then again each time the file is
written or replaced. A file that fails to load is reported and the
previous dataset stays on screen. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.criteria()
			if err != nil {
				return err
			}

			ws := core.NewWorkspace()
			ws.Apply(c)
			out := cmd.OutOrStdout()

			reload := func() {
				rows, err := loadDataset(args[0], root.maxBytes)
				if err != nil {
					slog.Warn("reload failed", "path", args[0], "error", err)
					fmt.Fprintf(out, "%s: %s\n", time.Now().Format(time.TimeOnly), core.FormatUserError(err))
					return
				}
				v := ws.Load(args[0], rows)
				if opts.page > 1 {
					v = ws.SetPage(opts.page)
				}
				printWatchFrame(out, args[0], v)
			}

			reload()
			return watchFile(cmd.Context(), args[0], opts.debounce, reload)
		},
	}

	opts.bind(cmd.Flags(), true)
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 200*time.Millisecond, "wait this long after the last change before reloading")
	return cmd
}

func printWatchFrame(w io.Writer, source string, v core.ViewState) {
	fmt.Fprintf(w, "\n=== %s ===\n", time.Now().Format(time.TimeOnly))
	fmt.Fprint(w, renderText(source, v))
}

// watchFile calls onChange after path is written or created. Editors that
// save through a temporary file and rename it into place show up as a
// create. Bursts of events within debounce collapse into one call.
// watchFile blocks until ctx is done.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory so the watch survives the file being replaced.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	slog.Debug("watching", "path", target)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "path", target, "error", err)
		}
	}
}
