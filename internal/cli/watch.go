package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/radialtree/pkg/httputil"
	"github.com/matzehuels/radialtree/pkg/pipeline"
)

// watchDebounce collapses the burst of events editors emit per save.
const watchDebounce = 200 * time.Millisecond

// watchLayouts recomputes the layout of an input whenever it changes,
// until ctx is cancelled. Directories are watched rather than files so
// editors that replace files on save keep being tracked.
func (c *CLI) watchLayouts(ctx context.Context, runner *pipeline.Runner, inputs []string, opts pipeline.Options, f layoutFlags) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]string{} // absolute path -> input as given
	for _, in := range inputs {
		if httputil.IsURL(in) {
			printWarning("Not watching %s", in)
			continue
		}
		abs, err := filepath.Abs(in)
		if err != nil {
			return err
		}
		watched[abs] = in
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", in, err)
		}
	}
	if len(watched) == 0 {
		return nil
	}

	printInfo("Watching %d file(s), press Ctrl+C to stop", len(watched))
	f.refresh = false

	pending := map[string]bool{}
	timer := time.NewTimer(watchDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if in, ok := watched[filepath.Clean(ev.Name)]; ok {
				pending[in] = true
				timer.Reset(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Logger.Warn("watch error", "error", err)
		case <-timer.C:
			changed := make([]string, 0, len(pending))
			for in := range pending {
				changed = append(changed, in)
			}
			slices.Sort(changed)
			clear(pending)

			c.Logger.Debug("inputs changed", "files", changed)
			if err := c.runLayouts(ctx, runner, changed, opts, f); err != nil {
				printError("%v", err)
			}
		}
	}
}
