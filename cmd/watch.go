package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/dyemelianov/rapsflow/internal/workflow"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-run discovery whenever a workflow definition file changes",
		RunE:  runWatch,
	}
}

// runWatch re-discovers the workflow directory on every create/write/remove
// event, printing the resulting count. It watches the root directory
// non-recursively, mirroring the depth fsnotify itself supports without a
// directory-tree walker of its own.
func runWatch(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(app.cfg.WorkflowDir); err != nil {
		return fmt.Errorf("watch %s: %w", app.cfg.WorkflowDir, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s watching %s for changes (ctrl-c to stop)\n",
		text.Colors{text.FgHiBlue, text.Bold}.Sprint("▶"), app.cfg.WorkflowDir)

	rediscover := func() {
		discovery := workflow.NewDiscovery()
		errs, derr := discovery.Discover(app.cfg.WorkflowDir)
		if derr != nil {
			fmt.Fprintf(out, "%s discovery failed: %v\n", text.Colors{text.FgHiRed, text.Bold}.Sprint("✗"), derr)
			return
		}
		app.discovery = discovery
		fmt.Fprintf(out, "%s %d workflows discovered, %d parse errors\n",
			text.Colors{text.FgHiGreen, text.Bold}.Sprint("✓"), len(discovery.All()), len(errs))
	}
	rediscover()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			fmt.Fprintf(out, "%s %s\n", text.Colors{text.FgHiYellow, text.Bold}.Sprint("changed:"), event.Name)
			rediscover()
		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "%s watcher error: %v\n", text.Colors{text.FgHiRed, text.Bold}.Sprint("✗"), werr)
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		}
	}
}
