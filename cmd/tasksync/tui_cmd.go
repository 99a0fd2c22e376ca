package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/fentz26/tasksync/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Background failures are journaled; keep log lines off the screen.
	log.SetOutput(io.Discard)

	return withApp(func(ctx context.Context, a *app) error {
		a.startPeriodicSync()

		if err := tui.New(ctx, a.repo).Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})
}
