package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fentz26/tasksync/internal/stats"
	"github.com/spf13/cobra"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Replace local tasks with the remote collection",
	RunE:  runRefresh,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the share of active and completed tasks",
	RunE:  runStats,
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent replication and refresh attempts",
	RunE:  runJournal,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the task list every time it changes",
	RunE:  runWatch,
}

var journalLimit int

func init() {
	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "Number of entries to show")
	statsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.repo.Refresh(ctx); err != nil {
			return err
		}
		tasks, err := a.repo.GetTasks(ctx, false)
		if err != nil {
			return err
		}
		fmt.Printf("Refreshed %d tasks from the %s remote\n", len(tasks), a.cfg.Remote.Kind)
		return nil
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		tasks, err := a.repo.GetTasks(ctx, false)
		if err != nil {
			return err
		}
		result := stats.ActiveAndCompleted(tasks)
		if jsonOutput {
			return printJSON(result)
		}
		fmt.Printf("Tasks:     %d\n", len(tasks))
		fmt.Printf("Active:    %.1f%%\n", result.ActivePercent)
		fmt.Printf("Completed: %.1f%%\n", result.CompletedPercent)
		return nil
	})
}

func runJournal(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		entries, err := a.store.ListSyncEntries(ctx, journalLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No sync attempts recorded")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tACTION\tOUTCOME\tTASKS\tDETAILS")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				e.Timestamp.Local().Format(time.DateTime), e.Action, e.Outcome, e.TaskCount, truncate(e.Details, 60))
		}
		w.Flush()
		return nil
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a.startPeriodicSync()

		for tasks := range a.repo.TasksStream(ctx) {
			fmt.Printf("--- %s: %d tasks\n", time.Now().Format(time.TimeOnly), len(tasks))
			for _, t := range tasks {
				fmt.Printf("  [%s] %s  %s\n", mark(t.IsCompleted), truncateID(t.ID), t.TitleForList())
			}
		}
		return nil
	})
}

func mark(completed bool) string {
	if completed {
		return "x"
	}
	return " "
}
