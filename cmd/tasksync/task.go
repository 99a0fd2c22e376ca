package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fentz26/tasksync/internal/models"
	"github.com/fentz26/tasksync/internal/stats"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new task",
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Change a task's title and description",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete [task-id]",
	Short: "Mark a task as completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTaskSetCompleted(args[0], true)
	},
}

var taskActivateCmd = &cobra.Command{
	Use:   "activate [task-id]",
	Short: "Mark a task as active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTaskSetCompleted(args[0], false)
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var taskClearCompletedCmd = &cobra.Command{
	Use:   "clear-completed",
	Short: "Delete every completed task",
	RunE:  runTaskClearCompleted,
}

var taskDeleteAllCmd = &cobra.Command{
	Use:   "delete-all",
	Short: "Delete every task",
	RunE:  runTaskDeleteAll,
}

var (
	taskTitle   string
	taskDesc    string
	taskFilter  string
	forceUpdate bool
	jsonOutput  bool
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskEditCmd, taskCompleteCmd,
		taskActivateCmd, taskDeleteCmd, taskClearCompletedCmd, taskDeleteAllCmd)

	taskAddCmd.Flags().StringVar(&taskTitle, "title", "", "Task title")
	taskAddCmd.Flags().StringVar(&taskDesc, "desc", "", "Task description")

	taskEditCmd.Flags().StringVar(&taskTitle, "title", "", "New title")
	taskEditCmd.Flags().StringVar(&taskDesc, "desc", "", "New description")

	taskListCmd.Flags().StringVar(&taskFilter, "filter", "all", "Filter by state (all, active, completed)")
	taskListCmd.Flags().BoolVar(&forceUpdate, "refresh", false, "Pull from the remote before listing")
	taskListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")

	taskShowCmd.Flags().BoolVar(&forceUpdate, "refresh", false, "Pull from the remote before reading")
	taskShowCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	if (models.Task{Title: taskTitle, Description: taskDesc}).IsEmpty() {
		return fmt.Errorf("a task needs a title or a description")
	}

	return withApp(func(ctx context.Context, a *app) error {
		id, err := a.repo.CreateTask(ctx, taskTitle, taskDesc)
		if err != nil {
			return err
		}
		fmt.Printf("Created task: %s\n", id)
		return nil
	})
}

func runTaskList(cmd *cobra.Command, args []string) error {
	filter, ok := stats.ParseFilter(taskFilter)
	if !ok {
		return fmt.Errorf("invalid filter %q, must be: all, active, or completed", taskFilter)
	}

	return withApp(func(ctx context.Context, a *app) error {
		tasks, err := a.repo.GetTasks(ctx, forceUpdate)
		if err != nil {
			return err
		}
		tasks = stats.Filter(tasks, filter)

		if jsonOutput {
			return printJSON(tasks)
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSTATUS")
		for _, t := range tasks {
			fmt.Fprintf(w, "%s\t%s\t%s\n", truncateID(t.ID), truncate(t.TitleForList(), 40), status(t))
		}
		w.Flush()
		return nil
	})
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if forceUpdate {
			if err := a.repo.Refresh(ctx); err != nil {
				return err
			}
		}
		id, err := resolveID(ctx, a.repo, args[0])
		if err != nil {
			return err
		}
		task, err := a.repo.GetTask(ctx, id, false)
		if err != nil {
			return err
		}
		if task == nil {
			return fmt.Errorf("task %s not found", id)
		}

		if jsonOutput {
			return printJSON(task)
		}
		fmt.Printf("ID:          %s\n", task.ID)
		fmt.Printf("Title:       %s\n", task.Title)
		fmt.Printf("Description: %s\n", task.Description)
		fmt.Printf("Status:      %s\n", status(*task))
		return nil
	})
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		id, err := resolveID(ctx, a.repo, args[0])
		if err != nil {
			return err
		}
		task, err := a.repo.GetTask(ctx, id, false)
		if err != nil {
			return err
		}
		if task == nil {
			return fmt.Errorf("task %s not found", id)
		}

		title, desc := task.Title, task.Description
		if cmd.Flags().Changed("title") {
			title = taskTitle
		}
		if cmd.Flags().Changed("desc") {
			desc = taskDesc
		}
		if (models.Task{Title: title, Description: desc}).IsEmpty() {
			return fmt.Errorf("a task needs a title or a description")
		}

		if err := a.repo.UpdateTask(ctx, id, title, desc); err != nil {
			return err
		}
		fmt.Printf("Updated task %s\n", id)
		return nil
	})
}

func runTaskSetCompleted(arg string, completed bool) error {
	return withApp(func(ctx context.Context, a *app) error {
		id, err := resolveID(ctx, a.repo, arg)
		if err != nil {
			return err
		}
		if completed {
			err = a.repo.CompleteTask(ctx, id)
		} else {
			err = a.repo.ActivateTask(ctx, id)
		}
		if err != nil {
			return err
		}
		if completed {
			fmt.Printf("Completed task %s\n", id)
		} else {
			fmt.Printf("Activated task %s\n", id)
		}
		return nil
	})
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		id, err := resolveID(ctx, a.repo, args[0])
		if err != nil {
			return err
		}
		if err := a.repo.DeleteTask(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Deleted task %s\n", id)
		return nil
	})
}

func runTaskClearCompleted(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.repo.ClearCompletedTasks(ctx); err != nil {
			return err
		}
		fmt.Println("Cleared completed tasks")
		return nil
	})
}

func runTaskDeleteAll(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		if err := a.repo.DeleteAllTasks(ctx); err != nil {
			return err
		}
		fmt.Println("Deleted all tasks")
		return nil
	})
}

// --- Helpers ---

func status(t models.Task) string {
	if t.IsCompleted {
		return "completed"
	}
	return "active"
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
