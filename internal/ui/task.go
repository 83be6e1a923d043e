package ui

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/task"
)

// shortIDLen is how many characters of an ID listings show. Any unique
// prefix is accepted back on the command line.
const shortIDLen = 8

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

func (a *App) taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, list and update tasks",
	}
	cmd.AddCommand(a.taskAddCmd())
	cmd.AddCommand(a.taskListCmd())
	cmd.AddCommand(a.taskProgressCmd())
	cmd.AddCommand(a.taskDeleteCmd())
	return cmd
}

func (a *App) taskAddCmd() *cobra.Command {
	var (
		start    string
		end      string
		priority string
	)

	cmd := &cobra.Command{
		Use:   "add [project] [name]",
		Short: "Add a task to a project",
		Long: `Add a task to a project. Tasks are scheduled in whole days.

Dates accept YYYY-MM-DD, today, tomorrow, weekday names, next-<weekday>
and day offsets such as +3. A relative end date counts from the start.`,
		Example: `  gantry task add 3f2a "Write docs" --start=monday --end=+4
  gantry task add 3f2a "Review" --start=2025-01-10 --priority=high`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			ctx := cmd.Context()
			projectID, err := a.repo.ResolveID(ctx, args[0])
			if err != nil {
				return err
			}
			first, err := a.startOrWorkday(start)
			if err != nil {
				return err
			}
			t, err := task.New(projectID, args[1], first, end)
			if err != nil {
				return err
			}
			if t.Priority, err = task.ParsePriority(priority); err != nil {
				return err
			}
			if err := a.repo.CreateTask(ctx, t); err != nil {
				return fmt.Errorf("creating task: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s %s..%s (%d days)\n",
				shortID(t.ID),
				t.Name,
				t.Start.Format(dateutil.DateLayout),
				t.End.Format(dateutil.DateLayout),
				t.Days(),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day (default: the first workday from today)")
	cmd.Flags().StringVar(&end, "end", "", "Last day, inclusive (default: start)")
	cmd.Flags().StringVar(&priority, "priority", "medium", "Priority: low, medium or high")

	return cmd
}

func (a *App) taskListCmd() *cobra.Command {
	var (
		project string
		from    string
		to      string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List tasks ordered by start date.

With --from (and optionally --to) only tasks overlapping that range are
listed. Overdue tasks are highlighted.`,
		Example: `  gantry task list
  gantry task list --project=3f2a
  gantry task list --from=2025-01-13 --to=2025-01-19`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			ctx := cmd.Context()

			var (
				tasks []*task.Task
				err   error
			)
			switch {
			case from != "" || to != "":
				var dr *dateutil.DateRange
				dr, err = dateutil.NewDateRange(from, to)
				if err != nil {
					return err
				}
				tasks, err = a.repo.ListTasksByDateRange(ctx, dr.Start, dr.End)
			case project != "":
				var id string
				if id, err = a.repo.ResolveID(ctx, project); err != nil {
					return err
				}
				tasks, err = a.repo.ListTasks(ctx, id)
			default:
				tasks, err = a.repo.ListTasks(ctx, "")
			}
			if err != nil {
				return fmt.Errorf("listing tasks: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks found.")
				return nil
			}

			projects, err := a.projectNames(cmd)
			if err != nil {
				return err
			}

			now := a.now()
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.MaxColWidth = 40
			tbl.AddRow(formatHeader("ID"), formatHeader("PROJECT"), formatHeader("NAME"), formatHeader("START"),
				formatHeader("END"), formatHeader("DAYS"), formatHeader("STATUS"), formatHeader("PROGRESS"), formatHeader("PRIORITY"))
			for _, t := range tasks {
				name := t.Name
				if t.IsOverdue(now) {
					name = formatWarning(name + " (overdue)")
				}
				tbl.AddRow(
					shortID(t.ID),
					projects[t.ProjectID],
					name,
					t.Start.Format(dateutil.DateLayout),
					t.End.Format(dateutil.DateLayout),
					t.Days(),
					formatStatus(t.Status),
					strconv.Itoa(t.Progress)+"%",
					string(t.Priority),
				)
			}
			fmt.Fprintln(out, tbl)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Only tasks of this project (ID prefix)")
	cmd.Flags().StringVar(&from, "from", "", "Start of the date range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "End of the date range, inclusive (default: --from)")

	return cmd
}

func (a *App) taskProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress [id] [percent]",
		Short: "Set the progress of a task",
		Long: `Set the progress of a task from 0 to 100.

The status follows the progress: 0 is todo, 100 is done and anything in
between is in progress.`,
		Example: `  gantry task progress 9c1e 40
  gantry task progress 9c1e 100`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := strconv.Atoi(args[1])
			if err != nil {
				return task.ErrInvalidProgress
			}
			if err := a.open(); err != nil {
				return err
			}
			ctx := cmd.Context()
			id, err := a.repo.ResolveID(ctx, args[0])
			if err != nil {
				return err
			}
			t, err := a.repo.GetTask(ctx, id)
			if err != nil {
				return err
			}
			if err := t.SetProgress(p); err != nil {
				return err
			}
			if err := a.repo.UpdateTaskProgress(ctx, t.ID, t.Progress, t.Status); err != nil {
				return fmt.Errorf("updating task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s: %d%% (%s)\n", shortID(t.ID), t.Progress, t.Status)
			return nil
		},
	}
	return cmd
}

func (a *App) taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			ctx := cmd.Context()
			id, err := a.repo.ResolveID(ctx, args[0])
			if err != nil {
				return err
			}
			t, err := a.repo.GetTask(ctx, id)
			if err != nil {
				return err
			}
			if err := a.repo.DeleteTask(ctx, id); err != nil {
				return fmt.Errorf("deleting task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s: %s\n", shortID(id), t.Name)
			return nil
		},
	}
}

// projectNames maps project IDs to names.
func (a *App) projectNames(cmd *cobra.Command) (map[string]string, error) {
	projects, err := a.repo.ListProjects(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}
	return names, nil
}

// startOrWorkday fills in an empty start with the first workday from today.
func (a *App) startOrWorkday(start string) (string, error) {
	if start != "" {
		return start, nil
	}
	s, err := a.config.Scheduler()
	if err != nil {
		return "", err
	}
	return s.FirstWorkday(a.now()).Format(dateutil.DateLayout), nil
}

func formatStatus(s task.Status) string {
	var c *color.Color
	switch s {
	case task.StatusDone:
		c = colorDone
	case task.StatusInProgress:
		c = colorActive
	default:
		c = colorMuted
	}
	return c.Sprint(string(s))
}
