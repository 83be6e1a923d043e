package ui

import (
	"fmt"
	"strconv"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/task"
)

func (a *App) projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"proj"},
		Short:   "Add, list and delete projects",
	}
	cmd.AddCommand(a.projectAddCmd())
	cmd.AddCommand(a.projectListCmd())
	cmd.AddCommand(a.projectDeleteCmd())
	return cmd
}

func (a *App) projectAddCmd() *cobra.Command {
	var (
		start string
		end   string
		color string
	)

	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add a project",
		Long: `Add a project. A project has its own date range and is drawn as a bar
above its tasks on the Gantt chart.`,
		Example: `  gantry project add "Website" --start=2025-01-06 --end=2025-02-28
  gantry project add "Launch" --start=monday --end=+30 --color="#a6e3a1"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			first, err := a.startOrWorkday(start)
			if err != nil {
				return err
			}
			p, err := task.NewProject(args[0], color, first, end)
			if err != nil {
				return err
			}
			if err := a.open(); err != nil {
				return err
			}
			if err := a.repo.CreateProject(cmd.Context(), p); err != nil {
				return fmt.Errorf("creating project: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s: %s %s..%s (%d days)\n",
				shortID(p.ID),
				p.Name,
				p.Start.Format(dateutil.DateLayout),
				p.End.Format(dateutil.DateLayout),
				p.Days(),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First day (default: the first workday from today)")
	cmd.Flags().StringVar(&end, "end", "", "Last day, inclusive (default: start)")
	cmd.Flags().StringVar(&color, "color", "", "Bar color, e.g. \"#89b4fa\" (default: theme)")

	return cmd
}

func (a *App) projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects with task statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			ctx := cmd.Context()
			projects, err := a.repo.ListProjects(ctx)
			if err != nil {
				return fmt.Errorf("listing projects: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects yet. Add one with: gantry project add [name]")
				return nil
			}

			now := a.now()
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.MaxColWidth = 40
			tbl.AddRow(formatHeader("ID"), formatHeader("NAME"), formatHeader("START"), formatHeader("END"),
				formatHeader("DAYS"), formatHeader("DONE"), formatHeader("PROGRESS"), formatHeader("OVERDUE"))
			for _, p := range projects {
				tasks, err := a.repo.ListTasks(ctx, p.ID)
				if err != nil {
					return fmt.Errorf("listing tasks of %s: %w", p.Name, err)
				}
				stats := task.Summarize(tasks, now)
				overdue := strconv.Itoa(stats.Overdue)
				if stats.Overdue > 0 {
					overdue = formatWarning(overdue)
				}
				tbl.AddRow(
					shortID(p.ID),
					p.Name,
					p.Start.Format(dateutil.DateLayout),
					p.End.Format(dateutil.DateLayout),
					p.Days(),
					stats.Ratio(),
					strconv.Itoa(stats.Progress)+"%",
					overdue,
				)
			}
			fmt.Fprintln(out, tbl)
			return nil
		},
	}
}

func (a *App) projectDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [id]",
		Aliases: []string{"rm"},
		Short:   "Delete a project and its tasks",
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
			p, err := a.repo.GetProject(ctx, id)
			if err != nil {
				return err
			}
			if err := a.repo.DeleteProject(ctx, id); err != nil {
				return fmt.Errorf("deleting project: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s: %s\n", shortID(id), p.Name)
			return nil
		},
	}
}
