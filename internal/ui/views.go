package ui

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/gantry/internal/planner"
	"github.com/javiermolinar/gantry/internal/render"
)

// viewFlags are shared by the commands that print a view.
type viewFlags struct {
	date     string
	scale    string
	width    int
	collapse []string
}

func (f *viewFlags) register(cmd *cobra.Command, withScale bool) {
	cmd.Flags().StringVar(&f.date, "date", "", "Anchor date (YYYY-MM-DD, today, +3, monday, ...)")
	cmd.Flags().IntVar(&f.width, "width", 0, "Output width in columns (default: terminal width)")
	if withScale {
		cmd.Flags().StringVar(&f.scale, "scale", "", "Gantt scale: day, week or month (default from config)")
		cmd.Flags().StringSliceVar(&f.collapse, "collapse", nil, "Project IDs whose tasks are hidden")
	}
}

func (a *App) ganttCmd() *cobra.Command {
	var f viewFlags
	cmd := &cobra.Command{
		Use:   "gantt",
		Short: "Print the Gantt chart of projects and tasks",
		Long: `Print projects and their tasks on a Gantt chart.

The chart starts one week before the week of the anchor date. The day scale
shows 3 weeks, the week scale 6 weeks and the month scale about 3 months.`,
		Example: `  gantry gantt
  gantry gantt --scale=week --date=2025-03-01
  gantry gantt --collapse=3f2a`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printView(cmd, planner.ModeGantt, f)
		},
	}
	f.register(cmd, true)
	return cmd
}

func (a *App) calendarCmd() *cobra.Command {
	var f viewFlags
	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal", "month"},
		Short:   "Print the calendar in the configured mode",
		Long: `Print tasks and calendar events on a calendar.

The calendar mode (month, week or day) comes from view.calendar_mode.
When invoked as "month" the month view is always used.`,
		Example: `  gantry calendar
  gantry month --date=2025-02-01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode, err := planner.ParseMode(a.config.View.CalendarMode)
			if err != nil {
				return err
			}
			if cmd.CalledAs() == "month" {
				mode = planner.ModeMonth
			}
			return a.printView(cmd, mode, f)
		},
	}
	f.register(cmd, false)
	return cmd
}

func (a *App) weekCmd() *cobra.Command {
	var f viewFlags
	cmd := &cobra.Command{
		Use:     "week",
		Short:   "Print the week view",
		Example: "  gantry week --date=next-week",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printView(cmd, planner.ModeWeek, f)
		},
	}
	f.register(cmd, false)
	return cmd
}

func (a *App) dayCmd() *cobra.Command {
	var f viewFlags
	cmd := &cobra.Command{
		Use:     "day",
		Short:   "Print the day view",
		Example: "  gantry day --date=tomorrow",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printView(cmd, planner.ModeDay, f)
		},
	}
	f.register(cmd, false)
	return cmd
}

func (a *App) layoutCmd() *cobra.Command {
	var (
		f      viewFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "layout [gantt|month|week|day]",
		Short: "Export the computed layout as YAML or JSON",
		Long: `Export the layout of a view: its range, rows, boxes and entities.

Boxes carry the row, column, offset, length and lane of every entity, in
the units of the view (days, or minutes from the start of the hour axis).`,
		Example: `  gantry layout
  gantry layout week --output=json --date=2025-03-10`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"gantt", "month", "week", "day"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := planner.ModeGantt
			if len(args) == 1 {
				m, err := planner.ParseMode(args[0])
				if err != nil {
					return err
				}
				mode = m
			}
			m, err := a.renderModel(cmd, mode, f)
			if err != nil {
				return err
			}
			return render.Encode(cmd.OutOrStdout(), render.Export(m), output)
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "Output format: yaml or json")
	return cmd
}

// renderModel lays out one view from the command's flags.
func (a *App) renderModel(cmd *cobra.Command, mode planner.Mode, f viewFlags) (*planner.RenderModel, error) {
	state, err := a.initialState(mode, f.scale, f.date)
	if err != nil {
		return nil, err
	}
	ctl, err := a.controller(state)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	for _, prefix := range f.collapse {
		id, err := a.repo.ResolveID(ctx, prefix)
		if err != nil {
			return nil, err
		}
		ctl.ToggleProject(id)
	}
	m, err := ctl.Render(ctx)
	if err != nil {
		return nil, fmt.Errorf("rendering %s view: %w", mode, err)
	}
	return m, nil
}

func (a *App) printView(cmd *cobra.Command, mode planner.Mode, f viewFlags) error {
	m, err := a.renderModel(cmd, mode, f)
	if err != nil {
		return err
	}
	a.draw(cmd.OutOrStdout(), m, f.width, nil)
	return nil
}

// draw renders a model with the configured palette.
func (a *App) draw(w io.Writer, m *planner.RenderModel, width int, preview *planner.Preview) {
	if width <= 0 {
		width = termWidth()
	}
	opts := render.Options{
		Width:   width,
		Palette: a.palette(),
		Now:     a.now(),
		Preview: preview,
	}
	if preview != nil {
		opts.Selected = preview.EntityID
	}
	fmt.Fprint(w, render.Render(m, opts))
}
