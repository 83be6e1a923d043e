package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/gantry/internal/extcal"
	"github.com/javiermolinar/gantry/internal/planner"
	"github.com/javiermolinar/gantry/internal/render"
	"github.com/javiermolinar/gantry/internal/schedule"
	"github.com/javiermolinar/gantry/internal/task"
)

var (
	errWholeDays    = errors.New("tasks and projects move in whole days")
	errTimedMinutes = errors.New("timed events resize in minutes")
)

// gestureFlags describe a drag in calendar units. They are turned into
// pointer deltas so the command goes through the same path as the
// interactive planner.
type gestureFlags struct {
	days    int
	minutes int
	allDay  bool
	at      string
	edge    string
	dryRun  bool
	width   int
}

func (a *App) moveCmd() *cobra.Command {
	var f gestureFlags
	cmd := &cobra.Command{
		Use:   "move [id]",
		Short: "Move a task, project or calendar event",
		Long: `Move a task, project or calendar event.

Tasks and projects move by whole days. Calendar events also move by
minutes (snapped to schedule.snap_minutes), and can be turned into all-day
events with --all-day or into timed events with --at. A conversion lands
on a day of the event's week.

Moved events are stored as overrides; the calendar feed is not modified.`,
		Example: `  gantry move 9c1e --days=3
  gantry move 'standup@2025-01-13T09:00:00Z' --minutes=30
  gantry move 'offsite@2025-01-15T00:00:00Z' --at=10:00
  gantry move 9c1e --days=-2 --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGesture(cmd, args[0], planner.GestureMove, f)
		},
	}
	cmd.Flags().IntVar(&f.days, "days", 0, "Days to move (negative moves earlier)")
	cmd.Flags().IntVar(&f.minutes, "minutes", 0, "Minutes to move a timed event")
	cmd.Flags().BoolVar(&f.allDay, "all-day", false, "Turn a timed event into an all-day event")
	cmd.Flags().StringVar(&f.at, "at", "", "Start time (HH:MM) for an event; turns all-day events into timed ones")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show where the item would land without storing it")
	cmd.Flags().IntVar(&f.width, "width", 0, "Preview width in columns (default: terminal width)")
	cmd.MarkFlagsMutuallyExclusive("all-day", "at")
	cmd.MarkFlagsMutuallyExclusive("all-day", "minutes")
	return cmd
}

func (a *App) resizeCmd() *cobra.Command {
	var f gestureFlags
	cmd := &cobra.Command{
		Use:   "resize [id]",
		Short: "Move the start or end of a task, project or calendar event",
		Long: `Move one edge of a task, project or calendar event.

Tasks, projects and all-day events resize by whole days and keep at least
one day. Timed events resize by minutes and keep at least
schedule.min_duration_minutes.`,
		Example: `  gantry resize 9c1e --days=2
  gantry resize 9c1e --edge=start --days=-1
  gantry resize 'standup@2025-01-13T09:00:00Z' --minutes=15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := planner.GestureResizeEnd
			switch f.edge {
			case "end":
			case "start":
				kind = planner.GestureResizeStart
			default:
				return fmt.Errorf("edge must be 'start' or 'end', got %q", f.edge)
			}
			return a.runGesture(cmd, args[0], kind, f)
		},
	}
	cmd.Flags().StringVar(&f.edge, "edge", "end", "Edge to move: start or end")
	cmd.Flags().IntVar(&f.days, "days", 0, "Days to move the edge")
	cmd.Flags().IntVar(&f.minutes, "minutes", 0, "Minutes to move the edge of a timed event")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show the result without storing it")
	cmd.Flags().IntVar(&f.width, "width", 0, "Preview width in columns (default: terminal width)")
	return cmd
}

// runGesture replays a drag on the view that shows the entity: the day
// Gantt chart for tasks and projects, the week grid for events.
func (a *App) runGesture(cmd *cobra.Command, ref string, kind planner.GestureKind, f gestureFlags) error {
	ctx := cmd.Context()
	e, err := a.lookup(ctx, ref)
	if err != nil {
		return err
	}

	state := planner.ViewState{Mode: planner.ModeGantt, Scale: planner.ScaleDay, Anchor: e.Range.Start}
	if e.Source == schedule.SourceExternal {
		state.Mode = planner.ModeWeek
	}
	ctl, err := a.controller(state)
	if err != nil {
		return err
	}
	defer ctl.Wait()

	m, err := ctl.Render(ctx)
	if err != nil {
		return err
	}
	box, ok := m.Box(e.ID)
	if !ok {
		return fmt.Errorf("%w: %s is not visible", schedule.ErrEntityNotFound, e.ID)
	}

	origin, delta, err := pointerDelta(ctl, m, e, box, kind, f)
	if err != nil {
		return err
	}
	if err := ctl.BeginGesture(e.ID, kind, origin); err != nil {
		return err
	}
	preview, err := ctl.UpdateGesture(delta)
	if err != nil {
		ctl.CancelGesture()
		return err
	}

	out := cmd.OutOrStdout()
	name := render.Label(e)
	if preview.Range.Equal(e.Range) {
		ctl.CancelGesture()
		fmt.Fprintf(out, "Nothing to change: %s stays at %s\n", name, formatWhen(e.Range))
		return nil
	}
	if f.dryRun {
		ctl.CancelGesture()
		fmt.Fprintf(out, "Would %s %s: %s -> %s\n\n", verb(kind), name, formatWhen(e.Range), formatWhen(preview.Range))
		a.draw(out, m, f.width, &preview)
		return nil
	}

	if _, err := ctl.EndGesture(ctx); err != nil {
		return fmt.Errorf("%s %s: %w", verb(kind), name, err)
	}
	fmt.Fprintf(out, "%s %s: %s -> %s\n", pastVerb(kind), name, formatWhen(e.Range), formatWhen(preview.Range))
	return nil
}

// lookup finds a task, project or event by ID or ID prefix.
func (a *App) lookup(ctx context.Context, ref string) (schedule.Entity, error) {
	if err := a.open(); err != nil {
		return schedule.Entity{}, err
	}
	if extcal.IsOccurrenceID(ref) {
		cal, err := a.calendarOrErr()
		if err != nil {
			return schedule.Entity{}, err
		}
		return cal.Get(ctx, ref)
	}
	id, err := a.repo.ResolveID(ctx, ref)
	if err != nil {
		return schedule.Entity{}, err
	}
	return task.NewEntityStore(a.repo).Get(ctx, id)
}

// pointerDelta places the pointer on the entity's box and converts the
// flags into a pointer delta in the view's units.
func pointerDelta(ctl *planner.Controller, m *planner.RenderModel, e schedule.Entity, box schedule.LayoutBox,
	kind planner.GestureKind, f gestureFlags) (planner.Pointer, planner.Pointer, error) {
	metrics := ctl.Options().Metrics
	origin := ctl.PointerAt(m, box)

	if e.Source != schedule.SourceExternal {
		if f.minutes != 0 || f.allDay || f.at != "" {
			return planner.Pointer{}, planner.Pointer{}, errWholeDays
		}
		return origin, planner.Pointer{X: float64(f.days) * metrics.CellWidth(planner.ScaleDay)}, nil
	}

	hour := metrics.HourHeight
	var delta planner.Pointer
	if f.days != 0 {
		if kind != planner.GestureMove && !e.Range.AllDay {
			return planner.Pointer{}, planner.Pointer{}, errTimedMinutes
		}
		delta.X = float64(f.days) * metrics.ColumnWidth
	}
	switch {
	case f.allDay:
		if !e.Range.AllDay {
			delta.Y = -origin.Y - hour/2
		}
	case f.at != "":
		at, err := time.Parse("15:04", f.at)
		if err != nil {
			return planner.Pointer{}, planner.Pointer{}, fmt.Errorf("at must be HH:MM, got %q", f.at)
		}
		minutes := at.Hour()*60 + at.Minute() - m.Range.Hours.StartHour*60
		if minutes < 0 || at.Hour() >= m.Range.Hours.EndHour {
			return planner.Pointer{}, planner.Pointer{}, fmt.Errorf("%w: %s is outside %02d:00-%02d:00",
				schedule.ErrInvalidRange, f.at, m.Range.Hours.StartHour, m.Range.Hours.EndHour)
		}
		delta.Y = float64(minutes)/60*hour - origin.Y
	}
	delta.Y += float64(f.minutes) / 60 * hour
	return origin, delta, nil
}

func verb(k planner.GestureKind) string {
	if k == planner.GestureMove {
		return "move"
	}
	return "resize"
}

func pastVerb(k planner.GestureKind) string {
	if k == planner.GestureMove {
		return "Moved"
	}
	return "Resized"
}
