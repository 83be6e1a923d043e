package ui

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/extcal"
	"github.com/javiermolinar/gantry/internal/schedule"
)

var errNoCalendars = errors.New("no calendar sources configured (see calendar.sources)")

func (a *App) eventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"events"},
		Short:   "List calendar events and undo moves",
	}
	cmd.AddCommand(a.eventListCmd())
	cmd.AddCommand(a.eventResetCmd())
	return cmd
}

// calendarOrErr opens storage and returns the calendar.
func (a *App) calendarOrErr() (*extcal.Calendar, error) {
	if err := a.open(); err != nil {
		return nil, err
	}
	if a.calendar == nil {
		return nil, errNoCalendars
	}
	return a.calendar, nil
}

func (a *App) eventListCmd() *cobra.Command {
	var (
		from string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List calendar events in a date range",
		Long: `List the occurrences of every configured calendar in a date range.

Recurring events are expanded. Events moved with "gantry move" are shown at
their new position. The ID column is what move, resize and reset accept.`,
		Example: `  gantry event list
  gantry event list --from=monday --to=+6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cal, err := a.calendarOrErr()
			if err != nil {
				return err
			}
			first, err := dateutil.ParseDay(from, a.now())
			if err != nil {
				return fmt.Errorf("from: %w", err)
			}
			last := first
			if to != "" {
				if last, err = dateutil.ParseDay(to, first); err != nil {
					return fmt.Errorf("to: %w", err)
				}
			}
			if last.Before(first) {
				return dateutil.ErrEndDateBeforeStart
			}

			entities, err := cal.List(cmd.Context(), first, last.AddDate(0, 0, 1))
			if err != nil {
				return fmt.Errorf("listing events: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(entities) == 0 {
				fmt.Fprintln(out, "No events found.")
				return nil
			}
			slices.SortFunc(entities, func(x, y schedule.Entity) int {
				if c := x.Range.Start.Compare(y.Range.Start); c != 0 {
					return c
				}
				return strings.Compare(x.ID, y.ID)
			})

			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.MaxColWidth = 50
			tbl.AddRow(formatHeader("ID"), formatHeader("SOURCE"), formatHeader("SUMMARY"), formatHeader("WHEN"))
			for _, e := range entities {
				summary := e.ID
				if o, ok := e.Payload.(*extcal.Occurrence); ok && o.Summary != "" {
					summary = o.Summary
				}
				tbl.AddRow(e.ID, e.Group, summary, formatWhen(e.Range))
			}
			fmt.Fprintln(out, tbl)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (default: today)")
	cmd.Flags().StringVar(&to, "to", "", "Last day, inclusive (default: --from)")
	return cmd
}

func (a *App) eventResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset [id]",
		Short: "Return a moved event to its position in the feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := a.calendarOrErr()
			if err != nil {
				return err
			}
			if !extcal.IsOccurrenceID(args[0]) {
				return fmt.Errorf("%w: %s", schedule.ErrEntityNotFound, args[0])
			}
			if err := cal.Reset(args[0]); err != nil {
				return fmt.Errorf("resetting event: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", args[0])
			return nil
		},
	}
}

// formatWhen prints a range as dates for all-day ranges and as times otherwise.
func formatWhen(r schedule.TimeRange) string {
	if r.AllDay {
		first, last := r.Start.Format(dateutil.DateLayout), r.LastDay().Format(dateutil.DateLayout)
		if first == last {
			return first + " (all day)"
		}
		return first + ".." + last + " (all day)"
	}
	if dateutil.TruncateToDay(r.Start).Equal(dateutil.TruncateToDay(r.End)) {
		return r.Start.Format("2006-01-02 15:04") + "-" + r.End.Format("15:04")
	}
	return r.Start.Format("2006-01-02 15:04") + ".." + r.End.Format("2006-01-02 15:04")
}
