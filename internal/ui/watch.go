package ui

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/javiermolinar/gantry/internal/log"
	"github.com/javiermolinar/gantry/internal/planner"
)

const clearScreen = "\x1b[H\x1b[2J"

func (a *App) watchCmd() *cobra.Command {
	var f viewFlags
	cmd := &cobra.Command{
		Use:   "watch [gantt|month|week|day]",
		Short: "Redraw a view on the calendar refresh schedule",
		Long: `Print a view and redraw it on the cron schedule in calendar.refresh,
picking up changes to the database and the calendar feeds.

Without --date the view follows today. Stop with Ctrl-C.`,
		Example: `  gantry watch
  gantry watch week`,
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
			state, err := a.initialState(mode, f.scale, f.date)
			if err != nil {
				return err
			}
			ctl, err := a.controller(state)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			follow := f.date == ""
			redraw := func() {
				if follow {
					ctl.JumpToToday()
				}
				m, err := ctl.Render(ctx)
				if err != nil {
					log.Error("refreshing view", err, "mode", mode)
					return
				}
				if isTerminal(out) {
					fmt.Fprint(out, clearScreen)
				}
				a.draw(out, m, f.width, nil)
			}

			c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
			if _, err := c.AddFunc(a.config.Calendar.Refresh, redraw); err != nil {
				return fmt.Errorf("calendar.refresh: %w", err)
			}
			redraw()
			c.Start()
			log.Info("watching", "mode", mode, "refresh", a.config.Calendar.Refresh)

			<-ctx.Done()
			<-c.Stop().Done()
			return nil
		},
	}
	f.register(cmd, true)
	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
