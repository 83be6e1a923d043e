package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/gantry/internal/config"
	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/db"
	"github.com/javiermolinar/gantry/internal/extcal"
	"github.com/javiermolinar/gantry/internal/log"
	"github.com/javiermolinar/gantry/internal/planner"
	"github.com/javiermolinar/gantry/internal/task"
	"github.com/javiermolinar/gantry/internal/tui"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// DebugLogPath is where --debug writes when no log file is configured.
const DebugLogPath = "gantry-debug.log"

// App holds the CLI application state.
type App struct {
	config  *config.Config
	root    *cobra.Command
	debug   bool
	noColor bool

	repo     task.Repository
	calendar *extcal.Calendar // nil when no sources are configured
	logFile  *os.File

	now func() time.Time
}

// NewApp creates a new CLI application with the given config. Storage is
// opened on first use.
func NewApp(cfg *config.Config) *App {
	a := &App{config: cfg, now: time.Now}

	a.root = &cobra.Command{
		Use:   "gantry",
		Short: "Plan projects and tasks on a Gantt chart and calendar",
		Long: `Gantry lays out projects, tasks and calendar events on a Gantt chart
and on month, week and day calendars.

Run without a subcommand to open the interactive planner.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.noColor {
				DisableColor()
			}
			return a.setupLogging(cmd == a.root)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := a.initialState(planner.ModeGantt, "", "")
			if err != nil {
				return err
			}
			ctl, err := a.controller(state)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), ctl, tui.Options{
				Palette:  a.palette(),
				Calendar: a.config.View.CalendarMode,
			})
		},
	}

	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to "+DebugLogPath+" unless log.file is set)")
	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colors in output and views")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.ganttCmd())
	a.root.AddCommand(a.calendarCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.dayCmd())
	a.root.AddCommand(a.layoutCmd())
	a.root.AddCommand(a.projectCmd())
	a.root.AddCommand(a.taskCmd())
	a.root.AddCommand(a.eventCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.resizeCmd())
	a.root.AddCommand(a.watchCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gantry %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI application with ctx as the commands' context.
func (a *App) ExecuteContext(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

// Close releases the database and the log file.
func (a *App) Close() error {
	var err error
	if a.repo != nil {
		err = a.repo.Close()
		a.repo = nil
	}
	if a.logFile != nil {
		log.SetOutput(os.Stderr)
		_ = a.logFile.Close()
		a.logFile = nil
	}
	return err
}

// setupLogging applies the configured level and output. The interactive
// planner owns the terminal, so it only logs to a file.
func (a *App) setupLogging(interactive bool) error {
	level, err := log.ParseLevel(a.config.Log.Level)
	if err != nil {
		return err
	}
	path := a.config.Log.File
	if a.debug {
		level = log.LevelDebug
		if path == "" {
			path = DebugLogPath
		}
	}
	if path == "" && interactive {
		level = log.LevelOff
	}
	log.SetLevel(level)

	if path != "" && a.logFile == nil {
		f, err := log.OpenFile(path)
		if err != nil {
			return err
		}
		a.logFile = f
	}
	log.Debug("logging configured", "level", level, "file", path)
	return nil
}

// open connects the task database and the external calendars.
func (a *App) open() error {
	if a.repo != nil {
		return nil
	}
	path := a.config.Storage.DBPath
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}
	repo, err := db.New(path)
	if err != nil {
		return err
	}
	a.repo = repo

	if len(a.config.Calendar.Sources) > 0 {
		sources := make([]extcal.Source, 0, len(a.config.Calendar.Sources))
		for _, s := range a.config.Calendar.Sources {
			sources = append(sources, extcal.Source{ID: s.ID, Location: s.Location})
		}
		store := extcal.NewStore(a.config.Calendar.OverridesDir)
		a.calendar = extcal.New(sources, store, extcal.Options{})
	}
	return nil
}

// controller returns a planner over the task database and the calendars.
// A zero anchor starts at today.
func (a *App) controller(initial planner.ViewState) (*planner.Controller, error) {
	if err := a.open(); err != nil {
		return nil, err
	}
	opts, err := a.config.PlannerOptions()
	if err != nil {
		return nil, err
	}
	opts.Now = a.now
	opts.OnReconcile = func(id string, err error) {
		if err != nil {
			log.Error("late mutation failed", err, "id", id)
			return
		}
		log.Info("late mutation stored", "id", id)
	}

	var events planner.EventSource
	if a.calendar != nil {
		events = a.calendar
	}
	return planner.New(task.NewEntityStore(a.repo), events, initial, opts), nil
}

// initialState builds the starting view. An empty scale uses the configured
// Gantt scale and an empty date is today.
func (a *App) initialState(mode planner.Mode, scale, date string) (planner.ViewState, error) {
	if scale == "" {
		scale = a.config.View.GanttScale
	}
	sc, err := planner.ParseScale(scale)
	if err != nil {
		return planner.ViewState{}, err
	}
	anchor, err := dateutil.ParseDay(date, a.now())
	if err != nil {
		return planner.ViewState{}, fmt.Errorf("date: %w", err)
	}
	return planner.ViewState{Mode: mode, Scale: sc, Anchor: anchor}, nil
}
