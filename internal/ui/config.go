package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/gantry/internal/config"
	"github.com/javiermolinar/gantry/internal/theme"
)

func (a *App) configCmd() *cobra.Command {
	var (
		path string
		show bool
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.`,
		Example: `  gantry config
  gantry config --show`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if show {
				cfg, err := config.LoadFrom(path)
				if err != nil {
					return fmt.Errorf("loading config: %w", err)
				}
				printConfig(cmd.OutOrStdout(), cfg)
				return nil
			}
			return runConfigInteractive(cmd.InOrStdin(), cmd.OutOrStdout(), path)
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "Config file (default: ~/.config/gantry/config.toml)")
	cmd.Flags().BoolVar(&show, "show", false, "Print the configuration and exit")
	return cmd
}

func runConfigInteractive(in io.Reader, out io.Writer, path string) error {
	fmt.Fprintf(out, "Config file: %s\n\n", path)

	cfg, err := config.LoadFrom(path)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(path); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(out, "Created %s\n\n", path)
	}

	printConfig(out, cfg)

	reader := bufio.NewReader(in)
	if !promptYesNo(reader, out, "\nWould you like to edit the configuration?") {
		return nil
	}

	p := prompter{r: reader, w: out}
	cfg.View.WeekStart = p.value("Week starts on (monday/sunday)", cfg.View.WeekStart)
	cfg.View.GanttScale = p.value("Gantt scale (day/week/month)", cfg.View.GanttScale)
	cfg.View.CalendarMode = p.value("Calendar mode (month/week/day)", cfg.View.CalendarMode)
	cfg.Schedule.DayStart = p.value("Day start", cfg.Schedule.DayStart)
	cfg.Schedule.DayEnd = p.value("Day end", cfg.Schedule.DayEnd)
	cfg.Schedule.Workdays = p.slice("Workdays (comma-separated)", cfg.Schedule.Workdays)
	cfg.Schedule.EnforceWorkHours = p.boolean("Reject moves outside work hours", cfg.Schedule.EnforceWorkHours)
	cfg.Schedule.SnapMinutes = p.integer("Snap minutes", cfg.Schedule.SnapMinutes)
	cfg.Storage.DBPath = p.value("Database path", cfg.Storage.DBPath)
	cfg.Calendar.Refresh = p.value("Calendar refresh (cron spec)", cfg.Calendar.Refresh)
	cfg.UI.Theme = p.theme(cfg.UI.Theme)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, formatHeader("Current configuration:"))
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[view]")
	fmt.Fprintf(w, "  week_start         = %s\n", cfg.View.WeekStart)
	fmt.Fprintf(w, "  gantt_scale        = %s\n", cfg.View.GanttScale)
	fmt.Fprintf(w, "  calendar_mode      = %s\n", cfg.View.CalendarMode)
	fmt.Fprintln(w, "\n[schedule]")
	fmt.Fprintf(w, "  day_start          = %s\n", cfg.Schedule.DayStart)
	fmt.Fprintf(w, "  day_end            = %s\n", cfg.Schedule.DayEnd)
	fmt.Fprintf(w, "  workdays           = %s\n", strings.Join(cfg.Schedule.Workdays, ", "))
	fmt.Fprintf(w, "  enforce_work_hours = %t\n", cfg.Schedule.EnforceWorkHours)
	fmt.Fprintf(w, "  hour axis          = %02d:00-%02d:00\n", cfg.Schedule.AxisStartHour, cfg.Schedule.AxisEndHour)
	fmt.Fprintf(w, "  snap_minutes       = %d\n", cfg.Schedule.SnapMinutes)
	fmt.Fprintf(w, "  max_per_day        = %d\n", cfg.Schedule.MaxPerDay)
	fmt.Fprintln(w, "\n[storage]")
	fmt.Fprintf(w, "  db_path            = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(w, "\n[calendar]")
	if len(cfg.Calendar.Sources) == 0 {
		fmt.Fprintln(w, formatMuted("  (no sources)"))
	}
	for _, s := range cfg.Calendar.Sources {
		fmt.Fprintf(w, "  %-18s = %s\n", s.ID, s.Location)
	}
	fmt.Fprintf(w, "  refresh            = %s\n", cfg.Calendar.Refresh)
	fmt.Fprintln(w, "\n[log]")
	fmt.Fprintf(w, "  level              = %s\n", cfg.Log.Level)
	if cfg.Log.File != "" {
		fmt.Fprintf(w, "  file               = %s\n", cfg.Log.File)
	}
	fmt.Fprintln(w, "\n[ui]")
	fmt.Fprintf(w, "  theme              = %s\n", cfg.UI.Theme)
}

func promptYesNo(r *bufio.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	input, _ := r.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

// prompter asks for values, keeping the current one on empty input.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func (p prompter) value(label, current string) string {
	if current == "" {
		fmt.Fprintf(p.w, "  %s: ", label)
	} else {
		fmt.Fprintf(p.w, "  %s [%s]: ", label, current)
	}
	input, _ := p.r.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func (p prompter) slice(label string, current []string) []string {
	input := p.value(label, strings.Join(current, ", "))
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

func (p prompter) boolean(label string, current bool) bool {
	for {
		v, err := strconv.ParseBool(p.value(label, strconv.FormatBool(current)))
		if err == nil {
			return v
		}
		fmt.Fprintln(p.w, formatError("  Please answer true or false."))
	}
}

func (p prompter) integer(label string, current int) int {
	for {
		v, err := strconv.Atoi(p.value(label, strconv.Itoa(current)))
		if err == nil && v > 0 {
			return v
		}
		fmt.Fprintln(p.w, formatError("  Please enter a positive number."))
	}
}

func (p prompter) theme(current string) string {
	options := strings.Join(theme.Available(), ", ")
	label := fmt.Sprintf("UI theme (%s)", options)
	for {
		value := strings.ToLower(p.value(label, current))
		if theme.IsAvailable(value) {
			return value
		}
		fmt.Fprintf(p.w, "  Invalid theme %q. Available: %s\n", value, options)
	}
}
