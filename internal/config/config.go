// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/log"
	"github.com/javiermolinar/gantry/internal/planner"
	"github.com/javiermolinar/gantry/internal/schedule"
	"github.com/javiermolinar/gantry/internal/scheduler"
	"github.com/javiermolinar/gantry/internal/theme"
)

// Config holds the application configuration.
type Config struct {
	View     ViewConfig     `toml:"view"`
	Schedule ScheduleConfig `toml:"schedule"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Storage  StorageConfig  `toml:"storage"`
	Calendar CalendarConfig `toml:"calendar"`
	Log      LogConfig      `toml:"log"`
	UI       UIConfig       `toml:"ui"`
}

// ViewConfig holds the initial view.
type ViewConfig struct {
	WeekStart    string `toml:"week_start"`    // "monday" or "sunday"
	GanttScale   string `toml:"gantt_scale"`   // "day", "week", "month"
	CalendarMode string `toml:"calendar_mode"` // "month", "week", "day"
}

// ScheduleConfig holds working hours and gesture settings.
type ScheduleConfig struct {
	Workdays            []string `toml:"workdays"`  // e.g., ["monday", "tuesday", ...]
	DayStart            string   `toml:"day_start"` // e.g., "09:00"
	DayEnd              string   `toml:"day_end"`   // e.g., "17:00"
	EnforceWorkHours    bool     `toml:"enforce_work_hours"`
	AxisStartHour       int      `toml:"axis_start_hour"`
	AxisEndHour         int      `toml:"axis_end_hour"`
	SnapMinutes         int      `toml:"snap_minutes"`
	MinDurationMinutes  int      `toml:"min_duration_minutes"`
	DefaultTimedMinutes int      `toml:"default_timed_minutes"`
	MutationTimeout     string   `toml:"mutation_timeout"` // Go duration, e.g. "10s"
	MaxPerDay           int      `toml:"max_per_day"`
}

// MetricsConfig holds the pointer sizes used to translate drags.
type MetricsConfig struct {
	DayCellWidth   float64 `toml:"day_cell_width"`
	WeekCellWidth  float64 `toml:"week_cell_width"`
	MonthCellWidth float64 `toml:"month_cell_width"`
	ColumnWidth    float64 `toml:"column_width"`
	RowHeight      float64 `toml:"row_height"`
	HourHeight     float64 `toml:"hour_height"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// CalendarConfig holds external calendar feeds.
type CalendarConfig struct {
	Sources      []CalendarSource `toml:"sources"`
	OverridesDir string           `toml:"overrides_dir"`
	Refresh      string           `toml:"refresh"` // cron spec, e.g. "@every 5m"
}

// CalendarSource is one ICS feed.
type CalendarSource struct {
	ID       string `toml:"id"`
	Location string `toml:"location"` // file path or http(s) URL
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "error", "off"
	File  string `toml:"file"`  // empty means stderr
}

// UIConfig holds TUI settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "macchiato", "frappe", "latte"
}

// Default returns the default configuration.
func Default() *Config {
	m := planner.DefaultMetrics()
	return &Config{
		View: ViewConfig{
			WeekStart:    "monday",
			GanttScale:   planner.ScaleWeek.String(),
			CalendarMode: planner.ModeMonth.String(),
		},
		Schedule: ScheduleConfig{
			Workdays:            []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
			DayStart:            "09:00",
			DayEnd:              "17:00",
			AxisStartHour:       schedule.DefaultHourAxis.StartHour,
			AxisEndHour:         schedule.DefaultHourAxis.EndHour,
			SnapMinutes:         15,
			MinDurationMinutes:  15,
			DefaultTimedMinutes: 30,
			MutationTimeout:     "10s",
			MaxPerDay:           3,
		},
		Metrics: MetricsConfig{
			DayCellWidth:   m.DayCellWidth,
			WeekCellWidth:  m.WeekCellWidth,
			MonthCellWidth: m.MonthCellWidth,
			ColumnWidth:    m.ColumnWidth,
			RowHeight:      m.RowHeight,
			HourHeight:     m.HourHeight,
		},
		Storage: StorageConfig{
			DBPath: "~/.local/share/gantry/gantry.db",
		},
		Calendar: CalendarConfig{
			OverridesDir: "~/.local/share/gantry/calendar",
			Refresh:      "@every 5m",
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Theme: "mocha",
		},
	}
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "gantry", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)
	cfg.Calendar.OverridesDir = expandPath(cfg.Calendar.OverridesDir)
	cfg.Log.File = expandPath(cfg.Log.File)
	for i, src := range cfg.Calendar.Sources {
		if !isURL(src.Location) {
			cfg.Calendar.Sources[i].Location = expandPath(src.Location)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("no config file, using defaults", "path", path)
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies GANTRY_* environment variables on top of the file config.
func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"GANTRY_WEEK_START":    &cfg.View.WeekStart,
		"GANTRY_GANTT_SCALE":   &cfg.View.GanttScale,
		"GANTRY_CALENDAR_MODE": &cfg.View.CalendarMode,
		"GANTRY_DAY_START":     &cfg.Schedule.DayStart,
		"GANTRY_DAY_END":       &cfg.Schedule.DayEnd,
		"GANTRY_DB_PATH":       &cfg.Storage.DBPath,
		"GANTRY_LOG_LEVEL":     &cfg.Log.Level,
		"GANTRY_LOG_FILE":      &cfg.Log.File,
		"GANTRY_THEME":         &cfg.UI.Theme,
		"GANTRY_REFRESH":       &cfg.Calendar.Refresh,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"GANTRY_SNAP_MINUTES": &cfg.Schedule.SnapMinutes,
		"GANTRY_MAX_PER_DAY":  &cfg.Schedule.MaxPerDay,
	}
	for name, dst := range ints {
		if v := os.Getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("GANTRY_WORKDAYS"); v != "" {
		cfg.Schedule.Workdays = strings.Split(v, ",")
	}
	if v := os.Getenv("GANTRY_ENFORCE_WORK_HOURS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GANTRY_ENFORCE_WORK_HOURS: %w", err)
		}
		cfg.Schedule.EnforceWorkHours = b
	}
	if v := os.Getenv("GANTRY_CALENDAR_SOURCES"); v != "" {
		cfg.Calendar.Sources = nil
		for i, loc := range strings.Split(v, ",") {
			cfg.Calendar.Sources = append(cfg.Calendar.Sources, CalendarSource{
				ID:       fmt.Sprintf("env%d", i+1),
				Location: strings.TrimSpace(loc),
			})
		}
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

func isURL(s string) bool {
	return strings.Contains(s, "://")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.WeekStart(); err != nil {
		return fmt.Errorf("week_start: %w", err)
	}
	if _, err := planner.ParseScale(c.View.GanttScale); err != nil {
		return fmt.Errorf("gantt_scale: %w", err)
	}
	if m, err := planner.ParseMode(c.View.CalendarMode); err != nil || !m.Calendar() {
		return fmt.Errorf("calendar_mode must be month, week or day, got %q", c.View.CalendarMode)
	}

	if _, err := c.Scheduler(); err != nil {
		return err
	}
	s := c.Schedule
	if s.AxisStartHour < 0 || s.AxisEndHour > 24 || s.AxisStartHour >= s.AxisEndHour {
		return fmt.Errorf("axis hours must satisfy 0 <= start < end <= 24, got %d-%d", s.AxisStartHour, s.AxisEndHour)
	}
	for name, v := range map[string]int{
		"snap_minutes":          s.SnapMinutes,
		"min_duration_minutes":  s.MinDurationMinutes,
		"default_timed_minutes": s.DefaultTimedMinutes,
		"max_per_day":           s.MaxPerDay,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if d, err := time.ParseDuration(s.MutationTimeout); err != nil || d <= 0 {
		return fmt.Errorf("mutation_timeout must be a positive duration, got %q", s.MutationTimeout)
	}

	m := c.Metrics
	for name, v := range map[string]float64{
		"day_cell_width":   m.DayCellWidth,
		"week_cell_width":  m.WeekCellWidth,
		"month_cell_width": m.MonthCellWidth,
		"column_width":     m.ColumnWidth,
		"row_height":       m.RowHeight,
		"hour_height":      m.HourHeight,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, v)
		}
	}

	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}

	ids := make(map[string]bool)
	for _, src := range c.Calendar.Sources {
		if src.ID == "" || src.Location == "" {
			return errors.New("calendar sources need an id and a location")
		}
		if ids[src.ID] {
			return fmt.Errorf("duplicate calendar source id %q", src.ID)
		}
		ids[src.ID] = true
	}
	if len(c.Calendar.Sources) > 0 && c.Calendar.OverridesDir == "" {
		return errors.New("overrides_dir must be set when calendar sources are configured")
	}
	if _, err := cron.ParseStandard(c.Calendar.Refresh); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if !theme.IsAvailable(c.UI.Theme) {
		return fmt.Errorf("unknown theme %q (available: %s)", c.UI.Theme, strings.Join(theme.Available(), ", "))
	}
	return nil
}

// WeekStart returns the configured first day of the week.
func (c *Config) WeekStart() (time.Weekday, error) {
	wd, err := dateutil.ParseWeekday(c.View.WeekStart)
	if err != nil {
		return time.Monday, err
	}
	if wd != time.Monday && wd != time.Sunday {
		return time.Monday, fmt.Errorf("%w: only monday or sunday", dateutil.ErrInvalidWeekday)
	}
	return wd, nil
}

// Scheduler builds the working-hours scheduler.
func (c *Config) Scheduler() (*scheduler.Scheduler, error) {
	s, err := scheduler.New(c.Schedule.Workdays, c.Schedule.DayStart, c.Schedule.DayEnd)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	return s, nil
}

// PlannerOptions converts the config into controller options.
// The work-hours validator is set when enforce_work_hours is on.
func (c *Config) PlannerOptions() (planner.Options, error) {
	opts := planner.DefaultOptions()
	wd, err := c.WeekStart()
	if err != nil {
		return opts, err
	}
	timeout, err := time.ParseDuration(c.Schedule.MutationTimeout)
	if err != nil {
		return opts, fmt.Errorf("mutation_timeout: %w", err)
	}

	opts.FirstDay = wd
	opts.Hours = schedule.HourAxis{StartHour: c.Schedule.AxisStartHour, EndHour: c.Schedule.AxisEndHour}
	opts.Snap = time.Duration(c.Schedule.SnapMinutes) * time.Minute
	opts.MinDuration = time.Duration(c.Schedule.MinDurationMinutes) * time.Minute
	opts.DefaultTimed = time.Duration(c.Schedule.DefaultTimedMinutes) * time.Minute
	opts.MutationTimeout = timeout
	opts.MaxPerDay = c.Schedule.MaxPerDay
	opts.Metrics = planner.Metrics{
		DayCellWidth:   c.Metrics.DayCellWidth,
		WeekCellWidth:  c.Metrics.WeekCellWidth,
		MonthCellWidth: c.Metrics.MonthCellWidth,
		ColumnWidth:    c.Metrics.ColumnWidth,
		RowHeight:      c.Metrics.RowHeight,
		HourHeight:     c.Metrics.HourHeight,
	}
	if c.Schedule.EnforceWorkHours {
		s, err := c.Scheduler()
		if err != nil {
			return opts, err
		}
		opts.Validator = s
	}
	return opts, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
