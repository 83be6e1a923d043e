package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/javiermolinar/gantry/internal/log"
	"github.com/javiermolinar/gantry/internal/theme"
)

// Color definitions for consistent styling across the CLI.
var (
	colorHeader  = color.New(color.Bold)
	colorMuted   = color.New(color.FgWhite, color.Faint)
	colorDone    = color.New(color.FgGreen)
	colorActive  = color.New(color.FgCyan)
	colorWarning = color.New(color.FgYellow)
	colorError   = color.New(color.FgRed, color.Bold)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 100
	}
	return width
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// palette returns the configured theme's palette, or nil when colors are off.
func (a *App) palette() *theme.Palette {
	if color.NoColor {
		return nil
	}
	t, err := theme.Load(a.config.UI.Theme)
	if err != nil {
		log.Error("loading theme", err, "theme", a.config.UI.Theme)
		return nil
	}
	return theme.NewPalette(t)
}

func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}

func formatWarning(s string) string {
	return colorWarning.Sprint(s)
}

func formatError(s string) string {
	return colorError.Sprint(s)
}
