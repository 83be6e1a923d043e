package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/javiermolinar/gantry/internal/planner"
	"github.com/javiermolinar/gantry/internal/render"
)

// View renders the model.
func (m Model) View() string {
	if m.view == nil {
		if m.err != nil {
			return "Error: " + m.err.Error() + "\n\n" + m.help.View(m.keys)
		}
		return "Loading..."
	}

	var preview *planner.Preview
	if m.gesture != nil {
		p := m.gesture.preview
		preview = &p
	}
	body := render.Render(m.view, render.Options{
		Width:    m.width,
		Palette:  m.opts.Palette,
		Now:      m.ctl.Options().Now(),
		Selected: m.selected,
		Preview:  preview,
	})

	footer := m.footer()
	if m.height > 0 {
		body = clip(body, m.height-lipgloss.Height(footer))
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, footer)
}

func (m Model) footer() string {
	var b strings.Builder
	b.WriteString(m.statusLine())
	b.WriteString("\n")

	var keys help.KeyMap = m.keys
	if m.gesture != nil {
		keys = gestureKeys{m.keys}
	}
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) statusLine() string {
	warn := lipgloss.NewStyle()
	muted := lipgloss.NewStyle()
	if p := m.opts.Palette; p != nil {
		warn = warn.Foreground(p.Warning).Bold(true)
		muted = muted.Foreground(p.FgMuted)
	}

	switch {
	case m.err != nil:
		return warn.Render("Error: " + m.err.Error())
	case m.gesture != nil:
		g := m.gesture
		e := m.view.Entities[g.preview.EntityID]
		return fmt.Sprintf("%s %s: %s -> %s", g.kind, render.Label(e), e.Range, g.preview.Range)
	case m.status != "":
		return muted.Render(m.status)
	case m.selected != "":
		if e, ok := m.view.Entities[m.selected]; ok {
			return muted.Render(fmt.Sprintf("%s  %s", render.Label(e), e.Range))
		}
	}
	return ""
}

// clip keeps the first n lines of s.
func clip(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[:n], "\n")
}
