// Package render turns a planner.RenderModel into text for the terminal.
//
// Every view is drawn from the layout boxes alone; the renderer never
// re-computes positions or lanes.
package render

import (
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/extcal"
	"github.com/javiermolinar/gantry/internal/planner"
	"github.com/javiermolinar/gantry/internal/schedule"
	"github.com/javiermolinar/gantry/internal/task"
	"github.com/javiermolinar/gantry/internal/theme"
)

const defaultWidth = 100

// Options configure how a model is drawn.
type Options struct {
	Width    int            // columns available; 0 uses 100
	Palette  *theme.Palette // nil draws without colors
	Now      time.Time      // marks today; zero disables the marker
	Selected string         // entity drawn as the cursor
	Preview  *planner.Preview
}

func (o Options) width() int {
	if o.Width <= 0 {
		return defaultWidth
	}
	return o.Width
}

func (o Options) isToday(d time.Time) bool {
	if o.Now.IsZero() {
		return false
	}
	return dateutil.TruncateToDay(o.Now).Equal(dateutil.TruncateToDay(d))
}

// Render draws the model in the view its state names.
func Render(m *planner.RenderModel, o Options) string {
	if m == nil {
		return ""
	}
	switch m.State.Mode {
	case planner.ModeMonth:
		return Month(m, o)
	case planner.ModeWeek, planner.ModeDay:
		return Grid(m, o)
	default:
		return Gantt(m, o)
	}
}

// Label returns the display name of an entity.
func Label(e schedule.Entity) string {
	switch p := e.Payload.(type) {
	case *task.Task:
		return p.Name
	case *task.Project:
		return p.Name
	case *extcal.Occurrence:
		if p.Summary != "" {
			return p.Summary
		}
	}
	return e.ID
}

func isDone(e schedule.Entity) bool {
	t, ok := e.Payload.(*task.Task)
	return ok && t.IsDone()
}

func progress(e schedule.Entity) (int, bool) {
	t, ok := e.Payload.(*task.Task)
	if !ok {
		return 0, false
	}
	return t.Progress, true
}

type styles struct {
	pal      *theme.Palette
	title    lipgloss.Style
	header   lipgloss.Style
	muted    lipgloss.Style
	today    lipgloss.Style
	selected lipgloss.Style
}

func newStyles(p *theme.Palette) styles {
	s := styles{
		pal:      p,
		title:    lipgloss.NewStyle(),
		header:   lipgloss.NewStyle(),
		muted:    lipgloss.NewStyle(),
		today:    lipgloss.NewStyle(),
		selected: lipgloss.NewStyle(),
	}
	if p == nil {
		return s
	}
	s.title = s.title.Foreground(p.Accent).Bold(true)
	s.header = s.header.Foreground(p.Fg).Bold(true)
	s.muted = s.muted.Foreground(p.FgMuted)
	s.today = s.today.Foreground(p.Today).Bold(true)
	s.selected = s.selected.Background(p.BgSelection).Foreground(p.Fg).Bold(true)
	return s
}

// bar returns the style of an entity's box. Text bars (Gantt) color the
// glyphs; filled boxes (calendar views) color the background.
func (s styles) bar(e schedule.Entity, selected, filled bool) lipgloss.Style {
	st := lipgloss.NewStyle()
	if s.pal == nil {
		return st
	}
	if selected {
		return s.selected
	}
	bg, fg := s.pal.Bar(e.Source, isDone(e))
	if p, ok := e.Payload.(*task.Project); ok && p.Color != "" {
		bg = lipgloss.Color(p.Color)
	}
	if filled {
		return st.Background(bg).Foreground(fg)
	}
	return st.Foreground(bg)
}

// fit truncates s to w cells and pads it with spaces.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = ansi.Truncate(s, w, "…")
	if pad := w - lipgloss.Width(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}

// view is the model with the gesture preview swapped in.
type view struct {
	m       *planner.RenderModel
	boxes   map[string][]schedule.LayoutBox
	preview *planner.Preview
}

func newView(m *planner.RenderModel, p *planner.Preview) view {
	v := view{m: m, boxes: m.Boxes, preview: p}
	if p == nil {
		return v
	}
	v.boxes = make(map[string][]schedule.LayoutBox, len(m.Boxes))
	for id, b := range m.Boxes {
		v.boxes[id] = b
	}
	v.boxes[p.EntityID] = p.Boxes
	return v
}

func (v view) entity(id string) schedule.Entity {
	e := v.m.Entities[id]
	if v.preview != nil && v.preview.EntityID == id {
		e.Range = v.preview.Range
	}
	return e
}

func (v view) all(keep func(schedule.LayoutBox) bool) []schedule.LayoutBox {
	var out []schedule.LayoutBox
	for _, boxes := range v.boxes {
		for _, b := range boxes {
			if keep(b) {
				out = append(out, b)
			}
		}
	}
	slices.SortFunc(out, func(a, b schedule.LayoutBox) int {
		if a.Column != b.Column {
			return a.Column - b.Column
		}
		if a.Offset != b.Offset {
			return a.Offset - b.Offset
		}
		return strings.Compare(a.EntityID, b.EntityID)
	})
	return out
}

// spanLine draws boxes that cover whole columns of width colW, left to right.
// Boxes must not overlap; later overlapping boxes are skipped.
func spanLine(boxes []schedule.LayoutBox, ncols, colW int, draw func(b schedule.LayoutBox, w int) string) string {
	var b strings.Builder
	c := 0
	for _, bx := range boxes {
		if bx.Column < c || bx.Column >= ncols {
			continue
		}
		b.WriteString(strings.Repeat(" ", (bx.Column-c)*colW))
		n := max(1, min(bx.Length, ncols-bx.Column))
		b.WriteString(draw(bx, n*colW))
		c = bx.Column + n
	}
	b.WriteString(strings.Repeat(" ", (ncols-c)*colW))
	return b.String()
}

// chip draws an all-day box as a filled label one cell narrower than w.
func (v view) chip(st styles, o Options) func(schedule.LayoutBox, int) string {
	return func(b schedule.LayoutBox, w int) string {
		e := v.entity(b.EntityID)
		label := Label(e)
		if b.ClippedStart {
			label = "◀" + label
		}
		if o.Selected == b.EntityID {
			label = "▸" + label
		}
		text := fit(label, w-1)
		if b.ClippedEnd && w > 1 {
			text = fit(label, w-2) + "▶"
		}
		return st.bar(e, o.Selected == b.EntityID, true).Render(text) + " "
	}
}
