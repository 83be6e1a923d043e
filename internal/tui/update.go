package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/gantry/internal/log"
	"github.com/javiermolinar/gantry/internal/planner"
	"github.com/javiermolinar/gantry/internal/render"
	"github.com/javiermolinar/gantry/internal/schedule"
)

var (
	ganttScales   = [3]planner.Scale{planner.ScaleDay, planner.ScaleWeek, planner.ScaleMonth}
	calendarModes = [3]planner.Mode{planner.ModeMonth, planner.ModeWeek, planner.ModeDay}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case renderedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			log.Error("rendering view", msg.err)
			return m, nil
		}
		m.err = nil
		m.setView(msg.model)
		return m, nil

	case committedMsg:
		m.loading = false
		if msg.model != nil {
			m.setView(msg.model)
		}
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
			log.Error("saving change", msg.err, "id", msg.id)
			return m, nil
		}
		m.err = nil
		if e, ok := m.view.Entities[msg.id]; ok {
			m.status = fmt.Sprintf("Saved %s: %s", render.Label(e), e.Range)
		}
		return m, nil

	case tea.KeyMsg:
		log.Debug("key", "key", msg.String(), "gesture", m.gesture != nil)
		if m.gesture != nil {
			return m.handleGestureKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}
	return m, nil
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.ctl.State()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Down):
		m.step(1)
	case key.Matches(msg, m.keys.Up):
		m.step(-1)
	case key.Matches(msg, m.keys.Left):
		m.ctl.Navigate(-1)
		return m.reload()
	case key.Matches(msg, m.keys.Right):
		m.ctl.Navigate(1)
		return m.reload()
	case key.Matches(msg, m.keys.Today):
		m.ctl.JumpToToday()
		return m.reload()
	case key.Matches(msg, m.keys.Toggle):
		if state.Mode == planner.ModeGantt {
			m.ctl.SetMode(m.calendar)
		} else {
			m.calendar = state.Mode
			m.ctl.SetMode(planner.ModeGantt)
		}
		return m.reload()
	case key.Matches(msg, m.keys.View1):
		return m.pickView(0)
	case key.Matches(msg, m.keys.View2):
		return m.pickView(1)
	case key.Matches(msg, m.keys.View3):
		return m.pickView(2)
	case key.Matches(msg, m.keys.Collapse):
		if state.Mode != planner.ModeGantt || m.view == nil {
			return m, nil
		}
		if e, ok := m.view.Entities[m.selected]; ok && e.Source == schedule.SourceProject {
			m.ctl.ToggleProject(e.ID)
			return m.reload()
		}
	case key.Matches(msg, m.keys.Refresh):
		m.status = ""
		return m.reload()
	case key.Matches(msg, m.keys.Move):
		return m.begin(planner.GestureMove)
	case key.Matches(msg, m.keys.ResizeStart):
		return m.begin(planner.GestureResizeStart)
	case key.Matches(msg, m.keys.ResizeEnd):
		return m.begin(planner.GestureResizeEnd)
	}
	return m, nil
}

// step moves the selection by delta items, wrapping around.
func (m *Model) step(delta int) {
	ids := order(m.view)
	if len(ids) == 0 {
		return
	}
	i := 0
	for j, id := range ids {
		if id == m.selected {
			i = j
			break
		}
	}
	i = (i + delta + len(ids)) % len(ids)
	m.selected = ids[i]
}

// pickView switches the Gantt scale, or the calendar view when a calendar
// is shown.
func (m Model) pickView(i int) (Model, tea.Cmd) {
	if m.ctl.State().Mode == planner.ModeGantt {
		m.ctl.SetScale(ganttScales[i])
	} else {
		m.calendar = calendarModes[i]
		m.ctl.SetMode(m.calendar)
	}
	return m.reload()
}

func (m Model) begin(kind planner.GestureKind) (Model, tea.Cmd) {
	if m.loading || m.view == nil || m.selected == "" {
		return m, nil
	}
	if m.ctl.Busy(m.selected) {
		m.status = "Still saving the last change"
		return m, nil
	}
	box, ok := m.view.Box(m.selected)
	if !ok {
		return m, nil
	}
	origin := m.ctl.PointerAt(m.view, box)
	if err := m.ctl.BeginGesture(m.selected, kind, origin); err != nil {
		m.err = err
		return m, nil
	}
	preview, err := m.ctl.UpdateGesture(planner.Pointer{})
	if err != nil {
		m.ctl.CancelGesture()
		m.err = err
		return m, nil
	}
	m.gesture = &gesture{kind: kind, origin: origin, preview: preview}
	m.status = ""
	m.err = nil
	return m, nil
}

func (m Model) handleGestureKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := *m.gesture
	dx, dy := m.ctl.Step(m.view)
	d := g.delta

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctl.CancelGesture()
		m.gesture = nil
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		m.ctl.CancelGesture()
		m.gesture = nil
		m.status = "Cancelled"
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.gesture = nil
		m.loading = true
		m.status = "Saving..."
		return m, m.commit(g.preview.EntityID)
	case key.Matches(msg, m.keys.Left):
		d.X -= dx
	case key.Matches(msg, m.keys.Right):
		d.X += dx
	case key.Matches(msg, m.keys.Up):
		d.Y -= dy
	case key.Matches(msg, m.keys.Down):
		d.Y += dy
	case key.Matches(msg, m.keys.AllDay):
		if err := m.canConvert(g); err != nil {
			m.status = err.Error()
			return m, nil
		}
		if g.preview.Range.AllDay {
			// Drop at the top of the hour axis.
			d.Y = -g.origin.Y
		} else {
			d.Y = -g.origin.Y - m.ctl.Options().Metrics.HourHeight/2
		}
	default:
		return m, nil
	}

	preview, err := m.ctl.UpdateGesture(d)
	if err != nil {
		m.err = err
		return m, nil
	}
	g.delta = d
	g.preview = preview
	m.gesture = &g
	m.status = ""
	return m, nil
}

var errNoConversion = errors.New("only calendar events moved in the week or day view switch between all-day and timed")

func (m Model) canConvert(g gesture) error {
	e := m.view.Entities[g.preview.EntityID]
	if g.kind != planner.GestureMove || !m.view.State.Mode.Timed() || e.Source != schedule.SourceExternal {
		return errNoConversion
	}
	return nil
}
