// Package tui provides the interactive planner.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/gantry/internal/planner"
	"github.com/javiermolinar/gantry/internal/render"
	"github.com/javiermolinar/gantry/internal/theme"
)

// Options configure the planner UI.
type Options struct {
	Palette *theme.Palette // nil draws without colors

	// Calendar is the calendar view the toggle key opens from the Gantt
	// chart: month, week or day. Anything else opens the week view.
	Calendar string
}

// renderedMsg carries the result of a render started by a command.
type renderedMsg struct {
	model *planner.RenderModel
	err   error
}

// committedMsg carries the result of ending a gesture.
type committedMsg struct {
	id    string
	model *planner.RenderModel
	err   error
}

// gesture is the move or resize driven by the keyboard. The pointer starts
// on the selected box and every key press moves it by one step.
type gesture struct {
	kind    planner.GestureKind
	origin  planner.Pointer
	delta   planner.Pointer
	preview planner.Preview
}

// Model is the bubbletea model of the planner.
type Model struct {
	ctx  context.Context
	ctl  *planner.Controller
	opts Options
	keys keyMap
	help help.Model

	calendar planner.Mode // last calendar view, restored by the toggle key
	width    int
	height   int

	view     *planner.RenderModel
	loading  bool
	selected string
	gesture  *gesture
	status   string
	err      error
}

// New creates the model. Nothing is drawn until the first render arrives.
func New(ctx context.Context, ctl *planner.Controller, opts Options) Model {
	cal, err := planner.ParseMode(opts.Calendar)
	if err != nil || !cal.Calendar() {
		cal = planner.ModeWeek
	}
	if mode := ctl.State().Mode; mode.Calendar() {
		cal = mode
	}
	return Model{
		ctx:      ctx,
		ctl:      ctl,
		opts:     opts,
		keys:     defaultKeyMap(),
		help:     help.New(),
		calendar: cal,
		loading:  true,
	}
}

// Init starts the first render.
func (m Model) Init() tea.Cmd {
	return m.render()
}

// Run starts the planner on the alternate screen and blocks until it quits
// or ctx is cancelled. Mutations still in flight are waited for.
func Run(ctx context.Context, ctl *planner.Controller, opts Options) error {
	p := tea.NewProgram(New(ctx, ctl, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	ctl.Wait()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("running planner: %w", err)
	}
	return nil
}

func (m Model) render() tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		rm, err := ctl.Render(ctx)
		return renderedMsg{model: rm, err: err}
	}
}

func (m Model) commit(id string) tea.Cmd {
	ctx, ctl := m.ctx, m.ctl
	return func() tea.Msg {
		rm, err := ctl.EndGesture(ctx)
		return committedMsg{id: id, model: rm, err: err}
	}
}

// reload marks the view stale and renders it again.
func (m Model) reload() (Model, tea.Cmd) {
	m.loading = true
	return m, m.render()
}

// setView installs a new render and keeps the selection on the same entity
// when it is still visible.
func (m *Model) setView(rm *planner.RenderModel) {
	m.view = rm
	ids := order(rm)
	for _, id := range ids {
		if id == m.selected {
			return
		}
	}
	m.selected = ""
	if len(ids) > 0 {
		m.selected = ids[0]
	}
}

// order lists the selectable entities top to bottom: Gantt rows, or boxes
// in the order the layout export uses.
func order(rm *planner.RenderModel) []string {
	if rm == nil {
		return nil
	}
	var ids []string
	if rm.State.Mode == planner.ModeGantt {
		for _, r := range rm.Rows {
			ids = append(ids, r.EntityID)
		}
		return ids
	}
	seen := make(map[string]bool)
	for _, b := range render.Export(rm).Boxes {
		if !seen[b.ID] {
			seen[b.ID] = true
			ids = append(ids, b.ID)
		}
	}
	return ids
}
