package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/javiermolinar/gantry/internal/schedule"
)

// GestureKind is what a drag does to an entity.
type GestureKind int

const (
	GestureMove GestureKind = iota
	GestureResizeStart
	GestureResizeEnd
)

func (k GestureKind) String() string {
	switch k {
	case GestureResizeStart:
		return "resize-start"
	case GestureResizeEnd:
		return "resize-end"
	default:
		return "move"
	}
}

// Pointer is a position or delta in pointer units. In week and day views X
// is measured from the left edge of the first day column and Y from the top
// of the timed grid, so a negative Y is the all-day row.
type Pointer struct {
	X, Y float64
}

// GestureSession is one drag or resize in progress.
type GestureSession struct {
	EntityID  string
	Source    schedule.Source
	Kind      GestureKind
	Origin    Pointer
	OriginBox schedule.LayoutBox
	Original  schedule.TimeRange
	Current   schedule.TimeRange

	model *RenderModel
}

// Preview is where the entity would land if the gesture ended now.
type Preview struct {
	EntityID string
	Range    schedule.TimeRange
	Boxes    []schedule.LayoutBox
}

// BeginGesture starts a gesture on an entity of the last render.
func (c *Controller) BeginGesture(id string, kind GestureKind, origin Pointer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return ErrGestureActive
	}
	if c.Busy(id) {
		return fmt.Errorf("%w: %s", schedule.ErrConcurrentGesture, id)
	}
	if c.last == nil {
		return fmt.Errorf("%w: %s", schedule.ErrEntityNotFound, id)
	}
	e, ok := c.last.Entities[id]
	if !ok {
		return fmt.Errorf("%w: %s", schedule.ErrEntityNotFound, id)
	}
	box, ok := c.last.Box(id)
	if !ok {
		return fmt.Errorf("%w: %s is not on screen", schedule.ErrEntityNotFound, id)
	}

	c.session = &GestureSession{
		EntityID:  id,
		Source:    e.Source,
		Kind:      kind,
		Origin:    origin,
		OriginBox: box,
		Original:  e.Range,
		Current:   e.Range,
		model:     c.last,
	}
	return nil
}

// UpdateGesture previews the gesture for a pointer delta from the origin.
// Nothing is stored.
func (c *Controller) UpdateGesture(delta Pointer) (Preview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		return Preview{}, ErrNoGesture
	}
	s.Current = c.translate(s, delta)
	return c.preview(s), nil
}

// Session returns a copy of the gesture in progress.
func (c *Controller) Session() (GestureSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return GestureSession{}, false
	}
	return *c.session, true
}

// CancelGesture drops the gesture in progress without storing anything.
func (c *Controller) CancelGesture() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
}

// EndGesture stores the previewed range and re-renders.
//
// When nothing moved no mutation is sent. When validation or the mutation
// fails the stored range is unchanged; the returned model is rendered from
// the collaborators' data and the error says what went wrong.
func (c *Controller) EndGesture(ctx context.Context) (*RenderModel, error) {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()

	if s == nil {
		return nil, ErrNoGesture
	}
	if s.Current.Equal(s.Original) {
		return c.Render(ctx)
	}

	if err := c.commit(ctx, s); err != nil {
		model, rerr := c.Render(ctx)
		return model, errors.Join(err, rerr)
	}
	return c.Render(ctx)
}

func (c *Controller) commit(ctx context.Context, s *GestureSession) error {
	if err := c.validate(s.Current); err != nil {
		return err
	}
	if s.Source != schedule.SourceExternal {
		if _, err := c.tasks.Get(ctx, s.EntityID); err != nil {
			return fmt.Errorf("looking up %s: %w", s.EntityID, err)
		}
	}
	return c.mutate(ctx, s.EntityID, s.Source, s.Current)
}

func (c *Controller) validate(r schedule.TimeRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.AllDay && r.Days() < 1 {
		return fmt.Errorf("%w: all-day range shorter than a day", schedule.ErrInvalidRange)
	}
	if !r.AllDay && r.Duration() < c.opts.MinDuration {
		return fmt.Errorf("%w: %s is shorter than %s", schedule.ErrInvalidRange, r.Duration(), c.opts.MinDuration)
	}
	if c.opts.Validator != nil {
		if err := c.opts.Validator.ValidateRange(r); err != nil {
			return fmt.Errorf("%w: %w", schedule.ErrInvalidRange, err)
		}
	}
	return nil
}

// translate turns a pointer delta into a range for the session's view.
func (c *Controller) translate(s *GestureSession, d Pointer) schedule.TimeRange {
	m := c.opts.Metrics
	switch s.model.State.Mode {
	case ModeMonth:
		n := steps(d.X, m.ColumnWidth) + 7*steps(d.Y, m.RowHeight)
		return c.dayGesture(s.Original, s.Kind, n)
	case ModeWeek, ModeDay:
		return c.gridGesture(s, d)
	default:
		n := steps(d.X, m.CellWidth(s.model.State.Scale))
		return c.dayGesture(s.Original, s.Kind, n)
	}
}

func (c *Controller) dayGesture(r schedule.TimeRange, kind GestureKind, days int) schedule.TimeRange {
	minDur := c.opts.MinDuration
	if r.AllDay {
		minDur = schedule.Day
	}
	switch kind {
	case GestureResizeStart:
		return schedule.TranslateResize(r, schedule.EdgeStart, days, schedule.Day, minDur)
	case GestureResizeEnd:
		return schedule.TranslateResize(r, schedule.EdgeEnd, days, schedule.Day, minDur)
	default:
		return schedule.TranslateMove(r, days, schedule.Day)
	}
}

// gridGesture handles week and day views. Only external events cross
// between the all-day row and the timed grid; tasks are date ranges and
// stay all-day.
func (c *Controller) gridGesture(s *GestureSession, d Pointer) schedule.TimeRange {
	m := c.opts.Metrics
	rng := s.model.Range
	r := s.Original
	y := s.Origin.Y + d.Y
	convertible := s.Source == schedule.SourceExternal && s.Kind == GestureMove
	days := steps(d.X, m.ColumnWidth)

	column := func() time.Time {
		col := 0
		if m.ColumnWidth > 0 {
			col = int(math.Floor((s.Origin.X + d.X) / m.ColumnWidth))
		}
		return rng.DayAt(min(max(col, 0), rng.Days-1))
	}

	if r.AllDay {
		if !convertible || y < 0 {
			return c.dayGesture(r, s.Kind, days)
		}
		axisStart, axisEnd := rng.Hours.Bounds(column())
		slot := schedule.Floor(axisStart.Add(pixelsToDuration(y, m.HourHeight)), c.opts.Snap)
		if !slot.Before(axisEnd) {
			slot = axisEnd.Add(-c.opts.Snap)
		}
		return schedule.ToTimed(r, slot, c.opts.DefaultTimed)
	}

	if convertible && y < 0 {
		return schedule.ToAllDay(r, column())
	}

	slots := 0
	if c.opts.Snap > 0 {
		slots = int(math.Round(float64(pixelsToDuration(d.Y, m.HourHeight)) / float64(c.opts.Snap)))
	}
	// Edges dragged along the axis land on the snap grid. A purely
	// horizontal move keeps the time of day.
	switch s.Kind {
	case GestureResizeStart, GestureResizeEnd:
		edge := schedule.EdgeEnd
		if s.Kind == GestureResizeStart {
			edge = schedule.EdgeStart
		}
		if slots == 0 {
			return schedule.TranslateResize(r, edge, 0, c.opts.Snap, c.opts.MinDuration)
		}
		out := schedule.TranslateResize(r, edge, slots, c.opts.Snap, 0)
		return schedule.SnapEdge(out, edge, c.opts.Snap, c.opts.MinDuration)
	default:
		moved := schedule.TranslateMove(r, days, schedule.Day)
		if slots == 0 {
			return moved
		}
		span := moved.End.Sub(moved.Start)
		start := schedule.Snap(moved.Start.Add(time.Duration(slots)*c.opts.Snap), c.opts.Snap)
		return schedule.TimeRange{Start: start, End: start.Add(span)}
	}
}

// preview lays out the session's entity alone at its current range.
func (c *Controller) preview(s *GestureSession) Preview {
	e := s.model.Entities[s.EntityID]
	e.Range = s.Current

	m := layout([]schedule.Entity{e}, s.model.State, s.model.Range, 0)
	boxes := m.Boxes[e.ID]
	if s.model.State.Mode == ModeGantt {
		for i := range boxes {
			boxes[i].Row = s.OriginBox.Row
		}
	}
	return Preview{EntityID: e.ID, Range: s.Current, Boxes: boxes}
}

// PointerAt returns the pointer position at the middle of the first cell
// of box, in the units BeginGesture expects for the model's view.
func (c *Controller) PointerAt(m *RenderModel, box schedule.LayoutBox) Pointer {
	metrics := c.opts.Metrics
	switch m.State.Mode {
	case ModeMonth:
		return Pointer{
			X: (float64(box.Column) + 0.5) * metrics.ColumnWidth,
			Y: (float64(box.Row) + 0.5) * metrics.RowHeight,
		}
	case ModeWeek, ModeDay:
		p := Pointer{X: (float64(box.Column) + 0.5) * metrics.ColumnWidth}
		if box.AllDay {
			p.Y = -metrics.HourHeight / 2
		} else {
			p.Y = float64(box.Offset) / 60 * metrics.HourHeight
		}
		return p
	default:
		return Pointer{X: (float64(box.Offset) + 0.5) * metrics.CellWidth(m.State.Scale)}
	}
}

// Step returns the pointer distance of one cell across (dx) and one step
// down (dy) in the model's view: a week row in month view, a snap interval
// in week and day views. dy is 0 on the Gantt chart.
func (c *Controller) Step(m *RenderModel) (dx, dy float64) {
	metrics := c.opts.Metrics
	switch m.State.Mode {
	case ModeMonth:
		return metrics.ColumnWidth, metrics.RowHeight
	case ModeWeek, ModeDay:
		return metrics.ColumnWidth, metrics.HourHeight * c.opts.Snap.Minutes() / 60
	default:
		return metrics.CellWidth(m.State.Scale), 0
	}
}

// steps rounds a pointer distance to whole cells.
func steps(distance, size float64) int {
	if size <= 0 {
		return 0
	}
	return int(math.Round(distance / size))
}

func pixelsToDuration(px, hourHeight float64) time.Duration {
	if hourHeight <= 0 {
		return 0
	}
	return time.Duration(px / hourHeight * float64(time.Hour))
}
