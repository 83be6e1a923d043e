package planner

import (
	"cmp"
	"slices"
	"time"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/schedule"
)

// Row is one line of a Gantt chart.
type Row struct {
	EntityID  string
	Source    schedule.Source
	Indent    int  // 1 for tasks listed under their project
	Collapsed bool // project rows only
	Children  int  // visible tasks of a project row, counted even when collapsed
}

// RenderModel is the layout of one view. It holds data only; turning it
// into text is up to the caller.
type RenderModel struct {
	State ViewState
	Range RenderedRange

	// Entities is the snapshot the layout was computed from, keyed by ID.
	Entities map[string]schedule.Entity

	// Boxes maps entity IDs to their boxes. An entity gets more than one box
	// when it is split across month rows or day columns.
	Boxes map[string][]schedule.LayoutBox

	Rows []Row // Gantt only

	Cells    []dateutil.GridDay // month only
	Overflow map[int]int        // month only: cell index -> hidden entities

	AllDayLanes int // week/day only
}

// Box returns the first box of an entity.
func (m *RenderModel) Box(id string) (schedule.LayoutBox, bool) {
	boxes := m.Boxes[id]
	if len(boxes) == 0 {
		return schedule.LayoutBox{}, false
	}
	return boxes[0], true
}

// BoxesInColumn returns the boxes drawn in a day column of a week/day view,
// ordered by offset then lane.
func (m *RenderModel) BoxesInColumn(col int, allDay bool) []schedule.LayoutBox {
	var out []schedule.LayoutBox
	for _, boxes := range m.Boxes {
		for _, b := range boxes {
			if b.AllDay != allDay {
				continue
			}
			if allDay {
				if col >= b.Column && col < b.Column+b.Length {
					out = append(out, b)
				}
			} else if b.Column == col {
				out = append(out, b)
			}
		}
	}
	sortBoxes(out)
	return out
}

// BoxesInRow returns the boxes of a month week row ordered by lane then column.
func (m *RenderModel) BoxesInRow(row int) []schedule.LayoutBox {
	var out []schedule.LayoutBox
	for _, boxes := range m.Boxes {
		for _, b := range boxes {
			if b.Row == row {
				out = append(out, b)
			}
		}
	}
	slices.SortFunc(out, func(a, b schedule.LayoutBox) int {
		if c := cmp.Compare(a.Lane, b.Lane); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Column, b.Column); c != 0 {
			return c
		}
		return cmp.Compare(a.EntityID, b.EntityID)
	})
	return out
}

func sortBoxes(boxes []schedule.LayoutBox) {
	slices.SortFunc(boxes, func(a, b schedule.LayoutBox) int {
		if c := cmp.Compare(a.Offset, b.Offset); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Lane, b.Lane); c != 0 {
			return c
		}
		return cmp.Compare(a.EntityID, b.EntityID)
	})
}

// layout builds the boxes for all entities in the given view.
func layout(entities []schedule.Entity, s ViewState, rng RenderedRange, maxPerDay int) *RenderModel {
	m := &RenderModel{
		State:    s,
		Range:    rng,
		Entities: make(map[string]schedule.Entity, len(entities)),
		Boxes:    make(map[string][]schedule.LayoutBox),
	}
	for _, e := range entities {
		m.Entities[e.ID] = e
	}

	switch s.Mode {
	case ModeMonth:
		layoutMonth(m, entities, maxPerDay)
	case ModeWeek, ModeDay:
		layoutTimed(m, entities)
	default:
		layoutGantt(m, entities)
	}
	return m
}

// layoutGantt lays out one row per project followed by its tasks. Tasks
// whose project is not on screen come last.
func layoutGantt(m *RenderModel, entities []schedule.Entity) {
	rng := m.Range

	var projects []schedule.Entity
	tasksByProject := make(map[string][]schedule.Entity)
	for _, e := range entities {
		switch e.Source {
		case schedule.SourceProject:
			projects = append(projects, e)
		case schedule.SourceTask:
			if _, ok := schedule.PositionInRange(e.Range, rng.Start, rng.End, rng.Unit); ok {
				tasksByProject[e.Group] = append(tasksByProject[e.Group], e)
			}
		}
	}
	slices.SortStableFunc(projects, byStart)

	place := func(e schedule.Entity, row int) {
		pos, ok := schedule.PositionInRange(e.Range, rng.Start, rng.End, rng.Unit)
		if !ok {
			return
		}
		m.Boxes[e.ID] = []schedule.LayoutBox{{
			EntityID:     e.ID,
			Row:          row,
			Column:       pos.Offset,
			Offset:       pos.Offset,
			Length:       pos.Length,
			LaneCount:    1,
			AllDay:       e.Range.AllDay,
			ClippedStart: pos.ClippedStart,
			ClippedEnd:   pos.ClippedEnd,
		}}
	}

	shown := make(map[string]bool)
	for _, p := range projects {
		tasks := tasksByProject[p.ID]
		_, visible := schedule.PositionInRange(p.Range, rng.Start, rng.End, rng.Unit)
		if !visible && len(tasks) == 0 {
			continue
		}
		shown[p.ID] = true
		collapsed := m.State.Collapsed[p.ID]

		place(p, len(m.Rows))
		m.Rows = append(m.Rows, Row{
			EntityID:  p.ID,
			Source:    schedule.SourceProject,
			Collapsed: collapsed,
			Children:  len(tasks),
		})
		if collapsed {
			continue
		}
		slices.SortStableFunc(tasks, byStart)
		for _, t := range tasks {
			place(t, len(m.Rows))
			m.Rows = append(m.Rows, Row{EntityID: t.ID, Source: schedule.SourceTask, Indent: 1})
		}
	}

	var orphans []schedule.Entity
	for group, tasks := range tasksByProject {
		if !shown[group] {
			orphans = append(orphans, tasks...)
		}
	}
	slices.SortStableFunc(orphans, byStart)
	for _, t := range orphans {
		place(t, len(m.Rows))
		m.Rows = append(m.Rows, Row{EntityID: t.ID, Source: schedule.SourceTask})
	}
}

// layoutMonth splits every entity into one box per week row. Lanes are
// resolved once for the whole grid on the days each entity covers; lanes at
// or above maxPerDay are hidden and counted per cell.
func layoutMonth(m *RenderModel, entities []schedule.Entity, maxPerDay int) {
	rng := m.Range
	m.Cells = dateutil.MonthGrid(rng.Year, rng.Month, rng.Start.Weekday(), rng.Start.Location())
	m.Overflow = make(map[int]int)

	visible := calendarEntities(entities, rng)
	spans := make([]schedule.TimeRange, len(visible))
	for i, e := range visible {
		spans[i] = schedule.NewAllDay(e.Range.Start, e.Range.LastDay())
	}
	lanes := schedule.ResolveLanes(spans)

	weeks := rng.Days / 7
	for i, e := range visible {
		span, lane := spans[i], lanes[i]

		if maxPerDay > 0 && lane.Lane >= maxPerDay {
			for d := range dateutil.DateSequence(span.Start, span.LastDay()) {
				if rng.Contains(d) {
					m.Overflow[dateutil.DaysBetween(rng.Start, d)]++
				}
			}
			continue
		}

		for w := range weeks {
			rowStart := rng.Start.AddDate(0, 0, 7*w)
			pos, ok := schedule.PositionInRange(span, rowStart, rowStart.AddDate(0, 0, 7), schedule.Day)
			if !ok {
				continue
			}
			m.Boxes[e.ID] = append(m.Boxes[e.ID], schedule.LayoutBox{
				EntityID:     e.ID,
				Row:          w,
				Column:       pos.Offset,
				Offset:       7*w + pos.Offset,
				Length:       pos.Length,
				Lane:         lane.Lane,
				LaneCount:    lane.Count,
				AllDay:       e.Range.AllDay,
				ClippedStart: pos.ClippedStart,
				ClippedEnd:   pos.ClippedEnd,
			})
		}
	}
}

// layoutTimed lays out week and day views: all-day entities share one lane
// row above the grid, timed entities get one box per day column measured in
// minutes from the start of the hour axis.
func layoutTimed(m *RenderModel, entities []schedule.Entity) {
	rng := m.Range
	visible := calendarEntities(entities, rng)

	var allDay, timed []schedule.Entity
	for _, e := range visible {
		if e.Range.AllDay {
			allDay = append(allDay, e)
		} else {
			timed = append(timed, e)
		}
	}

	ranges := make([]schedule.TimeRange, len(allDay))
	for i, e := range allDay {
		ranges[i] = e.Range
	}
	for i, lane := range schedule.ResolveLanes(ranges) {
		e := allDay[i]
		pos, ok := schedule.PositionInRange(e.Range, rng.Start, rng.End, schedule.Day)
		if !ok {
			continue
		}
		m.Boxes[e.ID] = append(m.Boxes[e.ID], schedule.LayoutBox{
			EntityID:     e.ID,
			Column:       pos.Offset,
			Offset:       pos.Offset,
			Length:       pos.Length,
			Lane:         lane.Lane,
			LaneCount:    lane.Count,
			AllDay:       true,
			ClippedStart: pos.ClippedStart,
			ClippedEnd:   pos.ClippedEnd,
		})
		m.AllDayLanes = max(m.AllDayLanes, lane.Count)
	}

	for col := range rng.Days {
		axisStart, axisEnd := rng.Hours.Bounds(rng.DayAt(col))

		var (
			onDay   []schedule.Entity
			clipped []schedule.TimeRange
			pos     []schedule.Position
		)
		for _, e := range timed {
			p, ok := schedule.PositionInRange(e.Range, axisStart, axisEnd, time.Minute)
			if !ok {
				continue
			}
			onDay = append(onDay, e)
			pos = append(pos, p)
			clipped = append(clipped, clip(e.Range, axisStart, axisEnd))
		}

		for i, lane := range schedule.ResolveLanes(clipped) {
			e := onDay[i]
			m.Boxes[e.ID] = append(m.Boxes[e.ID], schedule.LayoutBox{
				EntityID:     e.ID,
				Column:       col,
				Offset:       pos[i].Offset,
				Length:       pos[i].Length,
				Lane:         lane.Lane,
				LaneCount:    lane.Count,
				ClippedStart: pos[i].ClippedStart,
				ClippedEnd:   pos[i].ClippedEnd,
			})
		}
	}
}

// calendarEntities returns the tasks and external events that intersect
// the range, sorted by start. Projects only appear on the Gantt chart.
func calendarEntities(entities []schedule.Entity, rng RenderedRange) []schedule.Entity {
	var out []schedule.Entity
	for _, e := range entities {
		if e.Source == schedule.SourceProject {
			continue
		}
		if _, ok := schedule.PositionInRange(e.Range, rng.Start, rng.End, schedule.Day); ok {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, byStart)
	return out
}

func clip(r schedule.TimeRange, start, end time.Time) schedule.TimeRange {
	if r.Start.Before(start) {
		r.Start = start
	}
	if r.End.After(end) {
		r.End = end
	}
	if r.End.Before(r.Start) {
		r.End = r.Start
	}
	return r
}

func byStart(a, b schedule.Entity) int {
	if c := a.Range.Start.Compare(b.Range.Start); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}
