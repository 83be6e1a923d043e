package render

import (
	"fmt"
	"strings"

	"github.com/javiermolinar/gantry/internal/planner"
	"github.com/javiermolinar/gantry/internal/schedule"
)

// Gantt draws one line per project or task. When the range has more days
// than fit, each column stands for several days.
func Gantt(m *planner.RenderModel, o Options) string {
	st := newStyles(o.Palette)
	v := newView(m, o.Preview)
	rng := m.Range

	labelW := min(28, max(12, o.width()/4))
	perCol := max(1, ceilDiv(rng.Days, max(1, o.width()-labelW-1)))
	cols := ceilDiv(rng.Days, perCol)

	todayCol := -1
	for i := range rng.Days {
		if o.isToday(rng.DayAt(i)) {
			todayCol = i / perCol
			break
		}
	}

	var b strings.Builder
	title := fmt.Sprintf("%s - %s  %s", rng.Start.Format("Jan 2"), rng.DayAt(rng.Days-1).Format("Jan 2, 2006"), rng.WeekLabel())
	b.WriteString(st.title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", labelW+1))
	b.WriteString(st.header.Render(ganttAxis(m, perCol, cols)))
	b.WriteString("\n")

	if len(m.Rows) == 0 {
		b.WriteString(st.muted.Render("  nothing scheduled"))
		b.WriteString("\n")
		return b.String()
	}

	for i, row := range m.Rows {
		e := v.entity(row.EntityID)
		b.WriteString(fit(rowLabel(row, e, o.Selected == row.EntityID), labelW))
		b.WriteString(" ")

		var box *schedule.LayoutBox
		for _, bx := range v.boxes[row.EntityID] {
			if bx.Row == i {
				box = &bx
				break
			}
		}
		b.WriteString(ganttBar(st, e, box, cols, perCol, todayCol, o.Selected == row.EntityID))
		b.WriteString("\n")
	}
	return b.String()
}

func rowLabel(row planner.Row, e schedule.Entity, selected bool) string {
	var b strings.Builder
	if selected {
		b.WriteString("▸")
	} else {
		b.WriteString(" ")
	}
	b.WriteString(strings.Repeat("  ", row.Indent))
	if row.Source == schedule.SourceProject {
		if row.Collapsed {
			b.WriteString("+ ")
		} else {
			b.WriteString("- ")
		}
	}
	b.WriteString(Label(e))
	if row.Collapsed && row.Children > 0 {
		fmt.Fprintf(&b, " (%d)", row.Children)
	}
	return b.String()
}

// ganttAxis labels the first day of each week.
func ganttAxis(m *planner.RenderModel, perCol, cols int) string {
	line := []rune(strings.Repeat(" ", cols))
	next := 0
	for i := 0; i < m.Range.Days; i += 7 {
		col := i / perCol
		label := []rune(m.Range.DayAt(i).Format("Jan 2"))
		if col < next || col+len(label) > cols {
			continue
		}
		copy(line[col:], label)
		next = col + len(label) + 1
	}
	return string(line)
}

// ganttBar draws the cells of one row. Task bars start with a filled
// prefix proportional to progress.
func ganttBar(st styles, e schedule.Entity, box *schedule.LayoutBox, cols, perCol, todayCol int, selected bool) string {
	empty := func(from, to int) string {
		if from >= to {
			return ""
		}
		cells := []rune(strings.Repeat("·", to-from))
		if todayCol >= from && todayCol < to {
			cells[todayCol-from] = '│'
		}
		return st.muted.Render(string(cells))
	}
	if box == nil {
		return empty(0, cols)
	}

	c0 := min(box.Offset/perCol, cols-1)
	c1 := min(max(c0+1, ceilDiv(box.Offset+box.Length, perCol)), cols)
	n := c1 - c0

	glyph := '█'
	if e.Source == schedule.SourceProject {
		glyph = '━'
	}
	cells := []rune(strings.Repeat(string(glyph), n))
	if p, ok := progress(e); ok {
		filled := (p*n + 50) / 100
		for i := filled; i < n; i++ {
			cells[i] = '░'
		}
	}
	if box.ClippedStart {
		cells[0] = '◀'
	}
	if box.ClippedEnd {
		cells[n-1] = '▶'
	}

	return empty(0, c0) + st.bar(e, selected, false).Render(string(cells)) + empty(c1, cols)
}
