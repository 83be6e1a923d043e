package render

import (
	"fmt"
	"strings"

	"github.com/javiermolinar/gantry/internal/planner"
	"github.com/javiermolinar/gantry/internal/schedule"
)

// Month draws the 6-week grid. Each week row has a line of day numbers,
// one line per visible lane and a "+N" line when entities were hidden.
func Month(m *planner.RenderModel, o Options) string {
	st := newStyles(o.Palette)
	v := newView(m, o.Preview)
	rng := m.Range
	colW := max(6, o.width()/7)

	var b strings.Builder
	b.WriteString(st.title.Render(fmt.Sprintf("%s %d", rng.Month, rng.Year)))
	b.WriteString("\n")
	for c := range 7 {
		b.WriteString(st.header.Render(fit(rng.DayAt(c).Format("Mon"), colW)))
	}
	b.WriteString("\n")

	for w := range rng.Days / 7 {
		for c := range 7 {
			idx := 7*w + c
			day := rng.DayAt(idx)
			text := fit(fmt.Sprintf("%2d", day.Day()), colW)
			switch {
			case o.isToday(day):
				text = st.today.Render(text)
			case idx < len(m.Cells) && !m.Cells[idx].InMonth:
				text = st.muted.Render(text)
			}
			b.WriteString(text)
		}
		b.WriteString("\n")

		row := v.all(func(bx schedule.LayoutBox) bool { return bx.Row == w })
		lanes := 0
		for _, bx := range row {
			lanes = max(lanes, bx.Lane+1)
		}
		for lane := range lanes {
			var inLane []schedule.LayoutBox
			for _, bx := range row {
				if bx.Lane == lane {
					inLane = append(inLane, bx)
				}
			}
			b.WriteString(spanLine(inLane, 7, colW, v.chip(st, o)))
			b.WriteString("\n")
		}

		var more strings.Builder
		hidden := false
		for c := range 7 {
			n := m.Overflow[7*w+c]
			if n == 0 {
				more.WriteString(strings.Repeat(" ", colW))
				continue
			}
			hidden = true
			more.WriteString(fit(fmt.Sprintf("+%d", n), colW))
		}
		if hidden {
			b.WriteString(st.muted.Render(more.String()))
			b.WriteString("\n")
		}
	}
	return b.String()
}
