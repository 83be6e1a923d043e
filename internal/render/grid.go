package render

import (
	"fmt"
	"strings"

	"github.com/javiermolinar/gantry/internal/planner"
	"github.com/javiermolinar/gantry/internal/schedule"
)

// SlotMinutes is the time one line of the week/day grid stands for.
const SlotMinutes = 30

const gutterWidth = 6

// Grid draws the week and day views: a header of dates, the all-day lanes
// and one line per SlotMinutes down the hour axis.
func Grid(m *planner.RenderModel, o Options) string {
	st := newStyles(o.Palette)
	v := newView(m, o.Preview)
	rng := m.Range
	days := max(1, rng.Days)
	colW := max(8, (o.width()-gutterWidth)/days)

	var b strings.Builder
	title := fmt.Sprintf("%s - %s  %s", rng.Start.Format("Mon Jan 2"), rng.DayAt(days-1).Format("Mon Jan 2, 2006"), rng.WeekLabel())
	if days == 1 {
		title = fmt.Sprintf("%s  %s", rng.Start.Format("Monday Jan 2, 2006"), rng.WeekLabel())
	}
	b.WriteString(st.title.Render(title))
	b.WriteString("\n")

	b.WriteString(strings.Repeat(" ", gutterWidth))
	for c := range days {
		day := rng.DayAt(c)
		text := fit(day.Format("Mon 2"), colW)
		if o.isToday(day) {
			text = st.today.Render(text)
		} else {
			text = st.header.Render(text)
		}
		b.WriteString(text)
	}
	b.WriteString("\n")

	allDay := v.all(func(bx schedule.LayoutBox) bool { return bx.AllDay })
	lanes := m.AllDayLanes
	for _, bx := range allDay {
		lanes = max(lanes, bx.Lane+1)
	}
	for lane := range lanes {
		gutter := ""
		if lane == 0 {
			gutter = "all"
		}
		var inLane []schedule.LayoutBox
		for _, bx := range allDay {
			if bx.Lane == lane {
				inLane = append(inLane, bx)
			}
		}
		b.WriteString(st.muted.Render(fit(gutter, gutterWidth)))
		b.WriteString(spanLine(inLane, days, colW, v.chip(st, o)))
		b.WriteString("\n")
	}
	b.WriteString(st.muted.Render(strings.Repeat("─", gutterWidth+days*colW)))
	b.WriteString("\n")

	byCol := make([][]schedule.LayoutBox, days)
	for _, bx := range v.all(func(bx schedule.LayoutBox) bool { return !bx.AllDay }) {
		if bx.Column >= 0 && bx.Column < days {
			byCol[bx.Column] = append(byCol[bx.Column], bx)
		}
	}

	for slot := 0; slot < rng.Hours.Minutes(); slot += SlotMinutes {
		gutter := ""
		if slot%60 == 0 {
			gutter = fmt.Sprintf("%02d:00", rng.Hours.StartHour+slot/60)
		}
		b.WriteString(st.muted.Render(fit(gutter, gutterWidth)))
		for c := range days {
			b.WriteString(v.slotCell(st, o, byCol[c], slot, colW))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// slotCell draws one column of one grid line. Overlapping boxes split the
// cell by lane.
func (v view) slotCell(st styles, o Options, boxes []schedule.LayoutBox, slot, colW int) string {
	var here []schedule.LayoutBox
	count := 1
	for _, bx := range boxes {
		if bx.Offset < slot+SlotMinutes && bx.Offset+bx.Length > slot {
			here = append(here, bx)
			count = max(count, bx.LaneCount, bx.Lane+1)
		}
	}
	if len(here) == 0 {
		return strings.Repeat(" ", colW)
	}

	subW := max(1, colW/count)
	var b strings.Builder
	for lane := range count {
		var box *schedule.LayoutBox
		for _, bx := range here {
			if bx.Lane == lane {
				box = &bx
				break
			}
		}
		if box == nil {
			b.WriteString(strings.Repeat(" ", subW))
			continue
		}
		e := v.entity(box.EntityID)
		text := "│"
		if box.Offset >= slot || (slot == 0 && box.ClippedStart) {
			text = e.Range.Start.Format("15:04") + " " + Label(e)
			if o.Selected == box.EntityID {
				text = "▸" + text
			}
		}
		b.WriteString(st.bar(e, o.Selected == box.EntityID, true).Render(fit(text, subW-1)))
		b.WriteString(" ")
	}
	if pad := colW - subW*count; pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	return b.String()
}
