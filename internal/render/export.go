package render

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/javiermolinar/gantry/internal/planner"
	"github.com/javiermolinar/gantry/internal/schedule"
)

// Document is a render model flattened for export.
type Document struct {
	Mode     string      `json:"mode" yaml:"mode"`
	Scale    string      `json:"scale,omitempty" yaml:"scale,omitempty"`
	Start    string      `json:"start" yaml:"start"`
	End      string      `json:"end" yaml:"end"` // exclusive
	Days     int         `json:"days" yaml:"days"`
	Week     string      `json:"week" yaml:"week"`
	Rows     []RowDoc    `json:"rows,omitempty" yaml:"rows,omitempty"`
	Boxes    []BoxDoc    `json:"boxes" yaml:"boxes"`
	Overflow map[int]int `json:"overflow,omitempty" yaml:"overflow,omitempty"`
	Entities []EntityDoc `json:"entities" yaml:"entities"`
}

// RowDoc is one Gantt row.
type RowDoc struct {
	ID        string `json:"id" yaml:"id"`
	Source    string `json:"source" yaml:"source"`
	Indent    int    `json:"indent,omitempty" yaml:"indent,omitempty"`
	Collapsed bool   `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
}

// BoxDoc is one layout box.
type BoxDoc struct {
	ID           string `json:"id" yaml:"id"`
	Row          int    `json:"row" yaml:"row"`
	Column       int    `json:"column" yaml:"column"`
	Offset       int    `json:"offset" yaml:"offset"`
	Length       int    `json:"length" yaml:"length"`
	Lane         int    `json:"lane" yaml:"lane"`
	LaneCount    int    `json:"lane_count" yaml:"lane_count"`
	AllDay       bool   `json:"all_day" yaml:"all_day"`
	ClippedStart bool   `json:"clipped_start,omitempty" yaml:"clipped_start,omitempty"`
	ClippedEnd   bool   `json:"clipped_end,omitempty" yaml:"clipped_end,omitempty"`
}

// EntityDoc names an entity and its range.
type EntityDoc struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Label  string `json:"label" yaml:"label"`
	Start  string `json:"start" yaml:"start"`
	End    string `json:"end" yaml:"end"`
	AllDay bool   `json:"all_day" yaml:"all_day"`
}

// Export flattens a model. Boxes are ordered by row, column, offset and id.
func Export(m *planner.RenderModel) Document {
	rng := m.Range
	doc := Document{
		Mode:  m.State.Mode.String(),
		Start: rng.Start.Format(time.RFC3339),
		End:   rng.End.Format(time.RFC3339),
		Days:  rng.Days,
		Week:  rng.WeekLabel(),
	}
	if m.State.Mode == planner.ModeGantt {
		doc.Scale = m.State.Scale.String()
	}
	if len(m.Overflow) > 0 {
		doc.Overflow = m.Overflow
	}
	for _, r := range m.Rows {
		doc.Rows = append(doc.Rows, RowDoc{ID: r.EntityID, Source: string(r.Source), Indent: r.Indent, Collapsed: r.Collapsed})
	}

	doc.Boxes = []BoxDoc{}
	for _, boxes := range m.Boxes {
		for _, b := range boxes {
			doc.Boxes = append(doc.Boxes, BoxDoc{
				ID: b.EntityID, Row: b.Row, Column: b.Column, Offset: b.Offset, Length: b.Length,
				Lane: b.Lane, LaneCount: b.LaneCount, AllDay: b.AllDay,
				ClippedStart: b.ClippedStart, ClippedEnd: b.ClippedEnd,
			})
		}
	}
	slices.SortFunc(doc.Boxes, func(a, b BoxDoc) int {
		for _, c := range []int{a.Row - b.Row, a.Column - b.Column, a.Offset - b.Offset} {
			if c != 0 {
				return c
			}
		}
		return strings.Compare(a.ID, b.ID)
	})

	doc.Entities = []EntityDoc{}
	for id := range m.Boxes {
		e := m.Entities[id]
		doc.Entities = append(doc.Entities, entityDoc(e))
	}
	slices.SortFunc(doc.Entities, func(a, b EntityDoc) int {
		if c := strings.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return doc
}

func entityDoc(e schedule.Entity) EntityDoc {
	d := EntityDoc{ID: e.ID, Source: string(e.Source), Label: Label(e), AllDay: e.Range.AllDay}
	if e.Range.AllDay {
		d.Start = e.Range.Start.Format("2006-01-02")
		d.End = e.Range.LastDay().Format("2006-01-02")
	} else {
		d.Start = e.Range.Start.Format(time.RFC3339)
		d.End = e.Range.End.Format(time.RFC3339)
	}
	return d
}

// Encode writes the document as "yaml" or "json".
func Encode(w io.Writer, doc Document, format string) error {
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want yaml or json)", format)
	}
}
