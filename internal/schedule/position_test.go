package schedule

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func TestPositionInRange_Days(t *testing.T) {
	axisStart := day(2024, 3, 1)
	axisEnd := day(2024, 3, 15) // 14 day cells

	tests := []struct {
		name   string
		r      TimeRange
		want   Position
		wantOK bool
	}{
		{
			name:   "single day occupies one unit",
			r:      NewAllDay(day(2024, 3, 4), day(2024, 3, 4)),
			want:   Position{Offset: 3, Length: 1},
			wantOK: true,
		},
		{
			name:   "three inclusive days",
			r:      NewAllDay(day(2024, 3, 1), day(2024, 3, 3)),
			want:   Position{Offset: 0, Length: 3},
			wantOK: true,
		},
		{
			name:   "starts before axis is clipped to zero",
			r:      NewAllDay(day(2024, 2, 20), day(2024, 3, 2)),
			want:   Position{Offset: 0, Length: 2, ClippedStart: true},
			wantOK: true,
		},
		{
			name:   "ends after axis is clipped",
			r:      NewAllDay(day(2024, 3, 13), day(2024, 4, 2)),
			want:   Position{Offset: 12, Length: 2, ClippedEnd: true},
			wantOK: true,
		},
		{
			name:   "covers the whole axis",
			r:      NewAllDay(day(2024, 1, 1), day(2024, 12, 31)),
			want:   Position{Offset: 0, Length: 14, ClippedStart: true, ClippedEnd: true},
			wantOK: true,
		},
		{
			name:   "timed event inside a day",
			r:      NewTimed(at(2024, 3, 5, 10, 0), at(2024, 3, 5, 11, 0)),
			want:   Position{Offset: 4, Length: 1},
			wantOK: true,
		},
		{
			name:   "timed event over midnight",
			r:      NewTimed(at(2024, 3, 5, 22, 0), at(2024, 3, 6, 2, 0)),
			want:   Position{Offset: 4, Length: 2},
			wantOK: true,
		},
		{
			name:   "entirely before",
			r:      NewAllDay(day(2024, 2, 1), day(2024, 2, 29)),
			wantOK: false,
		},
		{
			name:   "ends exactly at axis start",
			r:      NewTimed(at(2024, 2, 29, 10, 0), day(2024, 3, 1)),
			wantOK: false,
		},
		{
			name:   "entirely after",
			r:      NewAllDay(day(2024, 3, 15), day(2024, 3, 20)),
			wantOK: false,
		},
		{
			name:   "zero length instant inside",
			r:      NewTimed(at(2024, 3, 2, 9, 0), at(2024, 3, 2, 9, 0)),
			want:   Position{Offset: 1, Length: 1},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PositionInRange(tt.r, axisStart, axisEnd, Day)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPositionInRange_Minutes(t *testing.T) {
	axisStart, axisEnd := DefaultHourAxis.Bounds(day(2024, 3, 5))

	t.Run("offset from axis start", func(t *testing.T) {
		r := NewTimed(at(2024, 3, 5, 9, 30), at(2024, 3, 5, 10, 15))
		got, ok := PositionInRange(r, axisStart, axisEnd, time.Minute)
		if !ok {
			t.Fatal("expected intersection")
		}
		if got.Offset != 330 || got.Length != 45 {
			t.Errorf("got %+v, want offset 330 length 45", got)
		}
	})

	t.Run("event before axis hours clipped", func(t *testing.T) {
		r := NewTimed(at(2024, 3, 5, 2, 0), at(2024, 3, 5, 5, 0))
		got, ok := PositionInRange(r, axisStart, axisEnd, time.Minute)
		if !ok {
			t.Fatal("expected intersection")
		}
		if got.Offset != 0 || got.Length != 60 || !got.ClippedStart {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("quarter-hour units round outward", func(t *testing.T) {
		r := NewTimed(at(2024, 3, 5, 9, 10), at(2024, 3, 5, 9, 20))
		got, ok := PositionInRange(r, axisStart, axisEnd, 15*time.Minute)
		if !ok {
			t.Fatal("expected intersection")
		}
		if got.Offset != 20 || got.Length != 2 {
			t.Errorf("got %+v, want offset 20 length 2", got)
		}
	})

	t.Run("after axis end", func(t *testing.T) {
		r := NewTimed(at(2024, 3, 5, 23, 0), at(2024, 3, 5, 23, 30))
		if _, ok := PositionInRange(r, axisStart, axisEnd, time.Minute); ok {
			t.Error("expected no intersection")
		}
	})
}

func TestPositionInRange_Properties(t *testing.T) {
	axisStart := day(2024, 3, 1)
	axisEnd := day(2024, 3, 22)

	for startOff := -10; startOff < 30; startOff++ {
		for length := 1; length < 12; length++ {
			first := axisStart.AddDate(0, 0, startOff)
			r := NewAllDay(first, first.AddDate(0, 0, length-1))
			pos, ok := PositionInRange(r, axisStart, axisEnd, Day)

			outside := !r.End.After(axisStart) || !r.Start.Before(axisEnd)
			if outside && ok {
				t.Fatalf("%s: outside the axis but got %+v", r, pos)
			}
			if !outside {
				if !ok {
					t.Fatalf("%s: expected intersection", r)
				}
				if pos.Length < 1 {
					t.Fatalf("%s: length %d < 1", r, pos.Length)
				}
				if pos.Offset < 0 || pos.Offset+pos.Length > 21 {
					t.Fatalf("%s: %+v escapes the axis", r, pos)
				}
			}
		}
	}
}

func TestPositionInRange_DSTWeek(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	axisStart := time.Date(2024, 3, 4, 0, 0, 0, 0, loc)
	axisEnd := axisStart.AddDate(0, 0, 14)
	// DST starts 2024-03-10 in New York.
	first := time.Date(2024, 3, 11, 0, 0, 0, 0, loc)
	r := NewAllDay(first, first)

	got, ok := PositionInRange(r, axisStart, axisEnd, Day)
	if !ok || got.Offset != 7 || got.Length != 1 {
		t.Errorf("got %+v ok=%v, want offset 7 length 1", got, ok)
	}
}

func TestHourOffset(t *testing.T) {
	axis := HourAxis{StartHour: 4, EndHour: 23}

	tests := []struct {
		name   string
		t      time.Time
		want   float64
		wantOK bool
	}{
		{"axis start", at(2024, 3, 5, 4, 0), 0, true},
		{"half past nine", at(2024, 3, 5, 9, 30), 5.5 * 48, true},
		{"axis end inclusive", at(2024, 3, 5, 23, 0), 19 * 48, true},
		{"before axis", at(2024, 3, 5, 3, 59), 0, false},
		{"after axis", at(2024, 3, 5, 23, 1), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HourOffset(tt.t, axis, 48)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
