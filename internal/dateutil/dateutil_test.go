package dateutil

import (
	"errors"
	"testing"
	"time"
)

func local(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestParseDate(t *testing.T) {
	t.Run("absolute date is local midnight", func(t *testing.T) {
		got, err := ParseDate("2025-01-15")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := local(2025, 1, 15); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
		if got.Location() != time.Local {
			t.Errorf("location = %v, want Local", got.Location())
		}
	})

	t.Run("empty is today", func(t *testing.T) {
		got, err := ParseDate("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if today := TruncateToDay(time.Now()); !got.Equal(today) {
			t.Errorf("got %v, want %v", got, today)
		}
	})

	for _, in := range []string{"01-15-2025", "2025/01/15", "2025-13-01", "soon"} {
		t.Run("rejects "+in, func(t *testing.T) {
			if _, err := ParseDate(in); !errors.Is(err, ErrInvalidDateFormat) {
				t.Errorf("err = %v, want %v", err, ErrInvalidDateFormat)
			}
		})
	}
}

func TestNewDateRange(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		wantStart  time.Time
		wantEnd    time.Time
		wantErr    error
	}{
		{name: "span", start: "2025-01-15", end: "2025-01-20", wantStart: local(2025, 1, 15), wantEnd: local(2025, 1, 20)},
		{name: "single day", start: "2025-01-15", end: "2025-01-15", wantStart: local(2025, 1, 15), wantEnd: local(2025, 1, 15)},
		{name: "empty end is start", start: "2025-01-15", wantStart: local(2025, 1, 15), wantEnd: local(2025, 1, 15)},
		{name: "bad start", start: "15/01/2025", wantErr: ErrInvalidDateFormat},
		{name: "bad end", start: "2025-01-15", end: "tomorrow-ish", wantErr: ErrInvalidDateFormat},
		{name: "end before start", start: "2025-01-20", end: "2025-01-15", wantErr: ErrEndDateBeforeStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dr, err := NewDateRange(tt.start, tt.end)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !dr.Start.Equal(tt.wantStart) || !dr.End.Equal(tt.wantEnd) {
				t.Errorf("got %v..%v, want %v..%v", dr.Start, dr.End, tt.wantStart, tt.wantEnd)
			}
		})
	}

	t.Run("empty defaults to today", func(t *testing.T) {
		dr, err := NewDateRange("", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		today := TruncateToDay(time.Now())
		if !dr.Start.Equal(today) || !dr.End.Equal(today) {
			t.Errorf("got %v..%v, want today %v", dr.Start, dr.End, today)
		}
	})
}

func TestTruncateToDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	in := time.Date(2025, 3, 30, 23, 59, 59, 999, loc)
	got := TruncateToDay(in)
	want := time.Date(2025, 3, 30, 0, 0, 0, 0, loc)
	if !got.Equal(want) || got.Location() != loc {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{"monday": time.Monday, " Sunday ": time.Sunday, "SATURDAY": time.Saturday} {
		got, err := ParseWeekday(in)
		if err != nil || got != want {
			t.Errorf("ParseWeekday(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseWeekday("mon"); !errors.Is(err, ErrInvalidWeekday) {
		t.Errorf("err = %v, want %v", err, ErrInvalidWeekday)
	}
}

func TestParseDay(t *testing.T) {
	// Friday, January 10, 2025
	friday := time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)
	utc := func(m time.Month, d int) time.Time { return time.Date(2025, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		input string
		want  time.Time
	}{
		{"", utc(1, 10)},
		{"today", utc(1, 10)},
		{"TODAY", utc(1, 10)},
		{"tomorrow", utc(1, 11)},
		{"yesterday", utc(1, 9)},
		{"next-week", utc(1, 17)},
		{"monday", utc(1, 13)},
		{"friday", utc(1, 17)},
		{"Saturday", utc(1, 11)},
		{"next-friday", utc(1, 17)},
		{"next-sunday", utc(1, 12)},
		{"+3", utc(1, 13)},
		{"+0", utc(1, 10)},
		{"-10", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"+30", utc(2, 9)},
		{"2025-02-01", utc(2, 1)},
		{"2024-06-01", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"  tomorrow  ", utc(1, 11)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDay(tt.input, friday)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	for _, in := range []string{"next-", "next-month", "+", "+x", "-1d", "01/15/2025", "someday"} {
		t.Run("rejects "+in, func(t *testing.T) {
			if _, err := ParseDay(in, friday); !errors.Is(err, ErrInvalidDateFormat) {
				t.Errorf("err = %v, want %v", err, ErrInvalidDateFormat)
			}
		})
	}

	t.Run("absolute dates use the reference location", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			t.Skipf("tzdata unavailable: %v", err)
		}
		got, err := ParseDay("2025-03-09", time.Date(2025, 3, 1, 9, 0, 0, 0, loc))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := time.Date(2025, 3, 9, 0, 0, 0, 0, loc); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("offsets cross DST by calendar day", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			t.Skipf("tzdata unavailable: %v", err)
		}
		got, err := ParseDay("+2", time.Date(2025, 3, 8, 22, 0, 0, 0, loc))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := time.Date(2025, 3, 10, 0, 0, 0, 0, loc); !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})
}
