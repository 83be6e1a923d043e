package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/javiermolinar/gantry/internal/schedule"
)

func renderOrFail(t *testing.T, c *Controller) *RenderModel {
	t.Helper()
	m, err := c.Render(context.Background())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return m
}

func TestGesture_GanttMoveTask(t *testing.T) {
	store := newFakeStore(
		project("p1", day(2024, 2, 20), day(2024, 3, 20)),
		task("t1", "p1", day(2024, 3, 1), day(2024, 3, 3)),
	)
	c := New(store, nil, ViewState{Mode: ModeGantt, Anchor: day(2024, 3, 1)}, testOptions())
	renderOrFail(t, c)

	if err := c.BeginGesture("t1", GestureMove, Pointer{X: 700}); err != nil {
		t.Fatalf("BeginGesture() error = %v", err)
	}

	// Two day cells at 60 units each.
	preview, err := c.UpdateGesture(Pointer{X: 118})
	if err != nil {
		t.Fatalf("UpdateGesture() error = %v", err)
	}
	want := schedule.NewAllDay(day(2024, 3, 3), day(2024, 3, 5))
	if !preview.Range.Equal(want) {
		t.Fatalf("preview range = %s, want %s", preview.Range, want)
	}
	if want.Days() != 3 {
		t.Fatalf("duration changed: %d days", want.Days())
	}
	// Range starts 2024-02-19, so Mar 3 is offset 13.
	if len(preview.Boxes) != 1 || preview.Boxes[0].Offset != 13 || preview.Boxes[0].Row != 1 {
		t.Errorf("preview boxes = %+v", preview.Boxes)
	}
	if store.updateCount() != 0 {
		t.Fatal("UpdateGesture must not store anything")
	}

	model, err := c.EndGesture(context.Background())
	if err != nil {
		t.Fatalf("EndGesture() error = %v", err)
	}
	if got := model.Entities["t1"].Range; !got.Equal(want) {
		t.Errorf("rendered range = %s, want %s", got, want)
	}
	if store.updateCount() != 1 {
		t.Errorf("updates = %d, want 1", store.updateCount())
	}
	if _, ok := c.Session(); ok {
		t.Error("session should be cleared")
	}
}

func TestGesture_GanttResizeProject(t *testing.T) {
	store := newFakeStore(project("p1", day(2024, 3, 1), day(2024, 3, 3)))
	c := New(store, nil, ViewState{Mode: ModeGantt, Anchor: day(2024, 3, 1)}, testOptions())
	renderOrFail(t, c)

	if err := c.BeginGesture("p1", GestureResizeEnd, Pointer{}); err != nil {
		t.Fatalf("BeginGesture() error = %v", err)
	}
	preview, _ := c.UpdateGesture(Pointer{X: -600})
	want := schedule.NewAllDay(day(2024, 3, 1), day(2024, 3, 1))
	if !preview.Range.Equal(want) {
		t.Errorf("preview = %s, want %s", preview.Range, want)
	}
	if _, err := c.EndGesture(context.Background()); err != nil {
		t.Fatalf("EndGesture() error = %v", err)
	}
	got, _ := store.Get(context.Background(), "p1")
	if !got.Range.Equal(want) {
		t.Errorf("stored = %s, want %s", got.Range, want)
	}
}

func TestGesture_NoNetChangeSkipsMutation(t *testing.T) {
	store := newFakeStore(task("t1", "p1", day(2024, 3, 1), day(2024, 3, 3)))
	c := New(store, nil, ViewState{Mode: ModeGantt, Anchor: day(2024, 3, 1)}, testOptions())
	renderOrFail(t, c)

	if err := c.BeginGesture("t1", GestureMove, Pointer{}); err != nil {
		t.Fatalf("BeginGesture() error = %v", err)
	}
	if _, err := c.UpdateGesture(Pointer{X: 120}); err != nil {
		t.Fatal(err)
	}
	// Back under half a cell from the origin.
	if _, err := c.UpdateGesture(Pointer{X: 20}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.EndGesture(context.Background()); err != nil {
		t.Fatalf("EndGesture() error = %v", err)
	}
	if store.updateCount() != 0 {
		t.Errorf("updates = %d, want 0", store.updateCount())
	}
}

func TestGesture_SessionErrors(t *testing.T) {
	store := newFakeStore(
		task("t1", "p1", day(2024, 3, 1), day(2024, 3, 3)),
		task("t2", "p1", day(2024, 3, 4), day(2024, 3, 4)),
	)
	c := New(store, nil, ViewState{Mode: ModeGantt, Anchor: day(2024, 3, 1)}, testOptions())

	if err := c.BeginGesture("t1", GestureMove, Pointer{}); !errors.Is(err, schedule.ErrEntityNotFound) {
		t.Errorf("before any render: error = %v, want ErrEntityNotFound", err)
	}
	renderOrFail(t, c)

	if _, err := c.UpdateGesture(Pointer{}); !errors.Is(err, ErrNoGesture) {
		t.Errorf("UpdateGesture() error = %v, want ErrNoGesture", err)
	}
	if _, err := c.EndGesture(context.Background()); !errors.Is(err, ErrNoGesture) {
		t.Errorf("EndGesture() error = %v, want ErrNoGesture", err)
	}
	if err := c.BeginGesture("missing", GestureMove, Pointer{}); !errors.Is(err, schedule.ErrEntityNotFound) {
		t.Errorf("BeginGesture(missing) error = %v, want ErrEntityNotFound", err)
	}

	if err := c.BeginGesture("t1", GestureMove, Pointer{}); err != nil {
		t.Fatalf("BeginGesture() error = %v", err)
	}
	if err := c.BeginGesture("t2", GestureMove, Pointer{}); !errors.Is(err, ErrGestureActive) {
		t.Errorf("second BeginGesture() error = %v, want ErrGestureActive", err)
	}

	c.CancelGesture()
	if err := c.BeginGesture("t2", GestureMove, Pointer{}); err != nil {
		t.Errorf("BeginGesture() after cancel error = %v", err)
	}
}

func TestGesture_EntityRemovedBeforeEnd(t *testing.T) {
	store := newFakeStore(task("t1", "p1", day(2024, 3, 1), day(2024, 3, 3)))
	c := New(store, nil, ViewState{Mode: ModeGantt, Anchor: day(2024, 3, 1)}, testOptions())
	renderOrFail(t, c)

	if err := c.BeginGesture("t1", GestureMove, Pointer{}); err != nil {
		t.Fatal(err)
	}
	c.UpdateGesture(Pointer{X: 60})
	store.remove("t1")

	model, err := c.EndGesture(context.Background())
	if !errors.Is(err, schedule.ErrEntityNotFound) {
		t.Fatalf("EndGesture() error = %v, want ErrEntityNotFound", err)
	}
	if _, ok := model.Entities["t1"]; ok {
		t.Error("re-render should no longer contain t1")
	}
	if store.updateCount() != 0 {
		t.Error("no mutation should be sent for a missing entity")
	}
}

func TestGesture_MutationFailureReverts(t *testing.T) {
	diskFull := errors.New("disk full")
	store := newFakeStore(task("t1", "p1", day(2024, 3, 1), day(2024, 3, 3)))
	store.updateErr = diskFull
	c := New(store, nil, ViewState{Mode: ModeGantt, Anchor: day(2024, 3, 1)}, testOptions())
	original := renderOrFail(t, c).Entities["t1"].Range

	if err := c.BeginGesture("t1", GestureMove, Pointer{}); err != nil {
		t.Fatal(err)
	}
	c.UpdateGesture(Pointer{X: 180})

	model, err := c.EndGesture(context.Background())
	if !errors.Is(err, schedule.ErrMutationFailed) || !errors.Is(err, diskFull) {
		t.Fatalf("EndGesture() error = %v, want ErrMutationFailed wrapping the store error", err)
	}
	if model == nil {
		t.Fatal("a fresh render should be returned with the error")
	}
	if got := model.Entities["t1"].Range; !got.Equal(original) {
		t.Errorf("range after failure = %s, want %s", got, original)
	}
	if c.Busy("t1") {
		t.Error("t1 should not stay busy after a failed mutation")
	}
}

func TestGesture_ValidatorRejects(t *testing.T) {
	events := newFakeEvents(event("e1", schedule.NewTimed(at(2024, 3, 5, 9, 0), at(2024, 3, 5, 10, 0))))
	opts := testOptions()
	opts.Validator = rejectAll{}
	c := New(newFakeStore(), events, ViewState{Mode: ModeDay, Anchor: day(2024, 3, 5)}, opts)
	renderOrFail(t, c)

	if err := c.BeginGesture("e1", GestureMove, Pointer{X: 10, Y: 240}); err != nil {
		t.Fatal(err)
	}
	c.UpdateGesture(Pointer{Y: 48})

	_, err := c.EndGesture(context.Background())
	if !errors.Is(err, schedule.ErrInvalidRange) {
		t.Fatalf("EndGesture() error = %v, want ErrInvalidRange", err)
	}
	if got := events.get("e1").Range.Start; !got.Equal(at(2024, 3, 5, 9, 0)) {
		t.Errorf("event moved to %v despite validation failure", got)
	}
}

func TestGesture_TimedResizeClampsToMinimum(t *testing.T) {
	events := newFakeEvents(event("e1", schedule.NewTimed(at(2024, 3, 5, 9, 0), at(2024, 3, 5, 9, 30))))
	c := New(newFakeStore(), events, ViewState{Mode: ModeDay, Anchor: day(2024, 3, 5)}, testOptions())
	renderOrFail(t, c)

	if err := c.BeginGesture("e1", GestureResizeEnd, Pointer{X: 10, Y: 264}); err != nil {
		t.Fatal(err)
	}
	// 45 minutes up at 48 units per hour.
	preview, err := c.UpdateGesture(Pointer{Y: -36})
	if err != nil {
		t.Fatal(err)
	}
	want := schedule.NewTimed(at(2024, 3, 5, 9, 0), at(2024, 3, 5, 9, 15))
	if !preview.Range.Equal(want) {
		t.Errorf("preview = %s, want %s", preview.Range, want)
	}
	if _, err := c.EndGesture(context.Background()); err != nil {
		t.Fatalf("EndGesture() error = %v", err)
	}
	if got := events.get("e1").Range; !got.Equal(want) {
		t.Errorf("stored = %s, want %s", got, want)
	}
}

func TestGesture_WeekMoveSnapsToQuarterHours(t *testing.T) {
	events := newFakeEvents(event("e1", schedule.NewTimed(at(2024, 3, 5, 9, 0), at(2024, 3, 5, 10, 0))))
	c := New(newFakeStore(), events, ViewState{Mode: ModeWeek, Anchor: day(2024, 3, 5)}, testOptions())
	renderOrFail(t, c)

	if err := c.BeginGesture("e1", GestureMove, Pointer{X: 130, Y: 250}); err != nil {
		t.Fatal(err)
	}
	// One column right, 40 minutes down: rounds to 45.
	preview, _ := c.UpdateGesture(Pointer{X: 125, Y: 32})
	want := schedule.NewTimed(at(2024, 3, 6, 9, 45), at(2024, 3, 6, 10, 45))
	if !preview.Range.Equal(want) {
		t.Errorf("preview = %s, want %s", preview.Range, want)
	}
	if len(preview.Boxes) != 1 || preview.Boxes[0].Column != 2 || preview.Boxes[0].Offset != 345 {
		t.Errorf("preview boxes = %+v", preview.Boxes)
	}
}

func TestGesture_OffGridEventSnaps(t *testing.T) {
	offGrid := schedule.NewTimed(at(2024, 3, 5, 9, 7), at(2024, 3, 5, 10, 7))
	step := 12.0 // one 15-minute slot at 48 units per hour

	tests := []struct {
		name  string
		kind  GestureKind
		delta Pointer
		want  schedule.TimeRange
	}{
		{"move down one slot", GestureMove, Pointer{Y: step},
			schedule.NewTimed(at(2024, 3, 5, 9, 15), at(2024, 3, 5, 10, 15))},
		{"move up one slot", GestureMove, Pointer{Y: -step},
			schedule.NewTimed(at(2024, 3, 5, 8, 45), at(2024, 3, 5, 9, 45))},
		{"move across days keeps the time", GestureMove, Pointer{X: 120},
			schedule.NewTimed(at(2024, 3, 6, 9, 7), at(2024, 3, 6, 10, 7))},
		{"resize end", GestureResizeEnd, Pointer{Y: step},
			schedule.NewTimed(at(2024, 3, 5, 9, 7), at(2024, 3, 5, 10, 15))},
		{"resize start", GestureResizeStart, Pointer{Y: -step},
			schedule.NewTimed(at(2024, 3, 5, 8, 45), at(2024, 3, 5, 10, 7))},
		{"resize end clamps after snapping", GestureResizeEnd, Pointer{Y: -4 * step},
			schedule.NewTimed(at(2024, 3, 5, 9, 7), at(2024, 3, 5, 9, 22))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := newFakeEvents(event("e1", offGrid))
			c := New(newFakeStore(), events, ViewState{Mode: ModeWeek, Anchor: day(2024, 3, 5)}, testOptions())
			renderOrFail(t, c)

			if err := c.BeginGesture("e1", tt.kind, Pointer{X: 130, Y: 250}); err != nil {
				t.Fatal(err)
			}
			preview, err := c.UpdateGesture(tt.delta)
			if err != nil {
				t.Fatal(err)
			}
			if !preview.Range.Equal(tt.want) {
				t.Errorf("preview = %s, want %s", preview.Range, tt.want)
			}
			if _, err := c.EndGesture(context.Background()); err != nil {
				t.Fatalf("EndGesture() error = %v", err)
			}
			if got := events.get("e1").Range; !got.Equal(tt.want) {
				t.Errorf("stored = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGesture_AllDayTimedConversion(t *testing.T) {
	events := newFakeEvents(
		event("allday", schedule.NewAllDay(day(2024, 3, 6), day(2024, 3, 6))),
		event("timed", schedule.NewTimed(at(2024, 3, 5, 14, 0), at(2024, 3, 5, 15, 0))),
	)
	store := newFakeStore(task("t1", "p1", day(2024, 3, 5), day(2024, 3, 5)))
	c := New(store, events, ViewState{Mode: ModeWeek, Anchor: day(2024, 3, 5)}, testOptions())

	t.Run("all-day event dropped on the grid becomes timed", func(t *testing.T) {
		renderOrFail(t, c)
		if err := c.BeginGesture("allday", GestureMove, Pointer{X: 250, Y: -10}); err != nil {
			t.Fatal(err)
		}
		// Down to 09:05 on the same column.
		c.UpdateGesture(Pointer{Y: 10 + 5*48 + 4})
		if _, err := c.EndGesture(context.Background()); err != nil {
			t.Fatalf("EndGesture() error = %v", err)
		}
		got := events.get("allday").Range
		want := schedule.NewTimed(at(2024, 3, 6, 9, 0), at(2024, 3, 6, 9, 30))
		if !got.Equal(want) {
			t.Errorf("stored = %s, want %s", got, want)
		}
		if events.allDay["allday"] {
			t.Error("update should be sent with allDay=false")
		}
	})

	t.Run("timed event dropped on the all-day row becomes all-day", func(t *testing.T) {
		renderOrFail(t, c)
		if err := c.BeginGesture("timed", GestureMove, Pointer{X: 130, Y: 480}); err != nil {
			t.Fatal(err)
		}
		c.UpdateGesture(Pointer{X: 120, Y: -500})
		if _, err := c.EndGesture(context.Background()); err != nil {
			t.Fatalf("EndGesture() error = %v", err)
		}
		got := events.get("timed").Range
		want := schedule.NewAllDay(day(2024, 3, 6), day(2024, 3, 6))
		if !got.Equal(want) {
			t.Errorf("stored = %s, want %s", got, want)
		}
		if !events.allDay["timed"] {
			t.Error("update should be sent with allDay=true")
		}
	})

	t.Run("tasks stay all-day", func(t *testing.T) {
		renderOrFail(t, c)
		if err := c.BeginGesture("t1", GestureMove, Pointer{X: 130, Y: -10}); err != nil {
			t.Fatal(err)
		}
		preview, _ := c.UpdateGesture(Pointer{X: 120, Y: 300})
		if !preview.Range.AllDay {
			t.Fatalf("task preview became timed: %s", preview.Range)
		}
		want := schedule.NewAllDay(day(2024, 3, 6), day(2024, 3, 6))
		if !preview.Range.Equal(want) {
			t.Errorf("preview = %s, want %s", preview.Range, want)
		}
		c.CancelGesture()
	})
}

func TestGesture_TimeoutAndReconcile(t *testing.T) {
	events := newFakeEvents(event("e1", schedule.NewAllDay(day(2024, 3, 5), day(2024, 3, 5))))
	events.release = make(chan struct{})
	events.started = make(chan string, 1)

	reconciled := make(chan string, 1)
	opts := testOptions()
	opts.MutationTimeout = 20 * time.Millisecond
	opts.OnReconcile = func(id string, err error) {
		if err != nil {
			t.Errorf("late result error = %v", err)
		}
		reconciled <- id
	}
	c := New(newFakeStore(), events, ViewState{Mode: ModeMonth, Anchor: day(2024, 3, 5)}, opts)
	renderOrFail(t, c)

	if err := c.BeginGesture("e1", GestureMove, Pointer{}); err != nil {
		t.Fatal(err)
	}
	c.UpdateGesture(Pointer{X: 120})

	model, err := c.EndGesture(context.Background())
	if !errors.Is(err, schedule.ErrMutationFailed) || !errors.Is(err, ErrMutationTimeout) {
		t.Fatalf("EndGesture() error = %v, want a timed out mutation", err)
	}
	if got := model.Entities["e1"].Range.Start; !got.Equal(day(2024, 3, 5)) {
		t.Errorf("render after timeout shows %v, want the stored date", got)
	}
	<-events.started

	if !c.Busy("e1") {
		t.Fatal("e1 should stay busy while the call is still running")
	}
	if err := c.BeginGesture("e1", GestureMove, Pointer{}); !errors.Is(err, schedule.ErrConcurrentGesture) {
		t.Fatalf("BeginGesture() on a busy entity error = %v, want ErrConcurrentGesture", err)
	}

	close(events.release)
	select {
	case id := <-reconciled:
		if id != "e1" {
			t.Errorf("reconciled %q, want e1", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnReconcile was not called")
	}
	c.Wait()

	if c.Busy("e1") {
		t.Error("e1 should be free after the late result")
	}
	renderOrFail(t, c)
	if err := c.BeginGesture("e1", GestureMove, Pointer{}); err != nil {
		t.Errorf("BeginGesture() after reconcile error = %v", err)
	}
}

func TestGesture_ContextCancelled(t *testing.T) {
	events := newFakeEvents(event("e1", schedule.NewAllDay(day(2024, 3, 5), day(2024, 3, 5))))
	events.release = make(chan struct{})
	events.started = make(chan string, 1)
	c := New(newFakeStore(), events, ViewState{Mode: ModeMonth, Anchor: day(2024, 3, 5)}, testOptions())
	renderOrFail(t, c)

	if err := c.BeginGesture("e1", GestureMove, Pointer{}); err != nil {
		t.Fatal(err)
	}
	c.UpdateGesture(Pointer{X: 120})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-events.started
		cancel()
	}()
	_, err := c.EndGesture(ctx)
	if !errors.Is(err, schedule.ErrMutationFailed) || !errors.Is(err, context.Canceled) {
		t.Errorf("EndGesture() error = %v, want a cancelled mutation", err)
	}

	close(events.release)
	c.Wait()
}

func TestPointerAtAndStep(t *testing.T) {
	events := newFakeEvents(
		event("e1", schedule.NewTimed(at(2024, 3, 5, 9, 0), at(2024, 3, 5, 10, 0))),
		event("allday", schedule.NewAllDay(day(2024, 3, 7), day(2024, 3, 7))),
	)
	store := newFakeStore(task("t1", "p1", day(2024, 3, 1), day(2024, 3, 3)))

	t.Run("week", func(t *testing.T) {
		c := New(store, events, ViewState{Mode: ModeWeek, Anchor: day(2024, 3, 5)}, testOptions())
		m := renderOrFail(t, c)

		box, _ := m.Box("e1")
		if got := c.PointerAt(m, box); got != (Pointer{X: 180, Y: 240}) {
			t.Errorf("timed pointer = %+v", got)
		}
		box, _ = m.Box("allday")
		if got := c.PointerAt(m, box); got != (Pointer{X: 420, Y: -24}) {
			t.Errorf("all-day pointer = %+v", got)
		}
		if dx, dy := c.Step(m); dx != 120 || dy != 12 {
			t.Errorf("step = %v, %v", dx, dy)
		}
	})

	t.Run("pointer at a box moves it from there", func(t *testing.T) {
		c := New(store, events, ViewState{Mode: ModeWeek, Anchor: day(2024, 3, 5)}, testOptions())
		m := renderOrFail(t, c)
		box, _ := m.Box("e1")
		if err := c.BeginGesture("e1", GestureMove, c.PointerAt(m, box)); err != nil {
			t.Fatal(err)
		}
		defer c.CancelGesture()
		_, dy := c.Step(m)
		preview, _ := c.UpdateGesture(Pointer{Y: 2 * dy})
		want := schedule.NewTimed(at(2024, 3, 5, 9, 30), at(2024, 3, 5, 10, 30))
		if !preview.Range.Equal(want) {
			t.Errorf("preview = %s, want %s", preview.Range, want)
		}
	})

	t.Run("gantt", func(t *testing.T) {
		c := New(store, nil, ViewState{Mode: ModeGantt, Anchor: day(2024, 3, 1)}, testOptions())
		m := renderOrFail(t, c)
		if dx, dy := c.Step(m); dx != 60 || dy != 0 {
			t.Errorf("step = %v, %v", dx, dy)
		}
	})
}
