package extcal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/log"
	"github.com/javiermolinar/gantry/internal/schedule"
)

// ErrAllDayMismatch is returned when an update's range kind disagrees with its allDay flag.
var ErrAllDayMismatch = errors.New("range kind does not match all-day flag")

// Source is one ICS feed: a file path or an http(s) URL.
type Source struct {
	ID       string
	Location string
}

// Options configure a Calendar.
type Options struct {
	Client         *http.Client
	Zone           *time.Location // zone for floating times; defaults to time.Local
	Padding        time.Duration  // extra expansion on both sides of a listing window
	MaxOccurrences int
}

// Calendar merges ICS feeds into layout entities. Moves are stored as
// overrides in a Store and applied on every listing.
type Calendar struct {
	sources []Source
	store   *Store
	opts    Options

	mu   sync.Mutex
	seen map[string]Occurrence // last listing, by occurrence ID
}

// New returns a Calendar over sources.
func New(sources []Source, store *Store, opts Options) *Calendar {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.Zone == nil {
		opts.Zone = time.Local
	}
	if opts.Padding <= 0 {
		opts.Padding = 7 * schedule.Day
	}
	return &Calendar{sources: sources, store: store, opts: opts, seen: map[string]Occurrence{}}
}

// List returns the occurrences overlapping [start, end) from every source.
// Occurrences moved into the window are included even when their feed
// position lies far outside it. A source that cannot be read or parsed is
// logged and skipped; List fails only when every source fails.
func (c *Calendar) List(ctx context.Context, start, end time.Time) ([]schedule.Entity, error) {
	movedIn, err := c.movedInto(start, end)
	if err != nil {
		log.Error("reading overrides", err)
	}

	var (
		all  []Occurrence
		errs []error
	)
	for _, src := range c.sources {
		occ, err := c.listSource(ctx, src, start.Add(-c.opts.Padding), end.Add(c.opts.Padding), movedIn)
		if err != nil {
			log.Error("calendar source failed", err, "source", src.ID)
			errs = append(errs, fmt.Errorf("source %s: %w", src.ID, err))
			continue
		}
		all = append(all, occ...)
	}
	if len(c.sources) > 0 && len(errs) == len(c.sources) {
		return nil, errors.Join(errs...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	var (
		out  []schedule.Entity
		done = make(map[string]bool, len(all))
	)
	for i := range all {
		o := &all[i]
		if done[o.ID] {
			continue
		}
		done[o.ID] = true
		if r, ok, err := c.overrideFor(o.ID); err != nil {
			log.Error("reading override", err, "id", o.ID)
		} else if ok {
			o.Range = r
		}
		if !visible(o.Range, start, end) {
			continue
		}
		c.seen[o.ID] = *o
		out = append(out, o.Entity())
	}
	slices.SortFunc(out, func(a, b schedule.Entity) int {
		if n := a.Range.Start.Compare(b.Range.Start); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// movedInto returns the IDs of stored overrides that overlap [start, end),
// sorted.
func (c *Calendar) movedInto(start, end time.Time) ([]string, error) {
	if c.store == nil {
		return nil, nil
	}
	overrides, err := c.store.Overrides()
	if err != nil {
		return nil, err
	}
	var ids []string
	for id, r := range overrides {
		if visible(r, start, end) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// Update moves an occurrence. The new range is stored as an override; the
// feed itself is never written.
func (c *Calendar) Update(ctx context.Context, id string, r schedule.TimeRange, allDay bool) (schedule.Entity, error) {
	if err := ctx.Err(); err != nil {
		return schedule.Entity{}, err
	}
	if r.AllDay != allDay {
		return schedule.Entity{}, fmt.Errorf("%w: %w", schedule.ErrInvalidRange, ErrAllDayMismatch)
	}
	if err := r.Validate(); err != nil {
		return schedule.Entity{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.seen[id]
	if !ok {
		return schedule.Entity{}, fmt.Errorf("%w: %s", schedule.ErrEntityNotFound, id)
	}
	if c.store == nil {
		return schedule.Entity{}, errors.New("calendar has no override store")
	}
	if err := c.store.SetOverride(id, r); err != nil {
		return schedule.Entity{}, err
	}
	o.Range = r
	c.seen[id] = o
	log.Info("event moved", "id", id, "range", r.String())
	return o.Entity(), nil
}

// Get returns one occurrence. The window listed is the day the occurrence
// starts on, taken from its override or from the start encoded in its ID.
func (c *Calendar) Get(ctx context.Context, id string) (schedule.Entity, error) {
	at, err := instanceStart(id)
	if err != nil {
		return schedule.Entity{}, fmt.Errorf("%w: %s", schedule.ErrEntityNotFound, id)
	}
	if r, ok, err := c.overrideFor(id); err != nil {
		return schedule.Entity{}, fmt.Errorf("reading override: %w", err)
	} else if ok {
		at = r.Start
	}

	day := dateutil.TruncateToDay(at.In(c.opts.Zone))
	entities, err := c.List(ctx, day, day.AddDate(0, 0, 1))
	if err != nil {
		return schedule.Entity{}, err
	}
	for _, e := range entities {
		if e.ID == id {
			return e, nil
		}
	}
	return schedule.Entity{}, fmt.Errorf("%w: %s", schedule.ErrEntityNotFound, id)
}

// instanceStart reads the original start out of an occurrence ID. UIDs may
// contain '@' themselves, so the last one separates the start.
func instanceStart(id string) (time.Time, error) {
	i := strings.LastIndex(id, "@")
	if i < 0 {
		return time.Time{}, fmt.Errorf("occurrence id %q has no start", id)
	}
	return time.Parse(time.RFC3339, id[i+1:])
}

// IsOccurrenceID reports whether id looks like an occurrence ID rather
// than a task or project ID.
func IsOccurrenceID(id string) bool {
	_, err := instanceStart(id)
	return err == nil
}

// Reset drops the override of an occurrence so it returns to its feed position.
func (c *Calendar) Reset(id string) error {
	if c.store == nil {
		return nil
	}
	return c.store.ClearOverride(id)
}

func (c *Calendar) overrideFor(id string) (schedule.TimeRange, bool, error) {
	if c.store == nil {
		return schedule.TimeRange{}, false, nil
	}
	return c.store.Override(id)
}

// listSource expands one feed over [start, end) plus the occurrences in
// moved whose feed position lies outside that window.
func (c *Calendar) listSource(ctx context.Context, src Source, start, end time.Time, moved []string) ([]Occurrence, error) {
	body, err := c.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	events, err := Parse(src.ID, bytes.NewReader(body), c.opts.Zone)
	if err != nil {
		return nil, err
	}
	occ, err := Expand(events, start, end, c.opts.MaxOccurrences)
	if err != nil {
		return nil, err
	}

	have := make(map[string]bool, len(occ))
	for _, o := range occ {
		have[o.ID] = true
	}
	for _, id := range moved {
		if have[id] {
			continue
		}
		at, err := instanceStart(id)
		if err != nil {
			continue
		}
		around, err := Expand(events, at.Add(-c.opts.Padding), at.Add(c.opts.Padding), c.opts.MaxOccurrences)
		if err != nil {
			return nil, err
		}
		for _, o := range around {
			if o.ID == id {
				occ = append(occ, o)
				have[id] = true
				break
			}
		}
	}
	return occ, nil
}

// fetch reads a feed. Remote feeds fall back to the cached copy when the
// request fails.
func (c *Calendar) fetch(ctx context.Context, src Source) ([]byte, error) {
	if !isURL(src.Location) {
		body, err := os.ReadFile(src.Location)
		if err != nil {
			return nil, fmt.Errorf("reading feed: %w", err)
		}
		return body, nil
	}

	body, err := c.download(ctx, src.Location)
	if err == nil {
		if c.store != nil {
			if err := c.store.SetFeed(src.Location, body); err != nil {
				log.Error("caching feed", err, "source", src.ID)
			}
		}
		return body, nil
	}
	if c.store != nil {
		if cached, ok := c.store.Feed(src.Location); ok {
			log.Error("feed download failed, using cached copy", err, "source", src.ID)
			return cached, nil
		}
	}
	return nil, err
}

func (c *Calendar) download(ctx context.Context, url string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(url, "webcal://"); ok {
		url = "https://" + rest
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := c.opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading feed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading feed: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}
	return body, nil
}

func isURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") ||
		strings.HasPrefix(location, "webcal://")
}
