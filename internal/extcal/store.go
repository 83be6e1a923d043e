package extcal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"github.com/javiermolinar/gantry/internal/schedule"
)

// Store persists moved occurrences and the last good body of each feed.
type Store struct {
	d *diskv.Diskv
}

// override is the stored form of a moved occurrence.
type override struct {
	ID     string    `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day"`
}

// NewStore opens a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{d: diskv.New(diskv.Options{
		BasePath: dir,
		AdvancedTransform: func(key string) *diskv.PathKey {
			// "o-<hash>" lives in o/<hash>.
			return &diskv.PathKey{Path: []string{key[:1]}, FileName: key[2:]}
		},
		InverseTransform: func(pk *diskv.PathKey) string {
			return pk.Path[0] + "-" + pk.FileName
		},
		CacheSizeMax: 1024 * 1024, // 1MB
	})}
}

// Override returns the stored range for an occurrence ID.
func (s *Store) Override(id string) (schedule.TimeRange, bool, error) {
	val, err := s.d.Read(key("o", id))
	if errors.Is(err, fs.ErrNotExist) {
		return schedule.TimeRange{}, false, nil
	}
	if err != nil {
		return schedule.TimeRange{}, false, fmt.Errorf("reading override: %w", err)
	}
	var o override
	if err := json.Unmarshal(val, &o); err != nil {
		return schedule.TimeRange{}, false, fmt.Errorf("decoding override %s: %w", id, err)
	}
	return schedule.TimeRange{Start: o.Start, End: o.End, AllDay: o.AllDay}, true, nil
}

// SetOverride stores r as the new range of occurrence id.
func (s *Store) SetOverride(id string, r schedule.TimeRange) error {
	b, err := json.Marshal(override{ID: id, Start: r.Start, End: r.End, AllDay: r.AllDay})
	if err != nil {
		return fmt.Errorf("encoding override: %w", err)
	}
	if err := s.d.Write(key("o", id), b); err != nil {
		return fmt.Errorf("writing override: %w", err)
	}
	return nil
}

// ClearOverride removes the stored range of occurrence id, if any.
func (s *Store) ClearOverride(id string) error {
	k := key("o", id)
	if !s.d.Has(k) {
		return nil
	}
	if err := s.d.Erase(k); err != nil {
		return fmt.Errorf("erasing override: %w", err)
	}
	return nil
}

// Overrides returns every stored override keyed by occurrence ID.
func (s *Store) Overrides() (map[string]schedule.TimeRange, error) {
	out := make(map[string]schedule.TimeRange)
	for k := range s.d.Keys(nil) {
		if k[0] != 'o' {
			continue
		}
		val, err := s.d.Read(k)
		if err != nil {
			return nil, fmt.Errorf("reading override: %w", err)
		}
		var o override
		if err := json.Unmarshal(val, &o); err != nil {
			return nil, fmt.Errorf("decoding override: %w", err)
		}
		out[o.ID] = schedule.TimeRange{Start: o.Start, End: o.End, AllDay: o.AllDay}
	}
	return out, nil
}

// Feed returns the cached body of a feed location.
func (s *Store) Feed(location string) ([]byte, bool) {
	val, err := s.d.Read(key("f", location))
	if err != nil {
		return nil, false
	}
	return val, true
}

// SetFeed caches body as the last good copy of a feed location.
func (s *Store) SetFeed(location string, body []byte) error {
	if err := s.d.Write(key("f", location), body); err != nil {
		return fmt.Errorf("caching feed: %w", err)
	}
	return nil
}

// key hashes id so any instance ID or URL is a safe file name.
func key(kind, id string) string {
	sum := sha256.Sum256([]byte(id))
	return kind + "-" + hex.EncodeToString(sum[:16])
}
