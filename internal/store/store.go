// Package store persists bookmarked journeys and the notification state of
// watched journeys in a single JSON document.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"railway.tracker.org/internal/journey"
	"railway.tracker.org/internal/logging"
	"railway.tracker.org/internal/models"
)

var ErrNotBookmarked = errors.New("journey is not bookmarked")

type document struct {
	Journeys []models.Journey                 `json:"journeys"`
	Watched  map[string]*journey.NotifyStatus `json:"watched"`
}

// Store is safe for concurrent use. Every mutation rewrites the whole file.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	doc document
}

// Open loads path, creating an empty store when the file does not exist.
// Files written by older versions are migrated on the next write.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:   path,
		logger: logging.Component(logger, "store"),
		doc:    document{Journeys: []models.Journey{}, Watched: map[string]*journey.NotifyStatus{}},
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}

	doc, legacy, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode store %s: %w", path, err)
	}
	s.doc = doc

	if legacy {
		logging.LogOperation(s.logger, "legacy_store_migrated",
			slog.String("path", path),
			slog.Int("journeys", len(doc.Journeys)))
		if err := s.write(s.doc); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// decode understands the current document and the two array layouts older
// versions wrote: plain journeys, and before that {"journey": ...} wrappers.
func decode(raw []byte) (document, bool, error) {
	doc := document{Journeys: []models.Journey{}, Watched: map[string]*journey.NotifyStatus{}}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return doc, false, nil
	}

	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return doc, false, err
		}
		if doc.Journeys == nil {
			doc.Journeys = []models.Journey{}
		}
		if doc.Watched == nil {
			doc.Watched = map[string]*journey.NotifyStatus{}
		}
		return doc, false, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return doc, false, err
	}
	for _, item := range items {
		var wrapped struct {
			Journey *models.Journey `json:"journey"`
		}
		if err := json.Unmarshal(item, &wrapped); err == nil && wrapped.Journey != nil {
			doc.Journeys = append(doc.Journeys, *wrapped.Journey)
			continue
		}

		var j models.Journey
		if err := json.Unmarshal(item, &j); err != nil {
			return doc, false, err
		}
		doc.Journeys = append(doc.Journeys, j)
	}
	return doc, true, nil
}

// Journeys returns the bookmarked journeys in insertion order.
func (s *Store) Journeys() []models.Journey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Journey, len(s.doc.Journeys))
	copy(out, s.doc.Journeys)
	return out
}

// Add bookmarks data, replacing an existing bookmark with the same id.
func (s *Store) Add(data models.Journey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(func(doc *document) {
		if i := doc.index(data.ID); i >= 0 {
			doc.Journeys[i] = data
		} else {
			doc.Journeys = append(doc.Journeys, data)
		}
	})
}

// Remove drops the bookmark for id and stops watching it.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.doc.index(id)
	if i < 0 {
		return ErrNotBookmarked
	}
	return s.update(func(doc *document) {
		doc.Journeys = append(doc.Journeys[:i], doc.Journeys[i+1:]...)
		delete(doc.Watched, id)
	})
}

// Watch records status for a bookmarked journey.
func (s *Store) Watch(id string, status *journey.NotifyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.index(id) < 0 {
		return ErrNotBookmarked
	}
	if status == nil {
		status = journey.NewNotifyStatus()
	}
	return s.update(func(doc *document) {
		doc.Watched[id] = status.Clone()
	})
}

func (s *Store) Unwatch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Watched[id]; !ok {
		return nil
	}
	return s.update(func(doc *document) {
		delete(doc.Watched, id)
	})
}

// Watched returns copies of the notification state of every watched journey.
func (s *Store) Watched() map[string]*journey.NotifyStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*journey.NotifyStatus, len(s.doc.Watched))
	for id, status := range s.doc.Watched {
		out[id] = status.Clone()
	}
	return out
}

// SaveStatus updates the notification state of a watched journey. Statuses
// of journeys that were unwatched meanwhile are dropped.
func (s *Store) SaveStatus(id string, status *journey.NotifyStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Watched[id]; !ok {
		return nil
	}
	return s.update(func(doc *document) {
		doc.Watched[id] = status.Clone()
	})
}

// SaveJourney stores refreshed data if the journey is bookmarked.
func (s *Store) SaveJourney(data models.Journey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.doc.index(data.ID)
	if i < 0 {
		return nil
	}
	return s.update(func(doc *document) {
		doc.Journeys[i] = data
	})
}

// Prune removes bookmarks whose arrival lies more than olderThan before now
// and returns their ids.
func (s *Store) Prune(now time.Time, olderThan time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-olderThan)
	var removed []string
	for _, j := range s.doc.Journeys {
		if arrival := j.Arrival(); arrival != nil && arrival.Before(cutoff) {
			removed = append(removed, j.ID)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	err := s.update(func(doc *document) {
		kept := doc.Journeys[:0]
		for _, j := range doc.Journeys {
			if arrival := j.Arrival(); arrival != nil && arrival.Before(cutoff) {
				delete(doc.Watched, j.ID)
				continue
			}
			kept = append(kept, j)
		}
		doc.Journeys = kept
	})
	if err != nil {
		return nil, err
	}
	logging.LogOperation(s.logger, "bookmarks_pruned", slog.Int("count", len(removed)))
	return removed, nil
}

// update applies fn to a copy of the document and keeps the copy only once
// it is on disk. Must be called with mu held.
func (s *Store) update(fn func(doc *document)) error {
	doc := s.doc.clone()
	fn(&doc)
	if err := s.write(doc); err != nil {
		return err
	}
	s.doc = doc
	return nil
}

func (d document) clone() document {
	out := document{
		Journeys: make([]models.Journey, len(d.Journeys)),
		Watched:  make(map[string]*journey.NotifyStatus, len(d.Watched)),
	}
	copy(out.Journeys, d.Journeys)
	for id, status := range d.Watched {
		out.Watched[id] = status
	}
	return out
}

func (d document) index(id string) int {
	for i, j := range d.Journeys {
		if j.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) write(doc document) (err error) {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	defer func() {
		if err != nil {
			logging.HandleDeferredError(&err, func() error { return os.Remove(tmp.Name()) }, s.logger, "remove_temp_store")
		}
	}()

	if _, err = tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
