// Package store holds the in-memory event catalog: an ordered sequence of
// records plus the id counter. Every successful mutation is written through
// the Backend before the call returns.
package store

import (
	"fmt"
	"strings"
	"time"

	appLog "eventease/internal/log"
	"eventease/internal/model"
	"eventease/internal/validate"
)

// DefaultCapacity is the number of events a store holds unless overridden.
const DefaultCapacity = 100

// Backend persists snapshots. Load is called once, by Open.
type Backend interface {
	Load() (model.Snapshot, error)
	Save(model.Snapshot) error
}

// Store is not safe for concurrent use; it has exactly one owner.
type Store struct {
	backend  Backend
	events   []model.Event
	nextID   int
	capacity int
	loc      *time.Location
}

type Option func(*Store)

// WithCapacity bounds the number of concurrently held events.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithLocation sets the zone used to turn date+time into an instant.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// UpdateResult is the outcome of Update. Skipped lists the supplied fields
// ("date", "time") that failed validation and kept their previous value.
type UpdateResult struct {
	Event   model.Event
	Skipped []string
}

// Open loads the backend once and returns a store over its contents.
func Open(b Backend, opts ...Option) (*Store, error) {
	snap, err := b.Load()
	if err != nil {
		return nil, err
	}

	s := &Store{
		backend:  b,
		capacity: DefaultCapacity,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}

	seen := make(map[int]bool, len(snap.Events))
	maxID := 0
	for _, ev := range snap.Events {
		if seen[ev.ID] {
			return nil, &model.IOError{Op: "open", Err: fmt.Errorf("duplicate id %d", ev.ID)}
		}
		seen[ev.ID] = true
		maxID = max(maxID, ev.ID)
	}
	if len(snap.Events) > s.capacity {
		appLog.Warn("loaded more events than capacity; new events will be rejected",
			"count", len(snap.Events), "capacity", s.capacity)
	}

	s.events = append([]model.Event(nil), snap.Events...)
	s.nextID = max(snap.NextID, maxID+1, 1)
	return s, nil
}

// Create validates f and appends a new event with the next id.
func (s *Store) Create(f model.Fields) (model.Event, error) {
	if err := validate.Fields(f); err != nil {
		return model.Event{}, err
	}
	if len(s.events) >= s.capacity {
		return model.Event{}, &model.CapacityError{Limit: s.capacity}
	}

	ev := s.newEvent(f)
	s.events = append(s.events, ev)
	appLog.Info("event created", "id", ev.ID, "title", ev.Title, "date", ev.Date)
	return ev, s.save()
}

// CreateAll creates every entry or none. All fields are validated and the
// capacity checked before anything is appended; one save covers the batch.
func (s *Store) CreateAll(fs []model.Fields) ([]model.Event, error) {
	for i, f := range fs {
		if err := validate.Fields(f); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
	}
	if len(s.events)+len(fs) > s.capacity {
		return nil, &model.CapacityError{Limit: s.capacity}
	}
	if len(fs) == 0 {
		return nil, nil
	}

	created := make([]model.Event, 0, len(fs))
	for _, f := range fs {
		ev := s.newEvent(f)
		s.events = append(s.events, ev)
		created = append(created, ev)
	}
	appLog.Info("events created", "count", len(created), "first_id", created[0].ID)
	return created, s.save()
}

func (s *Store) newEvent(f model.Fields) model.Event {
	ev := model.Event{
		ID:          s.nextID,
		Title:       f.Title,
		Date:        f.Date,
		Time:        f.Time,
		Location:    f.Location,
		Description: f.Description,
	}
	s.nextID++
	return ev
}

// List returns a copy of all events in store order.
func (s *Store) List() []model.Event {
	return append([]model.Event{}, s.events...)
}

// Get finds an event by id.
func (s *Store) Get(id int) (model.Event, error) {
	i := s.index(id)
	if i < 0 {
		return model.Event{}, &model.NotFoundError{ID: id}
	}
	return s.events[i], nil
}

func (s *Store) index(id int) int {
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}

// Update applies the non-empty fields of p to event id.
//
// Text fields are checked first and an invalid one fails the whole update.
// A supplied date or time that fails validation is skipped and reported in
// UpdateResult.Skipped; the other fields are still applied.
func (s *Store) Update(id int, p model.Patch) (UpdateResult, error) {
	i := s.index(id)
	if i < 0 {
		return UpdateResult{}, &model.NotFoundError{ID: id}
	}

	if err := validate.Text("title", p.Title, model.MaxTitleLen); err != nil {
		return UpdateResult{}, err
	}
	if p.Title != "" && strings.TrimSpace(p.Title) == "" {
		return UpdateResult{}, &model.ValidationError{Field: "title", Value: p.Title, Reason: "must not be empty"}
	}
	if err := validate.Text("location", p.Location, model.MaxLocationLen); err != nil {
		return UpdateResult{}, err
	}
	if err := validate.Text("description", p.Description, model.MaxDescriptionLen); err != nil {
		return UpdateResult{}, err
	}

	var res UpdateResult
	ev := s.events[i]
	if p.Title != "" {
		ev.Title = p.Title
	}
	if p.Date != "" {
		if validate.Date(p.Date) {
			ev.Date = p.Date
		} else {
			res.Skipped = append(res.Skipped, "date")
		}
	}
	if p.Time != "" {
		if validate.Time(p.Time) {
			ev.Time = p.Time
		} else {
			res.Skipped = append(res.Skipped, "time")
		}
	}
	if p.Location != "" {
		ev.Location = p.Location
	}
	if p.Description != "" {
		ev.Description = p.Description
	}

	s.events[i] = ev
	res.Event = ev
	appLog.Info("event updated", "id", id, "skipped", res.Skipped)
	return res, s.save()
}

// Delete removes event id when confirmed is true, keeping the relative order
// of the rest. An unconfirmed call changes nothing and reports false.
func (s *Store) Delete(id int, confirmed bool) (bool, error) {
	i := s.index(id)
	if i < 0 {
		return false, &model.NotFoundError{ID: id}
	}
	if !confirmed {
		appLog.Debug("event delete cancelled", "id", id)
		return false, nil
	}

	s.events = append(s.events[:i], s.events[i+1:]...)
	appLog.Info("event deleted", "id", id)
	return true, s.save()
}

// Len is the number of events held.
func (s *Store) Len() int { return len(s.events) }

// Capacity is the maximum number of events held.
func (s *Store) Capacity() int { return s.capacity }

// NextID is the id the next created event will get.
func (s *Store) NextID() int { return s.nextID }

// Location is the zone used for instants.
func (s *Store) Location() *time.Location { return s.loc }

// Snapshot copies the persisted state.
func (s *Store) Snapshot() model.Snapshot {
	return model.Snapshot{NextID: s.nextID, Events: s.List()}
}

// Close writes the final state. Call it once at process exit.
func (s *Store) Close() error {
	return s.save()
}

// save writes through the backend. On failure the in-memory state is kept
// as the source of truth and the error is returned to the caller.
func (s *Store) save() error {
	if err := s.backend.Save(s.Snapshot()); err != nil {
		appLog.Error("store save failed; keeping in-memory state", err, "count", len(s.events))
		return err
	}
	return nil
}
