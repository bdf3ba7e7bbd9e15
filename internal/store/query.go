package store

import (
	"cmp"
	"slices"
	"strings"
	"time"

	appLog "eventease/internal/log"
	"eventease/internal/model"
	"eventease/internal/validate"
)

// SearchByDate returns the events on date, which must itself be valid.
func (s *Store) SearchByDate(date string) ([]model.Event, error) {
	if !validate.Date(date) {
		return nil, &model.ValidationError{Field: "date", Value: date, Reason: "must be a real date in YYYY-MM-DD form between 2000 and 2100"}
	}
	return s.filter(func(ev model.Event) bool { return ev.Date == date }), nil
}

// SearchByTitle matches substr against titles, ignoring case.
func (s *Store) SearchByTitle(substr string) []model.Event {
	needle := strings.ToLower(substr)
	return s.filter(func(ev model.Event) bool {
		return strings.Contains(strings.ToLower(ev.Title), needle)
	})
}

// SearchByLocation matches substr against locations, ignoring case.
func (s *Store) SearchByLocation(substr string) []model.Event {
	needle := strings.ToLower(substr)
	return s.filter(func(ev model.Event) bool {
		return strings.Contains(strings.ToLower(ev.Location), needle)
	})
}

// Upcoming returns the events whose instant is strictly after now, in store order.
func (s *Store) Upcoming(now time.Time) []model.Event {
	return s.filter(func(ev model.Event) bool {
		at, err := validate.Instant(ev.Date, ev.Time, s.loc)
		return err == nil && at.After(now)
	})
}

func (s *Store) filter(keep func(model.Event) bool) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range s.events {
		if keep(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// Sort reorders the store in place and saves.
func (s *Store) Sort(key model.SortKey) error {
	if err := SortEvents(s.events, key, s.loc); err != nil {
		return err
	}
	appLog.Info("events sorted", "key", key.String(), "count", len(s.events))
	return s.save()
}

// SortEvents stably sorts events by key. Instants are built in loc.
func SortEvents(events []model.Event, key model.SortKey, loc *time.Location) error {
	var less func(a, b model.Event) int
	switch key {
	case model.SortByDateTime:
		less = func(a, b model.Event) int { return compareDateTime(a, b, loc) }
	case model.SortByTitle:
		less = func(a, b model.Event) int { return compareFold(a.Title, b.Title) }
	case model.SortByLocation:
		less = func(a, b model.Event) int { return compareFold(a.Location, b.Location) }
	default:
		return &model.ValidationError{Field: "sort key", Value: key.String(), Reason: "must be one of datetime, title, location"}
	}
	slices.SortStableFunc(events, less)
	return nil
}

// compareDateTime orders by instant. When either instant cannot be built it
// falls back to comparing the date strings, then the time strings; the
// fixed-width formats sort in calendar order.
func compareDateTime(a, b model.Event, loc *time.Location) int {
	at, errA := validate.Instant(a.Date, a.Time, loc)
	bt, errB := validate.Instant(b.Date, b.Time, loc)
	if errA == nil && errB == nil {
		return at.Compare(bt)
	}
	if c := strings.Compare(a.Date, b.Date); c != 0 {
		return c
	}
	return strings.Compare(a.Time, b.Time)
}

func compareFold(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

// SummaryByDate counts events per exact date string.
func (s *Store) SummaryByDate() map[string]int {
	return s.Summary().ByDate
}

// Summary counts events by date, year, month of year and day of month.
func (s *Store) Summary() model.Summary {
	return Summarize(s.events)
}

// Summarize aggregates events. Dates that do not parse are counted in the
// total and by date only.
func Summarize(events []model.Event) model.Summary {
	sum := model.Summary{
		Total:   len(events),
		ByDate:  make(map[string]int),
		ByYear:  make(map[int]int),
		ByMonth: make(map[time.Month]int),
		ByDay:   make(map[int]int),
	}
	for _, ev := range events {
		sum.ByDate[ev.Date]++
		d, err := time.Parse(validate.DateLayout, ev.Date)
		if err != nil {
			continue
		}
		sum.ByYear[d.Year()]++
		sum.ByMonth[d.Month()]++
		sum.ByDay[d.Day()]++
	}
	return sum
}
