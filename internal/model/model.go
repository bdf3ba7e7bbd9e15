package model

import (
	"fmt"
	"strings"
	"time"
)

// Field bounds, in characters.
const (
	MaxTitleLen       = 99
	MaxLocationLen    = 99
	MaxDescriptionLen = 199
)

// Event is one calendar entry in the catalog.
type Event struct {
	// ID is assigned by the store and never reused.
	ID int `json:"id"`

	Title string `json:"title"`
	// Date is YYYY-MM-DD.
	Date string `json:"date"`
	// Time is HH:MM, 24-hour.
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// Fields is the caller-supplied content of a new event.
type Fields struct {
	Title       string `json:"title" validate:"present,max=99,nosep"`
	Date        string `json:"date" validate:"evdate"`
	Time        string `json:"time" validate:"evtime"`
	Location    string `json:"location" validate:"max=99,nosep"`
	Description string `json:"description" validate:"max=199,nosep"`
}

// Patch carries edits for an existing event. An empty string keeps the
// current value of that field.
type Patch struct {
	Title       string
	Date        string
	Time        string
	Location    string
	Description string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// Snapshot is the persisted state of a store.
type Snapshot struct {
	NextID int
	Events []Event
}

// SortKey selects the ordering applied by a sort.
type SortKey int

const (
	SortByDateTime SortKey = iota + 1
	SortByTitle
	SortByLocation
)

func (k SortKey) String() string {
	switch k {
	case SortByDateTime:
		return "datetime"
	case SortByTitle:
		return "title"
	case SortByLocation:
		return "location"
	}
	return fmt.Sprintf("SortKey(%d)", int(k))
}

// ParseSortKey accepts "datetime", "date", "title" or "location".
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "datetime", "date", "time":
		return SortByDateTime, nil
	case "title":
		return SortByTitle, nil
	case "location":
		return SortByLocation, nil
	}
	return 0, &ValidationError{Field: "sort key", Value: s, Reason: "must be one of datetime, title, location"}
}

// Summary aggregates the catalog. The breakdowns are independent counts over
// the same events, not a nested grouping.
type Summary struct {
	Total   int
	ByDate  map[string]int
	ByYear  map[int]int
	ByMonth map[time.Month]int
	ByDay   map[int]int
}
