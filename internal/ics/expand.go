package ics

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "eventease/internal/log"
	"eventease/internal/model"
	"eventease/internal/validate"
)

// Expand turns one event template and an RRULE (e.g. "FREQ=WEEKLY;COUNT=4")
// into one Fields per occurrence, the first at the template's own instant.
// Occurrences stop at the end of validate.MaxYear and after limit entries.
func Expand(tmpl model.Fields, rule string, loc *time.Location, limit int) ([]model.Fields, error) {
	if limit <= 0 {
		return nil, errors.New("expand: no room for occurrences")
	}
	if loc == nil {
		loc = time.Local
	}
	if err := validate.Fields(tmpl); err != nil {
		return nil, err
	}
	start, err := validate.Instant(tmpl.Date, tmpl.Time, loc)
	if err != nil {
		return nil, err
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, &model.ValidationError{Field: "rule", Value: rule, Reason: err.Error()}
	}
	// Ensure Dtstart is set to the template's instant.
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)

	rangeEnd := time.Date(validate.MaxYear, time.December, 31, 23, 59, 59, 0, loc)
	next := set.Iterator()
	times := make([]time.Time, 0)
	truncated := false
	for {
		at, ok := next()
		if !ok || at.After(rangeEnd) {
			break
		}
		if len(times) == limit {
			truncated = true
			break
		}
		times = append(times, at)
	}
	if len(times) == 0 {
		return nil, &model.ValidationError{Field: "rule", Value: rule, Reason: "produces no occurrences"}
	}
	if truncated {
		appLog.Warn("expand: occurrences truncated", "rule", rule, "cap", limit)
	}

	out := make([]model.Fields, 0, len(times))
	for _, at := range times {
		at = at.In(loc)
		f := tmpl
		f.Date = at.Format(validate.DateLayout)
		f.Time = at.Format(validate.TimeLayout)
		if !validate.Date(f.Date) {
			return nil, fmt.Errorf("expand: occurrence %s out of range", f.Date)
		}
		out = append(out, f)
	}
	return out, nil
}
