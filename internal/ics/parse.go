package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "eventease/internal/log"
	"eventease/internal/model"
	"eventease/internal/validate"
)

// Parse converts the VEVENTs of an ICS payload into create fields. Start
// times are converted to loc. VEVENTs that cannot be converted, or whose
// fields fail validation, are logged and skipped.
func Parse(body []byte, loc *time.Location) ([]model.Fields, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	out := make([]model.Fields, 0)
	for _, ve := range cal.Events() {
		f, perr := parseVEvent(ve, loc)
		if perr != nil {
			// Log and skip this event, but keep parsing others.
			appLog.Error("ics vevent skipped", perr, "uid", propValue(ve, ical.ComponentPropertyUniqueId))
			continue
		}
		out = append(out, f)
	}

	appLog.Info("ics parse completed", "event_count", len(out))
	return out, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (model.Fields, error) {
	var f model.Fields

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return f, errors.New("missing DTSTART")
	}

	zone := loc
	if params := dtStart.ICalParameters; params != nil {
		if tzs, ok := params["TZID"]; ok && len(tzs) > 0 {
			if tz, err := time.LoadLocation(tzs[0]); err == nil {
				zone = tz
			}
		}
	}

	start, err := parseICSTime(dtStart.Value, zone)
	if err != nil {
		return f, fmt.Errorf("DTSTART %q: %w", dtStart.Value, err)
	}
	start = start.In(loc)

	f.Title = flatten(propValue(ve, ical.ComponentPropertySummary))
	f.Location = flatten(propValue(ve, ical.ComponentPropertyLocation))
	f.Description = flatten(propValue(ve, ical.ComponentPropertyDescription))
	f.Date = start.Format(validate.DateLayout)
	f.Time = start.Format(validate.TimeLayout)

	if err := validate.Fields(f); err != nil {
		return model.Fields{}, err
	}
	return f, nil
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}

var flattener = strings.NewReplacer(
	`\\`, `\`,
	`\,`, ",",
	`\;`, ";",
	`\n`, " ",
	`\N`, " ",
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// flatten undoes TEXT escaping and folds line breaks, which the data file
// cannot hold, into spaces.
func flatten(s string) string {
	return strings.TrimSpace(flattener.Replace(s))
}

// parseICSTime parses the basic DATE / DATE-TIME / UTC forms. Floating and
// date-only values are read in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g., 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse(utcLayout, v)
	}

	// Local date-time, e.g., 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation(localLayout, v, loc)
	}

	// Date-only (all-day), e.g., 20250101
	return time.ParseInLocation(dateLayout, v, loc)
}
