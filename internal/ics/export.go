package ics

import (
	"errors"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"eventease/internal/fileutil"
	appLog "eventease/internal/log"
	"eventease/internal/model"
	"eventease/internal/validate"
)

const (
	productID = "-//EventEase//Event Catalog//EN"

	// localLayout is a floating DATE-TIME (no zone suffix).
	localLayout = "20060102T150405"
	utcLayout   = "20060102T150405Z"
	dateLayout  = "20060102"
)

// uidNamespace scopes the name-based UIDs derived from event ids.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("eventease:event"))

// UID returns the stable iCalendar UID for an event id.
func UID(id int) string {
	return uuid.NewSHA1(uidNamespace, []byte(strconv.Itoa(id))).String() + "@eventease"
}

// Export renders events as a VCALENDAR. DTSTART is written as a floating
// local time in loc and DTEND is DTSTART plus duration.
func Export(events []model.Event, loc *time.Location, duration time.Duration) ([]byte, error) {
	if duration <= 0 {
		return nil, errors.New("export: duration must be positive")
	}
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)

	stamp := time.Now().UTC()
	for _, ev := range events {
		start, err := validate.Instant(ev.Date, ev.Time, loc)
		if err != nil {
			// The store never holds such records; skip rather than emit a broken VEVENT.
			appLog.Error("ics export: skipping event with bad instant", err, "id", ev.ID)
			continue
		}
		end := start.Add(duration)

		ve := cal.AddEvent(UID(ev.ID))
		ve.SetDtStampTime(stamp)
		ve.SetProperty(ical.ComponentPropertyDtStart, start.Format(localLayout))
		ve.SetProperty(ical.ComponentPropertyDtEnd, end.Format(localLayout))
		ve.SetSummary(ev.Title)
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
	}

	appLog.Info("ics export completed", "event_count", len(events))
	return []byte(cal.Serialize()), nil
}

// WriteFile writes data to path through a temp file and rename.
func WriteFile(path string, data []byte) error {
	return fileutil.WriteAtomic(path, data, 0o644)
}
