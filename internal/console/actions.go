package console

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"eventease/internal/ics"
	appLog "eventease/internal/log"
	"eventease/internal/model"
	"eventease/internal/store"
	"eventease/internal/validate"
)

func (c *Console) addEvent() error {
	if c.store.Len() >= c.store.Capacity() {
		c.printf("Event storage full! Cannot add more events.\n")
		return nil
	}
	f, err := c.promptFields()
	if err != nil {
		return err
	}

	ev, err := c.store.Create(f)
	if err != nil && !errors.Is(err, model.ErrIO) {
		c.report(err)
		return nil
	}
	if err != nil {
		c.report(err)
	}
	c.printf("Event added successfully with ID: %d\n", ev.ID)
	return nil
}

// promptFields asks for a new event, re-prompting until date and time are valid.
func (c *Console) promptFields() (model.Fields, error) {
	var f model.Fields
	var err error
	if f.Title, err = c.prompt("Enter event title: "); err != nil {
		return f, err
	}
	if f.Description, err = c.prompt("Enter event description: "); err != nil {
		return f, err
	}
	if f.Location, err = c.prompt("Enter event location: "); err != nil {
		return f, err
	}
	if f.Date, err = c.promptUntil("Enter event date (YYYY-MM-DD): ", validate.Date, "Invalid date! Use YYYY-MM-DD between 2000 and 2100."); err != nil {
		return f, err
	}
	if f.Time, err = c.promptUntil("Enter event time (HH:MM): ", validate.Time, "Invalid time! Use HH:MM (00:00-23:59)."); err != nil {
		return f, err
	}
	return f, nil
}

func (c *Console) promptUntil(label string, ok func(string) bool, complaint string) (string, error) {
	for {
		v, err := c.prompt(label)
		if err != nil {
			return "", err
		}
		if ok(v) {
			return v, nil
		}
		c.printf("%s\n", complaint)
	}
}

// promptOptional is promptUntil where a blank line means "keep".
func (c *Console) promptOptional(label string, ok func(string) bool, complaint string) (string, error) {
	return c.promptUntil(label, func(s string) bool { return s == "" || ok(s) }, complaint)
}

func (c *Console) viewEvents() error {
	events := c.store.List()
	if len(events) == 0 {
		c.printf("No events to display.\n")
		return nil
	}
	c.printf("\n=== All Events ===\n")
	c.renderEvents(events, true)
	return nil
}

func (c *Console) editEvent() error {
	if c.store.Len() == 0 {
		c.printf("No events to edit.\n")
		return nil
	}
	id, ok, err := c.promptID("Enter event ID to edit: ")
	if err != nil || !ok {
		return err
	}
	ev, err := c.store.Get(id)
	if err != nil {
		c.report(err)
		return nil
	}

	c.printf("Editing Event ID: %d\n", id)
	c.printf("Leave field blank to keep current value.\n")

	var p model.Patch
	c.printf("Current title: %s\n", ev.Title)
	if p.Title, err = c.prompt("Enter new title: "); err != nil {
		return err
	}
	c.printf("Current date: %s\n", ev.Date)
	if p.Date, err = c.promptOptional("Enter new date (YYYY-MM-DD): ", validate.Date, "Invalid date! Use YYYY-MM-DD between 2000 and 2100."); err != nil {
		return err
	}
	c.printf("Current time: %s\n", ev.Time)
	if p.Time, err = c.promptOptional("Enter new time (HH:MM): ", validate.Time, "Invalid time! Use HH:MM (00:00-23:59)."); err != nil {
		return err
	}
	c.printf("Current location: %s\n", ev.Location)
	if p.Location, err = c.prompt("Enter new location: "); err != nil {
		return err
	}
	c.printf("Current description: %s\n", ev.Description)
	if p.Description, err = c.prompt("Enter new description: "); err != nil {
		return err
	}

	if p.Empty() {
		c.printf("No changes.\n")
		return nil
	}

	res, err := c.store.Update(id, p)
	if err != nil && !errors.Is(err, model.ErrIO) {
		c.report(err)
		return nil
	}
	if err != nil {
		c.report(err)
	}
	if len(res.Skipped) > 0 {
		c.printf("Kept previous %s.\n", strings.Join(res.Skipped, " and "))
	}
	c.printf("Event updated successfully.\n")
	return nil
}

func (c *Console) deleteEvent() error {
	if c.store.Len() == 0 {
		c.printf("No events to delete.\n")
		return nil
	}
	id, ok, err := c.promptID("Enter event ID to delete: ")
	if err != nil || !ok {
		return err
	}
	ev, err := c.store.Get(id)
	if err != nil {
		c.report(err)
		return nil
	}

	answer, err := c.prompt(fmt.Sprintf("Are you sure you want to delete event '%s'? (y/n): ", ev.Title))
	if err != nil {
		return err
	}
	confirmed := strings.EqualFold(strings.TrimSpace(answer), "y")

	deleted, err := c.store.Delete(id, confirmed)
	if err != nil {
		c.report(err)
	}
	switch {
	case deleted:
		c.printf("Event deleted successfully.\n")
	case !confirmed:
		c.printf("Deletion cancelled.\n")
	}
	return nil
}

func (c *Console) searchEvents() error {
	if c.store.Len() == 0 {
		c.printf("No events to search.\n")
		return nil
	}
	c.printf("Search by:\n1. Date\n2. Title\n3. Location\n")
	choice, ok, err := c.promptID("Enter your choice: ")
	if err != nil || !ok {
		return err
	}

	var found []model.Event
	switch choice {
	case 1:
		term, err := c.prompt("Enter date to search (YYYY-MM-DD): ")
		if err != nil {
			return err
		}
		found, err = c.store.SearchByDate(term)
		if err != nil {
			c.report(err)
			return nil
		}
		c.printf("\n=== Events on %s ===\n", term)
	case 2:
		term, err := c.prompt("Enter title to search: ")
		if err != nil {
			return err
		}
		found = c.store.SearchByTitle(term)
		c.printf("\n=== Events with '%s' in title ===\n", term)
	case 3:
		term, err := c.prompt("Enter location to search: ")
		if err != nil {
			return err
		}
		found = c.store.SearchByLocation(term)
		c.printf("\n=== Events in '%s' ===\n", term)
	default:
		c.printf("Invalid choice.\n")
		return nil
	}

	if len(found) == 0 {
		c.printf("No events found matching your search.\n")
		return nil
	}
	c.renderEvents(found, false)
	return nil
}

func (c *Console) sortEvents() error {
	if c.store.Len() == 0 {
		c.printf("No events to sort.\n")
		return nil
	}
	c.printf("Sort by:\n1. Date/Time\n2. Title (Alphabetical)\n3. Location\n")
	line, err := c.prompt("Enter your choice (number or name): ")
	if err != nil {
		return err
	}
	key, err := sortKey(line)
	if err != nil {
		c.report(err)
		return nil
	}

	if err := c.store.Sort(key); err != nil {
		c.report(err)
		if !errors.Is(err, model.ErrIO) {
			return nil
		}
	}
	c.printf("Events sorted successfully.\n")
	return c.viewEvents()
}

// sortKey accepts a menu number or a key name such as "title".
func sortKey(line string) (model.SortKey, error) {
	switch strings.TrimSpace(line) {
	case "1":
		return model.SortByDateTime, nil
	case "2":
		return model.SortByTitle, nil
	case "3":
		return model.SortByLocation, nil
	}
	return model.ParseSortKey(line)
}

func (c *Console) eventSummary() error {
	sum := c.store.Summary()
	c.printf("\n=== Event Summary ===\n")
	c.printf("Total number of events: %d\n", sum.Total)
	if sum.Total == 0 {
		return nil
	}
	c.renderSummary(sum)
	return nil
}

func (c *Console) upcomingEvents() error {
	now := c.opts.Now().In(c.store.Location())
	events := c.store.Upcoming(now)
	c.printf("\n=== Upcoming Events (after %s) ===\n", now.Format("2006-01-02 15:04"))
	if len(events) == 0 {
		c.printf("No upcoming events.\n")
		return nil
	}
	// SortByDateTime is always a known key.
	_ = store.SortEvents(events, model.SortByDateTime, c.store.Location())
	c.renderEvents(events, true)
	return nil
}

func (c *Console) exportICS() error {
	path, err := c.prompt("Enter file to export to [events.ics]: ")
	if err != nil {
		return err
	}
	if path = strings.TrimSpace(path); path == "" {
		path = "events.ics"
	}

	events := c.store.List()
	data, err := ics.Export(events, c.store.Location(), c.opts.ExportDuration)
	if err == nil {
		err = ics.WriteFile(path, data)
	}
	if err != nil {
		appLog.Error("ics export failed", err, "path", path)
		c.printf("Export failed: %v\n", err)
		return nil
	}
	c.printf("Exported %d events to %s.\n", len(events), path)
	return nil
}

func (c *Console) importICS() error {
	path, err := c.prompt("Enter ICS file to import: ")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(strings.TrimSpace(path))
	if err != nil {
		c.printf("Import failed: %v\n", err)
		return nil
	}
	fields, err := ics.Parse(data, c.store.Location())
	if err != nil {
		c.printf("Import failed: %v\n", err)
		return nil
	}
	if len(fields) == 0 {
		c.printf("No importable events found.\n")
		return nil
	}
	c.createAll(fields)
	return nil
}

func (c *Console) addRecurring() error {
	room := c.store.Capacity() - c.store.Len()
	if room <= 0 {
		c.printf("Event storage full! Cannot add more events.\n")
		return nil
	}
	f, err := c.promptFields()
	if err != nil {
		return err
	}
	rule, err := c.prompt("Enter recurrence rule (e.g. FREQ=WEEKLY;COUNT=4): ")
	if err != nil {
		return err
	}

	fields, err := ics.Expand(f, strings.TrimSpace(rule), c.store.Location(), room)
	if err != nil {
		c.report(err)
		return nil
	}
	c.createAll(fields)
	return nil
}

func (c *Console) createAll(fields []model.Fields) {
	created, err := c.store.CreateAll(fields)
	if err != nil && !errors.Is(err, model.ErrIO) {
		c.report(err)
		return
	}
	if err != nil {
		c.report(err)
	}
	ids := make([]string, 0, len(created))
	for _, ev := range created {
		ids = append(ids, fmt.Sprint(ev.ID))
	}
	c.printf("Added %d events (IDs %s).\n", len(created), strings.Join(ids, ", "))
}
