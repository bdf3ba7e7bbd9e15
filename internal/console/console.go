// Package console is the interactive front end: login, menu loop, prompts
// and table output. It holds no state of its own beyond the current role;
// every decision about events is made by the store.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"eventease/internal/auth"
	appLog "eventease/internal/log"
	"eventease/internal/model"
	"eventease/internal/store"
)

// Options tune a Console. Zero values pick defaults.
type Options struct {
	// ExportDuration is the length given to exported ICS events.
	ExportDuration time.Duration
	// Now returns the current time; tests pin it.
	Now func() time.Time
}

type Console struct {
	in    *bufio.Reader
	out   io.Writer
	store *store.Store
	gate  *auth.Gate
	role  auth.Role
	opts  Options
}

func New(in io.Reader, out io.Writer, s *store.Store, gate *auth.Gate, opts Options) *Console {
	if opts.ExportDuration <= 0 {
		opts.ExportDuration = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Console{
		in:    bufio.NewReader(in),
		out:   out,
		store: s,
		gate:  gate,
		opts:  opts,
	}
}

type menuItem struct {
	label string
	admin bool
	run   func() error
}

func (c *Console) menu() []menuItem {
	return []menuItem{
		{label: "Add New Event", admin: true, run: c.addEvent},
		{label: "View All Events", run: c.viewEvents},
		{label: "Edit an Event", admin: true, run: c.editEvent},
		{label: "Delete an Event", admin: true, run: c.deleteEvent},
		{label: "Search Events", run: c.searchEvents},
		{label: "Sort Events", admin: true, run: c.sortEvents},
		{label: "Event Summary", run: c.eventSummary},
		{label: "Upcoming Events", run: c.upcomingEvents},
		{label: "Export to ICS", run: c.exportICS},
		{label: "Import from ICS", admin: true, run: c.importICS},
		{label: "Add Recurring Event", admin: true, run: c.addRecurring},
		{label: "Switch User", run: c.login},
	}
}

// Run logs in and serves the menu until the operator exits or input ends.
// The store gets its final save on the way out.
func (c *Console) Run() error {
	err := c.loop()
	closeErr := c.store.Close()
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return errors.Join(err, closeErr)
}

func (c *Console) loop() error {
	if err := c.login(); err != nil {
		return err
	}

	items := c.menu()
	exitChoice := len(items) + 1
	for {
		c.printMenu(items, exitChoice)
		line, err := c.prompt("Enter your choice: ")
		if err != nil {
			return err
		}
		choice, convErr := strconv.Atoi(line)
		if convErr != nil {
			c.printf("Invalid input! Please enter a number.\n")
			continue
		}
		if choice == exitChoice {
			c.printf("Exiting program. Goodbye!\n")
			return nil
		}
		if choice < 1 || choice > len(items) {
			c.printf("Invalid choice! Please try again.\n")
			continue
		}

		item := items[choice-1]
		if item.admin && !c.role.CanMutate() {
			c.printf("Access denied! Admin only feature.\n")
			continue
		}
		if err := item.run(); err != nil {
			return err
		}
	}
}

func (c *Console) printMenu(items []menuItem, exitChoice int) {
	c.printf("\n=== EventEase - Event Management System ===\n")
	for i, item := range items {
		label := item.label
		if item.admin {
			label += " (Admin Only)"
		}
		c.printf("%d. %s\n", i+1, label)
	}
	c.printf("%d. Exit\n", exitChoice)
}

func (c *Console) login() error {
	c.printf("=== EventEase Login ===\n")
	password, err := c.prompt("Enter admin password (or press Enter for guest access): ")
	if err != nil {
		return err
	}
	c.role = c.gate.Login(password)
	appLog.Info("login", "role", c.role.String())
	if c.role == auth.RoleAdmin {
		c.printf("Admin access granted!\n")
	} else {
		c.printf("Guest access granted.\n")
	}
	return nil
}

// prompt prints label and returns the next input line without its line
// ending. io.EOF is returned only when no input is left at all.
func (c *Console) prompt(label string) (string, error) {
	c.printf("%s", label)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Console) promptID(label string) (int, bool, error) {
	line, err := c.prompt(label)
	if err != nil {
		return 0, false, err
	}
	id, convErr := strconv.Atoi(strings.TrimSpace(line))
	if convErr != nil {
		c.printf("Invalid input! Please enter a number.\n")
		return 0, false, nil
	}
	return id, true, nil
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// report prints a store error. A failed save after a mutation is a warning:
// the change is kept in memory and written on the next successful save.
func (c *Console) report(err error) {
	var (
		verr *model.ValidationError
		nf   *model.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		c.printf("Invalid %s: %s.\n", verr.Field, verr.Reason)
	case errors.As(err, &nf):
		c.printf("Event with ID %d not found.\n", nf.ID)
	case errors.Is(err, model.ErrIO):
		c.printf("Warning: change kept in memory but not saved: %v\n", err)
	default:
		c.printf("Error: %v\n", err)
	}
}
