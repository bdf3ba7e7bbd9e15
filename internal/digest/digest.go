// Package digest reports the events coming up within a horizon, either once
// or on a cron schedule. It reads the data file and never writes it.
package digest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	appLog "eventease/internal/log"
	"eventease/internal/model"
	"eventease/internal/store"
	"eventease/internal/validate"
)

// Source yields the current persisted snapshot.
type Source interface {
	Load() (model.Snapshot, error)
}

// Digest is the set of events due in (From, To], chronologically.
type Digest struct {
	From   time.Time
	To     time.Time
	Events []model.Event
}

// Build selects the events of snap due after now and no later than
// now+horizon, sorted by date and time.
func Build(snap model.Snapshot, now time.Time, horizon time.Duration, loc *time.Location) Digest {
	if loc == nil {
		loc = time.Local
	}
	d := Digest{From: now, To: now.Add(horizon), Events: make([]model.Event, 0)}
	for _, ev := range snap.Events {
		at, err := validate.Instant(ev.Date, ev.Time, loc)
		if err != nil {
			continue
		}
		if at.After(d.From) && !at.After(d.To) {
			d.Events = append(d.Events, ev)
		}
	}
	// SortByDateTime is always a known key.
	_ = store.SortEvents(d.Events, model.SortByDateTime, loc)
	return d
}

// Render writes d as plain text.
func Render(w io.Writer, d Digest) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Upcoming events %s - %s ===\n",
		d.From.Format("2006-01-02 15:04"), d.To.Format("2006-01-02 15:04"))
	if len(d.Events) == 0 {
		b.WriteString("No upcoming events.\n")
	}
	for _, ev := range d.Events {
		fmt.Fprintf(&b, "%s %s  #%d %s", ev.Date, ev.Time, ev.ID, ev.Title)
		if ev.Location != "" {
			fmt.Fprintf(&b, " @ %s", ev.Location)
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Scheduler produces a digest on every tick of a cron schedule.
type Scheduler struct {
	spec    string
	source  Source
	horizon time.Duration
	loc     *time.Location
	out     io.Writer
	now     func() time.Time
}

// NewScheduler validates spec (standard 5-field cron) and returns a
// scheduler writing to out.
func NewScheduler(spec string, src Source, horizon time.Duration, loc *time.Location, out io.Writer) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("digest schedule %q: %w", spec, err)
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("digest horizon must be positive, got %s", horizon)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		spec:    spec,
		source:  src,
		horizon: horizon,
		loc:     loc,
		out:     out,
		now:     time.Now,
	}, nil
}

// RunOnce loads the source and writes one digest.
func (s *Scheduler) RunOnce() (Digest, error) {
	snap, err := s.source.Load()
	if err != nil {
		return Digest{}, fmt.Errorf("digest load: %w", err)
	}
	d := Build(snap, s.now().In(s.loc), s.horizon, s.loc)
	if err := Render(s.out, d); err != nil {
		return d, fmt.Errorf("digest write: %w", err)
	}
	appLog.Info("digest written", "count", len(d.Events), "from", d.From.Format(time.RFC3339), "to", d.To.Format(time.RFC3339))
	return d, nil
}

// Run fires RunOnce on the schedule until ctx is cancelled, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithLocation(s.loc))
	if _, err := c.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(); err != nil {
			appLog.Error("digest run failed", err)
		}
	}); err != nil {
		return fmt.Errorf("digest schedule %q: %w", s.spec, err)
	}

	appLog.Info("digest scheduler started", "cron", s.spec, "horizon", s.horizon.String())
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("digest scheduler stopped")
	return nil
}
