package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventease/internal/codec"
	"eventease/internal/model"
)

type memBackend struct {
	snap    model.Snapshot
	loads   int
	saves   int
	saveErr error
}

func (m *memBackend) Load() (model.Snapshot, error) {
	m.loads++
	if m.snap.NextID == 0 {
		return model.Snapshot{NextID: 1}, nil
	}
	return m.snap, nil
}

func (m *memBackend) Save(snap model.Snapshot) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.snap = snap
	return nil
}

func newStore(t *testing.T, opts ...Option) (*Store, *memBackend) {
	t.Helper()
	b := &memBackend{}
	s, err := Open(b, opts...)
	require.NoError(t, err)
	return s, b
}

func fields(title, date, clock string) model.Fields {
	return model.Fields{Title: title, Date: date, Time: clock, Location: "HQ"}
}

func ids(events []model.Event) []int {
	out := make([]int, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.ID)
	}
	return out
}

func TestOpenLoadsOnce(t *testing.T) {
	s, b := newStore(t)
	assert.Equal(t, 1, b.loads)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 1, s.NextID())
	assert.Empty(t, s.List())
	assert.NotNil(t, s.List())
}

func TestOpenRepairsCounterAndRejectsDuplicates(t *testing.T) {
	b := &memBackend{snap: model.Snapshot{NextID: 2, Events: []model.Event{
		{ID: 5, Title: "A", Date: "2024-05-01", Time: "09:00"},
	}}}
	s, err := Open(b)
	require.NoError(t, err)
	assert.Equal(t, 6, s.NextID())

	b = &memBackend{snap: model.Snapshot{NextID: 9, Events: []model.Event{
		{ID: 1, Title: "A", Date: "2024-05-01", Time: "09:00"},
		{ID: 1, Title: "B", Date: "2024-05-01", Time: "09:00"},
	}}}
	_, err = Open(b)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrIO)
	assert.EqualError(t, err, "open: duplicate id 1")
}

func TestOpenPropagatesLoadError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.txt")
	require.NoError(t, os.WriteFile(path, []byte("1|A|2024-05-01\n"), 0o600))

	_, err := Open(codec.NewFile(path))
	assert.ErrorIs(t, err, model.ErrIO)
}

func TestCreate(t *testing.T) {
	s, b := newStore(t)

	ev, err := s.Create(model.Fields{Title: "Board Meeting", Date: "2024-05-01", Time: "09:30", Location: "HQ", Description: ""})
	require.NoError(t, err)
	assert.Equal(t, 1, ev.ID)
	assert.Equal(t, 2, s.NextID())
	assert.Equal(t, 1, b.saves)
	assert.Equal(t, []model.Event{ev}, b.snap.Events)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name      string
		f         model.Fields
		wantField string
	}{
		{name: "empty title", f: fields("", "2024-05-01", "09:30"), wantField: "title"},
		{name: "bad date", f: fields("A", "2024-2-29", "09:30"), wantField: "date"},
		{name: "bad time", f: fields("A", "2024-02-29", "24:00"), wantField: "time"},
		{name: "overlong title", f: fields(strings.Repeat("t", 100), "2024-02-29", "10:00"), wantField: "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, b := newStore(t)
			_, err := s.Create(tt.f)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Equal(t, 0, s.Len())
			assert.Equal(t, 1, s.NextID())
			assert.Equal(t, 0, b.saves)
		})
	}
}

func TestCreateCapacity(t *testing.T) {
	s, b := newStore(t, WithCapacity(2))
	_, err := s.Create(fields("A", "2024-05-01", "09:00"))
	require.NoError(t, err)
	_, err = s.Create(fields("B", "2024-05-01", "10:00"))
	require.NoError(t, err)

	_, err = s.Create(fields("C", "2024-05-01", "11:00"))
	var cerr *model.CapacityError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, cerr.Limit)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 3, s.NextID())
	assert.Equal(t, 2, b.saves)
}

func TestDefaultCapacity(t *testing.T) {
	s, _ := newStore(t)
	assert.Equal(t, DefaultCapacity, s.Capacity())
}

func TestCreateAll(t *testing.T) {
	s, b := newStore(t, WithCapacity(3))

	created, err := s.CreateAll([]model.Fields{
		fields("A", "2024-05-01", "09:00"),
		fields("B", "2024-05-08", "09:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids(created))
	assert.Equal(t, 1, b.saves)

	_, err = s.CreateAll([]model.Fields{
		fields("C", "2024-05-15", "09:00"),
		fields("D", "2024-05-22", "09:00"),
	})
	assert.ErrorIs(t, err, model.ErrCapacity)
	assert.Equal(t, 2, s.Len())

	_, err = s.CreateAll([]model.Fields{fields("E", "2024-13-01", "09:00")})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, 3, s.NextID())
}

func TestGet(t *testing.T) {
	s, _ := newStore(t)
	ev, err := s.Create(fields("A", "2024-05-01", "09:00"))
	require.NoError(t, err)

	got, err := s.Get(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev, got)

	_, err = s.Get(42)
	var nf *model.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, 42, nf.ID)
}

func TestUpdatePartialSuccess(t *testing.T) {
	s, b := newStore(t)
	ev, err := s.Create(model.Fields{Title: "A", Date: "2024-05-01", Time: "09:00", Location: "HQ", Description: "d"})
	require.NoError(t, err)

	res, err := s.Update(ev.ID, model.Patch{Title: "A2", Date: "2023-02-29", Time: "10:15"})
	require.NoError(t, err)
	assert.Equal(t, []string{"date"}, res.Skipped)
	assert.Equal(t, model.Event{ID: ev.ID, Title: "A2", Date: "2024-05-01", Time: "10:15", Location: "HQ", Description: "d"}, res.Event)
	assert.Equal(t, 2, b.saves)

	got, err := s.Get(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Event, got)
}

func TestUpdateInvalidTimeKeepsOldValue(t *testing.T) {
	s, _ := newStore(t)
	ev, err := s.Create(fields("A", "2024-05-01", "09:00"))
	require.NoError(t, err)

	res, err := s.Update(ev.ID, model.Patch{Date: "2024-06-01", Time: "24:00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"time"}, res.Skipped)
	assert.Equal(t, "2024-06-01", res.Event.Date)
	assert.Equal(t, "09:00", res.Event.Time)
}

func TestUpdateEmptyFieldsKeepValues(t *testing.T) {
	s, _ := newStore(t)
	ev, err := s.Create(model.Fields{Title: "A", Date: "2024-05-01", Time: "09:00", Location: "HQ", Description: "d"})
	require.NoError(t, err)

	res, err := s.Update(ev.ID, model.Patch{})
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, ev, res.Event)
}

func TestUpdateRejectsBadText(t *testing.T) {
	s, b := newStore(t)
	ev, err := s.Create(fields("A", "2024-05-01", "09:00"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		patch     model.Patch
		wantField string
	}{
		{name: "overlong title", patch: model.Patch{Title: strings.Repeat("x", 100), Time: "10:00"}, wantField: "title"},
		{name: "blank title", patch: model.Patch{Title: "  "}, wantField: "title"},
		{name: "separator in location", patch: model.Patch{Location: "a|b"}, wantField: "location"},
		{name: "overlong description", patch: model.Patch{Description: strings.Repeat("x", 200)}, wantField: "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Update(ev.ID, tt.patch)
			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)

			got, err := s.Get(ev.ID)
			require.NoError(t, err)
			assert.Equal(t, ev, got)
			assert.Equal(t, 1, b.saves)
		})
	}
}

func TestUpdateNotFound(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Update(3, model.Patch{Title: "x"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteKeepsOrderAndCounter(t *testing.T) {
	s, _ := newStore(t)
	for _, title := range []string{"one", "two", "three"} {
		_, err := s.Create(fields(title, "2024-05-01", "09:00"))
		require.NoError(t, err)
	}

	ok, err := s.Delete(2, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int{1, 3}, ids(s.List()))

	ev, err := s.Create(fields("four", "2024-05-01", "09:00"))
	require.NoError(t, err)
	assert.Equal(t, 4, ev.ID)
	assert.Equal(t, []int{1, 3, 4}, ids(s.List()))
}

func TestDeleteAbsentIsNoop(t *testing.T) {
	s, b := newStore(t)
	_, err := s.Create(fields("one", "2024-05-01", "09:00"))
	require.NoError(t, err)
	before := s.Snapshot()

	ok, err := s.Delete(99, true)
	assert.False(t, ok)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, 1, b.saves)
}

func TestDeleteUnconfirmed(t *testing.T) {
	s, b := newStore(t)
	ev, err := s.Create(fields("one", "2024-05-01", "09:00"))
	require.NoError(t, err)

	ok, err := s.Delete(ev.ID, false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, b.saves)
}

func TestSaveFailureKeepsMemoryState(t *testing.T) {
	s, b := newStore(t)
	b.saveErr = &model.IOError{Op: "save", Path: "events.txt", Err: errors.New("disk full")}

	ev, err := s.Create(fields("A", "2024-05-01", "09:00"))
	assert.ErrorIs(t, err, model.ErrIO)
	assert.Equal(t, 1, ev.ID)
	assert.Equal(t, 1, s.Len())

	b.saveErr = nil
	require.NoError(t, s.Close())
	assert.Equal(t, []int{1}, ids(b.snap.Events))
	assert.Equal(t, 2, b.snap.NextID)
}

func TestRoundTripThroughFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.txt")
	s, err := Open(codec.NewFile(path))
	require.NoError(t, err)

	inputs := []model.Fields{
		{Title: "Board Meeting", Date: "2024-05-01", Time: "09:30", Location: "HQ", Description: "Quarterly"},
		{Title: "board review", Date: "2024-04-30", Time: "14:00", Location: "Room 2"},
		{Title: "Launch", Date: "2024-05-03", Time: "00:00", Description: "ship"},
	}
	for _, f := range inputs {
		_, err := s.Create(f)
		require.NoError(t, err)
	}
	_, err = s.Delete(1, true)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(codec.NewFile(path))
	require.NoError(t, err)
	assert.Equal(t, s.List(), reopened.List())
	assert.Equal(t, 4, reopened.NextID())
}

func TestLocation(t *testing.T) {
	s, _ := newStore(t, WithLocation(time.UTC))
	assert.Equal(t, time.UTC, s.Location())
}
