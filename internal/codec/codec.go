// Package codec persists a store snapshot as a line-oriented text file.
//
// Layout (UTF-8, '\n' line endings):
//
//	#eventease|1|<next_id>
//	<id>|<title>|<date>|<time>|<location>|<description>
//	...
//
// The header carries the format version and the id counter. Records follow
// in store order; an empty description is an empty last field. Files written
// by the original program have no header; for those next_id is max id + 1.
package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"eventease/internal/fileutil"
	appLog "eventease/internal/log"
	"eventease/internal/model"
	"eventease/internal/validate"
)

const (
	// Separator joins fields; validation keeps it out of stored text.
	Separator = "|"

	headerMagic   = "#eventease"
	formatVersion = 1
	recordFields  = 6
)

// File is a snapshot stored at Path.
type File struct {
	Path string
}

// NewFile returns a codec for path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Load reads the snapshot. A missing file is a first run and yields an empty
// snapshot with NextID 1. Any malformed line rejects the whole file.
func (f *File) Load() (model.Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("no existing events file; starting fresh", "path", f.Path)
			return model.Snapshot{NextID: 1}, nil
		}
		return model.Snapshot{}, &model.IOError{Op: "load", Path: f.Path, Err: err}
	}

	snap, err := Decode(data)
	if err != nil {
		var ioErr *model.IOError
		if errors.As(err, &ioErr) {
			ioErr.Path = f.Path
		}
		appLog.Error("events file rejected", err, "path", f.Path)
		return model.Snapshot{}, err
	}

	appLog.Info("events loaded", "path", f.Path, "count", len(snap.Events), "next_id", snap.NextID)
	return snap, nil
}

// Save replaces the file with snap. The new content is written to a temp
// file in the same directory and renamed over the target, so readers see
// either the old file or the new one.
func (f *File) Save(snap model.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return &model.IOError{Op: "save", Path: f.Path, Err: err}
	}
	if err := fileutil.WriteAtomic(f.Path, data, 0o600); err != nil {
		appLog.Error("events save failed", err, "path", f.Path)
		return &model.IOError{Op: "save", Path: f.Path, Err: err}
	}
	appLog.Debug("events saved", "path", f.Path, "count", len(snap.Events), "next_id", snap.NextID)
	return nil
}

// Encode renders snap in the file layout.
func Encode(snap model.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s%s%d%s%d\n", headerMagic, Separator, formatVersion, Separator, snap.NextID)
	for _, ev := range snap.Events {
		for _, s := range []string{ev.Title, ev.Date, ev.Time, ev.Location, ev.Description} {
			if strings.ContainsAny(s, Separator+"\r\n") {
				return nil, fmt.Errorf("event %d: field %q contains a separator or line break", ev.ID, s)
			}
		}
		buf.WriteString(strings.Join([]string{
			strconv.Itoa(ev.ID),
			ev.Title,
			ev.Date,
			ev.Time,
			ev.Location,
			ev.Description,
		}, Separator))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Decode parses the file layout. Errors are *model.IOError with the
// offending line number.
func Decode(data []byte) (model.Snapshot, error) {
	var snap model.Snapshot
	headerLine := 0
	seen := make(map[int]bool)
	maxID := 0

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	lineNo := 0
	content := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		// The header, if any, is the first non-blank line.
		first := !content
		content = true
		if first && strings.HasPrefix(line, headerMagic) {
			next, err := parseHeader(line)
			if err != nil {
				return model.Snapshot{}, &model.IOError{Op: "load", Line: lineNo, Err: err}
			}
			snap.NextID = next
			headerLine = lineNo
			continue
		}

		ev, err := parseRecord(line)
		if err != nil {
			return model.Snapshot{}, &model.IOError{Op: "load", Line: lineNo, Err: err}
		}
		if seen[ev.ID] {
			return model.Snapshot{}, &model.IOError{Op: "load", Line: lineNo, Err: fmt.Errorf("duplicate id %d", ev.ID)}
		}
		seen[ev.ID] = true
		maxID = max(maxID, ev.ID)
		snap.Events = append(snap.Events, ev)
	}
	if err := sc.Err(); err != nil {
		return model.Snapshot{}, &model.IOError{Op: "load", Line: lineNo + 1, Err: err}
	}

	if headerLine == 0 {
		snap.NextID = maxID + 1
	} else if snap.NextID <= maxID {
		return model.Snapshot{}, &model.IOError{Op: "load", Line: headerLine, Err: fmt.Errorf("next id %d not above max id %d", snap.NextID, maxID)}
	}
	return snap, nil
}

func parseHeader(line string) (int, error) {
	parts := strings.Split(line, Separator)
	if len(parts) != 3 || parts[0] != headerMagic {
		return 0, fmt.Errorf("malformed header %q", line)
	}
	version, err := strconv.Atoi(parts[1])
	if err != nil || version != formatVersion {
		return 0, fmt.Errorf("unsupported format version %q", parts[1])
	}
	next, err := strconv.Atoi(parts[2])
	if err != nil || next < 1 {
		return 0, fmt.Errorf("bad next id %q", parts[2])
	}
	return next, nil
}

func parseRecord(line string) (model.Event, error) {
	parts := strings.Split(line, Separator)
	if len(parts) != recordFields {
		return model.Event{}, fmt.Errorf("expected %d fields, got %d", recordFields, len(parts))
	}
	id, err := strconv.Atoi(parts[0])
	if err != nil || id < 1 {
		return model.Event{}, fmt.Errorf("bad id %q", parts[0])
	}
	ev := model.Event{
		ID:          id,
		Title:       parts[1],
		Date:        parts[2],
		Time:        parts[3],
		Location:    parts[4],
		Description: parts[5],
	}
	if err := validate.Fields(model.Fields{
		Title:       ev.Title,
		Date:        ev.Date,
		Time:        ev.Time,
		Location:    ev.Location,
		Description: ev.Description,
	}); err != nil {
		return model.Event{}, fmt.Errorf("event %d: %w", id, err)
	}
	return ev, nil
}
