package codec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventease/internal/model"
)

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		NextID: 5,
		Events: []model.Event{
			{ID: 1, Title: "Board Meeting", Date: "2024-05-01", Time: "09:30", Location: "HQ", Description: "Quarterly review"},
			{ID: 3, Title: "board review", Date: "2024-04-30", Time: "14:00", Location: "Room 2", Description: ""},
			{ID: 4, Title: "Launch", Date: "2024-05-03", Time: "00:00", Location: "", Description: "ship it"},
		},
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.txt")
	f := NewFile(path)

	want := sampleSnapshot()
	require.NoError(t, f.Save(want))

	got, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestEncodeLayout(t *testing.T) {
	data, err := Encode(sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t,
		"#eventease|1|5\n"+
			"1|Board Meeting|2024-05-01|09:30|HQ|Quarterly review\n"+
			"3|board review|2024-04-30|14:00|Room 2|\n"+
			"4|Launch|2024-05-03|00:00||ship it\n",
		string(data))
}

func TestEncodeRejectsSeparator(t *testing.T) {
	_, err := Encode(model.Snapshot{NextID: 2, Events: []model.Event{
		{ID: 1, Title: "a|b", Date: "2024-05-01", Time: "09:30"},
	}})
	require.Error(t, err)
}

func TestLoadMissingFileIsFirstRun(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "absent.txt"))
	snap, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.NextID)
	assert.Empty(t, snap.Events)
}

func TestSaveEmptySnapshotRoundTrips(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "events.txt"))
	require.NoError(t, f.Save(model.Snapshot{NextID: 7}))

	snap, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, 7, snap.NextID)
	assert.Empty(t, snap.Events)
}

func TestDecodeLegacyFile(t *testing.T) {
	data := "1|Board Meeting|2024-05-01|09:30|HQ|Quarterly review\n" +
		"4|Launch|2024-05-03|10:00|Dock|\n"

	snap, err := Decode([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 5, snap.NextID)
	require.Len(t, snap.Events, 2)
	assert.Equal(t, "", snap.Events[1].Description)
}

func TestDecodeHeaderAfterBlankLines(t *testing.T) {
	data := "\n\r\n#eventease|1|3\n1|A|2024-05-01|09:30|HQ|\n"

	snap, err := Decode([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, 3, snap.NextID)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, "A", snap.Events[0].Title)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantLine int
	}{
		{name: "truncated record", data: "#eventease|1|3\n1|A|2024-05-01|09:30|HQ|x\n2|B|2024-05-02\n", wantLine: 3},
		{name: "extra field", data: "#eventease|1|3\n1|A|2024-05-01|09:30|HQ|x|y\n", wantLine: 2},
		{name: "bad id", data: "#eventease|1|3\nx|A|2024-05-01|09:30|HQ|\n", wantLine: 2},
		{name: "zero id", data: "#eventease|1|3\n0|A|2024-05-01|09:30|HQ|\n", wantLine: 2},
		{name: "duplicate id", data: "#eventease|1|3\n1|A|2024-05-01|09:30|HQ|\n1|B|2024-05-01|09:30|HQ|\n", wantLine: 3},
		{name: "invalid date", data: "#eventease|1|3\n1|A|2023-02-29|09:30|HQ|\n", wantLine: 2},
		{name: "invalid time", data: "#eventease|1|3\n1|A|2024-02-29|24:00|HQ|\n", wantLine: 2},
		{name: "empty title", data: "#eventease|1|3\n1||2024-02-29|10:00|HQ|\n", wantLine: 2},
		{name: "unknown version", data: "#eventease|9|3\n", wantLine: 1},
		{name: "counter below max id", data: "#eventease|1|2\n5|A|2024-05-01|09:30|HQ|\n", wantLine: 1},
		{name: "counter below max id after blank line", data: "\n#eventease|1|2\n5|A|2024-05-01|09:30|HQ|\n", wantLine: 2},
		{name: "header after a record", data: "1|A|2024-05-01|09:30|HQ|\n#eventease|1|3\n", wantLine: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			var ioErr *model.IOError
			require.ErrorAs(t, err, &ioErr)
			assert.ErrorIs(t, err, model.ErrIO)
			assert.Equal(t, tt.wantLine, ioErr.Line)
		})
	}
}

func TestLoadMalformedFileNamesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.txt")
	require.NoError(t, os.WriteFile(path, []byte("#eventease|1|2\n1|A|2024-05-01\n"), 0o600))

	_, err := NewFile(path).Load()
	var ioErr *model.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, path, ioErr.Path)
	assert.Equal(t, 2, ioErr.Line)
}

func TestSaveFailureIsIOError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	// The parent "directory" is a regular file, so nothing can be created under it.
	err := NewFile(filepath.Join(blocker, "events.txt")).Save(model.Snapshot{NextID: 1})
	assert.ErrorIs(t, err, model.ErrIO)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(filepath.Join(dir, "events.txt"))
	require.NoError(t, f.Save(sampleSnapshot()))
	require.NoError(t, f.Save(model.Snapshot{NextID: 9}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "events.txt", entries[0].Name())
}
