package input

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/sinkrec/internal/model"
)

const sampleTracks = `---
-
  - 'england_englishness'
  - '53:44'
-
  - 'op_barbarossa'
  - '54:58'
-
  - 'how_pms_fall'
  - '1:05:39'
- [short, 44]
...
`

func TestParseTracks(t *testing.T) {
	tracks, err := ParseTracks([]byte(sampleTracks))
	require.NoError(t, err)
	require.Len(t, tracks, 4)

	assert.Equal(t, "england_englishness", tracks[0].Title)
	assert.Equal(t, 3224, tracks[0].Seconds)
	assert.Equal(t, "op_barbarossa", tracks[1].Title)
	assert.Equal(t, 3298, tracks[1].Seconds)
	assert.Equal(t, "how_pms_fall", tracks[2].Title)
	assert.Equal(t, 3939, tracks[2].Seconds)
	assert.Equal(t, "short", tracks[3].Title)
	assert.Equal(t, 44, tracks[3].Seconds)
}

func TestParseTracks_MappingForm(t *testing.T) {
	data := `
- title: watergate_1
  duration: "45:17"
- title: watergate_2
  duration: "48:02"
`
	tracks, err := ParseTracks([]byte(data))
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "watergate_2", tracks[1].Title)
	assert.Equal(t, 2882, tracks[1].Seconds)
}

func TestParseTracks_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"three items", "- [a, '1:00', extra]\n", model.ErrMalformedTrack},
		{"one item", "- [a]\n", model.ErrMalformedTrack},
		{"scalar entry", "- just-a-title\n", model.ErrMalformedTrack},
		{"nested list", "- [[a], '1:00']\n", model.ErrMalformedTrack},
		{"mapping missing duration", "- title: a\n", model.ErrMalformedTrack},
		{"top level mapping", "title: a\nduration: 1\n", model.ErrMalformedTrack},
		{"bad timecode", "- [a, '1:2:3:4']\n", model.ErrMalformedTimecode},
		{"non numeric", "- [a, 'soon']\n", model.ErrMalformedTimecode},
		{"zero duration", "- [a, '0']\n", model.ErrZeroDuration},
		{"empty title", "- ['', '1:00']\n", model.ErrEmptyTitle},
		{"empty document", "", ErrEmptyTrackList},
		{"empty list", "[]\n", ErrEmptyTrackList},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTracks([]byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseTracks_ReportsEntry(t *testing.T) {
	data := "- [a, '1:00']\n- [b, 'x']\n"
	_, err := ParseTracks([]byte(data))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 2")
}

func TestParseTracks_InvalidYAML(t *testing.T) {
	_, err := ParseTracks([]byte("- [unterminated\n"))
	assert.Error(t, err)
}

func TestFileSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTracks), 0644))

	src, err := NewSource(path)
	require.NoError(t, err)
	assert.Equal(t, "file", src.Name())

	tracks, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, tracks, 4)
}

func TestFileSource_Missing(t *testing.T) {
	src := NewFileSource("/nonexistent/tracks.yaml")
	_, err := src.Load(context.Background())
	require.Error(t, err)

	var adapterErr *AdapterError
	assert.ErrorAs(t, err, &adapterErr)
	assert.Equal(t, "file", adapterErr.Source)
}

func TestReaderSource_Load(t *testing.T) {
	src := NewReaderSource("stdin", strings.NewReader(sampleTracks))
	assert.Equal(t, "stdin", src.Name())

	tracks, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, tracks, 4)
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(StdinPath)
	require.NoError(t, err)
	assert.Equal(t, "stdin", src.Name())

	_, err = NewSource("")
	assert.Error(t, err)
}
