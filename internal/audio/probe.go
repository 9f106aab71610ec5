package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// Info describes a recorded file.
type Info struct {
	Path       string
	Bytes      int64
	SampleRate beep.SampleRate
	Channels   int
	Precision  int
	Samples    int
}

// Duration returns the decoded playback length.
func (i Info) Duration() time.Duration {
	if i.SampleRate <= 0 {
		return 0
	}
	return i.SampleRate.D(i.Samples)
}

// Probe reads the header of a recorded WAV file.
func Probe(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to open recording: %w", err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return Info{}, err
	}
	info := Info{Path: path, Bytes: st.Size()}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".wav" {
		return info, fmt.Errorf("unsupported audio format: %s", ext)
	}

	streamer, format, err := wav.Decode(f)
	if err != nil {
		return info, fmt.Errorf("failed to decode recording: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	info.SampleRate = format.SampleRate
	info.Channels = format.NumChannels
	info.Precision = format.Precision
	info.Samples = streamer.Len()
	return info, nil
}
