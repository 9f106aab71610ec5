// Package model defines the core data structures for sinkrec.
package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrMalformedTimecode = errors.New("malformed timecode")
	ErrMalformedTrack    = errors.New("malformed track entry")
	ErrEmptyTitle        = errors.New("track title cannot be empty")
	ErrZeroDuration      = errors.New("track duration must be greater than 0")
)

// MaxSeconds is the longest track length that fits in a time.Duration.
const MaxSeconds = int(math.MaxInt64 / int64(time.Second))

// DefaultExtension is the file extension written by pw-record.
const DefaultExtension = "wav"

// Track is a single entry of the track list.
type Track struct {
	Title    string `json:"title"`
	Timecode string `json:"timecode"`
	Seconds  int    `json:"seconds"`
}

// NewTrack builds a Track from a title and a human-readable timecode.
func NewTrack(title, timecode string) (Track, error) {
	t := Track{Title: strings.TrimSpace(title), Timecode: strings.TrimSpace(timecode)}
	if t.Title == "" {
		return Track{}, ErrEmptyTitle
	}

	secs, err := ParseTimecode(t.Timecode)
	if err != nil {
		return Track{}, fmt.Errorf("track %q: %w", t.Title, err)
	}
	if secs <= 0 {
		return Track{}, fmt.Errorf("track %q: %w", t.Title, ErrZeroDuration)
	}
	t.Seconds = secs
	return t, nil
}

// Duration returns the track length as a time.Duration.
func (t Track) Duration() time.Duration {
	return time.Duration(t.Seconds) * time.Second
}

// FileName returns the output file name for the track at position index.
// Path separators in the title are replaced so the file stays in the output directory.
func (t Track) FileName(index int, ext string) string {
	if ext == "" {
		ext = DefaultExtension
	}
	title := strings.NewReplacer("/", "_", "\\", "_").Replace(t.Title)
	return fmt.Sprintf("%04d_%s.%s", index, title, strings.TrimPrefix(ext, "."))
}

// ParseTimecode converts "SS", "MM:SS" or "HH:MM:SS" into total seconds.
func ParseTimecode(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q has %d components", ErrMalformedTimecode, s, len(parts))
	}

	total := 0
	for _, p := range parts {
		if p == "" || strings.TrimLeft(p, "0123456789") != "" {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTimecode, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrMalformedTimecode, s, err)
		}
		if n > MaxSeconds || total > (MaxSeconds-n)/60 {
			return 0, fmt.Errorf("%w: %q is too long", ErrMalformedTimecode, s)
		}
		total = total*60 + n
	}
	return total, nil
}

// FormatSeconds renders seconds back into the shortest timecode form.
func FormatSeconds(secs int) string {
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	switch {
	case h > 0:
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	case m > 0:
		return fmt.Sprintf("%d:%02d", m, s)
	default:
		return strconv.Itoa(s)
	}
}

// TotalDuration sums the durations of all tracks.
func TotalDuration(tracks []Track) time.Duration {
	var d time.Duration
	for _, t := range tracks {
		d += t.Duration()
	}
	return d
}
