// Package input provides input adapters for track lists.
package input

import (
	"context"
	"os"

	"github.com/jmylchreest/sinkrec/internal/model"
)

// StdinPath selects the stdin adapter.
const StdinPath = "-"

// TrackSource loads an ordered track list.
type TrackSource interface {
	// Name returns the adapter identifier (e.g., "file", "stdin").
	Name() string

	// Load reads and validates every track entry.
	Load(ctx context.Context) ([]model.Track, error)
}

// NewSource creates a TrackSource for the given path.
// "-" reads from standard input.
func NewSource(path string) (TrackSource, error) {
	switch path {
	case "":
		return nil, &AdapterError{
			Source:  "file",
			Message: "no track list given",
		}
	case StdinPath:
		return NewReaderSource("stdin", os.Stdin), nil
	default:
		return NewFileSource(path), nil
	}
}

// AdapterError represents an adapter-related error.
type AdapterError struct {
	Source  string
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
