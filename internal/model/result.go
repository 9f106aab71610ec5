package model

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Status describes how a track recording ended.
type Status string

const (
	// StatusCompleted means the recorder ran for the full track duration.
	StatusCompleted Status = "completed"
	// StatusInterrupted means the session was cancelled mid-track.
	StatusInterrupted Status = "interrupted"
	// StatusFailed means the recorder exited on its own with an error.
	StatusFailed Status = "failed"
)

// Result is the journal record of a single recorded track.
type Result struct {
	SessionID string  `json:"session_id"`
	Index     int     `json:"index"`
	Title     string  `json:"title"`
	Path      string  `json:"path"`
	Planned   int     `json:"planned_seconds"`
	StartedAt int64   `json:"started_at"`
	EndedAt   int64   `json:"ended_at"`
	Status    Status  `json:"status"`
	Bytes     int64   `json:"bytes,omitempty"`
	Probed    float64 `json:"probed_seconds,omitempty"`
	Error     string  `json:"error,omitempty"`
}

var (
	ErrEmptySessionID = errors.New("session_id cannot be empty")
	ErrInvalidStatus  = errors.New("status must be completed, interrupted or failed")
)

// NewSessionID returns a time-ordered identifier for a recording session.
func NewSessionID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

// SessionTime extracts the creation time embedded in a session ID.
// Returns the zero time for IDs that are not valid ULIDs.
func SessionTime(sessionID string) time.Time {
	id, err := ulid.Parse(sessionID)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(id.Time())
}

// Validate checks that the result has all required fields.
func (r *Result) Validate() error {
	if r.SessionID == "" {
		return ErrEmptySessionID
	}
	if r.Title == "" {
		return ErrEmptyTitle
	}
	switch r.Status {
	case StatusCompleted, StatusInterrupted, StatusFailed:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// Elapsed returns how long the recorder actually ran.
func (r *Result) Elapsed() time.Duration {
	if r.EndedAt < r.StartedAt {
		return 0
	}
	return time.Duration(r.EndedAt-r.StartedAt) * time.Millisecond
}

// StartedTime returns the start timestamp as a time.Time.
func (r *Result) StartedTime() time.Time {
	return time.UnixMilli(r.StartedAt)
}
