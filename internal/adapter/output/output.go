// Package output provides output formatters for recorded sessions.
package output

import (
	"io"

	"github.com/jmylchreest/sinkrec/internal/store"
)

// Formatter formats sessions for output.
type Formatter interface {
	// Format writes formatted sessions to the writer.
	Format(w io.Writer, sessions []store.Session) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatJSON  FormatType = "json"
	FormatPlain FormatType = "plain"
)

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts), nil
	case FormatPlain, "":
		return NewPlainFormatter(opts)
	default:
		return nil, &UnknownFormatError{Format: string(format)}
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template   string // Custom per-track template for plain format
	ShowErrors bool   // Print the error of failed and interrupted tracks
}

// DefaultFormatterOptions returns the options used by the history command.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowErrors: true,
	}
}

// UnknownFormatError is returned for an unsupported format name.
type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	return "unknown output format: " + e.Format
}
