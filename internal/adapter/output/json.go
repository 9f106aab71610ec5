package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/sinkrec/internal/model"
	"github.com/jmylchreest/sinkrec/internal/store"
)

// JSONFormatter formats sessions as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

type jsonSession struct {
	ID        string         `json:"id"`
	Started   int64          `json:"started"`
	Completed int            `json:"completed"`
	Tracks    []model.Result `json:"tracks"`
}

// Format writes sessions as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, sessions []store.Session) error {
	out := make([]jsonSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, jsonSession{
			ID:        s.ID,
			Started:   s.Started.Unix(),
			Completed: s.Completed(),
			Tracks:    s.Results,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
