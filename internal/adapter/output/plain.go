package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/sinkrec/internal/model"
	"github.com/jmylchreest/sinkrec/internal/store"
)

// PlainFormatter formats sessions as plain text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// templateData is passed to custom track templates.
type templateData struct {
	model.Result
	Session string
	Elapsed string
	Size    string
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) (*PlainFormatter, error) {
	f := &PlainFormatter{opts: opts}

	if opts.Template != "" {
		tmpl, err := template.New("plain").Parse(opts.Template)
		if err != nil {
			return nil, fmt.Errorf("invalid template: %w", err)
		}
		f.template = tmpl
	}

	return f, nil
}

// Format writes one header line per session followed by its tracks.
func (f *PlainFormatter) Format(w io.Writer, sessions []store.Session) error {
	for _, s := range sessions {
		if f.template == nil {
			if _, err := fmt.Fprintln(w, sessionHeader(s)); err != nil {
				return err
			}
		}
		for _, r := range s.Results {
			if err := f.formatResult(w, s.ID, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *PlainFormatter) formatResult(w io.Writer, sessionID string, r model.Result) error {
	data := templateData{
		Result:  r,
		Session: sessionID,
		Elapsed: model.FormatSeconds(int(r.Elapsed().Seconds())),
		Size:    humanize.Bytes(uint64(max(r.Bytes, 0))),
	}

	if f.template != nil {
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %4d  %-11s %8s  %9s  %s\n", r.Index, r.Status, data.Elapsed, data.Size, r.Path)
	if f.opts.ShowErrors && r.Status != model.StatusCompleted && r.Error != "" {
		sb.WriteString("        " + r.Error + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func sessionHeader(s store.Session) string {
	var size int64
	for _, r := range s.Results {
		size += max(r.Bytes, 0)
	}
	return fmt.Sprintf("%s (%s)  %d/%d tracks, %s",
		s.Started.Local().Format(time.DateTime),
		humanize.Time(s.Started),
		s.Completed(), len(s.Results),
		humanize.Bytes(uint64(size)))
}
