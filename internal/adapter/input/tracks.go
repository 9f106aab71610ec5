package input

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/sinkrec/internal/model"
)

// ErrEmptyTrackList is returned when the document holds no entries.
var ErrEmptyTrackList = errors.New("track list is empty")

// FileSource reads a YAML track list from disk.
type FileSource struct {
	path string
}

// NewFileSource creates a new FileSource.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the adapter identifier.
func (s *FileSource) Name() string {
	return "file"
}

// Load reads and parses the track list file.
func (s *FileSource) Load(ctx context.Context) ([]model.Track, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &AdapterError{
			Source:  "file",
			Message: "failed to read track list",
			Err:     err,
		}
	}
	return ParseTracks(data)
}

// ReaderSource reads a YAML track list from an io.Reader.
type ReaderSource struct {
	name   string
	reader io.Reader
}

// NewReaderSource creates a new ReaderSource.
func NewReaderSource(name string, r io.Reader) *ReaderSource {
	return &ReaderSource{name: name, reader: r}
}

// Name returns the adapter identifier.
func (s *ReaderSource) Name() string {
	return s.name
}

// Load reads and parses the whole stream.
func (s *ReaderSource) Load(ctx context.Context) ([]model.Track, error) {
	data, err := io.ReadAll(s.reader)
	if err != nil {
		return nil, &AdapterError{
			Source:  s.name,
			Message: "failed to read track list",
			Err:     err,
		}
	}
	return ParseTracks(data)
}

// trackMapping is the mapping form of a track entry.
type trackMapping struct {
	Title    string `yaml:"title"`
	Duration string `yaml:"duration"`
}

// ParseTracks parses a YAML sequence of track entries.
// Each entry is either a two-item sequence [title, duration] or a mapping
// with title and duration keys.
func ParseTracks(data []byte) ([]model.Track, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid track list: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, ErrEmptyTrackList
	}

	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: top level must be a list (line %d)", model.ErrMalformedTrack, root.Line)
	}
	if len(root.Content) == 0 {
		return nil, ErrEmptyTrackList
	}

	tracks := make([]model.Track, 0, len(root.Content))
	for i, item := range root.Content {
		title, timecode, err := decodeEntry(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d (line %d): %w", i+1, item.Line, err)
		}
		t, err := model.NewTrack(title, timecode)
		if err != nil {
			return nil, fmt.Errorf("entry %d (line %d): %w", i+1, item.Line, err)
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func decodeEntry(n *yaml.Node) (title, timecode string, err error) {
	switch n.Kind {
	case yaml.SequenceNode:
		if len(n.Content) != 2 {
			return "", "", fmt.Errorf("%w: expected [title, duration], got %d items", model.ErrMalformedTrack, len(n.Content))
		}
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return "", "", fmt.Errorf("%w: title and duration must be scalars", model.ErrMalformedTrack)
			}
		}
		return n.Content[0].Value, n.Content[1].Value, nil

	case yaml.MappingNode:
		var m trackMapping
		if err := n.Decode(&m); err != nil {
			return "", "", fmt.Errorf("%w: %v", model.ErrMalformedTrack, err)
		}
		if m.Title == "" || m.Duration == "" {
			return "", "", fmt.Errorf("%w: title and duration are required", model.ErrMalformedTrack)
		}
		return m.Title, m.Duration, nil

	default:
		return "", "", fmt.Errorf("%w: expected a list or mapping", model.ErrMalformedTrack)
	}
}
