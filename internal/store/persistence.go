// Package store persists the session journal.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/jmylchreest/sinkrec/internal/model"
)

// SchemaVersion is the current journal schema version.
const SchemaVersion = 1

// schemaHeader is the first line of the JSONL file.
type schemaHeader struct {
	SinkrecSchemaVersion int   `json:"sinkrec_schema_version"`
	CreatedAt            int64 `json:"created_at"`
}

// ErrJournalClosed is returned when operations are attempted on a closed journal.
var ErrJournalClosed = errors.New("journal is closed")

// Journal appends track results to a JSONL file.
type Journal struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// OpenJournal opens or creates the journal at path.
func OpenJournal(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	j := &Journal{path: path, file: file}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	if info.Size() == 0 {
		if err := j.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
	}

	return j, nil
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) writeHeader() error {
	header := schemaHeader{
		SinkrecSchemaVersion: SchemaVersion,
		CreatedAt:            time.Now().Unix(),
	}

	data, err := json.Marshal(header)
	if err != nil {
		return err
	}

	_, err = j.file.Write(append(data, '\n'))
	return err
}

// Append validates and writes a result.
func (j *Journal) Append(r model.Result) error {
	if err := r.Validate(); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed || j.file == nil {
		return ErrJournalClosed
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	if _, err := j.file.Write(append(data, '\n')); err != nil {
		return err
	}

	return j.file.Sync()
}

// Load reads all results in file order. Malformed lines are skipped.
func (j *Journal) Load() ([]model.Result, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed || j.file == nil {
		return nil, ErrJournalClosed
	}

	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", j.path, err)
	}

	var results []model.Result
	scanner := bufio.NewScanner(j.file)
	const maxLineSize = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err == nil && header.SinkrecSchemaVersion > 0 {
				if header.SinkrecSchemaVersion > SchemaVersion {
					return nil, fmt.Errorf("unsupported schema version %d (max: %d)",
						header.SinkrecSchemaVersion, SchemaVersion)
				}
				continue
			}
		}

		var r model.Result
		if err := json.Unmarshal(line, &r); err != nil {
			continue
		}
		if r.SessionID != "" {
			results = append(results, r)
		}
	}

	if err := scanner.Err(); err != nil {
		return results, fmt.Errorf("error reading file: %w", err)
	}

	if _, err := j.file.Seek(0, io.SeekEnd); err != nil {
		return results, err
	}

	return results, nil
}

// Clear removes all results, keeping a .bak copy of the old file until the
// new one is written.
func (j *Journal) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrJournalClosed
	}

	if j.file != nil {
		if err := j.file.Close(); err != nil {
			return err
		}
		j.file = nil
	}

	backupPath := j.path + ".bak"
	if err := os.Rename(j.path, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	file, err := os.OpenFile(j.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND, 0600)
	if err != nil {
		os.Rename(backupPath, j.path)
		return err
	}
	j.file = file

	if err := j.writeHeader(); err != nil {
		return err
	}
	if err := j.file.Sync(); err != nil {
		return err
	}

	os.Remove(backupPath)
	return nil
}

// Close releases the file handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	if j.file != nil {
		err := j.file.Close()
		j.file = nil
		return err
	}
	return nil
}

// Session groups the results of one recording run.
type Session struct {
	ID      string
	Started time.Time
	Results []model.Result
}

// Completed returns how many tracks finished normally.
func (s Session) Completed() int {
	n := 0
	for _, r := range s.Results {
		if r.Status == model.StatusCompleted {
			n++
		}
	}
	return n
}

// GroupSessions groups results by session, newest session first.
// Results keep their journal order within a session.
func GroupSessions(results []model.Result) []Session {
	index := make(map[string]int)
	var sessions []Session

	for _, r := range results {
		i, ok := index[r.SessionID]
		if !ok {
			started := model.SessionTime(r.SessionID)
			if started.IsZero() {
				started = r.StartedTime()
			}
			sessions = append(sessions, Session{ID: r.SessionID, Started: started})
			i = len(sessions) - 1
			index[r.SessionID] = i
		}
		sessions[i].Results = append(sessions[i].Results, r)
	}

	sort.SliceStable(sessions, func(a, b int) bool {
		return sessions[a].Started.After(sessions[b].Started)
	})
	return sessions
}
