package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"eco-menu/internal/menu"
)

// maxLocalEntries caps the local log: append-then-trim, oldest evicted first.
const maxLocalEntries = 10

const localLogFilename = "history.json"

// LocalEntry is one slot of the local log.
type LocalEntry struct {
	Date            string        `json:"date"`
	Plan            menu.MenuPlan `json:"plan"`
	UsedIngredients []string      `json:"usedIngredients"`
	SavedAt         time.Time     `json:"savedAt"`
}

// LocalLog is a bounded FIFO of adopted plans stored in a single JSON file.
// It is the anonymous-scope counterpart of the remote table and doubles as
// a write-through mirror for authenticated saves.
type LocalLog struct {
	path string
	mu   sync.Mutex
}

// NewLocalLog creates a LocalLog under basePath, creating the directory if
// needed.
func NewLocalLog(basePath string) (*LocalLog, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local history directory %s: %w", basePath, err)
	}
	return &LocalLog{path: filepath.Join(basePath, localLogFilename)}, nil
}

// Append adds an entry to the log, evicting the oldest entries beyond the cap.
func (l *LocalLog) Append(entry LocalEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		return err
	}

	entries = append(entries, entry)
	if len(entries) > maxLocalEntries {
		entries = entries[len(entries)-maxLocalEntries:]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal local history: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write local history file: %w", err)
	}
	return nil
}

// Recent returns the last limit entries, most recent first.
func (l *LocalLog) Recent(limit int) ([]LocalEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.read()
	if err != nil {
		return nil, err
	}

	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	// Stored oldest-first; reverse for most-recent-first.
	out := make([]LocalEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		out = append(out, entries[i])
	}
	return out, nil
}

func (l *LocalLog) read() ([]LocalEntry, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read local history file: %w", err)
	}

	var entries []LocalEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal local history: %w", err)
	}
	return entries, nil
}
