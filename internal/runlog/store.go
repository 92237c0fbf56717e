// Package runlog persists the delivery history of reminder runs as
// JSON Lines, one entry per author per run.
package runlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prnudge/prnudge/internal/log"
	"github.com/prnudge/prnudge/internal/notify"
)

// maxRecords is the maximum number of entries retained in the store.
const maxRecords = 1000

// Entry records one delivery attempt.
type Entry struct {
	RunAt   time.Time `json:"runAt"`
	Author  string    `json:"author"`
	SlackID string    `json:"slackId,omitempty"`
	PRs     []string  `json:"prs"`
	Outcome string    `json:"outcome"`
	DryRun  bool      `json:"dryRun,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Store manages delivery history as JSON Lines.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store at ~/.cache/prnudge/sendlog.jsonl.
func NewStore() (*Store, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(cacheDir, "prnudge")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Store{
		path: filepath.Join(dir, "sendlog.jsonl"),
	}, nil
}

// NewStoreWithPath creates a store at the given path (for testing).
func NewStoreWithPath(path string) *Store {
	return &Store{path: path}
}

// Record appends one entry per delivery and prunes to the last
// maxRecords entries.
func (s *Store) Record(runAt time.Time, dryRun bool, deliveries []notify.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		log.Debug("could not read send log, starting fresh", "error", err)
		records = nil
	}

	for _, d := range deliveries {
		records = append(records, toEntry(runAt, dryRun, d))
	}

	// Prune to last maxRecords
	if len(records) > maxRecords {
		records = records[len(records)-maxRecords:]
	}

	return s.writeAll(records)
}

// Recent returns the last n entries (or fewer if not enough exist).
func (s *Store) Recent(n int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil
	}

	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

func toEntry(runAt time.Time, dryRun bool, d notify.Delivery) Entry {
	e := Entry{
		RunAt:   runAt,
		Author:  d.Author,
		SlackID: d.SlackID,
		Outcome: string(d.Outcome),
		DryRun:  dryRun,
	}
	for _, key := range d.PRs {
		e.PRs = append(e.PRs, key.String())
	}
	if d.Err != nil {
		e.Error = d.Err.Error()
	}
	return e
}

// readAll reads all entries from disk.
func (s *Store) readAll() ([]Entry, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue // skip malformed lines
		}
		records = append(records, e)
	}
	return records, scanner.Err()
}

// writeAll writes all entries to disk atomically.
func (s *Store) writeAll(records []Entry) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, s.path)
}
