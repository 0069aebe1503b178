package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/kalambet/mocktalk/internal/interview"
)

// JSONFile keeps the history as one indented JSON array. Every append
// rewrites the whole file through a temp file and a rename. Writers in the
// same process are serialised; separate processes are not coordinated.
type JSONFile struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewJSONFile returns a store backed by path. The file is created on first append.
func NewJSONFile(path string, logger *zap.Logger) *JSONFile {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONFile{path: path, logger: logger}
}

// Path returns the file the store writes to.
func (s *JSONFile) Path() string { return s.path }

// Load never fails: a missing, empty or unreadable file, or one that does
// not hold a list, reads as no history. List entries that do not decode as
// a record are skipped.
func (s *JSONFile) Load(_ context.Context) ([]interview.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := s.readLocked()
	records := make([]interview.Record, 0, len(raw))
	for i, elem := range raw {
		if bytes.Equal(bytes.TrimSpace(elem), []byte("null")) {
			continue
		}
		var rec interview.Record
		if err := json.Unmarshal(elem, &rec); err != nil {
			s.logger.Warn("skipping malformed history entry",
				zap.String("path", s.path), zap.Int("index", i), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// readLocked returns the elements of the stored list undecoded, so entries
// this version cannot read survive a rewrite.
func (s *JSONFile) readLocked() []json.RawMessage {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		s.logger.Warn("reading history file", zap.String("path", s.path), zap.Error(err))
		return nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("ignoring malformed history file", zap.String("path", s.path), zap.Error(err))
		return nil
	}
	return raw
}

func (s *JSONFile) Append(_ context.Context, rec interview.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Turns == nil {
		rec.Turns = []interview.Turn{}
	}
	var one bytes.Buffer
	enc := json.NewEncoder(&one)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	entries := append(s.readLocked(), json.RawMessage(bytes.TrimSpace(one.Bytes())))

	var buf bytes.Buffer
	enc = json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing history: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

func (s *JSONFile) Get(ctx context.Context, n int) (interview.Record, error) {
	records, _ := s.Load(ctx)
	return pick(records, n)
}

func (s *JSONFile) Close() error { return nil }
