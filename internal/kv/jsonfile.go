package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
)

// ErrCorrupt is returned by Get when the file does not parse. Set replaces a
// corrupt file with a fresh document.
var ErrCorrupt = errors.New("corrupt storage file")

// jsonDocument is the root JSON structure stored on disk.
type jsonDocument struct {
	Entries map[string]string `json:"entries"`
}

// JSONFile implements Storage using a single JSON file.
// Writes go to a temp file that is renamed over the original, and a sibling
// .lock file serializes access across processes.
type JSONFile struct {
	path string
	mu   sync.RWMutex
}

// NewJSONFile creates a JSON file storage at the given path. The file is
// created on the first Set.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

func (s *JSONFile) lockPath() string {
	return s.path + ".lock"
}

// withFileLock acquires a file lock, executes fn, then releases the lock.
func (s *JSONFile) withFileLock(lockType int, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := syscall.Flock(int(f.Fd()), lockType); err != nil {
		return fmt.Errorf("acquire file lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN) //nolint:errcheck

	return fn()
}

// Get returns the value for key.
func (s *JSONFile) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		value string
		found bool
	)
	err := s.withFileLock(syscall.LOCK_SH, func() error {
		doc, err := s.load()
		if err != nil {
			return err
		}
		value, found = doc.Entries[key]
		return nil
	})
	if err != nil {
		return "", err
	}
	if !found {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores value under key.
func (s *JSONFile) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(syscall.LOCK_EX, func() error {
		doc, err := s.load()
		if errors.Is(err, ErrCorrupt) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", s.path).Msg("overwriting corrupt storage file")
			doc, err = jsonDocument{Entries: make(map[string]string)}, nil
		}
		if err != nil {
			return err
		}
		doc.Entries[key] = value
		return s.save(doc)
	})
}

// Close is a no-op; the file is not held open between calls.
func (s *JSONFile) Close() error { return nil }

// load reads the document from disk.
// Returns an empty document if the file doesn't exist.
func (s *JSONFile) load() (jsonDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return jsonDocument{Entries: make(map[string]string)}, nil
		}
		return jsonDocument{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	if len(data) == 0 {
		return jsonDocument{Entries: make(map[string]string)}, nil
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return jsonDocument{}, fmt.Errorf("%w: parse %s: %v", ErrCorrupt, s.path, err)
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]string)
	}
	return doc, nil
}

// save writes the document to disk atomically.
func (s *JSONFile) save(doc jsonDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", s.path, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
