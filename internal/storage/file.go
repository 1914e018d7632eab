package storage

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/granme/caprisystem/pkg/types"
)

// FileName is the JSONL file created inside the data directory.
const FileName = "session.jsonl"

// entryJSON is one line of the JSONL file.
type entryJSON struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FileStore keeps values in a JSONL file, rewritten atomically on every
// change. Values are cached in memory after Attach.
type FileStore struct {
	mu       sync.RWMutex
	attached bool
	path     string
	values   map[string]string
}

// NewFileStore creates a detached store; call Attach to load it.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Attach creates DataDir if needed and loads the file. A missing file is an
// empty store. Malformed lines are skipped.
func (f *FileStore) Attach(config types.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.attached {
		return ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(config.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(config.DataDir, FileName)
	values, err := readEntries(path)
	if err != nil {
		return err
	}

	f.path = path
	f.values = values
	f.attached = true
	return nil
}

func (f *FileStore) Get(key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.attached {
		return "", false, ErrDetached
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *FileStore) Set(key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.attached {
		return ErrDetached
	}

	prev, had := f.values[key]
	f.values[key] = value
	if err := f.persist(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *FileStore) Delete(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.attached {
		return ErrDetached
	}

	removed := make(map[string]string)
	for _, k := range keys {
		if v, ok := f.values[k]; ok {
			removed[k] = v
			delete(f.values, k)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := f.persist(); err != nil {
		for k, v := range removed {
			f.values[k] = v
		}
		return err
	}
	return nil
}

// Detach drops the in-memory cache. Idempotent.
func (f *FileStore) Detach() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attached = false
	f.values = nil
	return nil
}

// persist writes all entries sorted by key. Caller holds f.mu.
func (f *FileStore) persist() error {
	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([][]byte, 0, len(keys))
	for _, k := range keys {
		line, err := json.Marshal(entryJSON{Key: k, Value: f.values[k]})
		if err != nil {
			return fmt.Errorf("encoding entry %q: %w", k, err)
		}
		records = append(records, line)
	}
	return writeJSONL(f.path, records)
}

// readEntries reads the JSONL file into a map. Later lines win.
func readEntries(path string) (map[string]string, error) {
	values := make(map[string]string)

	fh, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		var e entryJSON
		if err := json.Unmarshal(line, &e); err != nil || e.Key == "" {
			continue
		}
		values[e.Key] = e.Value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return values, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records [][]byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
