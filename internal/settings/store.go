package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Backend is the durable key/value store behind the resolver.
type Backend interface {
	// Load returns every string entry in the store. A missing store is empty.
	Load(ctx context.Context) (map[string]string, error)
	// Save sets one entry, keeping every other entry as found on disk.
	Save(ctx context.Context, key, value string) error
	// Delete removes one entry, keeping every other entry.
	Delete(ctx context.Context, key string) error
}

// JSONStore keeps settings in a JSON object file. Writes re-read the file
// under an exclusive lock on "<path>.lock" and replace it atomically, so
// concurrent processes never lose each other's keys.
type JSONStore struct {
	path string
}

var _ Backend = (*JSONStore)(nil)

// NewJSONStore returns a store backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// DefaultStorePath is "<user config dir>/partforge/settings.json".
func DefaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}
	return filepath.Join(dir, "partforge", "settings.json"), nil
}

// Path returns the store file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load implements Backend. Non-string entries are skipped.
func (s *JSONStore) Load(_ context.Context) (map[string]string, error) {
	raw, err := s.read()
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		var str string
		if json.Unmarshal(v, &str) == nil {
			values[k] = str
		}
	}
	return values, nil
}

// Save implements Backend.
func (s *JSONStore) Save(_ context.Context, key, value string) error {
	return s.update(func(raw map[string]json.RawMessage) error {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		raw[key] = encoded
		return nil
	})
}

// Delete implements Backend.
func (s *JSONStore) Delete(_ context.Context, key string) error {
	return s.update(func(raw map[string]json.RawMessage) error {
		delete(raw, key)
		return nil
	})
}

func (s *JSONStore) update(mutate func(map[string]json.RawMessage) error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	unlock, err := lockFile(s.path + ".lock")
	if err != nil {
		return fmt.Errorf("locking settings store: %w", err)
	}
	defer unlock()

	raw, err := s.read()
	if err != nil {
		return err
	}
	if err := mutate(raw); err != nil {
		return fmt.Errorf("updating settings store: %w", err)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings store: %w", err)
	}
	return writeAtomic(s.path, append(data, '\n'))
}

func (s *JSONStore) read() (map[string]json.RawMessage, error) {
	raw := make(map[string]json.RawMessage)
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return raw, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings store: %w", err)
	}
	if len(data) == 0 {
		return raw, nil
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing settings store %s: %w", s.path, err)
	}
	return raw, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing settings store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing settings store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing settings store: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing settings store: %w", err)
	}
	return nil
}

// SortedKeys returns the keys of values in lexical order.
func SortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
