package prefstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/CoderFake/playerd/internal/domain/prefs"
)

// FileStore persists the preference record as a single JSON document on disk.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the stored record. A missing or malformed file is not an error;
// it yields (nil, nil) so the session starts from defaults.
func (s *FileStore) Load(_ context.Context) (*prefs.Preferences, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to read preferences file")
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		zlog.Warn().Msgf("prefstore: malformed preferences file, using defaults: path=%s err=%v", s.path, err)
		return nil, nil
	}

	p := decodeRecord(raw)
	if p == nil {
		zlog.Warn().Msgf("prefstore: unreadable preferences record, using defaults: path=%s", s.path)
		return nil, nil
	}
	return p, nil
}

// Save writes the record atomically (temp file + rename).
func (s *FileStore) Save(_ context.Context, p prefs.Preferences) error {
	data, err := json.Marshal(encodeRecord(p))
	if err != nil {
		return errors.Wrap(err, "failed to marshal preferences")
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "failed to create preferences directory")
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.Wrap(err, "failed to write preferences file")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "failed to replace preferences file")
	}
	return nil
}
