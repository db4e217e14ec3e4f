package filesystem

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
	"github.com/ternarybob/adimport/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// markerSuffix identifies cancellation marker files inside the signal directory
const markerSuffix = ".cancel"

// CancelStore keeps one marker file per cancelled task in a shared directory.
// Any process that can see the directory observes the same signals.
type CancelStore struct {
	fs     afero.Fs
	dir    string
	logger arbor.ILogger
}

// NewCancelStore creates a marker-file cancellation store rooted at dir on the OS filesystem
func NewCancelStore(dir string, logger arbor.ILogger) (interfaces.CancellationStore, error) {
	return NewCancelStoreFs(afero.NewOsFs(), dir, logger)
}

// NewCancelStoreFs creates a marker-file cancellation store on the given filesystem
func NewCancelStoreFs(fs afero.Fs, dir string, logger arbor.ILogger) (interfaces.CancellationStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("signal directory is required")
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create signal directory %s: %w", dir, err)
	}

	logger.Debug().Str("dir", dir).Msg("File cancellation store initialized")

	return &CancelStore{
		fs:     fs,
		dir:    dir,
		logger: logger,
	}, nil
}

// markerPath encodes the task id so caller-supplied ids cannot escape the directory
func (s *CancelStore) markerPath(taskID string) string {
	return filepath.Join(s.dir, base64.RawURLEncoding.EncodeToString([]byte(taskID))+markerSuffix)
}

// Request writes the marker file
func (s *CancelStore) Request(ctx context.Context, taskID string) error {
	path := s.markerPath(taskID)
	tmp := path + ".tmp"

	if err := afero.WriteFile(s.fs, tmp, []byte(time.Now().Format(time.RFC3339Nano)), 0644); err != nil {
		return fmt.Errorf("failed to write cancellation marker for %s: %w", taskID, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to publish cancellation marker for %s: %w", taskID, err)
	}
	return nil
}

// IsSet reports whether the marker file exists
func (s *CancelStore) IsSet(ctx context.Context, taskID string) (bool, error) {
	exists, err := afero.Exists(s.fs, s.markerPath(taskID))
	if err != nil {
		return false, fmt.Errorf("failed to stat cancellation marker for %s: %w", taskID, err)
	}
	return exists, nil
}

// Clear removes the marker file; a missing marker is not an error
func (s *CancelStore) Clear(ctx context.Context, taskID string) error {
	err := s.fs.Remove(s.markerPath(taskID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cancellation marker for %s: %w", taskID, err)
	}
	return nil
}

// Pending decodes the task ids of all marker files
func (s *CancelStore) Pending(ctx context.Context) ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read signal directory %s: %w", s.dir, err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != markerSuffix {
			continue
		}

		decoded, err := base64.RawURLEncoding.DecodeString(name[:len(name)-len(markerSuffix)])
		if err != nil {
			s.logger.Warn().Str("file", name).Msg("Ignoring unrecognised file in signal directory")
			continue
		}
		ids = append(ids, string(decoded))
	}

	sort.Strings(ids)
	return ids, nil
}
