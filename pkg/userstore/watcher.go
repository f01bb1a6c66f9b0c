package userstore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch logs modifications made to the credential file by other writers
// (manual edits, provider-side tooling). It watches the parent directory
// because atomic renames replace the file inode. Watch blocks until ctx is
// cancelled.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			rev, err := s.revision()
			if err != nil {
				s.logger.WithError(err).Warn("credential store changed but could not be inspected")
				continue
			}
			if rev == s.lastSavedRevision() {
				// Our own atomic rename landing
				continue
			}
			s.logger.WithField("path", s.path).
				Warn("credential store modified outside this process; pending saves will be rejected as stale")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.WithError(err).Warn("credential store watcher error")
		}
	}
}
