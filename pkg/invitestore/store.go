package invitestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/guardpost/guardpost/pkg/observability"
)

// Invitation is a pending self-service signup, keyed by its opaque token
type Invitation struct {
	Email       string    `json:"email"`
	Groups      []string  `json:"groups"`
	DisplayName string    `json:"displayname"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Expired reports whether the invitation is past its expiry at now
func (i Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// ErrStorage indicates the invite file could not be written
var ErrStorage = errors.New("invite store unavailable")

// Store reads and writes the invite file
type Store struct {
	path    string
	logger  *observability.Logger
	metrics *observability.Metrics
}

// New creates a store for the invite file at path. Metrics may be nil.
func New(path string, logger *observability.Logger, metrics *observability.Metrics) *Store {
	return &Store{path: path, logger: logger, metrics: metrics}
}

// Load returns the token to invitation mapping. A missing file yields an
// empty mapping; malformed content is logged and reset to empty, since
// pending invitations can simply be reissued.
func (s *Store) Load() (map[string]Invitation, error) {
	start := time.Now()
	invites, err := s.load()
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation("invites", "load", start, err)
	}
	return invites, err
}

func (s *Store) load() (map[string]Invitation, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]Invitation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorage, s.path, err)
	}

	var invites map[string]Invitation
	if err := json.Unmarshal(data, &invites); err != nil {
		s.logger.WithError(err).WithField("path", s.path).
			Warn("invite store malformed, resetting to empty")
		return map[string]Invitation{}, nil
	}
	if invites == nil {
		invites = map[string]Invitation{}
	}
	return invites, nil
}

// Save overwrites the invite file with the full mapping
func (s *Store) Save(invites map[string]Invitation) error {
	start := time.Now()
	err := s.save(invites)
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation("invites", "save", start, err)
	}
	return err
}

func (s *Store) save(invites map[string]Invitation) error {
	data, err := json.MarshalIndent(invites, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshaling: %v", ErrStorage, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrStorage, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing temp file: %v", ErrStorage, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: setting permissions: %v", ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: closing temp file: %v", ErrStorage, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replacing %s: %v", ErrStorage, s.path, err)
	}
	return nil
}
