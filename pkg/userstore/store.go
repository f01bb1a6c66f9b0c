package userstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/guardpost/guardpost/pkg/observability"
)

// Revision identifies the state of the store file at load time. Save compares
// it against the current file to detect writes that happened in between.
type Revision struct {
	ModTime time.Time
	Size    int64
}

// Store reads and writes the credential file
type Store struct {
	path    string
	lock    *flock.Flock
	logger  *observability.Logger
	metrics *observability.Metrics

	mu        sync.Mutex
	lastSaved Revision
}

// New creates a store for the credential file at path. Metrics may be nil.
func New(path string, logger *observability.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		path:    path,
		lock:    flock.New(path + ".lock"),
		logger:  logger,
		metrics: metrics,
	}
}

// Path returns the credential file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the full username to record mapping. A missing file is replaced
// with an empty skeleton; anything else that prevents reading a well-formed
// document is an ErrStorage.
func (s *Store) Load() (map[string]User, Revision, error) {
	start := time.Now()
	users, rev, err := s.load()
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation("users", "load", start, err)
	}
	return users, rev, err
}

func (s *Store) load() (map[string]User, Revision, error) {
	if err := s.lock.RLock(); err != nil {
		return nil, Revision{}, fmt.Errorf("%w: acquiring read lock: %v", ErrStorage, err)
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.logger.WithField("path", s.path).Warn("credential store missing, creating empty skeleton")
		rev, werr := s.writeAtomic(document{Users: map[string]User{}})
		if werr != nil {
			return nil, Revision{}, werr
		}
		return map[string]User{}, rev, nil
	}
	if err != nil {
		return nil, Revision{}, fmt.Errorf("%w: reading %s: %v", ErrStorage, s.path, err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, Revision{}, fmt.Errorf("%w: parsing %s: %v", ErrStorage, s.path, err)
	}
	if doc.Users == nil {
		doc.Users = map[string]User{}
	}

	rev, err := s.revision()
	if err != nil {
		return nil, Revision{}, err
	}

	return doc.Users, rev, nil
}

// Save overwrites the credential file with the full mapping. The write is
// rejected with ErrStale when the file no longer matches rev.
func (s *Store) Save(users map[string]User, rev Revision) error {
	start := time.Now()
	err := s.save(users, rev)
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation("users", "save", start, err)
		if err == nil {
			s.metrics.UsersTotal.Set(float64(len(users)))
		}
	}
	return err
}

func (s *Store) save(users map[string]User, rev Revision) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("%w: acquiring write lock: %v", ErrStorage, err)
	}
	defer s.lock.Unlock()

	current, err := s.revision()
	if err != nil {
		return err
	}
	if current != rev {
		return fmt.Errorf("%w: %s", ErrStale, s.path)
	}

	if _, err := s.writeAtomic(document{Users: users}); err != nil {
		return err
	}
	return nil
}

// writeAtomic marshals the document to a temp file in the same directory and
// renames it over the store file. The identity provider must never observe a
// partially written document.
func (s *Store) writeAtomic(doc document) (Revision, error) {
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return Revision{}, fmt.Errorf("%w: marshaling: %v", ErrStorage, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return Revision{}, fmt.Errorf("%w: creating temp file: %v", ErrStorage, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return Revision{}, fmt.Errorf("%w: writing temp file: %v", ErrStorage, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return Revision{}, fmt.Errorf("%w: setting permissions: %v", ErrStorage, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return Revision{}, fmt.Errorf("%w: closing temp file: %v", ErrStorage, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return Revision{}, fmt.Errorf("%w: replacing %s: %v", ErrStorage, s.path, err)
	}

	rev, err := s.revision()
	if err != nil {
		return Revision{}, err
	}

	s.mu.Lock()
	s.lastSaved = rev
	s.mu.Unlock()

	return rev, nil
}

// revision stats the store file. A missing file yields the zero Revision.
func (s *Store) revision() (Revision, error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return Revision{}, nil
	}
	if err != nil {
		return Revision{}, fmt.Errorf("%w: stat %s: %v", ErrStorage, s.path, err)
	}
	return Revision{ModTime: info.ModTime(), Size: info.Size()}, nil
}

// lastSavedRevision returns the revision of the most recent write by this process
func (s *Store) lastSavedRevision() Revision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}
