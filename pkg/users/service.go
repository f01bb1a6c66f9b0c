package users

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/guardpost/guardpost/pkg/hash"
	"github.com/guardpost/guardpost/pkg/observability"
	"github.com/guardpost/guardpost/pkg/userstore"
)

var (
	// ErrNotFound indicates the username does not exist
	ErrNotFound = errors.New("user not found")
	// ErrConflict indicates the username is already taken
	ErrConflict = errors.New("user already exists")
	// ErrValidation indicates missing or malformed input
	ErrValidation = errors.New("invalid input")
)

// DefaultGroups is assigned when a user is created without explicit groups
var DefaultGroups = []string{"users"}

// Store is the credential store surface the service depends on
type Store interface {
	Load() (map[string]userstore.User, userstore.Revision, error)
	Save(users map[string]userstore.User, rev userstore.Revision) error
}

// Public is a user record with the password stripped; the hash never leaves
// the service boundary.
type Public struct {
	DisplayName string   `json:"displayname"`
	Email       string   `json:"email"`
	Groups      []string `json:"groups"`
}

// CreateParams are the inputs for Create
type CreateParams struct {
	Username    string
	Password    string
	Email       string
	Groups      []string
	DisplayName string
}

// UpdateParams are the inputs for Update; nil fields are left untouched
type UpdateParams struct {
	Email       *string
	DisplayName *string
	Groups      *[]string
}

// Service manages user records
type Service struct {
	store  Store
	hasher hash.Hasher
	logger *observability.Logger

	// mu serializes mutations: one load-modify-save cycle at a time
	mu sync.Mutex
}

// NewService creates a user management service
func NewService(store Store, hasher hash.Hasher, logger *observability.Logger) *Service {
	return &Service{store: store, hasher: hasher, logger: logger}
}

// List returns all user records without password hashes
func (s *Service) List() (map[string]Public, error) {
	records, _, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	public := make(map[string]Public, len(records))
	for name, rec := range records {
		public[name] = Public{
			DisplayName: rec.DisplayName,
			Email:       rec.Email,
			Groups:      rec.Groups,
		}
	}
	return public, nil
}

// Create adds a new user record. Groups default to DefaultGroups and the
// display name defaults to the username.
func (s *Service) Create(ctx context.Context, p CreateParams) error {
	if p.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if p.Password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, rev, err := s.store.Load()
	if err != nil {
		return err
	}
	if _, exists := records[p.Username]; exists {
		return fmt.Errorf("%w: %s", ErrConflict, p.Username)
	}

	encoded, err := s.hasher.Hash(ctx, p.Password)
	if err != nil {
		return err
	}

	groups := p.Groups
	if len(groups) == 0 {
		groups = append([]string(nil), DefaultGroups...)
	}
	displayName := p.DisplayName
	if displayName == "" {
		displayName = p.Username
	}

	records[p.Username] = userstore.User{
		DisplayName: displayName,
		Email:       p.Email,
		Password:    encoded,
		Groups:      groups,
	}

	if err := s.store.Save(records, rev); err != nil {
		return err
	}

	s.logger.WithField("username", p.Username).Info("user created")
	return nil
}

// Update merges the provided fields into an existing record
func (s *Service) Update(ctx context.Context, username string, p UpdateParams) error {
	if p.Groups != nil && len(*p.Groups) == 0 {
		return fmt.Errorf("%w: groups must not be empty", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, rev, err := s.store.Load()
	if err != nil {
		return err
	}
	rec, exists := records[username]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}

	if p.Email != nil {
		rec.Email = *p.Email
	}
	if p.DisplayName != nil {
		rec.DisplayName = *p.DisplayName
	}
	if p.Groups != nil {
		rec.Groups = *p.Groups
	}
	records[username] = rec

	if err := s.store.Save(records, rev); err != nil {
		return err
	}

	s.logger.WithField("username", username).Info("user updated")
	return nil
}

// ChangePassword rehashes and overwrites the password field
func (s *Service) ChangePassword(ctx context.Context, username, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, rev, err := s.store.Load()
	if err != nil {
		return err
	}
	rec, exists := records[username]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}

	encoded, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}

	rec.Password = encoded
	records[username] = rec

	if err := s.store.Save(records, rev); err != nil {
		return err
	}

	s.logger.WithField("username", username).Info("password changed")
	return nil
}

// Delete removes a user record
func (s *Service) Delete(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, rev, err := s.store.Load()
	if err != nil {
		return err
	}
	if _, exists := records[username]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, username)
	}

	delete(records, username)

	if err := s.store.Save(records, rev); err != nil {
		return err
	}

	s.logger.WithField("username", username).Info("user deleted")
	return nil
}
