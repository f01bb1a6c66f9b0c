package invites

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/guardpost/guardpost/pkg/hash"
	"github.com/guardpost/guardpost/pkg/invitestore"
	"github.com/guardpost/guardpost/pkg/mail"
	"github.com/guardpost/guardpost/pkg/observability"
	"github.com/guardpost/guardpost/pkg/users"
	"github.com/guardpost/guardpost/pkg/userstore"
)

var (
	// ErrInvalidToken indicates the token is unknown or already consumed
	ErrInvalidToken = errors.New("invalid invitation token")
	// ErrExpired indicates the invitation is past its expiry
	ErrExpired = errors.New("invitation expired")
)

// mailTimeout bounds a single background delivery attempt
const mailTimeout = 30 * time.Second

// Store is the invite store surface the service depends on
type Store interface {
	Load() (map[string]invitestore.Invitation, error)
	Save(invites map[string]invitestore.Invitation) error
}

// InviteParams are the inputs for Invite
type InviteParams struct {
	Email       string
	Groups      []string
	DisplayName string

	// TTL overrides the configured default when positive
	TTL time.Duration
}

// InviteResult carries the issued token and acceptance link
type InviteResult struct {
	Token string `json:"token"`
	Link  string `json:"link"`
}

// Service runs the invitation workflow
type Service struct {
	invites Store
	creds   users.Store
	hasher  hash.Hasher
	mailer  mail.Mailer
	logger  *observability.Logger
	metrics *observability.Metrics

	baseURL    string
	defaultTTL time.Duration

	// now is replaceable in tests
	now func() time.Time

	// mu serializes invite-store mutations; Accept holds it across token
	// consumption and user creation so the pair is one logical transition
	mu sync.Mutex
}

// NewService creates an invitation workflow service. Metrics may be nil.
func NewService(invites Store, creds users.Store, hasher hash.Hasher, mailer mail.Mailer,
	logger *observability.Logger, metrics *observability.Metrics, baseURL string, defaultTTL time.Duration) *Service {
	return &Service{
		invites:    invites,
		creds:      creds,
		hasher:     hasher,
		mailer:     mailer,
		logger:     logger,
		metrics:    metrics,
		baseURL:    baseURL,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Invite issues a fresh invitation and attempts best-effort mail delivery.
// Delivery failure is logged, not fatal: the token and link are returned so
// an administrator can hand them over manually.
func (s *Service) Invite(ctx context.Context, p InviteParams) (*InviteResult, error) {
	if p.Email == "" {
		return nil, fmt.Errorf("%w: email is required", users.ErrValidation)
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	ttl := p.TTL
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	groups := p.Groups
	if len(groups) == 0 {
		groups = append([]string(nil), users.DefaultGroups...)
	}

	now := s.now()
	invitation := invitestore.Invitation{
		Email:       p.Email,
		Groups:      groups,
		DisplayName: p.DisplayName,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}

	s.mu.Lock()
	pending, err := s.invites.Load()
	if err == nil {
		pending[token] = invitation
		err = s.invites.Save(pending)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.InvitesIssuedTotal.Inc()
		s.metrics.InvitesActive.Set(float64(s.countActive(pending, now)))
	}

	link := s.acceptanceLink(token)
	s.deliver(invitation, link)

	s.logger.WithFields(map[string]interface{}{
		"email":      p.Email,
		"expires_at": invitation.ExpiresAt,
	}).Info("invitation issued")

	return &InviteResult{Token: token, Link: link}, nil
}

// Accept redeems a token exactly once, creating the invited user from the
// invitation's stored attributes.
func (s *Service) Accept(ctx context.Context, token, username, password string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", users.ErrValidation)
	}
	if username == "" {
		return fmt.Errorf("%w: username is required", users.ErrValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", users.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.invites.Load()
	if err != nil {
		return err
	}

	invitation, ok := pending[token]
	if !ok {
		return ErrInvalidToken
	}

	now := s.now()
	if invitation.Expired(now) {
		delete(pending, token)
		if err := s.invites.Save(pending); err != nil {
			s.logger.WithError(err).Warn("failed to remove expired invitation")
		}
		if s.metrics != nil {
			s.metrics.InvitesExpiredTotal.Inc()
			s.metrics.InvitesActive.Set(float64(s.countActive(pending, now)))
		}
		return ErrExpired
	}

	records, rev, err := s.creds.Load()
	if err != nil {
		return err
	}
	if _, exists := records[username]; exists {
		return fmt.Errorf("%w: %s", users.ErrConflict, username)
	}

	encoded, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return err
	}

	displayName := invitation.DisplayName
	if displayName == "" {
		displayName = username
	}
	records[username] = userstore.User{
		DisplayName: displayName,
		Email:       invitation.Email,
		Password:    encoded,
		Groups:      invitation.Groups,
	}

	if err := s.creds.Save(records, rev); err != nil {
		return err
	}

	// The user exists now; the token must not survive. A failed save here
	// cannot replay for the same username (Conflict), but log it loudly.
	delete(pending, token)
	if err := s.invites.Save(pending); err != nil {
		s.logger.WithError(err).Error("user created but consumed invitation could not be removed")
		return err
	}

	if s.metrics != nil {
		s.metrics.InvitesActive.Set(float64(s.countActive(pending, now)))
	}

	s.logger.WithFields(map[string]interface{}{
		"username": username,
		"email":    invitation.Email,
	}).Info("invitation accepted")

	return nil
}

// SweepExpired removes invitations past their expiry. Expiry is also applied
// lazily on Accept; the sweep keeps the store from accumulating dead tokens.
func (s *Service) SweepExpired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.invites.Load()
	if err != nil {
		return err
	}

	now := s.now()
	removed := 0
	for token, invitation := range pending {
		if invitation.Expired(now) {
			delete(pending, token)
			removed++
		}
	}
	if removed == 0 {
		return nil
	}

	if err := s.invites.Save(pending); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.InvitesExpiredTotal.Add(float64(removed))
		s.metrics.InvitesActive.Set(float64(s.countActive(pending, now)))
	}

	s.logger.WithField("removed", removed).Info("expired invitations swept")
	return nil
}

// acceptanceLink embeds the token into the public acceptance URL
func (s *Service) acceptanceLink(token string) string {
	return s.baseURL + "/invite?token=" + url.QueryEscape(token)
}

// deliver sends the invitation mail in the background; the HTTP response
// does not wait for the SMTP conversation.
func (s *Service) deliver(invitation invitestore.Invitation, link string) {
	body := fmt.Sprintf(
		"Hello%s,\n\nYou have been invited to create an account. Follow the link below to choose a username and password:\n\n%s\n\nThe invitation expires at %s.\n",
		salutation(invitation.DisplayName), link, invitation.ExpiresAt.Format(time.RFC1123),
	)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		if err := s.mailer.Send(ctx, invitation.Email, "You have been invited", body); err != nil {
			s.logger.WithError(err).WithField("email", invitation.Email).
				Warn("invitation mail delivery failed, deliver the link manually")
		}
	}()
}

func salutation(displayName string) string {
	if displayName == "" {
		return ""
	}
	return " " + displayName
}

func (s *Service) countActive(pending map[string]invitestore.Invitation, now time.Time) int {
	active := 0
	for _, invitation := range pending {
		if !invitation.Expired(now) {
			active++
		}
	}
	return active
}
