package api

import (
	"net/http"
	"time"

	"github.com/guardpost/guardpost/pkg/httputil"
	"github.com/guardpost/guardpost/pkg/invites"
)

type createInviteRequest struct {
	Email          string   `json:"email"`
	Groups         []string `json:"groups"`
	DisplayName    string   `json:"displayname"`
	ExpiresMinutes int      `json:"expiresMinutes"`
}

type createInviteResponse struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
	Link  string `json:"link"`
}

type acceptInviteRequest struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// createInvite handles POST /api/invite
func (s *Server) createInvite(w http.ResponseWriter, r *http.Request) {
	var req createInviteRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	result, err := s.invites.Invite(r.Context(), invites.InviteParams{
		Email:       req.Email,
		Groups:      req.Groups,
		DisplayName: req.DisplayName,
		TTL:         time.Duration(req.ExpiresMinutes) * time.Minute,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, createInviteResponse{
		OK:    true,
		Token: result.Token,
		Link:  result.Link,
	})
}

// acceptInvite handles POST /api/invite/accept; this is the unauthenticated
// self-service path, the token itself is the credential.
func (s *Server) acceptInvite(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.invites.Accept(r.Context(), req.Token, req.Username, req.Password); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w)
}
