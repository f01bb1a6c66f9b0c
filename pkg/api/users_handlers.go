package api

import (
	"net/http"

	"github.com/guardpost/guardpost/pkg/httputil"
	"github.com/guardpost/guardpost/pkg/users"
)

type createUserRequest struct {
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Email       string   `json:"email"`
	Groups      []string `json:"groups"`
	DisplayName string   `json:"displayname"`
}

type updateUserRequest struct {
	Email       *string   `json:"email"`
	DisplayName *string   `json:"displayname"`
	Groups      *[]string `json:"groups"`
}

type changePasswordRequest struct {
	Password string `json:"password"`
}

// listUsers handles GET /api/users
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	listed, err := s.users.List()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, listed)
}

// createUser handles POST /api/users
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	err := s.users.Create(r.Context(), users.CreateParams{
		Username:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		Groups:      req.Groups,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w)
}

// updateUser handles PUT /api/users/{username}
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	username, ok := httputil.ParsePathStringOrError(w, r, "username")
	if !ok {
		return
	}

	var req updateUserRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	err := s.users.Update(r.Context(), username, users.UpdateParams{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Groups:      req.Groups,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w)
}

// changePassword handles POST /api/users/{username}/password
func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	username, ok := httputil.ParsePathStringOrError(w, r, "username")
	if !ok {
		return
	}

	var req changePasswordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.users.ChangePassword(r.Context(), username, req.Password); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w)
}

// deleteUser handles DELETE /api/users/{username}
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	username, ok := httputil.ParsePathStringOrError(w, r, "username")
	if !ok {
		return
	}

	if err := s.users.Delete(r.Context(), username); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	httputil.WriteOK(w)
}
