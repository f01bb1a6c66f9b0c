package api

import (
	"errors"
	"net/http"

	"github.com/guardpost/guardpost/pkg/httputil"
	"github.com/guardpost/guardpost/pkg/invites"
	"github.com/guardpost/guardpost/pkg/observability"
	"github.com/guardpost/guardpost/pkg/users"
)

// writeServiceError maps service errors onto the HTTP contract: validation,
// conflicts, and invitation lifecycle errors are 400, unknown usernames are
// 404, everything else (storage, hashing) is 500. All errors become a JSON
// {"error": message} body; nothing crashes the process.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := s.logger.WithError(err).WithFields(map[string]interface{}{
		"path":       r.URL.Path,
		"request_id": observability.GetRequestID(r.Context()),
	})

	switch {
	case errors.Is(err, users.ErrValidation),
		errors.Is(err, users.ErrConflict),
		errors.Is(err, invites.ErrInvalidToken),
		errors.Is(err, invites.ErrExpired):
		logger.Debug("request rejected")
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, users.ErrNotFound):
		logger.Debug("request rejected")
		httputil.WriteNotFoundError(w, err.Error())
	default:
		logger.Error("request failed")
		httputil.WriteInternalError(w, err)
	}
}
