package guard

import (
	"net/http"

	"github.com/guardpost/guardpost/pkg/httputil"
	"github.com/guardpost/guardpost/pkg/observability"
)

// Middleware rejects requests that are not authorized administrators
func (g *Guard) Middleware(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := g.Check(r.Header)
			if decision != Authorized {
				logger.WithFields(map[string]interface{}{
					"path":     r.URL.Path,
					"remote":   r.RemoteAddr,
					"decision": decision.String(),
				}).Warn("admin request denied")
				httputil.WriteForbidden(w, decision.String())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
