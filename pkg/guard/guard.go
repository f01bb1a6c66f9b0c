package guard

import (
	"net/http"
	"strings"
)

// TrustedHeaders is the priority-ordered list of group headers recognized
// from the upstream proxy. The first header present wins, even if empty of
// useful groups; later aliases exist for older proxy configurations.
var TrustedHeaders = []string{
	"Remote-Groups",
	"X-Forwarded-Groups",
	"X-Auth-Request-Groups",
}

// Decision is the outcome of an authorization check
type Decision int

const (
	// Authorized means the forwarded groups include the admin group
	Authorized Decision = iota
	// DeniedNoHeader means no trusted group header was present
	DeniedNoHeader
	// DeniedNotAdmin means groups were forwarded but lack the admin group
	DeniedNotAdmin
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case DeniedNoHeader:
		return "denied: no groups header"
	case DeniedNotAdmin:
		return "denied: not an administrator"
	default:
		return "denied"
	}
}

// Guard checks forwarded group membership against the admin group
type Guard struct {
	adminGroup string
}

// New creates a guard requiring membership of adminGroup
func New(adminGroup string) *Guard {
	return &Guard{adminGroup: adminGroup}
}

// Check inspects the trusted headers and returns an authorization decision
func (g *Guard) Check(header http.Header) Decision {
	value, ok := firstPresent(header)
	if !ok {
		return DeniedNoHeader
	}

	for _, group := range splitGroups(value) {
		if group == g.adminGroup {
			return Authorized
		}
	}
	return DeniedNotAdmin
}

// Groups returns the resolved group set from the trusted headers, or nil if
// no trusted header is present
func (g *Guard) Groups(header http.Header) []string {
	value, ok := firstPresent(header)
	if !ok {
		return nil
	}
	return splitGroups(value)
}

func firstPresent(header http.Header) (string, bool) {
	for _, name := range TrustedHeaders {
		if values, ok := header[http.CanonicalHeaderKey(name)]; ok && len(values) > 0 {
			return values[0], true
		}
	}
	return "", false
}

// splitGroups splits a forwarded header value on commas and whitespace
func splitGroups(value string) []string {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	groups := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			groups = append(groups, f)
		}
	}
	return groups
}
