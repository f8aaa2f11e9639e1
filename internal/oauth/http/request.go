package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
)

// maxScopeLength bounds the space-delimited scope request field.
const maxScopeLength = 256

// decodeJSON parses a JSON request body into dst. Unknown fields are
// rejected so typos surface as request errors instead of silent drops.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// parseScope splits a space-delimited scope string, enforcing the wire
// length limit.
func parseScope(scope string) ([]string, bool) {
	if len(scope) > maxScopeLength {
		return nil, false
	}
	return domain.NormalizeScopes(strings.Fields(scope)), true
}

// parseAccessType maps the wire field, defaulting to online.
func parseAccessType(v string) (domain.AccessType, bool) {
	switch v {
	case "", string(domain.AccessTypeOnline):
		return domain.AccessTypeOnline, true
	case string(domain.AccessTypeOffline):
		return domain.AccessTypeOffline, true
	default:
		return "", false
	}
}
