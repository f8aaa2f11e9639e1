package http

import (
	"errors"
	"net/http"

	"github.com/lagoonid/oauthd/internal/oauth/service"
	"github.com/lagoonid/oauthd/pkg/apierr"
	"github.com/lagoonid/oauthd/pkg/slogx"
)

// writeServiceError translates a service failure into its wire errno.
// Unclassified errors are logged and surfaced as a plain 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, clientID string, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownClient):
		apierr.UnknownClient(clientID).WriteError(w)
	case errors.Is(err, service.ErrIncorrectSecret):
		apierr.IncorrectSecret(clientID).WriteError(w)
	case errors.Is(err, service.ErrInvalidAssertion):
		apierr.InvalidAssertion().WriteError(w)
	case errors.Is(err, service.ErrUnknownCode):
		apierr.UnknownCode().WriteError(w)
	case errors.Is(err, service.ErrIncorrectCode):
		apierr.IncorrectCode().WriteError(w)
	case errors.Is(err, service.ErrExpiredCode):
		apierr.ExpiredCode().WriteError(w)
	case errors.Is(err, service.ErrInvalidToken):
		apierr.InvalidToken().WriteError(w)
	case errors.Is(err, service.ErrExpiredToken):
		apierr.ExpiredToken().WriteError(w)
	case errors.Is(err, service.ErrInvalidGrantType):
		apierr.InvalidGrantType().WriteError(w)
	case errors.Is(err, service.ErrInvalidScope):
		apierr.InvalidScopes().WriteError(w)
	case errors.Is(err, service.ErrPkceRequired):
		apierr.MissingPkceParameters().WriteError(w)
	case errors.Is(err, service.ErrIncorrectChallenge):
		apierr.IncorrectChallenge().WriteError(w)
	case errors.Is(err, service.ErrUnknownScope):
		apierr.UnknownScope("").WriteError(w)
	case errors.Is(err, service.ErrInvalidRequestParam):
		apierr.InvalidRequestParam("request").WriteError(w)
	case errors.Is(err, service.ErrInternalValidation):
		slogx.FromContext(r.Context()).Error("internal validation failure", "err", err)
		apierr.InternalValidation().WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		apierr.ServerError().WriteError(w)
	}
}
