package http

import (
	"net/http"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/service"
	"github.com/lagoonid/oauthd/pkg/apierr"
	"github.com/lagoonid/oauthd/pkg/httpx"
)

// IntrospectHandler serves POST /v1/introspect.
type IntrospectHandler struct {
	Introspector *service.IntrospectService
}

type introspectRequestBody struct {
	Token string `json:"token"`
}

// introspectResponseBody deliberately carries no detail for inactive
// tokens: unknown, revoked and expired all look the same.
type introspectResponseBody struct {
	Active    bool   `json:"active"`
	UID       string `json:"uid,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Scope     string `json:"scope,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
}

// ServeHTTP godoc
//
//	@Summary		Token introspection
//	@Description	Reports a token's validity, owner, scope and expiry. Inactive tokens return {"active": false} with no further detail.
//	@Tags			OAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		introspectRequestBody	true	"Introspection request"
//	@Success		200		{object}	introspectResponseBody
//	@Failure		400		{object}	apierr.Error
//	@Router			/v1/introspect [post].
func (h *IntrospectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body introspectRequestBody
	if err := decodeJSON(r, &body); err != nil || body.Token == "" {
		apierr.InvalidRequestParam("token").WriteError(w)
		return
	}

	result, err := h.Introspector.Introspect(r.Context(), body.Token)
	if err != nil {
		writeServiceError(w, r, "", err)
		return
	}

	resp := introspectResponseBody{Active: result.Active}
	if result.Active {
		resp.UID = result.UID
		resp.ClientID = result.ClientID
		resp.Scope = domain.JoinScopes(result.Scopes)
		resp.TokenType = string(result.TokenType)
		if result.ExpiresAt != nil {
			resp.Exp = result.ExpiresAt.Unix()
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
