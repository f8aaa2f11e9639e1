package http

import (
	"net/http"
	"strings"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/service"
	"github.com/lagoonid/oauthd/pkg/apierr"
	"github.com/lagoonid/oauthd/pkg/httpx"
)

// AuthorizationHandler serves POST /v1/authorization: an assertion is
// exchanged for a single-use authorization code.
type AuthorizationHandler struct {
	Assertions  *service.AssertionService
	CodeService *service.CodeService
}

type authorizationRequestBody struct {
	Assertion           string `json:"assertion"`
	ClientID            string `json:"client_id"`
	Scope               string `json:"scope"`
	State               string `json:"state"`
	CodeChallenge       string `json:"code_challenge"`
	CodeChallengeMethod string `json:"code_challenge_method"`
}

type authorizationResponseBody struct {
	Code  string `json:"code"`
	State string `json:"state,omitempty"`
}

// ServeHTTP godoc
//
//	@Summary		Issue an authorization code
//	@Description	Verifies an identity assertion and issues a short-lived single-use authorization code for the client.
//	@Tags			OAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authorizationRequestBody	true	"Authorization request"
//	@Success		200		{object}	authorizationResponseBody
//	@Failure		400		{object}	apierr.Error
//	@Failure		401		{object}	apierr.Error
//	@Router			/v1/authorization [post].
func (h *AuthorizationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body authorizationRequestBody
	if err := decodeJSON(r, &body); err != nil {
		apierr.InvalidRequestParam("body").WriteError(w)
		return
	}

	if !domain.ValidClientID(body.ClientID) {
		apierr.InvalidRequestParam("client_id").WriteError(w)
		return
	}
	scopes, ok := parseScope(body.Scope)
	if !ok {
		apierr.InvalidRequestParam("scope").WriteError(w)
		return
	}

	claims, err := h.Assertions.Verify(r.Context(), body.Assertion)
	if err != nil {
		writeServiceError(w, r, body.ClientID, err)
		return
	}

	code, err := h.CodeService.IssueCode(r.Context(), service.IssueCodeRequest{
		ClientID:            strings.ToLower(body.ClientID),
		Claims:              claims,
		Scopes:              scopes,
		CodeChallenge:       body.CodeChallenge,
		CodeChallengeMethod: body.CodeChallengeMethod,
	})
	if err != nil {
		writeServiceError(w, r, body.ClientID, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authorizationResponseBody{
		Code:  code,
		State: body.State,
	})
}
