package http

import (
	"net/http"
	"strings"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/service"
	"github.com/lagoonid/oauthd/pkg/apierr"
	"github.com/lagoonid/oauthd/pkg/httpx"
)

// KeyDataHandler serves POST /v1/key-data: scoped key-derivation
// metadata for clients deriving encryption keys.
type KeyDataHandler struct {
	Assertions *service.AssertionService
	KeyData    *service.KeyDataService
}

type keyDataRequestBody struct {
	Assertion string `json:"assertion"`
	ClientID  string `json:"client_id"`
	Scope     string `json:"scope"`
}

type keyDataEntry struct {
	Identifier           string `json:"identifier"`
	KeyRotationSecret    string `json:"keyRotationSecret"`
	KeyRotationTimestamp int64  `json:"keyRotationTimestamp"`
}

// ServeHTTP godoc
//
//	@Summary		Scoped key data
//	@Description	Maps requested scopes to the key-derivation metadata the client needs to derive scoped encryption keys.
//	@Tags			OAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		keyDataRequestBody	true	"Key data request"
//	@Success		200		{object}	map[string]keyDataEntry
//	@Failure		400		{object}	apierr.Error
//	@Failure		401		{object}	apierr.Error
//	@Router			/v1/key-data [post].
func (h *KeyDataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body keyDataRequestBody
	if err := decodeJSON(r, &body); err != nil {
		apierr.InvalidRequestParam("body").WriteError(w)
		return
	}
	if !domain.ValidClientID(body.ClientID) {
		apierr.InvalidRequestParam("client_id").WriteError(w)
		return
	}
	scopes, ok := parseScope(body.Scope)
	if !ok || len(scopes) == 0 {
		apierr.InvalidRequestParam("scope").WriteError(w)
		return
	}

	if _, err := h.Assertions.Verify(r.Context(), body.Assertion); err != nil {
		writeServiceError(w, r, body.ClientID, err)
		return
	}

	data, err := h.KeyData.Resolve(r.Context(), strings.ToLower(body.ClientID), scopes)
	if err != nil {
		writeServiceError(w, r, body.ClientID, err)
		return
	}

	resp := make(map[string]keyDataEntry, len(data))
	for scope, d := range data {
		resp[scope] = keyDataEntry{
			Identifier:           d.Identifier,
			KeyRotationSecret:    d.KeyRotationSecret,
			KeyRotationTimestamp: d.KeyRotationTimestamp,
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
