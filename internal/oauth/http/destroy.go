package http

import (
	"net/http"

	"github.com/lagoonid/oauthd/internal/oauth/service"
	"github.com/lagoonid/oauthd/pkg/apierr"
	"github.com/lagoonid/oauthd/pkg/httpx"
)

// DestroyHandler serves POST /v1/destroy: revoke a single token or code
// by value.
type DestroyHandler struct {
	Revocations *service.RevocationService
}

type destroyRequestBody struct {
	Token string `json:"token"`
}

// ServeHTTP godoc
//
//	@Summary		Destroy a token
//	@Description	Revokes a single access token, refresh token or authorization code by value. Destroying an absent value succeeds.
//	@Tags			OAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		destroyRequestBody	true	"Destroy request"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	apierr.Error
//	@Router			/v1/destroy [post].
func (h *DestroyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body destroyRequestBody
	if err := decodeJSON(r, &body); err != nil || body.Token == "" {
		apierr.InvalidRequestParam("token").WriteError(w)
		return
	}

	if err := h.Revocations.DestroyByValue(r.Context(), body.Token); err != nil {
		writeServiceError(w, r, "", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{})
}
