package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/store"
	"github.com/lagoonid/oauthd/pkg/apierr"
	"github.com/lagoonid/oauthd/pkg/httpx"
)

// ClientGetHandler serves GET /v1/client/{client_id}: public client
// metadata for consent screens.
type ClientGetHandler struct {
	Clients store.Clients
}

type clientMetadataBody struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Trusted     bool   `json:"trusted"`
	ImageURI    string `json:"image_uri"`
	RedirectURI string `json:"redirect_uri"`
}

// ServeHTTP godoc
//
//	@Summary		Client metadata
//	@Description	Returns public metadata for a registered client.
//	@Tags			OAuth
//	@Produce		json
//	@Param			client_id	path		string	true	"Client identifier (16 hex chars)"
//	@Success		200			{object}	clientMetadataBody
//	@Failure		400			{object}	apierr.Error
//	@Router			/v1/client/{client_id} [get].
func (h *ClientGetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")
	if !domain.ValidClientID(clientID) {
		apierr.InvalidRequestParam("client_id").WriteError(w)
		return
	}

	client, err := h.Clients.GetClientByID(r.Context(), strings.ToLower(clientID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			apierr.UnknownClient(clientID).WriteError(w)
			return
		}
		writeServiceError(w, r, clientID, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, clientMetadataBody{
		ID:          client.ID,
		Name:        client.Name,
		Trusted:     client.Trusted,
		ImageURI:    client.ImageURI,
		RedirectURI: client.RedirectURI,
	})
}
