package http

import (
	"net/http"
	"strings"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/service"
	"github.com/lagoonid/oauthd/pkg/apierr"
	"github.com/lagoonid/oauthd/pkg/httpx"
	"github.com/lagoonid/oauthd/pkg/idx"
)

// AuthorizedClientsHandler serves the authorized-clients listing and
// destroy routes. Both authenticate the account with an assertion.
type AuthorizedClientsHandler struct {
	Assertions  *service.AssertionService
	Revocations *service.RevocationService
}

type authorizedClientsRequestBody struct {
	Assertion string `json:"assertion"`
}

type authorizedClientRow struct {
	ClientID       string   `json:"client_id"`
	RefreshTokenID string   `json:"refresh_token_id,omitempty"`
	ClientName     string   `json:"client_name"`
	CreatedTime    int64    `json:"created_time"`
	LastAccessTime *int64   `json:"last_access_time"`
	Scope          []string `json:"scope"`
}

// HandleList godoc
//
//	@Summary		List authorized clients
//	@Description	Lists a user's active grants: one row per refresh-token instance plus one collapsed row per access-token-only client.
//	@Tags			OAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authorizedClientsRequestBody	true	"List request"
//	@Success		200		{array}		authorizedClientRow
//	@Failure		401		{object}	apierr.Error
//	@Router			/v1/authorized-clients [post].
func (h *AuthorizedClientsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var body authorizedClientsRequestBody
	if err := decodeJSON(r, &body); err != nil {
		apierr.InvalidRequestParam("body").WriteError(w)
		return
	}

	claims, err := h.Assertions.Verify(r.Context(), body.Assertion)
	if err != nil {
		writeServiceError(w, r, "", err)
		return
	}

	records, err := h.Revocations.ListAuthorizedClients(r.Context(), claims.UID)
	if err != nil {
		writeServiceError(w, r, "", err)
		return
	}

	rows := make([]authorizedClientRow, 0, len(records))
	for _, rec := range records {
		row := authorizedClientRow{
			ClientID:    rec.ClientID,
			ClientName:  rec.ClientName,
			CreatedTime: rec.CreatedAt.UnixMilli(),
			Scope:       rec.Scopes,
		}
		if !rec.RefreshTokenID.IsZero() {
			row.RefreshTokenID = rec.RefreshTokenID.String()
		}
		if rec.LastAccessAt != nil {
			ms := rec.LastAccessAt.UnixMilli()
			row.LastAccessTime = &ms
		}
		rows = append(rows, row)
	}
	httpx.WriteJSON(w, http.StatusOK, rows)
}

type destroyAuthorizedClientRequestBody struct {
	Assertion      string `json:"assertion"`
	ClientID       string `json:"client_id"`
	RefreshTokenID string `json:"refresh_token_id"`
}

// HandleDestroy godoc
//
//	@Summary		Revoke a client's grants
//	@Description	Destroys one refresh-token instance (and its derived access tokens) when refresh_token_id is given, or every token the client holds for the user otherwise.
//	@Tags			OAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		destroyAuthorizedClientRequestBody	true	"Destroy request"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	apierr.Error
//	@Failure		401		{object}	apierr.Error
//	@Router			/v1/authorized-clients/destroy [post].
func (h *AuthorizedClientsHandler) HandleDestroy(w http.ResponseWriter, r *http.Request) {
	var body destroyAuthorizedClientRequestBody
	if err := decodeJSON(r, &body); err != nil {
		apierr.InvalidRequestParam("body").WriteError(w)
		return
	}
	if !domain.ValidClientID(body.ClientID) {
		apierr.InvalidRequestParam("client_id").WriteError(w)
		return
	}

	refreshTokenID := idx.Zero
	if body.RefreshTokenID != "" {
		var err error
		refreshTokenID, err = idx.Parse(body.RefreshTokenID)
		if err != nil {
			apierr.InvalidRequestParam("refresh_token_id").WriteError(w)
			return
		}
	}

	claims, err := h.Assertions.Verify(r.Context(), body.Assertion)
	if err != nil {
		writeServiceError(w, r, body.ClientID, err)
		return
	}

	clientID := strings.ToLower(body.ClientID)
	if err := h.Revocations.DestroyByClientAndUser(r.Context(), clientID, claims.UID, refreshTokenID); err != nil {
		writeServiceError(w, r, body.ClientID, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{})
}
