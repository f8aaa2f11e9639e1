package http

import (
	"net/http"
	"strings"

	"github.com/lagoonid/oauthd/internal/oauth/domain"
	"github.com/lagoonid/oauthd/internal/oauth/service"
	"github.com/lagoonid/oauthd/pkg/apierr"
	"github.com/lagoonid/oauthd/pkg/httpx"
)

// TokenHandler serves POST /v1/token.
// Accepts application/json or application/x-www-form-urlencoded bodies.
type TokenHandler struct {
	TokenService *service.TokenService
}

type tokenRequestBody struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
	RefreshToken string `json:"refresh_token"`
	SessionToken string `json:"session_token"`
	Scope        string `json:"scope"`
	AccessType   string `json:"access_type"`
}

type tokenResponseBody struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	AuthAt       int64  `json:"auth_at,omitempty"`
}

// ServeHTTP godoc
//
//	@Summary		Token grant endpoint
//	@Description	Exchanges an authorization code, refresh token or session credential for access/refresh tokens.
//	@Tags			OAuth
//	@Accept			json
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			grant_type		formData	string	true	"Grant type"	Enums(authorization_code, refresh_token, fxa-credentials)
//	@Param			client_id		formData	string	true	"Client identifier (16 hex chars)"
//	@Param			client_secret	formData	string	false	"Client secret (confidential clients)"
//	@Param			code			formData	string	false	"Authorization code (authorization_code grant)"
//	@Param			code_verifier	formData	string	false	"PKCE code verifier"
//	@Param			refresh_token	formData	string	false	"Refresh token (refresh_token grant)"
//	@Param			session_token	formData	string	false	"Session token (fxa-credentials grant)"
//	@Param			scope			formData	string	false	"Space-delimited scopes"
//	@Param			access_type		formData	string	false	"online or offline"
//	@Success		200	{object}	tokenResponseBody
//	@Failure		400	{object}	apierr.Error
//	@Failure		401	{object}	apierr.Error
//	@Router			/v1/token [post].
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, ok := h.parseBody(w, r)
	if !ok {
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
	accessType, ok := parseAccessType(body.AccessType)
	if !ok {
		apierr.InvalidRequestParam("access_type").WriteError(w)
		return
	}

	grant, err := h.TokenService.Grant(r.Context(), service.TokenRequest{
		GrantType:    body.GrantType,
		ClientID:     strings.ToLower(body.ClientID),
		ClientSecret: body.ClientSecret,
		Code:         body.Code,
		CodeVerifier: body.CodeVerifier,
		RefreshToken: body.RefreshToken,
		SessionToken: body.SessionToken,
		Scopes:       scopes,
		AccessType:   accessType,
	})
	if err != nil {
		writeServiceError(w, r, body.ClientID, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponseBody{
		AccessToken:  grant.AccessToken,
		TokenType:    "bearer",
		Scope:        domain.JoinScopes(grant.Scopes),
		ExpiresIn:    grant.ExpiresIn,
		RefreshToken: grant.RefreshToken,
		AuthAt:       grant.AuthAt,
	})
}

func (h *TokenHandler) parseBody(w http.ResponseWriter, r *http.Request) (tokenRequestBody, bool) {
	var body tokenRequestBody

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			apierr.InvalidRequestParam("body").WriteError(w)
			return body, false
		}
		body = tokenRequestBody{
			GrantType:    r.Form.Get("grant_type"),
			ClientID:     strings.TrimSpace(r.Form.Get("client_id")),
			ClientSecret: r.Form.Get("client_secret"),
			Code:         strings.TrimSpace(r.Form.Get("code")),
			CodeVerifier: strings.TrimSpace(r.Form.Get("code_verifier")),
			RefreshToken: strings.TrimSpace(r.Form.Get("refresh_token")),
			SessionToken: strings.TrimSpace(r.Form.Get("session_token")),
			Scope:        strings.TrimSpace(r.Form.Get("scope")),
			AccessType:   strings.TrimSpace(r.Form.Get("access_type")),
		}
		return body, true
	}

	if err := decodeJSON(r, &body); err != nil {
		apierr.InvalidRequestParam("body").WriteError(w)
		return body, false
	}
	return body, true
}
