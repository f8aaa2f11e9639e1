package apierr

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// DocsURL is included as the "info" field of every error body so callers can
// find the error catalogue without guessing.
const DocsURL = "https://github.com/lagoonid/oauthd/blob/main/docs/api.md#errors"

// Stable errno values. These are part of the wire contract: clients switch on
// them, so existing numbers must never be reused for a different meaning.
const (
	ErrnoUnknownClient       = 101
	ErrnoIncorrectSecret     = 102
	ErrnoInvalidAssertion    = 104
	ErrnoUnknownCode         = 105
	ErrnoIncorrectCode       = 106
	ErrnoExpiredCode         = 107
	ErrnoInvalidToken        = 108
	ErrnoInvalidRequestParam = 109
	ErrnoInvalidScopes       = 114
	ErrnoExpiredToken        = 115
	ErrnoIncorrectChallenge  = 117
	ErrnoMissingPkce         = 118
	ErrnoInvalidGrantType    = 121
	ErrnoUnknownScope        = 122
	ErrnoInternalValidation  = 999
)

// Error is the JSON error body served on every failure:
//
//	{"code": 400, "errno": 105, "error": "Bad Request",
//	 "message": "Unknown code", "info": "..."}
//
// Code is the HTTP status, Errno the stable machine-readable cause. Message
// must never carry claim contents or secret material.
type Error struct {
	Code    int    `json:"code"`
	Errno   int    `json:"errno"`
	Reason  string `json:"error"`
	Message string `json:"message"`
	Info    string `json:"info"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("errno %d: %s", e.Errno, e.Message)
}

// WriteError serialises the error to an HTTP response with no-store caching.
func (e *Error) WriteError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(e.Code)
	_ = json.NewEncoder(w).Encode(e)
}

func newError(status, errno int, message string) *Error {
	return &Error{
		Code:    status,
		Errno:   errno,
		Reason:  http.StatusText(status),
		Message: message,
		Info:    DocsURL,
	}
}

func UnknownClient(clientID string) *Error {
	return newError(http.StatusBadRequest, ErrnoUnknownClient, "Unknown client id: "+clientID)
}

func IncorrectSecret(clientID string) *Error {
	return newError(http.StatusBadRequest, ErrnoIncorrectSecret, "Incorrect secret for client: "+clientID)
}

func InvalidAssertion() *Error {
	return newError(http.StatusUnauthorized, ErrnoInvalidAssertion, "Invalid assertion")
}

func UnknownCode() *Error {
	return newError(http.StatusBadRequest, ErrnoUnknownCode, "Unknown code")
}

func IncorrectCode() *Error {
	return newError(http.StatusBadRequest, ErrnoIncorrectCode, "Incorrect code")
}

func ExpiredCode() *Error {
	return newError(http.StatusBadRequest, ErrnoExpiredCode, "Expired code")
}

func InvalidToken() *Error {
	return newError(http.StatusBadRequest, ErrnoInvalidToken, "Invalid token")
}

func InvalidRequestParam(param string) *Error {
	return newError(http.StatusBadRequest, ErrnoInvalidRequestParam, "Invalid request parameter: "+param)
}

func InvalidScopes() *Error {
	return newError(http.StatusBadRequest, ErrnoInvalidScopes, "Requested scopes are not allowed")
}

func ExpiredToken() *Error {
	return newError(http.StatusBadRequest, ErrnoExpiredToken, "Expired token")
}

func IncorrectChallenge() *Error {
	return newError(http.StatusBadRequest, ErrnoIncorrectChallenge, "Incorrect code_challenge")
}

func MissingPkceParameters() *Error {
	return newError(http.StatusBadRequest, ErrnoMissingPkce, "Public clients require PKCE OAuth parameters")
}

func InvalidGrantType() *Error {
	return newError(http.StatusBadRequest, ErrnoInvalidGrantType, "Invalid grant_type")
}

func UnknownScope(scope string) *Error {
	return newError(http.StatusBadRequest, ErrnoUnknownScope, "No key data for scope: "+scope)
}

// InternalValidation reports malformed internal state (a stored record missing
// required fields). It should be rare enough to alert on.
func InternalValidation() *Error {
	return newError(http.StatusInternalServerError, ErrnoInternalValidation, "Internal validation failure")
}

// ServerError is the fallback for unclassified failures.
func ServerError() *Error {
	return &Error{
		Code:    http.StatusInternalServerError,
		Errno:   ErrnoInternalValidation,
		Reason:  http.StatusText(http.StatusInternalServerError),
		Message: "Internal server error",
		Info:    DocsURL,
	}
}
