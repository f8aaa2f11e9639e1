package service

import "errors"

// Failure kinds for the grant protocol. Each maps to exactly one wire
// errno in the HTTP layer; services never return wire errors directly.
var (
	ErrInvalidAssertion    = errors.New("invalid_assertion")
	ErrUnknownClient       = errors.New("unknown_client")
	ErrIncorrectSecret     = errors.New("incorrect_client_secret")
	ErrUnknownCode         = errors.New("unknown_code")
	ErrIncorrectCode       = errors.New("incorrect_code")
	ErrExpiredCode         = errors.New("expired_code")
	ErrInvalidToken        = errors.New("invalid_token")
	ErrExpiredToken        = errors.New("expired_token")
	ErrInvalidGrantType    = errors.New("invalid_grant_type")
	ErrInvalidScope        = errors.New("invalid_scope")
	ErrPkceRequired        = errors.New("pkce_required")
	ErrIncorrectChallenge  = errors.New("incorrect_code_challenge")
	ErrUnknownScope        = errors.New("unknown_scope")
	ErrInternalValidation  = errors.New("internal_validation_failure")
	ErrInvalidRequestParam = errors.New("invalid_request_parameter")
)
