package domain

import "errors"

// ErrMalformedClaims indicates an identity claim set that failed schema
// validation. It is always surfaced to callers as an assertion failure.
var ErrMalformedClaims = errors.New("malformed identity claims")
