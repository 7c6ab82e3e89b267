package model

import "errors"

// Error kinds surfaced to callers. Storage layers wrap their failures with
// one of these so callers can branch with errors.Is.
var (
	ErrAlreadyOpen      = errors.New("shift already open")
	ErrNoOpenShift      = errors.New("no open shift")
	ErrMissingColumn    = errors.New("required column missing")
	ErrRuleLookup       = errors.New("overtime rule lookup failed")
	ErrStoreUnavailable = errors.New("store unavailable")

	ErrUnknownSite        = errors.New("unknown site")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("not logged in")
	ErrForbidden          = errors.New("admin role required")
)
