package shared

import "errors"

var (
	// ErrSessionMissing means no session was attached to the request.
	ErrSessionMissing = errors.New("session missing")
	// ErrCSRFTokenMissing means the request or session has no token.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch means the tokens differ.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
