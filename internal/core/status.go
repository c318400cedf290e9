package core

import "errors"

// StatusCode classifies the result of a governed operation so callers can
// render the specific condition instead of a generic error.
type StatusCode string

const (
	// StatusNotFound means a referenced entity does not exist.
	StatusNotFound StatusCode = "NOT_FOUND"
	// StatusNotActionable means the operation targeted a terminal entity,
	// e.g. deciding an approval that is already decided.
	StatusNotActionable StatusCode = "NOT_ACTIONABLE"
	// StatusValidation means the input was malformed or incomplete.
	StatusValidation StatusCode = "VALIDATION"
	// StatusPolicyBlocked means a business rule refused the action
	// (missing consent, rate limit). Not a bug.
	StatusPolicyBlocked StatusCode = "POLICY_BLOCKED"
	// StatusTransportFailure means the external send call failed.
	StatusTransportFailure StatusCode = "TRANSPORT_FAILURE"
	// StatusOK means the operation completed.
	StatusOK StatusCode = "OK"
)

// Sentinel errors for store lookups.
var (
	ErrNotFound      = errors.New("not found")
	ErrNotActionable = errors.New("not actionable")
)
