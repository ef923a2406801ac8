package storgate

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds returned to callers in JSON error bodies. Each kind maps to a
// fixed HTTP status; the mapping is part of the public API surface.
const (
	KindBackendNotFound        = "backend_not_found"
	KindInvalidSetID           = "invalid_set_id"
	KindMissingSubject         = "missing_subject"
	KindAudienceNotFound       = "audience_not_found"
	KindTenantSettingsNotFound = "tenant_settings_not_found"
	KindRefererRejected        = "referer_rejected"
	KindInvalidMethod          = "invalid_method"
	KindAccessDenied           = "access_denied"
	KindSigningFailed          = "signing_failed"
)

var (
	// ErrPolicyDenied marks an explicit deny from the policy engine, as
	// opposed to a transport failure reaching it. Both surface as 403 but
	// are logged differently.
	ErrPolicyDenied = errors.New("policy denied")
)

// Error is a request-terminal gateway failure. It carries the machine
// readable kind and HTTP status returned to the caller plus the wrapped
// cause, which is logged server-side but never leaks into the response.
type Error struct {
	Kind   string
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a gateway error with an explicit status.
func NewError(kind string, status int, detail string) *Error {
	return &Error{Kind: kind, Status: status, Detail: detail}
}

// WrapError builds a gateway error around a cause.
func WrapError(kind string, status int, detail string, err error) *Error {
	return &Error{Kind: kind, Status: status, Detail: detail, Err: err}
}

func errBackendNotFound(backend string) *Error {
	return NewError(KindBackendNotFound, http.StatusNotFound,
		fmt.Sprintf("Backend '%s' is not found", backend))
}

func errInvalidSetID() *Error {
	return NewError(KindInvalidSetID, http.StatusForbidden, "Invalid set id")
}

func errMissingSubject() *Error {
	return NewError(KindMissingSubject, http.StatusForbidden, "missing an access token")
}

func errSigningFailed(err error) *Error {
	return WrapError(KindSigningFailed, http.StatusUnprocessableEntity, err.Error(), err)
}
