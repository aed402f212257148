package gravibase

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is a symbolic outcome for a backend operation. The UI branches on
// these instead of transport errors, and maps them to localized messages.
type Code string

const (
	CodeInvalidCredentials   Code = "invalidCredentials"
	CodeNetworkError         Code = "networkError"
	CodeServerError          Code = "serverError"
	CodeUsernameExists       Code = "usernameExists"
	CodePasswordTooShort     Code = "passwordTooShort"
	CodeOrgBlocked           Code = "orgBlocked"
	CodeLookupFailed         Code = "lookupFailed"
	CodeNotFound             Code = "notFound"
	CodeUpdateFailed         Code = "updateFailed"
	CodeRoleAssignmentFailed Code = "roleAssignmentFailed"
	CodeRegistrationFailed   Code = "registrationFailed"
)

// APIError carries the taxonomy code alongside the HTTP status and the
// underlying cause. Every failure leaving this package is one of these.
type APIError struct {
	Code   Code
	Status int
	Err    error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func apiError(code Code, status int, err error) *APIError {
	return &APIError{Code: code, Status: status, Err: err}
}

// CodeOf extracts the taxonomy code from an error chain. Errors that did not
// originate here report as a server error rather than leaking raw causes.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return CodeServerError
}

// IsCode reports whether err carries the given taxonomy code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
