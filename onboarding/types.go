package onboarding

import (
	"regexp"
	"strings"

	"github.com/gravisales/crm/gravibase"
	"github.com/pkg/errors"
)

// State is the single tagged value describing where the user is in the
// onboarding flow. Illegal combinations (loading and errored at once) are
// unrepresentable because there is exactly one state at a time.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateCheckingProfile State = "checking_profile"
	StateAwaitingOrgCode State = "awaiting_org_code"
	StateLookupPending   State = "org_code_lookup_pending"
	StateOrgFound        State = "org_found"
	StateAuthorized      State = "authorized"
	StateProfileError    State = "profile_error"
)

var (
	ErrOrgCodeRequired   = errors.New("organization code is required")
	ErrOrgCodeInvalid    = errors.New("organization code may only contain letters, digits and hyphens")
	ErrInvalidTransition = errors.New("operation not allowed in the current state")
)

// AppUser links an authenticated identity to an organization. OrgCode is
// either empty (unaffiliated) or a non-empty organization code.
type AppUser struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	OrgCode  string `json:"orgCode,omitempty"`
	IsActive bool   `json:"isActive"`
}

// Company is the organization record looked up by org code.
type Company struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OrgCode   string `json:"orgCode"`
	IsBlocked bool   `json:"isBlocked,omitempty"`
}

// LookupResult is the transient outcome of an org-code lookup, consumed
// immediately by the UI to decide whether to offer the join action. A
// blocked company is never reported as found.
type LookupResult struct {
	Found   bool
	Company *Company
	Code    gravibase.Code
}

var orgCodePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// NormalizeOrgCode trims and uppercases a raw org code, making lookups
// case-insensitive from the user's perspective.
func NormalizeOrgCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ValidateOrgCode checks the normalized code locally, before any network
// call is made.
func ValidateOrgCode(code string) error {
	if code == "" {
		return ErrOrgCodeRequired
	}
	if !orgCodePattern.MatchString(code) {
		return ErrOrgCodeInvalid
	}
	return nil
}
