package tui

import "github.com/gravisales/crm/gravibase"

// messageFor maps a taxonomy code onto the user-facing message. Unknown
// codes fall back to a generic server error instead of leaking raw codes.
func messageFor(err error) string {
	switch gravibase.CodeOf(err) {
	case gravibase.CodeInvalidCredentials:
		return "Invalid username or password."
	case gravibase.CodeNetworkError:
		return "Network error. Check your connection and try again."
	case gravibase.CodeUsernameExists:
		return "That username is already taken."
	case gravibase.CodePasswordTooShort:
		return "Password does not meet the policy (at least 8 characters)."
	case gravibase.CodeOrgBlocked:
		return "This organization is blocked. Contact your administrator."
	case gravibase.CodeNotFound:
		return "No organization found for that code."
	case gravibase.CodeLookupFailed:
		return "Could not look up the organization. Please try again."
	case gravibase.CodeUpdateFailed:
		return "Could not join the organization. Please try again."
	case gravibase.CodeRoleAssignmentFailed:
		return "Your account was created, but the role assignment failed."
	case gravibase.CodeRegistrationFailed:
		return "Registration failed. Please try again."
	default:
		return "Server error. Please try again later."
	}
}
