package onboarding

import "context"

// Directory is the backend surface the onboarding flow needs. The real
// implementation sits on the GraviBase client; tests use the fake in
// onboardingfakes.
type Directory interface {
	// AppUser fetches the app-user record for a username. A missing
	// record is reported with gravibase.CodeNotFound, which the state
	// machine treats as a new, unlinked user rather than a failure.
	AppUser(ctx context.Context, username string) (AppUser, error)

	// CompanyByOrgCode looks up a company by its (normalized) org code.
	// No match returns (nil, nil).
	CompanyByOrgCode(ctx context.Context, orgCode string) (*Company, error)

	// JoinOrganization persists the chosen org code onto the user's
	// record. Exactly one write call per join.
	JoinOrganization(ctx context.Context, username, orgCode string) error

	// CreateAppUser registers the app-side user record after account
	// creation.
	CreateAppUser(ctx context.Context, user AppUser) error
}
