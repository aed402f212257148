package onboarding

import (
	"context"
	"sync"

	"github.com/gravisales/crm/gravibase"
	"github.com/gravisales/crm/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Machine drives the post-authentication onboarding flow: it decides
// whether the identity is linked to an organization and, if not, walks the
// lookup-then-join sequence. It is the single source of truth for which
// view is reachable; the UI never re-derives org affiliation on its own.
//
// The lock is never held across a Directory call: reads like State and
// PendingOrg must stay cheap while a lookup or join is in flight, since the
// UI renders on every tick. Each operation snapshots its inputs under the
// lock, releases it for the backend call, and re-checks the generation
// counter before committing, so a logout that happened mid-flight wins over
// the stale result.
type Machine struct {
	dir   Directory
	store session.Store
	log   zerolog.Logger

	lock       sync.Mutex
	gen        uint64 // bumped on reset; mid-flight results from an older gen are dropped
	state      State
	user       AppUser
	pendingOrg *Company // set while in StateOrgFound, cleared on join
	affiliated bool     // cached affiliation, invalidated on join success
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

func WithLogger(logger zerolog.Logger) MachineOption {
	return func(m *Machine) { m.log = logger }
}

func NewMachine(dir Directory, store session.Store, options ...MachineOption) (*Machine, error) {
	if dir == nil {
		return nil, errors.New("[NewMachine] directory is required")
	}
	if store == nil {
		return nil, errors.New("[NewMachine] session store is required")
	}

	m := &Machine{
		dir:   dir,
		store: store,
		log:   zerolog.Nop(),
		state: StateUnauthenticated,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// State returns the current onboarding state.
func (m *Machine) State() State {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}

// User returns the app-user record as last fetched.
func (m *Machine) User() AppUser {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.user
}

// PendingOrg returns the company awaiting join confirmation, nil outside
// StateOrgFound.
func (m *Machine) PendingOrg() *Company {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.pendingOrg
}

// Begin runs the profile check that gates protected views. With no session
// it lands in StateUnauthenticated; with a cached affiliation it returns
// StateAuthorized without another backend call.
func (m *Machine) Begin(ctx context.Context) (State, error) {
	m.lock.Lock()

	sess, err := m.store.Get()
	if err != nil {
		defer m.lock.Unlock()
		return m.state, errors.Wrap(err, "[Machine.Begin] session read")
	}
	if !sess.Authenticated() {
		defer m.lock.Unlock()
		m.transition(StateUnauthenticated)
		return m.state, nil
	}

	if m.affiliated && m.state == StateAuthorized {
		defer m.lock.Unlock()
		return m.state, nil
	}

	username := sess.Username
	if username == "" {
		username = gravibase.UsernameFromToken(sess.AccessToken)
	}

	// A fresh profile check abandons any half-finished org entry.
	m.pendingOrg = nil
	m.transition(StateCheckingProfile)
	gen := m.gen
	m.lock.Unlock()

	user, err := m.dir.AppUser(ctx, username)

	m.lock.Lock()
	defer m.lock.Unlock()
	if gen != m.gen {
		// The flow was reset (logout, session expiry) while fetching.
		return m.state, nil
	}

	switch {
	case err == nil:
		m.user = user
	case gravibase.IsCode(err, gravibase.CodeNotFound):
		// A new, unlinked user - not an error.
		m.user = AppUser{Username: username, IsActive: true}
	default:
		m.transition(StateProfileError)
		return m.state, errors.Wrap(err, "[Machine.Begin] app user fetch")
	}

	if m.user.OrgCode != "" {
		m.affiliated = true
		m.transition(StateAuthorized)
	} else {
		m.transition(StateAwaitingOrgCode)
	}
	return m.state, nil
}

// SubmitOrgCode validates and looks up an organization code. Validation
// failures are rejected locally with no backend call. A missing or blocked
// company lands back in StateAwaitingOrgCode with the distinguishing code
// in the result; only an unblocked match moves to StateOrgFound.
func (m *Machine) SubmitOrgCode(ctx context.Context, raw string) (LookupResult, error) {
	m.lock.Lock()

	if m.state != StateAwaitingOrgCode && m.state != StateOrgFound {
		m.lock.Unlock()
		return LookupResult{}, ErrInvalidTransition
	}

	code := NormalizeOrgCode(raw)
	if err := ValidateOrgCode(code); err != nil {
		m.lock.Unlock()
		return LookupResult{}, err
	}

	m.pendingOrg = nil
	m.transition(StateLookupPending)
	gen := m.gen
	m.lock.Unlock()

	company, err := m.dir.CompanyByOrgCode(ctx, code)

	m.lock.Lock()
	defer m.lock.Unlock()
	if gen != m.gen {
		return LookupResult{}, ErrInvalidTransition
	}

	if err != nil {
		m.transition(StateAwaitingOrgCode)
		return LookupResult{}, errors.Wrap(err, "[Machine.SubmitOrgCode] company lookup")
	}

	if company == nil {
		m.transition(StateAwaitingOrgCode)
		return LookupResult{Code: gravibase.CodeNotFound}, nil
	}
	if company.IsBlocked {
		m.log.Warn().Str("orgCode", code).Msg("lookup matched a blocked organization")
		m.transition(StateAwaitingOrgCode)
		return LookupResult{Code: gravibase.CodeOrgBlocked}, nil
	}

	m.pendingOrg = company
	m.transition(StateOrgFound)
	return LookupResult{Found: true, Company: company}, nil
}

// ConfirmJoin persists the pending org code onto the user record. It is
// only reachable from StateOrgFound; a failed write stays there so the
// join can be retried without re-entering the code.
func (m *Machine) ConfirmJoin(ctx context.Context) error {
	m.lock.Lock()

	if m.state != StateOrgFound || m.pendingOrg == nil {
		m.lock.Unlock()
		return ErrInvalidTransition
	}

	username := m.user.Username
	orgCode := m.pendingOrg.OrgCode
	gen := m.gen
	m.lock.Unlock()

	err := m.dir.JoinOrganization(ctx, username, orgCode)

	m.lock.Lock()
	defer m.lock.Unlock()
	if gen != m.gen {
		return ErrInvalidTransition
	}

	if err != nil {
		return errors.Wrap(err, "[Machine.ConfirmJoin] join write")
	}

	m.user.OrgCode = orgCode
	m.pendingOrg = nil
	m.affiliated = true
	m.transition(StateAuthorized)
	return nil
}

// Logout destroys the session and resets the flow.
func (m *Machine) Logout() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.reset()
	if err := m.store.Clear(); err != nil {
		return errors.Wrap(err, "[Machine.Logout] store clear")
	}
	return nil
}

// SessionExpired resets the flow after a terminal refresh failure; the
// token transport has already cleared the store.
func (m *Machine) SessionExpired() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.reset()
}

func (m *Machine) reset() {
	m.gen++
	m.user = AppUser{}
	m.pendingOrg = nil
	m.affiliated = false
	m.transition(StateUnauthenticated)
}

func (m *Machine) transition(next State) {
	if m.state == next {
		return
	}
	m.log.Debug().Str("from", string(m.state)).Str("to", string(next)).Msg("onboarding transition")
	m.state = next
}
