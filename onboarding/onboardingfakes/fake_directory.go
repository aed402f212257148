package onboardingfakes

import (
	"context"
	"net/http"
	"sync"

	"github.com/gravisales/crm/gravibase"
	"github.com/gravisales/crm/onboarding"
)

func notFoundErr() error {
	return &gravibase.APIError{Code: gravibase.CodeNotFound, Status: http.StatusNotFound}
}

var _ onboarding.Directory = (*FakeDirectory)(nil)

// FakeDirectory is an in-memory Directory for tests. Call counters let
// tests assert that validation failures never reach the backend.
type FakeDirectory struct {
	lock sync.Mutex

	Users     map[string]onboarding.AppUser
	Companies map[string]onboarding.Company

	AppUserErr error
	LookupErr  error
	JoinErr    error
	CreateErr  error

	AppUserCalls int
	LookupCalls  int
	JoinCalls    int
	CreateCalls  int
}

func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{
		Users:     make(map[string]onboarding.AppUser),
		Companies: make(map[string]onboarding.Company),
	}
}

func (d *FakeDirectory) AppUser(_ context.Context, username string) (onboarding.AppUser, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.AppUserCalls++

	if d.AppUserErr != nil {
		return onboarding.AppUser{}, d.AppUserErr
	}
	user, ok := d.Users[username]
	if !ok {
		return onboarding.AppUser{}, notFoundErr()
	}
	return user, nil
}

func (d *FakeDirectory) CompanyByOrgCode(_ context.Context, orgCode string) (*onboarding.Company, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.LookupCalls++

	if d.LookupErr != nil {
		return nil, d.LookupErr
	}
	company, ok := d.Companies[orgCode]
	if !ok {
		return nil, nil
	}
	return &company, nil
}

func (d *FakeDirectory) JoinOrganization(_ context.Context, username, orgCode string) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.JoinCalls++

	if d.JoinErr != nil {
		return d.JoinErr
	}
	user := d.Users[username]
	user.Username = username
	user.OrgCode = orgCode
	d.Users[username] = user
	return nil
}

func (d *FakeDirectory) CreateAppUser(_ context.Context, user onboarding.AppUser) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.CreateCalls++

	if d.CreateErr != nil {
		return d.CreateErr
	}
	d.Users[user.Username] = user
	return nil
}

// BackendCalls is the total number of backend round trips the fake saw.
func (d *FakeDirectory) BackendCalls() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.AppUserCalls + d.LookupCalls + d.JoinCalls + d.CreateCalls
}
