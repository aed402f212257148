package onboarding

import (
	"context"

	"github.com/gravisales/crm/gravibase"
	"github.com/pkg/errors"
)

const companyEntity = "Company"
const appUserEntity = "AppUser"

var _ Directory = (*GravibaseDirectory)(nil)

// GravibaseDirectory implements Directory on top of the GraviBase client:
// the app-user record lives in the user's profile attribute list, company
// lookup and app-user creation go through the generic entity API.
type GravibaseDirectory struct {
	client *gravibase.Client
}

func NewGravibaseDirectory(client *gravibase.Client) (*GravibaseDirectory, error) {
	if client == nil {
		return nil, errors.New("[NewGravibaseDirectory] client is required")
	}
	return &GravibaseDirectory{client: client}, nil
}

func (d *GravibaseDirectory) AppUser(ctx context.Context, username string) (AppUser, error) {
	attrs, err := d.client.Profile(ctx, username)
	if err != nil {
		return AppUser{}, err
	}

	user := AppUser{Username: username, IsActive: true}
	for _, attr := range attrs {
		switch attr.Attribute {
		case "email":
			user.Email = attr.Value
		case "orgCode":
			user.OrgCode = attr.Value
		}
	}
	return user, nil
}

func (d *GravibaseDirectory) CompanyByOrgCode(ctx context.Context, orgCode string) (*Company, error) {
	var companies []Company
	filter := gravibase.Filter{Attribute: "orgCode", Value: orgCode}
	if err := d.client.QueryEntities(ctx, companyEntity, filter, &companies); err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, nil
	}
	return &companies[0], nil
}

func (d *GravibaseDirectory) JoinOrganization(ctx context.Context, username, orgCode string) error {
	attrs := []gravibase.ProfileAttribute{{Attribute: "orgCode", Value: orgCode}}
	return d.client.UpdateProfile(ctx, username, attrs)
}

func (d *GravibaseDirectory) CreateAppUser(ctx context.Context, user AppUser) error {
	return d.client.CreateEntity(ctx, appUserEntity, user)
}
