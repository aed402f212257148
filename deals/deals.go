// Package deals is the data layer behind the placeholder sales dashboard:
// read-only listing of Deal entities for the user's organization.
package deals

import (
	"context"

	"github.com/gravisales/crm/gravibase"
	"github.com/pkg/errors"
)

const dealEntity = "Deal"

// Deal is a sales deal record from the generic entity API.
type Deal struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Company string  `json:"company,omitempty"`
	Stage   string  `json:"stage,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
	OrgCode string  `json:"orgCode,omitempty"`
}

// Service lists deals for an organization.
type Service struct {
	client *gravibase.Client
}

func NewService(client *gravibase.Client) (*Service, error) {
	if client == nil {
		return nil, errors.New("[deals.NewService] client is required")
	}
	return &Service{client: client}, nil
}

// ListByOrg returns the deals belonging to the given organization.
func (s *Service) ListByOrg(ctx context.Context, orgCode string) ([]Deal, error) {
	var list []Deal
	filter := gravibase.Filter{Attribute: "orgCode", Value: orgCode}
	if err := s.client.QueryEntities(ctx, dealEntity, filter, &list); err != nil {
		return nil, errors.Wrap(err, "[Service.ListByOrg] deal query")
	}
	return list, nil
}
