package deals_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gravisales/crm/deals"
	"github.com/gravisales/crm/gravibase"
	"github.com/gravisales/crm/session"
	"github.com/gravisales/crm/session/sessionfakes"
	"github.com/stretchr/testify/require"
)

func newDealClient(t *testing.T, handler http.Handler) *gravibase.Client {
	t.Helper()
	backend := httptest.NewServer(handler)
	t.Cleanup(backend.Close)

	store := sessionfakes.NewFakeStore()
	require.NoError(t, store.Set(session.New("john", "access-token", "refresh-token", 3600)))
	return gravibase.New(backend.URL, "minicrm", store)
}

func TestListByOrgFiltersByOrgCode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /application/api/Deal", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, `orgCode=="ACME-01"`, r.URL.Query().Get("filter"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"d1","title":"Renewal","company":"Initech","stage":"won","amount":1200.50,"orgCode":"ACME-01"},
			{"id":"d2","title":"Expansion","company":"Globex","stage":"open","amount":9000,"orgCode":"ACME-01"}
		]`))
	})

	svc, err := deals.NewService(newDealClient(t, mux))
	require.NoError(t, err)

	list, err := svc.ListByOrg(context.Background(), "ACME-01")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Renewal", list[0].Title)
	require.Equal(t, 1200.50, list[0].Amount)
}

func TestListByOrgBackendFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /application/api/Deal", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	svc, err := deals.NewService(newDealClient(t, mux))
	require.NoError(t, err)

	_, err = svc.ListByOrg(context.Background(), "ACME-01")
	require.True(t, gravibase.IsCode(err, gravibase.CodeLookupFailed))
}

func TestNewServiceRequiresClient(t *testing.T) {
	_, err := deals.NewService(nil)
	require.Error(t, err)
}
