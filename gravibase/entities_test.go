package gravibase_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gravisales/crm/gravibase"
	"github.com/gravisales/crm/session"
	"github.com/stretchr/testify/require"
)

type company struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OrgCode   string `json:"orgCode"`
	IsBlocked bool   `json:"isBlocked,omitempty"`
}

func TestQueryEntitiesBareArray(t *testing.T) {
	var gotFilter string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /application/api/Company", func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("filter")
		_, _ = w.Write([]byte(`[{"id":"c1","name":"Acme","orgCode":"ACME-01"}]`))
	})
	client, store := newAuthTestClient(t, mux)
	require.NoError(t, store.Set(session.New("john", "T1", "R1", 900)))

	var companies []company
	filter := gravibase.Filter{Attribute: "orgCode", Value: "ACME-01"}
	require.NoError(t, client.QueryEntities(context.Background(), "Company", filter, &companies))

	require.Equal(t, `orgCode=="ACME-01"`, gotFilter)
	require.Len(t, companies, 1)
	require.Equal(t, "Acme", companies[0].Name)
}

func TestQueryEntitiesDataWrapper(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /application/api/Company", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"c1","name":"Acme","orgCode":"ACME-01","isBlocked":true}]}`))
	})
	client, store := newAuthTestClient(t, mux)
	require.NoError(t, store.Set(session.New("john", "T1", "R1", 900)))

	var companies []company
	require.NoError(t, client.QueryEntities(context.Background(), "Company", gravibase.Filter{Attribute: "orgCode", Value: "ACME-01"}, &companies))
	require.Len(t, companies, 1)
	require.True(t, companies[0].IsBlocked)
}

func TestQueryEntitiesEmptyWrapper(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /application/api/Company", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	client, store := newAuthTestClient(t, mux)
	require.NoError(t, store.Set(session.New("john", "T1", "R1", 900)))

	var companies []company
	require.NoError(t, client.QueryEntities(context.Background(), "Company", gravibase.Filter{Attribute: "orgCode", Value: "NOPE"}, &companies))
	require.Empty(t, companies)
}

func TestQueryEntitiesFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /application/api/Company", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	client, store := newAuthTestClient(t, mux)
	require.NoError(t, store.Set(session.New("john", "T1", "R1", 900)))

	var companies []company
	err := client.QueryEntities(context.Background(), "Company", gravibase.Filter{Attribute: "orgCode", Value: "ACME-01"}, &companies)
	require.Error(t, err)
	require.Equal(t, gravibase.CodeLookupFailed, gravibase.CodeOf(err))
}

func TestCreateEntity(t *testing.T) {
	var created bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /application/api/AppUser", func(w http.ResponseWriter, r *http.Request) {
		created = true
		w.WriteHeader(http.StatusCreated)
	})
	client, store := newAuthTestClient(t, mux)
	require.NoError(t, store.Set(session.New("john", "T1", "R1", 900)))

	record := map[string]any{"username": "john", "isActive": true}
	require.NoError(t, client.CreateEntity(context.Background(), "AppUser", record))
	require.True(t, created)
}

func TestUpdateEntityFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /application/api/Deal", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	client, store := newAuthTestClient(t, mux)
	require.NoError(t, store.Set(session.New("john", "T1", "R1", 900)))

	err := client.UpdateEntity(context.Background(), "Deal", map[string]any{"id": "d1"})
	require.Error(t, err)
	require.Equal(t, gravibase.CodeUpdateFailed, gravibase.CodeOf(err))
}
