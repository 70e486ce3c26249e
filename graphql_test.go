package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridecircle/backend/commuter"
	"github.com/ridecircle/backend/location"
	"github.com/ridecircle/backend/session"
)

type graphqlResponse struct {
	Data   map[string]map[string]any `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func postGraphQL(t *testing.T, srvURL, token, query string, vars map[string]any) graphqlResponse {
	t.Helper()
	resp := doRequest(t, http.MethodPost, srvURL+"/graphql", token, map[string]any{"query": query, "variables": vars})
	return decodeBody[graphqlResponse](t, resp)
}

func TestGraphQLRoute(t *testing.T) {
	_, srv := newTestApp(t, testPopulation()...)

	t.Run("Session saved over REST is visible as me", func(t *testing.T) {
		token := newSession(t, srv)
		resp := doRequest(t, http.MethodPut, srv.URL+"/me", token, validProfileBody())
		require.Equal(t, http.StatusOK, resp.StatusCode)
		saved := decodeBody[commuter.Profile](t, resp)

		got := postGraphQL(t, srv.URL, token, `{ me { id name verified } }`, nil)
		require.Empty(t, got.Errors)
		assert.Equal(t, saved.ID, got.Data["me"]["id"])
		assert.Equal(t, "Maya Johnson", got.Data["me"]["name"])
		assert.Equal(t, false, got.Data["me"]["verified"])
	})

	t.Run("Profile saved over GraphQL is visible on REST", func(t *testing.T) {
		token := newSession(t, srv)
		got := postGraphQL(t, srv.URL, token, `mutation($in: CommuterInput!) { saveMe(input: $in) { id } }`, map[string]any{
			"in": map[string]any{
				"name":          "Omar Haddad",
				"age":           41,
				"gender":        "Male",
				"from":          "Etobicoke",
				"to":            "Downtown Toronto",
				"bio":           "Accountant, reads on the train.",
				"interests":     []string{"Books"},
				"commuteTime":   "7:00 AM",
				"routeDistance": "20 km",
			},
		})
		require.Empty(t, got.Errors)
		id := got.Data["saveMe"]["id"]

		me := decodeBody[commuter.Profile](t, doRequest(t, http.MethodGet, srv.URL+"/me", token, nil))
		assert.Equal(t, id, me.ID)
		user := doRequest(t, http.MethodGet, srv.URL+"/users/"+me.ID, "", nil)
		assert.Equal(t, http.StatusOK, user.StatusCode)
	})

	t.Run("Bad token is treated as no session", func(t *testing.T) {
		got := postGraphQL(t, srv.URL, "not-a-token", `{ me { id } }`, nil)
		require.NotEmpty(t, got.Errors)
		assert.Equal(t, "unauthorized", got.Errors[0].Extensions["code"])
	})

	t.Run("Queries over GET", func(t *testing.T) {
		q := url.Values{"query": {`{ commuter(id: "b") { name } }`}}
		resp := doRequest(t, http.MethodGet, srv.URL+"/graphql?"+q.Encode(), "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decodeBody[graphqlResponse](t, resp)
		assert.Equal(t, "Bea Patel", got.Data["commuter"]["name"])
	})

	t.Run("Schema source", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, srv.URL+"/graphql/schema", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "type Query")
		assert.Contains(t, string(body), "matches(from: String!, to: String!, filter: MatchFilter): MatchPage!")
	})
}

func TestGraphQLBatchesProfileLoads(t *testing.T) {
	dir := &countingDirectory{MemoryDirectory: commuter.NewMemoryDirectory(testPopulation()...)}
	a := &app{
		registry:  location.Default(),
		directory: dir,
		sessions:  session.NewManager(session.NewMemoryStore(), dir),
		hub:       newHub(),
	}
	srv := httptest.NewServer(a.routes(nil))
	t.Cleanup(srv.Close)

	got := postGraphQL(t, srv.URL, "", `{
  a: commuter(id: "a") { name }
  b: commuter(id: "b") { name }
  c: commuter(id: "c") { name }
}`, nil)
	require.Empty(t, got.Errors)
	assert.Equal(t, "Cara Singh", got.Data["c"]["name"])
	require.Len(t, dir.batches, 1)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, dir.batches[0])
}
