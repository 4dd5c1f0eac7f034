package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/config"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/configuration"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/document"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/logger"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/query"
)

func seededRepositories(t *testing.T, ids ...string) *configuration.Repositories {
	t.Helper()
	cfg := config.Config{
		Vault: config.Vault{Backend: "secret"},
		Repository: config.Repository{
			Adapter:     config.AdapterMemory,
			IDGenerator: config.GeneratorUUID,
			Isolation:   "serializable",
		},
	}
	repos, err := configuration.New(context.Background(), cfg, logger.NewTestLogger(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	users := repos.Repository("users")
	for _, id := range ids {
		_, err := users.Save(context.Background(), document.NewWithID(id).Put("owner", id))
		require.NoError(t, err)
	}
	return repos
}

func TestParseValues(t *testing.T) {
	values := parseValues([]string{"a", "b,c", "d"})
	assert.Equal(t, []any{"a", []string{"b", "c"}, "d"}, values)
}

func TestExecute_Find(t *testing.T) {
	repos := seededRepositories(t, "alice", "albert", "bob")

	res, err := execute(context.Background(), repos, invocation{
		entity: "users",
		method: "findByIdStartingWith",
		sort:   query.By(query.Descending("id")),
		args:   []any{"al"},
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, res.write(&out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"id":"alice","body":{"owner":"alice"}}`, lines[0])
	assert.JSONEq(t, `{"id":"albert","body":{"owner":"albert"}}`, lines[1])
}

func TestExecute_Projections(t *testing.T) {
	repos := seededRepositories(t, "alice", "albert", "bob")
	ctx := context.Background()

	cases := []struct {
		method string
		args   []any
		want   string
	}{
		{"countByIdIn", parseValues([]string{"alice,bob,carol"}), "2\n"},
		{"existsByIdEndingWith", []any{"ob"}, "true\n"},
		{"deleteByIdStartingWith", []any{"al"}, "2\n"},
		{"countById", []any{"alice"}, "0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			res, err := execute(ctx, repos, invocation{entity: "users", method: tc.method, args: tc.args})
			require.NoError(t, err)
			var out bytes.Buffer
			require.NoError(t, res.write(&out))
			assert.Equal(t, tc.want, out.String())
		})
	}
}

func TestQueryHandler(t *testing.T) {
	repos := seededRepositories(t, "alice", "albert", "bob")
	handler := queryHandler(repos, logger.NewTestLogger())

	t.Run("find", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/query?entity=users&method=findTop1ByIdStartingWith&sort=id,asc&arg=al", nil)
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		var docs []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
		require.Len(t, docs, 1)
		assert.Equal(t, "albert", docs[0]["id"])
	})

	t.Run("count", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/query?entity=users&method=countByIdNotIn&arg=alice,albert", nil)
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"count":1}`, rec.Body.String())
	})

	t.Run("unsupported operator", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/query?entity=users&method=findByIdIsNull", nil)
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/query?entity=users", nil)
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestQueryHandler_DeleteRequiresDeleteMethod(t *testing.T) {
	repos := seededRepositories(t, "alice", "albert", "bob")
	handler := queryHandler(repos, logger.NewTestLogger())
	remaining := func() int {
		n, err := repos.Repository("users").Count(context.Background())
		require.NoError(t, err)
		return n
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/query?entity=users&method=deleteByIdStartingWith&arg=al", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodDelete, rec.Header().Get("Allow"))
	assert.Equal(t, 3, remaining())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/query?entity=users&method=findByIdStartingWith&arg=al", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodGet, rec.Header().Get("Allow"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/query?entity=users&method=deleteByIdStartingWith&arg=al", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())
	assert.Equal(t, 1, remaining())
}

func TestRoutes_DeleteRoute(t *testing.T) {
	repos := seededRepositories(t, "alice", "bob")
	a := &app{log: logger.NewTestLogger(), repos: repos}
	routes := a.routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/query?entity=users&method=deleteById&arg=bob", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/query?entity=users&method=deleteById&arg=bob", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRootCmd_RequiresFlags(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--entity", "users"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method")
}
