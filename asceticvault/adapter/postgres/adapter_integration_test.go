package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/document"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/mapping"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/query"
)

const integrationTable = "secret_documents_test"

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// setupIntegrationTest connects to the database named by the DB_* variables
// and skips the test when it is unreachable.
func setupIntegrationTest(t *testing.T) *Adapter {
	t.Helper()
	dsn := "postgres://" + getEnv("DB_USERNAME", "devel") + ":" + getEnv("DB_PASSWORD", "devel") +
		"@" + getEnv("DB_HOST", "localhost") + ":" + getEnv("DB_PORT", "5432") +
		"/" + getEnv("DB_DATABASE", "devel_grade")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	a, err := Connect(ctx, dsn, 2, time.Second, WithTable(integrationTable))
	if err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	if err := a.EnsureSchema(ctx); err != nil {
		a.Close()
		t.Skipf("postgres unavailable: %v", err)
	}

	t.Cleanup(func() {
		_, _ = a.db.Exec(context.Background(), "DROP TABLE IF EXISTS "+a.ident())
		_ = a.Close()
	})
	return a
}

func TestIntegration_RoundTripAndQuery(t *testing.T) {
	a := setupIntegrationTest(t)
	ctx := context.Background()
	ks := mapping.Keyspace{Backend: "secret", Path: "it"}

	for _, id := range []string{"b", "a", "c"} {
		doc := document.NewWithID(id).Put("z", id).Put("a", 1)
		require.NoError(t, a.Put(ctx, ks, doc))
	}

	got, err := a.Get(ctx, ks, "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, got.Keys())

	p, err := query.NewPredicate(query.NewPart("id", query.TypeGreaterThanEqual, query.IgnoreCaseNever), query.NewParameters("b"))
	require.NoError(t, err)
	docs, err := a.Find(ctx, ks, query.NewKeyValueQuery(query.NewVaultQuery(p, "id")).OrderBy(query.By(query.Descending("id"))))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].ID().Unwrap())

	require.NoError(t, a.DeleteAllOf(ctx, ks))
	n, err := a.Count(ctx, ks, query.MatchAll())
	require.NoError(t, err)
	assert.Zero(t, n)
}
