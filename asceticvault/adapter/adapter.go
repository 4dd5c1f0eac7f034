package adapter

import (
	"context"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/document"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/mapping"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/query"
)

var (
	ErrDocumentNotFound error = notFoundError{}
	ErrMissingID              = errors.New("adapter: document has no identifier")
)

type notFoundError struct{}

func (notFoundError) Error() string  { return "adapter: document not found" }
func (notFoundError) NotFound() bool { return true }

// KeyLoader is the minimal storage surface the query engine needs.
type KeyLoader interface {
	Keys(ctx context.Context, keyspace mapping.Keyspace) ([]string, error)
	Get(ctx context.Context, keyspace mapping.Keyspace, id string) (*document.SecretDocument, error)
}

// KeyValueAdapter stores secret documents grouped by keyspace.
type KeyValueAdapter interface {
	KeyLoader

	// Put writes doc under its identifier, replacing any previous version.
	Put(ctx context.Context, keyspace mapping.Keyspace, doc *document.SecretDocument) error
	Contains(ctx context.Context, keyspace mapping.Keyspace, id string) (bool, error)
	Delete(ctx context.Context, keyspace mapping.Keyspace, id string) error
	DeleteAllOf(ctx context.Context, keyspace mapping.Keyspace) error
	Find(ctx context.Context, keyspace mapping.Keyspace, q query.KeyValueQuery) ([]*document.SecretDocument, error)
	Count(ctx context.Context, keyspace mapping.Keyspace, q query.KeyValueQuery) (int, error)
	Close() error
}

// RequireID returns the identifier of doc or ErrMissingID.
func RequireID(doc *document.SecretDocument) (string, error) {
	id, ok := doc.ID().Get()
	if !ok || id == "" {
		return "", ErrMissingID
	}
	return id, nil
}
