package vault

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/vault/api"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/adapter"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/document"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/logger"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/mapping"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/query"
)

// Logical is the subset of *api.Logical used by the adapter.
type Logical interface {
	ReadWithContext(ctx context.Context, path string) (*api.Secret, error)
	WriteWithContext(ctx context.Context, path string, data map[string]any) (*api.Secret, error)
	DeleteWithContext(ctx context.Context, path string) (*api.Secret, error)
	ListWithContext(ctx context.Context, path string) (*api.Secret, error)
}

type KVVersion int

const (
	KVv1 KVVersion = 1
	KVv2 KVVersion = 2
)

// Adapter stores documents in a Vault key-value secrets engine. Every
// document is one secret at <backend>/<path>/<id>.
type Adapter struct {
	logical Logical
	version KVVersion
	log     logger.Logger
}

var _ adapter.KeyValueAdapter = (*Adapter)(nil)

type Option func(*Adapter)

func WithKVVersion(version KVVersion) Option {
	return func(a *Adapter) {
		a.version = version
	}
}

func WithLogger(log logger.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

func New(logical Logical, opts ...Option) *Adapter {
	a := &Adapter{
		logical: logical,
		version: KVv2,
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func NewFromClient(client *api.Client, opts ...Option) *Adapter {
	return New(client.Logical(), opts...)
}

func (a *Adapter) dataPath(keyspace mapping.Keyspace, id string) string {
	if a.version == KVv2 {
		return path.Join(keyspace.Backend, "data", keyspace.Path, id)
	}
	return path.Join(keyspace.Backend, keyspace.Path, id)
}

func (a *Adapter) metadataPath(keyspace mapping.Keyspace, id string) string {
	if a.version == KVv2 {
		return path.Join(keyspace.Backend, "metadata", keyspace.Path, id)
	}
	return path.Join(keyspace.Backend, keyspace.Path, id)
}

func (a *Adapter) Put(ctx context.Context, keyspace mapping.Keyspace, doc *document.SecretDocument) error {
	id, err := adapter.RequireID(doc)
	if err != nil {
		return err
	}
	data := doc.ToMap()
	if a.version == KVv2 {
		data = map[string]any{"data": data}
	}
	p := a.dataPath(keyspace, id)
	if _, err := a.logical.WriteWithContext(ctx, p, data); err != nil {
		return errors.Wrapf(err, "unable to write %s", p)
	}
	log := a.log.WithContext(ctx)
	log.Debug().Str("path", p).Int("fields", doc.Len()).Msg("secret written")
	return nil
}

func (a *Adapter) Get(ctx context.Context, keyspace mapping.Keyspace, id string) (*document.SecretDocument, error) {
	p := a.dataPath(keyspace, id)
	secret, err := a.logical.ReadWithContext(ctx, p)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", p)
	}
	data, ok := a.payload(secret)
	if !ok {
		return nil, adapter.ErrDocumentNotFound
	}
	return document.From(id, data)
}

// payload extracts the secret fields; ok is false for a missing or
// soft-deleted secret.
func (a *Adapter) payload(secret *api.Secret) (map[string]any, bool) {
	if secret == nil || secret.Data == nil {
		return nil, false
	}
	if a.version != KVv2 {
		return secret.Data, true
	}
	data, ok := secret.Data["data"].(map[string]any)
	if !ok || data == nil {
		return nil, false
	}
	return data, true
}

func (a *Adapter) Contains(ctx context.Context, keyspace mapping.Keyspace, id string) (bool, error) {
	_, err := a.Get(ctx, keyspace, id)
	if errors.Is(err, adapter.ErrDocumentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the secret. On KV v2 the metadata is removed, which
// destroys every version.
func (a *Adapter) Delete(ctx context.Context, keyspace mapping.Keyspace, id string) error {
	ok, err := a.Contains(ctx, keyspace, id)
	if err != nil {
		return err
	}
	if !ok {
		return adapter.ErrDocumentNotFound
	}
	p := a.metadataPath(keyspace, id)
	if _, err := a.logical.DeleteWithContext(ctx, p); err != nil {
		return errors.Wrapf(err, "unable to delete %s", p)
	}
	log := a.log.WithContext(ctx)
	log.Debug().Str("path", p).Msg("secret deleted")
	return nil
}

func (a *Adapter) DeleteAllOf(ctx context.Context, keyspace mapping.Keyspace) error {
	keys, err := a.Keys(ctx, keyspace)
	if err != nil {
		return err
	}
	var result *multierror.Error
	for _, id := range keys {
		p := a.metadataPath(keyspace, id)
		if _, err := a.logical.DeleteWithContext(ctx, p); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "unable to delete %s", p))
		}
	}
	return result.ErrorOrNil()
}

// Keys lists the leaf secrets under the keyspace path in ascending order.
// Nested folders are not records and are skipped.
func (a *Adapter) Keys(ctx context.Context, keyspace mapping.Keyspace) ([]string, error) {
	p := a.metadataPath(keyspace, "")
	secret, err := a.logical.ListWithContext(ctx, p)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", p)
	}
	if secret == nil || secret.Data == nil {
		return []string{}, nil
	}
	raw, ok := secret.Data["keys"].([]any)
	if !ok {
		return []string{}, nil
	}
	keys := make([]string, 0, len(raw))
	for _, item := range raw {
		key := fmt.Sprint(item)
		if strings.HasSuffix(key, "/") {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (a *Adapter) Find(ctx context.Context, keyspace mapping.Keyspace, q query.KeyValueQuery) ([]*document.SecretDocument, error) {
	return adapter.Execute(ctx, a, keyspace, q)
}

func (a *Adapter) Count(ctx context.Context, keyspace mapping.Keyspace, q query.KeyValueQuery) (int, error) {
	return adapter.CountMatching(ctx, a, keyspace, q)
}

func (a *Adapter) Close() error {
	return nil
}
