package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/adapter"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/document"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/mapping"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/query"
)

// Adapter keeps documents in process memory. Stored documents are copies,
// so callers cannot mutate them behind the adapter's back.
type Adapter struct {
	mu   sync.RWMutex
	data map[mapping.Keyspace]map[string]*document.SecretDocument
}

var _ adapter.KeyValueAdapter = (*Adapter)(nil)

func New() *Adapter {
	return &Adapter{data: make(map[mapping.Keyspace]map[string]*document.SecretDocument)}
}

func (a *Adapter) Put(_ context.Context, keyspace mapping.Keyspace, doc *document.SecretDocument) error {
	id, err := adapter.RequireID(doc)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	bucket, ok := a.data[keyspace]
	if !ok {
		bucket = make(map[string]*document.SecretDocument)
		a.data[keyspace] = bucket
	}
	bucket[id] = doc.Clone()
	return nil
}

func (a *Adapter) Get(_ context.Context, keyspace mapping.Keyspace, id string) (*document.SecretDocument, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	doc, ok := a.data[keyspace][id]
	if !ok {
		return nil, adapter.ErrDocumentNotFound
	}
	return doc.Clone(), nil
}

func (a *Adapter) Contains(_ context.Context, keyspace mapping.Keyspace, id string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.data[keyspace][id]
	return ok, nil
}

func (a *Adapter) Delete(_ context.Context, keyspace mapping.Keyspace, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.data[keyspace][id]; !ok {
		return adapter.ErrDocumentNotFound
	}
	delete(a.data[keyspace], id)
	return nil
}

func (a *Adapter) DeleteAllOf(_ context.Context, keyspace mapping.Keyspace) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.data, keyspace)
	return nil
}

// Keys returns the identifiers of keyspace in ascending order.
func (a *Adapter) Keys(_ context.Context, keyspace mapping.Keyspace) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	bucket := a.data[keyspace]
	keys := make([]string, 0, len(bucket))
	for id := range bucket {
		keys = append(keys, id)
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
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = make(map[mapping.Keyspace]map[string]*document.SecretDocument)
	return nil
}
