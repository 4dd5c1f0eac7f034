package template

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/adapter"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/document"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/identitymap"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/logger"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/mapping"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/metrics"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/option"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/query"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/signals"
)

var (
	ErrDuplicateKey = errors.New("template: document with this identifier already exists")
	ErrMissingID    = errors.New("template: document has no identifier")
)

type cacheKey struct {
	keyspace mapping.Keyspace
	id       string
}

// Template performs document operations for named entities, resolving each
// entity to its keyspace through the mapping context.
type Template struct {
	adapter adapter.KeyValueAdapter
	mapping *mapping.Context
	ids     IdentifierGenerator
	cache   *identitymap.IdentityMap[cacheKey, *document.SecretDocument]
	events  *signals.SignalImp[Event]
	metrics metrics.Collector
	log     logger.Logger
}

type Option func(*Template)

func WithIdentifierGenerator(ids IdentifierGenerator) Option {
	return func(t *Template) {
		t.ids = ids
	}
}

// WithCache enables a read-through identity map of the given size.
func WithCache(size int, level identitymap.IsolationLevel) Option {
	return func(t *Template) {
		if size > 0 {
			t.cache = identitymap.New[cacheKey, *document.SecretDocument](size, level)
		}
	}
}

func WithMetrics(c metrics.Collector) Option {
	return func(t *Template) {
		t.metrics = c
	}
}

func WithLogger(log logger.Logger) Option {
	return func(t *Template) {
		t.log = log
	}
}

func New(a adapter.KeyValueAdapter, mappingContext *mapping.Context, opts ...Option) *Template {
	if mappingContext == nil {
		mappingContext = mapping.NewContext()
	}
	t := &Template{
		adapter: a,
		mapping: mappingContext,
		ids:     UUIDGenerator,
		events:  signals.NewSignal[Event](),
		metrics: metrics.NewNopCollector(),
		log:     logger.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Template) MappingContext() *mapping.Context {
	return t.mapping
}

func (t *Template) Events() signals.Signal[Event] {
	return t.events
}

func (t *Template) Keyspace(entity string) mapping.Keyspace {
	return t.mapping.Keyspace(entity)
}

// Insert stores a new document, assigning a generated identifier when it has
// none. An existing identifier yields ErrDuplicateKey.
func (t *Template) Insert(ctx context.Context, entity string, doc *document.SecretDocument) (_ *document.SecretDocument, err error) {
	keyspace := t.Keyspace(entity)
	defer t.observe("insert", keyspace, &err)

	id, ok := doc.ID().Get()
	if !ok || id == "" {
		id = t.ids.Generate()
		doc.SetID(id)
	}
	exists, err := t.adapter.Contains(ctx, keyspace, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Wrapf(ErrDuplicateKey, "%s/%s", keyspace, id)
	}
	if err := t.adapter.Put(ctx, keyspace, doc); err != nil {
		return nil, err
	}
	t.remember(keyspace, id, doc)
	return doc, t.publish(Event{Type: AfterInsert, Entity: entity, Keyspace: keyspace, ID: id, Document: doc})
}

// Update replaces the stored document with the same identifier.
func (t *Template) Update(ctx context.Context, entity string, doc *document.SecretDocument) (_ *document.SecretDocument, err error) {
	keyspace := t.Keyspace(entity)
	defer t.observe("update", keyspace, &err)

	id, ok := doc.ID().Get()
	if !ok || id == "" {
		return nil, ErrMissingID
	}
	if err := t.adapter.Put(ctx, keyspace, doc); err != nil {
		return nil, err
	}
	t.remember(keyspace, id, doc)
	return doc, t.publish(Event{Type: AfterUpdate, Entity: entity, Keyspace: keyspace, ID: id, Document: doc})
}

// Save inserts a document without identifier and updates any other.
func (t *Template) Save(ctx context.Context, entity string, doc *document.SecretDocument) (*document.SecretDocument, error) {
	if id, ok := doc.ID().Get(); !ok || id == "" {
		return t.Insert(ctx, entity, doc)
	}
	return t.Update(ctx, entity, doc)
}

func (t *Template) FindByID(ctx context.Context, entity, id string) (_ option.Option[*document.SecretDocument], err error) {
	keyspace := t.Keyspace(entity)
	defer t.observe("get", keyspace, &err)

	if t.cache != nil {
		cached, cacheErr := t.cache.Get(cacheKey{keyspace, id})
		switch {
		case cacheErr == nil:
			return option.Some(cached.Clone()), nil
		case errors.Is(cacheErr, identitymap.ErrObjectNotFound):
			return option.Nothing[*document.SecretDocument](), nil
		}
	}

	doc, err := t.adapter.Get(ctx, keyspace, id)
	if errors.Is(err, adapter.ErrDocumentNotFound) {
		if t.cache != nil {
			t.cache.AddAbsent(cacheKey{keyspace, id})
		}
		return option.Nothing[*document.SecretDocument](), nil
	}
	if err != nil {
		return option.Nothing[*document.SecretDocument](), err
	}
	t.remember(keyspace, id, doc)
	if err := t.publish(Event{Type: AfterGet, Entity: entity, Keyspace: keyspace, ID: id, Document: doc}); err != nil {
		return option.Nothing[*document.SecretDocument](), err
	}
	return option.Some(doc), nil
}

func (t *Template) FindAll(ctx context.Context, entity string, sort query.Sort) ([]*document.SecretDocument, error) {
	return t.Find(ctx, entity, query.MatchAll().OrderBy(sort))
}

func (t *Template) FindInRange(ctx context.Context, entity string, offset, rows int, sort query.Sort) ([]*document.SecretDocument, error) {
	return t.Find(ctx, entity, query.MatchAll().OrderBy(sort).Skip(offset).Limit(rows))
}

func (t *Template) Find(ctx context.Context, entity string, q query.KeyValueQuery) (_ []*document.SecretDocument, err error) {
	keyspace := t.Keyspace(entity)
	defer t.observe("find", keyspace, &err)

	start := time.Now()
	docs, err := t.adapter.Find(ctx, keyspace, q)
	elapsed := time.Since(start)
	t.metrics.ObserveQuery(keyspace.String(), elapsed)

	log := t.log.WithContext(ctx)
	log.Debug().
		Str("keyspace", keyspace.String()).
		Stringer("query", q).
		Int("found", len(docs)).
		Dur("elapsed", elapsed).
		Msg("query executed")
	return docs, err
}

func (t *Template) Count(ctx context.Context, entity string, q query.KeyValueQuery) (_ int, err error) {
	keyspace := t.Keyspace(entity)
	defer t.observe("count", keyspace, &err)
	return t.adapter.Count(ctx, keyspace, q)
}

// Delete removes the document and returns it, or Nothing when it did not
// exist.
func (t *Template) Delete(ctx context.Context, entity, id string) (_ option.Option[*document.SecretDocument], err error) {
	keyspace := t.Keyspace(entity)
	defer t.observe("delete", keyspace, &err)

	nothing := option.Nothing[*document.SecretDocument]()
	doc, err := t.adapter.Get(ctx, keyspace, id)
	if errors.Is(err, adapter.ErrDocumentNotFound) {
		return nothing, nil
	}
	if err != nil {
		return nothing, err
	}
	err = t.adapter.Delete(ctx, keyspace, id)
	if t.cache != nil {
		t.cache.Remove(cacheKey{keyspace, id})
	}
	if errors.Is(err, adapter.ErrDocumentNotFound) {
		return nothing, nil
	}
	if err != nil {
		return nothing, err
	}
	return option.Some(doc), t.publish(Event{Type: AfterDelete, Entity: entity, Keyspace: keyspace, ID: id, Document: doc})
}

// DeleteMatching removes every document accepted by q and returns how many
// were removed. Failures do not stop the remaining deletes.
func (t *Template) DeleteMatching(ctx context.Context, entity string, q query.KeyValueQuery) (int, error) {
	docs, err := t.Find(ctx, entity, q)
	if err != nil {
		return 0, err
	}
	var result *multierror.Error
	deleted := 0
	for _, doc := range docs {
		removed, err := t.Delete(ctx, entity, doc.ID().UnwrapOr(""))
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if removed.IsSome() {
			deleted++
		}
	}
	return deleted, result.ErrorOrNil()
}

func (t *Template) DeleteAll(ctx context.Context, entity string) (err error) {
	keyspace := t.Keyspace(entity)
	defer t.observe("delete_all", keyspace, &err)

	if err := t.adapter.DeleteAllOf(ctx, keyspace); err != nil {
		return err
	}
	if t.cache != nil {
		t.cache.RemoveFunc(func(k cacheKey) bool { return k.keyspace == keyspace })
	}
	return t.publish(Event{Type: AfterDeleteAll, Entity: entity, Keyspace: keyspace})
}

// Destroy releases the template without touching stored secrets.
func (t *Template) Destroy() error {
	return nil
}

func (t *Template) Close() error {
	return t.adapter.Close()
}

func (t *Template) remember(keyspace mapping.Keyspace, id string, doc *document.SecretDocument) {
	if t.cache != nil {
		t.cache.Add(cacheKey{keyspace, id}, doc.Clone())
	}
}

func (t *Template) publish(event Event) error {
	if err := t.events.Notify(event); err != nil {
		return errors.Wrapf(err, "%s observer failed", event.Type)
	}
	return nil
}

func (t *Template) observe(operation string, keyspace mapping.Keyspace, err *error) {
	t.metrics.ObserveOperation(operation, keyspace.String(), *err)
	if *err != nil {
		t.log.Debug().Err(*err).Str("operation", operation).Str("keyspace", keyspace.String()).Msg("operation failed")
	}
}
