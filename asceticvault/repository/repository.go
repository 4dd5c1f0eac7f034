package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/document"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/logger"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/option"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/query"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/template"
)

// ActionMismatchError reports a derived method used through the wrong
// entry point, e.g. "countById" passed to Find.
type ActionMismatchError struct {
	Method   string
	Expected query.Action
	Actual   query.Action
}

func (e *ActionMismatchError) Error() string {
	return "repository: " + e.Method + " is a " + e.Actual.String() + " method, expected " + e.Expected.String()
}

// ArgumentCountError reports more bound values than the method consumes.
type ArgumentCountError struct {
	Method   string
	Expected int
	Actual   int
}

func (e *ArgumentCountError) Error() string {
	return fmt.Sprintf("repository: %s takes %d arguments, got %d", e.Method, e.Expected, e.Actual)
}

// Repository serves the documents of one entity.
type Repository struct {
	entity   string
	template *template.Template
	trees    sync.Map // method name -> query.PartTree
	log      logger.Logger
}

type Option func(*Repository)

func WithLogger(log logger.Logger) Option {
	return func(r *Repository) {
		r.log = log
	}
}

func New(tpl *template.Template, entity string, opts ...Option) *Repository {
	r := &Repository{
		entity:   entity,
		template: tpl,
		log:      logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) Entity() string {
	return r.entity
}

func (r *Repository) FindByID(ctx context.Context, id string) (option.Option[*document.SecretDocument], error) {
	return r.template.FindByID(ctx, r.entity, id)
}

func (r *Repository) FindAll(ctx context.Context, sort query.Sort) ([]*document.SecretDocument, error) {
	return r.template.FindAll(ctx, r.entity, sort)
}

func (r *Repository) FindAllInRange(ctx context.Context, offset, rows int, sort query.Sort) ([]*document.SecretDocument, error) {
	return r.template.FindInRange(ctx, r.entity, offset, rows, sort)
}

func (r *Repository) Save(ctx context.Context, doc *document.SecretDocument) (*document.SecretDocument, error) {
	return r.template.Save(ctx, r.entity, doc)
}

// DeleteByID reports whether a document was removed.
func (r *Repository) DeleteByID(ctx context.Context, id string) (bool, error) {
	removed, err := r.template.Delete(ctx, r.entity, id)
	return removed.IsSome(), err
}

func (r *Repository) DeleteAll(ctx context.Context) error {
	return r.template.DeleteAll(ctx, r.entity)
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.template.Count(ctx, r.entity, query.MatchAll())
}

// Find runs a derived find method such as "findTop3ByIdStartingWithOrderByIdDesc".
// sort is applied after the ordering named in the method.
func (r *Repository) Find(ctx context.Context, method string, sort query.Sort, args ...any) ([]*document.SecretDocument, error) {
	q, err := r.derive(ctx, method, query.ActionFind, sort, args)
	if err != nil {
		return nil, err
	}
	return r.template.Find(ctx, r.entity, q)
}

func (r *Repository) CountBy(ctx context.Context, method string, args ...any) (int, error) {
	q, err := r.derive(ctx, method, query.ActionCount, query.Unsorted(), args)
	if err != nil {
		return 0, err
	}
	return r.template.Count(ctx, r.entity, q)
}

func (r *Repository) ExistsBy(ctx context.Context, method string, args ...any) (bool, error) {
	q, err := r.derive(ctx, method, query.ActionExists, query.Unsorted(), args)
	if err != nil {
		return false, err
	}
	n, err := r.template.Count(ctx, r.entity, q)
	return n > 0, err
}

// DeleteBy removes every document the method selects and returns how many
// were removed.
func (r *Repository) DeleteBy(ctx context.Context, method string, args ...any) (int, error) {
	q, err := r.derive(ctx, method, query.ActionDelete, query.Unsorted(), args)
	if err != nil {
		return 0, err
	}
	return r.template.DeleteMatching(ctx, r.entity, q)
}

func (r *Repository) derive(ctx context.Context, method string, action query.Action, sort query.Sort, args []any) (query.KeyValueQuery, error) {
	tree, err := r.tree(method)
	if err != nil {
		return query.KeyValueQuery{}, err
	}
	if tree.Action() != action {
		return query.KeyValueQuery{}, &ActionMismatchError{Method: method, Expected: action, Actual: tree.Action()}
	}
	if n := tree.NumberOfArguments(); len(args) > n {
		return query.KeyValueQuery{}, &ArgumentCountError{Method: method, Expected: n, Actual: len(args)}
	}
	q, err := query.NewCreator(tree, args...).CreateQuery(sort)
	if err != nil {
		return query.KeyValueQuery{}, errors.Wrap(err, method)
	}

	log := r.log.WithContext(ctx)
	log.Debug().
		Str("entity", r.entity).
		Str("method", method).
		Stringer("query", q).
		Msg("derived query")
	return q, nil
}

func (r *Repository) tree(method string) (query.PartTree, error) {
	if cached, ok := r.trees.Load(method); ok {
		return cached.(query.PartTree), nil
	}
	tree, err := query.ParsePartTree(method)
	if err != nil {
		return query.PartTree{}, err
	}
	actual, _ := r.trees.LoadOrStore(method, tree)
	return actual.(query.PartTree), nil
}
