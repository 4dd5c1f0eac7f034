package adapter

import (
	"context"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/document"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/mapping"
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/query"
)

// IDProperty is the sort property that orders by record identifier.
const IDProperty = "id"

// Execute runs q against the records of keyspace: identifiers are listed,
// filtered by the predicate, ordered, paged and then loaded. Records removed
// between listing and loading are skipped.
func Execute(ctx context.Context, loader KeyLoader, keyspace mapping.Keyspace, q query.KeyValueQuery) ([]*document.SecretDocument, error) {
	ids, err := matchingIDs(ctx, loader, keyspace, q)
	if err != nil {
		return nil, err
	}

	if sortsByIDOnly(q.Sort()) {
		sortIDs(ids, q.Sort())
		ids = page(ids, q.Offset(), q.Rows())
		return load(ctx, loader, keyspace, ids)
	}

	docs, err := load(ctx, loader, keyspace, ids)
	if err != nil {
		return nil, err
	}
	SortDocuments(docs, q.Sort())
	return page(docs, q.Offset(), q.Rows()), nil
}

// CountMatching counts records accepted by the predicate, ignoring paging.
func CountMatching(ctx context.Context, loader KeyLoader, keyspace mapping.Keyspace, q query.KeyValueQuery) (int, error) {
	ids, err := matchingIDs(ctx, loader, keyspace, q)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

func matchingIDs(ctx context.Context, loader KeyLoader, keyspace mapping.Keyspace, q query.KeyValueQuery) ([]string, error) {
	keys, err := loader.Keys(ctx, keyspace)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list keys of %s", keyspace)
	}
	ids := keys[:0:0]
	for _, id := range keys {
		if q.Test(id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func load(ctx context.Context, loader KeyLoader, keyspace mapping.Keyspace, ids []string) ([]*document.SecretDocument, error) {
	docs := make([]*document.SecretDocument, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := loader.Get(ctx, keyspace, id)
		if errors.Is(err, ErrDocumentNotFound) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "unable to load %s/%s", keyspace, id)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func sortsByIDOnly(sort query.Sort) bool {
	for _, order := range sort.Orders() {
		if order.Property != IDProperty {
			return false
		}
	}
	return true
}

func sortIDs(ids []string, sort query.Sort) {
	if sort.IsUnsorted() {
		return
	}
	orders := sort.Orders()
	slices.SortStableFunc(ids, func(a, b string) int {
		for _, order := range orders {
			if c := compare(a, b, order); c != 0 {
				return c
			}
		}
		return 0
	})
}

// SortDocuments orders docs by the sort properties: "id" compares
// identifiers, any other property compares the string form of the body
// field. Missing fields sort first.
func SortDocuments(docs []*document.SecretDocument, sort query.Sort) {
	if sort.IsUnsorted() {
		return
	}
	orders := sort.Orders()
	slices.SortStableFunc(docs, func(a, b *document.SecretDocument) int {
		for _, order := range orders {
			if c := compare(property(a, order.Property), property(b, order.Property), order); c != 0 {
				return c
			}
		}
		return 0
	})
}

func property(doc *document.SecretDocument, name string) string {
	if name == IDProperty {
		return doc.ID().UnwrapOr("")
	}
	s, _ := doc.GetString(name)
	return s
}

func compare(a, b string, order query.Order) int {
	if order.IgnoreCase {
		a, b = strings.ToLower(a), strings.ToLower(b)
	}
	c := strings.Compare(a, b)
	if order.IsDescending() {
		return -c
	}
	return c
}

func page[T any](items []T, offset, rows int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if rows >= 0 && rows < len(items) {
		items = items[:rows]
	}
	return items
}
