package query

import (
	"github.com/krew-solutions/ascetic-vault-go/asceticvault/option"
)

// Creator turns a PartTree and its bound parameters into a KeyValueQuery.
type Creator struct {
	tree   PartTree
	values []any
}

func NewCreator(tree PartTree, values ...any) *Creator {
	return &Creator{
		tree:   tree,
		values: values,
	}
}

func (c *Creator) Create(part Part, params *Parameters) (VaultQuery, error) {
	predicate, err := NewPredicate(part, params)
	if err != nil {
		return VaultQuery{}, err
	}
	return NewVaultQuery(predicate, part.Property()), nil
}

// And extends base with part. An absent base behaves like Create.
func (c *Creator) And(part Part, base option.Option[VaultQuery], params *Parameters) (VaultQuery, error) {
	query, ok := base.Get()
	if !ok {
		return c.Create(part, params)
	}
	predicate, err := NewPredicate(part, params)
	if err != nil {
		return VaultQuery{}, err
	}
	return query.And(predicate, part.Property()), nil
}

func (c *Creator) Or(base, criteria VaultQuery) VaultQuery {
	return base.Or(criteria)
}

// CreateQuery folds the tree: parts of each group with AND, groups with
// OR. The static ordering of the method name precedes dynamicSort. Each call
// reads the bound values from the first position.
func (c *Creator) CreateQuery(dynamicSort Sort) (KeyValueQuery, error) {
	params := NewParameters(c.values...)
	criteria := option.Nothing[VaultQuery]()
	for _, orPart := range c.tree.OrParts() {
		group := option.Nothing[VaultQuery]()
		for _, part := range orPart.Parts() {
			query, err := c.And(part, group, params)
			if err != nil {
				return KeyValueQuery{}, err
			}
			group = option.Some(query)
		}
		next, ok := group.Get()
		if !ok {
			continue
		}
		if base, ok := criteria.Get(); ok {
			criteria = option.Some(c.Or(base, next))
		} else {
			criteria = option.Some(next)
		}
	}
	return c.complete(criteria, c.tree.Sort().And(dynamicSort)), nil
}

func (c *Creator) complete(criteria option.Option[VaultQuery], sort Sort) KeyValueQuery {
	query := MatchAll()
	if vq, ok := criteria.Get(); ok {
		query = NewKeyValueQuery(vq)
	}
	query = query.OrderBy(sort)
	if n, ok := c.tree.MaxResults().Get(); ok {
		query = query.Limit(n)
	}
	return query
}
