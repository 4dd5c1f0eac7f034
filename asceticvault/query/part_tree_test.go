package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePartTree(t *testing.T) {
	cases := []struct {
		method   string
		action   Action
		groups   [][]Part
		sort     []Order
		limit    int
		distinct bool
	}{
		{
			method: "findByIdStartingWith",
			groups: [][]Part{{NewPart("id", TypeStartingWith, IgnoreCaseNever)}},
			limit:  -1,
		},
		{
			method: "findByIdStartsWithIgnoreCase",
			groups: [][]Part{{NewPart("id", TypeStartingWith, IgnoreCaseAlways)}},
			limit:  -1,
		},
		{
			method: "findById",
			groups: [][]Part{{NewPart("id", TypeSimpleProperty, IgnoreCaseNever)}},
			limit:  -1,
		},
		{
			method: "readByIdIsNot",
			groups: [][]Part{{NewPart("id", TypeNegatingSimpleProperty, IgnoreCaseNever)}},
			limit:  -1,
		},
		{
			method: "findByIdBetweenAndIdNotIn",
			groups: [][]Part{{
				NewPart("id", TypeBetween, IgnoreCaseNever),
				NewPart("id", TypeNotIn, IgnoreCaseNever),
			}},
			limit: -1,
		},
		{
			method: "findByIdInOrIdMatchesRegex",
			groups: [][]Part{
				{NewPart("id", TypeIn, IgnoreCaseNever)},
				{NewPart("id", TypeRegex, IgnoreCaseNever)},
			},
			limit: -1,
		},
		{
			method: "findByIdLessThanEqualAndIdGreaterThanAllIgnoreCase",
			groups: [][]Part{{
				NewPart("id", TypeLessThanEqual, IgnoreCaseWhenPossible),
				NewPart("id", TypeGreaterThan, IgnoreCaseWhenPossible),
			}},
			limit: -1,
		},
		{
			method: "findTop3ByIdAfterOrderByIdDesc",
			groups: [][]Part{{NewPart("id", TypeAfter, IgnoreCaseNever)}},
			sort:   []Order{Descending("id")},
			limit:  3,
		},
		{
			method: "findFirstByIdIsTrue",
			groups: [][]Part{{NewPart("id", TypeTrue, IgnoreCaseNever)}},
			limit:  1,
		},
		{
			method:   "findDistinctByIdNear",
			groups:   [][]Part{{NewPart("id", TypeNear, IgnoreCaseNever)}},
			limit:    -1,
			distinct: true,
		},
		{
			method: "countByIdEndsWith",
			action: ActionCount,
			groups: [][]Part{{NewPart("id", TypeEndingWith, IgnoreCaseNever)}},
			limit:  -1,
		},
		{
			method: "existsByIdContaining",
			action: ActionExists,
			groups: [][]Part{{NewPart("id", TypeContaining, IgnoreCaseNever)}},
			limit:  -1,
		},
		{
			method: "removeByIdNotContaining",
			action: ActionDelete,
			groups: [][]Part{{NewPart("id", TypeNotContaining, IgnoreCaseNever)}},
			limit:  -1,
		},
		{
			method: "findAllByOrderByIdAscNameDesc",
			sort:   []Order{Ascending("id"), Descending("name")},
			limit:  -1,
		},
		{
			method: "findByDescriptionOrderByDescription",
			groups: [][]Part{{NewPart("description", TypeSimpleProperty, IgnoreCaseNever)}},
			sort:   []Order{Ascending("description")},
			limit:  -1,
		},
		{
			method: "findAll",
			limit:  -1,
		},
	}
	for _, c := range cases {
		t.Run(c.method, func(t *testing.T) {
			tree, err := ParsePartTree(c.method)
			require.NoError(t, err)

			assert.Equal(t, c.action, tree.Action())
			assert.Equal(t, c.distinct, tree.IsDistinct())
			assert.Equal(t, c.limit, tree.MaxResults().UnwrapOr(-1))
			assert.Equal(t, c.sort, tree.Sort().Orders())

			orParts := tree.OrParts()
			require.Len(t, orParts, len(c.groups))
			for i, group := range c.groups {
				assert.Equal(t, group, orParts[i].Parts())
			}
		})
	}
}

func TestParsePartTree_Errors(t *testing.T) {
	for _, method := range []string{
		"",
		"lookupById",
		"findByIdOrderByIdOrderByName",
		"findByIn",
		"countTop3ById",
	} {
		t.Run(method, func(t *testing.T) {
			_, err := ParsePartTree(method)
			var target *MethodNameError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, method, target.Method)
		})
	}
}

func TestPartTree_NumberOfArguments(t *testing.T) {
	tree, err := ParsePartTree("findByIdBetweenOrIdIsTrueOrIdIn")
	require.NoError(t, err)
	assert.Equal(t, 3, tree.NumberOfArguments())
	assert.Len(t, tree.Parts(), 3)
}

func TestPartType_Keywords(t *testing.T) {
	assert.Equal(t, "NEAR", TypeNear.String())
	assert.Equal(t, 2, TypeBetween.NumberOfArguments())
	assert.Equal(t, 0, TypeIsNull.NumberOfArguments())
	assert.Contains(t, TypeStartingWith.Keywords(), "StartsWith")
	assert.Equal(t, "PartType(99)", PartType(99).String())
}
