package query

import (
	"fmt"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/option"
)

// Unlimited is the Rows value of a query without a result cap.
const Unlimited = -1

// KeyValueQuery is the executable form of a derived query: optional
// criteria plus sort and paging.
type KeyValueQuery struct {
	criteria option.Option[VaultQuery]
	sort     Sort
	offset   int
	rows     int
}

func NewKeyValueQuery(criteria VaultQuery) KeyValueQuery {
	return KeyValueQuery{
		criteria: option.Some(criteria),
		rows:     Unlimited,
	}
}

// MatchAll returns a query without criteria.
func MatchAll() KeyValueQuery {
	return KeyValueQuery{
		criteria: option.Nothing[VaultQuery](),
		rows:     Unlimited,
	}
}

func (q KeyValueQuery) Criteria() option.Option[VaultQuery] {
	return q.criteria
}

func (q KeyValueQuery) Sort() Sort {
	return q.sort
}

func (q KeyValueQuery) Offset() int {
	return q.offset
}

func (q KeyValueQuery) Rows() int {
	return q.rows
}

func (q KeyValueQuery) IsLimited() bool {
	return q.rows >= 0
}

// OrderBy appends sort to the current ordering.
func (q KeyValueQuery) OrderBy(sort Sort) KeyValueQuery {
	q.sort = q.sort.And(sort)
	return q
}

func (q KeyValueQuery) Skip(offset int) KeyValueQuery {
	if offset < 0 {
		offset = 0
	}
	q.offset = offset
	return q
}

// Limit caps the result size; a negative value removes the cap.
func (q KeyValueQuery) Limit(rows int) KeyValueQuery {
	if rows < 0 {
		rows = Unlimited
	}
	q.rows = rows
	return q
}

// Test reports whether id satisfies the criteria. A query without criteria
// accepts every identifier.
func (q KeyValueQuery) Test(id string) bool {
	criteria, ok := q.criteria.Get()
	if !ok {
		return true
	}
	return criteria.Test(id)
}

func (q KeyValueQuery) String() string {
	criteria := "*"
	if c, ok := q.criteria.Get(); ok {
		criteria = fmt.Sprint(c.Properties())
	}
	return fmt.Sprintf("KeyValueQuery(criteria=%s sort=%s offset=%d rows=%d)", criteria, q.sort, q.offset, q.rows)
}
