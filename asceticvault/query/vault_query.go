package query

// VaultQuery is an immutable predicate tree over record identifiers.
// And and Or return new queries and leave the receiver untouched.
type VaultQuery struct {
	predicate  Predicate
	properties []string
}

func NewVaultQuery(predicate Predicate, property string) VaultQuery {
	return VaultQuery{
		predicate:  predicate,
		properties: []string{property},
	}
}

func (q VaultQuery) And(predicate Predicate, property string) VaultQuery {
	return VaultQuery{
		predicate:  andPredicate{left: q.predicate, right: predicate},
		properties: joinProperties(q.properties, []string{property}),
	}
}

func (q VaultQuery) Or(other VaultQuery) VaultQuery {
	return VaultQuery{
		predicate:  orPredicate{left: q.predicate, right: other.predicate},
		properties: joinProperties(q.properties, other.properties),
	}
}

// Test evaluates the tree against id. The zero VaultQuery matches everything.
func (q VaultQuery) Test(id string) bool {
	if q.predicate == nil {
		return true
	}
	return q.predicate.Test(id)
}

// Properties lists the properties named by the conditions, in order.
func (q VaultQuery) Properties() []string {
	return append([]string(nil), q.properties...)
}

func joinProperties(left, right []string) []string {
	result := make([]string, 0, len(left)+len(right))
	result = append(result, left...)
	return append(result, right...)
}
