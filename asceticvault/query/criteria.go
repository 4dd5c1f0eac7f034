package query

// Predicate tests a candidate record identifier.
type Predicate interface {
	Test(candidate string) bool
}

type PredicateFunc func(candidate string) bool

func (f PredicateFunc) Test(candidate string) bool {
	return f(candidate)
}

// Criteria binds a parameter value to a comparison against candidates.
type Criteria[T any] struct {
	value     T
	predicate func(value T, candidate string) bool
}

func NewCriteria[T any](value T, predicate func(value T, candidate string) bool) Criteria[T] {
	return Criteria[T]{
		value:     value,
		predicate: predicate,
	}
}

func (c Criteria[T]) Value() T {
	return c.value
}

func (c Criteria[T]) Test(candidate string) bool {
	return c.predicate(c.value, candidate)
}

type andPredicate struct {
	left, right Predicate
}

func (p andPredicate) Test(candidate string) bool {
	return p.left.Test(candidate) && p.right.Test(candidate)
}

type orPredicate struct {
	left, right Predicate
}

func (p orPredicate) Test(candidate string) bool {
	return p.left.Test(candidate) || p.right.Test(candidate)
}

type notPredicate struct {
	predicate Predicate
}

func (p notPredicate) Test(candidate string) bool {
	return !p.predicate.Test(candidate)
}

// normalizedPredicate applies the accessor case policy to the candidate
// before the wrapped test.
type normalizedPredicate struct {
	accessor  CaseAccessor
	predicate Predicate
}

func (p normalizedPredicate) Test(candidate string) bool {
	return p.predicate.Test(p.accessor.Normalize(candidate))
}
