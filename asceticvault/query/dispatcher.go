package query

import (
	"errors"
	"regexp"
	"slices"
	"strings"
)

// NewPredicate builds the predicate for a single part, consuming as many
// parameters as the part's keyword requires.
func NewPredicate(part Part, params *Parameters) (Predicate, error) {
	accessor := AccessorFor(part)
	predicate, err := from(part, accessor, params)
	if err != nil {
		var exhausted *ParameterExhaustionError
		if errors.As(err, &exhausted) && exhausted.Property == "" {
			exhausted.Property = part.Property()
		}
		return nil, err
	}
	if part.Type() == TypeRegex {
		// Case folding of a pattern is handled by the compiled flag.
		return predicate, nil
	}
	return normalizedPredicate{accessor: accessor, predicate: predicate}, nil
}

func from(part Part, accessor CaseAccessor, params *Parameters) (Predicate, error) {
	switch part.Type() {
	case TypeAfter, TypeGreaterThan:
		return stringCriteria(accessor, params, func(value, it string) bool {
			return it > value
		})
	case TypeGreaterThanEqual:
		return stringCriteria(accessor, params, func(value, it string) bool {
			return it >= value
		})
	case TypeBefore, TypeLessThan:
		return stringCriteria(accessor, params, func(value, it string) bool {
			return it < value
		})
	case TypeLessThanEqual:
		return stringCriteria(accessor, params, func(value, it string) bool {
			return it <= value
		})
	case TypeBetween:
		lower, err := accessor.NextString(params)
		if err != nil {
			return nil, err
		}
		upper, err := accessor.NextString(params)
		if err != nil {
			return nil, err
		}
		return PredicateFunc(func(it string) bool {
			return it >= lower && it <= upper
		}), nil
	case TypeNotIn:
		return arrayCriteria(accessor, params, func(values []string, it string) bool {
			return !containsSorted(values, it)
		})
	case TypeIn:
		return arrayCriteria(accessor, params, containsSorted)
	case TypeStartingWith:
		return stringCriteria(accessor, params, func(value, it string) bool {
			return strings.HasPrefix(it, value)
		})
	case TypeEndingWith:
		return stringCriteria(accessor, params, func(value, it string) bool {
			return strings.HasSuffix(it, value)
		})
	case TypeContaining:
		return stringCriteria(accessor, params, func(value, it string) bool {
			return strings.Contains(it, value)
		})
	case TypeNotContaining:
		return stringCriteria(accessor, params, func(value, it string) bool {
			return !strings.Contains(it, value)
		})
	case TypeRegex:
		return regexCriteria(part, params)
	case TypeTrue:
		return PredicateFunc(func(it string) bool {
			return strings.EqualFold(it, "true")
		}), nil
	case TypeFalse:
		return PredicateFunc(func(it string) bool {
			return strings.EqualFold(it, "false")
		}), nil
	case TypeSimpleProperty:
		return stringCriteria(accessor, params, func(value, it string) bool {
			return it == value
		})
	case TypeNegatingSimpleProperty:
		return stringCriteria(accessor, params, func(value, it string) bool {
			return it != value
		})
	default:
		return nil, &UnsupportedOperatorError{Type: part.Type(), Property: part.Property()}
	}
}

func stringCriteria(accessor CaseAccessor, params *Parameters, test func(value, it string) bool) (Predicate, error) {
	value, err := accessor.NextString(params)
	if err != nil {
		return nil, err
	}
	return NewCriteria(value, test), nil
}

func arrayCriteria(accessor CaseAccessor, params *Parameters, test func(values []string, it string) bool) (Predicate, error) {
	values, err := accessor.NextArray(params)
	if err != nil {
		return nil, err
	}
	slices.Sort(values)
	return NewCriteria(values, test), nil
}

func containsSorted(values []string, it string) bool {
	_, found := slices.BinarySearch(values, it)
	return found
}

// regexCriteria matches when the pattern is found anywhere in the candidate.
func regexCriteria(part Part, params *Parameters) (Predicate, error) {
	index, value, err := params.next()
	if err != nil {
		return nil, err
	}
	if isNil(value) {
		return nil, &InvalidParameterError{Index: index, Reason: "nil pattern"}
	}
	if re, ok := value.(*regexp.Regexp); ok && !part.ShouldIgnoreCase() {
		return PredicateFunc(re.MatchString), nil
	}
	pattern, err := stringify(index, value)
	if err != nil {
		return nil, err
	}
	expr := pattern
	if part.ShouldIgnoreCase() {
		expr = "(?i)" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &PatternCompilationError{Pattern: pattern, Err: err}
	}
	return PredicateFunc(re.MatchString), nil
}
