package query

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PartType is the keyword of a single property condition.
type PartType int

// The order matches keyword resolution order: the first type whose keyword
// terminates a condition wins, so longer keywords precede their suffixes.
const (
	TypeBetween PartType = iota
	TypeIsNotNull
	TypeIsNull
	TypeLessThan
	TypeLessThanEqual
	TypeGreaterThan
	TypeGreaterThanEqual
	TypeBefore
	TypeAfter
	TypeNotLike
	TypeLike
	TypeStartingWith
	TypeEndingWith
	TypeIsNotEmpty
	TypeIsEmpty
	TypeNotContaining
	TypeContaining
	TypeNotIn
	TypeIn
	TypeNear
	TypeWithin
	TypeRegex
	TypeExists
	TypeTrue
	TypeFalse
	TypeNegatingSimpleProperty
	TypeSimpleProperty
)

type partTypeInfo struct {
	typ       PartType
	name      string
	arguments int
	keywords  []string
}

var partTypes = []partTypeInfo{
	{TypeBetween, "BETWEEN", 2, []string{"IsBetween", "Between"}},
	{TypeIsNotNull, "IS_NOT_NULL", 0, []string{"IsNotNull", "NotNull"}},
	{TypeIsNull, "IS_NULL", 0, []string{"IsNull", "Null"}},
	{TypeLessThan, "LESS_THAN", 1, []string{"IsLessThan", "LessThan"}},
	{TypeLessThanEqual, "LESS_THAN_EQUAL", 1, []string{"IsLessThanEqual", "LessThanEqual"}},
	{TypeGreaterThan, "GREATER_THAN", 1, []string{"IsGreaterThan", "GreaterThan"}},
	{TypeGreaterThanEqual, "GREATER_THAN_EQUAL", 1, []string{"IsGreaterThanEqual", "GreaterThanEqual"}},
	{TypeBefore, "BEFORE", 1, []string{"IsBefore", "Before"}},
	{TypeAfter, "AFTER", 1, []string{"IsAfter", "After"}},
	{TypeNotLike, "NOT_LIKE", 1, []string{"IsNotLike", "NotLike"}},
	{TypeLike, "LIKE", 1, []string{"IsLike", "Like"}},
	{TypeStartingWith, "STARTING_WITH", 1, []string{"IsStartingWith", "StartingWith", "StartsWith"}},
	{TypeEndingWith, "ENDING_WITH", 1, []string{"IsEndingWith", "EndingWith", "EndsWith"}},
	{TypeIsNotEmpty, "IS_NOT_EMPTY", 0, []string{"IsNotEmpty", "NotEmpty"}},
	{TypeIsEmpty, "IS_EMPTY", 0, []string{"IsEmpty", "Empty"}},
	{TypeNotContaining, "NOT_CONTAINING", 1, []string{"IsNotContaining", "NotContaining", "NotContains"}},
	{TypeContaining, "CONTAINING", 1, []string{"IsContaining", "Containing", "Contains"}},
	{TypeNotIn, "NOT_IN", 1, []string{"IsNotIn", "NotIn"}},
	{TypeIn, "IN", 1, []string{"IsIn", "In"}},
	{TypeNear, "NEAR", 1, []string{"IsNear", "Near"}},
	{TypeWithin, "WITHIN", 1, []string{"IsWithin", "Within"}},
	{TypeRegex, "REGEX", 1, []string{"MatchesRegex", "Matches", "Regex"}},
	{TypeExists, "EXISTS", 0, []string{"Exists"}},
	{TypeTrue, "TRUE", 0, []string{"IsTrue", "True"}},
	{TypeFalse, "FALSE", 0, []string{"IsFalse", "False"}},
	{TypeNegatingSimpleProperty, "NEGATING_SIMPLE_PROPERTY", 1, []string{"IsNot", "Not"}},
	{TypeSimpleProperty, "SIMPLE_PROPERTY", 1, []string{"Is", "Equals"}},
}

func (t PartType) info() (partTypeInfo, bool) {
	if t < 0 || int(t) >= len(partTypes) {
		return partTypeInfo{}, false
	}
	return partTypes[t], true
}

func (t PartType) String() string {
	if info, ok := t.info(); ok {
		return info.name
	}
	return fmt.Sprintf("PartType(%d)", int(t))
}

// NumberOfArguments is the count of positional parameters the keyword binds.
func (t PartType) NumberOfArguments() int {
	if info, ok := t.info(); ok {
		return info.arguments
	}
	return 0
}

// Keywords lists the method-name spellings of the type, longest first.
func (t PartType) Keywords() []string {
	if info, ok := t.info(); ok {
		return append([]string(nil), info.keywords...)
	}
	return nil
}

// partTypeFromCondition resolves the keyword terminating a condition such as
// "IdStartingWith" and returns the type together with the remaining property.
func partTypeFromCondition(condition string) (PartType, string) {
	for _, info := range partTypes {
		for _, keyword := range info.keywords {
			if strings.HasSuffix(condition, keyword) {
				return info.typ, strings.TrimSuffix(condition, keyword)
			}
		}
	}
	return TypeSimpleProperty, condition
}

type IgnoreCaseType int

const (
	IgnoreCaseNever IgnoreCaseType = iota
	IgnoreCaseAlways
	// IgnoreCaseWhenPossible is set by a trailing AllIgnoreCase.
	IgnoreCaseWhenPossible
)

func (t IgnoreCaseType) String() string {
	switch t {
	case IgnoreCaseNever:
		return "NEVER"
	case IgnoreCaseAlways:
		return "ALWAYS"
	case IgnoreCaseWhenPossible:
		return "WHEN_POSSIBLE"
	default:
		return fmt.Sprintf("IgnoreCaseType(%d)", int(t))
	}
}

// Part is one property condition: the target property, the keyword and the
// case handling. The property is kept for diagnostics; every predicate is
// evaluated against the record identifier.
type Part struct {
	property   string
	typ        PartType
	ignoreCase IgnoreCaseType
}

func NewPart(property string, typ PartType, ignoreCase IgnoreCaseType) Part {
	return Part{
		property:   property,
		typ:        typ,
		ignoreCase: ignoreCase,
	}
}

func (p Part) Property() string {
	return p.property
}

func (p Part) Type() PartType {
	return p.typ
}

func (p Part) IgnoreCase() IgnoreCaseType {
	return p.ignoreCase
}

func (p Part) ShouldIgnoreCase() bool {
	return p.ignoreCase != IgnoreCaseNever
}

func (p Part) NumberOfArguments() int {
	return p.typ.NumberOfArguments()
}

func (p Part) String() string {
	return fmt.Sprintf("Part(%s %s %s)", p.property, p.typ, p.ignoreCase)
}

// OrPart is a condition group: its parts are joined with AND.
type OrPart struct {
	parts []Part
}

func NewOrPart(parts ...Part) OrPart {
	return OrPart{parts: append([]Part(nil), parts...)}
}

func (o OrPart) Parts() []Part {
	return append([]Part(nil), o.parts...)
}

func (o OrPart) String() string {
	items := make([]string, len(o.parts))
	for i, part := range o.parts {
		items[i] = part.String()
	}
	return strings.Join(items, " AND ")
}

func uncapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
