package query

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/krew-solutions/ascetic-vault-go/asceticvault/option"
)

type Action int

const (
	ActionFind Action = iota
	ActionCount
	ActionExists
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCount:
		return "count"
	case ActionExists:
		return "exists"
	case ActionDelete:
		return "delete"
	default:
		return "find"
	}
}

var (
	prefixPattern     = regexp.MustCompile(`^(find|read|get|query|search|stream|count|exists|delete|remove)(\p{Lu}.*?)??By`)
	bareSubject       = regexp.MustCompile(`^(find|read|get|query|search|stream|count|exists|delete|remove)(\p{Lu}\w*)?$`)
	limitingPattern   = regexp.MustCompile(`(First|Top)(\d*)?`)
	allIgnoreCase     = regexp.MustCompile(`AllIgnor(ing|e)Case`)
	partIgnoreCase    = regexp.MustCompile(`Ignor(ing|e)Case`)
	orderByKeyword    = "OrderBy"
	directionKeywords = []string{"Desc", "Asc"}
)

// PartTree is the parsed form of a derived query method name: a subject
// (action, distinct, result limit), OR groups of AND-ed parts, and a static
// ordering.
type PartTree struct {
	action     Action
	distinct   bool
	maxResults option.Option[int]
	orParts    []OrPart
	sort       Sort
}

// NewPartTree builds a find tree from condition groups.
func NewPartTree(orParts ...OrPart) PartTree {
	return PartTree{
		action:     ActionFind,
		maxResults: option.Nothing[int](),
		orParts:    append([]OrPart(nil), orParts...),
	}
}

func (t PartTree) WithSort(sort Sort) PartTree {
	t.sort = sort
	return t
}

func (t PartTree) WithMaxResults(n int) PartTree {
	t.maxResults = option.Some(n)
	return t
}

func (t PartTree) WithAction(action Action) PartTree {
	t.action = action
	return t
}

func (t PartTree) Action() Action {
	return t.action
}

func (t PartTree) IsDistinct() bool {
	return t.distinct
}

func (t PartTree) IsCountProjection() bool {
	return t.action == ActionCount
}

func (t PartTree) IsExistsProjection() bool {
	return t.action == ActionExists
}

func (t PartTree) IsDelete() bool {
	return t.action == ActionDelete
}

func (t PartTree) MaxResults() option.Option[int] {
	return t.maxResults
}

func (t PartTree) OrParts() []OrPart {
	return append([]OrPart(nil), t.orParts...)
}

func (t PartTree) Sort() Sort {
	return t.sort
}

// Parts flattens every group in order.
func (t PartTree) Parts() []Part {
	var parts []Part
	for _, orPart := range t.orParts {
		parts = append(parts, orPart.parts...)
	}
	return parts
}

// NumberOfArguments is the count of parameters a caller must bind.
func (t PartTree) NumberOfArguments() int {
	n := 0
	for _, part := range t.Parts() {
		n += part.NumberOfArguments()
	}
	return n
}

// ParsePartTree parses names such as "findTop3ByIdStartingWithIgnoreCaseOrderByIdDesc".
func ParsePartTree(method string) (PartTree, error) {
	tree := NewPartTree()
	match := prefixPattern.FindStringSubmatchIndex(method)
	if match == nil {
		sub := bareSubject.FindStringSubmatch(method)
		if sub == nil {
			return PartTree{}, &MethodNameError{Method: method, Reason: "no recognised prefix"}
		}
		if err := tree.parseSubject(method, sub[1], sub[2]); err != nil {
			return PartTree{}, err
		}
		return tree, nil
	}
	verb := method[match[2]:match[3]]
	subject := ""
	if match[4] >= 0 {
		subject = method[match[4]:match[5]]
	}
	if err := tree.parseSubject(method, verb, subject); err != nil {
		return PartTree{}, err
	}
	if err := tree.parsePredicate(method, method[match[1]:]); err != nil {
		return PartTree{}, err
	}
	return tree, nil
}

func (t *PartTree) parseSubject(method, verb, subject string) error {
	switch verb {
	case "count":
		t.action = ActionCount
	case "exists":
		t.action = ActionExists
	case "delete", "remove":
		t.action = ActionDelete
	default:
		t.action = ActionFind
	}
	t.distinct = strings.Contains(subject, "Distinct")
	if m := limitingPattern.FindStringSubmatch(subject); m != nil {
		if t.action == ActionCount || t.action == ActionExists {
			return &MethodNameError{Method: method, Reason: "result limit on a " + t.action.String() + " projection"}
		}
		n := 1
		if m[2] != "" {
			var err error
			if n, err = strconv.Atoi(m[2]); err != nil {
				return &MethodNameError{Method: method, Reason: "invalid result limit " + m[2]}
			}
		}
		t.maxResults = option.Some(n)
	}
	return nil
}

func (t *PartTree) parsePredicate(method, source string) error {
	alwaysIgnoreCase := false
	if allIgnoreCase.MatchString(source) {
		alwaysIgnoreCase = true
		source = allIgnoreCase.ReplaceAllString(source, "")
	}
	sections := splitKeyword(source, orderByKeyword)
	if len(sections) > 2 {
		return &MethodNameError{Method: method, Reason: "OrderBy used more than once"}
	}
	if len(sections) == 2 {
		sort, err := parseOrderBy(method, sections[1])
		if err != nil {
			return err
		}
		t.sort = sort
	}
	if sections[0] == "" {
		return nil
	}
	for _, orSource := range splitKeyword(sections[0], "Or") {
		var parts []Part
		for _, condition := range splitKeyword(orSource, "And") {
			part, err := parsePart(method, condition, alwaysIgnoreCase)
			if err != nil {
				return err
			}
			parts = append(parts, part)
		}
		t.orParts = append(t.orParts, OrPart{parts: parts})
	}
	return nil
}

func parsePart(method, condition string, alwaysIgnoreCase bool) (Part, error) {
	ignoreCase := IgnoreCaseNever
	if loc := partIgnoreCase.FindStringIndex(condition); loc != nil {
		ignoreCase = IgnoreCaseAlways
		condition = condition[:loc[0]] + condition[loc[1]:]
	}
	if alwaysIgnoreCase && ignoreCase != IgnoreCaseAlways {
		ignoreCase = IgnoreCaseWhenPossible
	}
	typ, property := partTypeFromCondition(condition)
	if property == "" {
		return Part{}, &MethodNameError{Method: method, Reason: "missing property in " + strconv.Quote(condition)}
	}
	return NewPart(uncapitalize(property), typ, ignoreCase), nil
}

// parseOrderBy reads blocks like "IdDescNameAsc". A block without a
// direction is ascending.
func parseOrderBy(method, source string) (Sort, error) {
	if source == "" {
		return Sort{}, &MethodNameError{Method: method, Reason: "empty OrderBy clause"}
	}
	var orders []Order
	start := 0
	for i := 0; i < len(source); {
		keyword := directionAt(source, i)
		if keyword == "" || i == start {
			i++
			continue
		}
		end := i + len(keyword)
		if end < len(source) && !startsUpper(source[end:]) {
			i++
			continue
		}
		direction := Asc
		if keyword == "Desc" {
			direction = Desc
		}
		orders = append(orders, Order{Property: uncapitalize(source[start:i]), Direction: direction})
		start = end
		i = end
	}
	if start < len(source) {
		orders = append(orders, Ascending(uncapitalize(source[start:])))
	}
	return By(orders...), nil
}

func directionAt(s string, i int) string {
	for _, keyword := range directionKeywords {
		if strings.HasPrefix(s[i:], keyword) {
			return keyword
		}
	}
	return ""
}

// splitKeyword splits on keyword when it is followed by an upper-case letter.
func splitKeyword(s, keyword string) []string {
	var result []string
	start := 0
	for i := 0; i <= len(s)-len(keyword); {
		end := i + len(keyword)
		if s[i:end] == keyword && end < len(s) && startsUpper(s[end:]) {
			result = append(result, s[start:i])
			start = end
			i = end
			continue
		}
		i++
	}
	return append(result, s[start:])
}

func startsUpper(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}
