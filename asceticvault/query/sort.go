package query

import (
	"fmt"
	"strings"
)

type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	default:
		return Asc, fmt.Errorf("invalid sort direction %q", s)
	}
}

type Order struct {
	Property   string
	Direction  Direction
	IgnoreCase bool
}

func Ascending(property string) Order {
	return Order{Property: property, Direction: Asc}
}

func Descending(property string) Order {
	return Order{Property: property, Direction: Desc}
}

func (o Order) IsDescending() bool {
	return o.Direction == Desc
}

func (o Order) String() string {
	s := o.Property + ": " + o.Direction.String()
	if o.IgnoreCase {
		s += " (ignore case)"
	}
	return s
}

// Sort is an ordering specification. The zero value is unsorted.
type Sort struct {
	orders []Order
}

func Unsorted() Sort {
	return Sort{}
}

func By(orders ...Order) Sort {
	return Sort{orders: append([]Order(nil), orders...)}
}

func (s Sort) Orders() []Order {
	return append([]Order(nil), s.orders...)
}

func (s Sort) IsUnsorted() bool {
	return len(s.orders) == 0
}

// And returns a Sort with the orders of other appended to s.
func (s Sort) And(other Sort) Sort {
	if other.IsUnsorted() {
		return s
	}
	if s.IsUnsorted() {
		return other
	}
	orders := make([]Order, 0, len(s.orders)+len(other.orders))
	orders = append(orders, s.orders...)
	orders = append(orders, other.orders...)
	return Sort{orders: orders}
}

func (s Sort) String() string {
	if s.IsUnsorted() {
		return "UNSORTED"
	}
	items := make([]string, len(s.orders))
	for i, order := range s.orders {
		items[i] = order.String()
	}
	return strings.Join(items, ", ")
}

// ParseSort reads "property[,asc|desc]" clauses separated by ";",
// e.g. "id,desc;name".
func ParseSort(expr string) (Sort, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Unsorted(), nil
	}
	var orders []Order
	for _, clause := range strings.Split(expr, ";") {
		property, direction, _ := strings.Cut(strings.TrimSpace(clause), ",")
		property = strings.TrimSpace(property)
		if property == "" {
			return Unsorted(), fmt.Errorf("empty sort property in %q", expr)
		}
		dir, err := ParseDirection(direction)
		if err != nil {
			return Unsorted(), err
		}
		orders = append(orders, Order{Property: property, Direction: dir})
	}
	return By(orders...), nil
}
