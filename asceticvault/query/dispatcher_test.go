package query

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"
)

func mustPredicate(t *testing.T, part Part, values ...any) Predicate {
	t.Helper()
	p, err := NewPredicate(part, NewParameters(values...))
	require.NoError(t, err)
	return p
}

func TestNewPredicate_Ordering(t *testing.T) {
	cases := []struct {
		a, b string
	}{
		{"a", "b"},
		{"", "a"},
		{"secret/app1", "secret/app2"},
		{"A", "a"},
	}
	for _, c := range cases {
		t.Run(c.a+"<"+c.b, func(t *testing.T) {
			gt := mustPredicate(t, NewPart("id", TypeGreaterThan, IgnoreCaseNever), c.a)
			assert.False(t, gt.Test(c.a))
			assert.True(t, gt.Test(c.b))

			lt := mustPredicate(t, NewPart("id", TypeLessThan, IgnoreCaseNever), c.b)
			assert.True(t, lt.Test(c.a))
			assert.False(t, lt.Test(c.b))

			after := mustPredicate(t, NewPart("id", TypeAfter, IgnoreCaseNever), c.a)
			assert.True(t, after.Test(c.b))
			before := mustPredicate(t, NewPart("id", TypeBefore, IgnoreCaseNever), c.b)
			assert.True(t, before.Test(c.a))

			gte := mustPredicate(t, NewPart("id", TypeGreaterThanEqual, IgnoreCaseNever), c.a)
			assert.True(t, gte.Test(c.a))
			assert.True(t, gte.Test(c.b))
			lte := mustPredicate(t, NewPart("id", TypeLessThanEqual, IgnoreCaseNever), c.a)
			assert.True(t, lte.Test(c.a))
			assert.False(t, lte.Test(c.b))
		})
	}
}

func TestNewPredicate_BetweenIncludesEndpoints(t *testing.T) {
	p := mustPredicate(t, NewPart("id", TypeBetween, IgnoreCaseNever), "a", "c")
	for _, in := range []string{"a", "b", "c"} {
		assert.True(t, p.Test(in), in)
	}
	for _, out := range []string{"", "d"} {
		assert.False(t, p.Test(out), out)
	}
}

func TestNewPredicate_InAndNotInAreComplements(t *testing.T) {
	values := []string{"z", "x", "y"}
	in := mustPredicate(t, NewPart("id", TypeIn, IgnoreCaseNever), values)
	notIn := mustPredicate(t, NewPart("id", TypeNotIn, IgnoreCaseNever), values)

	for _, v := range values {
		assert.True(t, in.Test(v), v)
		assert.False(t, notIn.Test(v), v)
	}
	for i := 0; i < 200; i++ {
		candidate := faker.Lorem().Characters(faker.RandomInt(0, 3))
		assert.NotEqual(t, in.Test(candidate), notIn.Test(candidate), candidate)
	}
	assert.Equal(t, []string{"z", "x", "y"}, values)
}

func TestNewPredicate_InAcceptsCollections(t *testing.T) {
	cases := []struct {
		name  string
		value any
	}{
		{"strings", []string{"b", "a"}},
		{"any", []any{"b", "a"}},
		{"array", [2]string{"b", "a"}},
		{"ints", []int{1, 2}},
		{"scalar", "a"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := mustPredicate(t, NewPart("id", TypeIn, IgnoreCaseNever), c.value)
			assert.False(t, p.Test("c"))
		})
	}
	ints := mustPredicate(t, NewPart("id", TypeIn, IgnoreCaseNever), []int{10, 2})
	assert.True(t, ints.Test("10"))
	assert.True(t, ints.Test("2"))
}

func TestNewPredicate_IgnoreCaseStartingWith(t *testing.T) {
	p := mustPredicate(t, NewPart("id", TypeStartingWith, IgnoreCaseAlways), "Foo")
	assert.True(t, p.Test("foobar"))
	assert.True(t, p.Test("FOOBAR"))
	assert.False(t, p.Test("barfoo"))
}

func TestNewPredicate_StringOperators(t *testing.T) {
	cases := []struct {
		typ       PartType
		value     string
		candidate string
		expected  bool
	}{
		{TypeStartingWith, "secret/", "secret/app", true},
		{TypeStartingWith, "secret/", "SECRET/app", false},
		{TypeEndingWith, "/db", "app/db", true},
		{TypeEndingWith, "/db", "app/web", false},
		{TypeContaining, "pp", "app", true},
		{TypeContaining, "x", "app", false},
		{TypeNotContaining, "x", "app", true},
		{TypeNotContaining, "pp", "app", false},
		{TypeSimpleProperty, "app", "app", true},
		{TypeSimpleProperty, "app", "App", false},
		{TypeNegatingSimpleProperty, "app", "App", true},
		{TypeNegatingSimpleProperty, "app", "app", false},
	}
	for _, c := range cases {
		t.Run(c.typ.String()+"/"+c.candidate, func(t *testing.T) {
			p := mustPredicate(t, NewPart("id", c.typ, IgnoreCaseNever), c.value)
			assert.Equal(t, c.expected, p.Test(c.candidate))
		})
	}
}

func TestNewPredicate_TrueAndFalse(t *testing.T) {
	isTrue := mustPredicate(t, NewPart("id", TypeTrue, IgnoreCaseNever))
	isFalse := mustPredicate(t, NewPart("id", TypeFalse, IgnoreCaseNever))

	for _, s := range []string{"true", "TRUE", "True", "tRuE"} {
		assert.True(t, isTrue.Test(s), s)
		assert.False(t, isFalse.Test(s), s)
	}
	for _, s := range []string{"false", "FALSE", "False"} {
		assert.True(t, isFalse.Test(s), s)
		assert.False(t, isTrue.Test(s), s)
	}
	for _, s := range []string{"1", "0", "yes", "no", "", " true"} {
		assert.False(t, isTrue.Test(s), s)
		assert.False(t, isFalse.Test(s), s)
	}
}

func TestNewPredicate_TrueConsumesNoParameters(t *testing.T) {
	params := NewParameters("unused")
	_, err := NewPredicate(NewPart("id", TypeTrue, IgnoreCaseNever), params)
	require.NoError(t, err)
	assert.Equal(t, 1, params.Remaining())
}

func TestNewPredicate_Regex(t *testing.T) {
	p := mustPredicate(t, NewPart("id", TypeRegex, IgnoreCaseNever), `app\d`)
	assert.True(t, p.Test("secret/app1/db"))
	assert.False(t, p.Test("secret/APP1"))

	folded := mustPredicate(t, NewPart("id", TypeRegex, IgnoreCaseAlways), `^App\d$`)
	assert.True(t, folded.Test("APP1"))
	assert.True(t, folded.Test("app1"))
	assert.False(t, folded.Test("xapp1"))

	compiled := mustPredicate(t, NewPart("id", TypeRegex, IgnoreCaseNever), regexp.MustCompile(`^a+$`))
	assert.True(t, compiled.Test("aaa"))
}

func TestNewPredicate_RegexCompilationError(t *testing.T) {
	_, err := NewPredicate(NewPart("id", TypeRegex, IgnoreCaseNever), NewParameters("a("))
	var target *PatternCompilationError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "a(", target.Pattern)
	assert.Error(t, target.Unwrap())
}

func TestNewPredicate_Unsupported(t *testing.T) {
	unsupported := []PartType{
		TypeNear, TypeWithin, TypeIsNull, TypeIsNotNull, TypeLike,
		TypeNotLike, TypeIsEmpty, TypeIsNotEmpty, TypeExists,
	}
	for _, typ := range unsupported {
		t.Run(typ.String(), func(t *testing.T) {
			p, err := NewPredicate(NewPart("location", typ, IgnoreCaseNever), NewParameters("x", "y"))
			assert.Nil(t, p)
			var target *UnsupportedOperatorError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, typ, target.Type)
			assert.Equal(t, "location", target.Property)
		})
	}
}

func TestNewPredicate_ParameterExhaustion(t *testing.T) {
	_, err := NewPredicate(NewPart("id", TypeBetween, IgnoreCaseNever), NewParameters("a"))
	var target *ParameterExhaustionError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, "id", target.Property)
	assert.Equal(t, 1, target.Index)
}

func TestNewPredicate_NilParameter(t *testing.T) {
	_, err := NewPredicate(NewPart("id", TypeSimpleProperty, IgnoreCaseNever), NewParameters(nil))
	var target *InvalidParameterError
	require.ErrorAs(t, err, &target)
	assert.Equal(t, 0, target.Index)
}

func TestNewPredicate_TypedNilParameter(t *testing.T) {
	cases := []struct {
		name  string
		typ   PartType
		value any
	}{
		{"nil stringer", TypeSimpleProperty, (*regexp.Regexp)(nil)},
		{"nil pattern", TypeRegex, (*regexp.Regexp)(nil)},
		{"nil pointer", TypeStartingWith, (*string)(nil)},
		{"nil collection", TypeIn, []string(nil)},
		{"nil element", TypeIn, []*string{nil}},
		{"nil interface element", TypeNotIn, []any{"a", (*int)(nil)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p Predicate
			var err error
			require.NotPanics(t, func() {
				p, err = NewPredicate(NewPart("id", tc.typ, IgnoreCaseNever), NewParameters(tc.value))
			})
			assert.Nil(t, p)
			var target *InvalidParameterError
			require.ErrorAs(t, err, &target)
			assert.Equal(t, 0, target.Index)
		})
	}
}
