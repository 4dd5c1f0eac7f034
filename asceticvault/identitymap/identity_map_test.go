package identitymap

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type secret struct {
	ID string
}

type secretKey struct {
	Keyspace string
	ID       string
}

func TestGet(t *testing.T) {
	im := New[secretKey, *secret](100, Serializable)
	obj := &secret{ID: "db"}
	key := secretKey{"secret/app", "db"}
	im.Add(key, obj)

	result, err := im.Get(key)
	require.NoError(t, err)
	assert.Same(t, obj, result)

	_, err = im.Get(secretKey{"secret/app", "web"})
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestGetLruEviction(t *testing.T) {
	im := New[secretKey, *secret](1, Serializable)
	key := secretKey{"s", "a"}
	im.Add(key, &secret{ID: "a"})
	im.Add(secretKey{"s", "b"}, &secret{ID: "b"})

	_, err := im.Get(key)
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Equal(t, 1, im.Len())
}

func TestLruTouchOnGet(t *testing.T) {
	im := New[secretKey, *secret](2, Serializable)
	a, b, c := secretKey{"s", "a"}, secretKey{"s", "b"}, secretKey{"s", "c"}
	im.Add(a, &secret{ID: "a"})
	im.Add(b, &secret{ID: "b"})
	_, _ = im.Get(a)
	im.Add(c, &secret{ID: "c"})

	assert.True(t, im.Has(a))
	assert.False(t, im.Has(b))
	assert.True(t, im.Has(c))
}

func TestSerializable_AddAbsent(t *testing.T) {
	im := New[secretKey, *secret](10, Serializable)
	key := secretKey{"s", "missing"}
	im.AddAbsent(key)

	assert.True(t, im.Has(key))
	_, err := im.Get(key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestRepeatableReads_IgnoresAbsent(t *testing.T) {
	im := New[secretKey, *secret](10, RepeatableReads)
	key := secretKey{"s", "missing"}
	im.AddAbsent(key)

	assert.False(t, im.Has(key))
	_, err := im.Get(key)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	im.Add(key, &secret{ID: "missing"})
	assert.True(t, im.Has(key))
}

func TestDisabledLevels(t *testing.T) {
	for _, level := range []IsolationLevel{ReadUncommitted, ReadCommitted} {
		im := New[secretKey, *secret](10, level)
		key := secretKey{"s", "a"}
		im.Add(key, &secret{ID: "a"})
		assert.False(t, im.Has(key))
		_, err := im.Get(key)
		assert.ErrorIs(t, err, ErrKeyNotFound)
	}
}

func TestRemoveAndRemoveFunc(t *testing.T) {
	im := New[secretKey, *secret](10, Serializable)
	im.Add(secretKey{"one", "a"}, &secret{ID: "a"})
	im.Add(secretKey{"one", "b"}, &secret{ID: "b"})
	im.Add(secretKey{"two", "a"}, &secret{ID: "a"})

	im.Remove(secretKey{"one", "a"})
	assert.False(t, im.Has(secretKey{"one", "a"}))

	im.RemoveFunc(func(k secretKey) bool { return k.Keyspace == "one" })
	assert.Equal(t, 1, im.Len())
	assert.True(t, im.Has(secretKey{"two", "a"}))

	im.Clear()
	assert.Equal(t, 0, im.Len())
}

func TestSetSizeEvicts(t *testing.T) {
	im := New[secretKey, *secret](3, Serializable)
	for _, id := range []string{"a", "b", "c"} {
		im.Add(secretKey{"s", id}, &secret{ID: id})
	}
	im.SetSize(1)
	assert.Equal(t, 1, im.Len())
	assert.True(t, im.Has(secretKey{"s", "c"}))
}

func TestParseIsolationLevel(t *testing.T) {
	cases := map[string]IsolationLevel{
		"serializable":     Serializable,
		"repeatable_reads": RepeatableReads,
		"read-committed":   ReadCommitted,
		"":                 ReadCommitted,
	}
	for in, expected := range cases {
		level, err := ParseIsolationLevel(in)
		require.NoError(t, err)
		assert.Equal(t, expected, level, in)
	}
	_, err := ParseIsolationLevel("chaos")
	assert.Error(t, err)
}

func TestConcurrentAccess(t *testing.T) {
	im := New[secretKey, *secret](16, Serializable)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := secretKey{"s", string(rune('a' + i%8))}
			im.Add(key, &secret{ID: key.ID})
			_, _ = im.Get(key)
			im.Remove(key)
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, im.Len(), 16)
}
