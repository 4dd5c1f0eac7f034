package identitymap

type isolationStrategy[K comparable, V any] interface {
	add(key K, value V)
	addAbsent(key K)
	get(key K) (V, error)
	has(key K) bool
}

// disabledStrategy caches nothing.
type disabledStrategy[K comparable, V any] struct{}

func (disabledStrategy[K, V]) add(K, V)    {}
func (disabledStrategy[K, V]) addAbsent(K) {}
func (disabledStrategy[K, V]) has(K) bool  { return false }
func (disabledStrategy[K, V]) get(K) (V, error) {
	var zero V
	return zero, ErrKeyNotFound
}

// repeatableReadsStrategy caches existent objects only.
type repeatableReadsStrategy[K comparable, V any] struct {
	cache *lruCache[K, V]
}

func (s repeatableReadsStrategy[K, V]) add(key K, value V) {
	s.cache.add(key, value, false)
}

func (s repeatableReadsStrategy[K, V]) addAbsent(K) {}

func (s repeatableReadsStrategy[K, V]) get(key K) (V, error) {
	entry, ok := s.cache.get(key)
	if !ok || entry.absent {
		var zero V
		return zero, ErrKeyNotFound
	}
	return entry.value, nil
}

func (s repeatableReadsStrategy[K, V]) has(key K) bool {
	entry, ok := s.cache.get(key)
	return ok && !entry.absent
}

// serializableStrategy caches both existent and nonexistent objects.
type serializableStrategy[K comparable, V any] struct {
	cache *lruCache[K, V]
}

func (s serializableStrategy[K, V]) add(key K, value V) {
	s.cache.add(key, value, false)
}

func (s serializableStrategy[K, V]) addAbsent(key K) {
	var zero V
	s.cache.add(key, zero, true)
}

func (s serializableStrategy[K, V]) get(key K) (V, error) {
	entry, ok := s.cache.get(key)
	if !ok {
		var zero V
		return zero, ErrKeyNotFound
	}
	if entry.absent {
		var zero V
		return zero, ErrObjectNotFound
	}
	return entry.value, nil
}

func (s serializableStrategy[K, V]) has(key K) bool {
	_, ok := s.cache.get(key)
	return ok
}
