package identitymap

import (
	"fmt"
	"strings"
	"sync"
)

// IsolationLevel controls how the identity map caches objects.
type IsolationLevel int

const (
	ReadUncommitted IsolationLevel = iota // Identity map is disabled
	ReadCommitted                         // Identity map is disabled
	RepeatableReads                       // Caches existent objects only
	Serializable                          // Caches both existent and nonexistent objects
)

func ParseIsolationLevel(s string) (IsolationLevel, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "-")) {
	case "read-uncommitted":
		return ReadUncommitted, nil
	case "read-committed", "none", "":
		return ReadCommitted, nil
	case "repeatable-reads", "repeatable-read":
		return RepeatableReads, nil
	case "serializable":
		return Serializable, nil
	default:
		return ReadCommitted, fmt.Errorf("identitymap: unknown isolation level %q", s)
	}
}

// IdentityMap caches loaded objects by key so repeated reads return the
// same instance. It is safe for concurrent use.
type IdentityMap[K comparable, V any] struct {
	mu       sync.Mutex
	cache    *lruCache[K, V]
	strategy isolationStrategy[K, V]
}

func New[K comparable, V any](cacheSize int, level IsolationLevel) *IdentityMap[K, V] {
	m := &IdentityMap[K, V]{cache: newLruCache[K, V](cacheSize)}
	m.SetIsolationLevel(level)
	return m
}

func (m *IdentityMap[K, V]) SetIsolationLevel(level IsolationLevel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch level {
	case ReadUncommitted, ReadCommitted:
		m.strategy = disabledStrategy[K, V]{}
	case RepeatableReads:
		m.strategy = repeatableReadsStrategy[K, V]{cache: m.cache}
	default:
		m.strategy = serializableStrategy[K, V]{cache: m.cache}
	}
}

func (m *IdentityMap[K, V]) SetSize(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.setSize(size)
}

func (m *IdentityMap[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.clear()
}

// Add stores a found object.
func (m *IdentityMap[K, V]) Add(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategy.add(key, value)
}

// AddAbsent records that the key was queried but does not exist.
// Only effective with Serializable isolation level.
func (m *IdentityMap[K, V]) AddAbsent(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strategy.addAbsent(key)
}

func (m *IdentityMap[K, V]) Get(key K) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strategy.get(key)
}

func (m *IdentityMap[K, V]) Has(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.strategy.has(key)
}

func (m *IdentityMap[K, V]) Remove(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.remove(key)
}

// RemoveFunc drops every key for which match returns true.
func (m *IdentityMap[K, V]) RemoveFunc(match func(K) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.removeFunc(match)
}

func (m *IdentityMap[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.len()
}
