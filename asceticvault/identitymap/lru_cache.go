package identitymap

import "container/list"

type lruEntry[K comparable, V any] struct {
	key    K
	value  V
	absent bool
}

type lruCache[K comparable, V any] struct {
	items map[K]*list.Element
	order *list.List
	size  int
}

func newLruCache[K comparable, V any](size int) *lruCache[K, V] {
	return &lruCache[K, V]{
		items: make(map[K]*list.Element, size),
		order: list.New(),
		size:  size,
	}
}

func (c *lruCache[K, V]) add(key K, value V, absent bool) {
	entry := lruEntry[K, V]{key: key, value: value, absent: absent}
	if elem, ok := c.items[key]; ok {
		elem.Value = entry
		c.order.MoveToBack(elem)
		return
	}
	c.items[key] = c.order.PushBack(entry)
	c.evict()
}

func (c *lruCache[K, V]) get(key K) (lruEntry[K, V], bool) {
	elem, ok := c.items[key]
	if !ok {
		return lruEntry[K, V]{}, false
	}
	c.order.MoveToBack(elem)
	return elem.Value.(lruEntry[K, V]), true
}

func (c *lruCache[K, V]) remove(key K) {
	elem, ok := c.items[key]
	if !ok {
		return
	}
	delete(c.items, key)
	c.order.Remove(elem)
}

func (c *lruCache[K, V]) removeFunc(match func(K) bool) {
	for key, elem := range c.items {
		if match(key) {
			delete(c.items, key)
			c.order.Remove(elem)
		}
	}
}

func (c *lruCache[K, V]) len() int {
	return len(c.items)
}

func (c *lruCache[K, V]) clear() {
	c.items = make(map[K]*list.Element, c.size)
	c.order.Init()
}

func (c *lruCache[K, V]) setSize(size int) {
	c.size = size
	c.evict()
}

func (c *lruCache[K, V]) evict() {
	for len(c.items) > c.size {
		front := c.order.Front()
		if front == nil {
			return
		}
		c.order.Remove(front)
		delete(c.items, front.Value.(lruEntry[K, V]).key)
	}
}
