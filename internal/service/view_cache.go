package service

import (
	"sync"
	"time"
)

// closer is a view that can be torn down.
type closer interface {
	Close()
}

// viewCache keeps one mounted view per session key so that repeated page
// requests reuse the fetched collection until the token changes.
type viewCache[V closer] struct {
	mu      sync.Mutex
	entries map[string]*cachedView[V]
	now     func() time.Time
}

type cachedView[V closer] struct {
	view    V
	touched time.Time
}

func newViewCache[V closer]() *viewCache[V] {
	return &viewCache[V]{
		entries: make(map[string]*cachedView[V]),
		now:     time.Now,
	}
}

func (c *viewCache[V]) get(key string, mount func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &cachedView[V]{view: mount()}
		c.entries[key] = e
	}
	e.touched = c.now()
	return e.view
}

func (c *viewCache[V]) invalidate(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if ok {
		e.view.Close()
	}
}

// sweep unmounts views untouched since before.
func (c *viewCache[V]) sweep(before time.Time) int {
	c.mu.Lock()
	var stale []V
	for key, e := range c.entries {
		if e.touched.Before(before) {
			stale = append(stale, e.view)
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()

	for _, v := range stale {
		v.Close()
	}
	return len(stale)
}

func (c *viewCache[V]) closeAll() {
	c.sweep(time.Now().Add(time.Hour * 24 * 365))
}
