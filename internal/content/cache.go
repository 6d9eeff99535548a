package content

import "sync"

// Cache is a read-through document cache keyed by document name. A Cache
// belongs to one validation run: construct one per run and pass it to the
// Store. It is safe for concurrent use by validators.
type Cache struct {
	mu     sync.RWMutex
	docs   map[string]*Document
	hits   int
	misses int
}

// CacheStats summarizes cache activity.
type CacheStats struct {
	Entries int `json:"entries"`
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{docs: make(map[string]*Document)}
}

// Get returns a cached document.
func (c *Cache) Get(name string) (*Document, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[name]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return doc, ok
}

// Has reports whether a document is cached without touching the counters.
func (c *Cache) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.docs[name]
	return ok
}

// Put stores a document.
func (c *Cache) Put(doc *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[doc.Name] = doc
}

// Clear drops every cached document and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = make(map[string]*Document)
	c.hits = 0
	c.misses = 0
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Entries: len(c.docs), Hits: c.hits, Misses: c.misses}
}
