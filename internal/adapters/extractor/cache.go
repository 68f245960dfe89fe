package extractor

import (
	"slices"
	"sync"

	"github.com/eshaffer321/statement-reconciler/internal/domain/statement"
)

// MemoryCache is a simple in-memory cache implementation
type MemoryCache struct {
	mu    sync.RWMutex
	store map[string][]statement.ParsedTransaction
}

// NewMemoryCache creates a new memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		store: make(map[string][]statement.ParsedTransaction),
	}
}

// Get retrieves a copy of the cached records
func (c *MemoryCache) Get(key string) ([]statement.ParsedTransaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	txs, found := c.store[key]
	return slices.Clone(txs), found
}

// Set stores a copy of the records
func (c *MemoryCache) Set(key string, txs []statement.ParsedTransaction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = slices.Clone(txs)
}

// Clear removes all entries from cache
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store = make(map[string][]statement.ParsedTransaction)
}

// Size returns the number of cached statements
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.store)
}
