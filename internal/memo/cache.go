// Package memo provides the hierarchical memoization cache backing derived
// state values. Entries are addressed by a path of opaque identifiers plus a
// leaf id; a stored value is only replaced when the newly computed value is
// structurally different, which is what keeps derived values referentially
// stable across recomputation.
package memo

import (
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/structural"
)

// Cache is a tree of mapping levels. Path keys address nested levels, the id
// addresses the leaf slot within the final level. The zero value is not
// usable; use New.
type Cache struct {
	mu   sync.Mutex
	root *node
}

type node struct {
	values   map[string]any
	children map[string]*node
}

func newNode() *node {
	return &node{
		values:   make(map[string]any),
		children: make(map[string]*node),
	}
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{root: newNode()}
}

// Store memoizes value under (path, id). On a miss the value is stored and
// returned. On a hit the stored value is compared structurally: if equal,
// the stored (old) reference is returned and the new value discarded; if
// not, the slot is overwritten and the new value returned. Store never
// fails; absence is a miss, not an error.
func (c *Cache) Store(value any, id string, path ...string) any {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.root
	for _, key := range path {
		child, ok := n.children[key]
		if !ok {
			child = newNode()
			n.children[key] = child
		}
		n = child
	}

	stored, ok := n.values[id]
	if !ok {
		n.values[id] = value
		return value
	}
	if structural.Equal(stored, value) {
		log.Debug(log.CatCache, "cache hit", "id", id)
		return stored
	}
	n.values[id] = value
	return value
}

// Clear removes the mapping subtree at path. With no keys the entire cache
// is dropped. Clearing a path that was never populated is a no-op.
func (c *Cache) Clear(path ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(path) == 0 {
		c.root = newNode()
		return
	}

	n := c.root
	for _, key := range path[:len(path)-1] {
		child, ok := n.children[key]
		if !ok {
			return
		}
		n = child
	}
	delete(n.children, path[len(path)-1])
}

// Len returns the total number of leaf entries, for tests and diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return countValues(c.root)
}

func countValues(n *node) int {
	total := len(n.values)
	for _, child := range n.children {
		total += countValues(child)
	}
	return total
}

// UID returns an identifier distinct from every other identifier produced
// in the process lifetime. Consumers use it to partition their cache
// sub-paths from one another.
func UID() string {
	return uuid.NewString()
}
