package cid

import "sync"

// Cell caches a single computed CID until invalidated. The zero value is a
// dirty cell with no cached hash. It is safe for concurrent use: concurrent
// Load calls while dirty may each run the compute function, but all observe
// a consistent cached result afterwards.
type Cell struct {
	mu    sync.Mutex
	hash  string
	clean bool
}

// Load returns the cached hash or, if the cell is dirty, runs compute and
// caches its result. A compute error leaves the cell dirty.
func (c *Cell) Load(compute func() (string, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clean {
		return c.hash, nil
	}
	h, err := compute()
	if err != nil {
		return "", err
	}
	c.hash = h
	c.clean = true
	return h, nil
}

// Cached returns the cached hash and whether the cell is clean.
func (c *Cell) Cached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hash, c.clean
}

// Invalidate marks the cell dirty, forcing recomputation on the next Load.
func (c *Cell) Invalidate() {
	c.mu.Lock()
	c.clean = false
	c.hash = ""
	c.mu.Unlock()
}
