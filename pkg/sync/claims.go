package sync

import "sync"

// ClaimSet records exclusive, temporary ownership of keys. A key can be
// claimed by at most one caller until it is released.
type ClaimSet[K comparable] struct {
	m sync.Map
}

// Claim attempts to take ownership of the key, returning false if the key
// is already claimed.
func (c *ClaimSet[K]) Claim(key K) bool {
	_, loaded := c.m.LoadOrStore(key, struct{}{})
	return !loaded
}

// Release gives up ownership of the key.
func (c *ClaimSet[K]) Release(key K) { c.m.Delete(key) }
