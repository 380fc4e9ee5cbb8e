// Package rolecache provides an invalidation-aware read cache for role
// lookups. Entries are keyed both by (tenant, role ID) and by
// (tenant, audience, role name); the two keys of one role are linked so that
// invalidating either drops both. Mutating store operations only ever
// invalidate; the next read repopulates from the store.
package rolecache

import "sync"

// IDKey addresses a cached role by tenant and role identifier.
type IDKey struct {
	TenantDomain string
	RoleID       string
}

// NameKey addresses a cached role by tenant, audience and role name.
type NameKey struct {
	TenantDomain string
	AudienceType string
	AudienceID   string
	Name         string
}

type entry[V any] struct {
	value    V
	negative bool
}

// Cache is a mutex-guarded dual-keyed cache. The zero value is not usable;
// use New.
type Cache[V any] struct {
	mu       sync.RWMutex
	byID     map[IDKey]entry[V]
	byName   map[NameKey]entry[V]
	idToName map[IDKey]NameKey
	nameToID map[NameKey]IDKey
}

// New creates an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{
		byID:     make(map[IDKey]entry[V]),
		byName:   make(map[NameKey]entry[V]),
		idToName: make(map[IDKey]NameKey),
		nameToID: make(map[NameKey]IDKey),
	}
}

// Put stores a value under both keys and links them.
func (c *Cache[V]) Put(id IDKey, name NameKey, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byID[id] = entry[V]{value: v}
	c.byName[name] = entry[V]{value: v}
	c.idToName[id] = name
	c.nameToID[name] = id
}

// PutNegativeByName records that no role exists under the given name key.
// Negative entries have no ID twin.
func (c *Cache[V]) PutNegativeByName(name NameKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byName[name] = entry[V]{negative: true}
}

// GetByID returns the cached value for an ID key. ok reports a cache hit.
func (c *Cache[V]) GetByID(id IDKey) (v V, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.byID[id]
	if !ok || e.negative {
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetByName returns the cached value for a name key. negative reports a
// cached negative lookup; ok reports any hit, positive or negative.
func (c *Cache[V]) GetByName(name NameKey) (v V, ok bool, negative bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.byName[name]
	if !ok {
		var zero V
		return zero, false, false
	}
	if e.negative {
		var zero V
		return zero, true, true
	}
	return e.value, true, false
}

// InvalidateByID drops the entry for id and its linked name entry.
func (c *Cache[V]) InvalidateByID(id IDKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if name, ok := c.idToName[id]; ok {
		delete(c.byName, name)
		delete(c.nameToID, name)
	}
	delete(c.byID, id)
	delete(c.idToName, id)
}

// InvalidateByName drops the entry for name and its linked ID entry.
func (c *Cache[V]) InvalidateByName(name NameKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.nameToID[name]; ok {
		delete(c.byID, id)
		delete(c.idToName, id)
	}
	delete(c.byName, name)
	delete(c.nameToID, name)
}

// ClearTenant drops every entry belonging to the given tenant domain.
func (c *Cache[V]) ClearTenant(tenantDomain string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id := range c.byID {
		if id.TenantDomain == tenantDomain {
			delete(c.byID, id)
			delete(c.idToName, id)
		}
	}
	for name := range c.byName {
		if name.TenantDomain == tenantDomain {
			delete(c.byName, name)
			delete(c.nameToID, name)
		}
	}
}

// Len returns the number of distinct cached entries across both key spaces.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID) + len(c.byName)
}
