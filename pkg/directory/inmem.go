package directory

import (
	"context"
	"sync"
)

// InMemResolver implements Resolver backed by in-memory maps. It is used in
// tests and in single-node deployments without an external directory.
type InMemResolver struct {
	mu sync.RWMutex
	// tenantDomain -> qualified name -> id
	userIDs  map[string]map[string]string
	groupIDs map[string]map[string]string
	// tenantDomain -> id -> qualified name
	userNames  map[string]map[string]string
	groupNames map[string]map[string]string
	// tenantDomain -> everyone role name
	everyoneRoles map[string]string
}

// NewInMemResolver creates an empty in-memory resolver.
func NewInMemResolver() *InMemResolver {
	return &InMemResolver{
		userIDs:       make(map[string]map[string]string),
		groupIDs:      make(map[string]map[string]string),
		userNames:     make(map[string]map[string]string),
		groupNames:    make(map[string]map[string]string),
		everyoneRoles: make(map[string]string),
	}
}

// AddUser registers a user name/ID pair for a tenant.
func (r *InMemResolver) AddUser(tenantDomain, name, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	qualified := QualifyName(ExtractDomain(name), name)
	ensure(r.userIDs, tenantDomain)[qualified] = id
	ensure(r.userNames, tenantDomain)[id] = qualified
}

// AddGroup registers a group name/ID pair for a tenant.
func (r *InMemResolver) AddGroup(tenantDomain, name, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	qualified := QualifyName(ExtractDomain(name), name)
	ensure(r.groupIDs, tenantDomain)[qualified] = id
	ensure(r.groupNames, tenantDomain)[id] = qualified
}

// RemoveUser drops a user registration, simulating an external deletion.
func (r *InMemResolver) RemoveUser(tenantDomain, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if names, ok := r.userNames[tenantDomain]; ok {
		if name, ok := names[id]; ok {
			delete(names, id)
			delete(r.userIDs[tenantDomain], name)
		}
	}
}

// SetEveryoneRole configures the reserved everyone pseudo-role name for a
// tenant.
func (r *InMemResolver) SetEveryoneRole(tenantDomain, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.everyoneRoles[tenantDomain] = name
}

func (r *InMemResolver) ResolveUserIDs(ctx context.Context, names []string, tenantDomain string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(names))
	for _, name := range names {
		qualified := QualifyName(ExtractDomain(name), name)
		if id, ok := r.userIDs[tenantDomain][qualified]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (r *InMemResolver) ResolveGroupIDs(ctx context.Context, names []string, tenantDomain string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make(map[string]string, len(names))
	for _, name := range names {
		qualified := QualifyName(ExtractDomain(name), name)
		if id, ok := r.groupIDs[tenantDomain][qualified]; ok {
			ids[name] = id
		}
	}
	return ids, nil
}

func (r *InMemResolver) ResolveUserNames(ctx context.Context, ids []string, tenantDomain string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := r.userNames[tenantDomain][id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

func (r *InMemResolver) ResolveGroupNames(ctx context.Context, ids []string, tenantDomain string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := r.groupNames[tenantDomain][id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

func (r *InMemResolver) IsEveryoneRole(name string, tenantDomain string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	everyone, ok := r.everyoneRoles[tenantDomain]
	return ok && everyone == name, nil
}

func ensure(m map[string]map[string]string, key string) map[string]string {
	if m[key] == nil {
		m[key] = make(map[string]string)
	}
	return m[key]
}
