package client

import (
	"sync"

	"farmbot-server/resources"

	"github.com/google/uuid"
)

// SpecialStatus tells whether a local resource matches the server.
type SpecialStatus string

const (
	Saved  SpecialStatus = ""
	Dirty  SpecialStatus = "DIRTY"
	Saving SpecialStatus = "SAVING"
)

// TaggedResource is a resource body with a local uuid.
type TaggedResource struct {
	UUID          string
	Kind          string
	Body          map[string]any
	SpecialStatus SpecialStatus
}

// NewResource tags a body of kind with a fresh uuid, unsaved.
// Kind aliases such as "plants" are stored under their class name.
func NewResource(kind string, body map[string]any) *TaggedResource {
	if k, err := resources.Lookup(kind); err == nil {
		kind = k.Name
	}
	if body == nil {
		body = map[string]any{}
	}
	return &TaggedResource{UUID: uuid.New().String(), Kind: kind, Body: body, SpecialStatus: Dirty}
}

// ID returns the server id, 0 when the resource was never saved.
func (r *TaggedResource) ID() uint {
	switch v := r.Body["id"].(type) {
	case float64:
		return uint(v)
	case uint:
		return v
	case int:
		return uint(v)
	}
	return 0
}

func (r *TaggedResource) clone() *TaggedResource {
	body := make(map[string]any, len(r.Body))
	for k, v := range r.Body {
		body[k] = v
	}
	cp := *r
	cp.Body = body
	return &cp
}

// ResourceIndex holds resources by uuid and by kind. Getters return copies.
type ResourceIndex struct {
	mu         sync.RWMutex
	references map[string]*TaggedResource
	byKind     map[string][]string
}

func NewResourceIndex() *ResourceIndex {
	return &ResourceIndex{
		references: map[string]*TaggedResource{},
		byKind:     map[string][]string{},
	}
}

// Put adds or replaces r.
func (ri *ResourceIndex) Put(r *TaggedResource) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	if _, ok := ri.references[r.UUID]; !ok {
		ri.byKind[r.Kind] = append(ri.byKind[r.Kind], r.UUID)
	}
	ri.references[r.UUID] = r.clone()
}

func (ri *ResourceIndex) Get(uuid string) (*TaggedResource, bool) {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	r, ok := ri.references[uuid]
	if !ok {
		return nil, false
	}
	return r.clone(), true
}

// ByKind returns the resources of kind in insertion order.
func (ri *ResourceIndex) ByKind(kind string) []*TaggedResource {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	res := make([]*TaggedResource, 0, len(ri.byKind[kind]))
	for _, u := range ri.byKind[kind] {
		res = append(res, ri.references[u].clone())
	}
	return res
}

// FindByID looks up a saved resource by kind and server id.
func (ri *ResourceIndex) FindByID(kind string, id uint) (*TaggedResource, bool) {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	for _, u := range ri.byKind[kind] {
		if r := ri.references[u]; r.ID() == id {
			return r.clone(), true
		}
	}
	return nil, false
}

func (ri *ResourceIndex) All() []*TaggedResource {
	ri.mu.RLock()
	defer ri.mu.RUnlock()
	res := make([]*TaggedResource, 0, len(ri.references))
	for _, uuids := range ri.byKind {
		for _, u := range uuids {
			res = append(res, ri.references[u].clone())
		}
	}
	return res
}

func (ri *ResourceIndex) Remove(uuid string) {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	r, ok := ri.references[uuid]
	if !ok {
		return
	}
	delete(ri.references, uuid)
	uuids := ri.byKind[r.Kind]
	for i, u := range uuids {
		if u == uuid {
			ri.byKind[r.Kind] = append(uuids[:i], uuids[i+1:]...)
			break
		}
	}
}

// update applies fn to the stored resource under the lock.
func (ri *ResourceIndex) update(uuid string, fn func(r *TaggedResource)) bool {
	ri.mu.Lock()
	defer ri.mu.Unlock()
	r, ok := ri.references[uuid]
	if ok {
		fn(r)
	}
	return ok
}
