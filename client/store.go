package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"farmbot-server/resources"
)

// ErrUnknownResource is returned for a uuid missing from the index.
var ErrUnknownResource = errors.New("unknown resource")

// Store keeps a local ResourceIndex in step with the server.
type Store struct {
	API     *Client
	Index   *ResourceIndex
	Tracker Tracker
}

func NewStore(api *Client, tracker Tracker) *Store {
	return &Store{API: api, Index: NewResourceIndex(), Tracker: tracker}
}

// Fetch loads every resource of kind from the server into the index.
func (s *Store) Fetch(ctx context.Context, kind string) ([]*TaggedResource, error) {
	plural, err := pluralOf(kind)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []map[string]any `json:"data"`
	}
	if err := s.API.do(ctx, http.MethodGet, "/api/v1/"+plural, "", nil, &resp); err != nil {
		return nil, err
	}
	res := make([]*TaggedResource, 0, len(resp.Data))
	for _, body := range resp.Data {
		r := NewResource(kind, body)
		r.SpecialStatus = Saved
		if existing, ok := s.Index.FindByID(r.Kind, r.ID()); ok {
			r.UUID = existing.UUID
		}
		s.Index.Put(r)
		res = append(res, r)
	}
	return res, nil
}

// Edit merges patch into the local body and marks the resource dirty.
func (s *Store) Edit(uuid string, patch map[string]any) error {
	ok := s.Index.update(uuid, func(r *TaggedResource) {
		for k, v := range patch {
			r.Body[k] = v
		}
		r.SpecialStatus = Dirty
	})
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownResource, uuid)
	}
	return nil
}

// InitSave adds a new resource to the index and saves it.
func (s *Store) InitSave(ctx context.Context, r *TaggedResource) (*TaggedResource, error) {
	r.SpecialStatus = Dirty
	s.Index.Put(r)
	return s.Save(ctx, r.UUID)
}

// Save sends a resource to the server, creating it when it has no id yet.
func (s *Store) Save(ctx context.Context, uuid string) (*TaggedResource, error) {
	r, ok := s.Index.Get(uuid)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, uuid)
	}
	plural, err := pluralOf(r.Kind)
	if err != nil {
		return nil, err
	}
	s.setStatus(uuid, Saving)
	s.track(uuid)

	method, path := http.MethodPost, "/api/v1/"+plural
	if id := r.ID(); id != 0 {
		method, path = http.MethodPut, path+"/"+strconv.FormatUint(uint64(id), 10)
	}
	var resp struct {
		Data map[string]any `json:"data"`
	}
	if err := s.API.do(ctx, method, path, uuid, r.Body, &resp); err != nil {
		s.setStatus(uuid, Dirty)
		return nil, err
	}
	s.Index.update(uuid, func(stored *TaggedResource) {
		stored.Body = resp.Data
		stored.SpecialStatus = Saved
	})
	saved, _ := s.Index.Get(uuid)
	return saved, nil
}

// SaveAll saves every dirty resource in rs and returns the joined errors.
func (s *Store) SaveAll(ctx context.Context, rs []*TaggedResource) error {
	var errs []error
	for _, r := range rs {
		if r.SpecialStatus != Dirty {
			continue
		}
		if _, err := s.Save(ctx, r.UUID); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", r.UUID, err))
		}
	}
	return errors.Join(errs...)
}

// Destroy deletes a resource on the server, then from the index.
// Resources that were never saved are only dropped locally.
func (s *Store) Destroy(ctx context.Context, uuid string) error {
	r, ok := s.Index.Get(uuid)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownResource, uuid)
	}
	s.track(uuid)
	if id := r.ID(); id != 0 {
		plural, err := pluralOf(r.Kind)
		if err != nil {
			return err
		}
		path := "/api/v1/" + plural + "/" + strconv.FormatUint(uint64(id), 10)
		if err := s.API.do(ctx, http.MethodDelete, path, uuid, nil, nil); err != nil {
			return err
		}
	}
	s.Index.Remove(uuid)
	return nil
}

func (s *Store) track(uuid string) {
	if s.Tracker != nil {
		s.Tracker.MaybeStartTracking(uuid)
	}
}

func (s *Store) setStatus(uuid string, st SpecialStatus) {
	s.Index.update(uuid, func(r *TaggedResource) { r.SpecialStatus = st })
}

func pluralOf(kind string) (string, error) {
	k, err := resources.Lookup(kind)
	if err != nil {
		return "", fmt.Errorf("%s: %w", kind, err)
	}
	return k.Plural, nil
}
