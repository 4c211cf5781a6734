package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type spyTracker struct {
	mu    sync.Mutex
	calls []string
}

func (s *spyTracker) MaybeStartTracking(uuid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, uuid)
}

func (s *spyTracker) unique() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var res []string
	for _, c := range s.calls {
		if !seen[c] {
			seen[c] = true
			res = append(res, c)
		}
	}
	return res
}

type request struct {
	method, path, rpcID string
}

// fakeAPI answers every mutation with the posted body plus an id.
func fakeAPI(t *testing.T) (*httptest.Server, *[]request) {
	var mu sync.Mutex
	var reqs []request
	nextID := 100.0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		reqs = append(reqs, request{method: r.Method, path: r.URL.Path, rpcID: r.Header.Get(RpcIDHeader)})
		if strings.HasSuffix(r.URL.Path, "/broken") || r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method {
		case http.MethodDelete:
			_, _ = w.Write([]byte(`{"message":"ok"}`))
		case http.MethodGet:
			_, _ = w.Write([]byte(`{"data":[{"id":1,"label":"LED"},{"id":2,"label":"Pump"}]}`))
		default:
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if _, ok := body["id"]; !ok {
				nextID++
				body["id"] = nextID
			}
			require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"data": body}))
		}
	}))
	t.Cleanup(ts.Close)
	return ts, &reqs
}

func newTestStore(t *testing.T) (*Store, *spyTracker, *[]request) {
	ts, reqs := fakeAPI(t)
	api := New(ts.URL)
	api.Token = "token"
	tracker := &spyTracker{}
	store := NewStore(api, tracker)
	_, err := store.Fetch(context.Background(), "peripherals")
	require.NoError(t, err)
	return store, tracker, reqs
}

func TestStore_DestroyTracks(t *testing.T) {
	store, tracker, reqs := newTestStore(t)
	uuid := store.Index.ByKind("Peripheral")[0].UUID

	require.NoError(t, store.Destroy(context.Background(), uuid))
	assert.Equal(t, []string{uuid}, tracker.unique())
	last := (*reqs)[len(*reqs)-1]
	assert.Equal(t, request{method: http.MethodDelete, path: "/api/v1/peripherals/1", rpcID: uuid}, last)
	_, ok := store.Index.Get(uuid)
	assert.False(t, ok)
}

func TestStore_SaveAllTracksEveryResource(t *testing.T) {
	store, tracker, _ := newTestStore(t)
	all := store.Index.All()
	for _, r := range all {
		require.NoError(t, store.Edit(r.UUID, map[string]any{"label": "edited"}))
	}

	require.NoError(t, store.SaveAll(context.Background(), store.Index.All()))
	assert.Len(t, tracker.unique(), len(all))
	for _, r := range store.Index.All() {
		assert.Equal(t, Saved, r.SpecialStatus)
		assert.Equal(t, "edited", r.Body["label"])
	}
}

func TestStore_SaveAllSkipsClean(t *testing.T) {
	store, tracker, _ := newTestStore(t)
	require.NoError(t, store.SaveAll(context.Background(), store.Index.All()))
	assert.Empty(t, tracker.unique())
}

func TestStore_InitSaveTracks(t *testing.T) {
	store, tracker, reqs := newTestStore(t)
	r := NewResource("peripherals", map[string]any{"pin": 13, "label": "Fan"})

	saved, err := store.InitSave(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []string{r.UUID}, tracker.unique())
	assert.Equal(t, "Peripheral", saved.Kind)
	assert.Equal(t, uint(101), saved.ID())
	assert.Equal(t, Saved, saved.SpecialStatus)
	last := (*reqs)[len(*reqs)-1]
	assert.Equal(t, request{method: http.MethodPost, path: "/api/v1/peripherals", rpcID: r.UUID}, last)

	require.NoError(t, store.Edit(r.UUID, map[string]any{"label": "Big fan"}))
	_, err = store.Save(context.Background(), r.UUID)
	require.NoError(t, err)
	last = (*reqs)[len(*reqs)-1]
	assert.Equal(t, http.MethodPut, last.method)
	assert.Equal(t, "/api/v1/peripherals/101", last.path)
}

func TestStore_SaveFailureKeepsDirty(t *testing.T) {
	store, _, _ := newTestStore(t)
	uuid := store.Index.ByKind("Peripheral")[0].UUID
	require.NoError(t, store.Edit(uuid, map[string]any{"label": "x"}))

	store.API.Token = "expired"
	_, err := store.Save(context.Background(), uuid)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	r, ok := store.Index.Get(uuid)
	require.True(t, ok)
	assert.Equal(t, Dirty, r.SpecialStatus)
}

func TestStore_UnknownResource(t *testing.T) {
	store, tracker, _ := newTestStore(t)
	assert.ErrorIs(t, store.Edit("nope", nil), ErrUnknownResource)
	assert.ErrorIs(t, store.Destroy(context.Background(), "nope"), ErrUnknownResource)
	_, err := store.Save(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUnknownResource)
	assert.Empty(t, tracker.unique())

	local := NewResource("Sensor", nil)
	store.Index.Put(local)
	require.NoError(t, store.Destroy(context.Background(), local.UUID), "never saved, nothing to send")
}
