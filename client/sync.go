package client

import (
	"context"
	"encoding/json"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/gorilla/websocket"
)

// AutoSyncMessage mirrors the server's auto-sync message.
type AutoSyncMessage struct {
	Type  string         `json:"type"`
	Kind  string         `json:"kind"`
	ID    uint           `json:"id"`
	Body  map[string]any `json:"body"`
	Label string         `json:"label"`
}

// Sync applies the server's auto-sync stream to the store index.
type Sync struct {
	store   *Store
	tracker *ConsistencyTracker
	dialer  *websocket.Dialer
}

func NewSync(store *Store, tracker *ConsistencyTracker) *Sync {
	return &Sync{store: store, tracker: tracker, dialer: websocket.DefaultDialer}
}

// Run reads /ws/sync until ctx is done or the connection drops.
func (s *Sync) Run(ctx context.Context) error {
	url := "ws" + strings.TrimPrefix(s.store.API.BaseURL, "http") + "/ws/sync?token=" + s.store.API.Token
	conn, _, err := s.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	defer conn.Close()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var msg AutoSyncMessage
		if err := json.Unmarshal(raw, &msg); err != nil || msg.Type != "auto_sync" {
			log.Printf("[DEBUG] skip sync message %q", string(raw))
			continue
		}
		s.Apply(msg)
	}
}

// Apply updates the index for one auto-sync message. A nil body is a delete.
func (s *Sync) Apply(msg AutoSyncMessage) {
	if s.tracker != nil {
		defer s.tracker.StopTracking(msg.Label)
	}
	idx := s.store.Index
	// our own request, may arrive before the HTTP response
	if own, ok := idx.Get(msg.Label); ok && own.Kind == msg.Kind {
		if msg.Body == nil {
			idx.Remove(own.UUID)
		} else if own.SpecialStatus != Dirty {
			idx.update(own.UUID, func(r *TaggedResource) { r.Body = msg.Body })
		}
		return
	}
	existing, found := idx.FindByID(msg.Kind, msg.ID)
	if msg.Body == nil {
		if found {
			idx.Remove(existing.UUID)
		}
		return
	}
	if found {
		// local edits win until they are saved
		if existing.SpecialStatus == Saved {
			idx.update(existing.UUID, func(r *TaggedResource) { r.Body = msg.Body })
		}
		return
	}
	r := NewResource(msg.Kind, msg.Body)
	r.SpecialStatus = Saved
	idx.Put(r)
}
