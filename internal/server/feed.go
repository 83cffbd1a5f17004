// Package server's change feed: FeedHandlers doubles as a
// domain.DomainEventSink, fanning every published event out to connected
// websocket clients over nhooyr.io/websocket.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/afadil/wealthfolio-sub005/internal/domain"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const feedWriteTimeout = 10 * time.Second

// feedMessage is the wire shape pushed to every subscriber.
type feedMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// FeedHandlers serves GET /api/feed, upgrading to a websocket and pushing
// every domain event published through it to all connected clients.
type FeedHandlers struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

// NewFeedHandlers builds a FeedHandlers. It implements domain.DomainEventSink,
// so it can be passed directly wherever a sink is wired (e.g. snapshot.Service).
func NewFeedHandlers(log zerolog.Logger) *FeedHandlers {
	return &FeedHandlers{
		log:     log.With().Str("component", "feed_handlers").Logger(),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeWS upgrades the connection and keeps it registered until the client
// disconnects. The connection is write-only from the server's perspective;
// any inbound frame is drained and ignored.
func (h *FeedHandlers) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // local/dev core, no TLS termination at this layer
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.register(conn)
	defer h.unregister(conn)

	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "closing")
			return
		}
	}
}

func (h *FeedHandlers) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *FeedHandlers) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// Publish implements domain.DomainEventSink: it must not block the caller
// on slow or stalled subscribers, so each write runs with its own timeout
// and failures just drop that client rather than propagating an error.
func (h *FeedHandlers) Publish(event domain.DomainEvent) {
	payload, err := json.Marshal(feedMessage{Type: eventTypeName(event), Data: event})
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to marshal domain event for feed")
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), feedWriteTimeout)
		err := conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			h.log.Debug().Err(err).Msg("dropping feed subscriber after write failure")
			h.unregister(conn)
		}
	}
}

func eventTypeName(event domain.DomainEvent) string {
	switch event.(type) {
	case domain.ActivitiesChanged:
		return "activities_changed"
	case domain.HoldingsChanged:
		return "holdings_changed"
	case domain.AccountsChanged:
		return "accounts_changed"
	case domain.AssetsCreated:
		return "assets_created"
	case domain.AssetsMerged:
		return "assets_merged"
	case domain.TrackingModeChanged:
		return "tracking_mode_changed"
	case domain.ManualSnapshotSaved:
		return "manual_snapshot_saved"
	default:
		return "unknown"
	}
}
