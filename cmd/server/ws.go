package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/artfilabs/tokenizer/internal/domain"
	"github.com/artfilabs/tokenizer/internal/observability"
	"github.com/artfilabs/tokenizer/internal/storage"
)

const (
	writeWait       = 10 * time.Second
	pingPeriod      = 30 * time.Second
	subscriberSlack = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The feed is public read-only data.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsEvent is the JSON frame pushed to websocket subscribers.
type wsEvent struct {
	EventType    string `json:"event_type"`
	TokenType    string `json:"token_type"`
	LedgerID     string `json:"ledger_id,omitempty"`
	CollectionID string `json:"collection_id,omitempty"`
	DescriptorID string `json:"descriptor_id,omitempty"`
	Creator      string `json:"creator"`
	NFTAmount    uint64 `json:"nft_amount,omitempty"`
	TokenAmount  uint64 `json:"token_amount,omitempty"`
	TokensPerNFT uint64 `json:"tokens_per_nft,omitempty"`
	OldRatio     uint64 `json:"old_ratio,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// eventHub fans successful event appends out to websocket subscribers.
// Slow subscribers are dropped rather than allowed to block the feed.
type eventHub struct {
	logger *log.Logger

	mu          sync.Mutex
	subscribers map[chan []byte]struct{}
	broadcast   chan []byte
}

func newEventHub(logger *log.Logger) *eventHub {
	return &eventHub{
		logger:      logger,
		subscribers: make(map[chan []byte]struct{}),
		broadcast:   make(chan []byte, subscriberSlack),
	}
}

// run distributes broadcast frames until the context is cancelled.
func (h *eventHub) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for ch := range h.subscribers {
				close(ch)
			}
			h.subscribers = make(map[chan []byte]struct{})
			h.mu.Unlock()
			return
		case frame := <-h.broadcast:
			h.mu.Lock()
			for ch := range h.subscribers {
				select {
				case ch <- frame:
				default:
					// Subscriber is not keeping up.
					close(ch)
					delete(h.subscribers, ch)
				}
			}
			h.mu.Unlock()
		}
	}
}

// publish queues one event frame for distribution.
func (h *eventHub) publish(e *domain.DomainEvent) {
	frame, err := json.Marshal(wsEvent{
		EventType:    string(e.EventType),
		TokenType:    e.TokenType,
		LedgerID:     e.LedgerID,
		CollectionID: e.CollectionID,
		DescriptorID: e.DescriptorID,
		Creator:      string(e.Creator),
		NFTAmount:    e.NFTAmount,
		TokenAmount:  e.TokenAmount,
		TokensPerNFT: e.TokensPerNFT,
		OldRatio:     e.OldRatio,
		Timestamp:    e.Timestamp,
	})
	if err != nil {
		h.logger.Printf("Failed to marshal event frame: %v", err)
		return
	}

	select {
	case h.broadcast <- frame:
	default:
		h.logger.Println("Event broadcast queue full, dropping frame")
	}
}

func (h *eventHub) subscribe() chan []byte {
	ch := make(chan []byte, subscriberSlack)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	n := len(h.subscribers)
	h.mu.Unlock()
	observability.DefaultMetrics.WSSubscribers.Set(float64(n))
	return ch
}

func (h *eventHub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.subscribers[ch]; ok {
		close(ch)
		delete(h.subscribers, ch)
	}
	n := len(h.subscribers)
	h.mu.Unlock()
	observability.DefaultMetrics.WSSubscribers.Set(float64(n))
}

func (h *eventHub) subscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// handleWS upgrades the connection and streams event frames.
func (s *apiServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("Websocket upgrade failed: %v", err)
		return
	}

	ch := s.hub.subscribe()
	defer s.hub.unsubscribe(ch)
	defer conn.Close()

	// Reader goroutine: we never expect frames from the client but must
	// drain the connection to process close messages.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case frame, ok := <-ch:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// broadcastEventStore decorates a storage.EventStore so every
// successful append also reaches websocket subscribers.
type broadcastEventStore struct {
	inner storage.EventStore
	hub   *eventHub
}

var _ storage.EventStore = (*broadcastEventStore)(nil)

func (s *broadcastEventStore) Append(ctx context.Context, e *domain.DomainEvent) error {
	if err := s.inner.Append(ctx, e); err != nil {
		return err
	}
	s.hub.publish(e)
	return nil
}

func (s *broadcastEventStore) GetByLedgerID(ctx context.Context, ledgerID string) ([]*domain.DomainEvent, error) {
	return s.inner.GetByLedgerID(ctx, ledgerID)
}

func (s *broadcastEventStore) GetByTokenType(ctx context.Context, tokenType string) ([]*domain.DomainEvent, error) {
	return s.inner.GetByTokenType(ctx, tokenType)
}
