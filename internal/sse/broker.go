// Package sse implements a Server-Sent Events broker for real-time deck updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/flashdeck/internal/deck"
)

// Event types sent to clients.
const (
	TypeSourceCreated = "source.created"
	TypeSourceUpdated = "source.updated"
	TypeSourceDeleted = "source.deleted"
	TypeDeckReloaded  = "deck.reloaded"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ReloadStats is the payload of a deck.reloaded event.
type ReloadStats struct {
	Generation uint64 `json:"generation"`
	Cards      int    `json:"cards"`
	Tags       int    `json:"tags"`
}

type sourceEventReq struct {
	kind string
	path string
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns the client set and the reload throttle
// state. Public methods talk to the loop through channels.
type Broker struct {
	reloadMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	sourceEventCh chan sourceEventReq
	reloadCh      chan ReloadStats
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. At most one deck.reloaded event is sent
// per reloadThrottle; reloads inside the window collapse into a single
// trailing event carrying the latest stats.
func NewBroker(reloadThrottle time.Duration) *Broker {
	if reloadThrottle <= 0 {
		reloadThrottle = 2 * time.Second
	}

	b := &Broker{
		reloadMin:     reloadThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		sourceEventCh: make(chan sourceEventReq, 256),
		reloadCh:      make(chan ReloadStats, 16),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var (
		lastReload time.Time
		pending    *ReloadStats
		trailing   *time.Timer
		trailingCh <-chan time.Time
	)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	emitReload := func(s ReloadStats) {
		lastReload = time.Now()
		broadcast(Event{Type: TypeDeckReloaded, Data: s})
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.sourceEventCh:
			data := map[string]string{"path": req.path}
			switch req.kind {
			case "created":
				broadcast(Event{Type: TypeSourceCreated, Data: data})
			case "updated":
				broadcast(Event{Type: TypeSourceUpdated, Data: data})
			case "deleted":
				broadcast(Event{Type: TypeSourceDeleted, Data: data})
			}

		case s := <-b.reloadCh:
			wait := b.reloadMin - time.Since(lastReload)
			if wait <= 0 {
				emitReload(s)
				continue
			}
			pending = &s
			if trailing == nil {
				trailing = time.NewTimer(wait)
				trailingCh = trailing.C
			}

		case <-trailingCh:
			trailing, trailingCh = nil, nil
			if pending != nil {
				emitReload(*pending)
				pending = nil
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishSourceEvent publishes a source file change. kind is one of
// "created", "updated" or "deleted"; other kinds are ignored.
func (b *Broker) PublishSourceEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.sourceEventCh <- sourceEventReq{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// PublishReload announces a new deck snapshot, subject to the reload throttle.
func (b *Broker) PublishReload(s ReloadStats) {
	if b.closed.Load() {
		return
	}
	select {
	case b.reloadCh <- s:
	case <-b.stopped:
	}
}

// SourceChanged forwards a source file change to clients.
func (b *Broker) SourceChanged(kind, path string) { b.PublishSourceEvent(kind, path) }

// DeckReloaded announces a new snapshot with its counts.
func (b *Broker) DeckReloaded(d *deck.Deck) {
	b.PublishReload(ReloadStats{Generation: d.Generation(), Cards: d.NumCards(), Tags: d.NumTags()})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
