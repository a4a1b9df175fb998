// Package sse implements a Server-Sent Events broker that tells clients when
// the rendered document changes.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Event types.
const (
	TypeDocumentUpdated = "document.updated"
	TypeDocumentFailed  = "document.failed"
)

const clientBuffer = 64

// state is owned by the broker loop.
type state struct {
	clients      map[chan []byte]struct{}
	lastChecksum string
}

func (st *state) broadcast(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event, payload))
	for ch := range st.clients {
		select {
		case ch <- raw:
		default:
			// Slow client; drop rather than stall the loop.
		}
	}
}

// Broker fans render outcomes out to connected SSE clients. All state lives
// in one goroutine; callers hand it operations over a channel.
type Broker struct {
	ops       chan func(*state)
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewBroker starts a broker loop.
func NewBroker() *Broker {
	b := &Broker{
		ops:     make(chan func(*state)),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)
	st := &state{clients: make(map[chan []byte]struct{})}
	for {
		select {
		case <-b.done:
			for ch := range st.clients {
				close(ch)
			}
			return
		case op := <-b.ops:
			op(st)
		}
	}
}

// do runs op on the loop and waits for it. It reports false once the broker
// has stopped.
func (b *Broker) do(op func(*state)) bool {
	finished := make(chan struct{})
	select {
	case b.ops <- func(st *state) { op(st); close(finished) }:
	case <-b.stopped:
		return false
	}
	<-finished
	return true
}

// Close stops the loop and closes every client channel. It is safe to call
// more than once.
func (b *Broker) Close() {
	b.closeOnce.Do(func() { close(b.done) })
	<-b.stopped
}

// Subscribe registers a client. The channel is closed on Unsubscribe or
// Close; after Close it is returned already closed.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if !b.do(func(st *state) { st.clients[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(st *state) {
		if _, ok := st.clients[ch]; ok {
			delete(st.clients, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	n := 0
	b.do(func(st *state) { n = len(st.clients) })
	return n
}

// PublishRender reports the outcome of a render pass. A successful pass is
// announced as document.updated only when its checksum differs from the last
// announced one. A failed pass is always announced as document.failed, and
// the next successful pass after it is announced even if unchanged.
func (b *Broker) PublishRender(checksum string, properties int, err error) {
	b.do(func(st *state) {
		if err != nil {
			st.lastChecksum = ""
			st.broadcast(TypeDocumentFailed, map[string]string{"error": err.Error()})
			return
		}
		if checksum == st.lastChecksum {
			return
		}
		st.lastChecksum = checksum
		st.broadcast(TypeDocumentUpdated, map[string]any{
			"checksum":   checksum,
			"properties": properties,
		})
	})
}

// ServeHTTP streams events to one client (GET /api/events).
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

	for {
		select {
		case <-r.Context().Done():
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
