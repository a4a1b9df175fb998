package sse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func drain(ch chan []byte) []string {
	time.Sleep(50 * time.Millisecond)
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishRender_Delivery(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishRender("abc", 4, nil)

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.HasPrefix(s, "event: document.updated\ndata: ") || !strings.HasSuffix(s, "\n\n") {
			t.Errorf("bad frame %q", s)
		}
		if !strings.Contains(s, `"checksum":"abc"`) || !strings.Contains(s, `"properties":4`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishRender_DedupesByChecksum(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishRender("aaa", 2, nil)
	b.PublishRender("aaa", 2, nil)
	b.PublishRender("bbb", 3, nil)

	msgs := drain(ch)
	if len(msgs) != 2 {
		t.Fatalf("events = %d, want 2: %q", len(msgs), msgs)
	}
	if !strings.Contains(msgs[0], `"checksum":"aaa"`) || !strings.Contains(msgs[1], `"properties":3`) {
		t.Errorf("unexpected events %q", msgs)
	}
}

func TestPublishRender_Failure(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishRender("aaa", 1, nil)
	b.PublishRender("", 0, errors.New("malformed markup"))
	// Recovery is announced even though the document is unchanged.
	b.PublishRender("aaa", 1, nil)

	msgs := drain(ch)
	if len(msgs) != 3 {
		t.Fatalf("events = %d, want 3: %q", len(msgs), msgs)
	}
	if !strings.Contains(msgs[1], "event: document.failed") || !strings.Contains(msgs[1], "malformed markup") {
		t.Errorf("failure event = %q", msgs[1])
	}
	if !strings.Contains(msgs[2], "event: document.updated") {
		t.Errorf("recovery event = %q", msgs[2])
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishRender("abc", 2, nil)
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: document.updated") {
		t.Errorf("handler output missing event: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Nobody reads ch; once its buffer is full further events are dropped.
	for i := 0; i < clientBuffer+6; i++ {
		b.PublishRender(fmt.Sprintf("sum-%d", i), i, nil)
	}
	if got := len(ch); got != clientBuffer {
		t.Errorf("buffered = %d, want %d", got, clientBuffer)
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	b.PublishRender("x", 1, nil)
	b.Unsubscribe(ch)
	if c := b.Subscribe(); c == nil {
		t.Fatal("Subscribe after close returned nil")
	} else if _, ok := <-c; ok {
		t.Error("Subscribe after close should return a closed channel")
	}
	b.Close()
}
