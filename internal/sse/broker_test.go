package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func drain(ch chan []byte) []string {
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

func countType(msgs []string, typ string) int {
	n := 0
	for _, m := range msgs {
		if strings.HasPrefix(m, "event: "+typ+"\n") {
			n++
		}
	}
	return n
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
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

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "custom", Data: map[string]string{"slug": "a"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: custom") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"slug":"a"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishDocumentEvent(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("created", "PORTFOLIO-a.md")
	b.PublishDocumentEvent("updated", "PORTFOLIO-a.md")
	b.PublishDocumentEvent("deleted", "PORTFOLIO-a.md")
	b.PublishDocumentEvent("renamed", "PORTFOLIO-a.md")

	time.Sleep(50 * time.Millisecond)
	msgs := drain(ch)
	if len(msgs) != 3 {
		t.Fatalf("got %d events, want 3: %q", len(msgs), msgs)
	}
	for _, typ := range []string{TypeDocumentCreated, TypeDocumentUpdated, TypeDocumentDeleted} {
		if countType(msgs, typ) != 1 {
			t.Errorf("expected one %s event in %q", typ, msgs)
		}
	}
	if !strings.Contains(msgs[0], `"path":"PORTFOLIO-a.md"`) {
		t.Errorf("missing path in %q", msgs[0])
	}
}

func TestPublishDatasetUpdated_Throttle(t *testing.T) {
	b := NewBroker(300 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDatasetUpdated(map[string]int{"projects": 1})
	b.PublishDatasetUpdated(map[string]int{"projects": 2})
	b.PublishDatasetUpdated(map[string]int{"projects": 3})

	time.Sleep(50 * time.Millisecond)
	msgs := drain(ch)
	if n := countType(msgs, TypeDatasetUpdated); n != 1 {
		t.Fatalf("expected 1 immediate dataset.updated, got %d", n)
	}
	if !strings.Contains(msgs[0], `"projects":1`) {
		t.Errorf("first event should carry first payload: %q", msgs[0])
	}

	// The coalesced update arrives when the interval ends, with the latest payload.
	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, `"projects":3`) {
			t.Errorf("trailing event should carry latest payload: %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for trailing dataset.updated")
	}

	time.Sleep(50 * time.Millisecond)
	if extra := drain(ch); len(extra) != 0 {
		t.Errorf("unexpected extra events: %q", extra)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	b.Publish(Event{Type: TypeDatasetUpdated, Data: map[string]int{"projects": 4}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content-type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "event: dataset.updated") {
		t.Errorf("body missing event: %q", w.Body.String())
	}
}

func TestFullBufferDoesNotBlock(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for i := 0; i < 200; i++ {
		b.Publish(Event{Type: "x", Data: i})
	}
	time.Sleep(50 * time.Millisecond)
	if got := len(drain(ch)); got != 64 {
		t.Errorf("buffered %d messages, want 64", got)
	}
}

func TestClose(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("client channel should be closed")
	}
	b.Close()
	b.Publish(Event{Type: "x"})
	b.PublishDatasetUpdated(nil)
	if b.ClientCount() != 0 {
		t.Error("closed broker should report 0 clients")
	}
	if _, ok := <-b.Subscribe(); ok {
		t.Error("subscribe after close should return a closed channel")
	}
}
