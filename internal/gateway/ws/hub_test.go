package ws

import (
	"testing"
	"time"

	"github.com/vinavi-labs/vinavi/internal/events"
)

func recv(t *testing.T, c *Client) (Frame, bool) {
	t.Helper()
	select {
	case data := <-c.send:
		f, err := UnmarshalFrame(data)
		if err != nil {
			t.Fatalf("UnmarshalFrame: %v", err)
		}
		return f, true
	case <-time.After(200 * time.Millisecond):
		return Frame{}, false
	}
}

func TestHub_BroadcastFiltersBySession(t *testing.T) {
	bus := events.NewBus(16)
	t.Cleanup(bus.Close)
	h := NewHub(bus, nil, nil)
	t.Cleanup(h.unsubscribe)

	mine := &Client{send: make(chan []byte, 8), hub: h, sessionID: "sess_a"}
	other := &Client{send: make(chan []byte, 8), hub: h, sessionID: "sess_b"}
	all := &Client{send: make(chan []byte, 8), hub: h}
	for _, c := range []*Client{mine, other, all} {
		h.register(c)
	}

	bus.Publish(events.NewTypedEventWithSession(events.SourceCompanion,
		events.AssistantMessagePayload{Content: "வணக்கம்"}, "sess_a"))

	f, ok := recv(t, mine)
	if !ok {
		t.Fatal("expected frame for matching session")
	}
	if f.Type != FrameTypeEvent || f.Event != string(events.EventAssistantMessage) || f.SessionID != "sess_a" {
		t.Fatalf("unexpected frame %+v", f)
	}
	if _, ok := recv(t, all); !ok {
		t.Fatal("unscoped client should receive every event")
	}
	if f, ok := recv(t, other); ok {
		t.Fatalf("other session received %+v", f)
	}
}

func TestHub_SkipsInternalEvents(t *testing.T) {
	bus := events.NewBus(16)
	t.Cleanup(bus.Close)
	h := NewHub(bus, nil, nil)
	t.Cleanup(h.unsubscribe)

	c := &Client{send: make(chan []byte, 8), hub: h}
	h.register(c)

	bus.Publish(events.NewTypedEventWithSession(events.SourceModel,
		events.LLMCallPayload{Phase: "response"}, "sess_a"))

	if f, ok := recv(t, c); ok {
		t.Fatalf("internal event forwarded: %+v", f)
	}
	if h.Clients() != 1 {
		t.Fatalf("expected 1 client, got %d", h.Clients())
	}
}
