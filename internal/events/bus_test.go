package events

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestBusPublishSubscribe(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	var mu sync.Mutex
	var received []Event

	bus.Subscribe(func(e Event) {
		mu.Lock()
		received = append(received, e)
		mu.Unlock()
	}, EventUserMessage)

	bus.Publish(NewTypedEvent(SourceCompanion, UserMessagePayload{Mode: "assist", Content: "நன்றி"}))
	bus.Publish(NewTypedEvent(SourceCompanion, ExerciseStartedPayload{Kind: "comprehension", Items: 3}))

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(received) != 1 {
		t.Fatalf("expected 1 event, got %d", len(received))
	}
	if received[0].Type != EventUserMessage {
		t.Errorf("expected user.message, got %s", received[0].Type)
	}
}

func TestBusSubscribeAll(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	var mu sync.Mutex
	count := 0

	bus.Subscribe(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.Publish(NewTypedEvent(SourceCompanion, UserMessagePayload{Content: "hello"}))
	bus.Publish(NewTypedEvent(SourceCompanion, ExerciseResetPayload{Reason: ResetRequested}))

	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if count != 2 {
		t.Errorf("expected 2 events, got %d", count)
	}
}

func TestBusSubscribeSession(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	ch, unsub := bus.SubscribeChan("s1", 8)
	defer unsub()

	bus.Publish(NewTypedEventWithSession(SourceCompanion, UserMessagePayload{Content: "other"}, "s2"))
	bus.Publish(NewTypedEventWithSession(SourceCompanion, UserMessagePayload{Content: "mine"}, "s1"))

	select {
	case e := <-ch:
		if e.SessionID != "s1" {
			t.Errorf("expected session s1, got %q", e.SessionID)
		}
		p, ok := ExtractPayload[UserMessagePayload](e)
		if !ok || p.Content != "mine" {
			t.Errorf("unexpected payload %+v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case e := <-ch:
		t.Fatalf("unexpected second event %+v", e)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRingBuffer(t *testing.T) {
	rb := NewRingBuffer(3)

	for i := 0; i < 5; i++ {
		rb.Add(NewEvent(EventUserMessage, SourceCompanion, map[string]any{"i": i}))
	}

	events := rb.Get(10)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Payload["i"] != 2 || events[2].Payload["i"] != 4 {
		t.Errorf("expected oldest-first window [2..4], got %v .. %v", events[0].Payload["i"], events[2].Payload["i"])
	}
}

func TestSessionHistory(t *testing.T) {
	bus := NewBus(16)
	defer bus.Close()

	for i := 0; i < 4; i++ {
		sid := "a"
		if i%2 == 1 {
			sid = "b"
		}
		bus.Publish(NewTypedEventWithSession(SourceCompanion, SessionClosedPayload{Turns: i}, sid))
	}

	deadline := time.Now().Add(time.Second)
	for len(bus.History(10)) < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	got := bus.SessionHistory("b", 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 events for b, got %d", len(got))
	}
	first, _ := ExtractPayload[SessionClosedPayload](got[0])
	second, _ := ExtractPayload[SessionClosedPayload](got[1])
	if first.Turns != 1 || second.Turns != 3 {
		t.Errorf("expected oldest first (1, 3), got (%d, %d)", first.Turns, second.Turns)
	}

	if got := bus.SessionHistory("a", 1); len(got) != 1 {
		t.Errorf("expected limit to apply, got %d", len(got))
	}
}

func TestSubscribeChanUnsubscribeTwice(t *testing.T) {
	bus := NewBus(8)
	defer bus.Close()

	_, unsub := bus.SubscribeChan("", 1)
	unsub()
	unsub()
}

func TestPublishAfterClose(t *testing.T) {
	bus := NewBus(8)
	bus.Close()
	bus.Publish(NewTypedEvent(SourceCompanion, UserMessagePayload{Content: "late"}))
	bus.Close()
}

func TestSubscribeChanPreservesOrder(t *testing.T) {
	bus := NewBus(512)
	defer bus.Close()

	ch, unsub := bus.SubscribeChan("sess_1", 512, EventUserMessage)
	defer unsub()

	const n = 200
	for i := range n {
		bus.Publish(NewTypedEventWithSession(SourceCompanion, UserMessagePayload{Content: strconv.Itoa(i)}, "sess_1"))
	}

	for i := range n {
		select {
		case e := <-ch:
			p, ok := ExtractPayload[UserMessagePayload](e)
			if !ok || p.Content != strconv.Itoa(i) {
				t.Fatalf("event %d out of order: got %q", i, p.Content)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}
