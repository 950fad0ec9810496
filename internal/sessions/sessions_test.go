package sessions

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/go-cmp/cmp"

	"github.com/vinavi-labs/vinavi/internal/events"
	"github.com/vinavi-labs/vinavi/internal/exercise"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore() (*MemoryStore, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	ms := NewMemoryStore()
	ms.now = clock.now
	return ms, clock
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"assist", ModeAssist},
		{" conversation ", ModeConversation},
		{"கருத்தறிதல்", ModeComprehension},
		{"நிரப்புக", ModeFillBlank},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseMode("chess"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestExerciseKind(t *testing.T) {
	if k, ok := ModeFillBlank.ExerciseKind(); !ok || k != exercise.KindFillBlank {
		t.Errorf("fill_blank kind = %q, %v", k, ok)
	}
	if _, ok := ModeAssist.ExerciseKind(); ok {
		t.Error("assist mode has no exercise")
	}
}

func TestCreateGet(t *testing.T) {
	ms, _ := newTestStore()
	s, err := ms.Create(ModeAssist)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.Exercise.State != exercise.StateNotStarted {
		t.Errorf("exercise state = %q", s.Exercise.State)
	}

	got, err := ms.Get(s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}

	if _, err := ms.Get("sess_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReadsAreCopies(t *testing.T) {
	ms, _ := newTestStore()
	s, _ := ms.Create(ModeConversation)
	if _, err := ms.Update(s.ID, func(s *Session) error {
		s.Record(RoleUser, "வணக்கம்", time.Now())
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	snap, _ := ms.Get(s.ID)
	snap.Transcript[0].Content = "tampered"
	snap.Transcript = append(snap.Transcript, Turn{Role: RoleUser, Content: "extra"})

	again, _ := ms.Get(s.ID)
	if len(again.Transcript) != 1 || again.Transcript[0].Content != "வணக்கம்" {
		t.Errorf("stored transcript changed through a copy: %+v", again.Transcript)
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	ms, _ := newTestStore()
	s, _ := ms.Create(ModeAssist)
	boom := errors.New("busy")

	_, err := ms.Update(s.ID, func(s *Session) error {
		s.Record(RoleUser, "lost", time.Now())
		s.Processing = true
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	got, _ := ms.Get(s.ID)
	if len(got.Transcript) != 0 || got.Processing {
		t.Errorf("failed update leaked state: %+v", got)
	}
}

func TestTurnsAreOrdered(t *testing.T) {
	ms, clock := newTestStore()
	s, _ := ms.Create(ModeConversation)
	for i, c := range []string{"a", "b", "c"} {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		clock.advance(time.Second)
		if _, err := ms.Update(s.ID, func(s *Session) error {
			s.Record(role, c, clock.now())
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}

	got, _ := ms.Get(s.ID)
	var contents []string
	for i, turn := range got.Transcript {
		contents = append(contents, turn.Content)
		if i > 0 && !turn.At.After(got.Transcript[i-1].At) {
			t.Errorf("turn %d not after turn %d", i, i-1)
		}
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, contents); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestSwitchModeClearsModeState(t *testing.T) {
	s := &Session{Mode: ModeComprehension}
	for _, role := range []Role{RoleUser, RoleAssistant} {
		s.Record(role, "x", time.Now())
		s.Buffer(role, "x", time.Now())
	}
	s.LastAnswer = "x"
	s.Expansions = []string{"more"}
	s.Processing = true
	s.Exercise = ExerciseState{
		State:    exercise.StateFeedback,
		Exercise: &exercise.Exercise{Kind: exercise.KindComprehension, Passage: "p", Items: []string{"q"}},
		Answers:  []string{"x"},
		Feedback: "good",
	}

	s.SwitchMode(ModeFillBlank)

	if s.Mode != ModeFillBlank {
		t.Errorf("mode = %q", s.Mode)
	}
	if diff := cmp.Diff(ExerciseState{State: exercise.StateNotStarted}, s.Exercise); diff != "" {
		t.Errorf("exercise not cleared (-want +got):\n%s", diff)
	}
	if s.Conversation != nil || s.LastAnswer != "" || s.Expansions != nil || s.Processing {
		t.Errorf("mode state not cleared: %+v", s)
	}
	if len(s.Transcript) != 2 {
		t.Errorf("transcript should survive a mode switch, got %d turns", len(s.Transcript))
	}
}

func TestWindow(t *testing.T) {
	s := &Session{}
	for _, c := range []string{"1", "2", "3", "4"} {
		s.Buffer(RoleUser, c, time.Now())
	}
	s.Buffer(RoleAssistant, "5", time.Now())

	w := s.Window(2)
	if len(w) != 2 || w[0].Content != "4" || w[1].Content != "5" {
		t.Fatalf("unexpected window %+v", w)
	}
	if w[0].Role != schema.User || w[1].Role != schema.Assistant {
		t.Errorf("roles = %q, %q", w[0].Role, w[1].Role)
	}
	if len(s.Window(0)) != 5 {
		t.Error("zero window should return everything")
	}
}

func TestListAndDelete(t *testing.T) {
	ms, clock := newTestStore()
	a, _ := ms.Create(ModeAssist)
	clock.advance(time.Minute)
	b, _ := ms.Create(ModeConversation)

	list := ms.List()
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != a.ID {
		t.Fatalf("unexpected list order: %+v", list)
	}

	if err := ms.Delete(a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := ms.Delete(a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: %v", err)
	}
	if len(ms.List()) != 1 {
		t.Error("expected one session left")
	}
}

func TestEvictIdle(t *testing.T) {
	ms, clock := newTestStore()
	idle, _ := ms.Create(ModeAssist)

	clock.advance(3 * time.Hour)
	fresh, _ := ms.Create(ModeAssist)

	evicted := ms.EvictIdle(2 * time.Hour)
	if len(evicted) != 1 || evicted[0].ID != idle.ID {
		t.Fatalf("unexpected eviction: %+v", evicted)
	}
	if _, err := ms.Get(fresh.ID); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}
}

func TestEvictIdle_ProcessingFlag(t *testing.T) {
	ms, clock := newTestStore()
	abandoned, _ := ms.Create(ModeAssist)
	ms.Update(abandoned.ID, func(s *Session) error { s.Processing = true; return nil })

	clock.advance(ProcessingTimeout + time.Minute)
	inFlight, _ := ms.Create(ModeAssist)
	ms.Update(inFlight.ID, func(s *Session) error { s.Processing = true; return nil })
	clock.advance(time.Second)

	evicted := ms.EvictIdle(time.Millisecond)
	if len(evicted) != 1 || evicted[0].ID != abandoned.ID {
		t.Fatalf("expected only the abandoned session evicted, got %+v", evicted)
	}
	if _, err := ms.Get(inFlight.ID); err != nil {
		t.Errorf("session with a call in flight should survive: %v", err)
	}
}

func TestSweeperPublishesExpiry(t *testing.T) {
	ms, clock := newTestStore()
	s, _ := ms.Create(ModeAssist)

	bus := events.NewBus(16)
	defer bus.Close()
	ch, unsub := bus.SubscribeChan(s.ID, 4, events.EventSessionExpired)
	defer unsub()

	sw, err := NewSweeper(ms, bus, time.Hour, "@every 10m")
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	sw.now = clock.now
	clock.advance(2 * time.Hour)
	sw.Sweep()

	select {
	case ev := <-ch:
		p, ok := events.ExtractPayload[events.SessionExpiredPayload](ev)
		if !ok || p.IdleFor != 2*time.Hour {
			t.Errorf("unexpected payload %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session.expired")
	}
	if _, err := ms.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Error("session should be evicted")
	}
}

func TestNewSweeper_BadSchedule(t *testing.T) {
	if _, err := NewSweeper(NewMemoryStore(), nil, time.Hour, "not a schedule"); err == nil {
		t.Fatal("expected schedule parse error")
	}
}
