package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/vinavi-labs/vinavi/internal/callbacks"
	"github.com/vinavi-labs/vinavi/internal/config"
	"github.com/vinavi-labs/vinavi/internal/events"
)

type mockModel struct {
	reply   string
	err     error
	gotMsgs []*schema.Message
	gotOpts *model.Options
}

func (m *mockModel) Generate(_ context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.gotMsgs = msgs
	m.gotOpts = model.GetCommonOptions(nil, opts...)
	if m.err != nil {
		return nil, m.err
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *mockModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type mockSource struct {
	models  map[string]model.BaseChatModel
	gotName string
}

func (s *mockSource) Get(_ context.Context, name string) (model.BaseChatModel, error) {
	s.gotName = name
	m, ok := s.models[name]
	if !ok {
		return nil, errors.New("model provider not found")
	}
	return m, nil
}

func TestDefaultProfiles(t *testing.T) {
	profiles := DefaultProfiles()

	tests := []struct {
		path      string
		temp      float32
		maxTokens int
	}{
		{PathModeration, 0, 5},
		{PathMeaning, 0.3, 0},
		{PathExample, 0.3, 250},
		{PathTranslation, 0.3, 0},
		{PathConversation, 0.3, 0},
		{PathExpand, 0.3, 200},
		{PathExerciseGen, 0.7, 1200},
		{PathExerciseCheck, 0.3, 800},
	}
	if len(profiles) != len(tests) {
		t.Fatalf("expected %d profiles, got %d", len(tests), len(profiles))
	}
	for _, tt := range tests {
		p, ok := profiles[tt.path]
		if !ok {
			t.Errorf("missing profile %s", tt.path)
			continue
		}
		if p.Name != tt.path {
			t.Errorf("%s: name = %q", tt.path, p.Name)
		}
		if p.Temperature == nil || *p.Temperature != tt.temp {
			t.Errorf("%s: temperature = %v, want %v", tt.path, p.Temperature, tt.temp)
		}
		if p.MaxTokens != tt.maxTokens {
			t.Errorf("%s: max tokens = %d, want %d", tt.path, p.MaxTokens, tt.maxTokens)
		}
	}
}

func TestProfiles_Overrides(t *testing.T) {
	zero := float32(0)
	profiles, err := Profiles(map[string]config.ProfileConfig{
		PathModeration: {Provider: "local", Model: "llama3"},
		PathExpand:     {Temperature: &zero, MaxTokens: 300},
	})
	if err != nil {
		t.Fatalf("Profiles: %v", err)
	}

	mod := profiles[PathModeration]
	if mod.Provider != "local" || mod.Model != "llama3" || mod.MaxTokens != 5 {
		t.Errorf("unexpected moderation profile %+v", mod)
	}
	exp := profiles[PathExpand]
	if *exp.Temperature != 0 || exp.MaxTokens != 300 {
		t.Errorf("unexpected expand profile %+v", exp)
	}
	if *DefaultProfiles()[PathExpand].Temperature != 0.3 {
		t.Error("overrides leaked into defaults")
	}
}

func TestProfiles_UnknownPath(t *testing.T) {
	_, err := Profiles(map[string]config.ProfileConfig{"summary": {}})
	if err == nil || !strings.Contains(err.Error(), "summary") {
		t.Fatalf("expected unknown profile error, got %v", err)
	}
}

func TestClientComplete_AppliesProfile(t *testing.T) {
	m := &mockModel{reply: "  no \n"}
	src := &mockSource{models: map[string]model.BaseChatModel{"": m}}
	c := NewClient(src)

	p := DefaultProfiles()[PathModeration]
	p.Model = "gpt-4"
	got, err := c.Complete(context.Background(), p, []*schema.Message{schema.UserMessage("hi")})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "no" {
		t.Errorf("expected trimmed reply %q, got %q", "no", got)
	}
	if m.gotOpts.Temperature == nil || *m.gotOpts.Temperature != 0 {
		t.Errorf("temperature option = %v, want 0", m.gotOpts.Temperature)
	}
	if m.gotOpts.MaxTokens == nil || *m.gotOpts.MaxTokens != 5 {
		t.Errorf("max tokens option = %v, want 5", m.gotOpts.MaxTokens)
	}
	if m.gotOpts.Model == nil || *m.gotOpts.Model != "gpt-4" {
		t.Errorf("model option = %v, want gpt-4", m.gotOpts.Model)
	}
}

func TestClientComplete_NoMaxTokensWhenUnset(t *testing.T) {
	m := &mockModel{reply: "ok"}
	c := NewClient(&mockSource{models: map[string]model.BaseChatModel{"": m}})

	if _, err := c.Complete(context.Background(), DefaultProfiles()[PathMeaning], nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if m.gotOpts.MaxTokens != nil {
		t.Errorf("expected provider default max tokens, got %d", *m.gotOpts.MaxTokens)
	}
}

func TestClientComplete_ProviderRouting(t *testing.T) {
	local := &mockModel{reply: "local"}
	src := &mockSource{models: map[string]model.BaseChatModel{"local": local}}
	c := NewClient(src)

	got, err := c.Complete(context.Background(), Profile{Name: PathTranslation, Provider: "local"}, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "local" || src.gotName != "local" {
		t.Errorf("expected routing to local, got %q via %q", got, src.gotName)
	}

	if _, err := c.Complete(context.Background(), Profile{Name: PathTranslation, Provider: "missing"}, nil); err == nil {
		t.Error("expected error for missing provider")
	}
}

func TestClientComplete_ClassifiesErrors(t *testing.T) {
	m := &mockModel{err: errors.New("status 429: too many requests")}
	c := NewClient(&mockSource{models: map[string]model.BaseChatModel{"": m}})

	_, err := c.Complete(context.Background(), Profile{Name: PathMeaning}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "meaning: rate limited") {
		t.Errorf("expected classified error, got %v", err)
	}
}

// reportingModel fires chat model callbacks the way eino-ext drivers do.
type reportingModel struct{ mockModel }

func (m *reportingModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	ctx = einocb.OnStart(ctx, &model.CallbackInput{Messages: msgs})
	out, err := m.mockModel.Generate(ctx, msgs, opts...)
	if err != nil {
		einocb.OnError(ctx, err)
		return nil, err
	}
	einocb.OnEnd(ctx, &model.CallbackOutput{Message: out})
	return out, nil
}

func TestClientComplete_WithHandlers(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	ch, unsub := bus.SubscribeChan("s1", 8, events.EventLLMCall)
	defer unsub()

	m := &reportingModel{mockModel{reply: "ok"}}
	c := NewClient(&mockSource{models: map[string]model.BaseChatModel{"": m}}, callbacks.NewEventBusHandler(bus))

	ctx := events.ContextWithSessionID(context.Background(), "s1")
	got, err := c.Complete(ctx, Profile{Name: PathMeaning}, []*schema.Message{schema.UserMessage("x")})
	if err != nil || got != "ok" {
		t.Fatalf("Complete = %q, %v", got, err)
	}

	// Subscribers are notified concurrently, so phases may arrive in any order.
	phases := map[string]bool{}
	for range 2 {
		select {
		case e := <-ch:
			p, ok := events.ExtractPayload[events.LLMCallPayload](e)
			if !ok || p.Model != PathMeaning || p.Provider != "default" {
				t.Errorf("unexpected payload %+v", p)
			}
			phases[p.Phase] = true
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for llm call events")
		}
	}
	if !phases["request"] || !phases["response"] {
		t.Errorf("expected request and response phases, got %v", phases)
	}
}
