package models

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cloudwego/eino/components/model"

	"github.com/vinavi-labs/vinavi/internal/config"
)

// ProviderEntry holds a lazily-initialized model instance.
type ProviderEntry struct {
	Config config.ProviderConfig
	model  model.BaseChatModel
	once   sync.Once
	err    error
}

// Registry manages named model providers with lazy initialization.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]*ProviderEntry
	defaultName string
}

// NewRegistry creates a model registry from config.
func NewRegistry(cfg config.ModelsConfig) *Registry {
	r := &Registry{
		providers:   make(map[string]*ProviderEntry, len(cfg.Providers)),
		defaultName: cfg.Default,
	}
	for name, provCfg := range cfg.Providers {
		r.providers[name] = &ProviderEntry{Config: provCfg}
	}
	return r
}

// Register adds an already constructed model under name.
// Used by tests and embedders of the companion that bring their own model.
func (r *Registry) Register(name string, m model.BaseChatModel) {
	entry := &ProviderEntry{model: m}
	entry.once.Do(func() {})

	r.mu.Lock()
	r.providers[name] = entry
	if r.defaultName == "" {
		r.defaultName = name
	}
	r.mu.Unlock()
}

// Get returns the named model, initializing it lazily.
// An empty name selects the default provider.
func (r *Registry) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = r.defaultName
	}
	if name == "" {
		return nil, fmt.Errorf("no default model configured")
	}

	r.mu.RLock()
	entry, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("model provider %q not found", name)
	}

	entry.once.Do(func() {
		entry.model, entry.err = CreateModel(ctx, entry.Config)
	})
	return entry.model, entry.err
}

// Default returns the default model.
func (r *Registry) Default(ctx context.Context) (model.BaseChatModel, error) {
	return r.Get(ctx, "")
}

// DefaultName returns the name of the default provider.
func (r *Registry) DefaultName() string {
	return r.defaultName
}

// Has reports whether a provider with that name is configured.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// ProviderInfo describes a configured provider without exposing credentials.
type ProviderInfo struct {
	Name    string `json:"name"`
	Driver  string `json:"driver"`
	Model   string `json:"model"`
	Default bool   `json:"default"`
}

// Providers lists configured providers sorted by name.
func (r *Registry) Providers() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderInfo, 0, len(r.providers))
	for name, e := range r.providers {
		out = append(out, ProviderInfo{
			Name:    name,
			Driver:  e.Config.Driver,
			Model:   e.Config.Model,
			Default: name == r.defaultName,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
