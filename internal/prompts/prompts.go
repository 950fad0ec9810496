// Package prompts holds the templates of every prompt path and the typed
// requests that fill them.
package prompts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"gopkg.in/yaml.v3"
)

// Template names.
const (
	NameModeration         = "moderation"
	NameMeaning            = "meaning"
	NameExample            = "example"
	NameTranslation        = "translation"
	NameConversation       = "conversation"
	NameExpand             = "expand"
	NameComprehensionGen   = "comprehension_generate"
	NameFillBlankGen       = "fill_blank_generate"
	NameComprehensionCheck = "comprehension_check"
	NameFillBlankCheck     = "fill_blank_check"
)

// Template is a system/user message pair in eino FString syntax.
// History templates get the replayed turns between the two messages.
type Template struct {
	System  string `yaml:"system"`
	User    string `yaml:"user"`
	History bool   `yaml:"-"`
}

// Set is an immutable collection of templates keyed by name.
type Set struct {
	templates map[string]Template
}

// Defaults returns the built-in templates.
func Defaults() *Set {
	return &Set{templates: map[string]Template{
		NameModeration:         {User: ModerationPrompt},
		NameMeaning:            {System: MeaningSystem, User: MeaningUser},
		NameExample:            {System: ExampleSystem, User: ExampleUser},
		NameTranslation:        {System: TranslationSystem, User: TranslationUser},
		NameConversation:       {System: ConversationSystem, User: ConversationUser, History: true},
		NameExpand:             {System: ExpandSystem, User: ExpandUser, History: true},
		NameComprehensionGen:   {System: ComprehensionGenSystem, User: ComprehensionGenUser},
		NameFillBlankGen:       {System: FillBlankGenSystem, User: FillBlankGenUser},
		NameComprehensionCheck: {System: ComprehensionCheckSystem, User: ComprehensionCheckUser},
		NameFillBlankCheck:     {System: FillBlankCheckSystem, User: FillBlankCheckUser},
	}}
}

// Load returns the defaults with the templates of the YAML file at path
// applied on top. An empty path or a missing file yields the defaults.
//
// File shape:
//
//	meaning:
//	  system: "..."
//	  user: "Context: {context} ..."
func Load(path string) (*Set, error) {
	set := Defaults()
	if path == "" {
		return set, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return set, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}

	var overrides map[string]Template
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if err := set.apply(overrides); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *Set) apply(overrides map[string]Template) error {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		base, ok := s.templates[name]
		if !ok {
			return fmt.Errorf("unknown prompt %q", name)
		}
		o := overrides[name]
		if o.System != "" {
			base.System = o.System
		}
		if o.User != "" {
			base.User = o.User
		}
		if err := validate(name, base); err != nil {
			return err
		}
		s.templates[name] = base
	}
	return nil
}

// validate formats t with sample values so broken placeholders fail at load.
func validate(name string, t Template) error {
	sample, ok := sampleRequests[name]
	if !ok {
		return nil
	}
	if _, err := format(context.Background(), t, sample.variables()); err != nil {
		return fmt.Errorf("prompt %q: %w", name, err)
	}
	return nil
}

// Request is a typed prompt request. Each request knows its template and the
// LLM profile that answers it.
type Request interface {
	Template() string
	Profile() string
	variables() map[string]any
}

// Build renders r into chat messages.
func (s *Set) Build(ctx context.Context, r Request) ([]*schema.Message, error) {
	t, ok := s.templates[r.Template()]
	if !ok {
		return nil, fmt.Errorf("unknown prompt %q", r.Template())
	}
	msgs, err := format(ctx, t, r.variables())
	if err != nil {
		return nil, fmt.Errorf("format %s prompt: %w", r.Template(), err)
	}
	return msgs, nil
}

// Get returns the named template.
func (s *Set) Get(name string) (Template, bool) {
	t, ok := s.templates[name]
	return t, ok
}

func format(ctx context.Context, t Template, vars map[string]any) ([]*schema.Message, error) {
	var parts []schema.MessagesTemplate
	if t.System != "" {
		parts = append(parts, schema.SystemMessage(t.System))
	}
	if t.History {
		parts = append(parts, schema.MessagesPlaceholder(historyKey, true))
	}
	parts = append(parts, schema.UserMessage(t.User))

	return prompt.FromMessages(schema.FString, parts...).Format(ctx, vars)
}
