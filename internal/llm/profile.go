package llm

import (
	"fmt"
	"sort"

	"github.com/vinavi-labs/vinavi/internal/config"
)

// Prompt paths. Each one owns an LLM profile.
const (
	PathModeration    = "moderation"
	PathMeaning       = "meaning"
	PathExample       = "example"
	PathTranslation   = "translation"
	PathConversation  = "conversation"
	PathExpand        = "expand"
	PathExerciseGen   = "exercise_gen"
	PathExerciseCheck = "exercise_check"
)

// Profile is the call shape of one prompt path: which provider and model
// answer it, at what temperature, with what output bound.
type Profile struct {
	Name        string
	Provider    string   // registry name; empty selects the default provider
	Model       string   // overrides the provider's model when set
	Temperature *float32 // nil keeps the provider default
	MaxTokens   int      // 0 keeps the provider default
}

func temp(v float32) *float32 { return &v }

// DefaultProfiles returns the built-in profile of every prompt path.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		PathModeration:    {Name: PathModeration, Temperature: temp(0), MaxTokens: 5},
		PathMeaning:       {Name: PathMeaning, Temperature: temp(0.3)},
		PathExample:       {Name: PathExample, Temperature: temp(0.3), MaxTokens: 250},
		PathTranslation:   {Name: PathTranslation, Temperature: temp(0.3)},
		PathConversation:  {Name: PathConversation, Temperature: temp(0.3)},
		PathExpand:        {Name: PathExpand, Temperature: temp(0.3), MaxTokens: 200},
		PathExerciseGen:   {Name: PathExerciseGen, Temperature: temp(0.7), MaxTokens: 1200},
		PathExerciseCheck: {Name: PathExerciseCheck, Temperature: temp(0.3), MaxTokens: 800},
	}
}

// Profiles merges config overrides onto the defaults.
// An override for an unknown path is an error.
func Profiles(overrides map[string]config.ProfileConfig) (map[string]Profile, error) {
	out := DefaultProfiles()

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		p, ok := out[name]
		if !ok {
			return nil, fmt.Errorf("unknown profile %q", name)
		}
		o := overrides[name]
		if o.Provider != "" {
			p.Provider = o.Provider
		}
		if o.Model != "" {
			p.Model = o.Model
		}
		if o.Temperature != nil {
			p.Temperature = temp(*o.Temperature)
		}
		if o.MaxTokens > 0 {
			p.MaxTokens = o.MaxTokens
		}
		out[name] = p
	}
	return out, nil
}
