package config

import "time"

// Config is the root configuration for Vinavi.
type Config struct {
	Server       ServerConfig             `json:"server"`
	Models       ModelsConfig             `json:"models"`
	Embedding    EmbeddingConfig          `json:"embedding"`
	Index        IndexConfig              `json:"index"`
	Profiles     map[string]ProfileConfig `json:"profiles,omitempty"`
	Retrieval    RetrievalConfig          `json:"retrieval"`
	Conversation ConversationConfig       `json:"conversation"`
	Exercises    ExercisesConfig          `json:"exercises"`
	Moderation   ModerationConfig         `json:"moderation"`
	Speech       SpeechConfig             `json:"speech"`
	Sessions     SessionsConfig           `json:"sessions"`
	Events       EventsConfig             `json:"events"`
	Transcripts  TranscriptsConfig        `json:"transcripts"`
	Prompts      PromptsConfig            `json:"prompts"`
}

// ServerConfig holds the gateway server settings.
type ServerConfig struct {
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	CORSOrigins []string `json:"cors_origins,omitempty"`
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default"`
	Providers map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Driver    string         `json:"driver"` // "openai", "ollama", "claude", "gemini", "mistral"
	Model     string         `json:"model"`
	BaseURL   string         `json:"base_url,omitempty"`
	Auth      AuthConfig     `json:"auth"`
	MaxTokens int            `json:"max_tokens,omitempty"`
	Timeout   Duration       `json:"timeout,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// AuthConfig configures API key resolution.
type AuthConfig struct {
	APIKey string `json:"api_key,omitempty"` // Direct API key or ${{ .Env.VAR }} template
}

// EmbeddingConfig configures the embedder used to query the passage index.
type EmbeddingConfig struct {
	Driver  string     `json:"driver"` // "openai", "ollama"
	Model   string     `json:"model"`
	BaseURL string     `json:"base_url,omitempty"`
	Dims    int        `json:"dims,omitempty"`
	Auth    AuthConfig `json:"auth"`
}

// IndexConfig locates the pre-built passage index on disk.
type IndexConfig struct {
	Path       string `json:"path"`
	Collection string `json:"collection"`
}

// ProfileConfig overrides the LLM settings of one prompt path
// (moderation, meaning, example, translation, conversation, expand,
// exercise_gen, exercise_check).
type ProfileConfig struct {
	Provider    string   `json:"provider,omitempty"`
	Model       string   `json:"model,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// RetrievalConfig sets top-k and score cutoffs for the retrieval-backed paths.
type RetrievalConfig struct {
	Meaning SearchConfig `json:"meaning"`
	Example SearchConfig `json:"example"`
}

// SearchConfig is a single retrieval setting.
//
// Threshold is a cosine-similarity floor. MaxDistance is the squared L2
// distance cutoff between unit embeddings; when set it takes precedence and
// maps to a floor of 1 - MaxDistance/2.
type SearchConfig struct {
	TopK        int     `json:"top_k"`
	Threshold   float32 `json:"threshold,omitempty"`
	MaxDistance float32 `json:"max_distance,omitempty"`
}

// MinSimilarity returns the cosine floor passages must reach.
func (c SearchConfig) MinSimilarity() float32 {
	if c.MaxDistance > 0 {
		return max(1-c.MaxDistance/2, -1)
	}
	return c.Threshold
}

// ConversationConfig controls conversational memory.
type ConversationConfig struct {
	HistoryWindow int `json:"history_window"` // messages replayed as context
}

// ExercisesConfig controls exercise generation.
type ExercisesConfig struct {
	Items int `json:"items"` // questions or blanks per exercise
}

// ModerationConfig configures the moderation gate.
type ModerationConfig struct {
	Blocklist     []string `json:"blocklist,omitempty"`
	BlocklistFile string   `json:"blocklist_file,omitempty"`
	Refusal       string   `json:"refusal,omitempty"` // reply to flagged free text
}

// SpeechConfig configures text-to-speech.
type SpeechConfig struct {
	Language string   `json:"language"`
	Endpoint string   `json:"endpoint,omitempty"`
	Timeout  Duration `json:"timeout,omitempty"`
}

// SessionsConfig controls the in-memory session store.
type SessionsConfig struct {
	IdleTTL       Duration `json:"idle_ttl,omitempty"`
	SweepSchedule string   `json:"sweep_schedule,omitempty"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `json:"buffer_size"`
}

// TranscriptsConfig controls the JSONL transcript log.
type TranscriptsConfig struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir,omitempty"`
}

// PromptsConfig points at an optional YAML file overriding prompt templates.
type PromptsConfig struct {
	File string `json:"file,omitempty"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
