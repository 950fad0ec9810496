package prompts

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/vinavi-labs/vinavi/internal/llm"
)

const historyKey = "history"

// Exercise kinds as used in requests.
const (
	KindComprehension = "comprehension"
	KindFillBlank     = "fill_blank"
)

// ModerationRequest classifies one piece of free text.
type ModerationRequest struct {
	Text string
}

func (ModerationRequest) Template() string { return NameModeration }
func (ModerationRequest) Profile() string  { return llm.PathModeration }
func (r ModerationRequest) variables() map[string]any {
	return map[string]any{"text": r.Text}
}

// MeaningRequest asks for the meaning of a word, grounded on retrieved passages.
type MeaningRequest struct {
	Question string
	Context  string
}

func (MeaningRequest) Template() string { return NameMeaning }
func (MeaningRequest) Profile() string  { return llm.PathMeaning }
func (r MeaningRequest) variables() map[string]any {
	return map[string]any{"question": r.Question, "context": r.Context}
}

// ExampleRequest asks for an example sentence, grounded on retrieved passages.
type ExampleRequest struct {
	Question string
	Context  string
}

func (ExampleRequest) Template() string { return NameExample }
func (ExampleRequest) Profile() string  { return llm.PathExample }
func (r ExampleRequest) variables() map[string]any {
	return map[string]any{"question": r.Question, "context": r.Context}
}

// TranslationRequest translates a word or sentence.
type TranslationRequest struct {
	Text string
}

func (TranslationRequest) Template() string { return NameTranslation }
func (TranslationRequest) Profile() string  { return llm.PathTranslation }
func (r TranslationRequest) variables() map[string]any {
	return map[string]any{"text": r.Text}
}

// ConversationRequest continues an open-ended conversation.
// History is the already-windowed buffer, oldest first.
type ConversationRequest struct {
	History []*schema.Message
	Input   string
}

func (ConversationRequest) Template() string { return NameConversation }
func (ConversationRequest) Profile() string  { return llm.PathConversation }
func (r ConversationRequest) variables() map[string]any {
	return map[string]any{historyKey: r.History, "input": r.Input}
}

// ExpandRequest elaborates on the last assistant answer.
type ExpandRequest struct {
	History    []*schema.Message
	LastAnswer string
}

func (ExpandRequest) Template() string { return NameExpand }
func (ExpandRequest) Profile() string  { return llm.PathExpand }
func (r ExpandRequest) variables() map[string]any {
	return map[string]any{historyKey: r.History, "last_answer": r.LastAnswer}
}

// GenerateExerciseRequest asks for a passage and Count questions or blanks.
type GenerateExerciseRequest struct {
	Kind  string
	Count int
}

func (r GenerateExerciseRequest) Template() string {
	if r.Kind == KindFillBlank {
		return NameFillBlankGen
	}
	return NameComprehensionGen
}
func (GenerateExerciseRequest) Profile() string { return llm.PathExerciseGen }
func (r GenerateExerciseRequest) variables() map[string]any {
	count := r.Count
	if count <= 0 {
		count = 3
	}
	return map[string]any{"count": count}
}

// ValidateExerciseRequest asks for feedback on all answers at once.
type ValidateExerciseRequest struct {
	Kind    string
	Passage string
	Items   []string
	Answers []string
}

func (r ValidateExerciseRequest) Template() string {
	if r.Kind == KindFillBlank {
		return NameFillBlankCheck
	}
	return NameComprehensionCheck
}
func (ValidateExerciseRequest) Profile() string { return llm.PathExerciseCheck }
func (r ValidateExerciseRequest) variables() map[string]any {
	return map[string]any{
		"passage": r.Passage,
		"items":   numbered(r.Items),
		"answers": numbered(r.Answers),
	}
}

// numbered renders a list as "1. a\n2. b". Blank entries show as "-".
func numbered(lines []string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		l = strings.TrimSpace(l)
		if l == "" {
			l = "-"
		}
		fmt.Fprintf(&b, "%d. %s", i+1, l)
	}
	return b.String()
}

// sampleRequests supplies placeholder values when validating overrides.
var sampleRequests = map[string]Request{
	NameModeration:         ModerationRequest{Text: "x"},
	NameMeaning:            MeaningRequest{Question: "x", Context: "x"},
	NameExample:            ExampleRequest{Question: "x", Context: "x"},
	NameTranslation:        TranslationRequest{Text: "x"},
	NameConversation:       ConversationRequest{Input: "x"},
	NameExpand:             ExpandRequest{LastAnswer: "x"},
	NameComprehensionGen:   GenerateExerciseRequest{Kind: KindComprehension},
	NameFillBlankGen:       GenerateExerciseRequest{Kind: KindFillBlank},
	NameComprehensionCheck: ValidateExerciseRequest{Kind: KindComprehension},
	NameFillBlankCheck:     ValidateExerciseRequest{Kind: KindFillBlank},
}
