package exercise

import (
	"encoding/json"
	"strings"
)

type generated struct {
	Passage   string   `json:"passage"`
	Items     []string `json:"items"`
	Questions []string `json:"questions"`
	Blanks    []string `json:"blanks"`
}

// Parse extracts an exercise from a generator response, handling raw JSON,
// markdown fences and prose around the object. Blank items are dropped.
// Unparsable or empty output yields ErrEmptyExercise.
func Parse(kind Kind, resp string) (*Exercise, error) {
	body := extractObject(stripFences(resp))
	if body == "" {
		return nil, ErrEmptyExercise
	}

	var g generated
	if err := json.Unmarshal([]byte(body), &g); err != nil {
		return nil, ErrEmptyExercise
	}

	raw := g.Items
	if len(raw) == 0 {
		if kind == KindFillBlank {
			raw = g.Blanks
		} else {
			raw = g.Questions
		}
	}
	var items []string
	for _, it := range raw {
		if it = strings.TrimSpace(it); it != "" {
			items = append(items, it)
		}
	}

	ex := &Exercise{Kind: kind, Passage: strings.TrimSpace(g.Passage), Items: items}
	if ex.Passage == "" || len(ex.Items) == 0 {
		return nil, ErrEmptyExercise
	}
	return ex, nil
}

func stripFences(resp string) string {
	resp = strings.TrimSpace(resp)
	if !strings.HasPrefix(resp, "```") {
		return resp
	}
	lines := strings.Split(resp, "\n")
	if len(lines) >= 2 {
		lines = lines[1:]
		if strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
			lines = lines[:len(lines)-1]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractObject returns the outermost {...} span.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
