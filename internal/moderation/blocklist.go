package moderation

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode"
)

// Blocklist flags text containing a listed word or phrase, matched
// case-insensitively on whole words.
type Blocklist struct {
	entries [][]string
}

// NewBlocklist builds a blocklist from inline entries and an optional file
// with one entry per line ('#' starts a comment). A missing file is ignored.
func NewBlocklist(words []string, file string) (*Blocklist, error) {
	b := &Blocklist{}
	for _, w := range words {
		b.add(w)
	}
	if file == "" {
		return b, nil
	}

	f, err := os.Open(file)
	if errors.Is(err, fs.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open blocklist: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		b.add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read blocklist: %w", err)
	}
	return b, nil
}

func (b *Blocklist) add(entry string) {
	if toks := tokenize(entry); len(toks) > 0 {
		b.entries = append(b.entries, toks)
	}
}

// Len returns the number of entries.
func (b *Blocklist) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Match returns the first entry found in text.
func (b *Blocklist) Match(text string) (string, bool) {
	if b.Len() == 0 {
		return "", false
	}
	toks := tokenize(text)
	for _, entry := range b.entries {
		if containsRun(toks, entry) {
			return strings.Join(entry, " "), true
		}
	}
	return "", false
}

// tokenize lowercases text and splits it into words. Combining marks stay
// inside the word so Tamil vowel signs do not split syllables.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsMark(r) && !unicode.IsDigit(r)
	})
}

func containsRun(toks, run []string) bool {
	for i := 0; i+len(run) <= len(toks); i++ {
		match := true
		for j := range run {
			if toks[i+j] != run[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
