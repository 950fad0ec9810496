// Package speech turns answer text into Tamil audio using the Google
// Translate TTS endpoint.
package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vinavi-labs/vinavi/internal/config"
)

const (
	defaultEndpoint = "https://translate.google.com/translate_tts"
	maxChunkRunes   = 200
	maxChunkBytes   = 2 << 20 // per fetched chunk
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

var (
	// ErrNothingToSay is returned when the text is empty after cleaning.
	ErrNothingToSay = errors.New("no text to speak")
	// ErrAudioTooLarge is returned when a chunk's audio exceeds the size cap.
	ErrAudioTooLarge = errors.New("audio response too large")
)

// Audio is synthesized speech.
type Audio struct {
	Data        []byte
	ContentType string
	Chunks      int
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
}

// GoogleTTS fetches MP3 speech from the Google Translate TTS endpoint.
type GoogleTTS struct {
	endpoint string
	language string
	client   *http.Client
	maxBytes int64
}

// NewGoogleTTS creates a synthesizer from the speech config.
func NewGoogleTTS(cfg config.SpeechConfig) *GoogleTTS {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	lang := cfg.Language
	if lang == "" {
		lang = "ta"
	}
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleTTS{endpoint: endpoint, language: lang, client: &http.Client{Timeout: timeout}, maxBytes: maxChunkBytes}
}

// Synthesize cleans text, splits it into endpoint-sized chunks and
// concatenates the MP3 parts.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) (*Audio, error) {
	chunks := Chunk(Clean(text), maxChunkRunes)
	if len(chunks) == 0 {
		return nil, ErrNothingToSay
	}

	var buf bytes.Buffer
	for i, c := range chunks {
		if err := g.fetch(ctx, &buf, c, i, len(chunks)); err != nil {
			return nil, fmt.Errorf("tts chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return &Audio{Data: buf.Bytes(), ContentType: "audio/mpeg", Chunks: len(chunks)}, nil
}

func (g *GoogleTTS) fetch(ctx context.Context, w io.Writer, text string, idx, total int) error {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", g.language)
	params.Set("client", "tw-ob")
	params.Set("idx", strconv.Itoa(idx))
	params.Set("total", strconv.Itoa(total))
	params.Set("textlen", strconv.Itoa(utf8.RuneCountInString(text)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	n, err := io.Copy(w, io.LimitReader(resp.Body, g.maxBytes+1))
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}
	if n > g.maxBytes {
		return fmt.Errorf("%w: chunk %d exceeds %d bytes", ErrAudioTooLarge, idx, g.maxBytes)
	}
	return nil
}

// Clean removes markdown bold markers and collapses whitespace.
func Clean(text string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(text, "**", "")), " ")
}

// Chunk splits text on whitespace into pieces of at most max runes.
// A single word longer than max is cut at rune boundaries.
func Chunk(text string, max int) []string {
	var (
		out []string
		cur strings.Builder
		n   int
	)
	flush := func() {
		if n > 0 {
			out = append(out, cur.String())
			cur.Reset()
			n = 0
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > max {
			flush()
			out = append(out, string(runes[:max]))
			runes = runes[max:]
		}
		wl := len(runes)
		if wl == 0 {
			continue
		}
		if n > 0 && n+1+wl > max {
			flush()
		}
		if n > 0 {
			cur.WriteByte(' ')
			n++
		}
		cur.WriteString(string(runes))
		n += wl
	}
	flush()
	return out
}
