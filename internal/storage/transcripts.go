package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vinavi-labs/vinavi/internal/events"
)

// transcriptEvents are the conversational events worth auditing.
var transcriptEvents = []events.EventType{
	events.EventSessionCreated,
	events.EventSessionModeChanged,
	events.EventSessionExpired,
	events.EventSessionClosed,
	events.EventUserMessage,
	events.EventAssistantMessage,
	events.EventModerationBlocked,
	events.EventExerciseStarted,
	events.EventExerciseFeedback,
	events.EventExerciseReset,
}

const transcriptBuffer = 1024

// TranscriptLogger appends session events as JSONL, one file per session.
// The files are an audit trail and are never read back by the service.
// A single goroutine writes, so lines keep publish order.
type TranscriptLogger struct {
	dir         string
	unsubscribe func()
	done        chan struct{}
}

// NewTranscriptLogger subscribes to conversational events and writes them under dir.
func NewTranscriptLogger(dir string, bus *events.Bus) *TranscriptLogger {
	ch, unsubscribe := bus.SubscribeChan("", transcriptBuffer, transcriptEvents...)
	tl := &TranscriptLogger{dir: dir, unsubscribe: unsubscribe, done: make(chan struct{})}
	go tl.run(ch)
	return tl
}

// Close unsubscribes from the event bus and waits for pending writes.
func (tl *TranscriptLogger) Close() {
	tl.unsubscribe()
	<-tl.done
}

func (tl *TranscriptLogger) run(ch <-chan events.Event) {
	defer close(tl.done)
	for e := range ch {
		tl.handleEvent(e)
	}
}

func (tl *TranscriptLogger) handleEvent(e events.Event) {
	if err := tl.write(e); err != nil {
		slog.Warn("transcript write failed", "session_id", e.SessionID, "error", err)
	}
}

func (tl *TranscriptLogger) write(e events.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(tl.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(tl.path(e.SessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(data)
	return err
}

func (tl *TranscriptLogger) path(sessionID string) string {
	if sessionID == "" {
		return filepath.Join(tl.dir, "_global.jsonl")
	}
	return filepath.Join(tl.dir, sessionID+".jsonl")
}
