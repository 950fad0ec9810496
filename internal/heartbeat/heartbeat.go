// Package heartbeat lets CLI commands discover a running Vinavi gateway.
package heartbeat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vinavi-labs/vinavi/internal/config"
)

// Status represents the liveness state of the gateway.
type Status string

const (
	StatusAlive Status = "alive"
	StatusStale Status = "stale"
	StatusDead  Status = "dead"
)

// DefaultPath returns $VINAVI_PATH/heartbeat.json.
func DefaultPath() string {
	return filepath.Join(config.VinaviPath(), "heartbeat.json")
}

// Heartbeat is the data written to the heartbeat file.
type Heartbeat struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
	Sessions  int       `json:"sessions"`
}

// Uptime is the time between start and the last beat.
func (hb *Heartbeat) Uptime() time.Duration {
	return hb.Timestamp.Sub(hb.StartedAt).Truncate(time.Second)
}

// Writer periodically rewrites the heartbeat file.
type Writer struct {
	path     string
	addr     string
	interval time.Duration
	sessions func() int
	now      func() time.Time
	started  time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWriter creates a writer for the gateway at addr. sessions reports the
// live session count and may be nil.
func NewWriter(path, addr string, interval time.Duration, sessions func() int) *Writer {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Writer{path: path, addr: addr, interval: interval, sessions: sessions, now: time.Now}
}

// Start writes a first beat and keeps writing in the background.
func (w *Writer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return nil
	}

	w.started = w.now()
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("create heartbeat dir: %w", err)
	}
	if err := w.write(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := w.write(); err != nil {
					slog.Warn("heartbeat write failed", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop halts the writer and removes the file.
func (w *Writer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
	if err := os.Remove(w.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Debug("remove heartbeat", "error", err)
	}
}

func (w *Writer) write() error {
	hb := Heartbeat{
		PID:       os.Getpid(),
		Addr:      w.addr,
		StartedAt: w.started,
		Timestamp: w.now(),
	}
	if w.sessions != nil {
		hb.Sessions = w.sessions()
	}

	data, err := json.MarshalIndent(hb, "", "  ")
	if err != nil {
		return err
	}
	tmp := w.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write heartbeat: %w", err)
	}
	return os.Rename(tmp, w.path)
}

// Check reads the heartbeat at path. A beat older than maxAge is stale and a
// missing file means the gateway is not running.
func Check(path string, maxAge time.Duration) (Status, *Heartbeat, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return StatusDead, nil, nil
	}
	if err != nil {
		return StatusDead, nil, fmt.Errorf("read heartbeat: %w", err)
	}

	var hb Heartbeat
	if err := json.Unmarshal(data, &hb); err != nil {
		return StatusDead, nil, fmt.Errorf("unmarshal heartbeat: %w", err)
	}
	if time.Since(hb.Timestamp) > maxAge {
		return StatusStale, &hb, nil
	}
	return StatusAlive, &hb, nil
}
