package sessions

import (
	"fmt"
	"log/slog"
	"time"

	cron "github.com/netresearch/go-cron"

	"github.com/vinavi-labs/vinavi/internal/events"
)

// Sweeper periodically evicts idle sessions.
type Sweeper struct {
	store *MemoryStore
	bus   *events.Bus
	ttl   time.Duration
	cron  *cron.Cron
	now   func() time.Time
}

// NewSweeper schedules idle eviction on a cron schedule such as "@every 10m".
// bus may be nil.
func NewSweeper(store *MemoryStore, bus *events.Bus, ttl time.Duration, schedule string) (*Sweeper, error) {
	sw := &Sweeper{store: store, bus: bus, ttl: ttl, cron: cron.New(), now: time.Now}
	if _, err := sw.cron.AddFunc(schedule, sw.Sweep); err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}
	return sw, nil
}

// Start begins the schedule.
func (sw *Sweeper) Start() {
	sw.cron.Start()
	slog.Debug("session sweeper started", "ttl", sw.ttl)
}

// Stop halts the schedule and waits for a running sweep.
func (sw *Sweeper) Stop() {
	<-sw.cron.Stop().Done()
}

// Sweep evicts idle sessions once.
func (sw *Sweeper) Sweep() {
	evicted := sw.store.EvictIdle(sw.ttl)
	for _, s := range evicted {
		idle := sw.now().Sub(s.UpdatedAt)
		slog.Info("session expired", "session_id", s.ID, "idle", idle.Round(time.Second))
		if sw.bus != nil {
			sw.bus.Publish(events.NewTypedEventWithSession(events.SourceSessions,
				events.SessionExpiredPayload{IdleFor: idle}, s.ID))
		}
	}
}
