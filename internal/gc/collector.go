// Package gc erases expired notes on a fixed interval and records their ids
// in the expired tombstone filter.
package gc

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mcndt/noteshare.space/internal/events"
	"github.com/mcndt/noteshare.space/internal/filter"
	"github.com/mcndt/noteshare.space/internal/store"
)

// FailedRun is returned when a collection pass could not complete. A failed
// pass is logged, never propagated: the next tick simply retries.
const FailedRun = -1

// Collector performs one garbage collection pass per Run call. It is meant
// to run from a single process; concurrent collectors are not coordinated.
type Collector struct {
	notes    store.Notes
	expired  *filter.Filter
	recorder events.Recorder
	log      zerolog.Logger

	now func() time.Time
}

// New wires a collector against the note repository and the expired filter.
func New(st store.Store, filters *filter.Set, rec events.Recorder, log zerolog.Logger) *Collector {
	return &Collector{
		notes:    st.Notes(),
		expired:  filters.Expired,
		recorder: rec,
		log:      log.With().Str("component", "cleanup").Logger(),
		now:      time.Now,
	}
}

// Run deletes all notes past their expire time, returning how many were
// removed, 0 when nothing is expired, or FailedRun on any failure.
func (c *Collector) Run(ctx context.Context) (n int) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("cleanup pass panicked")
			n = FailedRun
		}
	}()

	c.log.Info().Msg("cleaning up expired notes")

	toDelete, err := c.notes.ListExpired(ctx, c.now().UTC())
	if err != nil {
		c.log.Error().Err(err).Msg("failed to list expired notes")
		return FailedRun
	}
	if len(toDelete) == 0 {
		return 0
	}

	ids := make([]string, len(toDelete))
	for i, note := range toDelete {
		ids[i] = note.ID
	}

	count, err := c.notes.Delete(ctx, ids)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to delete expired notes")
		return FailedRun
	}

	if err := c.expired.Add(ctx, ids...); err != nil {
		c.log.Error().Err(err).Msg("failed to persist expired tombstones")
		return FailedRun
	}

	for _, note := range toDelete {
		c.log.Info().Str("note_id", note.ID).Int("size_bytes", note.Size()).Msg("deleted expired note")
		c.recorder.Record(ctx, events.Event{
			Type:      events.TypePurge,
			Success:   true,
			NoteID:    note.ID,
			SizeBytes: note.Size(),
		})
	}

	c.log.Info().Int("count", count).Msg("deleted expired notes")
	return count
}

// RunEvery runs collection passes on a fixed interval (floored at one
// second) until ctx is cancelled.
func (c *Collector) RunEvery(ctx context.Context, interval time.Duration) {
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Run(ctx)
		}
	}
}
