// Package dedup tracks which source trade identifiers have already been
// processed, across both monitoring origins.
package dedup

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Observation is the result of recording a sighting of a source trade ID.
type Observation int

const (
	// FirstSeen means this caller won the race: it owns processing the trade.
	FirstSeen Observation = iota
	// AlreadySeen means the trade is being or has been handled.
	AlreadySeen
)

// EntryStatus is the lifecycle state of a ledger entry.
type EntryStatus int

const (
	// StatusPending means the trade is being processed.
	StatusPending EntryStatus = iota
	// StatusDone means a copy order was produced and reconciled.
	StatusDone
	// StatusSkipped means the trade was deliberately not copied.
	StatusSkipped
)

type entry struct {
	status    EntryStatus
	firstSeen time.Time
}

// Ledger provides atomic first-seen semantics for source trade IDs. Both
// monitoring origins (stream and poll) call Observe concurrently; exactly one
// caller receives FirstSeen per ID. Entries age out after the retention
// window to bound memory.
type Ledger struct {
	mu        sync.Mutex
	entries   map[string]*entry
	retention time.Duration
	sweepEach time.Duration
	logger    *zap.Logger
}

// Config holds ledger configuration.
type Config struct {
	Retention     time.Duration
	SweepInterval time.Duration
	Logger        *zap.Logger
}

// New creates a new deduplication ledger.
func New(cfg Config) *Ledger {
	return &Ledger{
		entries:   make(map[string]*entry),
		retention: cfg.Retention,
		sweepEach: cfg.SweepInterval,
		logger:    cfg.Logger,
	}
}

// Observe records a sighting of the given source trade ID. Atomic
// test-and-set: exactly one concurrent caller receives FirstSeen.
func (l *Ledger) Observe(sourceTradeID string) Observation {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.entries[sourceTradeID]; ok {
		DuplicatesTotal.Inc()
		return AlreadySeen
	}

	l.entries[sourceTradeID] = &entry{
		status:    StatusPending,
		firstSeen: time.Now(),
	}
	EntriesGauge.Set(float64(len(l.entries)))

	return FirstSeen
}

// MarkDone marks an entry terminal after a copy order was reconciled.
func (l *Ledger) MarkDone(sourceTradeID string) {
	l.setStatus(sourceTradeID, StatusDone)
}

// MarkSkipped marks an entry terminal after a deliberate skip or denial.
func (l *Ledger) MarkSkipped(sourceTradeID string) {
	l.setStatus(sourceTradeID, StatusSkipped)
}

func (l *Ledger) setStatus(sourceTradeID string, status EntryStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[sourceTradeID]
	if !ok {
		return
	}

	// Terminal statuses are never revisited.
	if e.status != StatusPending {
		return
	}

	e.status = status
}

// Status returns the status of an entry, if present.
func (l *Ledger) Status(sourceTradeID string) (EntryStatus, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[sourceTradeID]
	if !ok {
		return StatusPending, false
	}

	return e.status, true
}

// Preseed marks a batch of IDs as already processed. Used at startup so that
// the target's pre-existing trade history is never copied.
func (l *Ledger) Preseed(sourceTradeIDs []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for _, id := range sourceTradeIDs {
		if _, ok := l.entries[id]; ok {
			continue
		}
		l.entries[id] = &entry{
			status:    StatusSkipped,
			firstSeen: now,
		}
	}
	EntriesGauge.Set(float64(len(l.entries)))
}

// Len returns the number of tracked entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

// Run sweeps expired entries until the context is cancelled.
func (l *Ledger) Run(ctx context.Context) {
	ticker := time.NewTicker(l.sweepEach)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := l.sweep(time.Now())
			if evicted > 0 {
				l.logger.Debug("ledger-sweep-complete",
					zap.Int("evicted", evicted),
					zap.Int("remaining", l.Len()))
			}
		}
	}
}

// sweep removes entries older than the retention window. Terminal entries
// are always safe to evict; PENDING entries get one extra retention window
// in case a submit is still in flight.
func (l *Ledger) sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for id, e := range l.entries {
		age := now.Sub(e.firstSeen)
		if e.status == StatusPending {
			if age <= 2*l.retention {
				continue
			}
		} else if age <= l.retention {
			continue
		}

		delete(l.entries, id)
		evicted++
	}

	if evicted > 0 {
		EvictionsTotal.Add(float64(evicted))
		EntriesGauge.Set(float64(len(l.entries)))
	}

	return evicted
}
