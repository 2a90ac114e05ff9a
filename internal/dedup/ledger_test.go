package dedup

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestLedger() *Ledger {
	return New(Config{
		Retention:     time.Hour,
		SweepInterval: time.Minute,
		Logger:        zap.NewNop(),
	})
}

func TestObserve_FirstThenDuplicate(t *testing.T) {
	l := newTestLedger()

	if obs := l.Observe("0xabc"); obs != FirstSeen {
		t.Errorf("expected FirstSeen, got %v", obs)
	}

	if obs := l.Observe("0xabc"); obs != AlreadySeen {
		t.Errorf("expected AlreadySeen, got %v", obs)
	}

	if obs := l.Observe("0xdef"); obs != FirstSeen {
		t.Errorf("expected FirstSeen for distinct ID, got %v", obs)
	}
}

func TestObserve_ExactlyOneWinnerUnderConcurrency(t *testing.T) {
	l := newTestLedger()

	const goroutines = 32
	var wg sync.WaitGroup
	results := make(chan Observation, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- l.Observe("0xracy")
		}()
	}

	wg.Wait()
	close(results)

	firstSeen := 0
	for obs := range results {
		if obs == FirstSeen {
			firstSeen++
		}
	}

	if firstSeen != 1 {
		t.Errorf("expected exactly 1 FirstSeen, got %d", firstSeen)
	}
}

func TestMark_TerminalStatusesStick(t *testing.T) {
	l := newTestLedger()

	l.Observe("0xabc")
	l.MarkDone("0xabc")

	// A later skip must not overwrite the terminal status.
	l.MarkSkipped("0xabc")

	status, ok := l.Status("0xabc")
	if !ok {
		t.Fatal("expected entry to exist")
	}

	if status != StatusDone {
		t.Errorf("expected StatusDone, got %v", status)
	}
}

func TestMark_UnknownIDIsNoop(t *testing.T) {
	l := newTestLedger()

	l.MarkDone("0xmissing")

	if _, ok := l.Status("0xmissing"); ok {
		t.Error("expected no entry to be created by MarkDone")
	}
}

func TestPreseed_BlocksHistoricalTrades(t *testing.T) {
	l := newTestLedger()

	l.Preseed([]string{"0x1", "0x2"})

	if obs := l.Observe("0x1"); obs != AlreadySeen {
		t.Errorf("expected preseeded ID to be AlreadySeen, got %v", obs)
	}

	status, _ := l.Status("0x2")
	if status != StatusSkipped {
		t.Errorf("expected preseeded entries marked skipped, got %v", status)
	}
}

func TestSweep_EvictsTerminalAfterRetention(t *testing.T) {
	l := newTestLedger()

	l.Observe("0xold")
	l.MarkDone("0xold")
	l.Observe("0xnew")
	l.MarkDone("0xnew")

	// Age the first entry past retention.
	l.mu.Lock()
	l.entries["0xold"].firstSeen = time.Now().Add(-2 * time.Hour)
	l.mu.Unlock()

	evicted := l.sweep(time.Now())
	if evicted != 1 {
		t.Errorf("expected 1 eviction, got %d", evicted)
	}

	if _, ok := l.Status("0xold"); ok {
		t.Error("expected aged entry to be evicted")
	}

	if _, ok := l.Status("0xnew"); !ok {
		t.Error("expected fresh entry to survive the sweep")
	}
}

func TestSweep_PendingEntriesGetExtraWindow(t *testing.T) {
	l := newTestLedger()

	l.Observe("0xpending")

	l.mu.Lock()
	l.entries["0xpending"].firstSeen = time.Now().Add(-90 * time.Minute)
	l.mu.Unlock()

	// 90m is past retention (1h) but inside the doubled pending window (2h).
	if evicted := l.sweep(time.Now()); evicted != 0 {
		t.Errorf("expected pending entry to survive, evicted %d", evicted)
	}

	l.mu.Lock()
	l.entries["0xpending"].firstSeen = time.Now().Add(-3 * time.Hour)
	l.mu.Unlock()

	if evicted := l.sweep(time.Now()); evicted != 1 {
		t.Errorf("expected stale pending entry to be evicted, got %d", evicted)
	}
}
