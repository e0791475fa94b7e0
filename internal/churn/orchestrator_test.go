package churn

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	klog "github.com/Klingon-tech/churn/internal/log"
)

func newTestOrchestrator(w *fakeWallet, d TimingDeriver, s Settings) (*Orchestrator, *recordingWaiter) {
	waiter := &recordingWaiter{}
	gen := NewGenerator(s, d, rand.New(rand.NewSource(99)))
	return NewOrchestrator(w, gen, waiter, s), waiter
}

func destinations(r *Report) []uint32 {
	out := make([]uint32, len(r.Rounds))
	for i, round := range r.Rounds {
		out[i] = round.Destination
	}
	return out
}

func TestOrchestrator_DryRunQuickThreeChurns(t *testing.T) {
	var buf bytes.Buffer
	klog.SetOutput(&buf, "info")
	t.Cleanup(func() { klog.Init("info", false, "") })

	w := newFakeWallet(100, 0, 50)
	s := testSettings(3)
	s.DryRun = true
	s.Quick = true
	o, waiter := newTestOrchestrator(w, &spyDeriver{}, s)

	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(w.sweeps) != 0 {
		t.Errorf("sweep calls = %d, want 0", len(w.sweeps))
	}
	if report.Schedule.Len() != 2 || len(waiter.waits) != 2 {
		t.Fatalf("schedule = %d waits, waited %d times, want 2/2", report.Schedule.Len(), len(waiter.waits))
	}
	for _, d := range waiter.waits {
		if d < s.QuickLower || d >= s.QuickUpper {
			t.Errorf("wait %s outside quick range", d)
		}
	}
	if report.Schedule.Source() != SourceRandom {
		t.Errorf("source = %s, want random", report.Schedule.Source())
	}

	got := destinations(report)
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 0 {
		t.Errorf("destinations = %v, want [1 2 0]", got)
	}
	if n := strings.Count(buf.String(), `"message":"churn round"`); n != 3 {
		t.Errorf("logged %d churn rounds, want 3", n)
	}
}

func TestOrchestrator_DryRunNeverSweeps(t *testing.T) {
	for churns := DefaultChurnLower; churns <= DefaultChurnUpper; churns++ {
		w := newFakeWallet(10, 20, 30)
		s := testSettings(churns)
		s.DryRun = true
		s.Quick = true
		o, _ := newTestOrchestrator(w, &spyDeriver{}, s)

		report, err := o.Run(context.Background())
		if err != nil {
			t.Fatalf("churns=%d: Run: %v", churns, err)
		}
		if len(w.sweeps) != 0 {
			t.Errorf("churns=%d: sweep calls = %d, want 0", churns, len(w.sweeps))
		}
		if report.TxHash != "" {
			t.Errorf("churns=%d: tx hash = %q, want none", churns, report.TxHash)
		}
		if len(report.Rounds) != churns {
			t.Errorf("churns=%d: rounds = %d", churns, len(report.Rounds))
		}
	}
}

func TestOrchestrator_RejectsCountBeforeRPC(t *testing.T) {
	for _, churns := range []int{0, 2, 11} {
		w := newFakeWallet(10)
		o, _ := newTestOrchestrator(w, &spyDeriver{}, testSettings(churns))

		report, err := o.Run(context.Background())
		var countErr *CountError
		if !errors.As(err, &countErr) {
			t.Fatalf("churns=%d: err = %v, want CountError", churns, err)
		}
		if w.listCalls != 0 || w.creates != 0 || len(w.sweeps) != 0 {
			t.Errorf("churns=%d: RPC calls made before validation", churns)
		}
		last := report.States[len(report.States)-1]
		if last != StateFailed {
			t.Errorf("last state = %s, want failed", last)
		}
	}
}

func TestOrchestrator_LiveUsesDerivedSchedule(t *testing.T) {
	w := newFakeWallet(100, 0, 50)
	w.hashes = []string{"abc"}
	spy := &spyDeriver{waits: []time.Duration{time.Hour, 2 * time.Hour, 3 * time.Hour}}
	o, waiter := newTestOrchestrator(w, spy, testSettings(3))

	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(spy.hashes) != 1 || spy.hashes[0] != "abc" {
		t.Errorf("deriver hashes = %v, want [abc]", spy.hashes)
	}
	if report.Schedule.Source() != SourceDerived {
		t.Errorf("source = %s, want derived", report.Schedule.Source())
	}
	if len(waiter.waits) != 2 || waiter.waits[0] != time.Hour || waiter.waits[1] != 2*time.Hour {
		t.Errorf("waits = %v, want [1h 2h]", waiter.waits)
	}

	// Round 1 sweeps 0 and 2 into 1, round 2 moves 1 into 2, round 3 moves 2 into 0.
	if len(w.sweeps) != 4 {
		t.Fatalf("sweeps = %+v, want 4", w.sweeps)
	}
	if w.accounts[0].UnlockedBalance != 150 {
		t.Errorf("account 0 balance = %d, want 150", w.accounts[0].UnlockedBalance)
	}
	if report.States[len(report.States)-1] != StateDone {
		t.Errorf("last state = %s, want done", report.States[len(report.States)-1])
	}
}

func TestOrchestrator_KeepsOnlyFirstHash(t *testing.T) {
	w := newFakeWallet(10, 0, 20, 30)
	w.hashes = []string{"first", "second", "third"}
	spy := &spyDeriver{waits: []time.Duration{time.Minute, time.Minute}}
	o, _ := newTestOrchestrator(w, spy, testSettings(3))

	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TxHash != "first" {
		t.Errorf("tx hash = %q, want first", report.TxHash)
	}
	if len(spy.hashes) != 1 || spy.hashes[0] != "first" {
		t.Errorf("deriver hashes = %v, want [first]", spy.hashes)
	}
	if n := len(report.Rounds[0].Transfers); n != 3 {
		t.Errorf("first round transfers = %d, want 3", n)
	}
}

func TestOrchestrator_NeverSweepsIntoItselfAndSkipsEmpty(t *testing.T) {
	w := newFakeWallet(10, 5, 0, 0, 7)
	spy := &spyDeriver{waits: []time.Duration{time.Minute, time.Minute, time.Minute, time.Minute}}
	o, _ := newTestOrchestrator(w, spy, testSettings(5))

	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, sw := range w.sweeps {
		if sw.To == w.accounts[sw.From].BaseAddress {
			t.Errorf("account %d swept into itself", sw.From)
		}
		if sw.Amount == 0 {
			t.Errorf("account %d swept with zero balance", sw.From)
		}
	}

	first := report.Rounds[0]
	if len(first.Transfers) != 2 {
		t.Errorf("first round transfers = %+v, want from 0 and 4", first.Transfers)
	}
	if len(first.Skipped) != 2 || first.Skipped[0] != 2 || first.Skipped[1] != 3 {
		t.Errorf("first round skipped = %v, want [2 3]", first.Skipped)
	}
	for _, tr := range first.Transfers {
		if tr.From == 1 {
			t.Error("destination account 1 transferred in its own round")
		}
	}
}

func TestOrchestrator_ProvisionsAccounts(t *testing.T) {
	w := newFakeWallet(100)
	s := testSettings(4)
	s.DryRun = true
	o, _ := newTestOrchestrator(w, nil, s)

	report, err := o.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if w.creates != 3 {
		t.Errorf("creates = %d, want 3", w.creates)
	}
	got := destinations(report)
	if len(got) != 4 || got[0] != 1 || got[1] != 2 || got[2] != 3 || got[3] != 0 {
		t.Errorf("destinations = %v, want [1 2 3 0]", got)
	}
}

func TestOrchestrator_SweepErrorAborts(t *testing.T) {
	boom := errors.New("not enough unlocked money")
	w := newFakeWallet(100, 0, 0)
	w.sweepErr = boom
	o, waiter := newTestOrchestrator(w, &spyDeriver{}, testSettings(3))

	report, err := o.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(waiter.waits) != 0 {
		t.Errorf("waited %d times after failure, want 0", len(waiter.waits))
	}
	states := report.States
	if states[len(states)-2] != StateFirstSweep || states[len(states)-1] != StateFailed {
		t.Errorf("states = %v, want ... first_sweep failed", states)
	}
}

func TestOrchestrator_Pacing(t *testing.T) {
	w := newFakeWallet(10, 0, 20)
	s := testSettings(3)
	s.DryRun = true
	s.Quick = true
	s.Pacing = 500 * time.Millisecond
	o, waiter := newTestOrchestrator(w, nil, s)

	if _, err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var pacing int
	for _, d := range waiter.waits {
		if d == s.Pacing {
			pacing++
		}
	}
	// Dry-run balances never move. Round 1 (dest 1) sweeps 0 and 2,
	// round 2 (dest 2) sweeps 0, round 3 (dest 0) sweeps 2.
	if pacing != 4 {
		t.Errorf("pacing waits = %d, want 4", pacing)
	}
}

func TestOrchestrator_WaitCanceled(t *testing.T) {
	w := newFakeWallet(10, 0, 0)
	s := testSettings(3)
	s.DryRun = true
	gen := NewGenerator(s, nil, nil)
	waiter := &recordingWaiter{err: context.Canceled}
	o := NewOrchestrator(w, gen, waiter, s)

	report, err := o.Run(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(report.Rounds) != 1 {
		t.Errorf("rounds = %d, want 1", len(report.Rounds))
	}
}
